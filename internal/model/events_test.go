package model

import (
	"encoding/json"
	"testing"
)

func TestSwapEventDataJSONStringFields(t *testing.T) {
	payload := SwapEventData{
		Sender:    "0x1111111111111111111111111111111111111111",
		Recipient: "0x2222222222222222222222222222222222222222",
		Amount0:   "12345678901234567890",
		Amount1:   "-42",
		Price:     "79228162514264337593543950336",
		Liquidity: "5000000000000000000",
		Tick:      10,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, field := range []string{"amount0", "amount1", "price", "liquidity"} {
		if _, ok := decoded[field].(string); !ok {
			t.Fatalf("%s should be a string", field)
		}
	}
}

func TestTypedEventRecordOmitsEmptyPoolMeta(t *testing.T) {
	record := TypedEventRecord{
		ChainID:     48900,
		BlockNumber: 100,
		EventName:   "PoolCreated",
		Decoded:     json.RawMessage(`{"token0":"0xa","token1":"0xb","pool":"0xc"}`),
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["pool_meta"]; ok {
		t.Fatalf("pool_meta should be omitted for factory events")
	}
}
