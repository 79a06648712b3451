package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Network holds the per-deployment valuation constants. Deployments differ
// only in this data; the pricing logic itself is shared.
type Network struct {
	Name                   string
	ChainID                uint64
	Factory                string
	PositionManager        string
	LiquidityHub           string
	LimitOrder             string
	WhitelistContract      string
	ReferenceToken         string
	StablePool             string
	StablePoolReferenceIs0 bool
	MinimumReferenceLocked decimal.Decimal
	WhitelistTokens        []string
	StableCoins            []string

	whitelist map[string]struct{}
	stable    map[string]struct{}
}

// IsReferenceToken reports whether id is the deployment's reference token.
func (n *Network) IsReferenceToken(id string) bool {
	return strings.EqualFold(id, n.ReferenceToken)
}

// IsWhitelisted reports whether id is a trusted valuation anchor.
func (n *Network) IsWhitelisted(id string) bool {
	_, ok := n.whitelist[strings.ToLower(id)]
	return ok
}

// IsStableCoin reports whether id is assumed pegged 1:1 to USD.
func (n *Network) IsStableCoin(id string) bool {
	_, ok := n.stable[strings.ToLower(id)]
	return ok
}

func (n *Network) normalize() {
	n.Factory = strings.ToLower(n.Factory)
	n.PositionManager = strings.ToLower(n.PositionManager)
	n.LiquidityHub = strings.ToLower(n.LiquidityHub)
	n.LimitOrder = strings.ToLower(n.LimitOrder)
	n.WhitelistContract = strings.ToLower(n.WhitelistContract)
	n.ReferenceToken = strings.ToLower(n.ReferenceToken)
	n.StablePool = strings.ToLower(n.StablePool)

	n.whitelist = make(map[string]struct{}, len(n.WhitelistTokens))
	for i, token := range n.WhitelistTokens {
		token = strings.ToLower(strings.TrimSpace(token))
		n.WhitelistTokens[i] = token
		n.whitelist[token] = struct{}{}
	}
	n.stable = make(map[string]struct{}, len(n.StableCoins))
	for i, token := range n.StableCoins {
		token = strings.ToLower(strings.TrimSpace(token))
		n.StableCoins[i] = token
		n.stable[token] = struct{}{}
	}
}

// NewNetwork builds a Network from explicit values, normalizing addresses to
// lowercase and indexing the token lists.
func NewNetwork(n Network) *Network {
	n.normalize()
	return &n
}

// builtinNetworks mirrors the deployment targets the valuation model ships
// with. Addresses are the canonical deployment constants per chain.
func builtinNetworks() map[string]Network {
	return map[string]Network{
		"zircuit": {
			Name:                   "zircuit",
			ChainID:                48900,
			Factory:                "0x306F06C147f064A010530292A1EB6737c3e378e4",
			LiquidityHub:           "0x822ddb9EECc3794790B8316585FebA5b8F7C7507",
			ReferenceToken:         "0x4200000000000000000000000000000000000006",
			StablePool:             "0xcd927c5800d1d4e896a135ce0a4528979c8d24b3",
			MinimumReferenceLocked: decimal.RequireFromString("0.1"),
			WhitelistTokens: []string{
				"0x4200000000000000000000000000000000000006", // WETH
				"0x46dda6a5a559d861c06ec9a95fb395f5c3db0742", // USDT
				"0xfd418e42783382e86ae91e445406600ba144d162", // ZRC
				"0x19df5689cfce64bc2a55f7220b0cd522659955ef", // BTC
				"0x3b952c8c9c44e8fe201e2b26f6b2200203214cff", // USDC
				"0x58024021fe3ef613fa76e2f36a3da97eb1454c36", // OCELEX
				"0x5d3a1ff2b6bab83b63cd9ad0787074081a52ef34", // ETHENA
			},
			StableCoins: []string{
				"0x46dda6a5a559d861c06ec9a95fb395f5c3db0742",
				"0x3b952c8c9c44e8fe201e2b26f6b2200203214cff",
				"0x5d3a1ff2b6bab83b63cd9ad0787074081a52ef34",
			},
		},
		"base-clamm": {
			Name:                   "base-clamm",
			ChainID:                8453,
			Factory:                "0x51a744E9FEdb15842c3080d0937C99A365C6c358",
			PositionManager:        "0x8aD26dc9f724c9A7319E0E25b907d15626D9a056",
			LimitOrder:             "0x822ddb9EECc3794790B8316585FebA5b8F7C7507",
			ReferenceToken:         "0x4200000000000000000000000000000000000006",
			StablePool:             "0xabff72aee1ba72fc459acd5222dd84a3182411bb",
			StablePoolReferenceIs0: true,
			MinimumReferenceLocked: decimal.Zero,
			WhitelistTokens: []string{
				"0x4200000000000000000000000000000000000006",
				"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
				"0x5aefba317baba46eaf98fd6f381d07673bca6467",
				"0x49A390A3DFD2D01389F799965F3AF5961F87D228",
			},
			StableCoins: []string{
				"0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			},
		},
		"avalanche": {
			Name:                   "avalanche",
			ChainID:                43114,
			Factory:                "0x512eb749541B7cf294be882D636218c84a5e9E5F",
			PositionManager:        "0x3fED017EC0f5517Cdf2E8a9a4156c64d74252146",
			LimitOrder:             "0x05F9E353559da6f2Bfe9A0980D5C3e84eA5d4238",
			ReferenceToken:         "0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7",
			StablePool:             "0x41100C6D2c6920B10d12Cd8D59c8A9AA2eF56fC7",
			StablePoolReferenceIs0: true,
			MinimumReferenceLocked: decimal.Zero,
			WhitelistTokens: []string{
				"0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7",
				"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e",
			},
			StableCoins: []string{
				"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e",
			},
		},
		"sei-yaka": {
			Name:                   "sei-yaka",
			ChainID:                1329,
			Factory:                "0xEdbBc263C74865e67C6b16F47740Fa3901b95Ae1",
			PositionManager:        "0x1851cf3Ef0e0427948E16de79740A873189E9373",
			LimitOrder:             "0x822ddb9EECc3794790B8316585FebA5b8F7C7507",
			ReferenceToken:         "0xE30feDd158A2e3b13e9badaeABaFc5516e95e8C7",
			StablePool:             "0xf89c918f0ee8a2f752fedcca012acf930bda2905",
			MinimumReferenceLocked: decimal.RequireFromString("500"),
			WhitelistTokens: []string{
				"0xe30fedd158a2e3b13e9badaeabafc5516e95e8c7",
				"0xb75d0b03c06a926e488e2659df1a861f860bd3d1",
				"0x3894085ef7ff0f0aedf52e2a2704928d1ec074f1",
				"0x5cf6826140c1c56ff49c808a1a75407cd1df9423",
				"0x51121bcae92e302f19d06c193c95e1f7b81a444b",
				"0x160345fc359604fc6e70e3c5facbde5f7a9342d8",
				"0x0555e30da8f98308edb960aa94c0db47230d2b9c",
				"0x37a4dd9ced2b19cfe8fac251cd727b5787e45269",
				"0x059a6b0ba116c63191182a0956cf697d0d2213ec",
				"0x541fd749419ca806a8bc7da8ac23d346f2df8b77",
				"0x9151434b16b9763660705744891fa906f660ecc5",
				"0x5f0e07dfee5832faa00c63f2d33a0d79150e8598",
				"0x95597eb8d227a7c4b4f5e807a815c5178ee6dbe1",
				"0xf9bdbf259ece5ae17e29bf92eb7abd7b8b465db9",
				"0x80eede496655fb9047dd39d9f418d5483ed600df",
				"0x93919784c523f39cacaa98ee0a9d96c3f32b593e",
				"0x9bfa177621119e64cecbeabe184ab9993e2ef727",
			},
			StableCoins: []string{
				"0x3894085ef7ff0f0aedf52e2a2704928d1ec074f1",
				"0x9151434b16b9763660705744891fA906F660EcC5",
				"0x059a6b0ba116c63191182a0956cf697d0d2213ec",
			},
		},
		"hyperevm-kitten": {
			Name:                   "hyperevm-kitten",
			ChainID:                999,
			Factory:                "0x5f95E92c338e6453111Fc55ee66D4AafccE661A7",
			PositionManager:        "0x9ea4459c8DefBF561495d95414b9CF1E2242a3E2",
			ReferenceToken:         "0x5555555555555555555555555555555555555555",
			StablePool:             "0x3c1403335d0ca7d0A73c9E775B25514537C2b809",
			StablePoolReferenceIs0: true,
			MinimumReferenceLocked: decimal.Zero,
			WhitelistTokens: []string{
				"0x5555555555555555555555555555555555555555",
				"0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb",
				"0x5aefba317baba46eaf98fd6f381d07673bca6467",
				"0x49A390A3DFD2D01389F799965F3AF5961F87D228",
			},
			StableCoins: []string{
				"0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb",
			},
		},
	}
}

// LoadNetwork resolves a built-in deployment by name, optionally overlaying
// values from a config file section.
func LoadNetwork(name string, cfgFile string) (*Network, error) {
	networks := builtinNetworks()
	network, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok && cfgFile == "" {
		return nil, fmt.Errorf("unknown network: %s", name)
	}

	if cfgFile != "" {
		v := viper.New()
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read network config: %w", err)
		}
		sub := v.Sub("network")
		if sub == nil && !ok {
			return nil, fmt.Errorf("unknown network %s and no network section in %s", name, cfgFile)
		}
		if sub != nil {
			applyNetworkOverrides(&network, sub)
		}
	}

	if network.ReferenceToken == "" {
		return nil, fmt.Errorf("network %s: reference token is required", name)
	}
	if network.StablePool == "" {
		return nil, fmt.Errorf("network %s: stable pool is required", name)
	}

	network.normalize()
	return &network, nil
}

func applyNetworkOverrides(network *Network, v *viper.Viper) {
	if v.IsSet("name") {
		network.Name = v.GetString("name")
	}
	if v.IsSet("chain-id") {
		network.ChainID = v.GetUint64("chain-id")
	}
	if v.IsSet("factory") {
		network.Factory = v.GetString("factory")
	}
	if v.IsSet("position-manager") {
		network.PositionManager = v.GetString("position-manager")
	}
	if v.IsSet("liquidity-hub") {
		network.LiquidityHub = v.GetString("liquidity-hub")
	}
	if v.IsSet("limit-order") {
		network.LimitOrder = v.GetString("limit-order")
	}
	if v.IsSet("whitelist-contract") {
		network.WhitelistContract = v.GetString("whitelist-contract")
	}
	if v.IsSet("reference-token") {
		network.ReferenceToken = v.GetString("reference-token")
	}
	if v.IsSet("stable-pool") {
		network.StablePool = v.GetString("stable-pool")
	}
	if v.IsSet("stable-pool-reference-is-token0") {
		network.StablePoolReferenceIs0 = v.GetBool("stable-pool-reference-is-token0")
	}
	if v.IsSet("minimum-reference-locked") {
		if min, err := decimal.NewFromString(v.GetString("minimum-reference-locked")); err == nil {
			network.MinimumReferenceLocked = min
		}
	}
	if v.IsSet("whitelist-tokens") {
		network.WhitelistTokens = v.GetStringSlice("whitelist-tokens")
	}
	if v.IsSet("stable-coins") {
		network.StableCoins = v.GetStringSlice("stable-coins")
	}
}
