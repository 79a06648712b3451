package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"pricingScope/internal/model"
)

// defaultTokenDecimals is assumed until ERC20 metadata arrives with a
// pool-scoped event. Nearly every token on the covered chains uses 18.
const defaultTokenDecimals = 18

// State is the in-memory entity set the engine updates while replaying
// events. It doubles as the read source for the pricing core. Entity IDs are
// lowercase addresses.
type State struct {
	tokens      map[string]*model.Token
	pools       map[string]*model.Pool
	bundle      *model.Bundle
	epochs      map[string]*model.Epoch
	limitOrders map[string]*model.LimitOrder
	whitelisted map[string]*model.WhitelistedUser

	dirtyTokens      map[string]struct{}
	dirtyPools       map[string]struct{}
	dirtyEpochs      map[string]struct{}
	dirtyLimitOrders map[string]struct{}
	dirtyWhitelisted map[string]struct{}
	bundleDirty      bool
	pendingOrders    []*model.Order
}

func NewState() *State {
	return &State{
		tokens:           make(map[string]*model.Token),
		pools:            make(map[string]*model.Pool),
		bundle:           &model.Bundle{ID: model.BundleID},
		epochs:           make(map[string]*model.Epoch),
		limitOrders:      make(map[string]*model.LimitOrder),
		whitelisted:      make(map[string]*model.WhitelistedUser),
		dirtyTokens:      make(map[string]struct{}),
		dirtyPools:       make(map[string]struct{}),
		dirtyEpochs:      make(map[string]struct{}),
		dirtyLimitOrders: make(map[string]struct{}),
		dirtyWhitelisted: make(map[string]struct{}),
	}
}

func entityKey(id string) string {
	return strings.ToLower(id)
}

// Token implements pricing.EntitySource.
func (s *State) Token(id string) (*model.Token, bool) {
	token, ok := s.tokens[entityKey(id)]
	return token, ok
}

// Pool implements pricing.EntitySource.
func (s *State) Pool(id string) (*model.Pool, bool) {
	pool, ok := s.pools[entityKey(id)]
	return pool, ok
}

func (s *State) Bundle() *model.Bundle {
	return s.bundle
}

func (s *State) Epoch(id string) (*model.Epoch, bool) {
	epoch, ok := s.epochs[id]
	return epoch, ok
}

func (s *State) LimitOrder(id string) (*model.LimitOrder, bool) {
	order, ok := s.limitOrders[id]
	return order, ok
}

func (s *State) WhitelistedUser(id string) (*model.WhitelistedUser, bool) {
	user, ok := s.whitelisted[entityKey(id)]
	return user, ok
}

// GetOrCreateToken returns the tracked token, creating a placeholder with
// default decimals when the token has not been described yet.
func (s *State) GetOrCreateToken(id string) *model.Token {
	key := entityKey(id)
	if token, ok := s.tokens[key]; ok {
		return token
	}
	token := &model.Token{
		ID:       key,
		Decimals: defaultTokenDecimals,
	}
	s.tokens[key] = token
	s.dirtyTokens[key] = struct{}{}
	return token
}

// ApplyTokenMeta upgrades a placeholder token with on-chain ERC20 metadata.
// Metadata is immutable, so a token that already has a symbol keeps it.
func (s *State) ApplyTokenMeta(token *model.Token, meta *model.TokenMeta) {
	if meta == nil || token.Symbol != "" {
		return
	}
	token.Symbol = meta.Symbol
	token.Name = meta.Name
	if meta.Decimals > 0 {
		token.Decimals = int32(meta.Decimals)
	}
	s.MarkToken(token)
}

// AddPool registers a new pool. Existing pools are returned untouched so a
// replayed creation event cannot reset live state.
func (s *State) AddPool(pool *model.Pool) *model.Pool {
	key := entityKey(pool.ID)
	if existing, ok := s.pools[key]; ok {
		return existing
	}
	pool.ID = key
	pool.Token0 = entityKey(pool.Token0)
	pool.Token1 = entityKey(pool.Token1)
	s.pools[key] = pool
	s.dirtyPools[key] = struct{}{}
	return pool
}

func (s *State) AddEpoch(epoch *model.Epoch) *model.Epoch {
	if existing, ok := s.epochs[epoch.ID]; ok {
		return existing
	}
	s.epochs[epoch.ID] = epoch
	s.dirtyEpochs[epoch.ID] = struct{}{}
	return epoch
}

func (s *State) AddLimitOrder(order *model.LimitOrder) *model.LimitOrder {
	if existing, ok := s.limitOrders[order.ID]; ok {
		return existing
	}
	s.limitOrders[order.ID] = order
	s.dirtyLimitOrders[order.ID] = struct{}{}
	return order
}

func (s *State) AddOrder(order *model.Order) {
	s.pendingOrders = append(s.pendingOrders, order)
}

// AddWhitelistedUser registers a whitelisted address. A re-emitted event for
// the same address overwrites the recorded grant, matching last-write wins.
func (s *State) AddWhitelistedUser(user *model.WhitelistedUser) *model.WhitelistedUser {
	key := entityKey(user.ID)
	user.ID = key
	user.User = entityKey(user.User)
	s.whitelisted[key] = user
	s.dirtyWhitelisted[key] = struct{}{}
	return user
}

func (s *State) MarkToken(token *model.Token) {
	s.dirtyTokens[token.ID] = struct{}{}
}

func (s *State) MarkPool(pool *model.Pool) {
	s.dirtyPools[pool.ID] = struct{}{}
}

func (s *State) MarkBundle() {
	s.bundleDirty = true
}

func (s *State) MarkEpoch(epoch *model.Epoch) {
	s.dirtyEpochs[epoch.ID] = struct{}{}
}

func (s *State) MarkLimitOrder(order *model.LimitOrder) {
	s.dirtyLimitOrders[order.ID] = struct{}{}
}

// DirtyCount is the number of entities waiting for a commit.
func (s *State) DirtyCount() int {
	count := len(s.dirtyTokens) + len(s.dirtyPools) + len(s.dirtyEpochs) +
		len(s.dirtyLimitOrders) + len(s.dirtyWhitelisted) + len(s.pendingOrders)
	if s.bundleDirty {
		count++
	}
	return count
}

// Changes drains the dirty sets into a commit batch.
func (s *State) Changes() *ChangeSet {
	set := &ChangeSet{}
	for id := range s.dirtyTokens {
		set.Tokens = append(set.Tokens, s.tokens[id])
	}
	for id := range s.dirtyPools {
		set.Pools = append(set.Pools, s.pools[id])
	}
	for id := range s.dirtyEpochs {
		set.Epochs = append(set.Epochs, s.epochs[id])
	}
	for id := range s.dirtyLimitOrders {
		set.LimitOrders = append(set.LimitOrders, s.limitOrders[id])
	}
	for id := range s.dirtyWhitelisted {
		set.WhitelistedUsers = append(set.WhitelistedUsers, s.whitelisted[id])
	}
	if s.bundleDirty {
		set.Bundle = s.bundle
	}
	set.Orders = s.pendingOrders

	s.dirtyTokens = make(map[string]struct{})
	s.dirtyPools = make(map[string]struct{})
	s.dirtyEpochs = make(map[string]struct{})
	s.dirtyLimitOrders = make(map[string]struct{})
	s.dirtyWhitelisted = make(map[string]struct{})
	s.bundleDirty = false
	s.pendingOrders = nil

	return set
}

// ChangeSet is one commit batch of modified entities.
type ChangeSet struct {
	Tokens           []*model.Token
	Pools            []*model.Pool
	Bundle           *model.Bundle
	Orders           []*model.Order
	Epochs           []*model.Epoch
	LimitOrders      []*model.LimitOrder
	WhitelistedUsers []*model.WhitelistedUser
}

func (c *ChangeSet) Empty() bool {
	return len(c.Tokens) == 0 && len(c.Pools) == 0 && c.Bundle == nil &&
		len(c.Orders) == 0 && len(c.Epochs) == 0 && len(c.LimitOrders) == 0 &&
		len(c.WhitelistedUsers) == 0
}

// TokenPriceUSD is the token's USD price implied by the current bundle rate.
func (s *State) TokenPriceUSD(token *model.Token) decimal.Decimal {
	return token.DerivedNative.Mul(s.bundle.NativePriceUSD)
}
