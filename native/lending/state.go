package lending

// EngineState is the persistence contract the Engine operates against. It
// mirrors native/lending/engine.go (teacher)'s engineState interface:
// storage concerns (how these records reach disk or a KV store) are left to
// the implementation, and the Engine only ever reads/writes through this
// seam.
type EngineState interface {
	GetMarketConfig() (*MarketConfig, error)
	PutMarketConfig(*MarketConfig) error

	GetAssetPool(pool ID) (*AssetPool, error)
	PutAssetPool(*AssetPool) error

	GetUserPosition(pool, owner ID) (*UserPosition, error)
	PutUserPosition(*UserPosition) error

	GetCreditDelegation(owner, pool, delegatee ID) (*CreditDelegation, error)
	PutCreditDelegation(*CreditDelegation) error
	DeleteCreditDelegation(owner, pool, delegatee ID) error
}

// positionKey and delegationKey give the in-memory store comparable map
// keys built from fixed-width identities.
type positionKey struct {
	pool  ID
	owner ID
}

type delegationKey struct {
	owner     ID
	pool      ID
	delegatee ID
}

// MemoryState is a simple in-memory EngineState, usable both as the
// reference store for tests and as a minimal runnable backing store for
// cmd/lendingd. It is not safe for concurrent use without external locking,
// matching the Engine's own single-writer assumption (§9).
type MemoryState struct {
	marketConfig *MarketConfig
	pools        map[ID]*AssetPool
	positions    map[positionKey]*UserPosition
	delegations  map[delegationKey]*CreditDelegation
}

// NewMemoryState builds an empty in-memory store.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		pools:       make(map[ID]*AssetPool),
		positions:   make(map[positionKey]*UserPosition),
		delegations: make(map[delegationKey]*CreditDelegation),
	}
}

// GetMarketConfig returns the singleton market config, or ErrNilMarketConfig
// if it has not been initialised yet.
func (s *MemoryState) GetMarketConfig() (*MarketConfig, error) {
	if s.marketConfig == nil {
		return nil, ErrNilMarketConfig
	}
	clone := *s.marketConfig
	clone.Pools = append([]ID(nil), s.marketConfig.Pools...)
	return &clone, nil
}

// PutMarketConfig stores a copy of the given market config.
func (s *MemoryState) PutMarketConfig(cfg *MarketConfig) error {
	if cfg == nil {
		return ErrNilMarketConfig
	}
	clone := *cfg
	clone.Pools = append([]ID(nil), cfg.Pools...)
	s.marketConfig = &clone
	return nil
}

// GetAssetPool returns a copy of the named pool, or ErrNilAssetPool if it
// does not exist.
func (s *MemoryState) GetAssetPool(pool ID) (*AssetPool, error) {
	p, ok := s.pools[pool]
	if !ok {
		return nil, ErrNilAssetPool
	}
	clone := *p
	return &clone, nil
}

// PutAssetPool stores a copy of the given pool, keyed by its own identity.
func (s *MemoryState) PutAssetPool(pool *AssetPool) error {
	if pool == nil {
		return ErrNilAssetPool
	}
	clone := *pool
	s.pools[pool.ID] = &clone
	return nil
}

// GetUserPosition returns a copy of the position for (pool, owner). A
// missing position is not an error: callers distinguish "no position yet"
// by a nil return with a nil error.
func (s *MemoryState) GetUserPosition(pool, owner ID) (*UserPosition, error) {
	p, ok := s.positions[positionKey{pool: pool, owner: owner}]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

// PutUserPosition stores a copy of the given position.
func (s *MemoryState) PutUserPosition(position *UserPosition) error {
	if position == nil {
		return ErrInvalidOwner
	}
	clone := *position
	s.positions[positionKey{pool: position.Pool, owner: position.Owner}] = &clone
	return nil
}

// GetCreditDelegation returns a copy of the delegation for
// (owner, pool, delegatee); a missing delegation returns (nil, nil).
func (s *MemoryState) GetCreditDelegation(owner, pool, delegatee ID) (*CreditDelegation, error) {
	d, ok := s.delegations[delegationKey{owner: owner, pool: pool, delegatee: delegatee}]
	if !ok {
		return nil, nil
	}
	clone := *d
	return &clone, nil
}

// PutCreditDelegation stores a copy of the given delegation.
func (s *MemoryState) PutCreditDelegation(delegation *CreditDelegation) error {
	if delegation == nil {
		return ErrDelegationMismatch
	}
	clone := *delegation
	key := delegationKey{owner: delegation.Owner, pool: delegation.AssetPool, delegatee: delegation.Delegatee}
	s.delegations[key] = &clone
	return nil
}

// DeleteCreditDelegation removes the delegation for (owner, pool, delegatee),
// if any.
func (s *MemoryState) DeleteCreditDelegation(owner, pool, delegatee ID) error {
	delete(s.delegations, delegationKey{owner: owner, pool: pool, delegatee: delegatee})
	return nil
}
