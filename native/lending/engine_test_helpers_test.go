package lending

import (
	"fmt"
	"testing"
)

// makeID builds a deterministic, distinguishable ID for tests: the last
// byte varies, the rest stays zero. Mirrors native/lending/engine_accrual_test.go
// (teacher)'s makeAddress helper.
func makeID(label byte) ID {
	var id ID
	id[31] = label
	return id
}

// mockTokenLedger is an in-memory TokenLedger keyed by ID, used by engine
// tests in place of a real custody backend.
type mockTokenLedger struct {
	balances map[ID]uint64
}

func newMockTokenLedger() *mockTokenLedger {
	return &mockTokenLedger{balances: make(map[ID]uint64)}
}

func (m *mockTokenLedger) fund(account ID, amount uint64) {
	m.balances[account] += amount
}

func (m *mockTokenLedger) Transfer(from, to ID, amount uint64) error {
	if m.balances[from] < amount {
		return fmt.Errorf("mockTokenLedger: insufficient balance for %s: have %d, need %d", from, m.balances[from], amount)
	}
	m.balances[from] -= amount
	m.balances[to] += amount
	return nil
}

func (m *mockTokenLedger) Balance(account ID) (uint64, error) {
	return m.balances[account], nil
}

// mockPythFeed serves a fixed Price per account, or a configured error.
type mockPythFeed struct {
	prices map[ID]Price
	err    error
}

func newMockPythFeed() *mockPythFeed {
	return &mockPythFeed{prices: make(map[ID]Price)}
}

func (m *mockPythFeed) FetchPythPrice(account ID) (Price, error) {
	if m.err != nil {
		return Price{}, m.err
	}
	return m.prices[account], nil
}

// mockChainlinkFeed mirrors mockPythFeed for the secondary oracle source.
type mockChainlinkFeed struct {
	prices map[ID]Price
	err    error
}

func newMockChainlinkFeed() *mockChainlinkFeed {
	return &mockChainlinkFeed{prices: make(map[ID]Price)}
}

func (m *mockChainlinkFeed) FetchChainlinkPrice(account ID) (Price, error) {
	if m.err != nil {
		return Price{}, m.err
	}
	return m.prices[account], nil
}

// mockFlashLoanReceiver lets a test script an arbitrary callback.
type mockFlashLoanReceiver struct {
	id       ID
	callback func(amount, fee uint64) error
}

func (m mockFlashLoanReceiver) ID() ID { return m.id }

func (m mockFlashLoanReceiver) ExecuteOperation(amount, fee uint64) error {
	if m.callback == nil {
		return nil
	}
	return m.callback(amount, fee)
}

// testEngine wires a fresh Engine over MemoryState with funded token
// balances and a one-pool market, returning the pieces a test needs to
// manipulate directly.
type testEngine struct {
	engine  *Engine
	state   *MemoryState
	tokens  *mockTokenLedger
	pyth    *mockPythFeed
	chain   *mockChainlinkFeed
	gov     ID
	pool    ID
	vault   ID
}

func newTestEngine(t *testing.T, params AssetPoolParams) *testEngine {
	state := NewMemoryState()
	tokens := newMockTokenLedger()
	pyth := newMockPythFeed()
	chain := newMockChainlinkFeed()
	oracle := &OracleAdapter{Pyth: pyth, Chainlink: chain, Now: func() int64 { return 1_700_000_000 }}

	gov := makeID(0x01)
	engine := NewEngine(state, oracle, tokens, makeID(0xFF))

	if err := engine.InitializeMarketConfig(gov); err != nil {
		t.Fatalf("InitializeMarketConfig: %v", err)
	}

	assetMint := makeID(0x10)
	pythFeed := makeID(0x11)
	poolID, err := engine.AddAssetPool(gov, assetMint, pythFeed, ZeroID, params)
	if err != nil {
		t.Fatalf("AddAssetPool: %v", err)
	}
	pool, err := state.GetAssetPool(poolID)
	if err != nil {
		t.Fatalf("GetAssetPool: %v", err)
	}

	pyth.prices[pythFeed] = Price{Price: 100_000_000, Conf: 100_000, Expo: -8, PublishTime: 1_700_000_000}

	return &testEngine{
		engine: engine,
		state:  state,
		tokens: tokens,
		pyth:   pyth,
		chain:  chain,
		gov:    gov,
		pool:   poolID,
		vault:  pool.AssetVault,
	}
}

func defaultTestParams() AssetPoolParams {
	return AssetPoolParams{
		LoanToValueBps:          7_500,
		LiquidationThresholdBps: 8_000,
		BaseBorrowRateBps:       200,
		BaseSlopeBps:            1_500,
		OptimalUtilizationBps:   8_000,
		KinkSlopeBps:            6_000,
		ProtocolFeeBps:          1_000,
		FlashLoanFeeBps:         9,
	}
}
