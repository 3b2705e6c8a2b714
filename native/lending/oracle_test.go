package lending

import "testing"

func TestOracleAdapterUsesPrimaryFeedWhenHealthy(t *testing.T) {
	pyth := newMockPythFeed()
	pythAccount := makeID(0x80)
	pyth.prices[pythAccount] = Price{Price: 100, Conf: 1, Expo: -2, PublishTime: 1_000}

	adapter := &OracleAdapter{Pyth: pyth, Now: func() int64 { return 1_000 }}
	pool := &AssetPool{PythPriceFeed: pythAccount}

	price, err := adapter.FetchPrice(pool)
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if price.Price != 100 {
		t.Fatalf("expected primary feed price 100, got %d", price.Price)
	}
}

func TestOracleAdapterFallsBackToSecondaryOnStalePrimary(t *testing.T) {
	pyth := newMockPythFeed()
	pythAccount := makeID(0x81)
	pyth.prices[pythAccount] = Price{Price: 100, Conf: 1, Expo: -2, PublishTime: 0} // stale

	chain := newMockChainlinkFeed()
	chainAccount := makeID(0x82)
	chain.prices[chainAccount] = Price{Price: 101, Conf: 0, Expo: -2, PublishTime: 1_000}

	adapter := &OracleAdapter{Pyth: pyth, Chainlink: chain, Now: func() int64 { return 1_000 }}
	pool := &AssetPool{PythPriceFeed: pythAccount, ChainlinkPriceFeed: chainAccount}

	price, err := adapter.FetchPrice(pool)
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if price.Price != 101 {
		t.Fatalf("expected fallback to secondary feed price 101, got %d", price.Price)
	}
}

func TestOracleAdapterFailsWhenBothSourcesFail(t *testing.T) {
	pyth := newMockPythFeed()
	pythAccount := makeID(0x83)
	pyth.prices[pythAccount] = Price{Price: 100, Conf: 1, Expo: -2, PublishTime: 0}

	chain := newMockChainlinkFeed()
	chainAccount := makeID(0x84)
	chain.prices[chainAccount] = Price{Price: 101, Conf: 0, Expo: -2, PublishTime: 0}

	adapter := &OracleAdapter{Pyth: pyth, Chainlink: chain, Now: func() int64 { return 1_000 }}
	pool := &AssetPool{PythPriceFeed: pythAccount, ChainlinkPriceFeed: chainAccount}

	if _, err := adapter.FetchPrice(pool); err != ErrAllOraclesFailed {
		t.Fatalf("expected ErrAllOraclesFailed, got %v", err)
	}
}

func TestOracleAdapterRejectsWideConfidence(t *testing.T) {
	pyth := newMockPythFeed()
	pythAccount := makeID(0x85)
	// Confidence of 10 against a price of 100 is 1000bps, above the 300bps cap.
	pyth.prices[pythAccount] = Price{Price: 100, Conf: 10, Expo: -2, PublishTime: 1_000}

	adapter := &OracleAdapter{Pyth: pyth, Now: func() int64 { return 1_000 }}
	pool := &AssetPool{PythPriceFeed: pythAccount}

	if _, err := adapter.FetchPrice(pool); err != ErrAllOraclesFailed {
		t.Fatalf("expected ErrAllOraclesFailed when the only source has too-wide confidence, got %v", err)
	}
}
