package httpapi

import (
	"sync"

	"github.com/ledgermint/lendingcore/native/lending"
)

// PushedPriceFeed is a keeper-fed price registry: an off-chain process
// (an attester, a keeper bot) pushes validated quotes in over POST
// /admin/prices, and the engine reads them back out through the
// lending.PythFeed/lending.ChainlinkFeed interfaces. It stands in for the
// real oracle wire client the way mockPythFeed/mockChainlinkFeed stand in
// for tests, but is safe for concurrent use by an HTTP server.
type PushedPriceFeed struct {
	mu     sync.RWMutex
	prices map[lending.ID]lending.Price
}

// NewPushedPriceFeed returns an empty feed.
func NewPushedPriceFeed() *PushedPriceFeed {
	return &PushedPriceFeed{prices: make(map[lending.ID]lending.Price)}
}

// SetPrice records the latest pushed quote for account.
func (f *PushedPriceFeed) SetPrice(account lending.ID, price lending.Price) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[account] = price
}

// FetchPythPrice implements lending.PythFeed.
func (f *PushedPriceFeed) FetchPythPrice(account lending.ID) (lending.Price, error) {
	return f.lookup(account)
}

// FetchChainlinkPrice implements lending.ChainlinkFeed.
func (f *PushedPriceFeed) FetchChainlinkPrice(account lending.ID) (lending.Price, error) {
	return f.lookup(account)
}

func (f *PushedPriceFeed) lookup(account lending.ID) (lending.Price, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	price, ok := f.prices[account]
	if !ok {
		return lending.Price{}, lending.ErrAllOraclesFailed
	}
	return price, nil
}
