package lending

import "time"

// Price is a normalized oracle quote: Price * 10^Expo is the quoted unit
// price, Conf is the absolute confidence interval in the same fixed-point
// domain as Price, and PublishTime is a unix second timestamp (§4.2).
type Price struct {
	Price       int64
	Conf        uint64
	Expo        int32
	PublishTime int64
}

// Staleness and confidence bounds for oracle validation (§4.2).
const (
	maxPriceAgeSeconds       = 60
	maxConfidenceBps         = 300
	maxConfidenceBpsDivisor  = 10_000
)

// PythFeed is the primary oracle source, analogous to decoding a Pyth price
// account.
type PythFeed interface {
	FetchPythPrice(account ID) (Price, error)
}

// ChainlinkFeed is the secondary, optional oracle source used only when a
// pool configures ChainlinkPriceFeed.
type ChainlinkFeed interface {
	FetchChainlinkPrice(account ID) (Price, error)
}

// OracleAdapter fetches a validated price for a pool, trying the primary
// (Pyth-style) feed first and falling back to the secondary (Chainlink-style)
// feed when the pool has one configured and the primary fails validation.
// Grounded on services/swapd/oracle/manager.go's primary/secondary fail-over
// shape and core/pricing/pricefeed.go's staleness/deviation guard pattern.
type OracleAdapter struct {
	Pyth      PythFeed
	Chainlink ChainlinkFeed
	Now       func() int64
}

// NewOracleAdapter builds an adapter using the real wall clock.
func NewOracleAdapter(pyth PythFeed, chainlink ChainlinkFeed) *OracleAdapter {
	return &OracleAdapter{
		Pyth:      pyth,
		Chainlink: chainlink,
		Now:       func() int64 { return time.Now().Unix() },
	}
}

func (o *OracleAdapter) now() int64 {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().Unix()
}

// validatePyth enforces §4.2's primary-feed rules: positive price, fresh
// publish time, and a confidence interval no wider than 3% of price.
func (o *OracleAdapter) validatePyth(p Price, now int64) error {
	if p.Price <= 0 {
		return ErrInvalidPythPrice
	}
	if now-p.PublishTime > maxPriceAgeSeconds {
		return ErrPythPriceTooOld
	}
	maxConf, err := bpsOfU64(uint64(p.Price), maxConfidenceBps)
	if err != nil {
		return err
	}
	if p.Conf > maxConf {
		return ErrPythConfidenceTooWide
	}
	return nil
}

// validateChainlink enforces §4.2's secondary-feed rules: positive answer,
// fresh update time. Chainlink aggregators do not publish a confidence
// interval, so none is checked here.
func (o *OracleAdapter) validateChainlink(p Price, now int64) error {
	if p.Price <= 0 {
		return ErrInvalidChainlinkPrice
	}
	if now-p.PublishTime > maxPriceAgeSeconds {
		return ErrChainlinkPriceTooOld
	}
	return nil
}

// FetchPrice returns a validated price for the pool, trying the primary feed
// first and falling back to the secondary feed (if configured) on any
// validation failure. Returns ErrAllOraclesFailed if every configured source
// fails.
func (o *OracleAdapter) FetchPrice(pool *AssetPool) (Price, error) {
	if pool == nil {
		return Price{}, ErrInvalidAssetPool
	}
	now := o.now()

	if o.Pyth != nil {
		price, err := o.Pyth.FetchPythPrice(pool.PythPriceFeed)
		if err == nil {
			if err := o.validatePyth(price, now); err == nil {
				return price, nil
			}
		}
	}

	if o.Chainlink != nil && !pool.ChainlinkPriceFeed.IsZero() {
		price, err := o.Chainlink.FetchChainlinkPrice(pool.ChainlinkPriceFeed)
		if err == nil {
			if err := o.validateChainlink(price, now); err == nil {
				return price, nil
			}
		}
	}

	return Price{}, ErrAllOraclesFailed
}
