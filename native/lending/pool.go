package lending

import "math/big"

// secondsPerYear anchors the annualized kinked interest rate to elapsed
// wall-clock seconds (§4.3).
const secondsPerYear = 365 * 24 * 60 * 60

// ApplyParams validates and installs governance-supplied risk/rate
// parameters on a pool (§6: AddAssetPool/UpdateAssetPool). It enforces the
// LTV-below-liquidation-threshold-below-100% invariant and the
// optimal-utilization-below-100% invariant.
func (p *AssetPool) ApplyParams(params AssetPoolParams) error {
	if params.LoanToValueBps > params.LiquidationThresholdBps {
		return ErrInvalidLTV
	}
	if params.LiquidationThresholdBps >= BasisPointsDivisor {
		return ErrInvalidLiquidationThreshold
	}
	if params.OptimalUtilizationBps >= BasisPointsDivisor {
		return ErrInvalidOptimalUtilization
	}
	p.AssetPoolParams = params
	return nil
}

// UtilizationBps returns the pool's current borrow utilization in basis
// points, saturating to the 192-bit ceiling when there are zero deposits
// (§4.3's saturating fallback for an empty pool).
func (p *AssetPool) UtilizationBps() *big.Int {
	return saturatingUtilizationBps(p.TotalLoans, p.TotalDeposits)
}

// borrowRateBps implements the two-slope kinked rate model: a gentle slope
// below the optimal-utilization kink, a steep slope above it (§4.3).
func (p *AssetPool) borrowRateBps(utilizationBps *big.Int) uint64 {
	optimal := p.OptimalUtilizationBps
	if optimal == 0 {
		optimal = 1 // guard divide-by-zero; ApplyParams accepts a zero optimal utilization
	}

	util := utilizationBps
	capped := bigU64(BasisPointsDivisor)
	if util.Cmp(capped) > 0 {
		util = capped
	}

	optimalBig := bigU64(optimal)
	if util.Cmp(optimalBig) <= 0 {
		// base + slope1 * util / optimal
		scaled := new(big.Int).Mul(util, bigU64(p.BaseSlopeBps))
		scaled.Quo(scaled, optimalBig)
		return saturatingAddU64(p.BaseBorrowRateBps, scaled.Uint64())
	}

	excess := new(big.Int).Sub(util, optimalBig)
	maxExcess := BasisPointsDivisor - optimal
	if maxExcess == 0 {
		maxExcess = 1
	}
	scaled := excess.Mul(excess, bigU64(p.KinkSlopeBps))
	scaled.Quo(scaled, bigU64(maxExcess))
	rate := saturatingAddU64(p.BaseBorrowRateBps, p.BaseSlopeBps)
	return saturatingAddU64(rate, scaled.Uint64())
}

// AccrueInterest advances the pool's accounting to `now`, applying the
// kinked borrow rate to outstanding loans over the elapsed interval. Unlike
// the checked, error-returning user-level arithmetic elsewhere in this
// package, pool-aggregate accrual saturates (§4.3): an interest amount large
// enough to overflow clamps rather than aborting every borrower's
// transaction over a single pathological pool.
func (p *AssetPool) AccrueInterest(now int64) {
	if p.LastInterestUpdateTimestamp == 0 {
		p.LastInterestUpdateTimestamp = now
		return
	}
	elapsed := now - p.LastInterestUpdateTimestamp
	if elapsed <= 0 {
		return
	}
	p.LastInterestUpdateTimestamp = now

	if p.TotalLoans == 0 {
		return
	}

	rateBps := p.borrowRateBps(p.UtilizationBps())

	// interest = totalLoans * rateBps * elapsed / (BasisPointsDivisor * secondsPerYear)
	interest := new(big.Int).Mul(bigU64(p.TotalLoans), bigU64(rateBps))
	interest.Mul(interest, big.NewInt(elapsed))
	denom := new(big.Int).Mul(basisPointsBig, big.NewInt(secondsPerYear))
	interest.Quo(interest, denom)
	if interest.Sign() <= 0 {
		return
	}

	var interestU64 uint64
	if interest.Cmp(maxUint64Big) > 0 {
		interestU64 = ^uint64(0)
	} else {
		interestU64 = interest.Uint64()
	}

	protocolCut, err := bpsOfU64(interestU64, p.ProtocolFeeBps)
	if err != nil {
		protocolCut = 0
	}

	p.TotalLoans = saturatingAddU64(p.TotalLoans, interestU64)
	p.TotalDeposits = saturatingAddU64(p.TotalDeposits, saturatingSubU64(interestU64, protocolCut))
	p.AccruedProtocolFees = saturatingAddU64(p.AccruedProtocolFees, protocolCut)
}
