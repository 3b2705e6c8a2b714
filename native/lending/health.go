package lending

import "math/big"

// Health, borrow-eligibility, and liquidatability checks (C7, §4.6). All
// three operate on oracle-scaled asset values (the output of
// CalculateAssetValue) rather than raw token amounts, so callers can mix
// collateral and debt denominated in different assets at different oracle
// prices.

// weightedValue returns value * bps / BasisPointsDivisor in the 192-bit
// checked domain.
func weightedValue(value *big.Int, bps uint64) (*big.Int, error) {
	weighted, err := checkedMul(value, bigU64(bps))
	if err != nil {
		return nil, err
	}
	return checkedDiv(weighted, basisPointsBig)
}

// IsHealthy reports whether collateralValue weighted by the liquidation
// threshold still covers debtValue (§4.6). A position with zero debt is
// always healthy.
func IsHealthy(collateralValue, debtValue *big.Int, liquidationThresholdBps uint64) (bool, error) {
	if debtValue.Sign() == 0 {
		return true, nil
	}
	weighted, err := weightedValue(collateralValue, liquidationThresholdBps)
	if err != nil {
		return false, err
	}
	return weighted.Cmp(debtValue) >= 0, nil
}

// IsEligibleForBorrow reports whether collateralValue weighted by the
// loan-to-value ratio covers the position's debt after adding the
// newDebtValue being requested (§4.6).
func IsEligibleForBorrow(collateralValue, existingDebtValue, newDebtValue *big.Int, loanToValueBps uint64) (bool, error) {
	weighted, err := weightedValue(collateralValue, loanToValueBps)
	if err != nil {
		return false, err
	}
	totalDebt, err := checkedAdd(existingDebtValue, newDebtValue)
	if err != nil {
		return false, err
	}
	return weighted.Cmp(totalDebt) >= 0, nil
}

// IsLiquidatable is the logical complement of IsHealthy: a position becomes
// liquidatable exactly when it stops being healthy (§4.6, §4.7).
func IsLiquidatable(collateralValue, debtValue *big.Int, liquidationThresholdBps uint64) (bool, error) {
	healthy, err := IsHealthy(collateralValue, debtValue, liquidationThresholdBps)
	if err != nil {
		return false, err
	}
	return !healthy, nil
}

// checkedAdd adds two non-negative big.Int values, failing with
// ErrMathOverflow if the sum leaves the 192-bit domain.
func checkedAdd(a, b *big.Int) (*big.Int, error) {
	sum := new(big.Int).Add(a, b)
	if !checkFits192(sum) {
		return nil, ErrMathOverflow
	}
	return sum, nil
}
