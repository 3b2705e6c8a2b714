package lending

import "math/big"

// Fixed-point arithmetic kernel (C1).
//
// All products of two 64/128-bit quantities occur in a >=192-bit
// intermediate domain. Go's math/big.Int already has unbounded headroom, so
// the 192-bit domain never overflows by construction the way the original
// program's spl_math::uint::U192 could; checkFits192 asserts every product
// stays inside that domain so a genuinely out-of-range computation fails
// with ErrMathOverflow exactly as the original's checked_mul chain would,
// instead of silently succeeding because big.Int never overflows on its own.
// BasisPointsDivisor is the scale for basis-point quantities (10_000).
const BasisPointsDivisor = 10_000

var (
	basisPointsBig = big.NewInt(BasisPointsDivisor)
	max192         = new(big.Int).Lsh(big.NewInt(1), 192)
	maxUint64Big   = new(big.Int).SetUint64(^uint64(0))
)

// checkFits192 reports whether v fits in the unsigned 192-bit domain.
func checkFits192(v *big.Int) bool {
	if v.Sign() < 0 {
		return false
	}
	return v.Cmp(max192) < 0
}

// checkedMul multiplies a and b, failing with ErrMathOverflow if the product
// falls outside the 192-bit intermediate domain.
func checkedMul(a, b *big.Int) (*big.Int, error) {
	product := new(big.Int).Mul(a, b)
	if !checkFits192(product) {
		return nil, ErrMathOverflow
	}
	return product, nil
}

// checkedDiv divides a by b, failing with ErrMathOverflow on a zero divisor;
// a zero divisor reaching this helper is always a caller bug once upstream
// validation (e.g. a positive oracle price) has run.
func checkedDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrMathOverflow
	}
	return new(big.Int).Quo(a, b), nil
}

// checkedAddU64 adds a and b, failing with ErrMathOverflow on overflow.
func checkedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// checkedSubU64 subtracts b from a, failing with err if b > a.
func checkedSubU64(a, b uint64, err error) (uint64, error) {
	if b > a {
		return 0, err
	}
	return a - b, nil
}

// bigU64 converts a uint64 to *big.Int.
func bigU64(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// asU64 converts a non-negative big.Int back to uint64, failing with
// ErrMathOverflow if it does not fit.
func asU64(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || v.Cmp(maxUint64Big) > 0 {
		return 0, ErrMathOverflow
	}
	return v.Uint64(), nil
}

// pow10 returns 10^n as a big.Int for small, bounded exponents; oracle
// exponents are always tiny relative to the 192-bit domain.
func pow10(n int64) *big.Int {
	if n <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

// CalculateAssetValue returns amount * price * 10^expo, the value of amount
// whole token units at the given oracle price/exponent (§4.1), in the same
// fixed-point domain the oracle quotes price in. Two values returned by this
// function for the same (price, expo) pair are directly comparable; that is
// all the health/eligibility checks in health.go require. price must be
// strictly positive; the oracle adapter enforces this before a price ever
// reaches this function.
func CalculateAssetValue(amount uint64, price int64, expo int32) (*big.Int, error) {
	if price <= 0 {
		return nil, ErrInvalidPythPrice
	}
	value, err := checkedMul(bigU64(amount), big.NewInt(price))
	if err != nil {
		return nil, err
	}
	if expo >= 0 {
		return checkedMul(value, pow10(int64(expo)))
	}
	return checkedDiv(value, pow10(int64(-expo)))
}

// CalculateAmountFromValue is the structural inverse of
// CalculateAssetValue: value / (price * 10^expo), truncated down to the
// nearest whole token unit.
func CalculateAmountFromValue(value *big.Int, price int64, expo int32) (uint64, error) {
	if price <= 0 {
		return 0, ErrInvalidPythPrice
	}
	if value == nil || value.Sign() < 0 {
		return 0, ErrMathOverflow
	}
	scaled := value
	var err error
	if expo >= 0 {
		if scaled, err = checkedDiv(scaled, pow10(int64(expo))); err != nil {
			return 0, err
		}
	} else {
		if scaled, err = checkedMul(scaled, pow10(int64(-expo))); err != nil {
			return 0, err
		}
	}
	amount, err := checkedDiv(scaled, big.NewInt(price))
	if err != nil {
		return 0, err
	}
	return asU64(amount)
}

// bpsOfU64 computes amount * bps / BasisPointsDivisor with checked overflow,
// returning a uint64 result.
func bpsOfU64(amount uint64, bps uint64) (uint64, error) {
	product, err := checkedMul(bigU64(amount), bigU64(bps))
	if err != nil {
		return 0, err
	}
	result, err := checkedDiv(product, basisPointsBig)
	if err != nil {
		return 0, err
	}
	return asU64(result)
}

// saturatingAddU64 adds a and b, clamping to math.MaxUint64 instead of
// overflowing. Used for pool-aggregate totals: interest accrual (§4.3) and
// the pool TotalDeposits/TotalLoans/AccruedProtocolFees updates made by the
// engine's operations. Per-position collateral and debt arithmetic uses the
// checked helpers above.
func saturatingAddU64(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// saturatingSubU64 subtracts b from a, clamping to zero on underflow.
func saturatingSubU64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// saturatingUtilizationBps computes totalLoans*BasisPointsDivisor/totalDeposits
// for the utilization calculation, saturating to the largest value of the
// 192-bit domain (2^192 - 1) when totalDeposits is zero rather than failing,
// per §4.3's saturating fallback for the zero-total-deposits case.
func saturatingUtilizationBps(totalLoans, totalDeposits uint64) *big.Int {
	if totalDeposits == 0 {
		return new(big.Int).Sub(max192, big.NewInt(1))
	}
	num := new(big.Int).Mul(bigU64(totalLoans), basisPointsBig)
	return num.Quo(num, bigU64(totalDeposits))
}
