package lending

import "errors"

// Error taxonomy for the lending engine. One sentinel per condition so
// callers can use errors.Is against a stable, documented surface.
var (
	// Arithmetic.
	ErrMathOverflow = errors.New("lending: math overflow")

	// Authorization.
	ErrInvalidOwner        = errors.New("lending: invalid owner")
	ErrCannotLiquidateSelf = errors.New("lending: cannot liquidate own position")

	// Identity mismatch.
	ErrCollateralMintMismatch = errors.New("lending: collateral mint mismatch")
	ErrLoanMintMismatch       = errors.New("lending: loan mint mismatch")
	ErrInvalidAssetVault      = errors.New("lending: invalid asset vault")
	ErrInvalidAssetMint       = errors.New("lending: invalid asset mint")
	ErrInvalidAssetPool       = errors.New("lending: invalid asset pool")
	ErrInvalidOracleAccount   = errors.New("lending: invalid oracle account")
	ErrDelegationMismatch     = errors.New("lending: delegation mismatch")

	// Input.
	ErrZeroAmount                   = errors.New("lending: amount must be positive")
	ErrInvalidOperation             = errors.New("lending: invalid operation")
	ErrInvalidLTV                   = errors.New("lending: invalid loan-to-value ratio")
	ErrInvalidLiquidationThreshold  = errors.New("lending: invalid liquidation threshold")
	ErrInvalidOptimalUtilization    = errors.New("lending: invalid optimal utilization")
	ErrMaxAssetsExceeded            = errors.New("lending: maximum asset pool count exceeded")

	// State/solvency.
	ErrInsufficientCollateral            = errors.New("lending: insufficient collateral for requested debt")
	ErrInsufficientCollateralAmount      = errors.New("lending: insufficient collateral amount")
	ErrInsufficientCollateralForLiquidation = errors.New("lending: insufficient collateral to seize during liquidation")
	ErrPositionHealthy                   = errors.New("lending: position is healthy, not eligible for liquidation")
	ErrPositionWouldBecomeUnhealthy      = errors.New("lending: position would become unhealthy")
	ErrInsufficientLiquidity             = errors.New("lending: insufficient pool liquidity")

	// Protocol status.
	ErrProtocolNotActive = errors.New("lending: protocol is not active")
	ErrProtocolPaused    = errors.New("lending: protocol is paused")

	// Delegation.
	ErrDelegationExceeded = errors.New("lending: borrow amount exceeds delegated credit")
	ErrDelegationIsActive = errors.New("lending: delegation still has outstanding credit")

	// Flash loan.
	ErrFlashLoanNotAvailable    = errors.New("lending: flash loans disabled for this pool")
	ErrFlashLoanReentrancy      = errors.New("lending: flash loan receiver must not be this engine")
	ErrFlashLoanRepaymentFailed = errors.New("lending: flash loan repayment invariant violated")

	// Oracle.
	ErrInvalidPythAccount      = errors.New("lending: invalid pyth price account")
	ErrPythPriceTooOld         = errors.New("lending: pyth price is stale")
	ErrPythConfidenceTooWide   = errors.New("lending: pyth confidence interval too wide")
	ErrInvalidPythPrice        = errors.New("lending: invalid pyth price")
	ErrChainlinkPriceTooOld    = errors.New("lending: chainlink price is stale")
	ErrInvalidChainlinkPrice   = errors.New("lending: invalid chainlink price")
	ErrAllOraclesFailed        = errors.New("lending: all configured oracles failed validation")

	// Engine wiring.
	ErrNilState                     = errors.New("lending: state not configured")
	ErrNilMarketConfig              = errors.New("lending: market config not initialised")
	ErrMarketConfigAlreadyInitialized = errors.New("lending: market config already initialised")
	ErrNilAssetPool                 = errors.New("lending: asset pool not initialised")
	ErrPoolNotConfigured            = errors.New("lending: pool identity not configured")
)
