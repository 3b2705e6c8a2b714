package lending

import "github.com/ledgermint/lendingcore/core/events"

// Close factor and liquidation bonus (§4.7). These are protocol-wide
// constants rather than governance-tunable fields, matching
// original_source's hard-coded LIQUIDATION_BONUS_BPS.
const (
	liquidationCloseFactorBps = 5_000 // 50%
	liquidationBonusBps       = 500   // 5%
)

// TokenLedger is the external custody collaborator: deposits, withdrawals,
// repayments, and liquidation transfers all move value through it. Token
// custody itself is out of scope for this engine and is referenced only
// through this interface.
type TokenLedger interface {
	Transfer(from, to ID, amount uint64) error
	Balance(account ID) (uint64, error)
}

// FlashLoanReceiver is implemented by a flash loan borrower's callback. ID
// identifies the receiver for the reentrancy guard (§9): it must never equal
// the engine's own identity.
type FlashLoanReceiver interface {
	ID() ID
	ExecuteOperation(amount, fee uint64) error
}

// Engine is the lending protocol's operation surface: one method per
// governance or user action named in §6. It holds no state of its own
// beyond wiring; all durable state flows through EngineState. Grounded on
// native/lending/engine.go (teacher)'s Engine-over-engineState shape.
type Engine struct {
	state   EngineState
	oracle  *OracleAdapter
	tokens  TokenLedger
	emitter events.Emitter
	selfID  ID
	clock   func() int64
}

// NewEngine wires an Engine against its persistence, oracle, and custody
// collaborators. selfID is the engine's own identity, compared against a
// flash loan receiver's ID to block reentrant self-calls.
func NewEngine(state EngineState, oracle *OracleAdapter, tokens TokenLedger, selfID ID) *Engine {
	return &Engine{
		state:   state,
		oracle:  oracle,
		tokens:  tokens,
		emitter: events.NoopEmitter{},
		selfID:  selfID,
		clock:   nowSeconds,
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetClock overrides the engine's time source; used by tests that need to
// control elapsed time for interest accrual. Passing nil restores the
// wall-clock default.
func (e *Engine) SetClock(clock func() int64) {
	if clock == nil {
		clock = nowSeconds
	}
	e.clock = clock
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func requireGovernance(cfg *MarketConfig, caller ID) error {
	if cfg.GovernanceAuthority != caller {
		return ErrInvalidOwner
	}
	return nil
}

// requireActive rejects every operation unless the protocol is fully
// active. Used by mutations that create new risk (deposit is not new risk,
// but is still blocked so that withdraw-only mode is unambiguous).
func requireActive(cfg *MarketConfig) error {
	switch cfg.Status {
	case StatusActive:
		return nil
	case StatusPaused:
		return ErrProtocolPaused
	default:
		return ErrProtocolNotActive
	}
}

// requireNotPaused allows Active and WithdrawOnly, rejecting only a full
// pause. Used by withdraw and repay, which must remain available so users
// can always exit or reduce risk (§4.8).
func requireNotPaused(cfg *MarketConfig) error {
	if cfg.Status == StatusPaused {
		return ErrProtocolPaused
	}
	return nil
}

// --- Governance operations ---

// InitializeMarketConfig bootstraps the singleton MarketConfig. It fails if
// one already exists.
func (e *Engine) InitializeMarketConfig(governanceAuthority ID) error {
	if existing, err := e.state.GetMarketConfig(); err == nil && existing != nil {
		return ErrMarketConfigAlreadyInitialized
	}
	cfg := &MarketConfig{GovernanceAuthority: governanceAuthority, Status: StatusActive}
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return err
	}
	e.emit(MarketConfigInitialized{GovernanceAuthority: governanceAuthority})
	return nil
}

// UpdateGovernanceAuthority rotates the governance authority.
func (e *Engine) UpdateGovernanceAuthority(caller, newAuthority ID) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	previous := cfg.GovernanceAuthority
	cfg.GovernanceAuthority = newAuthority
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return err
	}
	e.emit(GovernanceAuthorityChanged{PreviousAuthority: previous, NewAuthority: newAuthority})
	return nil
}

// PauseProtocol halts every mutation (§4.8).
func (e *Engine) PauseProtocol(caller ID) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	cfg.Status = StatusPaused
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return err
	}
	e.emit(ProtocolPaused{})
	return nil
}

// UnpauseProtocol restores full activity.
func (e *Engine) UnpauseProtocol(caller ID) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	cfg.Status = StatusActive
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return err
	}
	e.emit(ProtocolUnpaused{})
	return nil
}

// EnableWithdrawOnlyMode restricts the protocol to withdraw and repay only.
func (e *Engine) EnableWithdrawOnlyMode(caller ID) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	cfg.Status = StatusWithdrawOnly
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return err
	}
	e.emit(ProtocolWithdrawOnlyModeEnabled{})
	return nil
}

// AddAssetPool registers a new asset pool, deriving its identity
// deterministically from the governance authority and the pool's slot in
// the registry, and its vault from the pool identity.
func (e *Engine) AddAssetPool(caller, assetMint, pythFeed, chainlinkFeed ID, params AssetPoolParams) (ID, error) {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return ID{}, err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return ID{}, err
	}

	pool := &AssetPool{
		AssetMint:          assetMint,
		PythPriceFeed:      pythFeed,
		ChainlinkPriceFeed: chainlinkFeed,
	}
	if err := pool.ApplyParams(params); err != nil {
		return ID{}, err
	}
	pool.ID = DeriveAssetPoolID(cfg.GovernanceAuthority, uint64(len(cfg.Pools)))
	pool.AssetVault = DeriveAssetVaultID(pool.ID)

	if err := cfg.AddPool(pool.ID); err != nil {
		return ID{}, err
	}
	if err := e.state.PutAssetPool(pool); err != nil {
		return ID{}, err
	}
	if err := e.state.PutMarketConfig(cfg); err != nil {
		return ID{}, err
	}
	e.emit(AssetPoolAdded{Pool: pool.ID, AssetMint: assetMint})
	return pool.ID, nil
}

// UpdateAssetPool replaces a pool's governance-tunable parameters.
func (e *Engine) UpdateAssetPool(caller, poolID ID, params AssetPoolParams) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	if !cfg.HasPool(poolID) {
		return ErrPoolNotConfigured
	}
	pool, err := e.state.GetAssetPool(poolID)
	if err != nil {
		return err
	}
	if err := pool.ApplyParams(params); err != nil {
		return err
	}
	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	e.emit(AssetPoolUpdated{Pool: poolID})
	return nil
}

// CollectProtocolFees sweeps accrued protocol fees out of a pool's vault to
// the governance authority.
func (e *Engine) CollectProtocolFees(caller, poolID ID, amount uint64) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireGovernance(cfg, caller); err != nil {
		return err
	}
	pool, err := e.state.GetAssetPool(poolID)
	if err != nil {
		return err
	}
	remaining, err := checkedSubU64(pool.AccruedProtocolFees, amount, ErrInsufficientLiquidity)
	if err != nil {
		return err
	}
	if err := e.tokens.Transfer(pool.AssetVault, caller, amount); err != nil {
		return err
	}
	pool.AccruedProtocolFees = remaining
	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	e.emit(ProtocolFeesCollected{Pool: poolID, Amount: amount})
	return nil
}

// --- Position lifecycle ---

// CreateUserPosition initialises an empty position for owner in pool. It is
// idempotent: calling it again for an existing position is a no-op.
func (e *Engine) CreateUserPosition(owner, poolID ID) error {
	existing, err := e.state.GetUserPosition(poolID, owner)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return e.state.PutUserPosition(&UserPosition{Owner: owner, Pool: poolID})
}

func (e *Engine) loadPoolAndPosition(owner, poolID ID) (*AssetPool, *UserPosition, error) {
	pool, err := e.state.GetAssetPool(poolID)
	if err != nil {
		return nil, nil, err
	}
	position, err := e.state.GetUserPosition(poolID, owner)
	if err != nil {
		return nil, nil, err
	}
	if position == nil {
		position = &UserPosition{Owner: owner, Pool: poolID}
	}
	return pool, position, nil
}

// Deposit adds collateral to owner's position in pool (§6).
func (e *Engine) Deposit(owner, poolID ID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	if err := e.tokens.Transfer(owner, pool.AssetVault, amount); err != nil {
		return err
	}
	newCollateral, err := checkedAddU64(position.CollateralAmount, amount)
	if err != nil {
		return err
	}
	position.CollateralAmount = newCollateral
	pool.TotalDeposits = saturatingAddU64(pool.TotalDeposits, amount)

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	e.emit(Deposited{Owner: owner, Pool: poolID, Amount: amount})
	return nil
}

// Withdraw removes collateral from owner's position, rejecting a withdrawal
// that would leave the position unhealthy (§6).
func (e *Engine) Withdraw(owner, poolID ID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireNotPaused(cfg); err != nil {
		return err
	}
	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	newCollateral, err := checkedSubU64(position.CollateralAmount, amount, ErrInsufficientCollateralAmount)
	if err != nil {
		return err
	}

	price, err := e.oracle.FetchPrice(pool)
	if err != nil {
		return err
	}
	collateralValue, err := CalculateAssetValue(newCollateral, price.Price, price.Expo)
	if err != nil {
		return err
	}
	debtValue, err := CalculateAssetValue(position.LoanAmount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	healthy, err := IsHealthy(collateralValue, debtValue, pool.LiquidationThresholdBps)
	if err != nil {
		return err
	}
	if !healthy {
		return ErrPositionWouldBecomeUnhealthy
	}

	if err := e.tokens.Transfer(pool.AssetVault, owner, amount); err != nil {
		return err
	}
	position.CollateralAmount = newCollateral
	pool.TotalDeposits = saturatingSubU64(pool.TotalDeposits, amount)

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	e.emit(Withdrawn{Owner: owner, Pool: poolID, Amount: amount})
	return nil
}

func availableLiquidity(pool *AssetPool) uint64 {
	return saturatingSubU64(pool.TotalDeposits, pool.TotalLoans)
}

// Borrow draws debt against owner's own position (§6).
func (e *Engine) Borrow(owner, poolID ID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	if amount > availableLiquidity(pool) {
		return ErrInsufficientLiquidity
	}

	price, err := e.oracle.FetchPrice(pool)
	if err != nil {
		return err
	}
	collateralValue, err := CalculateAssetValue(position.CollateralAmount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	existingDebtValue, err := CalculateAssetValue(position.LoanAmount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	newDebtValue, err := CalculateAssetValue(amount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	eligible, err := IsEligibleForBorrow(collateralValue, existingDebtValue, newDebtValue, pool.LoanToValueBps)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrInsufficientCollateral
	}

	newLoan, err := checkedAddU64(position.LoanAmount, amount)
	if err != nil {
		return err
	}
	if err := e.tokens.Transfer(pool.AssetVault, owner, amount); err != nil {
		return err
	}
	position.LoanAmount = newLoan
	pool.TotalLoans = saturatingAddU64(pool.TotalLoans, amount)

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	e.emit(Borrowed{Owner: owner, Pool: poolID, Amount: amount})
	return nil
}

// Repay reduces owner's outstanding debt, clamping to the amount actually
// owed so overpayment is not possible.
func (e *Engine) Repay(owner, poolID ID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireNotPaused(cfg); err != nil {
		return err
	}
	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	actual := amount
	if actual > position.LoanAmount {
		actual = position.LoanAmount
	}
	if actual == 0 {
		return nil
	}
	if err := e.tokens.Transfer(owner, pool.AssetVault, actual); err != nil {
		return err
	}
	position.LoanAmount -= actual
	pool.TotalLoans = saturatingSubU64(pool.TotalLoans, actual)

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	e.emit(Repaid{Owner: owner, Pool: poolID, Amount: actual})
	return nil
}

// Liquidate repays part of owner's unhealthy position on their behalf,
// seizing collateral plus a bonus from a second pool (§3, §4.7). The
// collateral and loan legs are independent pools and positions, each with
// its own oracle price: the bonus is computed by converting the repaid
// value (at the loan pool's price) into a collateral-token amount (at the
// collateral pool's price), matching original_source's two-pool liquidate
// instruction rather than applying a flat bps to the repaid token amount.
func (e *Engine) Liquidate(liquidator, owner, collateralPoolID, loanPoolID ID, repayAmount uint64) error {
	if repayAmount == 0 {
		return ErrZeroAmount
	}
	if liquidator == owner {
		return ErrCannotLiquidateSelf
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	collateralPool, collateralPosition, err := e.loadPoolAndPosition(owner, collateralPoolID)
	if err != nil {
		return err
	}
	loanPool, loanPosition, err := e.loadPoolAndPosition(owner, loanPoolID)
	if err != nil {
		return err
	}
	collateralPool.AccrueInterest(e.clock())
	loanPool.AccrueInterest(e.clock())

	collateralPrice, err := e.oracle.FetchPrice(collateralPool)
	if err != nil {
		return err
	}
	loanPrice, err := e.oracle.FetchPrice(loanPool)
	if err != nil {
		return err
	}

	collateralValue, err := CalculateAssetValue(collateralPosition.CollateralAmount, collateralPrice.Price, collateralPrice.Expo)
	if err != nil {
		return err
	}
	debtValue, err := CalculateAssetValue(loanPosition.LoanAmount, loanPrice.Price, loanPrice.Expo)
	if err != nil {
		return err
	}
	liquidatable, err := IsLiquidatable(collateralValue, debtValue, collateralPool.LiquidationThresholdBps)
	if err != nil {
		return err
	}
	if !liquidatable {
		return ErrPositionHealthy
	}

	maxRepay, err := bpsOfU64(loanPosition.LoanAmount, liquidationCloseFactorBps)
	if err != nil {
		return err
	}
	if repayAmount > maxRepay {
		return ErrInvalidOperation
	}

	repayValue, err := CalculateAssetValue(repayAmount, loanPrice.Price, loanPrice.Expo)
	if err != nil {
		return err
	}
	seizeValue, err := weightedValue(repayValue, BasisPointsDivisor+liquidationBonusBps)
	if err != nil {
		return err
	}
	seize, err := CalculateAmountFromValue(seizeValue, collateralPrice.Price, collateralPrice.Expo)
	if err != nil {
		return err
	}
	if seize > collateralPosition.CollateralAmount {
		seize = collateralPosition.CollateralAmount
	}

	newLoan, err := checkedSubU64(loanPosition.LoanAmount, repayAmount, ErrInvalidOperation)
	if err != nil {
		return err
	}
	newCollateral, err := checkedSubU64(collateralPosition.CollateralAmount, seize, ErrInsufficientCollateralForLiquidation)
	if err != nil {
		return err
	}

	if err := e.tokens.Transfer(liquidator, loanPool.AssetVault, repayAmount); err != nil {
		return err
	}
	if err := e.tokens.Transfer(collateralPool.AssetVault, liquidator, seize); err != nil {
		return err
	}

	sameLeg := collateralPoolID == loanPoolID

	loanPosition.LoanAmount = newLoan
	loanPool.TotalLoans = saturatingSubU64(loanPool.TotalLoans, repayAmount)
	if sameLeg {
		// A single-pool liquidation: collateralPosition/collateralPool and
		// loanPosition/loanPool are independent clones of the same
		// underlying (pool, owner) records — fold both legs' mutations
		// into one object before persisting, or the second Put would
		// silently clobber the first with a stale copy.
		loanPosition.CollateralAmount = newCollateral
		loanPool.TotalDeposits = saturatingSubU64(loanPool.TotalDeposits, seize)
	} else {
		collateralPosition.CollateralAmount = newCollateral
		collateralPool.TotalDeposits = saturatingSubU64(collateralPool.TotalDeposits, seize)
	}

	if err := e.state.PutAssetPool(loanPool); err != nil {
		return err
	}
	if !sameLeg {
		if err := e.state.PutAssetPool(collateralPool); err != nil {
			return err
		}
	}
	if err := e.state.PutUserPosition(loanPosition); err != nil {
		return err
	}
	if !sameLeg {
		if err := e.state.PutUserPosition(collateralPosition); err != nil {
			return err
		}
	}
	e.emit(Liquidation{
		Liquidator:       liquidator,
		Owner:            owner,
		CollateralPool:   collateralPoolID,
		LoanPool:         loanPoolID,
		RepaidAmount:     repayAmount,
		SeizedCollateral: seize,
	})
	return nil
}

// FlashLoan lends amount out of pool's vault for the duration of a single
// callback, requiring the vault balance after the callback to have grown by
// at least the flash loan fee (§4.7, §9).
func (e *Engine) FlashLoan(poolID ID, amount uint64, receiver FlashLoanReceiver) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if receiver == nil || receiver.ID() == e.selfID {
		return ErrFlashLoanReentrancy
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	pool, err := e.state.GetAssetPool(poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	balanceBefore, err := e.tokens.Balance(pool.AssetVault)
	if err != nil {
		return err
	}
	if amount > balanceBefore {
		return ErrInsufficientLiquidity
	}
	fee, err := bpsOfU64(amount, pool.FlashLoanFeeBps)
	if err != nil {
		return err
	}

	if err := e.tokens.Transfer(pool.AssetVault, receiver.ID(), amount); err != nil {
		return err
	}
	if err := receiver.ExecuteOperation(amount, fee); err != nil {
		return err
	}

	balanceAfter, err := e.tokens.Balance(pool.AssetVault)
	if err != nil {
		return err
	}
	required, err := checkedAddU64(balanceBefore, fee)
	if err != nil {
		return err
	}
	if balanceAfter < required {
		return ErrFlashLoanRepaymentFailed
	}
	actualFeeEarned := saturatingSubU64(balanceAfter, balanceBefore)

	pool.AccruedProtocolFees = saturatingAddU64(pool.AccruedProtocolFees, actualFeeEarned)
	pool.TotalDeposits = saturatingAddU64(pool.TotalDeposits, actualFeeEarned)
	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	e.emit(FlashLoaned{Pool: poolID, Receiver: receiver.ID(), Amount: amount, FeeEarned: actualFeeEarned})
	return nil
}

// --- Credit delegation ---

// ApproveDelegation grants delegatee authority to borrow up to amount
// against owner's position. Calling this again overwrites both the initial
// and remaining delegated amount rather than accumulating (§4.5, §9).
func (e *Engine) ApproveDelegation(owner, delegatee, poolID ID, amount uint64) error {
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	delegation := &CreditDelegation{
		Owner:                  owner,
		Delegatee:              delegatee,
		AssetPool:              poolID,
		InitialDelegatedAmount: amount,
		DelegatedAmount:        amount,
	}
	if err := e.state.PutCreditDelegation(delegation); err != nil {
		return err
	}
	e.emit(DelegationUpdated{Owner: owner, Delegatee: delegatee, Pool: poolID, DelegatedAmount: amount})
	return nil
}

// RevokeDelegation removes a delegatee's remaining borrow authority.
func (e *Engine) RevokeDelegation(owner, delegatee, poolID ID) error {
	if err := e.state.DeleteCreditDelegation(owner, poolID, delegatee); err != nil {
		return err
	}
	e.emit(DelegationUpdated{Owner: owner, Delegatee: delegatee, Pool: poolID, DelegatedAmount: 0})
	return nil
}

// BorrowDelegated draws debt against owner's position on delegatee's
// instruction, debiting the delegated credit line (§4.5).
func (e *Engine) BorrowDelegated(delegatee, owner, poolID ID, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if err := requireActive(cfg); err != nil {
		return err
	}
	delegation, err := e.state.GetCreditDelegation(owner, poolID, delegatee)
	if err != nil {
		return err
	}
	if delegation == nil {
		return ErrDelegationMismatch
	}
	if amount > delegation.DelegatedAmount {
		return ErrDelegationExceeded
	}

	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	if amount > availableLiquidity(pool) {
		return ErrInsufficientLiquidity
	}

	price, err := e.oracle.FetchPrice(pool)
	if err != nil {
		return err
	}
	collateralValue, err := CalculateAssetValue(position.CollateralAmount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	existingDebtValue, err := CalculateAssetValue(position.LoanAmount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	newDebtValue, err := CalculateAssetValue(amount, price.Price, price.Expo)
	if err != nil {
		return err
	}
	eligible, err := IsEligibleForBorrow(collateralValue, existingDebtValue, newDebtValue, pool.LoanToValueBps)
	if err != nil {
		return err
	}
	if !eligible {
		return ErrInsufficientCollateral
	}

	newLoan, err := checkedAddU64(position.LoanAmount, amount)
	if err != nil {
		return err
	}
	if err := e.tokens.Transfer(pool.AssetVault, delegatee, amount); err != nil {
		return err
	}
	position.LoanAmount = newLoan
	pool.TotalLoans = saturatingAddU64(pool.TotalLoans, amount)
	delegation.DelegatedAmount -= amount

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	if err := e.state.PutCreditDelegation(delegation); err != nil {
		return err
	}
	e.emit(BorrowedDelegated{Owner: owner, Delegatee: delegatee, Pool: poolID, Amount: amount})
	return nil
}

// --- Batched operations ---

// ExecuteOperations runs a sequence of deposit/withdraw/borrow/repay steps
// against owner's position with a single price fetch and a single interest
// accrual for the whole batch, checking running local balances after each
// step (§4.7, §9). WithdrawOnly mode rejects any batch containing a deposit
// or borrow step.
func (e *Engine) ExecuteOperations(owner, poolID ID, ops []Operation) error {
	if len(ops) == 0 {
		return ErrInvalidOperation
	}
	cfg, err := e.state.GetMarketConfig()
	if err != nil {
		return err
	}
	if cfg.Status == StatusPaused {
		return ErrProtocolPaused
	}
	if cfg.Status == StatusWithdrawOnly {
		for _, op := range ops {
			if op.Kind == OpDeposit || op.Kind == OpBorrow {
				return ErrProtocolNotActive
			}
		}
	}

	pool, position, err := e.loadPoolAndPosition(owner, poolID)
	if err != nil {
		return err
	}
	pool.AccrueInterest(e.clock())

	price, err := e.oracle.FetchPrice(pool)
	if err != nil {
		return err
	}

	collateral := position.CollateralAmount
	debt := position.LoanAmount
	deposits := pool.TotalDeposits
	loans := pool.TotalLoans

	for _, op := range ops {
		if op.Amount == 0 {
			return ErrZeroAmount
		}
		switch op.Kind {
		case OpDeposit:
			if err := e.tokens.Transfer(owner, pool.AssetVault, op.Amount); err != nil {
				return err
			}
			newCollateral, err := checkedAddU64(collateral, op.Amount)
			if err != nil {
				return err
			}
			collateral = newCollateral
			deposits = saturatingAddU64(deposits, op.Amount)

		case OpWithdraw:
			newCollateral, err := checkedSubU64(collateral, op.Amount, ErrInsufficientCollateralAmount)
			if err != nil {
				return err
			}
			collateralValue, err := CalculateAssetValue(newCollateral, price.Price, price.Expo)
			if err != nil {
				return err
			}
			debtValue, err := CalculateAssetValue(debt, price.Price, price.Expo)
			if err != nil {
				return err
			}
			healthy, err := IsHealthy(collateralValue, debtValue, pool.LiquidationThresholdBps)
			if err != nil {
				return err
			}
			if !healthy {
				return ErrPositionWouldBecomeUnhealthy
			}
			if err := e.tokens.Transfer(pool.AssetVault, owner, op.Amount); err != nil {
				return err
			}
			collateral = newCollateral
			deposits = saturatingSubU64(deposits, op.Amount)

		case OpBorrow:
			if op.Amount > saturatingSubU64(deposits, loans) {
				return ErrInsufficientLiquidity
			}
			collateralValue, err := CalculateAssetValue(collateral, price.Price, price.Expo)
			if err != nil {
				return err
			}
			existingDebtValue, err := CalculateAssetValue(debt, price.Price, price.Expo)
			if err != nil {
				return err
			}
			newDebtValue, err := CalculateAssetValue(op.Amount, price.Price, price.Expo)
			if err != nil {
				return err
			}
			eligible, err := IsEligibleForBorrow(collateralValue, existingDebtValue, newDebtValue, pool.LoanToValueBps)
			if err != nil {
				return err
			}
			if !eligible {
				return ErrInsufficientCollateral
			}
			newDebt, err := checkedAddU64(debt, op.Amount)
			if err != nil {
				return err
			}
			if err := e.tokens.Transfer(pool.AssetVault, owner, op.Amount); err != nil {
				return err
			}
			debt = newDebt
			loans = saturatingAddU64(loans, op.Amount)

		case OpRepay:
			actual := op.Amount
			if actual > debt {
				actual = debt
			}
			if actual > 0 {
				if err := e.tokens.Transfer(owner, pool.AssetVault, actual); err != nil {
					return err
				}
				debt -= actual
				loans = saturatingSubU64(loans, actual)
			}

		default:
			return ErrInvalidOperation
		}
	}

	position.CollateralAmount = collateral
	position.LoanAmount = debt
	pool.TotalDeposits = deposits
	pool.TotalLoans = loans

	if err := e.state.PutAssetPool(pool); err != nil {
		return err
	}
	if err := e.state.PutUserPosition(position); err != nil {
		return err
	}
	e.emit(OperationsExecuted{Owner: owner, Pool: poolID, Count: len(ops)})
	return nil
}
