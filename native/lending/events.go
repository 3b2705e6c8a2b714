package lending

import "github.com/ledgermint/lendingcore/core/events"

// Event type constants, one per operation in §6. Grounded on
// native/governance/engine.go's EventType* constant block.
const (
	EventTypeMarketConfigInitialized     = "lending.market_config.initialized"
	EventTypeGovernanceAuthorityChanged  = "lending.market_config.authority_changed"
	EventTypeProtocolPaused              = "lending.protocol.paused"
	EventTypeProtocolUnpaused            = "lending.protocol.unpaused"
	EventTypeProtocolWithdrawOnlyEnabled = "lending.protocol.withdraw_only_enabled"
	EventTypeAssetPoolAdded              = "lending.pool.added"
	EventTypeAssetPoolUpdated            = "lending.pool.updated"
	EventTypeProtocolFeesCollected       = "lending.pool.fees_collected"
	EventTypeDeposited                  = "lending.position.deposited"
	EventTypeWithdrawn                  = "lending.position.withdrawn"
	EventTypeBorrowed                   = "lending.position.borrowed"
	EventTypeRepaid                     = "lending.position.repaid"
	EventTypeLiquidation                = "lending.position.liquidated"
	EventTypeFlashLoaned                = "lending.pool.flash_loaned"
	EventTypeDelegationUpdated          = "lending.delegation.updated"
	EventTypeBorrowedDelegated          = "lending.position.borrowed_delegated"
	EventTypeOperationsExecuted         = "lending.position.operations_executed"
)

// MarketConfigInitialized is emitted once, when governance bootstraps the
// singleton MarketConfig.
type MarketConfigInitialized struct {
	GovernanceAuthority ID
}

func (MarketConfigInitialized) EventType() string { return EventTypeMarketConfigInitialized }

// GovernanceAuthorityChanged is emitted when governance authority rotates.
type GovernanceAuthorityChanged struct {
	PreviousAuthority ID
	NewAuthority      ID
}

func (GovernanceAuthorityChanged) EventType() string { return EventTypeGovernanceAuthorityChanged }

// ProtocolPaused is emitted when governance pauses the protocol.
type ProtocolPaused struct{}

func (ProtocolPaused) EventType() string { return EventTypeProtocolPaused }

// ProtocolUnpaused is emitted when governance resumes the protocol.
type ProtocolUnpaused struct{}

func (ProtocolUnpaused) EventType() string { return EventTypeProtocolUnpaused }

// ProtocolWithdrawOnlyModeEnabled is emitted when governance restricts the
// protocol to withdraw/repay only.
type ProtocolWithdrawOnlyModeEnabled struct{}

func (ProtocolWithdrawOnlyModeEnabled) EventType() string {
	return EventTypeProtocolWithdrawOnlyEnabled
}

// AssetPoolAdded is emitted when governance registers a new asset pool.
type AssetPoolAdded struct {
	Pool      ID
	AssetMint ID
}

func (AssetPoolAdded) EventType() string { return EventTypeAssetPoolAdded }

// AssetPoolUpdated is emitted when governance updates a pool's parameters.
type AssetPoolUpdated struct {
	Pool ID
}

func (AssetPoolUpdated) EventType() string { return EventTypeAssetPoolUpdated }

// ProtocolFeesCollected is emitted when governance sweeps accrued protocol
// fees out of a pool.
type ProtocolFeesCollected struct {
	Pool   ID
	Amount uint64
}

func (ProtocolFeesCollected) EventType() string { return EventTypeProtocolFeesCollected }

// Deposited is emitted when a user deposits collateral.
type Deposited struct {
	Owner  ID
	Pool   ID
	Amount uint64
}

func (Deposited) EventType() string { return EventTypeDeposited }

// Withdrawn is emitted when a user withdraws collateral.
type Withdrawn struct {
	Owner  ID
	Pool   ID
	Amount uint64
}

func (Withdrawn) EventType() string { return EventTypeWithdrawn }

// Borrowed is emitted when a user borrows against their own position.
type Borrowed struct {
	Owner  ID
	Pool   ID
	Amount uint64
}

func (Borrowed) EventType() string { return EventTypeBorrowed }

// Repaid is emitted when a user repays outstanding debt.
type Repaid struct {
	Owner  ID
	Pool   ID
	Amount uint64
}

func (Repaid) EventType() string { return EventTypeRepaid }

// Liquidation is emitted when a liquidator repays part of an unhealthy
// position's debt in exchange for bonus-weighted collateral. CollateralPool
// and LoanPool may be distinct pools or the same pool: the bonus is computed
// by converting the
// repaid value (at the loan pool's price) into seized collateral units (at
// the collateral pool's price), per original_source's liquidate handler.
type Liquidation struct {
	Liquidator       ID
	Owner            ID
	CollateralPool   ID
	LoanPool         ID
	RepaidAmount     uint64
	SeizedCollateral uint64
}

func (Liquidation) EventType() string { return EventTypeLiquidation }

// FlashLoaned is emitted after a flash loan's balance-reconciliation
// invariant is satisfied.
type FlashLoaned struct {
	Pool      ID
	Receiver  ID
	Amount    uint64
	FeeEarned uint64
}

func (FlashLoaned) EventType() string { return EventTypeFlashLoaned }

// DelegationUpdated is emitted when an owner approves or revokes a credit
// delegation for a delegatee.
type DelegationUpdated struct {
	Owner           ID
	Delegatee       ID
	Pool            ID
	DelegatedAmount uint64
}

func (DelegationUpdated) EventType() string { return EventTypeDelegationUpdated }

// BorrowedDelegated is emitted when a delegatee draws down delegated credit
// on behalf of the owner's position.
type BorrowedDelegated struct {
	Owner     ID
	Delegatee ID
	Pool      ID
	Amount    uint64
}

func (BorrowedDelegated) EventType() string { return EventTypeBorrowedDelegated }

// OperationsExecuted is emitted once per successful execute_operations batch.
type OperationsExecuted struct {
	Owner ID
	Pool  ID
	Count int
}

func (OperationsExecuted) EventType() string { return EventTypeOperationsExecuted }

var _ events.Event = MarketConfigInitialized{}
