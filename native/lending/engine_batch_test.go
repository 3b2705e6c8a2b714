package lending

import "testing"

func TestExecuteOperationsRunsStepsAgainstRunningLocals(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x70)
	te.tokens.fund(owner, 10_000)
	te.tokens.fund(te.vault, 10_000)

	ops := []Operation{
		{Kind: OpDeposit, Amount: 10_000},
		{Kind: OpBorrow, Amount: 5_000},
		{Kind: OpRepay, Amount: 1_000},
	}
	if err := te.engine.ExecuteOperations(owner, te.pool, ops); err != nil {
		t.Fatalf("ExecuteOperations: %v", err)
	}

	position, err := te.state.GetUserPosition(te.pool, owner)
	if err != nil {
		t.Fatalf("GetUserPosition: %v", err)
	}
	if position.CollateralAmount != 10_000 {
		t.Fatalf("expected collateral 10000, got %d", position.CollateralAmount)
	}
	if position.LoanAmount != 4_000 {
		t.Fatalf("expected loan 4000 (5000 borrowed - 1000 repaid), got %d", position.LoanAmount)
	}
}

func TestExecuteOperationsRejectsUnhealthyWithdrawMidBatch(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x71)
	te.tokens.fund(owner, 10_000)
	te.tokens.fund(te.vault, 10_000)

	ops := []Operation{
		{Kind: OpDeposit, Amount: 10_000},
		{Kind: OpBorrow, Amount: 7_000},
		{Kind: OpWithdraw, Amount: 9_000},
	}
	if err := te.engine.ExecuteOperations(owner, te.pool, ops); err != ErrPositionWouldBecomeUnhealthy {
		t.Fatalf("expected ErrPositionWouldBecomeUnhealthy, got %v", err)
	}

	// The batch must not have partially applied: no position should exist.
	position, err := te.state.GetUserPosition(te.pool, owner)
	if err != nil {
		t.Fatalf("GetUserPosition: %v", err)
	}
	if position != nil {
		t.Fatalf("expected no partially-applied position after a rejected batch, got %+v", position)
	}
}

func TestExecuteOperationsRejectsDepositInWithdrawOnlyMode(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x72)
	if err := te.engine.EnableWithdrawOnlyMode(te.gov); err != nil {
		t.Fatalf("EnableWithdrawOnlyMode: %v", err)
	}

	ops := []Operation{{Kind: OpDeposit, Amount: 100}}
	if err := te.engine.ExecuteOperations(owner, te.pool, ops); err != ErrProtocolNotActive {
		t.Fatalf("expected ErrProtocolNotActive, got %v", err)
	}
}
