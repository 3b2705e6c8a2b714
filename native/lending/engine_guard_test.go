package lending

import "testing"

func TestDepositBlockedWhenPaused(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x20)
	te.tokens.fund(owner, 500)

	if err := te.engine.PauseProtocol(te.gov); err != nil {
		t.Fatalf("PauseProtocol: %v", err)
	}

	if err := te.engine.Deposit(owner, te.pool, 100); err != ErrProtocolPaused {
		t.Fatalf("expected ErrProtocolPaused, got %v", err)
	}
	if balance, _ := te.tokens.Balance(owner); balance != 500 {
		t.Fatalf("expected owner balance unchanged at 500, got %d", balance)
	}
}

func TestWithdrawAllowedInWithdrawOnlyMode(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x21)
	te.tokens.fund(owner, 500)

	if err := te.engine.Deposit(owner, te.pool, 200); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := te.engine.EnableWithdrawOnlyMode(te.gov); err != nil {
		t.Fatalf("EnableWithdrawOnlyMode: %v", err)
	}
	if err := te.engine.Withdraw(owner, te.pool, 50); err != nil {
		t.Fatalf("Withdraw in withdraw-only mode: %v", err)
	}
	if err := te.engine.Deposit(owner, te.pool, 10); err != ErrProtocolNotActive {
		t.Fatalf("expected ErrProtocolNotActive for deposit in withdraw-only mode, got %v", err)
	}
}

func TestNonGovernanceCannotPause(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	imposter := makeID(0x99)
	if err := te.engine.PauseProtocol(imposter); err != ErrInvalidOwner {
		t.Fatalf("expected ErrInvalidOwner, got %v", err)
	}
}
