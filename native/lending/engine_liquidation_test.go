package lending

import "testing"

func TestLiquidateSeizesCollateralWithBonus(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x40)
	liquidator := makeID(0x41)

	// Directly install an unhealthy position (debt above the 80% liquidation
	// threshold against 10000 collateral) rather than driving it there
	// through years of interest accrual.
	position := &UserPosition{Owner: owner, Pool: te.pool, CollateralAmount: 10_000, LoanAmount: 9_000}
	if err := te.state.PutUserPosition(position); err != nil {
		t.Fatalf("PutUserPosition: %v", err)
	}
	pool, err := te.state.GetAssetPool(te.pool)
	if err != nil {
		t.Fatalf("GetAssetPool: %v", err)
	}
	pool.TotalDeposits = 10_000
	pool.TotalLoans = 9_000
	pool.LastInterestUpdateTimestamp = 1_700_000_000
	if err := te.state.PutAssetPool(pool); err != nil {
		t.Fatalf("PutAssetPool: %v", err)
	}
	te.engine.SetClock(func() int64 { return 1_700_000_000 })

	te.tokens.fund(liquidator, 5_000)
	te.tokens.fund(te.vault, 10_000)

	if err := te.engine.Liquidate(liquidator, owner, te.pool, te.pool, 4_000); err != nil {
		t.Fatalf("Liquidate: %v", err)
	}

	updated, err := te.state.GetUserPosition(te.pool, owner)
	if err != nil {
		t.Fatalf("GetUserPosition: %v", err)
	}
	if updated.LoanAmount != 5_000 {
		t.Fatalf("expected remaining loan 5000, got %d", updated.LoanAmount)
	}
	if updated.CollateralAmount != 5_800 {
		t.Fatalf("expected remaining collateral 5800 (10000 - 4000 - 200 bonus), got %d", updated.CollateralAmount)
	}
	if balance, _ := te.tokens.Balance(liquidator); balance != 5_200 {
		t.Fatalf("expected liquidator balance 5200 (5000 - 4000 repaid + 4200 seized), got %d", balance)
	}
}

func TestLiquidateRejectsHealthyPosition(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x42)
	liquidator := makeID(0x43)

	position := &UserPosition{Owner: owner, Pool: te.pool, CollateralAmount: 10_000, LoanAmount: 1_000}
	if err := te.state.PutUserPosition(position); err != nil {
		t.Fatalf("PutUserPosition: %v", err)
	}

	if err := te.engine.Liquidate(liquidator, owner, te.pool, te.pool, 100); err != ErrPositionHealthy {
		t.Fatalf("expected ErrPositionHealthy, got %v", err)
	}
}

func TestLiquidateRejectsRepayAboveCloseFactor(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x44)
	liquidator := makeID(0x45)

	position := &UserPosition{Owner: owner, Pool: te.pool, CollateralAmount: 10_000, LoanAmount: 9_000}
	if err := te.state.PutUserPosition(position); err != nil {
		t.Fatalf("PutUserPosition: %v", err)
	}

	// Close factor caps a single liquidation at 50% of outstanding debt (4500).
	if err := te.engine.Liquidate(liquidator, owner, te.pool, te.pool, 4_600); err != ErrInvalidOperation {
		t.Fatalf("expected ErrInvalidOperation for repay above the close factor, got %v", err)
	}
}

func TestLiquidateRejectsSelfLiquidation(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x46)

	if err := te.engine.Liquidate(owner, owner, te.pool, te.pool, 100); err != ErrCannotLiquidateSelf {
		t.Fatalf("expected ErrCannotLiquidateSelf, got %v", err)
	}
}

// TestLiquidateCrossPoolBonusUsesBothPrices reproduces the concrete
// cross-pool scenario: collateral priced at $0.50, loan priced at $1.00, a
// borrower with collateral=2_000_000/loan=1_000_000 against an 80%
// liquidation threshold. The bonus must be computed by converting the
// repaid value (at the loan price) into seized collateral units (at the
// collateral price), not by applying a flat bps to the repaid amount: a
// flat-bps formula would seize 525_000 instead of the correct 1_050_000.
func TestLiquidateCrossPoolBonusUsesBothPrices(t *testing.T) {
	te := newTestEngine(t, defaultTestParams())
	owner := makeID(0x47)
	liquidator := makeID(0x48)

	loanMint := makeID(0x12)
	loanFeed := makeID(0x13)
	loanPoolID, err := te.engine.AddAssetPool(te.gov, loanMint, loanFeed, ZeroID, defaultTestParams())
	if err != nil {
		t.Fatalf("AddAssetPool: %v", err)
	}
	loanPool, err := te.state.GetAssetPool(loanPoolID)
	if err != nil {
		t.Fatalf("GetAssetPool: %v", err)
	}
	collateralPool, err := te.state.GetAssetPool(te.pool)
	if err != nil {
		t.Fatalf("GetAssetPool: %v", err)
	}

	// Collateral pool priced at $0.50 = (50, -2).
	te.pyth.prices[collateralPool.PythPriceFeed] = Price{Price: 50, Conf: 0, Expo: -2, PublishTime: 1_700_000_000}
	// Loan pool priced at $1.00 = (100, -2).
	te.pyth.prices[loanFeed] = Price{Price: 100, Conf: 0, Expo: -2, PublishTime: 1_700_000_000}

	collateralPosition := &UserPosition{Owner: owner, Pool: te.pool, CollateralAmount: 2_000_000}
	if err := te.state.PutUserPosition(collateralPosition); err != nil {
		t.Fatalf("PutUserPosition(collateral): %v", err)
	}
	loanPosition := &UserPosition{Owner: owner, Pool: loanPoolID, LoanAmount: 1_000_000}
	if err := te.state.PutUserPosition(loanPosition); err != nil {
		t.Fatalf("PutUserPosition(loan): %v", err)
	}

	collateralPool.TotalDeposits = 2_000_000
	collateralPool.LastInterestUpdateTimestamp = 1_700_000_000
	if err := te.state.PutAssetPool(collateralPool); err != nil {
		t.Fatalf("PutAssetPool(collateral): %v", err)
	}
	loanPool.TotalLoans = 1_000_000
	loanPool.LastInterestUpdateTimestamp = 1_700_000_000
	if err := te.state.PutAssetPool(loanPool); err != nil {
		t.Fatalf("PutAssetPool(loan): %v", err)
	}
	te.engine.SetClock(func() int64 { return 1_700_000_000 })

	te.tokens.fund(liquidator, 500_000)
	te.tokens.fund(collateralPool.AssetVault, 2_000_000)

	if err := te.engine.Liquidate(liquidator, owner, te.pool, loanPoolID, 500_000); err != nil {
		t.Fatalf("Liquidate: %v", err)
	}

	updatedLoan, err := te.state.GetUserPosition(loanPoolID, owner)
	if err != nil {
		t.Fatalf("GetUserPosition(loan): %v", err)
	}
	if updatedLoan.LoanAmount != 500_000 {
		t.Fatalf("expected remaining loan 500000, got %d", updatedLoan.LoanAmount)
	}
	updatedCollateral, err := te.state.GetUserPosition(te.pool, owner)
	if err != nil {
		t.Fatalf("GetUserPosition(collateral): %v", err)
	}
	if updatedCollateral.CollateralAmount != 950_000 {
		t.Fatalf("expected remaining collateral 950000 (2000000 - 1050000 seized), got %d", updatedCollateral.CollateralAmount)
	}
	if balance, _ := te.tokens.Balance(liquidator); balance != 1_050_000 {
		t.Fatalf("expected liquidator balance 1050000 (500000 - 500000 repaid + 1050000 seized), got %d", balance)
	}
}
