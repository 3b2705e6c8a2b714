package lending

import (
	"math/big"
	"testing"
)

func TestIsHealthyAtExactThreshold(t *testing.T) {
	collateral := big.NewInt(10_000)
	debt := big.NewInt(8_000) // exactly 80% of collateral
	healthy, err := IsHealthy(collateral, debt, 8_000)
	if err != nil {
		t.Fatalf("IsHealthy: %v", err)
	}
	if !healthy {
		t.Fatalf("expected a position exactly at the liquidation threshold to be healthy")
	}
}

func TestIsHealthyJustBelowThreshold(t *testing.T) {
	collateral := big.NewInt(10_000)
	debt := big.NewInt(8_001)
	healthy, err := IsHealthy(collateral, debt, 8_000)
	if err != nil {
		t.Fatalf("IsHealthy: %v", err)
	}
	if healthy {
		t.Fatalf("expected a position just past the liquidation threshold to be unhealthy")
	}
}

func TestIsHealthyZeroDebtAlwaysHealthy(t *testing.T) {
	healthy, err := IsHealthy(big.NewInt(0), big.NewInt(0), 8_000)
	if err != nil {
		t.Fatalf("IsHealthy: %v", err)
	}
	if !healthy {
		t.Fatalf("expected a zero-debt position to always be healthy")
	}
}

func TestIsEligibleForBorrowRejectsOverLTV(t *testing.T) {
	collateral := big.NewInt(10_000)
	eligible, err := IsEligibleForBorrow(collateral, big.NewInt(0), big.NewInt(7_501), 7_500)
	if err != nil {
		t.Fatalf("IsEligibleForBorrow: %v", err)
	}
	if eligible {
		t.Fatalf("expected new debt just above the LTV ceiling to be ineligible")
	}
}

func TestIsLiquidatableComplementsIsHealthy(t *testing.T) {
	collateral := big.NewInt(10_000)
	debt := big.NewInt(9_000)
	liquidatable, err := IsLiquidatable(collateral, debt, 8_000)
	if err != nil {
		t.Fatalf("IsLiquidatable: %v", err)
	}
	if !liquidatable {
		t.Fatalf("expected a position with debt above threshold*collateral to be liquidatable")
	}
}
