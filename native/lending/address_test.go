package lending

import "testing"

func TestDeriveIDIsDeterministic(t *testing.T) {
	pool := makeID(0x01)
	user := makeID(0x02)
	first := DeriveUserPositionID(pool, user)
	second := DeriveUserPositionID(pool, user)
	if first != second {
		t.Fatalf("expected deterministic derivation, got %s vs %s", first, second)
	}
}

func TestDeriveIDVariesWithComponents(t *testing.T) {
	pool := makeID(0x01)
	first := DeriveUserPositionID(pool, makeID(0x02))
	second := DeriveUserPositionID(pool, makeID(0x03))
	if first == second {
		t.Fatalf("expected different users to derive different position IDs")
	}
}

func TestDeriveIDSeparatesDomains(t *testing.T) {
	pool := makeID(0x01)
	vault := DeriveAssetVaultID(pool)
	marketConfig := DeriveMarketConfigID()
	if vault == marketConfig {
		t.Fatalf("expected different seed domains to never collide")
	}
}

func TestIDIsZero(t *testing.T) {
	if !(ZeroID.IsZero()) {
		t.Fatalf("expected ZeroID.IsZero() to be true")
	}
	if makeID(0x01).IsZero() {
		t.Fatalf("expected a non-zero ID to report IsZero() == false")
	}
}

func TestIDFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := IDFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected an error for a short byte slice")
	}
}
