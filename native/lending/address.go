package lending

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ID is a 32-byte opaque identity used for governance authorities, asset
// mints, vaults, positions, and delegations. It mirrors the 32-byte pubkey
// identities the external transaction-dispatch layer hands to this engine;
// the engine never interprets the bytes beyond equality and derivation.
type ID [32]byte

// ZeroID is the sentinel identity used where a field is intentionally unset
// (e.g. a pool with no secondary oracle feed configured).
var ZeroID ID

// IsZero reports whether the identity is the all-zero sentinel.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// String renders the identity as lowercase hex for logs and events.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IDFromBytes copies a byte slice into an ID, requiring an exact 32-byte
// length so callers cannot silently truncate or zero-pad an identity.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != len(id) {
		return ID{}, fmt.Errorf("lending: identity must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Domain separation seeds for deterministic address derivation (§6).
const (
	seedMarketConfig     = "market_config"
	seedAssetPool        = "asset_pool"
	seedAssetVault       = "asset_vault"
	seedUserPosition     = "user_position"
	seedCreditDelegation = "credit_delegation"
)

// deriveID hashes a domain-separated seed together with the supplied
// components into a stable 32-byte identity. This is the Go-native analogue
// of the original program's PDA derivation: deterministic, collision
// resistant across seed domains, and independent of any signing key.
func deriveID(seed string, components ...[]byte) ID {
	h := sha256.New()
	h.Write([]byte(seed))
	for _, c := range components {
		h.Write([]byte{0}) // length-prefix-free separator; every component but a trailing one is a fixed-width ID
		h.Write(c)
	}
	sum := h.Sum(nil)
	var id ID
	copy(id[:], sum)
	return id
}

// DeriveMarketConfigID returns the singleton market config identity.
func DeriveMarketConfigID() ID {
	return deriveID(seedMarketConfig)
}

// DeriveAssetPoolID derives a new pool's identity from the governance
// authority and the pool's ordinal slot, so that two pools registered for
// the same asset mint still receive distinct identities.
func DeriveAssetPoolID(governanceAuthority ID, slot uint64) ID {
	return deriveID(seedAssetPool, governanceAuthority[:], bigU64(slot).Bytes())
}

// DeriveAssetVaultID derives a pool's vault identity from the pool's own
// identity, never from the underlying asset mint, so that vault authority
// cannot be spoofed by registering a second pool over the same mint.
func DeriveAssetVaultID(pool ID) ID {
	return deriveID(seedAssetVault, pool[:])
}

// DeriveUserPositionID derives the identity of a user's position in a pool.
func DeriveUserPositionID(pool, user ID) ID {
	return deriveID(seedUserPosition, pool[:], user[:])
}

// DeriveCreditDelegationID derives the identity of a credit delegation
// record for (owner, pool, delegatee).
func DeriveCreditDelegationID(owner, pool, delegatee ID) ID {
	return deriveID(seedCreditDelegation, owner[:], pool[:], delegatee[:])
}
