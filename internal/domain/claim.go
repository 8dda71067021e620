package domain

import (
	"encoding/hex"
	"fmt"
)

// IdentityTier is the ordered verification level assigned by a claim
// issuer. The ordinal doubles as the index into TierLimits.
type IdentityTier uint32

const (
	TierUnverified IdentityTier = 0
	TierBasic      IdentityTier = 1
	TierVerified   IdentityTier = 2
	TierPremium    IdentityTier = 3
)

const MaxRiskScore = 100

func (t IdentityTier) Valid() bool {
	return t <= TierPremium
}

func (t IdentityTier) String() string {
	switch t {
	case TierUnverified:
		return "unverified"
	case TierBasic:
		return "basic"
	case TierVerified:
		return "verified"
	case TierPremium:
		return "premium"
	default:
		return fmt.Sprintf("tier(%d)", uint32(t))
	}
}

func ParseTier(s string) (IdentityTier, error) {
	switch s {
	case "unverified":
		return TierUnverified, nil
	case "basic":
		return TierBasic, nil
	case "verified":
		return TierVerified, nil
	case "premium":
		return TierPremium, nil
	default:
		return 0, ErrInvalidTier
	}
}

// AddressSize is the fixed length of an identity key. Issuer keys are
// ed25519 public keys and share the same representation.
const AddressSize = 32

type Address [AddressSize]byte

func ParseAddress(s string) (Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("parse address: %w", err)
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("parse address: want %d bytes, got %d", AddressSize, len(raw))
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// IdentityClaim is a transient signed assertion binding an address to a
// tier, risk score and expiry. It is consumed once by claim processing;
// only its projection (AddressIdentity) persists.
type IdentityClaim struct {
	Address   Address
	Tier      IdentityTier
	RiskScore uint32
	Expiry    uint64 // unix seconds
	Issuer    Address
}

// SignedClaimEnvelope pairs a claim with the ed25519 signature over its
// canonical encoding. The issuer field is the verification key.
type SignedClaimEnvelope struct {
	Claim     IdentityClaim
	Signature []byte
}

// AddressIdentity is the stored projection of the last accepted claim
// for an address. A record whose expiry has passed must be treated as
// absent by every reader; the store itself never expires entries.
type AddressIdentity struct {
	Tier        IdentityTier
	RiskScore   uint32
	Expiry      uint64
	LastUpdated uint64
}

// DefaultIdentity is the implicit record for addresses with no accepted
// claim, and the interpretation of an expired one.
func DefaultIdentity() AddressIdentity {
	return AddressIdentity{Tier: TierUnverified}
}

// Expired reports whether the record is stale at now. The comparison is
// strict: a record is live through the exact expiry second.
func (id AddressIdentity) Expired(now uint64) bool {
	return now > id.Expiry
}

// Issuer is a registry entry. Absence of an entry is equivalent to
// Authorized == false.
type Issuer struct {
	Key        Address
	Authorized bool
	UpdatedAt  uint64
}
