package crypto

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"tierguard/internal/domain"
)

// EncodedClaimSize is the fixed length of a canonically encoded claim:
// address(32) | tier u32 | risk_score u32 | expiry u64 | issuer(32),
// all integers big-endian. Every field is fixed-width, so no two
// distinct claims share an encoding. Off-chain signers must reproduce
// this layout bit for bit.
const EncodedClaimSize = domain.AddressSize + 4 + 4 + 8 + domain.AddressSize

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// EncodeClaim produces the canonical byte representation of a claim,
// a pure function of exactly its five fields.
func (s *Service) EncodeClaim(claim domain.IdentityClaim) []byte {
	buf := make([]byte, 0, EncodedClaimSize)
	buf = append(buf, claim.Address[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(claim.Tier))
	buf = binary.BigEndian.AppendUint32(buf, claim.RiskScore)
	buf = binary.BigEndian.AppendUint64(buf, claim.Expiry)
	buf = append(buf, claim.Issuer[:]...)
	return buf
}

// VerifyClaimSignature checks an ed25519 signature over the canonical
// encoding. Malformed key or signature material is an error, never a
// panic.
func (s *Service) VerifyClaimSignature(encoded, signature, pubKey []byte) error {
	if len(encoded) != EncodedClaimSize {
		return fmt.Errorf("invalid encoded claim length: %d", len(encoded))
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid ed25519 public key length: %d", len(pubKey))
	}
	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("invalid ed25519 signature length: %d", len(signature))
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), encoded, signature) {
		return errors.New("signature verification failed")
	}
	return nil
}
