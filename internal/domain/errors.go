package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidClaimFormat      = errors.New("invalid claim format")
	ErrInvalidRiskScore        = errors.New("risk score out of range")
	ErrInvalidTier             = errors.New("unrecognized identity tier")
	ErrUnauthorizedIssuer      = errors.New("issuer not authorized")
	ErrInvalidSignature        = errors.New("claim signature invalid")
	ErrClaimExpired            = errors.New("claim expired")
	ErrTransactionExceedsLimit = errors.New("transaction exceeds limit")
	ErrPolicyDenied            = errors.New("denied by enforcement policy")
	ErrInvalidLimitConfig      = errors.New("invalid limit configuration")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrNotFound                = errors.New("not found")
)

// LimitExceededError carries the attempted amount and the effective
// limit it was checked against. errors.Is matches it against
// ErrTransactionExceedsLimit.
type LimitExceededError struct {
	Limit  int64
	Amount int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("transaction exceeds limit: amount %d, limit %d", e.Amount, e.Limit)
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrTransactionExceedsLimit
}
