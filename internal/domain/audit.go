package domain

import "time"

type AuditEventType string

const (
	// AuditStreamGlobal is the single hash chain all engine events are
	// appended to.
	AuditStreamGlobal = "__global__"
	AuditChainVersion = "audit_chain_v0"

	AuditEventClaimAccepted        AuditEventType = "claim_accepted"
	AuditEventClaimRejected        AuditEventType = "claim_rejected"
	AuditEventClaimExpiredDetected AuditEventType = "claim_expired_detected"
	AuditEventLimitCheck           AuditEventType = "limit_check"
	AuditEventIssuerChanged        AuditEventType = "issuer_changed"
	AuditEventLimitsConfigured     AuditEventType = "limits_configured"
	AuditEventRiskConfigured       AuditEventType = "risk_configured"
)

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

// AuditEvent is one entry in the hash-chained audit log, the engine's
// only durable record of rejected attempts. Seq, PrevEventHash and
// EventHash are assigned by the repository on append.
type AuditEvent struct {
	ID            string
	Stream        string
	Seq           int64
	EventType     AuditEventType
	Payload       map[string]any
	PayloadHash   string
	Result        AuditResult
	ErrorCode     string
	PrevEventHash string
	EventHash     string
	CreatedAt     time.Time
}
