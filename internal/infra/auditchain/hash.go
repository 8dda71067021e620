package auditchain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"tierguard/internal/domain"
)

// ZeroHash seeds the chain: the PrevEventHash of the first event in a
// stream.
func ZeroHash() string {
	return hex.EncodeToString(make([]byte, sha256.Size))
}

// PayloadHash canonicalizes an event payload (json.Marshal emits map
// keys in sorted order) and returns the serialized bytes with their
// sha256 hex digest.
func PayloadHash(payload map[string]any) ([]byte, string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(raw)
	return raw, hex.EncodeToString(sum[:]), nil
}

// EventHash computes the chain hash of an event from its sequencing
// fields. PayloadHash and PrevEventHash must already be assigned.
func EventHash(event domain.AuditEvent) (string, error) {
	if event.PayloadHash == "" {
		return "", errors.New("payload_hash is required")
	}
	if event.PrevEventHash == "" {
		return "", errors.New("prev_event_hash is required")
	}
	fields := map[string]any{
		"v":               domain.AuditChainVersion,
		"stream":          event.Stream,
		"seq":             event.Seq,
		"event_type":      string(event.EventType),
		"payload_hash":    event.PayloadHash,
		"prev_event_hash": event.PrevEventHash,
		"created_at":      event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Seal assigns sequencing and hashes to an event about to be appended
// after prev. It mutates nothing else.
func Seal(event *domain.AuditEvent, seq int64, prevHash string) error {
	if event.ID == "" {
		id, err := NewEventID()
		if err != nil {
			return err
		}
		event.ID = id
	}
	if event.Stream == "" {
		event.Stream = domain.AuditStreamGlobal
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.CreatedAt = event.CreatedAt.UTC().Truncate(time.Microsecond)

	_, payloadHash, err := PayloadHash(event.Payload)
	if err != nil {
		return err
	}
	event.PayloadHash = payloadHash
	event.Seq = seq
	if prevHash == "" {
		prevHash = ZeroHash()
	}
	event.PrevEventHash = prevHash

	eventHash, err := EventHash(*event)
	if err != nil {
		return err
	}
	event.EventHash = eventHash
	return nil
}

// NewEventID returns a random v4 UUID string.
func NewEventID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	bytes[6] = (bytes[6] & 0x0f) | 0x40
	bytes[8] = (bytes[8] & 0x3f) | 0x80
	hexStr := hex.EncodeToString(bytes)
	return hexStr[0:8] + "-" + hexStr[8:12] + "-" + hexStr[12:16] + "-" + hexStr[16:20] + "-" + hexStr[20:32], nil
}
