package auditchain

import (
	"fmt"

	"tierguard/internal/domain"
)

// Verify walks an ascending slice of audit events and checks seq
// continuity, prev-hash linkage and each event hash. It reports the
// first break it finds.
func Verify(events []domain.AuditEvent) error {
	expectedSeq := int64(1)
	prevHash := ZeroHash()
	for _, event := range events {
		if event.Seq != expectedSeq {
			return fmt.Errorf("audit chain seq mismatch: expected %d got %d", expectedSeq, event.Seq)
		}
		if event.PrevEventHash != prevHash {
			return fmt.Errorf("audit chain prev hash mismatch at seq %d", event.Seq)
		}
		if event.CreatedAt.IsZero() {
			return fmt.Errorf("audit chain missing created_at at seq %d", event.Seq)
		}
		expectedHash, err := EventHash(event)
		if err != nil {
			return fmt.Errorf("audit chain hash compute failed at seq %d: %w", event.Seq, err)
		}
		if expectedHash != event.EventHash {
			return fmt.Errorf("audit chain hash mismatch at seq %d", event.Seq)
		}
		prevHash = event.EventHash
		expectedSeq++
	}
	return nil
}
