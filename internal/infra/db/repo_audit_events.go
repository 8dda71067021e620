package db

import (
	"context"
	"encoding/json"
	"errors"

	"tierguard/internal/domain"
	"tierguard/internal/infra/auditchain"

	"gorm.io/gorm"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if r.db == nil {
		return domain.AuditEvent{}, errDBUnavailable
	}
	var out domain.AuditEvent
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sealed, err := appendAuditTx(ctx, tx, event)
		if err != nil {
			return err
		}
		out = sealed
		return nil
	})
	if err != nil {
		return domain.AuditEvent{}, err
	}
	return out, nil
}

// appendAuditTx seals and inserts an event inside an existing
// transaction. The per-stream seq row is taken FOR UPDATE so two
// concurrent appends cannot produce the same seq or fork the chain.
func appendAuditTx(ctx context.Context, tx *gorm.DB, event domain.AuditEvent) (domain.AuditEvent, error) {
	if event.EventType == "" {
		return domain.AuditEvent{}, errors.New("event_type is required")
	}
	if event.Stream == "" {
		event.Stream = domain.AuditStreamGlobal
	}

	if err := tx.WithContext(ctx).Exec(
		"INSERT INTO audit_stream_seq (stream, seq) VALUES (?, 0) ON CONFLICT (stream) DO NOTHING",
		event.Stream,
	).Error; err != nil {
		return domain.AuditEvent{}, err
	}
	var currentSeq int64
	if err := tx.WithContext(ctx).Raw(
		"SELECT seq FROM audit_stream_seq WHERE stream = ? FOR UPDATE",
		event.Stream,
	).Scan(&currentSeq).Error; err != nil {
		return domain.AuditEvent{}, err
	}

	prevHash := auditchain.ZeroHash()
	if currentSeq > 0 {
		var prev AuditEventModel
		err := tx.WithContext(ctx).
			Where("stream = ? AND seq = ?", event.Stream, currentSeq).
			First(&prev).Error
		if err != nil {
			return domain.AuditEvent{}, err
		}
		prevHash = prev.EventHash
	}

	if err := auditchain.Seal(&event, currentSeq+1, prevHash); err != nil {
		return domain.AuditEvent{}, err
	}

	payloadJSON, _, err := auditchain.PayloadHash(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	model := auditEventModelFromDomain(event, payloadJSON)
	if err := tx.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.AuditEvent{}, err
	}
	if err := tx.WithContext(ctx).Exec(
		"UPDATE audit_stream_seq SET seq = ? WHERE stream = ?",
		event.Seq, event.Stream,
	).Error; err != nil {
		return domain.AuditEvent{}, err
	}
	return event, nil
}

func (r *AuditEventRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	q := r.db.WithContext(ctx).
		Where("stream = ?", domain.AuditStreamGlobal).
		Order("seq ASC")
	var models []AuditEventModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(models) {
		models = models[len(models)-limit:]
	}
	out := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		event, err := auditEventFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}

func auditEventModelFromDomain(event domain.AuditEvent, payloadJSON []byte) AuditEventModel {
	return AuditEventModel{
		ID:            event.ID,
		Stream:        event.Stream,
		Seq:           event.Seq,
		EventType:     string(event.EventType),
		PayloadJSON:   payloadJSON,
		PayloadHash:   event.PayloadHash,
		Result:        string(event.Result),
		ErrorCode:     stringPtrIfNotEmpty(event.ErrorCode),
		PrevEventHash: event.PrevEventHash,
		EventHash:     event.EventHash,
		CreatedAt:     event.CreatedAt.UTC(),
	}
}

func auditEventFromModel(model AuditEventModel) (domain.AuditEvent, error) {
	var payload map[string]any
	if len(model.PayloadJSON) > 0 {
		if err := json.Unmarshal(model.PayloadJSON, &payload); err != nil {
			return domain.AuditEvent{}, err
		}
	}
	return domain.AuditEvent{
		ID:            model.ID,
		Stream:        model.Stream,
		Seq:           model.Seq,
		EventType:     domain.AuditEventType(model.EventType),
		Payload:       payload,
		PayloadHash:   model.PayloadHash,
		Result:        domain.AuditResult(model.Result),
		ErrorCode:     stringValue(model.ErrorCode),
		PrevEventHash: model.PrevEventHash,
		EventHash:     model.EventHash,
		CreatedAt:     model.CreatedAt.UTC(),
	}, nil
}
