package sqldb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/domain/shared/apperr"
)

const (
	outboxNew     = "NEW"
	outboxClaimed = "CLAIMED"
	outboxSent    = "SENT"
	outboxFailed  = "FAILED"
)

// OutboxStore keeps event records in the app_outbox table. Add writes through
// the transaction of the current unit so records commit with the aggregates.
type OutboxStore struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers, err := json.Marshal(record.Headers)
	if err != nil {
		return apperr.Storage("outbox.encode_headers", err)
	}
	now := s.now()
	row := outboxModel{
		ID:            record.ID,
		Name:          record.Name,
		Payload:       record.Payload,
		OccurredAtMs:  toMillis(record.OccurredAt),
		Aggregate:     record.Aggregate,
		Headers:       datatypes.JSON(headers),
		State:         outboxNew,
		NextAttemptMs: toMillis(now),
		CreatedAtMs:   toMillis(now),
	}
	if err := dbFrom(ctx, s.db).Create(&row).Error; err != nil {
		return apperr.Storage("outbox.add", err)
	}
	return nil
}

func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim picks the oldest due record and flips it to CLAIMED. The state check
// in the update makes a record lost to another worker look like an empty queue.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*appoutbox.PendingRecord, error) {
	db := s.db.WithContext(ctx)
	var row outboxModel
	err := db.Where("state IN ? AND next_attempt_at <= ?", []string{outboxNew, outboxFailed}, toMillis(s.now())).
		Order("next_attempt_at ASC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("outbox.claim", err)
	}
	res := db.Model(&outboxModel{}).
		Where("id = ? AND state = ?", row.ID, row.State).
		Updates(map[string]any{"state": outboxClaimed, "claimed_by": workerID})
	if res.Error != nil {
		return nil, apperr.Storage("outbox.claim", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var headers map[string]string
	if len(row.Headers) > 0 {
		if err := json.Unmarshal(row.Headers, &headers); err != nil {
			return nil, apperr.Storage("outbox.decode_headers", err)
		}
	}
	return &appoutbox.PendingRecord{
		EventRecord: appoutbox.EventRecord{
			ID:         row.ID,
			Name:       row.Name,
			Payload:    row.Payload,
			OccurredAt: fromMillis(row.OccurredAtMs),
			Aggregate:  row.Aggregate,
			Headers:    headers,
		},
		Attempts: row.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", id).
		Update("state", outboxSent).Error
	return apperr.Storage("outbox.mark_sent", err)
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	err := s.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"state":           outboxFailed,
			"next_attempt_at": toMillis(next),
			"last_error":      errMsg,
			"attempts":        gorm.Expr("attempts + ?", 1),
		}).Error
	return apperr.Storage("outbox.mark_failed", err)
}

func (s *OutboxStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	_ appoutbox.Outbox = (*OutboxStore)(nil)
	_ appoutbox.Source = (*OutboxStore)(nil)
)
