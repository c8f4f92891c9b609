package sqldb

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staybook/internal/app/middleware"
	"staybook/internal/domain/shared/apperr"
)

type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, apperr.Storage("idempotency.get", err)
	}
	return middleware.IdempotencyRecord{
		Key:        row.Key,
		Payload:    row.Payload,
		Error:      row.Error,
		ErrorKind:  row.ErrorKind,
		OccurredAt: fromMillis(row.OccurredAtMs),
	}, true, nil
}

// Save keeps the first outcome stored for a key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:          rec.Key,
		Payload:      rec.Payload,
		Error:        rec.Error,
		ErrorKind:    rec.ErrorKind,
		OccurredAtMs: toMillis(rec.OccurredAt),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	return apperr.Storage("idempotency.save", err)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
