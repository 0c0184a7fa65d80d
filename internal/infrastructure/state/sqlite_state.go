// Package state persists sync-cycle bookkeeping in the same SQLite database
// as the survey records.
package state

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldwatch/internal/errs"
	"fieldwatch/internal/infrastructure/persistence/sqlite/model"
	"fieldwatch/internal/ports"
)

type SQLiteState struct {
	db *gorm.DB
}

var _ ports.SyncState = (*SQLiteState)(nil)

func NewSQLiteState(db *gorm.DB) *SQLiteState {
	return &SQLiteState{db: db}
}

func (s *SQLiteState) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var row model.SyncState
	if err := s.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query sync state by key")
	}

	return row.Value, true, nil
}

func (s *SQLiteState) Set(ctx context.Context, key string, value string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	row := model.SyncState{
		Key:       trimmedKey,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert sync state key")
	}

	return nil
}
