package sqlite

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// AuditStore implements domain.AuditStore on SQLite.
type AuditStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditStore creates an AuditStore on the given handle.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Log appends an audit entry.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	row := auditRow{Event: event, Detail: detail, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("sqlite: log audit event %s: %w", event, err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []auditRow
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite: list audit entries: %w", err)
	}

	out := make([]domain.AuditEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.AuditEntry{ID: r.ID, Event: r.Event, Detail: r.Detail, CreatedAt: r.CreatedAt})
	}
	return out, nil
}
