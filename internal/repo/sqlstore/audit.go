package sqlstore

import (
	"context"
	"fmt"

	"github.com/Admin-EWorld/contracts/internal/platform/auditlog"
)

type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	if db == nil {
		return nil
	}
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, event auditlog.Event) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("audit store not initialized")
	}
	id, err := auditlog.Insert(ctx, s.db, event)
	if err != nil {
		return 0, fmt.Errorf("append audit event: %w", err)
	}
	return id, nil
}
