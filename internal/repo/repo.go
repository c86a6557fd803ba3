package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/platform/auditlog"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type ContractFilter struct {
	ClientName string
	Currency   string
	Limit      int
}

// ContractRepository stores contracts together with their documents. Create
// is atomic: either the contract and every document row exist, or none do.
type ContractRepository interface {
	Create(ctx context.Context, contract domain.ContractRecord, documents []domain.Document) error
	Get(ctx context.Context, id string) (domain.ContractRecord, error)
	List(ctx context.Context, filter ContractFilter) ([]domain.ContractRecord, error)
}

type DocumentRepository interface {
	Get(ctx context.Context, contractID, format string) (domain.Document, error)
	ListByContract(ctx context.Context, contractID string) ([]domain.Document, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Document, error)
	Delete(ctx context.Context, contractID, format string) error
}

type AuditAppender interface {
	Append(ctx context.Context, event auditlog.Event) (int64, error)
}
