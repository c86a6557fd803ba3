package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/repo"
)

const documentColumns = `contract_id, format, file_name, object_key, content_type, sha256, size_bytes, created_at, retention_until`

type DocumentStore struct {
	db DB
}

func NewDocumentStore(db DB) *DocumentStore {
	if db == nil {
		return nil
	}
	return &DocumentStore{db: db}
}

func insertDocument(ctx context.Context, db DB, doc domain.Document) error {
	var retention any
	if doc.RetentionUntil != nil {
		retention = normalizeTime(*doc.RetentionUntil)
	}
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO contract_documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		doc.ContractID,
		doc.Format,
		doc.FileName,
		doc.ObjectKey,
		doc.ContentType,
		doc.SHA256,
		doc.SizeBytes,
		normalizeTime(doc.CreatedAt),
		retention,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert document %s/%s: %w", doc.ContractID, doc.Format, repo.ErrConflict)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, contractID, format string) (domain.Document, error) {
	if s == nil || s.db == nil {
		return domain.Document{}, fmt.Errorf("document store not initialized")
	}
	contractID = strings.TrimSpace(contractID)
	format = strings.TrimSpace(format)
	if contractID == "" {
		return domain.Document{}, domain.InvalidField("contract_id", "is required")
	}
	if format == "" {
		return domain.Document{}, domain.InvalidField("format", "is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM contract_documents WHERE contract_id = $1 AND format = $2`, contractID, format)
	doc, err := scanDocument(row)
	if err != nil {
		return domain.Document{}, handleNotFound(err)
	}
	return doc, nil
}

func (s *DocumentStore) ListByContract(ctx context.Context, contractID string) ([]domain.Document, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("document store not initialized")
	}
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return nil, domain.InvalidField("contract_id", "is required")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM contract_documents WHERE contract_id = $1 ORDER BY format`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

// ListExpired returns documents whose retention_until is at or before now,
// oldest first. Documents without a retention deadline are never returned.
func (s *DocumentStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Document, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("document store not initialized")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+documentColumns+` FROM contract_documents
		WHERE retention_until IS NOT NULL AND retention_until <= $1
		ORDER BY retention_until, contract_id, format
		LIMIT $2`,
		normalizeTime(now),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list expired documents: %w", err)
	}
	return collectDocuments(rows)
}

func (s *DocumentStore) Delete(ctx context.Context, contractID, format string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("document store not initialized")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM contract_documents WHERE contract_id = $1 AND format = $2`, strings.TrimSpace(contractID), strings.TrimSpace(format))
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	defer rows.Close()
	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

func scanDocument(row scanner) (domain.Document, error) {
	var (
		doc       domain.Document
		retention sql.NullTime
	)
	if err := row.Scan(
		&doc.ContractID,
		&doc.Format,
		&doc.FileName,
		&doc.ObjectKey,
		&doc.ContentType,
		&doc.SHA256,
		&doc.SizeBytes,
		&doc.CreatedAt,
		&retention,
	); err != nil {
		return domain.Document{}, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	if retention.Valid {
		t := retention.Time.UTC()
		doc.RetentionUntil = &t
	}
	return doc, nil
}
