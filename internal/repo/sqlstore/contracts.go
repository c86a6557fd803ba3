package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/repo"
	"github.com/shopspring/decimal"
)

// EffectiveDateLayout is the stored form of Contract.EffectiveDate.
const EffectiveDateLayout = "2006-01-02"

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

const contractColumns = `contract_id, client_name, country, fees, fees_numeric, fees_words, currency, currency_symbol, currency_name, reference_currency, usd_equivalent, contract_duration, services, effective_date, created_at, created_by, integrity_sha256`

type ContractStore struct {
	db TxBeginner
}

func NewContractStore(db TxBeginner) *ContractStore {
	if db == nil {
		return nil
	}
	return &ContractStore{db: db}
}

func (s *ContractStore) Create(ctx context.Context, rec domain.ContractRecord, documents []domain.Document) (err error) {
	if s == nil || s.db == nil {
		return fmt.Errorf("contract store not initialized")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return domain.InvalidField("contract_id", "is required")
	}
	if err := requireIntegrity(rec.IntegritySHA256); err != nil {
		return err
	}
	for _, doc := range documents {
		if doc.ContractID != rec.ID {
			return fmt.Errorf("document %s belongs to contract %q, not %q", doc.Format, doc.ContractID, rec.ID)
		}
		if err := doc.Validate(); err != nil {
			return err
		}
	}
	services, err := encodeStrings(rec.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO contracts (`+contractColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		strings.TrimSpace(rec.ID),
		rec.ClientName,
		rec.Country,
		rec.FeeAmountRaw,
		rec.Fee.StringFixed(2),
		rec.FeeWords,
		rec.CurrencyCode,
		rec.CurrencySymbol,
		rec.CurrencyName,
		rec.ReferenceCurrency,
		rec.ReferenceEquivalent.StringFixed(2),
		rec.Duration,
		services,
		rec.EffectiveDate.Format(EffectiveDateLayout),
		normalizeTime(rec.CreatedAt),
		strings.TrimSpace(rec.CreatedBy),
		strings.TrimSpace(rec.IntegritySHA256),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert contract %s: %w", rec.ID, repo.ErrConflict)
		}
		return fmt.Errorf("insert contract: %w", err)
	}

	for _, doc := range documents {
		if err = insertDocument(ctx, tx, doc); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *ContractStore) Get(ctx context.Context, id string) (domain.ContractRecord, error) {
	if s == nil || s.db == nil {
		return domain.ContractRecord{}, fmt.Errorf("contract store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ContractRecord{}, domain.InvalidField("contract_id", "is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE contract_id = $1`, id)
	rec, err := scanContract(row)
	if err != nil {
		return domain.ContractRecord{}, handleNotFound(err)
	}
	return rec, nil
}

func (s *ContractStore) List(ctx context.Context, filter repo.ContractFilter) ([]domain.ContractRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("contract store not initialized")
	}
	query, args := buildContractListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ContractRecord, 0)
	for rows.Next() {
		rec, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return out, nil
}

func buildContractListQuery(filter repo.ContractFilter) (string, []any) {
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if name := strings.TrimSpace(filter.ClientName); name != "" {
		args = append(args, "%"+strings.ToLower(name)+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(client_name) LIKE $%d", len(args)))
	}
	if ccy := strings.TrimSpace(filter.Currency); ccy != "" {
		args = append(args, strings.ToUpper(ccy))
		clauses = append(clauses, fmt.Sprintf("currency = $%d", len(args)))
	}

	query := `SELECT ` + contractColumns + ` FROM contracts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, contract_id"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (domain.ContractRecord, error) {
	var (
		rec           domain.ContractRecord
		feeNumeric    string
		usdEquivalent string
		servicesJSON  []byte
		effective     string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ClientName,
		&rec.Country,
		&rec.FeeAmountRaw,
		&feeNumeric,
		&rec.FeeWords,
		&rec.CurrencyCode,
		&rec.CurrencySymbol,
		&rec.CurrencyName,
		&rec.ReferenceCurrency,
		&usdEquivalent,
		&rec.Duration,
		&servicesJSON,
		&effective,
		&rec.CreatedAt,
		&rec.CreatedBy,
		&rec.IntegritySHA256,
	); err != nil {
		return domain.ContractRecord{}, err
	}

	var err error
	if rec.Fee, err = decimal.NewFromString(feeNumeric); err != nil {
		return domain.ContractRecord{}, fmt.Errorf("decode fees_numeric: %w", err)
	}
	if rec.ReferenceEquivalent, err = decimal.NewFromString(usdEquivalent); err != nil {
		return domain.ContractRecord{}, fmt.Errorf("decode usd_equivalent: %w", err)
	}
	if rec.Services, err = decodeStrings(servicesJSON); err != nil {
		return domain.ContractRecord{}, fmt.Errorf("decode services: %w", err)
	}
	if rec.EffectiveDate, err = time.Parse(EffectiveDateLayout, effective); err != nil {
		return domain.ContractRecord{}, fmt.Errorf("decode effective_date: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
