package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractInput is the validated-at-the-edge form data for one contract.
type ContractInput struct {
	ClientName    string
	Country       string
	FeeAmountRaw  string
	CurrencyCode  string
	Duration      string
	Services      []string
	EffectiveDate time.Time
}

// Clause is one service-category text block.
type Clause struct {
	Key  string
	Body string
}

// Contract is the canonical record every document format is rendered from.
// It is built once per request and never mutated.
type Contract struct {
	ID            string
	ClientName    string
	Country       string
	FeeAmountRaw  string
	CurrencyCode  string
	Duration      string
	Services      []string
	EffectiveDate time.Time

	Fee                 decimal.Decimal
	FeeWords            string
	CurrencySymbol      string
	CurrencyName        string
	ReferenceCurrency   string
	ReferenceEquivalent decimal.Decimal
	Clauses             []Clause
}

// ClauseKeys returns the keys of c.Clauses in document order.
func (c Contract) ClauseKeys() []string {
	keys := make([]string, 0, len(c.Clauses))
	for _, cl := range c.Clauses {
		keys = append(keys, cl.Key)
	}
	return keys
}

// ContractRecord is a persisted contract with its storage metadata.
type ContractRecord struct {
	Contract
	CreatedAt       time.Time
	CreatedBy       string
	IntegritySHA256 string
}

// Document is the stored rendition of a contract in one format.
type Document struct {
	ContractID     string
	Format         string
	FileName       string
	ObjectKey      string
	ContentType    string
	SHA256         string
	SizeBytes      int64
	CreatedAt      time.Time
	RetentionUntil *time.Time
}

func (d Document) Validate() error {
	switch {
	case d.ContractID == "":
		return InvalidField("contract_id", "is required")
	case d.Format == "":
		return InvalidField("format", "is required")
	case d.ObjectKey == "":
		return InvalidField("object_key", "is required")
	case d.SHA256 == "":
		return InvalidField("sha256", "is required")
	case d.SizeBytes < 0:
		return InvalidField("size_bytes", "must be >= 0")
	}
	return nil
}

// Expired reports whether the document's retention window closed before now.
func (d Document) Expired(now time.Time) bool {
	return d.RetentionUntil != nil && !d.RetentionUntil.After(now)
}
