package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
)

type contractIntegrityInput struct {
	ContractID          string            `json:"contract_id"`
	ClientName          string            `json:"client_name"`
	Country             string            `json:"country"`
	Fees                string            `json:"fees"`
	FeesNumeric         string            `json:"fees_numeric"`
	FeesWords           string            `json:"fees_words"`
	Currency            string            `json:"currency"`
	CurrencySymbol      string            `json:"currency_symbol"`
	CurrencyName        string            `json:"currency_name"`
	ReferenceCurrency   string            `json:"reference_currency"`
	ReferenceEquivalent string            `json:"usd_equivalent"`
	Duration            string            `json:"contract_duration"`
	Services            []string          `json:"services"`
	EffectiveDate       string            `json:"effective_date"`
	CreatedAt           time.Time         `json:"created_at"`
	CreatedBy           string            `json:"created_by"`
	Documents           map[string]string `json:"documents"`
}

// contractIntegritySHA256 hashes the stored form of the contract row and the
// checksums of its documents.
func contractIntegritySHA256(rec domain.ContractRecord, documents []domain.Document) (string, error) {
	docs := make(map[string]string, len(documents))
	for _, d := range documents {
		docs[d.Format] = d.SHA256
	}
	blob, err := json.Marshal(contractIntegrityInput{
		ContractID:          rec.ID,
		ClientName:          rec.ClientName,
		Country:             rec.Country,
		Fees:                rec.FeeAmountRaw,
		FeesNumeric:         rec.Fee.StringFixed(2),
		FeesWords:           rec.FeeWords,
		Currency:            rec.CurrencyCode,
		CurrencySymbol:      rec.CurrencySymbol,
		CurrencyName:        rec.CurrencyName,
		ReferenceCurrency:   rec.ReferenceCurrency,
		ReferenceEquivalent: rec.ReferenceEquivalent.StringFixed(2),
		Duration:            rec.Duration,
		Services:            rec.Services,
		EffectiveDate:       rec.EffectiveDate.Format("2006-01-02"),
		CreatedAt:           rec.CreatedAt.UTC(),
		CreatedBy:           rec.CreatedBy,
		Documents:           docs,
	})
	if err != nil {
		return "", fmt.Errorf("marshal integrity input: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
