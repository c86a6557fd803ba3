// Package assembler turns validated form input into the canonical contract
// record. It performs no I/O.
package assembler

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/clauses"
	"github.com/Admin-EWorld/contracts/internal/currency"
	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/numwords"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IDGenerator must be safe for concurrent use.
type IDGenerator func() string

type Assembler struct {
	currencies *currency.Table
	library    *clauses.Library
	newID      IDGenerator
}

type Option func(*Assembler)

func WithIDGenerator(gen IDGenerator) Option {
	return func(a *Assembler) {
		if gen != nil {
			a.newID = gen
		}
	}
}

func New(currencies *currency.Table, library *clauses.Library, opts ...Option) (*Assembler, error) {
	if currencies == nil {
		return nil, errors.New("currency table is required")
	}
	if library == nil {
		return nil, errors.New("clause library is required")
	}
	a := &Assembler{currencies: currencies, library: library, newID: uuid.NewString}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Assembler) Assemble(in domain.ContractInput) (domain.Contract, error) {
	if a == nil {
		return domain.Contract{}, errors.New("assembler not initialized")
	}
	if err := validate(in); err != nil {
		return domain.Contract{}, err
	}

	fee, err := ParseFee(in.FeeAmountRaw)
	if err != nil {
		return domain.Contract{}, err
	}

	entry, err := a.currencies.Lookup(in.CurrencyCode)
	if err != nil {
		return domain.Contract{}, err
	}
	reference, err := a.currencies.ConvertToReference(fee, entry.Code)
	if err != nil {
		return domain.Contract{}, err
	}

	words, err := numwords.ToWords(fee)
	if err != nil {
		return domain.Contract{}, err
	}

	selected, err := a.selectClauses(in.Services)
	if err != nil {
		return domain.Contract{}, err
	}

	return domain.Contract{
		ID:                  a.newID(),
		ClientName:          strings.TrimSpace(in.ClientName),
		Country:             strings.TrimSpace(in.Country),
		FeeAmountRaw:        in.FeeAmountRaw,
		CurrencyCode:        entry.Code,
		Duration:            strings.TrimSpace(in.Duration),
		Services:            selected.keys,
		EffectiveDate:       in.EffectiveDate,
		Fee:                 fee,
		FeeWords:            words,
		CurrencySymbol:      entry.Symbol,
		CurrencyName:        entry.Name,
		ReferenceCurrency:   a.currencies.Reference(),
		ReferenceEquivalent: currency.RoundHalfUp(reference),
		Clauses:             selected.clauses,
	}, nil
}

type selection struct {
	keys    []string
	clauses []domain.Clause
}

// selectClauses walks the library order so the result does not depend on
// the order or multiplicity of the submitted keys.
func (a *Assembler) selectClauses(services []string) (selection, error) {
	wanted := make(map[string]struct{}, len(services))
	for _, key := range services {
		key = strings.TrimSpace(key)
		if _, err := a.library.Get(key); err != nil {
			return selection{}, err
		}
		wanted[key] = struct{}{}
	}
	out := selection{
		keys:    make([]string, 0, len(wanted)),
		clauses: make([]domain.Clause, 0, len(wanted)),
	}
	for _, key := range a.library.Keys() {
		if _, ok := wanted[key]; !ok {
			continue
		}
		c, err := a.library.Get(key)
		if err != nil {
			return selection{}, err
		}
		out.keys = append(out.keys, key)
		out.clauses = append(out.clauses, c)
	}
	return out, nil
}

func validate(in domain.ContractInput) error {
	switch {
	case strings.TrimSpace(in.ClientName) == "":
		return domain.InvalidField("client_name", "is required")
	case strings.TrimSpace(in.Country) == "":
		return domain.InvalidField("country", "is required")
	case strings.TrimSpace(in.Duration) == "":
		return domain.InvalidField("duration", "is required")
	case strings.TrimSpace(in.CurrencyCode) == "":
		return domain.InvalidField("currency", "is required")
	case in.EffectiveDate.IsZero():
		return domain.InvalidField("effective_date", "is required")
	case len(in.Services) == 0:
		return domain.InvalidField("services", "must select at least one service")
	}
	return nil
}

var (
	feeCleaner = strings.NewReplacer(",", "", "_", "", " ", "")
	feePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

// maxFeeDigits is the number of integer digits below numwords.Max.
const maxFeeDigits = 12

// ParseFee strips grouping characters and parses a strictly positive amount
// with at most two fractional digits. Only plain digits are accepted, so
// signs and exponents never reach decimal arithmetic.
func ParseFee(raw string) (decimal.Decimal, error) {
	cleaned := feeCleaner.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Decimal{}, domain.InvalidField("fees", "is required")
	}
	if !feePattern.MatchString(cleaned) {
		return decimal.Decimal{}, domain.InvalidField("fees", "must be a plain decimal number")
	}
	whole, frac, _ := strings.Cut(cleaned, ".")
	if len(frac) > 2 {
		return decimal.Decimal{}, domain.InvalidField("fees", "must have at most two decimal places")
	}
	if whole = strings.TrimLeft(whole, "0"); len(whole) > maxFeeDigits {
		return decimal.Decimal{}, &numwords.OutOfRangeError{Amount: decimal.RequireFromString(whole)}
	}
	fee, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, domain.InvalidField("fees", "must be a decimal number")
	}
	if !fee.IsPositive() {
		return decimal.Decimal{}, domain.InvalidField("fees", "must be greater than zero")
	}
	if fee.GreaterThanOrEqual(numwords.Max) {
		return decimal.Decimal{}, &numwords.OutOfRangeError{Amount: fee}
	}
	return fee, nil
}
