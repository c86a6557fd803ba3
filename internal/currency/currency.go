// Package currency holds the fixed conversion table used to derive the
// reference-currency equivalent of a contract fee.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownCurrency = errors.New("unknown currency")

type UnknownCurrencyError struct {
	Code string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency %q", e.Code)
}

func (e *UnknownCurrencyError) Unwrap() error {
	return ErrUnknownCurrency
}

// Entry is one row of the table. Rate is the value of one unit expressed in
// the reference currency.
type Entry struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
}

// Table is immutable after construction and safe for concurrent readers.
type Table struct {
	reference string
	order     []string
	entries   map[string]Entry
}

func NewTable(reference string, entries []Entry) (*Table, error) {
	reference = normalizeCode(reference)
	if reference == "" {
		return nil, errors.New("reference currency is required")
	}
	t := &Table{
		reference: reference,
		order:     make([]string, 0, len(entries)),
		entries:   make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		e.Code = normalizeCode(e.Code)
		if e.Code == "" {
			return nil, errors.New("currency code is required")
		}
		if _, dup := t.entries[e.Code]; dup {
			return nil, fmt.Errorf("duplicate currency %q", e.Code)
		}
		if !e.Rate.IsPositive() {
			return nil, fmt.Errorf("currency %s: rate must be positive", e.Code)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("currency %s: name is required", e.Code)
		}
		t.entries[e.Code] = e
		t.order = append(t.order, e.Code)
	}
	ref, ok := t.entries[reference]
	if !ok {
		return nil, fmt.Errorf("reference currency %s missing from table", reference)
	}
	if !ref.Rate.Equal(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("reference currency %s must have rate 1", reference)
	}
	return t, nil
}

// DefaultTable is the built-in table with USD as the reference currency.
func DefaultTable() *Table {
	t, err := NewTable("USD", []Entry{
		{Code: "USD", Symbol: "$", Name: "US Dollars", Rate: decimal.NewFromInt(1)},
		{Code: "EUR", Symbol: "€", Name: "Euros", Rate: decimal.RequireFromString("1.08")},
		{Code: "GBP", Symbol: "£", Name: "Pounds Sterling", Rate: decimal.RequireFromString("1.27")},
		{Code: "AED", Symbol: "AED ", Name: "UAE Dirhams", Rate: decimal.RequireFromString("0.27")},
		{Code: "SAR", Symbol: "SAR ", Name: "Saudi Riyals", Rate: decimal.RequireFromString("0.27")},
	})
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Reference() string {
	return t.reference
}

func (t *Table) Lookup(code string) (Entry, error) {
	if t == nil {
		return Entry{}, errors.New("currency table not initialized")
	}
	e, ok := t.entries[normalizeCode(code)]
	if !ok {
		return Entry{}, &UnknownCurrencyError{Code: code}
	}
	return e, nil
}

// Entries returns the table rows in declaration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.entries[code])
	}
	return out
}

// ConvertToReference returns amount × rate, unrounded.
func (t *Table) ConvertToReference(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	e, err := t.Lookup(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(e.Rate), nil
}

// ConvertFromReference is the inverse of ConvertToReference.
func (t *Table) ConvertFromReference(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	e, err := t.Lookup(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Div(e.Rate), nil
}

var half = decimal.New(5, -1)

// RoundHalfUp rounds to cents with ties going towards positive infinity.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
