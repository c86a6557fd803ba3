// Package intake turns submitted form or JSON bodies into contract input.
// It cleans free text and applies defaults; business validation is left to
// the assembler.
package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/platform/env"
	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultCurrency = "USD"
	DefaultDuration = "12 Months"
	DateLayout      = "2006-01-02"

	maxTextLen = 200
)

// Countries and Durations are the choices offered by the HTML form.
var (
	Countries = []string{"USA", "UK", "UAE", "KSA", "Bahrain"}
	Durations = []string{"6 Months", "12 Months", "24 Months", "36 Months"}
)

// Request is the JSON body of POST /api/contracts. Form submissions use the
// same field names.
type Request struct {
	ClientName    string   `json:"client_name"`
	Country       string   `json:"country"`
	Fees          string   `json:"fees"`
	Currency      string   `json:"currency"`
	Duration      string   `json:"duration"`
	Services      []string `json:"services"`
	EffectiveDate string   `json:"effective_date"`
}

type Parser struct {
	policy   *bluemonday.Policy
	location *time.Location
	now      func() time.Time
}

// NewParser returns a parser that resolves "today" in loc. A nil loc means UTC.
func NewParser(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		policy:   bluemonday.StrictPolicy(),
		location: loc,
		now:      time.Now,
	}
}

// LocationFromEnv reads CONTRACTS_TIMEZONE.
func LocationFromEnv() (*time.Location, error) {
	return env.Location("CONTRACTS_TIMEZONE", "UTC")
}

func (p *Parser) FromForm(values url.Values) (domain.ContractInput, error) {
	if p == nil {
		return domain.ContractInput{}, errors.New("intake parser not initialized")
	}
	return p.Build(Request{
		ClientName:    values.Get("client_name"),
		Country:       values.Get("country"),
		Fees:          values.Get("fees"),
		Currency:      values.Get("currency"),
		Duration:      values.Get("duration"),
		Services:      values["services"],
		EffectiveDate: values.Get("effective_date"),
	})
}

func (p *Parser) FromJSON(r io.Reader) (domain.ContractInput, error) {
	if p == nil {
		return domain.ContractInput{}, errors.New("intake parser not initialized")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return domain.ContractInput{}, domain.InvalidField("body", fmt.Sprintf("is not valid JSON: %v", err))
	}
	if dec.More() {
		return domain.ContractInput{}, domain.InvalidField("body", "must contain a single JSON object")
	}
	return p.Build(req)
}

// Build cleans every field of req and fills in defaults.
func (p *Parser) Build(req Request) (domain.ContractInput, error) {
	if p == nil {
		return domain.ContractInput{}, errors.New("intake parser not initialized")
	}
	in := domain.ContractInput{
		ClientName:   p.clean(req.ClientName),
		Country:      p.clean(req.Country),
		FeeAmountRaw: p.clean(req.Fees),
		CurrencyCode: strings.ToUpper(p.clean(req.Currency)),
		Duration:     p.clean(req.Duration),
	}
	if in.CurrencyCode == "" {
		in.CurrencyCode = DefaultCurrency
	}
	if in.Duration == "" {
		in.Duration = DefaultDuration
	}
	for _, field := range []struct{ name, value string }{
		{"client_name", in.ClientName},
		{"country", in.Country},
		{"fees", in.FeeAmountRaw},
		{"duration", in.Duration},
	} {
		if len([]rune(field.value)) > maxTextLen {
			return domain.ContractInput{}, domain.InvalidField(field.name, fmt.Sprintf("must be at most %d characters", maxTextLen))
		}
	}

	seen := make(map[string]struct{}, len(req.Services))
	for _, raw := range req.Services {
		for _, key := range strings.Split(raw, ",") {
			key = strings.ToLower(p.clean(key))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			in.Services = append(in.Services, key)
		}
	}

	date, err := p.effectiveDate(req.EffectiveDate)
	if err != nil {
		return domain.ContractInput{}, err
	}
	in.EffectiveDate = date
	return in, nil
}

// effectiveDate returns the calendar date as midnight UTC. A blank value
// means today in the parser's location.
func (p *Parser) effectiveDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := p.now().In(p.location).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, domain.InvalidField("effective_date", "must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

// clean strips markup and control characters and collapses runs of
// whitespace into single spaces.
func (p *Parser) clean(s string) string {
	s = html.UnescapeString(p.policy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
