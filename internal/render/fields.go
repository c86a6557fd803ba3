package render

import (
	"strings"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	dateLayout       = "02 January 2006"
	footerDateLayout = "January 02, 2006"
)

// Fields are the display strings shared by every format.
type Fields struct {
	ClientName          string
	Country             string
	EffectiveDate       string
	FooterDate          string
	FeesAmount          string
	FeesInWords         string
	CurrencySymbol      string
	CurrencyName        string
	ReferenceCurrency   string
	ReferenceEquivalent string
	Duration            string
	Clauses             []string
	ServicesBlock       string
}

func FieldsOf(c domain.Contract) Fields {
	bodies := make([]string, 0, len(c.Clauses))
	for _, cl := range c.Clauses {
		bodies = append(bodies, cl.Body)
	}
	return Fields{
		ClientName:          c.ClientName,
		Country:             c.Country,
		EffectiveDate:       c.EffectiveDate.Format(dateLayout),
		FooterDate:          c.EffectiveDate.Format(footerDateLayout),
		FeesAmount:          Money(c.Fee),
		FeesInWords:         c.FeeWords,
		CurrencySymbol:      c.CurrencySymbol,
		CurrencyName:        c.CurrencyName,
		ReferenceCurrency:   c.ReferenceCurrency,
		ReferenceEquivalent: Money(c.ReferenceEquivalent),
		Duration:            c.Duration,
		Clauses:             bodies,
		ServicesBlock:       strings.Join(bodies, "\n\n"),
	}
}

// Money formats d with thousands separators and exactly two decimals,
// e.g. 1080.5 -> "1,080.50".
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign, d = "-", d.Neg()
	}
	_, cents, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + humanize.BigComma(d.BigInt()) + "." + cents
}
