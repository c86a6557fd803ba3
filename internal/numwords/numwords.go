// Package numwords spells monetary amounts the way they appear on legal
// documents, e.g. "One Thousand Two Hundred Thirty-Four and 56/100".
package numwords

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrOutOfRange = errors.New("amount out of range")

// Max is the exclusive upper bound accepted by ToWords.
var Max = decimal.New(1, 12)

type OutOfRangeError struct {
	Amount decimal.Decimal
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("amount %s out of range [0, %s)", shorten(e.Amount), Max.String())
}

// maxShown bounds how many digits an amount may print as before it is
// written in exponent form.
const maxShown = 24

// shorten works from the coefficient and exponent only, so amounts with huge
// exponents are never expanded into their full decimal form.
func shorten(d decimal.Decimal) string {
	exp := int64(d.Exponent())
	digits := int64(d.NumDigits())
	if digits <= maxShown && exp <= maxShown && -exp <= maxShown {
		return d.String()
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	coef := new(big.Int).Abs(d.Coefficient()).String()
	mantissa := coef[:1]
	if rest := strings.TrimRight(coef[1:min(len(coef), 7)], "0"); rest != "" {
		mantissa += "." + rest
	}
	return fmt.Sprintf("%s%se%+d", sign, mantissa, int64(len(coef))-1+exp)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

var (
	ones = [...]string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = [...]string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
	scales = [...]struct {
		value int64
		name  string
	}{
		{1_000_000_000, "Billion"},
		{1_000_000, "Million"},
		{1_000, "Thousand"},
	}
)

var half = decimal.New(5, -1)

// ToWords rounds amount half-up to cents and spells the whole part, followed
// by the cents as a two-digit fraction of 100.
func ToWords(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() || integerDigits(amount) > 12 {
		return "", &OutOfRangeError{Amount: amount}
	}
	cents := amount.Shift(2).Add(half).Floor()
	if cents.Shift(-2).GreaterThanOrEqual(Max) {
		return "", &OutOfRangeError{Amount: amount}
	}

	total := cents.IntPart()
	whole, frac := total/100, total%100

	return fmt.Sprintf("%s and %02d/100", spell(whole), frac), nil
}

// integerDigits counts the digits before the decimal point without
// rescaling, which would be unbounded for large exponents.
func integerDigits(d decimal.Decimal) int64 {
	if d.IsZero() {
		return 0
	}
	return int64(d.NumDigits()) + int64(d.Exponent())
}

func spell(n int64) string {
	if n == 0 {
		return "Zero"
	}
	parts := make([]string, 0, 8)
	for _, s := range scales {
		if n >= s.value {
			parts = append(parts, belowThousand(n/s.value), s.name)
			n %= s.value
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n int64) string {
	parts := make([]string, 0, 3)
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	switch {
	case n >= 20:
		word := tens[n/10]
		if n%10 != 0 {
			word += "-" + ones[n%10]
		}
		parts = append(parts, word)
	case n > 0:
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}
