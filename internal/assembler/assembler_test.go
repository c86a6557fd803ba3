package assembler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Admin-EWorld/contracts/internal/clauses"
	"github.com/Admin-EWorld/contracts/internal/currency"
	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/numwords"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func newLibrary(t *testing.T) *clauses.Library {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{"business", "finance", "hr", "it"} {
		body := fmt.Sprintf("%s clause body", key)
		if err := os.WriteFile(filepath.Join(dir, key+".txt"), []byte(body), 0o644); err != nil {
			t.Fatalf("write clause: %v", err)
		}
	}
	lib, err := clauses.LoadAll(dir, []string{"it", "hr", "finance", "business"})
	if err != nil {
		t.Fatalf("LoadAll() err=%v", err)
	}
	return lib
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newAssembler(t *testing.T, opts ...Option) *Assembler {
	t.Helper()
	a, err := New(currency.DefaultTable(), newLibrary(t), opts...)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return a
}

func acmeInput() domain.ContractInput {
	return domain.ContractInput{
		ClientName:    "Acme LLC",
		Country:       "Germany",
		FeeAmountRaw:  "1,000.50",
		CurrencyCode:  "EUR",
		Duration:      "12 Months",
		Services:      []string{"it"},
		EffectiveDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAssembleAcme(t *testing.T) {
	a := newAssembler(t, WithIDGenerator(sequentialIDs()))

	got, err := a.Assemble(acmeInput())
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}

	want := domain.Contract{
		ID:                  "id-1",
		ClientName:          "Acme LLC",
		Country:             "Germany",
		FeeAmountRaw:        "1,000.50",
		CurrencyCode:        "EUR",
		Duration:            "12 Months",
		Services:            []string{"it"},
		EffectiveDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Fee:                 decimal.RequireFromString("1000.50"),
		FeeWords:            "One Thousand and 50/100",
		CurrencySymbol:      "€",
		CurrencyName:        "Euros",
		ReferenceCurrency:   "USD",
		ReferenceEquivalent: decimal.RequireFromString("1080.54"),
		Clauses:             []domain.Clause{{Key: "it", Body: "it clause body"}},
	}
	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Fatalf("Assemble() mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleIsPureExceptID(t *testing.T) {
	a := newAssembler(t)

	first, err := a.Assemble(acmeInput())
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}
	second, err := a.Assemble(acmeInput())
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, both %q", first.ID)
	}
	if diff := cmp.Diff(first, second, decimalComparer, cmpopts.IgnoreFields(domain.Contract{}, "ID")); diff != "" {
		t.Fatalf("assemblies differ beyond ID (-first +second):\n%s", diff)
	}
}

func TestAssembleClauseOrderIgnoresSubmissionOrder(t *testing.T) {
	a := newAssembler(t)
	in := acmeInput()

	in.Services = []string{"it", "finance", "business"}
	x, err := a.Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}
	in.Services = []string{"business", "it", "finance", "it"}
	y, err := a.Assemble(in)
	if err != nil {
		t.Fatalf("Assemble() err=%v", err)
	}

	want := []string{"business", "finance", "it"}
	if diff := cmp.Diff(want, x.ClauseKeys()); diff != "" {
		t.Fatalf("clause order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(x.Clauses, y.Clauses); diff != "" {
		t.Fatalf("clauses depend on submission order (-x +y):\n%s", diff)
	}
	if diff := cmp.Diff(want, y.Services); diff != "" {
		t.Fatalf("services not deduplicated (-want +got):\n%s", diff)
	}
}

func TestAssembleValidation(t *testing.T) {
	a := newAssembler(t)
	cases := map[string]struct {
		mutate func(*domain.ContractInput)
		field  string
	}{
		"blank client":  {func(in *domain.ContractInput) { in.ClientName = "  " }, "client_name"},
		"blank country": {func(in *domain.ContractInput) { in.Country = "" }, "country"},
		"blank dur":     {func(in *domain.ContractInput) { in.Duration = "" }, "duration"},
		"blank ccy":     {func(in *domain.ContractInput) { in.CurrencyCode = "" }, "currency"},
		"zero date":     {func(in *domain.ContractInput) { in.EffectiveDate = time.Time{} }, "effective_date"},
		"no services":   {func(in *domain.ContractInput) { in.Services = nil }, "services"},
		"bad fee":       {func(in *domain.ContractInput) { in.FeeAmountRaw = "abc" }, "fees"},
		"zero fee":      {func(in *domain.ContractInput) { in.FeeAmountRaw = "0" }, "fees"},
		"negative fee":  {func(in *domain.ContractInput) { in.FeeAmountRaw = "-10" }, "fees"},
		"three places":  {func(in *domain.ContractInput) { in.FeeAmountRaw = "10.005" }, "fees"},
		"empty fee":     {func(in *domain.ContractInput) { in.FeeAmountRaw = " , " }, "fees"},
		"exponent fee":  {func(in *domain.ContractInput) { in.FeeAmountRaw = "1e2147483647" }, "fees"},
		"small exp fee": {func(in *domain.ContractInput) { in.FeeAmountRaw = "5e3" }, "fees"},
		"signed fee":    {func(in *domain.ContractInput) { in.FeeAmountRaw = "+10" }, "fees"},
		"bare point":    {func(in *domain.ContractInput) { in.FeeAmountRaw = "10." }, "fees"},
	}
	for name, tc := range cases {
		in := acmeInput()
		tc.mutate(&in)
		_, err := a.Assemble(in)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: err=%v, want ErrInvalidInput", name, err)
		}
		var iie *domain.InvalidInputError
		if !errors.As(err, &iie) || iie.Field != tc.field {
			t.Fatalf("%s: field=%v, want %s", name, err, tc.field)
		}
	}
}

func TestAssembleReferentialErrors(t *testing.T) {
	a := newAssembler(t)

	in := acmeInput()
	in.CurrencyCode = "JPY"
	if _, err := a.Assemble(in); !errors.Is(err, currency.ErrUnknownCurrency) {
		t.Fatalf("err=%v, want ErrUnknownCurrency", err)
	}

	in = acmeInput()
	in.Services = []string{"it", "legal"}
	if _, err := a.Assemble(in); !errors.Is(err, clauses.ErrUnknownService) {
		t.Fatalf("err=%v, want ErrUnknownService", err)
	}

	in = acmeInput()
	in.FeeAmountRaw = "1_000_000_000_000"
	if _, err := a.Assemble(in); !errors.Is(err, numwords.ErrOutOfRange) {
		t.Fatalf("err=%v, want ErrOutOfRange", err)
	}
}

func TestAssembleConcurrentIDsAreUnique(t *testing.T) {
	a := newAssembler(t)
	const n = 64

	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := a.Assemble(acmeInput())
			if err != nil {
				t.Errorf("Assemble() err=%v", err)
				return
			}
			ids <- c.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("got %d ids, want %d", len(seen), n)
	}
}

func TestParseFee(t *testing.T) {
	cases := map[string]string{
		"1,000.50":  "1000.50",
		" 2 000 ":   "2000",
		"1_234.5":   "1234.5",
		"0.01":      "0.01",
		"99,999.99": "99999.99",
	}
	for raw, want := range cases {
		got, err := ParseFee(raw)
		if err != nil {
			t.Fatalf("ParseFee(%q) err=%v", raw, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseFee(%q)=%s, want %s", raw, got, want)
		}
	}
}

func TestParseFeeOutOfRange(t *testing.T) {
	huge := "1" + strings.Repeat("0", 5000)
	for _, raw := range []string{"1,000,000,000,000", "0001000000000000.00", huge} {
		_, err := ParseFee(raw)
		if !errors.Is(err, numwords.ErrOutOfRange) {
			t.Fatalf("ParseFee(%.20q) err=%v, want ErrOutOfRange", raw, err)
		}
		if len(err.Error()) > 200 {
			t.Fatalf("ParseFee(%.20q) error message is %d bytes", raw, len(err.Error()))
		}
	}

	got, err := ParseFee("000,999,999,999,999.99")
	if err != nil || !got.Equal(decimal.RequireFromString("999999999999.99")) {
		t.Fatalf("ParseFee(max)=%s,%v", got, err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, newLibrary(t)); err == nil {
		t.Fatalf("expected error without currency table")
	}
	if _, err := New(currency.DefaultTable(), nil); err == nil {
		t.Fatalf("expected error without clause library")
	}
}
