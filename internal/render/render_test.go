package render

import (
	"errors"
	"testing"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/shopspring/decimal"
)

type stubRenderer struct {
	format Format
	err    error
	panic  bool
}

func (s stubRenderer) Format() Format { return s.format }

func (s stubRenderer) Render(c domain.Contract) (Artifact, error) {
	if s.panic {
		panic("template exploded")
	}
	if s.err != nil {
		return Artifact{}, s.err
	}
	return Artifact{Bytes: []byte(string(s.format) + ":" + c.ID)}, nil
}

func sampleContract() domain.Contract {
	return domain.Contract{
		ID:                  "c-1",
		ClientName:          "Acme LLC",
		Country:             "Germany",
		EffectiveDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Fee:                 decimal.RequireFromString("1000.5"),
		FeeWords:            "One Thousand and 50/100",
		CurrencySymbol:      "€",
		CurrencyName:        "Euros",
		ReferenceCurrency:   "USD",
		ReferenceEquivalent: decimal.RequireFromString("1080.54"),
		Duration:            "12 Months",
		Clauses:             []domain.Clause{{Key: "finance", Body: "F"}, {Key: "it", Body: "I"}},
	}
}

func TestRenderBothSuccess(t *testing.T) {
	e, err := NewEngine(stubRenderer{format: FormatDOCX}, stubRenderer{format: FormatPDF})
	if err != nil {
		t.Fatalf("NewEngine() err=%v", err)
	}
	res := e.RenderBoth(sampleContract())
	if !res.DOCX.OK() || !res.PDF.OK() {
		t.Fatalf("expected both ok: %+v", res)
	}
	if res.DOCX.Artifact.FileName != "contract_c-1.docx" || res.PDF.Artifact.FileName != "contract_c-1.pdf" {
		t.Fatalf("file names: %q %q", res.DOCX.Artifact.FileName, res.PDF.Artifact.FileName)
	}
	if res.PDF.Artifact.Format != FormatPDF {
		t.Fatalf("Format=%q", res.PDF.Artifact.Format)
	}
	if len(res.Artifacts()) != 2 || len(res.Failures()) != 0 || res.AllFailed() {
		t.Fatalf("unexpected result summary: %+v", res)
	}
}

func TestRenderBothPartialFailure(t *testing.T) {
	missing := errors.New("template missing")
	e, err := NewEngine(stubRenderer{format: FormatDOCX, err: missing}, stubRenderer{format: FormatPDF})
	if err != nil {
		t.Fatalf("NewEngine() err=%v", err)
	}
	res := e.RenderBoth(sampleContract())

	if res.DOCX.OK() {
		t.Fatalf("expected docx failure")
	}
	if !errors.Is(res.DOCX.Err, ErrRender) || !errors.Is(res.DOCX.Err, missing) {
		t.Fatalf("docx err=%v, want ErrRender wrapping cause", res.DOCX.Err)
	}
	if !res.PDF.OK() {
		t.Fatalf("pdf should succeed: %v", res.PDF.Err)
	}
	failures := res.Failures()
	if len(failures) != 1 || failures[0].Format != FormatDOCX {
		t.Fatalf("Failures()=%v", failures)
	}
	if res.AllFailed() {
		t.Fatalf("AllFailed() with one success")
	}
}

func TestRenderBothRecoversPanic(t *testing.T) {
	e, err := NewEngine(stubRenderer{format: FormatDOCX}, stubRenderer{format: FormatPDF, panic: true})
	if err != nil {
		t.Fatalf("NewEngine() err=%v", err)
	}
	res := e.RenderBoth(sampleContract())
	if !res.DOCX.OK() {
		t.Fatalf("docx should succeed: %v", res.DOCX.Err)
	}
	var re *RenderError
	if !errors.As(res.PDF.Err, &re) || re.Format != FormatPDF {
		t.Fatalf("pdf err=%v, want RenderError{pdf}", res.PDF.Err)
	}
}

func TestNewEngineRejectsMismatchedRenderers(t *testing.T) {
	if _, err := NewEngine(stubRenderer{format: FormatPDF}, stubRenderer{format: FormatPDF}); err == nil {
		t.Fatalf("expected error for swapped renderers")
	}
	if _, err := NewEngine(nil, stubRenderer{format: FormatPDF}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestEngineRenderSingleFormat(t *testing.T) {
	e, _ := NewEngine(stubRenderer{format: FormatDOCX}, stubRenderer{format: FormatPDF})
	out := e.Render(sampleContract(), FormatPDF)
	if !out.OK() || string(out.Artifact.Bytes) != "pdf:c-1" {
		t.Fatalf("Render(pdf)=%+v", out)
	}
	if out := e.Render(sampleContract(), Format("odt")); !errors.Is(out.Err, ErrRender) {
		t.Fatalf("Render(odt) err=%v", out.Err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" PDF "); err != nil || f != FormatPDF {
		t.Fatalf("ParseFormat(PDF)=%q,%v", f, err)
	}
	if _, err := ParseFormat("odt"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("ParseFormat(odt) err=%v", err)
	}
	if FormatPDF.ContentType() != "application/pdf" {
		t.Fatalf("ContentType(pdf)=%q", FormatPDF.ContentType())
	}
}

func TestFieldsOf(t *testing.T) {
	f := FieldsOf(sampleContract())
	if f.FeesAmount != "1,000.50" {
		t.Fatalf("FeesAmount=%q", f.FeesAmount)
	}
	if f.ReferenceEquivalent != "1,080.54" {
		t.Fatalf("ReferenceEquivalent=%q", f.ReferenceEquivalent)
	}
	if f.EffectiveDate != "01 March 2026" || f.FooterDate != "March 01, 2026" {
		t.Fatalf("dates=%q %q", f.EffectiveDate, f.FooterDate)
	}
	if f.ServicesBlock != "F\n\nI" {
		t.Fatalf("ServicesBlock=%q", f.ServicesBlock)
	}
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":            "0.00",
		"5":            "5.00",
		"999.9":        "999.90",
		"1234567.891":  "1,234,567.89",
		"999999999999": "999,999,999,999.00",
		"-1500.5":      "-1,500.50",
		"-0.001":       "0.00",
		"0.005":        "0.01",
	}
	for in, want := range cases {
		if got := Money(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Money(%s)=%q, want %q", in, got, want)
		}
	}

	beyondInt64 := decimal.RequireFromString("123456789012345678901234.5")
	if got := Money(beyondInt64); got != "123,456,789,012,345,678,901,234.50" {
		t.Fatalf("Money(%s)=%q", beyondInt64, got)
	}
}
