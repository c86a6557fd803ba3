package render_test

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/render"
	"github.com/Admin-EWorld/contracts/internal/render/docx"
	"github.com/Admin-EWorld/contracts/internal/render/pdf"
	"github.com/shopspring/decimal"
)

func TestRenderBothMissingTemplateKeepsPDF(t *testing.T) {
	wordRenderer, err := docx.New(filepath.Join(t.TempDir(), "missing.docx"))
	if err != nil {
		t.Fatalf("docx.New() err=%v", err)
	}
	engine, err := render.NewEngine(wordRenderer, pdf.New())
	if err != nil {
		t.Fatalf("NewEngine() err=%v", err)
	}

	c := domain.Contract{
		ID:                  "c-9",
		ClientName:          "Acme LLC",
		Country:             "Germany",
		CurrencyCode:        "EUR",
		Duration:            "12 Months",
		EffectiveDate:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Fee:                 decimal.RequireFromString("1000.50"),
		FeeWords:            "One Thousand and 50/100",
		CurrencySymbol:      "€",
		CurrencyName:        "Euros",
		ReferenceCurrency:   "USD",
		ReferenceEquivalent: decimal.RequireFromString("1080.54"),
		Clauses:             []domain.Clause{{Key: "it", Body: "IT clause."}},
	}
	res := engine.RenderBoth(c)

	if !res.PDF.OK() {
		t.Fatalf("pdf err=%v", res.PDF.Err)
	}
	if !bytes.HasPrefix(res.PDF.Artifact.Bytes, []byte("%PDF-")) {
		t.Fatalf("pdf bytes do not look like a PDF")
	}
	if res.DOCX.OK() {
		t.Fatalf("expected docx failure")
	}
	if !errors.Is(res.DOCX.Err, render.ErrRender) || !errors.Is(res.DOCX.Err, fs.ErrNotExist) {
		t.Fatalf("docx err=%v, want ErrRender wrapping fs.ErrNotExist", res.DOCX.Err)
	}
	var re *render.RenderError
	if !errors.As(res.DOCX.Err, &re) || re.Format != render.FormatDOCX {
		t.Fatalf("docx err=%v, want *RenderError for docx", res.DOCX.Err)
	}
	if res.AllFailed() {
		t.Fatalf("AllFailed() with a successful pdf")
	}
	if got := res.Artifacts(); len(got) != 1 || got[0].Format != render.FormatPDF {
		t.Fatalf("Artifacts()=%v", got)
	}
}
