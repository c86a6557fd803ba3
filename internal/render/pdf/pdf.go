// Package pdf lays out the fixed-page PDF rendition of a contract.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/render"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	margin      = 72.0
	labelWidth  = 144.0
	bodyLeading = 14.0
	cellPadding = 8.0
	producer    = "ContractPro"
)

var (
	colorAccent = [3]int{0x1e, 0x40, 0xaf}
	colorLabel  = [3]int{0xf3, 0xf4, 0xf6}
	colorGrid   = [3]int{0xe5, 0xe7, 0xeb}
	colorMuted  = [3]int{0x80, 0x80, 0x80}
)

type Renderer struct {
	// Compress deflates page streams. Tests disable it to search the output.
	Compress bool
}

func New() *Renderer {
	return &Renderer{Compress: true}
}

func (r *Renderer) Format() render.Format {
	return render.FormatPDF
}

func (r *Renderer) Render(c domain.Contract) (render.Artifact, error) {
	if r == nil {
		return render.Artifact{}, render.Wrap(render.FormatPDF, errors.New("pdf renderer not initialized"))
	}
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)
	doc.SetCompression(r.Compress)
	doc.SetCatalogSort(true)
	doc.SetCreationDate(c.EffectiveDate)
	doc.SetModificationDate(c.EffectiveDate)
	doc.SetProducer(producer, false)
	doc.SetCreator(producer, false)

	l := &layout{pdf: doc, enc: charmap.Windows1252.NewEncoder()}
	l.write(render.FieldsOf(c))
	if l.err != nil {
		return render.Artifact{}, render.Wrap(render.FormatPDF, l.err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return render.Artifact{}, render.Wrap(render.FormatPDF, fmt.Errorf("output: %w", err))
	}
	return render.Artifact{
		Format:   render.FormatPDF,
		Bytes:    buf.Bytes(),
		FileName: render.FormatPDF.FileName(c.ID),
	}, nil
}

type layout struct {
	pdf *fpdf.Fpdf
	enc *encoding.Encoder
	err error
}

// text converts s to the Windows-1252 bytes the core fonts expect. The first
// unrepresentable string is kept as the layout error.
func (l *layout) text(s string) string {
	out, err := l.enc.String(s)
	if err != nil {
		if l.err == nil {
			l.err = fmt.Errorf("encode %q: %w", abbreviate(s), err)
		}
		return ""
	}
	return out
}

func (l *layout) write(f render.Fields) {
	l.pdf.AddPage()
	width, _ := l.pdf.GetPageSize()
	contentWidth := width - 2*margin

	l.title("PROFESSIONAL SERVICE AGREEMENT")

	l.detailRow(contentWidth, "Client Name:", f.ClientName)
	l.detailRow(contentWidth, "Country:", f.Country)
	l.detailRow(contentWidth, "Effective Date:", f.EffectiveDate)
	l.detailRow(contentWidth, "Contract Duration:", f.Duration)
	l.detailRow(contentWidth, "Total Fees:", fmt.Sprintf("%s%s (%s)", f.CurrencySymbol, f.FeesAmount, f.FeesInWords))
	l.detailRow(contentWidth, f.ReferenceCurrency+" Equivalent:", fmt.Sprintf("%s %s", f.ReferenceEquivalent, f.ReferenceCurrency))
	l.pdf.Ln(18)

	l.heading("1. PARTIES TO THE AGREEMENT")
	l.body(fmt.Sprintf("This Service Agreement (\"Agreement\") is entered into as of %s, between the Service Provider and %s (\"Client\"), a company operating in %s.",
		f.EffectiveDate, f.ClientName, f.Country))

	l.heading("2. SCOPE OF SERVICES")
	l.body("The Service Provider agrees to provide the following professional services to the Client:")
	for _, clause := range f.Clauses {
		for _, line := range strings.Split(clause, "\n") {
			if strings.TrimSpace(line) != "" {
				l.body(line)
			}
		}
	}

	l.heading("3. FEES AND PAYMENT TERMS")
	l.body(fmt.Sprintf("The Client agrees to pay the Service Provider a total fee of %s%s %s (%s) for the services rendered under this Agreement. Payment terms shall be as mutually agreed upon by both parties.",
		f.CurrencySymbol, f.FeesAmount, f.CurrencyName, f.FeesInWords))

	l.heading("4. TERM AND TERMINATION")
	l.body(fmt.Sprintf("This Agreement shall commence on %s and shall continue for a period of %s, unless terminated earlier in accordance with the provisions herein. Either party may terminate this Agreement with 30 days written notice.",
		f.EffectiveDate, f.Duration))

	l.heading("5. CONFIDENTIALITY")
	l.body("Both parties agree to maintain the confidentiality of all proprietary and confidential information disclosed during the term of this Agreement. This obligation shall survive the termination of this Agreement.")

	l.heading("6. INTELLECTUAL PROPERTY")
	l.body("All intellectual property rights in any work product created by the Service Provider shall be transferred to the Client upon full payment of fees, unless otherwise agreed in writing.")

	l.heading("7. LIMITATION OF LIABILITY")
	l.body("The Service Provider's liability under this Agreement shall be limited to the total fees paid by the Client. Neither party shall be liable for any indirect, incidental, or consequential damages.")

	l.heading("8. GOVERNING LAW")
	l.body(fmt.Sprintf("This Agreement shall be governed by and construed in accordance with the laws of %s, without regard to its conflict of law provisions.", f.Country))

	l.heading("9. SIGNATURES")
	l.signatures(contentWidth)

	l.footer(contentWidth, fmt.Sprintf("Generated by ContractPro on %s | Version 2.0", f.FooterDate))

	if l.err == nil && l.pdf.Err() {
		l.err = l.pdf.Error()
	}
}

func (l *layout) title(s string) {
	l.pdf.SetFont("Helvetica", "B", 20)
	l.pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	l.pdf.CellFormat(0, 30, l.text(s), "", 1, "C", false, 0, "")
	l.pdf.Ln(14)
}

func (l *layout) heading(s string) {
	l.pdf.Ln(8)
	l.pdf.SetFont("Helvetica", "B", 12)
	l.pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	l.pdf.CellFormat(0, 18, l.text(s), "", 1, "L", false, 0, "")
}

func (l *layout) body(s string) {
	l.pdf.SetFont("Helvetica", "", 10)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.MultiCell(0, bodyLeading, l.text(s), "", "J", false)
	l.pdf.Ln(6)
}

// detailRow draws one label/value row of the details table; long values
// wrap and the label cell grows to match.
func (l *layout) detailRow(contentWidth float64, label, value string) {
	valueWidth := contentWidth - labelWidth
	l.pdf.SetFont("Helvetica", "", 9)
	encoded := l.text(value)
	lines := l.pdf.SplitText(encoded, valueWidth-2*cellPadding)
	if len(lines) == 0 {
		lines = []string{""}
	}
	lineHeight := 12.0
	rowHeight := float64(len(lines))*lineHeight + cellPadding

	x, y := l.pdf.GetXY()
	l.pdf.SetDrawColor(colorGrid[0], colorGrid[1], colorGrid[2])
	l.pdf.SetFillColor(colorLabel[0], colorLabel[1], colorLabel[2])
	l.pdf.SetTextColor(0, 0, 0)

	l.pdf.SetFont("Helvetica", "B", 9)
	l.pdf.CellFormat(labelWidth, rowHeight, l.text(label), "1", 0, "LM", true, 0, "")

	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.Rect(x+labelWidth, y, valueWidth, rowHeight, "D")
	for i, line := range lines {
		l.pdf.SetXY(x+labelWidth+cellPadding, y+cellPadding/2+float64(i)*lineHeight)
		l.pdf.CellFormat(valueWidth-2*cellPadding, lineHeight, line, "", 0, "L", false, 0, "")
	}
	l.pdf.SetXY(x, y+rowHeight)
}

func (l *layout) signatures(contentWidth float64) {
	rows := [][2]string{
		{"Service Provider", "Client"},
		{"", ""},
		{strings.Repeat("_", 30), strings.Repeat("_", 30)},
		{"Signature", "Signature"},
		{"", ""},
		{"Date: _______________", "Date: _______________"},
		{"", ""},
		{strings.Repeat("_", 30), strings.Repeat("_", 30)},
		{"Company Stamp (if applicable)", "Company Stamp (if applicable)"},
	}
	col := contentWidth / 2
	l.pdf.SetFont("Helvetica", "", 9)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.Ln(10)
	for _, row := range rows {
		l.pdf.CellFormat(col, 18, l.text(row[0]), "", 0, "C", false, 0, "")
		l.pdf.CellFormat(col, 18, l.text(row[1]), "", 1, "C", false, 0, "")
	}
}

func (l *layout) footer(contentWidth float64, s string) {
	l.pdf.Ln(22)
	l.pdf.SetFont("Helvetica", "", 7)
	l.pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	l.pdf.CellFormat(contentWidth, 10, l.text(s), "", 1, "C", false, 0, "")
}

func abbreviate(s string) string {
	const limit = 40
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
