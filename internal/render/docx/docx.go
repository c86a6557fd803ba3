// Package docx renders contracts by filling the placeholders of a Word
// template.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/render"
	godocx "github.com/lukasjarosch/go-docx"
)

// Placeholders lists every key the template must contain, without braces.
var Placeholders = []string{
	"client_name",
	"country",
	"effective_date",
	"fees_amount",
	"fees_in_words",
	"currency_symbol",
	"currency_name",
	"usd_equivalent",
	"contract_duration",
	"services_block",
}

const mainPart = "word/document.xml"

var ErrMissingPlaceholder = errors.New("template is missing placeholder")

type Renderer struct {
	templatePath string
}

func New(templatePath string) (*Renderer, error) {
	if strings.TrimSpace(templatePath) == "" {
		return nil, errors.New("template path is required")
	}
	return &Renderer{templatePath: templatePath}, nil
}

func (r *Renderer) Format() render.Format {
	return render.FormatDOCX
}

// Render reads the template on every call so a replaced or removed template
// is picked up without a restart.
func (r *Renderer) Render(c domain.Contract) (render.Artifact, error) {
	if r == nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, errors.New("docx renderer not initialized"))
	}
	tmpl, err := os.ReadFile(r.templatePath)
	if err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, fmt.Errorf("read template: %w", err))
	}
	if err := checkPlaceholders(tmpl); err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, err)
	}

	doc, err := godocx.OpenBytes(tmpl)
	if err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, fmt.Errorf("open template: %w", err))
	}
	defer doc.Close()

	if err := doc.ReplaceAll(placeholderMap(render.FieldsOf(c))); err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, fmt.Errorf("replace placeholders: %w", err))
	}

	var filled bytes.Buffer
	if err := doc.Write(&filled); err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, fmt.Errorf("write document: %w", err))
	}
	out, err := normalize(filled.Bytes(), c.EffectiveDate)
	if err != nil {
		return render.Artifact{}, render.Wrap(render.FormatDOCX, err)
	}

	return render.Artifact{
		Format:   render.FormatDOCX,
		Bytes:    out,
		FileName: render.FormatDOCX.FileName(c.ID),
	}, nil
}

func placeholderMap(f render.Fields) godocx.PlaceholderMap {
	return godocx.PlaceholderMap{
		"client_name":       f.ClientName,
		"country":           f.Country,
		"effective_date":    f.EffectiveDate,
		"fees_amount":       f.FeesAmount,
		"fees_in_words":     f.FeesInWords,
		"currency_symbol":   f.CurrencySymbol,
		"currency_name":     f.CurrencyName,
		"usd_equivalent":    f.ReferenceEquivalent,
		"contract_duration": f.Duration,
		"services_block":    f.ServicesBlock,
	}
}

var xmlTag = regexp.MustCompile(`<[^>]*>`)

// checkPlaceholders fails on the first documented placeholder absent from
// the template body. Word may split a placeholder across runs, so tags are
// stripped before searching.
func checkPlaceholders(tmpl []byte) error {
	body, err := readPart(tmpl, mainPart)
	if err != nil {
		return err
	}
	text := xmlTag.ReplaceAllString(string(body), "")
	for _, key := range Placeholders {
		if !strings.Contains(text, "{"+key+"}") {
			return fmt.Errorf("%w {%s}", ErrMissingPlaceholder, key)
		}
	}
	return nil
}

func readPart(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("template is not a docx archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("template has no %s", name)
}

// normalize rewrites the archive with sorted entries and fixed timestamps
// so identical contracts produce identical bytes.
func normalize(archive []byte, stamp time.Time) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("read rendered archive: %w", err)
	}
	files := append([]*zip.File(nil), zr.File...)
	sort.SliceStable(files, func(i, j int) bool {
		return entryRank(files[i].Name) < entryRank(files[j].Name)
	})

	modified := stamp.UTC()
	if modified.Year() < 1980 {
		modified = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return out.Bytes(), nil
}

// entryRank keeps [Content_Types].xml first, as Word expects, then orders
// the remaining parts by name.
func entryRank(name string) string {
	if name == "[Content_Types].xml" {
		return "\x00"
	}
	return name
}
