// Package render defines the document formats produced for a contract and
// runs the per-format renderers independently of each other.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/domain"
)

type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// Formats lists every format in the order documents are stored and listed.
var Formats = []Format{FormatDOCX, FormatPDF}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOCX, FormatPDF:
		return f, nil
	}
	return "", domain.InvalidField("format", fmt.Sprintf("unsupported format %q", s))
}

func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName is the download name of a contract's document in format f.
func (f Format) FileName(contractID string) string {
	return "contract_" + contractID + "." + string(f)
}

type Artifact struct {
	Format   Format
	Bytes    []byte
	FileName string
}

// Renderer encodes a contract in one format. Rendering the same contract
// twice must produce identical bytes.
type Renderer interface {
	Format() Format
	Render(c domain.Contract) (Artifact, error)
}

var ErrRender = errors.New("render failed")

type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

// Wrap returns err as a *RenderError for format f, leaving existing render
// errors untouched.
func Wrap(f Format, err error) error {
	if err == nil {
		return nil
	}
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return &RenderError{Format: f, Err: err}
}
