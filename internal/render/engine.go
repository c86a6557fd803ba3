package render

import (
	"errors"
	"fmt"

	"github.com/Admin-EWorld/contracts/internal/domain"
)

// Outcome is the result of one renderer. Exactly one of Artifact and Err is
// meaningful.
type Outcome struct {
	Artifact Artifact
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Result struct {
	DOCX Outcome
	PDF  Outcome
}

// Outcomes returns both outcomes in Formats order.
func (r Result) Outcomes() []Outcome {
	return []Outcome{r.DOCX, r.PDF}
}

func (r Result) Artifacts() []Artifact {
	out := make([]Artifact, 0, 2)
	for _, o := range r.Outcomes() {
		if o.OK() {
			out = append(out, o.Artifact)
		}
	}
	return out
}

func (r Result) Failures() []*RenderError {
	var out []*RenderError
	for _, o := range r.Outcomes() {
		var re *RenderError
		if o.Err != nil && errors.As(o.Err, &re) {
			out = append(out, re)
		}
	}
	return out
}

func (r Result) AllFailed() bool {
	return !r.DOCX.OK() && !r.PDF.OK()
}

type Engine struct {
	docx Renderer
	pdf  Renderer
}

func NewEngine(docx, pdf Renderer) (*Engine, error) {
	if docx == nil || docx.Format() != FormatDOCX {
		return nil, errors.New("docx renderer is required")
	}
	if pdf == nil || pdf.Format() != FormatPDF {
		return nil, errors.New("pdf renderer is required")
	}
	return &Engine{docx: docx, pdf: pdf}, nil
}

// RenderBoth runs each renderer on its own; a failure in one never prevents
// the other. Partial success is reported through Result, not as an error.
func (e *Engine) RenderBoth(c domain.Contract) Result {
	return Result{
		DOCX: run(e.docx, c),
		PDF:  run(e.pdf, c),
	}
}

// Render runs a single format.
func (e *Engine) Render(c domain.Contract, f Format) Outcome {
	switch f {
	case FormatDOCX:
		return run(e.docx, c)
	case FormatPDF:
		return run(e.pdf, c)
	}
	return Outcome{Err: &RenderError{Format: f, Err: fmt.Errorf("unsupported format %q", f)}}
}

func run(r Renderer, c domain.Contract) (out Outcome) {
	defer func() {
		if v := recover(); v != nil {
			out = Outcome{Err: &RenderError{Format: r.Format(), Err: fmt.Errorf("panic: %v", v)}}
		}
	}()
	a, err := r.Render(c)
	if err != nil {
		return Outcome{Err: Wrap(r.Format(), err)}
	}
	if a.Format == "" {
		a.Format = r.Format()
	}
	if a.FileName == "" {
		a.FileName = r.Format().FileName(c.ID)
	}
	return Outcome{Artifact: a}
}
