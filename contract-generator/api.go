package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/clauses"
	"github.com/Admin-EWorld/contracts/internal/currency"
	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/intake"
	"github.com/Admin-EWorld/contracts/internal/numwords"
	"github.com/Admin-EWorld/contracts/internal/platform/auditlog"
	"github.com/Admin-EWorld/contracts/internal/platform/requestid"
	"github.com/Admin-EWorld/contracts/internal/render"
	"github.com/Admin-EWorld/contracts/internal/repo"
	"github.com/Admin-EWorld/contracts/internal/service/contracts"
)

const maxBodyBytes = 64 << 10

type contractService interface {
	Generate(ctx context.Context, input domain.ContractInput, meta auditlog.Meta) (contracts.GenerateResult, error)
	Get(ctx context.Context, id string) (contracts.ContractView, error)
	List(ctx context.Context, filter repo.ContractFilter) ([]domain.ContractRecord, error)
	OpenDocument(ctx context.Context, contractID, format string, meta auditlog.Meta) (contracts.Download, error)
}

// documentPresigner is implemented by blob backends that can hand out direct
// download links.
type documentPresigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type contractsAPI struct {
	logger     *slog.Logger
	service    contractService
	intake     *intake.Parser
	currencies *currency.Table
	catalog    clauses.Catalog
	presigner  documentPresigner
	presignTTL time.Duration
}

func (api *contractsAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", api.handleForm)
	mux.HandleFunc("POST /generate", api.handleGenerateForm)

	mux.HandleFunc("POST /api/contracts", api.handleCreateContract)
	mux.HandleFunc("GET /api/contracts", api.handleListContracts)
	mux.HandleFunc("GET /api/contracts/{contract_id}", api.handleGetContract)
	mux.HandleFunc("GET /api/contracts/{contract_id}/documents/{format}", api.handleDownloadDocument)

	mux.HandleFunc("GET /api/currencies", api.handleListCurrencies)
	mux.HandleFunc("GET /api/services", api.handleListServices)
}

type contractJSON struct {
	ContractID        string    `json:"contract_id"`
	ClientName        string    `json:"client_name"`
	Country           string    `json:"country"`
	Fees              string    `json:"fees"`
	FeesNumeric       string    `json:"fees_numeric"`
	FeesWords         string    `json:"fees_words"`
	Currency          string    `json:"currency"`
	CurrencySymbol    string    `json:"currency_symbol"`
	CurrencyName      string    `json:"currency_name"`
	ReferenceCurrency string    `json:"reference_currency"`
	USDEquivalent     string    `json:"usd_equivalent"`
	Duration          string    `json:"contract_duration"`
	Services          []string  `json:"services"`
	EffectiveDate     string    `json:"effective_date"`
	CreatedAt         time.Time `json:"created_at"`
	CreatedBy         string    `json:"created_by"`
	IntegritySHA256   string    `json:"integrity_sha256"`
}

type documentJSON struct {
	Format         string     `json:"format"`
	FileName       string     `json:"file_name"`
	ContentType    string     `json:"content_type"`
	SHA256         string     `json:"sha256"`
	SizeBytes      int64      `json:"size_bytes"`
	CreatedAt      time.Time  `json:"created_at"`
	RetentionUntil *time.Time `json:"retention_until,omitempty"`
	DownloadURL    string     `json:"download_url"`
	PresignedURL   string     `json:"presigned_url,omitempty"`
}

type failureJSON struct {
	Format string `json:"format"`
	Error  string `json:"error"`
}

func toContractJSON(rec domain.ContractRecord) contractJSON {
	return contractJSON{
		ContractID:        rec.ID,
		ClientName:        rec.ClientName,
		Country:           rec.Country,
		Fees:              rec.FeeAmountRaw,
		FeesNumeric:       rec.Fee.StringFixed(2),
		FeesWords:         rec.FeeWords,
		Currency:          rec.CurrencyCode,
		CurrencySymbol:    rec.CurrencySymbol,
		CurrencyName:      rec.CurrencyName,
		ReferenceCurrency: rec.ReferenceCurrency,
		USDEquivalent:     rec.ReferenceEquivalent.StringFixed(2),
		Duration:          rec.Duration,
		Services:          rec.Services,
		EffectiveDate:     rec.EffectiveDate.Format(intake.DateLayout),
		CreatedAt:         rec.CreatedAt,
		CreatedBy:         rec.CreatedBy,
		IntegritySHA256:   rec.IntegritySHA256,
	}
}

func (api *contractsAPI) toDocumentsJSON(ctx context.Context, docs []domain.Document) []documentJSON {
	out := make([]documentJSON, 0, len(docs))
	for _, d := range docs {
		item := documentJSON{
			Format:         d.Format,
			FileName:       d.FileName,
			ContentType:    d.ContentType,
			SHA256:         d.SHA256,
			SizeBytes:      d.SizeBytes,
			CreatedAt:      d.CreatedAt,
			RetentionUntil: d.RetentionUntil,
			DownloadURL:    fmt.Sprintf("/api/contracts/%s/documents/%s", d.ContractID, d.Format),
		}
		if api.presigner != nil {
			url, err := api.presigner.PresignGet(ctx, d.ObjectKey, api.presignTTL)
			if err != nil {
				api.logger.Warn("presign failed", "object_key", d.ObjectKey, "error", err)
			} else {
				item.PresignedURL = url
			}
		}
		out = append(out, item)
	}
	return out
}

func toFailuresJSON(failures []*render.RenderError) []failureJSON {
	out := make([]failureJSON, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureJSON{Format: string(f.Format), Error: f.Err.Error()})
	}
	return out
}

// handleGenerateForm accepts the HTML form and answers with the document as
// a download: DOCX by default, PDF with format=pdf in the query or body.
func (api *contractsAPI) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	format := render.FormatDOCX
	if raw := r.Form.Get("format"); raw != "" {
		f, err := render.ParseFormat(raw)
		if err != nil {
			api.writeServiceError(w, r, err)
			return
		}
		format = f
	}
	input, err := api.intake.FromForm(r.PostForm)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}

	result, err := api.service.Generate(r.Context(), input, auditlog.FromRequest(r))
	if err != nil {
		api.writeGenerateError(w, r, result, err)
		return
	}
	artifact, ok := result.Artifact(format)
	if !ok {
		api.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       "render_failed",
			"contract_id": result.Contract.ID,
			"failures":    toFailuresJSON(result.Failures),
			"request_id":  requestid.FromContext(r.Context()),
		})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Bytes)))
	w.Header().Set("X-Contract-Id", result.Contract.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Bytes)
}

func (api *contractsAPI) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	input, err := api.intake.FromJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}

	result, err := api.service.Generate(r.Context(), input, auditlog.FromRequest(r))
	if err != nil {
		api.writeGenerateError(w, r, result, err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]any{
		"contract":  toContractJSON(result.Contract),
		"documents": api.toDocumentsJSON(r.Context(), result.Documents),
		"failures":  toFailuresJSON(result.Failures),
	})
}

func (api *contractsAPI) handleListContracts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.ContractFilter{
		ClientName: strings.TrimSpace(q.Get("client")),
		Currency:   strings.TrimSpace(q.Get("currency")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			api.writeError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	records, err := api.service.List(r.Context(), filter)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	out := make([]contractJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toContractJSON(rec))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"contracts": out})
}

func (api *contractsAPI) handleGetContract(w http.ResponseWriter, r *http.Request) {
	view, err := api.service.Get(r.Context(), r.PathValue("contract_id"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"contract":  toContractJSON(view.Contract),
		"documents": api.toDocumentsJSON(r.Context(), view.Documents),
	})
}

func (api *contractsAPI) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	dl, err := api.service.OpenDocument(r.Context(), r.PathValue("contract_id"), r.PathValue("format"), auditlog.FromRequest(r))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.Document.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Document.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Bytes)))
	w.Header().Set("ETag", strconv.Quote(dl.Document.SHA256))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dl.Bytes)
}

func (api *contractsAPI) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	type currencyJSON struct {
		Code   string `json:"code"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
		Rate   string `json:"rate"`
	}
	entries := api.currencies.Entries()
	out := make([]currencyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, currencyJSON{Code: e.Code, Symbol: e.Symbol, Name: e.Name, Rate: e.Rate.String()})
	}
	api.writeJSON(w, http.StatusOK, map[string]any{
		"reference":  api.currencies.Reference(),
		"currencies": out,
	})
}

func (api *contractsAPI) handleListServices(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]any{"services": api.catalog.Services})
}

func (api *contractsAPI) writeGenerateError(w http.ResponseWriter, r *http.Request, result contracts.GenerateResult, err error) {
	if errors.Is(err, contracts.ErrNoDocuments) {
		api.logger.Error("contract rendering failed", "error", err, "request_id", requestid.FromContext(r.Context()))
		api.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":      "render_failed",
			"failures":   toFailuresJSON(result.Failures),
			"request_id": requestid.FromContext(r.Context()),
		})
		return
	}
	api.writeServiceError(w, r, err)
}

// errorStatus maps service errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	var invalid *domain.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, "invalid_" + invalid.Field
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, currency.ErrUnknownCurrency):
		return http.StatusBadRequest, "unknown_currency"
	case errors.Is(err, clauses.ErrUnknownService):
		return http.StatusBadRequest, "unknown_service"
	case errors.Is(err, numwords.ErrOutOfRange):
		return http.StatusBadRequest, "fee_out_of_range"
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repo.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, render.ErrRender):
		return http.StatusInternalServerError, "render_failed"
	case errors.Is(err, contracts.ErrIntegrity):
		return http.StatusInternalServerError, "integrity_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (api *contractsAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		api.logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestid.FromContext(r.Context()))
		api.writeError(w, r, status, code, "")
		return
	}
	api.writeError(w, r, status, code, err.Error())
}

func (api *contractsAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *contractsAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	body := map[string]any{
		"error":      code,
		"request_id": requestid.FromContext(r.Context()),
	}
	if message != "" {
		body["message"] = message
	}
	api.writeJSON(w, status, body)
}
