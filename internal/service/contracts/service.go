package contracts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Admin-EWorld/contracts/internal/domain"
	"github.com/Admin-EWorld/contracts/internal/platform/auditlog"
	"github.com/Admin-EWorld/contracts/internal/render"
	"github.com/Admin-EWorld/contracts/internal/repo"
	store "github.com/Admin-EWorld/contracts/internal/storage/objectstore"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// ErrNoDocuments is returned by Generate when every format failed to render.
// The returned error also matches render.ErrRender.
var ErrNoDocuments = errors.New("no document could be rendered")

// ErrIntegrity reports a stored blob whose checksum no longer matches its
// metadata row.
var ErrIntegrity = errors.New("document integrity check failed")

type Assembler interface {
	Assemble(in domain.ContractInput) (domain.Contract, error)
}

type Renderer interface {
	RenderBoth(c domain.Contract) render.Result
}

// GenerateResult is the outcome of one generation request. Artifacts holds
// the rendered bytes of every stored document, in render.Formats order.
type GenerateResult struct {
	Contract  domain.ContractRecord
	Documents []domain.Document
	Artifacts []render.Artifact
	Failures  []*render.RenderError
}

// Artifact returns the rendered artifact for f, if it was produced.
func (r GenerateResult) Artifact(f render.Format) (render.Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Format == f {
			return a, true
		}
	}
	return render.Artifact{}, false
}

type ContractView struct {
	Contract  domain.ContractRecord
	Documents []domain.Document
}

type Download struct {
	Document domain.Document
	Bytes    []byte
}

type PurgeReport struct {
	Purged int
	Failed int
}

// Service runs the generation pipeline and serves stored contracts.
type Service struct {
	assembler Assembler
	renderer  Renderer
	contracts repo.ContractRepository
	documents repo.DocumentRepository
	blobs     store.Store
	audit     repo.AuditAppender
	cache     *cache.Cache
	retention time.Duration
	now       func() time.Time
}

func NewService(assembler Assembler, renderer Renderer, contracts repo.ContractRepository, documents repo.DocumentRepository, blobs store.Store, audit repo.AuditAppender, cfg Config) (*Service, error) {
	if assembler == nil {
		return nil, errors.New("assembler is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if contracts == nil {
		return nil, errors.New("contract repository is required")
	}
	if documents == nil {
		return nil, errors.New("document repository is required")
	}
	if blobs == nil {
		return nil, errors.New("object store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		assembler: assembler,
		renderer:  renderer,
		contracts: contracts,
		documents: documents,
		blobs:     blobs,
		audit:     audit,
		retention: cfg.Retention,
		now:       time.Now,
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s, nil
}

// Generate assembles a contract, renders both formats, stores whatever
// rendered and records the contract. A single failed format is reported in
// GenerateResult.Failures; an error is returned only when nothing could be
// stored.
func (s *Service) Generate(ctx context.Context, input domain.ContractInput, meta auditlog.Meta) (GenerateResult, error) {
	if s == nil || s.assembler == nil || s.renderer == nil || s.contracts == nil || s.blobs == nil {
		return GenerateResult{}, errors.New("contract service not initialized")
	}

	c, err := s.assembler.Assemble(input)
	if err != nil {
		return GenerateResult{}, err
	}

	rendered := s.renderer.RenderBoth(c)
	failures := rendered.Failures()
	for _, f := range failures {
		s.appendAudit(ctx, meta, auditlog.ActionContractRenderFailed, auditlog.ResourceContract, c.ID, map[string]any{
			"format": string(f.Format),
			"error":  f.Err.Error(),
		})
	}
	if rendered.AllFailed() {
		errs := make([]error, 0, len(failures))
		for _, f := range failures {
			errs = append(errs, f)
		}
		return GenerateResult{Failures: failures}, fmt.Errorf("%w: %w", ErrNoDocuments, errors.Join(errs...))
	}

	// Object keys derive from the id, so a colliding id must be caught before
	// the upload overwrites the other contract's documents.
	if _, err := s.contracts.Get(ctx, c.ID); err == nil {
		return GenerateResult{}, fmt.Errorf("contract %s: %w", c.ID, repo.ErrConflict)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return GenerateResult{}, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	artifacts := rendered.Artifacts()
	documents := make([]domain.Document, 0, len(artifacts))
	for _, a := range artifacts {
		documents = append(documents, s.document(c.ID, a, now))
	}

	if err := s.upload(ctx, documents, artifacts); err != nil {
		return GenerateResult{}, err
	}

	rec := domain.ContractRecord{
		Contract:  c,
		CreatedAt: now,
		CreatedBy: actorOf(meta),
	}
	rec.IntegritySHA256, err = contractIntegritySHA256(rec, documents)
	if err != nil {
		s.discard(documents)
		return GenerateResult{}, fmt.Errorf("integrity: %w", err)
	}

	if err := s.contracts.Create(ctx, rec, documents); err != nil {
		if !errors.Is(err, repo.ErrConflict) {
			s.discard(documents)
		}
		return GenerateResult{}, err
	}

	formats := make([]string, 0, len(documents))
	for i, doc := range documents {
		s.cachePut(doc, artifacts[i].Bytes)
		formats = append(formats, doc.Format)
	}
	s.appendAudit(ctx, meta, auditlog.ActionContractGenerated, auditlog.ResourceContract, c.ID, map[string]any{
		"client_name": c.ClientName,
		"currency":    c.CurrencyCode,
		"fees":        c.Fee.StringFixed(2),
		"services":    c.Services,
		"formats":     formats,
		"integrity":   rec.IntegritySHA256,
	})

	return GenerateResult{
		Contract:  rec,
		Documents: documents,
		Artifacts: artifacts,
		Failures:  failures,
	}, nil
}

func (s *Service) document(contractID string, a render.Artifact, now time.Time) domain.Document {
	doc := domain.Document{
		ContractID:  contractID,
		Format:      string(a.Format),
		FileName:    a.FileName,
		ObjectKey:   store.ContractKey(contractID, a.FileName),
		ContentType: a.Format.ContentType(),
		SHA256:      checksum(a.Bytes),
		SizeBytes:   int64(len(a.Bytes)),
		CreatedAt:   now,
	}
	if s.retention > 0 {
		until := now.Add(s.retention)
		doc.RetentionUntil = &until
	}
	return doc
}

// upload writes every artifact in parallel. On failure the blobs that did
// make it are removed again.
func (s *Service) upload(ctx context.Context, documents []domain.Document, artifacts []render.Artifact) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range documents {
		doc, body := documents[i], artifacts[i].Bytes
		g.Go(func() error {
			if err := s.blobs.Put(gctx, doc.ObjectKey, bytes.NewReader(body), int64(len(body)), doc.ContentType); err != nil {
				return fmt.Errorf("upload %s: %w", doc.ObjectKey, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.discard(documents)
		return err
	}
	return nil
}

// discard removes blobs of a generation that could not be recorded. It runs
// detached from the request context so a cancelled request still cleans up.
func (s *Service) discard(documents []domain.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, doc := range documents {
		_ = s.blobs.Delete(ctx, doc.ObjectKey)
	}
}

func (s *Service) Get(ctx context.Context, id string) (ContractView, error) {
	if s == nil || s.contracts == nil || s.documents == nil {
		return ContractView{}, errors.New("contract service not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ContractView{}, domain.InvalidField("contract_id", "is required")
	}
	rec, err := s.contracts.Get(ctx, id)
	if err != nil {
		return ContractView{}, err
	}
	docs, err := s.documents.ListByContract(ctx, id)
	if err != nil {
		return ContractView{}, err
	}
	return ContractView{Contract: rec, Documents: docs}, nil
}

func (s *Service) List(ctx context.Context, filter repo.ContractFilter) ([]domain.ContractRecord, error) {
	if s == nil || s.contracts == nil {
		return nil, errors.New("contract service not initialized")
	}
	return s.contracts.List(ctx, filter)
}

// OpenDocument returns the bytes of a stored document. Recently generated or
// downloaded documents are served from memory; everything else is read from
// the object store and checked against the recorded sha256.
func (s *Service) OpenDocument(ctx context.Context, contractID, format string, meta auditlog.Meta) (Download, error) {
	if s == nil || s.documents == nil || s.blobs == nil {
		return Download{}, errors.New("contract service not initialized")
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return Download{}, err
	}
	contractID = strings.TrimSpace(contractID)
	if contractID == "" {
		return Download{}, domain.InvalidField("contract_id", "is required")
	}

	doc, err := s.documents.Get(ctx, contractID, string(f))
	if err != nil {
		return Download{}, err
	}
	if doc.Expired(s.now()) {
		return Download{}, fmt.Errorf("document %s/%s expired: %w", contractID, f, repo.ErrNotFound)
	}

	body, cached := s.cacheGet(doc)
	if !cached {
		body, err = s.readBlob(ctx, doc)
		if err != nil {
			return Download{}, err
		}
		s.cachePut(doc, body)
	}

	s.appendAudit(ctx, meta, auditlog.ActionDocumentDownloaded, auditlog.ResourceDocument, documentID(doc), map[string]any{
		"object_key": doc.ObjectKey,
		"size_bytes": doc.SizeBytes,
		"sha256":     doc.SHA256,
		"cached":     cached,
	})
	return Download{Document: doc, Bytes: body}, nil
}

func (s *Service) readBlob(ctx context.Context, doc domain.Document) ([]byte, error) {
	rc, _, err := s.blobs.Get(ctx, doc.ObjectKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("document blob %s: %w", doc.ObjectKey, repo.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", doc.ObjectKey, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.ObjectKey, err)
	}
	if got := checksum(body); got != doc.SHA256 {
		return nil, fmt.Errorf("%s: sha256 %s, recorded %s: %w", doc.ObjectKey, got, doc.SHA256, ErrIntegrity)
	}
	return body, nil
}

// PurgeExpired deletes up to limit documents whose retention has passed,
// blob first, then metadata. Failures are collected and do not stop the run.
func (s *Service) PurgeExpired(ctx context.Context, limit int) (PurgeReport, error) {
	if s == nil || s.documents == nil || s.blobs == nil {
		return PurgeReport{}, errors.New("contract service not initialized")
	}
	now := s.now().UTC()
	expired, err := s.documents.ListExpired(ctx, now, limit)
	if err != nil {
		return PurgeReport{}, err
	}

	var (
		report PurgeReport
		errs   []error
	)
	meta := auditlog.System("retention")
	for _, doc := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.blobs.Delete(ctx, doc.ObjectKey); err != nil && !errors.Is(err, store.ErrNotFound) {
			report.Failed++
			errs = append(errs, fmt.Errorf("delete blob %s: %w", doc.ObjectKey, err))
			continue
		}
		if err := s.documents.Delete(ctx, doc.ContractID, doc.Format); err != nil && !errors.Is(err, repo.ErrNotFound) {
			report.Failed++
			errs = append(errs, fmt.Errorf("delete document %s: %w", documentID(doc), err))
			continue
		}
		s.cacheDelete(doc)
		report.Purged++
		s.appendAudit(ctx, meta, auditlog.ActionDocumentPurged, auditlog.ResourceDocument, documentID(doc), map[string]any{
			"object_key":      doc.ObjectKey,
			"retention_until": doc.RetentionUntil,
		})
	}
	return report, errors.Join(errs...)
}

func (s *Service) cachePut(doc domain.Document, body []byte) {
	if s.cache == nil {
		return
	}
	s.cache.SetDefault(cacheKey(doc), body)
}

func (s *Service) cacheGet(doc domain.Document) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(cacheKey(doc))
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func (s *Service) cacheDelete(doc domain.Document) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(doc))
	}
}

// cacheKey includes the checksum so a replaced object never serves stale bytes.
func cacheKey(doc domain.Document) string {
	return doc.ObjectKey + "@" + doc.SHA256
}

func documentID(doc domain.Document) string {
	return doc.ContractID + "/" + doc.Format
}

func actorOf(meta auditlog.Meta) string {
	if actor := strings.TrimSpace(meta.Actor); actor != "" {
		return actor
	}
	return "anonymous"
}

func (s *Service) appendAudit(ctx context.Context, meta auditlog.Meta, action, resourceType, resourceID string, payload map[string]any) {
	if s.audit == nil {
		return
	}
	event := meta.Event(action, resourceType, resourceID, payload)
	event.OccurredAt = s.now().UTC()
	_, _ = s.audit.Append(ctx, event)
}
