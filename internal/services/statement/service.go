// Package statement provides the statement parsing service: caching,
// persistence, PDF ingestion and batch parsing around the core pipeline.
package statement

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
	pipeline "github.com/bobmcallan/extrato/internal/statement"
)

var (
	// ErrDocumentTooLarge is returned when an uploaded PDF exceeds max_pdf_bytes
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrUnreadablePDF wraps text extraction failures
	ErrUnreadablePDF = errors.New("failed to extract PDF text")
)

const (
	fingerprintPrefix = "fp:"
	idPrefix          = "id:"
)

// Service implements StatementService
type Service struct {
	parser      *pipeline.Parser
	extractor   interfaces.TextExtractor
	store       interfaces.OutcomeStore
	cache       *cache.Cache
	workers     int
	maxPDFBytes int64
	logger      *common.Logger
	now         func() time.Time // injectable clock for testing
}

var _ interfaces.StatementService = (*Service)(nil)

// NewService creates a new statement service.
// extractor may be nil, in which case ParsePDF fails.
// store may be nil: outcomes are then only held in the cache.
func NewService(parser *pipeline.Parser, extractor interfaces.TextExtractor, store interfaces.OutcomeStore, config common.ServiceConfig, logger *common.Logger) *Service {
	ttl := config.GetCacheTTL()
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		parser:      parser,
		extractor:   extractor,
		store:       store,
		cache:       cache.New(ttl, 2*ttl),
		workers:     workers,
		maxPDFBytes: config.MaxPDFBytes,
		logger:      logger,
		now:         time.Now,
	}
}

// Parse parses doc, returning the cached outcome when the same document was
// parsed with the same known tickers within the cache TTL.
func (s *Service) Parse(ctx context.Context, doc models.RawDocument, known []string) (*models.StoredOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	knownSet := pipeline.NewTickerSet(known...)
	fp := Fingerprint(doc, knownSet)
	if cached, ok := s.cache.Get(fingerprintPrefix + fp); ok {
		s.logger.Debug().Str("fingerprint", fp[:12]).Msg("Outcome served from cache")
		return cached.(*models.StoredOutcome), nil
	}

	start := s.now()
	outcome := s.parser.ParseDocument(doc, knownSet)

	stored := &models.StoredOutcome{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Holder:      doc.Holder,
		Source:      doc.Source,
		Outcome:     outcome,
		ParsedAt:    s.now().UTC(),
	}

	if s.store != nil {
		if err := s.store.SaveOutcome(ctx, stored); err != nil {
			return nil, fmt.Errorf("failed to save outcome: %w", err)
		}
	}

	s.cache.SetDefault(fingerprintPrefix+fp, stored)
	s.cache.SetDefault(idPrefix+stored.ID, stored)

	s.logger.Info().
		Str("id", stored.ID).
		Str("format", string(outcome.FormatUsed)).
		Bool("fallback", outcome.FallbackTriggered).
		Int("equities", len(outcome.Equities)).
		Int("dividends", len(outcome.Dividends)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Statement parsed")

	return stored, nil
}

// ParsePDF extracts the text of a PDF and parses it.
func (s *Service) ParsePDF(ctx context.Context, r io.ReaderAt, size int64, meta interfaces.DocumentMeta, known []string) (*models.StoredOutcome, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("PDF extraction is not configured")
	}
	if s.maxPDFBytes > 0 && size > s.maxPDFBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrDocumentTooLarge, size, s.maxPDFBytes)
	}

	pages, err := s.extractor.Extract(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}

	doc := models.RawDocument{
		Pages:      pages,
		Holder:     meta.Holder,
		PeriodHint: meta.PeriodHint,
		Source:     meta.Source,
	}
	return s.Parse(ctx, doc, known)
}

// ParseBatch parses docs on up to workers goroutines. Results keep the
// input order; the first failure cancels the remaining documents.
func (s *Service) ParseBatch(ctx context.Context, docs []models.RawDocument, known []string) ([]*models.StoredOutcome, error) {
	results := make([]*models.StoredOutcome, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, doc := range docs {
		g.Go(func() error {
			out, err := s.Parse(gctx, doc, known)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn().Int("documents", len(docs)).Err(err).Msg("Batch parse failed")
		return nil, err
	}
	return results, nil
}

// Detect reports the format the detector picks for doc.
func (s *Service) Detect(ctx context.Context, doc models.RawDocument) models.StatementFormat {
	return s.parser.Detect(doc)
}

// GetOutcome returns an outcome by ID, from the store when one is configured.
func (s *Service) GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error) {
	if s.store != nil {
		return s.store.GetOutcome(ctx, id)
	}
	if cached, ok := s.cache.Get(idPrefix + id); ok {
		return cached.(*models.StoredOutcome), nil
	}
	return nil, interfaces.ErrOutcomeNotFound
}

// ListOutcomes returns a holder's outcomes, newest first. Without a store
// only outcomes still in the cache are listed.
func (s *Service) ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error) {
	if s.store != nil {
		return s.store.ListOutcomes(ctx, holder)
	}

	var outcomes []*models.StoredOutcome
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, idPrefix) {
			continue
		}
		o := item.Object.(*models.StoredOutcome)
		if holder == "" || o.Holder == holder {
			outcomes = append(outcomes, o)
		}
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].ParsedAt.Equal(outcomes[j].ParsedAt) {
			return outcomes[i].ID > outcomes[j].ID
		}
		return outcomes[i].ParsedAt.After(outcomes[j].ParsedAt)
	})
	return outcomes, nil
}

// Fingerprint identifies a parse request: page text, holder, period and
// format hints and the known ticker set.
func Fingerprint(doc models.RawDocument, known pipeline.TickerSet) string {
	h := sha256.New()
	for _, page := range doc.Pages {
		for _, line := range page.Lines {
			io.WriteString(h, line)
			h.Write([]byte{'\n'})
		}
		h.Write([]byte{'\f'})
	}
	h.Write([]byte{0})
	io.WriteString(h, doc.Holder)
	h.Write([]byte{0})
	if doc.PeriodHint != nil {
		io.WriteString(h, doc.PeriodHint.String())
	}
	h.Write([]byte{0})
	if doc.FormatHint != nil {
		io.WriteString(h, string(*doc.FormatHint))
	}
	h.Write([]byte{0})
	io.WriteString(h, strings.Join(known.Sorted(), ","))
	return hex.EncodeToString(h.Sum(nil))
}
