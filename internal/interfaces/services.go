// Package interfaces defines service contracts for Extrato
package interfaces

import (
	"context"
	"io"

	"github.com/bobmcallan/extrato/internal/models"
)

// StatementService parses brokerage statements
type StatementService interface {
	// Parse parses an already extracted document. Known tickers seed the
	// resolver's fuzzy and single-holding strategies.
	Parse(ctx context.Context, doc models.RawDocument, known []string) (*models.StoredOutcome, error)

	// ParsePDF extracts text from a PDF and parses it
	ParsePDF(ctx context.Context, r io.ReaderAt, size int64, meta DocumentMeta, known []string) (*models.StoredOutcome, error)

	// ParseBatch parses documents concurrently; results keep input order
	ParseBatch(ctx context.Context, docs []models.RawDocument, known []string) ([]*models.StoredOutcome, error)

	// Detect reports the format detection would pick for a document
	Detect(ctx context.Context, doc models.RawDocument) models.StatementFormat

	// GetOutcome returns a persisted outcome by ID
	GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error)

	// ListOutcomes returns persisted outcomes for a holder, newest first
	ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error)
}

// DocumentMeta carries the caller-supplied context of an uploaded document
type DocumentMeta struct {
	Holder     string
	PeriodHint *models.MonthYear
	Source     string
}
