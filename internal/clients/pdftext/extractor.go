// Package pdftext extracts page text from statement PDFs
package pdftext

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
	"github.com/bobmcallan/extrato/internal/statement"
)

const DefaultMaxPages = 200

// ErrTooManyPages is returned when a PDF exceeds the configured page limit
var ErrTooManyPages = errors.New("pdf exceeds page limit")

// Extractor implements interfaces.TextExtractor using ledongthuc/pdf
type Extractor struct {
	maxPages int
	logger   *common.Logger
}

var _ interfaces.TextExtractor = (*Extractor)(nil)

// ExtractorOption configures the extractor
type ExtractorOption func(*Extractor)

// WithMaxPages sets the page limit. Zero or negative disables the guard.
func WithMaxPages(n int) ExtractorOption {
	return func(e *Extractor) {
		e.maxPages = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates a new PDF text extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		maxPages: DefaultMaxPages,
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile reads a PDF from disk.
func (e *Extractor) ExtractFile(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF: %w", err)
	}
	return e.Extract(f, info.Size())
}

// Extract returns one Page per PDF page, in page order. Pages without a
// content stream come back empty so page numbering is preserved.
func (e *Extractor) Extract(r io.ReaderAt, size int64) (pages []models.Page, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := reader.NumPage()
	if e.maxPages > 0 && total > e.maxPages {
		return nil, fmt.Errorf("%w: %d pages, limit %d", ErrTooManyPages, total, e.maxPages)
	}

	pages = make([]models.Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{})
			continue
		}
		pages = append(pages, models.Page{Lines: e.pageLines(page, i)})
	}

	e.logger.Debug().Int("pages", total).Msg("PDF text extracted")
	return pages, nil
}

// pageLines prefers the plain-text stream and falls back to row grouping
// when the plain text collapses the page into fewer lines than it has rows.
func (e *Extractor) pageLines(page pdf.Page, num int) []string {
	var lines []string
	plain, err := page.GetPlainText(nil)
	if err != nil {
		e.logger.Debug().Int("page", num).Err(err).Msg("Plain text extraction failed")
	} else {
		lines = cleanLines(strings.Split(plain, "\n"))
	}

	if len(lines) > 1 {
		return lines
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		e.logger.Debug().Int("page", num).Err(err).Msg("Row extraction failed")
		return lines
	}
	if byRow := rowLines(rows); len(byRow) > len(lines) {
		return byRow
	}
	return lines
}

// rowLines renders each text row as one line, top of page first.
func rowLines(rows pdf.Rows) []string {
	raw := make([]string, 0, len(rows))
	for _, row := range rows {
		raw = append(raw, joinTexts(row.Content))
	}
	return cleanLines(raw)
}

// joinTexts concatenates positioned text runs left to right, inserting a
// space where the horizontal gap between runs is wider than a quarter em.
func joinTexts(texts pdf.TextHorizontal) string {
	runs := make([]pdf.Text, len(texts))
	copy(runs, texts)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	var end float64
	for i, t := range runs {
		if i > 0 {
			gap := t.FontSize / 4
			if gap < 1 {
				gap = 1
			}
			if t.X-end > gap {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		end = t.X + width(t)
	}
	return b.String()
}

// width estimates a run's width when the font metrics were unavailable.
func width(t pdf.Text) float64 {
	if t.W > 0 {
		return t.W
	}
	return t.FontSize * 0.5 * float64(utf8.RuneCountInString(t.S))
}

func cleanLines(raw []string) []string {
	var out []string
	for _, l := range raw {
		if l = statement.NormalizeLine(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
