// Package statement parses the extracted text of brokerage statements into
// validated equity and dividend records. Three layout generations are
// supported; a document is parsed under the detected generation and falls
// back to older ones when that produces nothing usable.
package statement

import (
	"errors"
	"fmt"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/models"
)

const (
	// DefaultReconcileTolerance is the tunable bound on |qty*price - value| / value.
	DefaultReconcileTolerance = 0.10
	// DefaultFuzzyThreshold is the tunable minimum similarity for a fuzzy ticker match.
	DefaultFuzzyThreshold = 0.6
	// DefaultDetectPages is the tunable number of leading pages inspected by detection.
	DefaultDetectPages = 3
	// DefaultShortDocumentPages is the tunable page count up to which the legacy
	// signature is trusted.
	DefaultShortDocumentPages = 4
)

// Options tunes the pipeline. Zero fields take the defaults above.
type Options struct {
	ReconcileTolerance float64
	FuzzyThreshold     float64
	DetectPages        int
	ShortDocumentPages int
	Phrases            PhraseMap
}

// DefaultOptions returns the default tunables with the built-in phrase map.
func DefaultOptions() Options {
	return Options{
		ReconcileTolerance: DefaultReconcileTolerance,
		FuzzyThreshold:     DefaultFuzzyThreshold,
		DetectPages:        DefaultDetectPages,
		ShortDocumentPages: DefaultShortDocumentPages,
		Phrases:            DefaultPhraseMap(),
	}
}

func (o Options) withDefaults() Options {
	if o.ReconcileTolerance <= 0 {
		o.ReconcileTolerance = DefaultReconcileTolerance
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if o.DetectPages <= 0 {
		o.DetectPages = DefaultDetectPages
	}
	if o.ShortDocumentPages <= 0 {
		o.ShortDocumentPages = DefaultShortDocumentPages
	}
	if o.Phrases.Version == "" && len(o.Phrases.Entries) == 0 {
		o.Phrases = DefaultPhraseMap()
	}
	return o
}

// OptionsFromConfig converts the parser section of the config, loading the
// phrase map file when one is configured.
func OptionsFromConfig(cfg common.ParserConfig) (Options, error) {
	opts := Options{
		ReconcileTolerance: cfg.ReconcileTolerance,
		FuzzyThreshold:     cfg.FuzzyThreshold,
		DetectPages:        cfg.DetectPages,
		ShortDocumentPages: cfg.ShortDocumentPages,
	}
	if cfg.PhraseMap != "" {
		m, err := LoadPhraseMap(cfg.PhraseMap)
		if err != nil {
			return Options{}, err
		}
		opts.Phrases = m
	}
	return opts.withDefaults(), nil
}

// Parser runs the detect, assemble, build and validate pipeline. It holds no
// per-document state and is safe for concurrent use.
type Parser struct {
	opts     Options
	resolver *Resolver
	logger   *common.Logger
}

// NewParser creates a parser. A nil logger discards output.
func NewParser(opts Options, logger *common.Logger) *Parser {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	opts = opts.withDefaults()
	return &Parser{
		opts:     opts,
		resolver: NewResolver(opts.Phrases, opts.FuzzyThreshold),
		logger:   logger,
	}
}

// Options returns the effective options.
func (p *Parser) Options() Options {
	return p.opts
}

// Resolver returns the ticker resolver used by the parser.
func (p *Parser) Resolver() *Resolver {
	return p.resolver
}

// Detect guesses the generation of doc.
func (p *Parser) Detect(doc models.RawDocument) models.StatementFormat {
	return Detect(doc, p.opts)
}

// ParseDocument parses doc. It never fails: a document no grammar can read
// yields an empty outcome with FallbackTriggered set. known is not modified.
// A FormatHint on doc replaces detection as the start of the fallback chain.
func (p *Parser) ParseDocument(doc models.RawDocument, known TickerSet) models.ParseOutcome {
	lines := flatten(doc)
	if len(lines) == 0 {
		return models.ParseOutcome{
			Equities:   []models.EquityRecord{},
			Dividends:  []models.DividendRecord{},
			FormatUsed: models.FormatModernMultiLine,
			Period:     periodHint(doc),
		}
	}

	detected := p.Detect(doc)
	if doc.FormatHint != nil && *doc.FormatHint != "" {
		detected = *doc.FormatHint
	}
	p.logger.Debug().Str("format", string(detected)).Int("pages", len(doc.Pages)).Int("lines", doc.LineCount()).Msg("Detected statement format")

	outcome := models.ParseOutcome{FormatUsed: detected}
	for i, format := range fallbackChain(detected) {
		res := p.attempt(format, lines, doc, known)
		outcome.Attempts = append(outcome.Attempts, res.summary())

		if res.err == nil {
			outcome.Equities = res.equities
			outcome.Dividends = res.dividends
			outcome.FormatUsed = format
			outcome.FallbackTriggered = i > 0
			outcome.Period = res.period
			if i > 0 {
				p.logger.Debug().Str("detected", string(detected)).Str("used", string(format)).Msg("Parsed after fallback")
			}
			return outcome
		}

		p.logger.Debug().Str("format", string(format)).Err(res.err).Bool("structural", IsStructural(res.err)).Int("rejected", res.rejected).Msg("Grammar attempt failed")
	}

	p.logger.Debug().Str("detected", string(detected)).Int("attempts", len(outcome.Attempts)).Msg("All grammars exhausted")
	outcome.Equities = []models.EquityRecord{}
	outcome.Dividends = []models.DividendRecord{}
	outcome.FallbackTriggered = true
	outcome.Period = periodHint(doc)
	return outcome
}

type attemptResult struct {
	format    models.StatementFormat
	equities  []models.EquityRecord
	dividends []models.DividendRecord
	rejected  int
	period    models.MonthYear
	err       error
}

func (r attemptResult) summary() models.Attempt {
	a := models.Attempt{
		Format:    r.format,
		Equities:  len(r.equities),
		Dividends: len(r.dividends),
		Rejected:  r.rejected,
	}
	if r.err != nil {
		a.Err = r.err.Error()
	}
	return a
}

// attempt parses the flattened lines under one grammar.
func (p *Parser) attempt(format models.StatementFormat, lines []string, doc models.RawDocument, known TickerSet) attemptResult {
	g := grammarFor(format)
	res := attemptResult{format: format}

	asm := assemble(g, lines)
	if asm.err != nil {
		res.err = asm.err
		return res
	}

	b := &builder{format: format, g: g, resolver: p.resolver, holder: doc.Holder}
	res.period = p.resolvePeriod(doc, asm, b)
	b.period = res.period

	tickers := known.Clone()

	res.equities = make([]models.EquityRecord, 0, len(asm.equities))
	for _, raw := range asm.equities {
		rec, err := b.equity(raw, tickers)
		if err == nil {
			err = validateEquity(rec, p.opts.ReconcileTolerance)
		}
		if err != nil {
			res.rejected++
			p.logger.Trace().Str("format", string(format)).Int("line", raw.line+1).Err(err).Msg("Rejected equity record")
			continue
		}
		res.equities = append(res.equities, rec)
		tickers.Add(rec.Ticker)
	}

	res.dividends = make([]models.DividendRecord, 0, len(asm.dividends))
	for _, raw := range asm.dividends {
		rec, err := b.dividend(raw, tickers)
		if err == nil {
			err = validateDividend(rec)
		}
		if err != nil {
			res.rejected++
			p.logger.Trace().Str("format", string(format)).Int("line", raw.line+1).Err(err).Msg("Rejected dividend record")
			continue
		}
		res.dividends = append(res.dividends, rec)
	}

	// a holdings section that yields nothing is a misread, while a month
	// without dividends is not
	switch {
	case asm.equitySections > 0 && len(res.equities) == 0:
		res.err = fmt.Errorf("%w: no valid holdings in equity section (%d rejected)", ErrEmptyResult, res.rejected)
	case len(res.equities) == 0 && len(res.dividends) == 0:
		res.err = fmt.Errorf("%w (%d rejected)", ErrEmptyResult, res.rejected)
	}
	return res
}

// resolvePeriod picks the reporting period: the caller's hint, then the
// statement's own period text, then the month of the latest dividend.
func (p *Parser) resolvePeriod(doc models.RawDocument, asm assembly, b *builder) models.MonthYear {
	if doc.PeriodHint != nil && !doc.PeriodHint.IsZero() {
		return *doc.PeriodHint
	}
	if !asm.period.IsZero() {
		return asm.period
	}
	if m, ok := b.latestDividendMonth(asm.dividends); ok {
		return m
	}
	return models.MonthYear{}
}

func periodHint(doc models.RawDocument) models.MonthYear {
	if doc.PeriodHint != nil {
		return *doc.PeriodHint
	}
	return models.MonthYear{}
}

// flatten concatenates every page's lines in page order.
func flatten(doc models.RawDocument) []string {
	var lines []string
	for _, page := range doc.Pages {
		for _, l := range page.Lines {
			if normalizeLine(l) != "" {
				lines = append(lines, l)
			}
		}
	}
	return lines
}

// IsStructural reports whether err aborted a grammar attempt as a whole.
func IsStructural(err error) bool {
	return errors.Is(err, ErrNoSections) || errors.Is(err, ErrUnterminatedSection)
}
