package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StatementFormat identifies the layout generation a statement was written in.
// A document is parsed under exactly one format.
type StatementFormat string

const (
	FormatModernMultiLine   StatementFormat = "ModernMultiLine"
	FormatSectionedColumnar StatementFormat = "SectionedColumnar"
	FormatLegacyTabular     StatementFormat = "LegacyTabular"
)

// Generations returns every known format in fallback order, newest first.
func Generations() []StatementFormat {
	return []StatementFormat{
		FormatModernMultiLine,
		FormatSectionedColumnar,
		FormatLegacyTabular,
	}
}

// ParseStatementFormat matches a format name case-insensitively.
func ParseStatementFormat(s string) (StatementFormat, error) {
	for _, f := range Generations() {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown statement format %q", s)
}

// MonthYear is a reporting period.
type MonthYear struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// IsZero reports whether the period is unset.
func (m MonthYear) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String renders the period as YYYY-MM, or an empty string when unset.
func (m MonthYear) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthYearOf returns the period containing t.
func MonthYearOf(t time.Time) MonthYear {
	return MonthYear{Year: t.Year(), Month: t.Month()}
}

// ParseMonthYear accepts "2024-12", "12/2024" and "2024/12".
func ParseMonthYear(s string) (MonthYear, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MonthYear{}, fmt.Errorf("empty period")
	}

	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return MonthYear{}, fmt.Errorf("invalid period %q", s)
	}

	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return MonthYear{}, fmt.Errorf("invalid period %q", s)
	}

	year, month := a, b
	if len(parts[0]) <= 2 {
		year, month = b, a
	}
	if month < 1 || month > 12 || year < 1900 || year > 9999 {
		return MonthYear{}, fmt.Errorf("period out of range %q", s)
	}
	return MonthYear{Year: year, Month: time.Month(month)}, nil
}

// Page is the ordered text lines of one statement page.
type Page struct {
	Lines []string `json:"lines"`
}

// RawDocument is the extracted text of a statement, as produced by the
// text-extraction collaborator. It is never mutated by the parser.
type RawDocument struct {
	Pages      []Page     `json:"pages"`
	Holder     string     `json:"holder"`
	PeriodHint *MonthYear `json:"period_hint,omitempty"`
	Source     string     `json:"source,omitempty"` // file name or upload label, informational only

	// FormatHint, when set, is used in place of format detection.
	FormatHint *StatementFormat `json:"format_hint,omitempty"`
}

// NewRawDocumentFromText builds a document from one string per page.
func NewRawDocumentFromText(pages []string, holder string, period *MonthYear) RawDocument {
	doc := RawDocument{Holder: holder, PeriodHint: period}
	for _, text := range pages {
		doc.Pages = append(doc.Pages, PageFromText(text))
	}
	return doc
}

// PageFromText splits newline-delimited page text into lines.
func PageFromText(text string) Page {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return Page{}
	}
	return Page{Lines: strings.Split(text, "\n")}
}

// LineCount returns the total number of lines across all pages.
func (d RawDocument) LineCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Lines)
	}
	return n
}

// EquityRecord is one validated holding line.
type EquityRecord struct {
	Description string          `json:"description"`
	Ticker      string          `json:"ticker"`
	Quantity    float64         `json:"quantity"`
	Price       float64         `json:"price"`
	MarketValue float64         `json:"market_value"`
	Period      MonthYear       `json:"period"`
	Holder      string          `json:"holder"`
	Format      StatementFormat `json:"format"`
}

// DividendRecord is one validated dividend event. WithholdingTax is always a
// non-negative magnitude and NetAmount is always GrossAmount - WithholdingTax.
type DividendRecord struct {
	Description    string          `json:"description"`
	Ticker         string          `json:"ticker"`
	TradeDate      time.Time       `json:"trade_date"`
	GrossAmount    float64         `json:"gross_amount"`
	WithholdingTax float64         `json:"withholding_tax"`
	NetAmount      float64         `json:"net_amount"`
	Period         MonthYear       `json:"period"`
	Holder         string          `json:"holder"`
	Format         StatementFormat `json:"format"`
}

// Attempt records one grammar generation tried for a document.
type Attempt struct {
	Format    StatementFormat `json:"format"`
	Equities  int             `json:"equities"`
	Dividends int             `json:"dividends"`
	Rejected  int             `json:"rejected"`
	Err       string          `json:"error,omitempty"`
}

// ParseOutcome is the result of parsing one document. Values are read-only
// once returned.
type ParseOutcome struct {
	Equities          []EquityRecord   `json:"equities"`
	Dividends         []DividendRecord `json:"dividends"`
	FormatUsed        StatementFormat  `json:"format_used"`
	FallbackTriggered bool             `json:"fallback_triggered"`
	Period            MonthYear        `json:"period"`
	Attempts          []Attempt        `json:"attempts,omitempty"`
}

// Empty reports whether no records were produced.
func (o ParseOutcome) Empty() bool {
	return len(o.Equities) == 0 && len(o.Dividends) == 0
}

// StoredOutcome is a persisted ParseOutcome.
type StoredOutcome struct {
	ID          string       `json:"id"`
	Fingerprint string       `json:"fingerprint"`
	Holder      string       `json:"holder"`
	Source      string       `json:"source,omitempty"`
	Outcome     ParseOutcome `json:"outcome"`
	ParsedAt    time.Time    `json:"parsed_at"`
}
