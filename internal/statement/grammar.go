package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/extrato/internal/models"
)

type recordKind int

const (
	kindEquity recordKind = iota + 1
	kindDividend
	// kindOther marks sections and activity rows that are recognised only so
	// they can close whatever came before them.
	kindOther
)

func (k recordKind) String() string {
	switch k {
	case kindEquity:
		return "equity"
	case kindDividend:
		return "dividend"
	default:
		return "other"
	}
}

// section describes one delimited region of a statement.
type section struct {
	name              string
	kind              recordKind
	headers           []*regexp.Regexp // matched against folded text
	terminators       []*regexp.Regexp // matched against normalized text
	requireTerminator bool
}

func (s *section) isHeader(folded string) bool {
	return matchAny(s.headers, folded)
}

func (s *section) isTerminator(line string) bool {
	return matchAny(s.terminators, line)
}

// grammar is the declarative description of one statement generation.
// Everything the assembler and builders need to know about a layout lives
// here; the algorithms themselves are shared.
type grammar struct {
	format models.StatementFormat

	// signature headers identify the generation during detection (folded text)
	signature []*regexp.Regexp

	sections []*section
	noise    []*regexp.Regexp

	// equityRow captures desc, qty, price, value and optionally symbol
	equityRow *regexp.Regexp

	// dividendStart captures date, rest and optionally type
	dividendStart *regexp.Regexp
	// dividendTypes is the folded allow-list for the type group; rows with
	// any other type are activity the parser does not report
	dividendTypes map[string]bool
	// dividendColumns is how many trailing amount columns a dividend row
	// carries, in the fixed order gross, tax, net
	dividendColumns int

	withholding []*regexp.Regexp

	dateLayouts []string

	// periods capture month and year of the statement period
	periods []*regexp.Regexp
}

// sectionFor returns the section whose header matches the folded line.
func (g *grammar) sectionFor(folded string) *section {
	for _, s := range g.sections {
		if s.isHeader(folded) {
			return s
		}
	}
	return nil
}

func (g *grammar) isNoise(line string) bool {
	return matchAny(g.noise, line)
}

// amountColumns splits the trailing dividend amounts off tokens. A tabular
// grammar takes them only when every column is present, so a number that ends
// a description is never read as the gross.
func (g *grammar) amountColumns(tokens []string) (rest []string, amounts []string) {
	rest, amounts = splitTrailingAmounts(tokens, g.dividendColumns)
	if g.dividendColumns > 1 && len(amounts) < g.dividendColumns {
		return tokens, nil
	}
	return rest, amounts
}

// withholdingAt returns the byte offset of the first withholding marker in line.
func (g *grammar) withholdingAt(line string) (int, bool) {
	best := -1
	for _, re := range g.withholding {
		loc := re.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		if best < 0 || loc[2] < best {
			best = loc[2]
		}
	}
	return best, best >= 0
}

func (g *grammar) isDividendType(t string) bool {
	if len(g.dividendTypes) == 0 {
		return true
	}
	return g.dividendTypes[normalizeLine(foldKey(t))]
}

func (g *grammar) parseDate(s string) (time.Time, bool) {
	for _, layout := range g.dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// matchPeriod extracts the statement period from a line, if it carries one.
func (g *grammar) matchPeriod(line string) (models.MonthYear, bool) {
	for _, re := range g.periods {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		groups := namedGroups(re, m)
		month, ok := parseMonth(groups["month"])
		if !ok {
			continue
		}
		year, err := strconv.Atoi(groups["year"])
		if err != nil {
			continue
		}
		if year < 100 {
			year += 2000
		}
		return models.MonthYear{Year: year, Month: month}, true
	}
	return models.MonthYear{}, false
}

var monthNames = map[string]time.Month{
	"JAN": time.January, "JANUARY": time.January, "JANEIRO": time.January,
	"FEB": time.February, "FEBRUARY": time.February, "FEV": time.February, "FEVEREIRO": time.February,
	"MAR": time.March, "MARCH": time.March, "MARCO": time.March,
	"APR": time.April, "APRIL": time.April, "ABR": time.April, "ABRIL": time.April,
	"MAY": time.May, "MAI": time.May, "MAIO": time.May,
	"JUN": time.June, "JUNE": time.June, "JUNHO": time.June,
	"JUL": time.July, "JULY": time.July, "JULHO": time.July,
	"AUG": time.August, "AUGUST": time.August, "AGO": time.August, "AGOSTO": time.August,
	"SEP": time.September, "SEPT": time.September, "SEPTEMBER": time.September, "SET": time.September, "SETEMBRO": time.September,
	"OCT": time.October, "OCTOBER": time.October, "OUT": time.October, "OUTUBRO": time.October,
	"NOV": time.November, "NOVEMBER": time.November, "NOVEMBRO": time.November,
	"DEC": time.December, "DECEMBER": time.December, "DEZ": time.December, "DEZEMBRO": time.December,
}

func parseMonth(s string) (time.Month, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	m, ok := monthNames[foldKey(s)]
	return m, ok
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			out[name] = match[i]
		}
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// header compiles a folded section header, allowing a "(CONTINUED)" suffix.
func header(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^` + pattern + `(?:\s*\(CONTINUED\))?$`)
}

// marker compiles a case-insensitive withholding marker bounded by non-letters.
func marker(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\pL])(` + regexp.QuoteMeta(phrase) + `)(?:$|[^\pL])`)
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func headers(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = header(p)
	}
	return out
}

func markers(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		out[i] = marker(p)
	}
	return out
}

// num matches one printed amount token.
const num = `[-(]?(?:US\$|R\$|\$)?\d[\d.,]*\)?-?`

var modernGrammar = &grammar{
	format: models.FormatModernMultiLine,
	sections: []*section{
		{
			name:        "equities",
			kind:        kindEquity,
			headers:     headers(`EQUITIES`, `EQUITIES / OPTIONS`, `PORTFOLIO HOLDINGS`),
			terminators: compileAll(`(?i)^total\s+(equities|portfolio holdings)\b`),
		},
		{
			name:    "activity",
			kind:    kindDividend,
			headers: headers(`ACCOUNT ACTIVITY`, `DIVIDENDS AND INTEREST`, `DIVIDENDS AND DISTRIBUTIONS`, `INCOME AND DISTRIBUTION ACTIVITY`),
			terminators: compileAll(
				`(?i)^total\s+(account activity|dividends|income|activity)\b`,
				`(?i)^closing balance\b`,
			),
		},
		{
			name:    "other holdings",
			kind:    kindOther,
			headers: headers(`FIXED INCOME`, `CASH AND CASH EQUIVALENTS`, `OPTIONS`, `OPEN ORDERS`),
		},
	},
	noise: compileAll(
		`(?i)^page\s+\d+(\s+of\s+\d+)?$`,
		`(?i)^account\s+(number|no\.?|#)`,
		`(?i)^statement period\b`,
		`(?i)^description\s+(acct|account|quantity)\b`,
		`(?i)^(activity|transaction)?\s*type\s+date\b`,
		`(?i)^cusip\b`,
		`(?i)^\(?continued\)?$`,
		`^[-=_*]{3,}$`,
	),
	equityRow: regexp.MustCompile(`^(?P<desc>.+?)\s+(?P<acct>[CM])\s+(?P<qty>` + num + `)\s+(?P<price>` + num + `)\s+(?P<value>` + num + `)(?:\s+(?P<income>` + num + `))?(?:\s+(?P<yield>\d[\d.,]*%))?$`),
	dividendStart: regexp.MustCompile(`^(?P<type>[A-Z][A-Z/ ]*?)\s+(?P<date>\d{1,2}/\d{1,2}/\d{2,4})(?:\s+[CM])?(?:\s+(?P<rest>.*))?$`),
	dividendTypes: toSet(
		"DIVIDEND", "QUALIFIED DIVIDEND", "ORDINARY DIVIDEND", "FOREIGN DIVIDEND",
		"CASH DIV", "CASH DIVIDEND", "EVENT",
	),
	dividendColumns: 1,
	withholding:     markers("NRA TAX", "NRA WITHHOLDING", "W/H", "WITHHOLDING", "FOREIGN TAX", "TAX WITHHELD"),
	dateLayouts:     []string{"1/2/06", "1/2/2006"},
	periods: compileAll(
		`(?i)statement period:?\s+\pL+\s+\d{1,2},?\s+\d{4}\s*(?:-|to|through)\s*(?P<month>\pL+)\s+\d{1,2},?\s+(?P<year>\d{4})`,
		`(?i)statement period:?\s+\d{1,2}/\d{1,2}/\d{2,4}\s*(?:-|to|through)\s*(?P<month>\d{1,2})/\d{1,2}/(?P<year>\d{2,4})`,
		`(?i)statement period:?\s+(?P<month>\pL+)\s+(?:\d{1,2},?\s+)?(?P<year>\d{4})`,
	),
}

var sectionedGrammar = &grammar{
	format:    models.FormatSectionedColumnar,
	signature: headers(`EQUITY HOLDINGS`),
	sections: []*section{
		{
			name:              "equity holdings",
			kind:              kindEquity,
			headers:           headers(`EQUITY HOLDINGS`),
			terminators:       compileAll(`(?i)^total\s+equity\s+holdings\b`),
			requireTerminator: true,
		},
		{
			name:        "dividends received",
			kind:        kindDividend,
			headers:     headers(`DIVIDENDS RECEIVED`, `DIVIDEND INCOME`),
			terminators: compileAll(`(?i)^total\s+dividends\b`),
		},
	},
	noise: compileAll(
		`(?i)^page\s+\d+(\s+of\s+\d+)?$`,
		`(?i)^symbol\s+description\b`,
		`(?i)^(pay\s+)?date\s+description\b`,
		`(?i)^account\b`,
		`(?i)^period ending\b`,
		`(?i)^\(?continued\)?$`,
		`^[-=_*]{3,}$`,
	),
	equityRow:       regexp.MustCompile(`^(?P<symbol>[A-Z][A-Z0-9.]{0,7})\s+(?P<desc>.+?)\s+(?P<qty>` + num + `)\s+(?P<price>` + num + `)\s+(?P<value>` + num + `)$`),
	dividendStart:   regexp.MustCompile(`^(?P<date>\d{1,2}/\d{1,2}/\d{4})\s+(?P<rest>.+)$`),
	dividendColumns: 3,
	withholding:     markers("WITHHOLDING", "TAX WITHHELD", "W/H", "FOREIGN TAX"),
	dateLayouts:     []string{"1/2/2006"},
	periods: compileAll(
		`(?i)period ending:?\s+(?P<month>\d{1,2})/\d{1,2}/(?P<year>\d{4})`,
	),
}

var legacyGrammar = &grammar{
	format:    models.FormatLegacyTabular,
	signature: headers(`RESUMO DA CARTEIRA`, `PORTFOLIO SUMMARY`),
	sections: []*section{
		{
			name:        "posicao em acoes",
			kind:        kindEquity,
			headers:     headers(`POSICAO (?:EM|DE) ACOES`, `EQUITY POSITIONS`),
			terminators: compileAll(`(?i)^total\b`),
		},
		{
			name:        "proventos",
			kind:        kindDividend,
			headers:     headers(`PROVENTOS(?: RECEBIDOS| EM DINHEIRO)?`, `DIVIDENDOS RECEBIDOS`),
			terminators: compileAll(`(?i)^total\b`),
		},
	},
	noise: compileAll(
		`(?i)^p[aá]gina\s+\d+(\s+de\s+\d+)?$`,
		`(?i)^(ativo|asset)\s+(quantidade|qtd|quantity)\b`,
		`(?i)^(data|date)\s+(tipo|evento|type|descri)`,
		`(?i)^(conta|cliente|titular)\b`,
		`^[-=_*]{3,}$`,
	),
	equityRow:     regexp.MustCompile(`^(?P<desc>.+?)\s+(?P<qty>` + num + `)\s+(?P<price>` + num + `)\s+(?P<value>` + num + `)$`),
	dividendStart: regexp.MustCompile(`(?i)^(?P<date>\d{1,2}/\d{1,2}/\d{4})\s+(?P<type>JUROS S/ ?CAPITAL|\pL+)(?:\s+(?P<rest>.*))?$`),
	dividendTypes: toSet(
		"DIVIDENDO", "DIVIDENDOS", "DIVIDEND", "RENDIMENTO", "RENDIMENTOS",
		"JCP", "JUROS S/CAPITAL", "JUROS S/ CAPITAL",
	),
	dividendColumns: 1,
	withholding:     markers("IRRF", "IMPOSTO RETIDO", "IR RETIDO", "IMPOSTO DE RENDA", "WITHHOLDING"),
	dateLayouts:     []string{"2/1/2006"},
	periods: compileAll(
		`(?i)per[ií]odo:?\s+(?P<month>\d{1,2})/(?P<year>\d{4})`,
		`(?i)m[eê]s de refer[eê]ncia:?\s+(?P<month>\d{1,2})/(?P<year>\d{4})`,
		`(?i)refer[eê]ncia:?\s+(?P<month>\pL+)\s+(?:de\s+)?(?P<year>\d{4})`,
	),
}

// grammarFor returns the grammar of a format. Unknown formats get the
// modern grammar, which is also the detection default.
func grammarFor(f models.StatementFormat) *grammar {
	switch f {
	case models.FormatSectionedColumnar:
		return sectionedGrammar
	case models.FormatLegacyTabular:
		return legacyGrammar
	default:
		return modernGrammar
	}
}

// fallbackChain returns the detected format followed by every older generation.
func fallbackChain(detected models.StatementFormat) []models.StatementFormat {
	gens := models.Generations()
	for i, f := range gens {
		if f == detected {
			return gens[i:]
		}
	}
	return gens
}

// foldedLines is a convenience for matching a page against folded patterns.
func foldedLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = normalizeLine(l); l != "" {
			out = append(out, foldKey(l))
		}
	}
	return out
}

// hasSignature reports whether any folded line carries one of the patterns.
func hasSignature(patterns []*regexp.Regexp, folded []string) bool {
	for _, l := range folded {
		if matchAny(patterns, strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}
