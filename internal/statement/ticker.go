package statement

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// TickerSet is a set of known ticker symbols. The zero value is an empty,
// read-only set.
type TickerSet map[string]struct{}

// NewTickerSet builds a set from the given symbols, upper-cased and trimmed.
func NewTickerSet(tickers ...string) TickerSet {
	s := make(TickerSet, len(tickers))
	for _, t := range tickers {
		s.Add(t)
	}
	return s
}

func (s TickerSet) Add(ticker string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker != "" {
		s[ticker] = struct{}{}
	}
}

func (s TickerSet) Has(ticker string) bool {
	_, ok := s[strings.ToUpper(strings.TrimSpace(ticker))]
	return ok
}

func (s TickerSet) Len() int {
	return len(s)
}

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (s TickerSet) Clone() TickerSet {
	c := make(TickerSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Sorted returns the symbols in lexical order.
func (s TickerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// maxTickerLen is the longest token accepted as an explicit symbol.
const maxTickerLen = 6

// stopwords are upper-case tokens that look like symbols but never are.
// They cover account-type codes, issuer boilerplate, fund vocabulary,
// transaction labels and Portuguese share-class and filler words.
var stopwords = toSet(
	// account type codes and class letters
	"A", "B", "C", "E", "M", "S",
	// filler
	"THE", "OF", "AND", "FOR", "TO", "IN", "AT", "BY", "ON",
	// issuer boilerplate
	"INC", "CORP", "CO", "COM", "LTD", "PLC", "LLC", "LP", "SA", "NV", "AG", "SE",
	"HLDG", "HLDGS", "GROUP", "CL", "CLASS", "SHS", "SH", "ORD", "NEW", "ADR", "ADS",
	"SPON", "SPONS", "REIT", "UNIT", "UNITS", "TR", "TRUST", "SHARES",
	// fund vocabulary
	"ETF", "ETN", "FUND", "FD", "INDEX", "IDX", "CORE", "TOTAL", "MARKET", "MKT",
	"STOCK", "STK", "BOND", "INTL", "US", "USA", "DIV", "DIVS", "YIELD", "GROWTH",
	"VALUE", "EQUITY", "EQTY", "CAP", "LARGE", "MID", "SMALL", "HIGH", "SECTOR",
	"SELECT", "SERIES", "GLOBAL", "WORLD", "EMERG", "EMRG", "MSCI", "FTSE", "DOW",
	"JONES", "NASDAQ", "SPDR", "SCHWAB", "TREAS", "YEAR", "YR",
	// transaction labels
	"DIVIDEND", "CASH", "TAX", "NRA", "WH", "QUALIF", "EVENT", "CREDIT", "DEBIT",
	"BUY", "SELL", "BOUGHT", "SOLD", "PAID", "PAY", "REC", "RECORD", "DATE", "RATE",
	"AMOUNT", "QTY", "PER", "SHR", "PCT", "REINV",
	// currencies
	"USD", "BRL", "EUR",
	// portuguese
	"DE", "DA", "DO", "DAS", "DOS", "EM", "PN", "PNA", "PNB", "UNT", "NM", "EJ",
	"ED", "EX", "CI", "FII", "BDR", "DR", "ACAO", "ACOES", "JUROS", "JCP", "IRRF",
	"IR", "RETIDO", "N1", "N2",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Resolver maps free-text security descriptions to ticker symbols.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	phrases   PhraseMap
	threshold float64
}

// NewResolver creates a resolver over the given phrase map. Fuzzy matches
// below threshold (0..1 normalized similarity) are discarded.
func NewResolver(phrases PhraseMap, threshold float64) *Resolver {
	return &Resolver{phrases: phrases.normalized(), threshold: threshold}
}

// Resolve returns the ticker for description, or false when no strategy
// produces one. Strategies run in order and the first hit wins:
//
//  1. an explicit symbol token, scanning from the end of the description
//  2. the first curated phrase contained in the description
//  3. the closest known ticker by edit distance, above the threshold
//  4. the only known ticker, when exactly one is known
func (r *Resolver) Resolve(description string, known TickerSet) (string, bool) {
	tokens := tokenize(description)

	for i := len(tokens) - 1; i >= 0; i-- {
		if isExplicitSymbol(tokens[i]) {
			return tokens[i], true
		}
	}

	if t, ok := r.phrases.Lookup(normalizeLine(foldKey(description))); ok {
		return t, true
	}

	if known.Len() > 0 {
		if t, ok := r.fuzzy(tokens, known); ok {
			return t, true
		}
	}

	if known.Len() == 1 {
		return known.Sorted()[0], true
	}
	return "", false
}

// b3Symbol matches exchange codes such as PETR4 or TAEE11.
var b3Symbol = regexp.MustCompile(`^[A-Z]{4}\d{1,2}$`)

// isExplicitSymbol reports whether tok is printed as a ticker: one to six
// ASCII capitals, or a B3 code, that is not a known non-symbol word.
func isExplicitSymbol(tok string) bool {
	if tok == "" || stopwords[tok] {
		return false
	}
	if b3Symbol.MatchString(tok) {
		return true
	}
	return len(tok) <= maxTickerLen && isLetters(tok)
}

func (r *Resolver) fuzzy(tokens []string, known TickerSet) (string, bool) {
	candidates := known.Sorted()
	best, bestScore := "", -1.0

	for i := len(tokens) - 1; i >= 0; i-- {
		tok := foldKey(tokens[i])
		if utf8.RuneCountInString(tok) < 2 || stopwords[tok] || !isLetters(tok) {
			continue
		}
		for _, c := range candidates {
			// strict comparison keeps the rightmost token, then the lexically smaller ticker
			if score := similarity(tok, c); score > bestScore {
				best, bestScore = c, score
			}
		}
	}

	if best == "" || bestScore < r.threshold {
		return "", false
	}
	return best, true
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), over runes.
func similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
