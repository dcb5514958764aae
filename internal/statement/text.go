package statement

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// invisible runes that survive PDF text extraction and break token matching.
var invisible = map[rune]bool{
	'\u00ad': true, // soft hyphen
	'\u200b': true,
	'\u200c': true,
	'\u200d': true,
	'\u200e': true,
	'\u200f': true,
	'\u2060': true,
	'\ufeff': true,
}

// NormalizeLine returns the line in NFC form with invisible characters
// removed and all whitespace runs collapsed to a single space.
func NormalizeLine(s string) string {
	return normalizeLine(s)
}

func normalizeLine(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if invisible[r] {
			continue
		}
		if unicode.IsSpace(r) || r == '\u00a0' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// foldKey upper-cases s and strips diacritics so that "Posição em Ações"
// and "POSICAO EM ACOES" compare equal.
func foldKey(s string) string {
	// transformers carry state, so build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// tokenize splits a description into tokens on whitespace and list punctuation.
// Slashes, dots, ampersands and hyphens stay inside tokens ("W/H", "BRK.B", "S&P").
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case ',', ';', ':', '(', ')', '[', ']', '"', '*':
			return true
		}
		return false
	})
}

// splitTrailingAmounts removes up to max trailing amount tokens from tokens.
// The returned amounts are in left-to-right order. A bare currency marker left
// directly in front of the amounts is dropped as well.
func splitTrailingAmounts(tokens []string, max int) (rest []string, amounts []string) {
	end := len(tokens)
	start := end
	for start > 0 && end-start < max {
		if _, ok := ParseAmount(tokens[start-1]); !ok {
			break
		}
		start--
	}
	if start == end {
		return tokens, nil
	}
	rest = tokens[:start]
	if len(rest) > 0 && isCurrencyMarker(rest[len(rest)-1]) {
		rest = rest[:len(rest)-1]
	}
	return rest, tokens[start:end]
}

// joinFragments joins description fragments with single spaces.
func joinFragments(fragments []string) string {
	var parts []string
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return normalizeLine(strings.Join(parts, " "))
}
