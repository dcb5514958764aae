package statement

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PhraseEntry maps a description phrase to a ticker.
type PhraseEntry struct {
	Phrase string `toml:"phrase" json:"phrase"`
	Ticker string `toml:"ticker" json:"ticker"`
}

// PhraseMap is an ordered, versioned list of phrase entries. Order matters:
// the first entry whose phrase occurs in a description wins, so specific
// phrases must precede generic ones.
type PhraseMap struct {
	Version string        `toml:"version" json:"version"`
	Entries []PhraseEntry `toml:"entry" json:"entries"`
}

// DefaultPhraseMapVersion identifies the built-in phrase table.
const DefaultPhraseMapVersion = "2025.1"

var defaultPhrases = []PhraseEntry{
	{"ISHARES CORE S&P 500", "IVV"},
	{"ISHARES CORE S&P MID-CAP", "IJH"},
	{"ISHARES CORE S&P SMALL-CAP", "IJR"},
	{"ISHARES CORE S&P TOTAL U.S. STOCK", "ITOT"},
	{"ISHARES CORE MSCI EMERGING", "IEMG"},
	{"ISHARES CORE MSCI EAFE", "IEFA"},
	{"ISHARES CORE MSCI TOTAL INTL", "IXUS"},
	{"ISHARES CORE U.S. AGGREGATE BOND", "AGG"},
	{"ISHARES 20+ YEAR TREASURY", "TLT"},
	{"ISHARES RUSSELL 2000", "IWM"},
	{"ISHARES MSCI BRAZIL", "EWZ"},
	{"SPDR PORTFOLIO S&P 500 HIGH DIV", "SPYD"},
	{"SPDR S&P 500", "SPY"},
	{"SPDR DOW JONES INDUSTRIAL", "DIA"},
	{"SPDR GOLD", "GLD"},
	{"INVESCO QQQ", "QQQ"},
	{"VANGUARD S&P 500", "VOO"},
	{"VANGUARD TOTAL STOCK MARKET", "VTI"},
	{"VANGUARD TOTAL STOCK MKT", "VTI"},
	{"VANGUARD TOTAL INTL STOCK", "VXUS"},
	{"VANGUARD TOTAL WORLD STOCK", "VT"},
	{"VANGUARD TOTAL BOND MARKET", "BND"},
	{"VANGUARD HIGH DIVIDEND YIELD", "VYM"},
	{"VANGUARD DIVIDEND APPRECIATION", "VIG"},
	{"VANGUARD REAL ESTATE", "VNQ"},
	{"SCHWAB US DIVIDEND EQUITY", "SCHD"},
	{"BERKSHIRE HATHAWAY INC CL B", "BRK.B"},
	{"ALPHABET INC CL C", "GOOG"},
	{"ALPHABET INC", "GOOGL"},
	{"TAIWAN SEMICONDUCTOR", "TSM"},
	{"ITAU UNIBANCO", "ITUB4"},
	{"PETROLEO BRASILEIRO", "PETR4"},
	{"BANCO DO BRASIL", "BBAS3"},
	{"VALE S.A.", "VALE3"},
}

// DefaultPhraseMap returns a copy of the built-in phrase table.
func DefaultPhraseMap() PhraseMap {
	entries := make([]PhraseEntry, len(defaultPhrases))
	copy(entries, defaultPhrases)
	return PhraseMap{Version: DefaultPhraseMapVersion, Entries: entries}
}

// LoadPhraseMap reads a TOML phrase table:
//
//	version = "2025.2"
//
//	[[entry]]
//	phrase = "ISHARES CORE S&P 500"
//	ticker = "IVV"
func LoadPhraseMap(path string) (PhraseMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PhraseMap{}, fmt.Errorf("failed to read phrase map %s: %w", path, err)
	}
	m, err := ParsePhraseMap(data)
	if err != nil {
		return PhraseMap{}, fmt.Errorf("failed to parse phrase map %s: %w", path, err)
	}
	return m, nil
}

// ParsePhraseMap decodes and validates a TOML phrase table.
func ParsePhraseMap(data []byte) (PhraseMap, error) {
	var m PhraseMap
	if err := toml.Unmarshal(data, &m); err != nil {
		return PhraseMap{}, err
	}
	if strings.TrimSpace(m.Version) == "" {
		return PhraseMap{}, fmt.Errorf("phrase map has no version")
	}
	for i, e := range m.Entries {
		if strings.TrimSpace(e.Phrase) == "" || strings.TrimSpace(e.Ticker) == "" {
			return PhraseMap{}, fmt.Errorf("entry %d: phrase and ticker are required", i+1)
		}
	}
	return m.normalized(), nil
}

// Lookup returns the ticker of the first entry whose phrase occurs in
// folded, which must already be accent-folded and upper-cased.
func (m PhraseMap) Lookup(folded string) (string, bool) {
	for _, e := range m.Entries {
		if strings.Contains(folded, e.Phrase) {
			return e.Ticker, true
		}
	}
	return "", false
}

func (m PhraseMap) normalized() PhraseMap {
	out := PhraseMap{Version: m.Version, Entries: make([]PhraseEntry, 0, len(m.Entries))}
	for _, e := range m.Entries {
		out.Entries = append(out.Entries, PhraseEntry{
			Phrase: normalizeLine(foldKey(e.Phrase)),
			Ticker: strings.ToUpper(strings.TrimSpace(e.Ticker)),
		})
	}
	return out
}
