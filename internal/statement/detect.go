package statement

import (
	"github.com/bobmcallan/extrato/internal/models"
)

// Detect guesses the generation of a statement from its leading pages.
// Only opts.DetectPages pages are inspected. ModernMultiLine is the default
// when no older signature is present; detection never fails.
func Detect(doc models.RawDocument, opts Options) models.StatementFormat {
	opts = opts.withDefaults()

	n := min(len(doc.Pages), opts.DetectPages)
	if n == 0 {
		return models.FormatModernMultiLine
	}
	pages := make([][]string, n)
	for i := 0; i < n; i++ {
		pages[i] = foldedLines(doc.Pages[i].Lines)
	}

	// legacy: portfolio summary on page 1 or 2 of a short document
	if len(doc.Pages) <= opts.ShortDocumentPages {
		for i := 0; i < min(n, 2); i++ {
			if hasSignature(legacyGrammar.signature, pages[i]) {
				return models.FormatLegacyTabular
			}
		}
	}

	// sectioned: holdings header pushed off the first page by the summary
	if !hasSignature(sectionedGrammar.signature, pages[0]) {
		for i := 1; i < n; i++ {
			if hasSignature(sectionedGrammar.signature, pages[i]) {
				return models.FormatSectionedColumnar
			}
		}
	}

	return models.FormatModernMultiLine
}
