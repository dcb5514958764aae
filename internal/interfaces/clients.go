package interfaces

import (
	"io"

	"github.com/bobmcallan/extrato/internal/models"
)

// TextExtractor turns a statement file into ordered page text
type TextExtractor interface {
	// Extract reads a PDF from r and returns one page per PDF page
	Extract(r io.ReaderAt, size int64) ([]models.Page, error)

	// ExtractFile reads a PDF from disk
	ExtractFile(path string) ([]models.Page, error)
}
