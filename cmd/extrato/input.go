package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
)

// pageBreak separates pages in plain text statements, as written by
// pdftotext.
const pageBreak = "\f"

// loadDocument reads a statement from disk. PDFs go through the extractor;
// anything else is read as UTF-8 text with form feeds between pages.
func loadDocument(path string, extractor interfaces.TextExtractor, holder string, period *models.MonthYear) (models.RawDocument, error) {
	var doc models.RawDocument

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if extractor == nil {
			return doc, fmt.Errorf("%s: PDF extraction is not configured", path)
		}
		pages, err := extractor.ExtractFile(path)
		if err != nil {
			return doc, fmt.Errorf("%s: %w", path, err)
		}
		doc = models.RawDocument{Pages: pages, Holder: holder, PeriodHint: period}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return doc, fmt.Errorf("failed to read %s: %w", path, err)
		}
		text := strings.TrimSuffix(string(data), pageBreak)
		doc = models.NewRawDocumentFromText(strings.Split(text, pageBreak), holder, period)
	}

	doc.Source = filepath.Base(path)
	return doc, nil
}

// parsePeriod converts the -period flag, which may be empty.
func parsePeriod(s string) (*models.MonthYear, error) {
	if s == "" {
		return nil, nil
	}
	p, err := models.ParseMonthYear(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
