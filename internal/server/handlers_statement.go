package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/extrato/internal/clients/pdftext"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
	statementsvc "github.com/bobmcallan/extrato/internal/services/statement"
)

// parseRequest is the JSON body of POST /api/statements/parse and /detect.
// Pages hold newline separated page text in page order.
type parseRequest struct {
	Holder       string   `json:"holder"`
	Period       string   `json:"period,omitempty"`
	Source       string   `json:"source,omitempty"`
	Pages        []string `json:"pages"`
	KnownTickers []string `json:"known_tickers,omitempty"`
}

func (p parseRequest) document() (models.RawDocument, error) {
	var hint *models.MonthYear
	if p.Period != "" {
		period, err := models.ParseMonthYear(p.Period)
		if err != nil {
			return models.RawDocument{}, err
		}
		hint = &period
	}
	doc := models.NewRawDocumentFromText(p.Pages, p.Holder, hint)
	doc.Source = p.Source
	return doc, nil
}

type batchRequest struct {
	Documents    []parseRequest `json:"documents"`
	KnownTickers []string       `json:"known_tickers,omitempty"`
}

func (s *Server) handleStatementParse(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req parseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	doc, err := req.document()
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_period")
		return
	}

	out, err := s.app.StatementService.Parse(r.Context(), doc, req.KnownTickers)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatementBatch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req batchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		WriteError(w, http.StatusBadRequest, "documents is required")
		return
	}

	docs := make([]models.RawDocument, 0, len(req.Documents))
	for i, d := range req.Documents {
		doc, err := d.document()
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, fmt.Sprintf("document %d: %v", i, err), "invalid_period")
			return
		}
		docs = append(docs, doc)
	}

	outs, err := s.app.StatementService.ParseBatch(r.Context(), docs, req.KnownTickers)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"outcomes": outs})
}

// handleStatementPDF parses a raw PDF body. Query: holder, period, source,
// known (comma separated tickers).
func (s *Server) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	q := r.URL.Query()
	meta := interfaces.DocumentMeta{
		Holder: q.Get("holder"),
		Source: q.Get("source"),
	}
	if p := q.Get("period"); p != "" {
		period, err := models.ParseMonthYear(p)
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_period")
			return
		}
		meta.PeriodHint = &period
	}

	body := io.Reader(r.Body)
	if limit := s.app.Config.Service.MaxPDFBytes; limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorWithCode(w, http.StatusRequestEntityTooLarge, "PDF exceeds size limit", "too_large")
			return
		}
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	out, err := s.app.StatementService.ParsePDF(r.Context(), bytes.NewReader(data), int64(len(data)), meta, splitList(q.Get("known")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatementDetect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req parseRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	doc, err := req.document()
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_period")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"format": s.app.StatementService.Detect(r.Context(), doc),
		"pages":  len(doc.Pages),
	})
}

func (s *Server) handleStatementGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := PathParam(r, "/api/statements/", "")
	if id == "" {
		s.handleStatementList(w, r)
		return
	}

	out, err := s.app.StatementService.GetOutcome(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatementList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	outs, err := s.app.StatementService.ListOutcomes(r.Context(), strings.TrimSpace(r.URL.Query().Get("holder")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if outs == nil {
		outs = []*models.StoredOutcome{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"outcomes": outs,
		"count":    len(outs),
	})
}

func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Parser.Options().Phrases)
}

// writeServiceError maps service and collaborator errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interfaces.ErrOutcomeNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, "Outcome not found", "not_found")
	case errors.Is(err, statementsvc.ErrDocumentTooLarge), errors.Is(err, pdftext.ErrTooManyPages):
		WriteErrorWithCode(w, http.StatusRequestEntityTooLarge, err.Error(), "too_large")
	case errors.Is(err, statementsvc.ErrUnreadablePDF):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), "unreadable_pdf")
	default:
		s.logger.Error().
			Str("path", r.URL.Path).
			Str("correlation_id", correlationID(r)).
			Err(err).
			Msg("Statement request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) uptime() string {
	return time.Since(s.app.StartupTime).Round(time.Second).String()
}
