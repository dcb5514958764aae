package server

import (
	"net/http"

	"github.com/bobmcallan/extrato/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)

	// Statements
	mux.HandleFunc("/api/statements/parse", s.handleStatementParse)
	mux.HandleFunc("/api/statements/batch", s.handleStatementBatch)
	mux.HandleFunc("/api/statements/pdf", s.handleStatementPDF)
	mux.HandleFunc("/api/statements/detect", s.handleStatementDetect)
	mux.HandleFunc("/api/statements/", s.handleStatementGet)
	mux.HandleFunc("/api/statements", s.handleStatementList)

	// Ticker resolution
	mux.HandleFunc("/api/phrases", s.handlePhrases)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.CurrentBuild())
}

// handleConfig reports the effective, non-secret settings.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	cfg := s.app.Config
	opts := s.app.Parser.Options()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":         cfg.Environment,
		"storage":             common.StorageDescription(cfg),
		"reconcile_tolerance": opts.ReconcileTolerance,
		"fuzzy_threshold":     opts.FuzzyThreshold,
		"detect_pages":        opts.DetectPages,
		"short_document":      opts.ShortDocumentPages,
		"phrase_map_version":  opts.Phrases.Version,
		"workers":             cfg.Service.Workers,
		"max_pdf_bytes":       cfg.Service.MaxPDFBytes,
		"max_pages":           cfg.Service.MaxPages,
		"logging_level":       cfg.Logging.Level,
		"uptime":              s.uptime(),
	})
}
