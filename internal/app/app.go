// Package app wires configuration, logging, storage and the statement
// service together for the server and CLI binaries.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/extrato/internal/clients/pdftext"
	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	statementsvc "github.com/bobmcallan/extrato/internal/services/statement"
	"github.com/bobmcallan/extrato/internal/statement"
	"github.com/bobmcallan/extrato/internal/storage"
)

// App holds the initialized pipeline, collaborators and service.
// It is shared by cmd/extrato-server and cmd/extrato.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Parser           *statement.Parser
	Extractor        interfaces.TextExtractor
	Store            interfaces.OutcomeStore // nil when persistence is disabled
	StatementService interfaces.StatementService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, EXTRATO_CONFIG,
// extrato.toml beside the binary, then config/extrato.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("EXTRATO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "extrato.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/extrato.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes everything.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	binDir := getBinaryDir()
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes the App from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	start := time.Now()

	opts, err := statement.OptionsFromConfig(config.Parser)
	if err != nil {
		return nil, fmt.Errorf("failed to load parser options: %w", err)
	}
	parser := statement.NewParser(opts, logger)

	store, err := storage.NewOutcomeStore(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	extractor := pdftext.NewExtractor(
		pdftext.WithLogger(logger),
		pdftext.WithMaxPages(config.Service.MaxPages),
	)

	service := statementsvc.NewService(parser, extractor, store, config.Service, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Parser:           parser,
		Extractor:        extractor,
		Store:            store,
		StatementService: service,
		StartupTime:      start,
	}

	logger.Info().
		Str("phrase_map", opts.Phrases.Version).
		Str("storage", common.StorageDescription(config)).
		Dur("startup", time.Since(start)).
		Msg("App initialized")

	return a, nil
}

// Close releases the outcome store.
func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close outcome store")
		}
		a.Store = nil
	}
}
