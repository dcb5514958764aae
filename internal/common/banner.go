package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

var bannerArt = []string{
	` ███████ ██   ██ ████████ ██████   █████  ████████  ██████`,
	` ██       ██ ██     ██    ██   ██ ██   ██    ██    ██    ██`,
	` █████     ███      ██    ██████  ███████    ██    ██    ██`,
	` ██       ██ ██     ██    ██   ██ ██   ██    ██    ██    ██`,
	` ███████ ██   ██    ██    ██   ██ ██   ██    ██     ██████`,
}

// StorageDescription summarises the configured outcome store for display.
func StorageDescription(config *Config) string {
	switch config.Storage.Backend {
	case "surrealdb":
		return fmt.Sprintf("surrealdb %s (%s/%s)", config.Storage.Address, config.Storage.Namespace, config.Storage.Database)
	case "none":
		return "disabled"
	default:
		return "file " + config.Storage.Path
	}
}

// PrintBanner writes the startup banner to w.
func PrintBanner(w io.Writer, config *Config, logger *Logger) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	storage := StorageDescription(config)

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 64) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range bannerArt {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Brokerage Statement Parsing%s\n\n%s\n\n", textColor, banner.ColorReset, hr)

	phraseMap := config.Parser.PhraseMap
	if phraseMap == "" {
		phraseMap = "built-in"
	}
	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Service URL", serviceURL},
		{"Storage", storage},
		{"Phrase map", phraseMap},
		{"Workers", fmt.Sprintf("%d", config.Service.Workers)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("service_url", serviceURL).
		Str("storage", storage).
		Msg("Application started")
}

// PrintShutdownBanner writes the shutdown banner to w.
func PrintShutdownBanner(w io.Writer, logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  EXTRATO - SHUTTING DOWN%s\n", banner.ColorBold+banner.ColorWhite, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	logger.Info().Msg("Application shutting down")
}
