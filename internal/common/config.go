package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Extrato
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Parser      ParserConfig  `toml:"parser"`
	Service     ServiceConfig `toml:"service"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"` // parse requests per second, 0 disables limiting
	RateBurst int     `toml:"rate_burst"`
}

// StorageConfig selects and configures the outcome store.
type StorageConfig struct {
	Backend   string `toml:"backend"` // "surrealdb", "file" or "none"
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Path      string `toml:"path"` // file backend root
}

// ParserConfig holds the tunables of the statement pipeline
type ParserConfig struct {
	ReconcileTolerance float64 `toml:"reconcile_tolerance"`
	FuzzyThreshold     float64 `toml:"fuzzy_threshold"`
	DetectPages        int     `toml:"detect_pages"`
	ShortDocumentPages int     `toml:"short_document_pages"`
	PhraseMap          string  `toml:"phrase_map"` // optional TOML phrase table, built-in table when empty
}

// ServiceConfig holds statement service configuration
type ServiceConfig struct {
	Workers     int    `toml:"workers"`
	CacheTTL    string `toml:"cache_ttl"`
	MaxPDFBytes int64  `toml:"max_pdf_bytes"`
	MaxPages    int    `toml:"max_pages"`
}

// GetCacheTTL parses and returns the outcome cache TTL
func (c *ServiceConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"` // "console" or "json"
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// HasOutput reports whether name is one of the configured outputs
func (c *LoggingConfig) HasOutput(name string) bool {
	for _, o := range c.Outputs {
		if strings.EqualFold(strings.TrimSpace(o), name) {
			return true
		}
	}
	return false
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 5,
			RateBurst: 10,
		},
		Storage: StorageConfig{
			Backend:   "file",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "extrato",
			Database:  "extrato",
			Username:  "root",
			Password:  "root",
			Path:      "data",
		},
		Parser: ParserConfig{
			ReconcileTolerance: 0.10,
			FuzzyThreshold:     0.6,
			DetectPages:        3,
			ShortDocumentPages: 4,
		},
		Service: ServiceConfig{
			Workers:     4,
			CacheTTL:    "1h",
			MaxPDFBytes: 32 << 20,
			MaxPages:    200,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Outputs:    []string{"console"},
			FilePath:   "./logs/extrato.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EXTRATO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("EXTRATO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("EXTRATO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("EXTRATO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("EXTRATO_STORAGE_BACKEND"); v != "" {
		config.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("EXTRATO_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("EXTRATO_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("EXTRATO_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	if path := os.Getenv("EXTRATO_DATA_PATH"); path != "" {
		config.Storage.Path = path
		config.Logging.FilePath = filepath.Join(path, "logs", "extrato.log")
	}

	if v := os.Getenv("EXTRATO_PHRASE_MAP"); v != "" {
		config.Parser.PhraseMap = v
	}

	if v := os.Getenv("EXTRATO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Service.Workers = n
		}
	}
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "surrealdb", "file", "none", "":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Parser.ReconcileTolerance < 0 {
		return fmt.Errorf("parser.reconcile_tolerance must not be negative")
	}
	if c.Parser.FuzzyThreshold < 0 || c.Parser.FuzzyThreshold > 1 {
		return fmt.Errorf("parser.fuzzy_threshold must be between 0 and 1")
	}
	if c.Parser.DetectPages < 1 {
		return fmt.Errorf("parser.detect_pages must be at least 1")
	}
	if c.Service.Workers < 1 {
		c.Service.Workers = 1
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
