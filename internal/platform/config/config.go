// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28

	// DefaultIngestWorkers bounds concurrent decodes per ingest.
	DefaultIngestWorkers = 4

	DefaultExtractorBinary        = "pdftotext"
	DefaultExtractorTimeout       = 10 * time.Second
	DefaultExtractorMaxFailures   = 3
	DefaultExtractorCooldown      = 30 * time.Second
	DefaultExtractorHalfOpenLimit = 1
)

// DefaultSources are the quote files loaded at startup.
var DefaultSources = []string{
	"DogQuotes/DogQuotesTXT.txt",
	"DogQuotes/DogQuotesDOCX.docx",
	"DogQuotes/DogQuotesPDF.pdf",
	"DogQuotes/DogQuotesCSV.csv",
}

// envPrefix marks environment overrides. The first underscore after the
// prefix separates the section; deeper levels use a double underscore
// (APP_LOG__FILE__ENABLED sets log.file.enabled).
const envPrefix = "APP_"

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Ingest    IngestConfig    `koanf:"ingest"    validate:"required"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// IngestConfig controls where quote files come from and how they are decoded.
type IngestConfig struct {
	// DataDir is the root every ingest path is resolved against.
	DataDir   string          `koanf:"data_dir"  validate:"required"`
	Sources   []string        `koanf:"sources"   validate:"dive,required"`
	Workers   int             `koanf:"workers"   validate:"required,min=1,max=64"`
	Extractor ExtractorConfig `koanf:"extractor" validate:"required"`
}

// ExtractorConfig configures the external pdf text tool.
type ExtractorConfig struct {
	Binary         string               `koanf:"binary"          validate:"required"`
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
}

// CircuitBreakerConfig guards repeated launches of a missing or hanging tool.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-ingest",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/quote-ingest.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quote-ingest",
		"telemetry.sampling_rate": 1.0,

		"ingest.data_dir":                                  "./_data",
		"ingest.sources":                                   DefaultSources,
		"ingest.workers":                                   DefaultIngestWorkers,
		"ingest.extractor.binary":                          DefaultExtractorBinary,
		"ingest.extractor.timeout":                         DefaultExtractorTimeout.String(),
		"ingest.extractor.circuit_breaker.max_failures":    DefaultExtractorMaxFailures,
		"ingest.extractor.circuit_breaker.timeout":         DefaultExtractorCooldown.String(),
		"ingest.extractor.circuit_breaker.half_open_limit": DefaultExtractorHalfOpenLimit,
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if err := loadFileIfExists(k, "configs/base.yaml"); err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		if err := loadFileIfExists(k, fmt.Sprintf("configs/%s.yaml", profile)); err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_INGEST_DATA_DIR to ingest.data_dir and
// APP_INGEST__EXTRACTOR__BINARY to ingest.extractor.binary. Comma separated
// values become lists.
func envKey(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))

	if strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", ".")
	} else {
		key = strings.Replace(key, "_", ".", 1)
	}

	if strings.Contains(value, ",") {
		return key, strings.Split(value, ",")
	}

	return key, value
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
