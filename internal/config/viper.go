// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"nossas-despesas/expense-import/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "EXPENSE_IMPORT"

// Prediction backends.
const (
	BackendHTTP   = "http"
	BackendGemini = "gemini"
)

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ImportConfig holds the defaults applied to imported drafts.
type ImportConfig struct {
	DefaultCategoryID int    `mapstructure:"default_category_id" yaml:"default_category_id"`
	SplitType         string `mapstructure:"split_type" yaml:"split_type"`
	PayerID           int    `mapstructure:"payer_id" yaml:"payer_id"`
	PartnerID         int    `mapstructure:"partner_id" yaml:"partner_id"`
	TwoDigitYearPivot int    `mapstructure:"two_digit_year_pivot" yaml:"two_digit_year_pivot"`
}

// PDFConfig configures the credit-card invoice parser and the text extractor.
type PDFConfig struct {
	SectionMarker         string `mapstructure:"section_marker" yaml:"section_marker"`
	DescriptionSeparator  string `mapstructure:"description_separator" yaml:"description_separator"`
	ExtractorCommand      string `mapstructure:"extractor_command" yaml:"extractor_command"`
	ExtractTimeoutSeconds int    `mapstructure:"extract_timeout_seconds" yaml:"extract_timeout_seconds"`
}

// InterConfig configures the generic Inter CSV parser.
type InterConfig struct {
	HeaderKeyword string `mapstructure:"header_keyword" yaml:"header_keyword"`
}

// ParsersConfig groups the per-parser settings.
type ParsersConfig struct {
	PDF   PDFConfig   `mapstructure:"pdf" yaml:"pdf"`
	Inter InterConfig `mapstructure:"inter" yaml:"inter"`
}

// PredictConfig configures category prediction.
type PredictConfig struct {
	Enabled           bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend           string `mapstructure:"backend" yaml:"backend"`
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	Path              string `mapstructure:"path" yaml:"path"`
	Token             string `mapstructure:"token" yaml:"-"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Model             string `mapstructure:"model" yaml:"model"`
	APIKey            string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
}

// APIConfig configures the expense persistence API client.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Token          string `mapstructure:"token" yaml:"-"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CategoriesConfig locates the category catalog and learned mappings.
type CategoriesConfig struct {
	File         string `mapstructure:"file" yaml:"file"`
	MappingsFile string `mapstructure:"mappings_file" yaml:"mappings_file"`
	AutoLearn    bool   `mapstructure:"auto_learn" yaml:"auto_learn"`
}

// OutputConfig configures CSV export.
type OutputConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

// ServerConfig configures the upload endpoint.
type ServerConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Config represents the complete application configuration
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Import     ImportConfig     `mapstructure:"import" yaml:"import"`
	Parsers    ParsersConfig    `mapstructure:"parsers" yaml:"parsers"`
	Predict    PredictConfig    `mapstructure:"predict" yaml:"predict"`
	API        APIConfig        `mapstructure:"api" yaml:"api"`
	Categories CategoriesConfig `mapstructure:"categories" yaml:"categories"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
// A non-empty configFile replaces the search path and must exist.
func InitializeConfig(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.expense-import")
		v.AddConfigPath(".expense-import")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless explicitly given)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 5. The Gemini key keeps its conventional unprefixed name
	if err := v.BindEnv("predict.api_key", "GEMINI_API_KEY", EnvPrefix+"_PREDICT_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("import.default_category_id", 1)
	v.SetDefault("import.split_type", string(models.DefaultSplitType))
	v.SetDefault("import.payer_id", 0)
	v.SetDefault("import.partner_id", 0)
	v.SetDefault("import.two_digit_year_pivot", 50)

	v.SetDefault("parsers.pdf.section_marker", "Despesas da fatura")
	v.SetDefault("parsers.pdf.description_separator", " - ")
	v.SetDefault("parsers.pdf.extractor_command", "pdftotext")
	v.SetDefault("parsers.pdf.extract_timeout_seconds", 30)
	v.SetDefault("parsers.inter.header_keyword", "valor")

	v.SetDefault("predict.enabled", false)
	v.SetDefault("predict.backend", BackendHTTP)
	v.SetDefault("predict.base_url", "")
	v.SetDefault("predict.path", "/predict")
	v.SetDefault("predict.token", "")
	v.SetDefault("predict.requests_per_minute", 60)
	v.SetDefault("predict.timeout_seconds", 10)
	v.SetDefault("predict.model", "gemini-1.5-flash")
	v.SetDefault("predict.api_key", "")

	v.SetDefault("api.base_url", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout_seconds", 15)

	v.SetDefault("categories.file", "categories.yaml")
	v.SetDefault("categories.mappings_file", "category_mappings.yaml")
	v.SetDefault("categories.auto_learn", true)

	v.SetDefault("output.delimiter", ",")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 10)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch models.SplitType(config.Import.SplitType) {
	case models.SplitEqual, models.SplitProportional, models.SplitTransfer:
	default:
		return fmt.Errorf("invalid import.split_type: %s", config.Import.SplitType)
	}
	if config.Import.DefaultCategoryID < 0 {
		return fmt.Errorf("import.default_category_id must not be negative, got: %d", config.Import.DefaultCategoryID)
	}
	if config.Import.TwoDigitYearPivot < 0 || config.Import.TwoDigitYearPivot > 99 {
		return fmt.Errorf("import.two_digit_year_pivot must be between 0 and 99, got: %d", config.Import.TwoDigitYearPivot)
	}

	if strings.TrimSpace(config.Parsers.PDF.SectionMarker) == "" {
		return fmt.Errorf("parsers.pdf.section_marker must not be empty")
	}
	if config.Parsers.PDF.DescriptionSeparator == "" {
		return fmt.Errorf("parsers.pdf.description_separator must not be empty")
	}
	if config.Parsers.PDF.ExtractTimeoutSeconds < 1 || config.Parsers.PDF.ExtractTimeoutSeconds > 600 {
		return fmt.Errorf("parsers.pdf.extract_timeout_seconds must be between 1 and 600, got: %d", config.Parsers.PDF.ExtractTimeoutSeconds)
	}
	if strings.TrimSpace(config.Parsers.Inter.HeaderKeyword) == "" {
		return fmt.Errorf("parsers.inter.header_keyword must not be empty")
	}

	if config.Predict.Enabled {
		switch config.Predict.Backend {
		case BackendHTTP:
			if config.Predict.BaseURL == "" {
				return fmt.Errorf("predict.base_url required when the http backend is enabled")
			}
		case BackendGemini:
			if config.Predict.APIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY required when the gemini backend is enabled")
			}
		default:
			return fmt.Errorf("invalid predict.backend: %s (must be 'http' or 'gemini')", config.Predict.Backend)
		}
		if config.Predict.RequestsPerMinute < 1 || config.Predict.RequestsPerMinute > 1000 {
			return fmt.Errorf("predict.requests_per_minute must be between 1 and 1000, got: %d", config.Predict.RequestsPerMinute)
		}
		if config.Predict.TimeoutSeconds < 1 || config.Predict.TimeoutSeconds > 300 {
			return fmt.Errorf("predict.timeout_seconds must be between 1 and 300, got: %d", config.Predict.TimeoutSeconds)
		}
	}

	if config.API.TimeoutSeconds < 1 {
		return fmt.Errorf("api.timeout_seconds must be positive, got: %d", config.API.TimeoutSeconds)
	}

	if utf8.RuneCountInString(config.Output.Delimiter) != 1 {
		return fmt.Errorf("output delimiter must be a single character, got: %s", config.Output.Delimiter)
	}

	if config.Server.MaxUploadMB < 1 || config.Server.MaxUploadMB > 100 {
		return fmt.Errorf("server.max_upload_mb must be between 1 and 100, got: %d", config.Server.MaxUploadMB)
	}

	return nil
}

// Delimiter returns the output delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Output.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// SplitType returns the configured split type.
func (c *Config) SplitType() models.SplitType {
	return models.SplitType(c.Import.SplitType)
}

// ExtractTimeout returns the PDF extraction timeout.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Parsers.PDF.ExtractTimeoutSeconds) * time.Second
}

// PredictTimeout returns the per-request prediction timeout.
func (c *Config) PredictTimeout() time.Duration {
	return time.Duration(c.Predict.TimeoutSeconds) * time.Second
}

// APITimeout returns the persistence API request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit of the HTTP endpoint.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
