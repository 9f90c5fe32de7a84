package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nossas-despesas/expense-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, 1, config.Import.DefaultCategoryID)
	assert.Equal(t, models.SplitProportional, config.SplitType())
	assert.Equal(t, 50, config.Import.TwoDigitYearPivot)
	assert.Equal(t, "Despesas da fatura", config.Parsers.PDF.SectionMarker)
	assert.Equal(t, " - ", config.Parsers.PDF.DescriptionSeparator)
	assert.Equal(t, "pdftotext", config.Parsers.PDF.ExtractorCommand)
	assert.Equal(t, 30*time.Second, config.ExtractTimeout())
	assert.Equal(t, "valor", config.Parsers.Inter.HeaderKeyword)
	assert.False(t, config.Predict.Enabled)
	assert.Equal(t, BackendHTTP, config.Predict.Backend)
	assert.Equal(t, "/predict", config.Predict.Path)
	assert.Equal(t, 10*time.Second, config.PredictTimeout())
	assert.Equal(t, 15*time.Second, config.APITimeout())
	assert.Equal(t, "categories.yaml", config.Categories.File)
	assert.True(t, config.Categories.AutoLearn)
	assert.Equal(t, ',', config.Delimiter())
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, int64(10<<20), config.MaxUploadBytes())
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	chdirTemp(t)

	testEnvVars := map[string]string{
		"EXPENSE_IMPORT_LOG_LEVEL":                    "debug",
		"EXPENSE_IMPORT_LOG_FORMAT":                   "json",
		"EXPENSE_IMPORT_OUTPUT_DELIMITER":             ";",
		"EXPENSE_IMPORT_IMPORT_PAYER_ID":              "7",
		"EXPENSE_IMPORT_PREDICT_ENABLED":              "true",
		"EXPENSE_IMPORT_PREDICT_BACKEND":              "gemini",
		"EXPENSE_IMPORT_PREDICT_REQUESTS_PER_MINUTE":  "15",
		"EXPENSE_IMPORT_PARSERS_INTER_HEADER_KEYWORD": "montante",
		"GEMINI_API_KEY":                              "test-api-key",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, "json", config.Log.Format)
	assert.Equal(t, ';', config.Delimiter())
	assert.Equal(t, 7, config.Import.PayerID)
	assert.True(t, config.Predict.Enabled)
	assert.Equal(t, BackendGemini, config.Predict.Backend)
	assert.Equal(t, 15, config.Predict.RequestsPerMinute)
	assert.Equal(t, "montante", config.Parsers.Inter.HeaderKeyword)
	assert.Equal(t, "test-api-key", config.Predict.APIKey)
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := chdirTemp(t)

	configContent := `
log:
  level: "warn"
import:
  split_type: "equal"
  payer_id: 1
  partner_id: 2
parsers:
  pdf:
    section_marker: "Lançamentos"
api:
  base_url: "https://api.example.com"
output:
  delimiter: "|"
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0600))

	config, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, models.SplitEqual, config.SplitType())
	assert.Equal(t, 1, config.Import.PayerID)
	assert.Equal(t, 2, config.Import.PartnerID)
	assert.Equal(t, "Lançamentos", config.Parsers.PDF.SectionMarker)
	assert.Equal(t, "https://api.example.com", config.API.BaseURL)
	assert.Equal(t, '|', config.Delimiter())

	// Environment wins over the file.
	t.Setenv("EXPENSE_IMPORT_LOG_LEVEL", "error")
	config, err = InitializeConfig("")
	require.NoError(t, err)
	assert.Equal(t, "error", config.Log.Level)
}

func TestInitializeConfig_ExplicitFile(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := chdirTemp(t)

	custom := filepath.Join(tempDir, "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("server:\n  addr: \":9090\"\n"), 0600))

	config, err := InitializeConfig(custom)
	require.NoError(t, err)
	assert.Equal(t, ":9090", config.Server.Addr)

	_, err = InitializeConfig(filepath.Join(tempDir, "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: "text"},
		Import: ImportConfig{DefaultCategoryID: 1, SplitType: "proportional", TwoDigitYearPivot: 50},
		Parsers: ParsersConfig{
			PDF:   PDFConfig{SectionMarker: "Despesas da fatura", DescriptionSeparator: " - ", ExtractTimeoutSeconds: 30},
			Inter: InterConfig{HeaderKeyword: "valor"},
		},
		Predict: PredictConfig{Backend: BackendHTTP, RequestsPerMinute: 60, TimeoutSeconds: 10},
		API:     APIConfig{TimeoutSeconds: 15},
		Output:  OutputConfig{Delimiter: ","},
		Server:  ServerConfig{Addr: ":8080", MaxUploadMB: 10},
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"split type", func(c *Config) { c.Import.SplitType = "half" }, "split_type"},
		{"negative category", func(c *Config) { c.Import.DefaultCategoryID = -1 }, "default_category_id"},
		{"pivot", func(c *Config) { c.Import.TwoDigitYearPivot = 100 }, "two_digit_year_pivot"},
		{"marker", func(c *Config) { c.Parsers.PDF.SectionMarker = " " }, "section_marker"},
		{"separator", func(c *Config) { c.Parsers.PDF.DescriptionSeparator = "" }, "description_separator"},
		{"extract timeout", func(c *Config) { c.Parsers.PDF.ExtractTimeoutSeconds = 0 }, "extract_timeout_seconds"},
		{"keyword", func(c *Config) { c.Parsers.Inter.HeaderKeyword = "" }, "header_keyword"},
		{"http without url", func(c *Config) { c.Predict.Enabled = true }, "predict.base_url"},
		{"gemini without key", func(c *Config) {
			c.Predict.Enabled = true
			c.Predict.Backend = BackendGemini
		}, "GEMINI_API_KEY"},
		{"unknown backend", func(c *Config) {
			c.Predict.Enabled = true
			c.Predict.Backend = "oracle"
		}, "predict.backend"},
		{"rpm", func(c *Config) {
			c.Predict.Enabled = true
			c.Predict.BaseURL = "http://localhost"
			c.Predict.RequestsPerMinute = 0
		}, "requests_per_minute"},
		{"disabled predict ignores rpm", func(c *Config) { c.Predict.RequestsPerMinute = 0 }, ""},
		{"api timeout", func(c *Config) { c.API.TimeoutSeconds = 0 }, "api.timeout_seconds"},
		{"delimiter", func(c *Config) { c.Output.Delimiter = ";;" }, "delimiter"},
		{"upload", func(c *Config) { c.Server.MaxUploadMB = 0 }, "max_upload_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := validateConfig(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigureLoggingFromConfig(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		c := validConfig()
		c.Log.Format = format
		assert.NotNil(t, ConfigureLoggingFromConfig(c))
	}
}

func TestLoadEnv(t *testing.T) {
	clearTestEnvVars(t)
	tempDir := chdirTemp(t)

	assert.Equal(t, "", LoadEnv(nil))

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".env"), []byte("EXPENSE_IMPORT_LOG_LEVEL=debug\n"), 0600))
	t.Setenv("EXPENSE_IMPORT_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("EXPENSE_IMPORT_LOG_LEVEL"))

	assert.Equal(t, ".env", LoadEnv(nil))
	assert.Equal(t, "debug", os.Getenv("EXPENSE_IMPORT_LOG_LEVEL"))
}

// chdirTemp runs the test inside a fresh directory with a nested working
// directory, so neither the config search path nor ../.env pick up files.
func chdirTemp(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(dir, 0750))

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(originalDir)
	})
	return dir
}

// clearTestEnvVars unsets variables that would leak into the tests and
// restores them afterwards.
func clearTestEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"EXPENSE_IMPORT_LOG_LEVEL",
		"EXPENSE_IMPORT_LOG_FORMAT",
		"EXPENSE_IMPORT_OUTPUT_DELIMITER",
		"EXPENSE_IMPORT_IMPORT_PAYER_ID",
		"EXPENSE_IMPORT_PREDICT_ENABLED",
		"EXPENSE_IMPORT_PREDICT_BACKEND",
		"EXPENSE_IMPORT_PREDICT_REQUESTS_PER_MINUTE",
		"EXPENSE_IMPORT_PREDICT_API_KEY",
		"EXPENSE_IMPORT_PARSERS_INTER_HEADER_KEYWORD",
		"GEMINI_API_KEY",
	}
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
		require.NoError(t, os.Unsetenv(envVar))
	}
}
