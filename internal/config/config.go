package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"bookingeda/internal"
	"bookingeda/internal/errors"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/preprocessing"
	"bookingeda/internal/timeseries"
)

// Config represents the complete application configuration
type Config struct {
	Preprocess preprocessing.Config
	Outliers   OutlierConfig
	TimeSeries timeseries.Options
	Matrix     modelmatrix.Options
	Store      StoreConfig
	Paths      PathConfig
	LogLevel   string `validate:"required,oneof=ERROR WARN INFO DEBUG TRACE"`
}

// OutlierConfig selects the columns clipped by the IQR rule. Clipping is
// skipped when Columns is empty.
type OutlierConfig struct {
	Columns []string
	K       float64 `validate:"gte=0"`
}

// StoreConfig holds database connection settings. An empty driver
// disables persistence.
type StoreConfig struct {
	Driver string `validate:"omitempty,oneof=sqlite3 postgres"`
	DSN    string `validate:"required_with=Driver"`
}

// PathConfig holds file system paths
type PathConfig struct {
	InputFile string
	OutputDir string `validate:"required"`
}

// Enabled reports whether a store is configured
func (s StoreConfig) Enabled() bool {
	return s.Driver != ""
}

// Load reads an optional .env file, then the environment, and validates the
// result. Missing env files are ignored; variables already set win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Preprocess: loadPreprocessConfig(),
		TimeSeries: timeseries.DefaultOptions(),
		Store: StoreConfig{
			Driver: getEnvOrDefault("STORE_DRIVER", ""),
			DSN:    getEnvOrDefault("STORE_DSN", ""),
		},
		Paths: PathConfig{
			InputFile: getEnvOrDefault("EDA_INPUT_FILE", ""),
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "outputs"),
		},
		LogLevel: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}

	k, err := getEnvFloat("EDA_IQR_K", preprocessing.DefaultIQRMultiplier)
	if err != nil {
		return nil, err
	}
	cfg.Outliers = OutlierConfig{Columns: getEnvListOrDefault("EDA_CLIP_COLUMNS", nil), K: k}

	scale, err := getEnvBool("EDA_SCALE_NUMERIC", false)
	if err != nil {
		return nil, err
	}
	cfg.Matrix = modelmatrix.Options{ScaleNumeric: scale}

	fill, err := getEnvInt("EDA_FILL_AGENT_COMPANY", cfg.Preprocess.FillAgentCompany)
	if err != nil {
		return nil, err
	}
	cfg.Preprocess.FillAgentCompany = fill

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadPreprocessConfig() preprocessing.Config {
	def := preprocessing.DefaultConfig()
	return preprocessing.Config{
		Target:           getEnvOrDefault("EDA_TARGET", def.Target),
		FillCountry:      getEnvOrDefault("EDA_FILL_COUNTRY", def.FillCountry),
		FillCategorical:  getEnvOrDefault("EDA_FILL_CATEGORICAL", def.FillCategorical),
		FillAgentCompany: def.FillAgentCompany,
		DropColumns:      getEnvListOrDefault("EDA_DROP_COLUMNS", def.DropColumns),
	}
}

var validate = validator.New()

// Validate checks the struct tags and reports every failing field
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "configuration validation failed")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return errors.ConfigInvalid("configuration validation failed: " + strings.Join(msgs, "; "))
}

func formatValidationError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// ApplyLogLevel sets the shared logger to the configured level
func (c *Config) ApplyLogLevel() {
	if level, ok := internal.ParseLogLevel(c.LogLevel); ok {
		internal.DefaultLogger.SetLevel(level)
	}
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma-separated value, dropping blanks
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, errors.ConfigInvalid(fmt.Sprintf("%s must be a boolean, got %q", key, value))
	}
	return b, nil
}
