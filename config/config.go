package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/price-standard/price-service/internal/exporter"
	"github.com/price-standard/price-service/internal/locator"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/storage"
	"github.com/price-standard/price-service/internal/telemetry"
	"github.com/price-standard/price-service/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. PRICE_STANDARD_SERVER_PORT
const EnvPrefix = "PRICE_STANDARD"

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Export    ExportConfig    `mapstructure:"export"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB   int           `mapstructure:"max_upload_mb"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// RateLimitConfig holds per-client request rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig holds output storage configuration
type StorageConfig struct {
	Type          string        `mapstructure:"type"`
	BasePath      string        `mapstructure:"base_path"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// PricingConfig holds the defaults applied to every run
type PricingConfig struct {
	Discounts           map[string]int `mapstructure:"discounts"`
	RecalculateExisting bool           `mapstructure:"recalculate_existing"`
	MinCodeLength       int            `mapstructure:"min_code_length"`
	HeaderPolicy        string         `mapstructure:"header_policy"`
	ScanRows            int            `mapstructure:"scan_rows"`
	Sheet               string         `mapstructure:"sheet"`
}

// ExportConfig holds the output document settings
type ExportConfig struct {
	Title          string `mapstructure:"title"`
	Responsible    string `mapstructure:"responsible"`
	SheetName      string `mapstructure:"sheet_name"`
	OutputPrefix   string `mapstructure:"output_prefix"`
	MaxColumnWidth int    `mapstructure:"max_column_width"`
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath == "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found in the working directory or ./config
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads KEY=VALUE lines and sets variables that are not already set
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds the short environment variable names used by deployments
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")

	// Logging
	v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")

	// Storage
	v.BindEnv("storage.base_path", EnvPrefix+"_STORAGE_BASE_PATH", "STORAGE_PATH")

	// Telemetry
	v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", EnvPrefix+"_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	layout := exporter.DefaultLayout()

	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.max_concurrent", 4)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.idle_timeout", 10*time.Minute)

	// Storage defaults
	v.SetDefault("storage.type", string(storage.StorageTypeLocal))
	v.SetDefault("storage.base_path", "./data")
	v.SetDefault("storage.retention", 24*time.Hour)
	v.SetDefault("storage.sweep_interval", 15*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Pricing defaults
	v.SetDefault("pricing.discounts", map[string]int(types.DefaultDiscountSettings()))
	v.SetDefault("pricing.recalculate_existing", false)
	v.SetDefault("pricing.min_code_length", types.DefaultMinCodeLength)
	v.SetDefault("pricing.header_policy", string(locator.PolicyStrict))
	v.SetDefault("pricing.scan_rows", locator.DefaultScanRows)
	v.SetDefault("pricing.sheet", "")

	// Export defaults
	v.SetDefault("export.title", layout.Title)
	v.SetDefault("export.responsible", layout.Responsible)
	v.SetDefault("export.sheet_name", layout.SheetName)
	v.SetDefault("export.output_prefix", pipeline.DefaultOutputPrefix)
	v.SetDefault("export.max_column_width", layout.MaxColumnWidth)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
}

// Validate checks values that cannot be corrected silently
func (c *Config) Validate() error {
	if c.Storage.Type != string(storage.StorageTypeLocal) {
		return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
	}
	switch locator.Policy(c.Pricing.HeaderPolicy) {
	case locator.PolicyStrict, locator.PolicyGeneric:
	default:
		return fmt.Errorf("unsupported header policy %q", c.Pricing.HeaderPolicy)
	}
	if err := c.Discounts().Validate(); err != nil {
		return fmt.Errorf("pricing.discounts: %w", err)
	}
	return nil
}

// Discounts returns the configured marker percentages with canonical keys
func (c *Config) Discounts() types.DiscountSettings {
	if len(c.Pricing.Discounts) == 0 {
		return types.DefaultDiscountSettings()
	}
	return types.DiscountSettings(c.Pricing.Discounts).Normalized()
}

// Pipeline maps the configuration onto pipeline settings
func (c *Config) Pipeline() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Sheet = c.Pricing.Sheet
	cfg.HeaderPolicy = locator.Policy(c.Pricing.HeaderPolicy)
	if c.Pricing.ScanRows > 0 {
		cfg.ScanRows = c.Pricing.ScanRows
	}
	if c.Pricing.MinCodeLength > 0 {
		cfg.MinCodeLength = c.Pricing.MinCodeLength
	}
	if c.Export.OutputPrefix != "" {
		cfg.OutputPrefix = c.Export.OutputPrefix
	}
	if c.Export.Title != "" {
		cfg.Layout.Title = c.Export.Title
	}
	if c.Export.Responsible != "" {
		cfg.Layout.Responsible = c.Export.Responsible
	}
	if c.Export.SheetName != "" {
		cfg.Layout.SheetName = c.Export.SheetName
	}
	if c.Export.MaxColumnWidth > 0 {
		cfg.Layout.MaxColumnWidth = c.Export.MaxColumnWidth
	}
	return cfg
}

// Options returns the per-run defaults
func (c *Config) Options() pipeline.Options {
	return pipeline.Options{
		Discounts:           c.Discounts(),
		RecalculateExisting: c.Pricing.RecalculateExisting,
	}
}

// TelemetryConfig returns the OpenTelemetry settings. Telemetry is enabled by
// the flag or by a configured endpoint.
func (c *Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:     c.Telemetry.Enabled || c.Telemetry.Endpoint != "",
		Endpoint:    c.Telemetry.Endpoint,
		ServiceName: c.Telemetry.ServiceName,
	}
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
