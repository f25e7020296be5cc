package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/price-standard/price-service/internal/locator"
	"github.com/price-standard/price-service/internal/pipeline"
	"github.com/price-standard/price-service/internal/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "HOST", "LOG_LEVEL", "STORAGE_PATH", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
	assert.Equal(t, 4, cfg.Server.MaxConcurrent)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.TelemetryConfig().Enabled)

	assert.Equal(t, types.DefaultDiscountSettings(), cfg.Discounts())

	pc := cfg.Pipeline()
	assert.Equal(t, locator.PolicyStrict, pc.HeaderPolicy)
	assert.Equal(t, types.DefaultMinCodeLength, pc.MinCodeLength)
	assert.Equal(t, pipeline.DefaultOutputPrefix, pc.OutputPrefix)
	assert.Equal(t, "Прайс-лист", pc.Layout.SheetName)

	assert.Same(t, cfg, Get())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
server:
  port: 9000
pricing:
  discounts:
    К2: 25
    К3: 45
  recalculate_existing: true
  header_policy: generic
  min_code_length: 5
export:
  title: Прайс-лист ООО "Тест"
  responsible: Иванов И.И.
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, types.DiscountSettings{"К2": 25, "К3": 45}, cfg.Discounts())

	opts := cfg.Options()
	assert.True(t, opts.RecalculateExisting)
	assert.Equal(t, 25, opts.Discounts["К2"])

	pc := cfg.Pipeline()
	assert.Equal(t, locator.PolicyGeneric, pc.HeaderPolicy)
	assert.Equal(t, 5, pc.MinCodeLength)
	assert.Equal(t, `Прайс-лист ООО "Тест"`, pc.Layout.Title)
	assert.Equal(t, "Иванов И.И.", pc.Layout.Responsible)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICE_STANDARD_SERVER_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PRICE_STANDARD_STORAGE_RETENTION", "2h")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2*time.Hour, cfg.Storage.Retention)

	tc := cfg.TelemetryConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "collector:4317", tc.Endpoint)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want error
	}{
		{
			name: "discount out of range",
			body: "pricing:\n  discounts:\n    К2: 150\n",
			want: types.ErrInvalidSettings,
		},
		{
			name: "unknown header policy",
			env:  map[string]string{"PRICE_STANDARD_PRICING_HEADER_POLICY": "fuzzy"},
		},
		{
			name: "unknown storage type",
			body: "storage:\n  type: s3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}

			_, err := Load(path)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
