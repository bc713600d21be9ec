package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.SearchTimeout)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 60*time.Second, cfg.Aggregator.AdapterTimeout)
	assert.True(t, cfg.Aggregator.SyntheticFallback)
	assert.Equal(t, 100, cfg.Optimizer.MaxCartItems)
	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.Equal(t, 256, cfg.Storage.Recorder.QueueSize)
	assert.Equal(t, 2, cfg.HTTPClient.RequestsPerSecond)
	assert.Same(t, cfg, Get())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
server:
  port: 8080
aggregator:
  adapter_timeout: 5s
  max_results_per_platform: 3
browser:
  driver: http
`
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("PRICE_AGGREGATOR_OPTIMIZER_MAX_CART_ITEMS", "20")
	t.Setenv("INTERNAL_API_KEY", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Aggregator.AdapterTimeout)
	assert.Equal(t, 3, cfg.Aggregator.MaxResultsPerPlatform)
	assert.Equal(t, "http", cfg.Browser.Driver)
	assert.Equal(t, 20, cfg.Optimizer.MaxCartItems)
	assert.Equal(t, "secret", cfg.Server.InternalAPIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=4100\nLOG_LEVEL=debug\n"), 0o600))
	// godotenv does not overwrite; make sure the test process starts clean.
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"postgres without url", func(c *Config) { c.Storage.Backend = BackendPostgres; c.Database.URL = "" }, "database.url"},
		{"mongo without uri", func(c *Config) { c.Storage.Backend = BackendMongo; c.Mongo.URI = "" }, "mongo.uri"},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "lynx" }, "browser.driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			var invalid ErrInvalidConfig
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}

	t.Run("aggregator section", func(t *testing.T) {
		cfg := *base
		cfg.Aggregator.AdapterTimeout = 0
		assert.ErrorContains(t, cfg.Validate(), "adapter_timeout")
	})
}

func TestLoadRegistry(t *testing.T) {
	cfg := &Config{}
	reg, nearby, err := cfg.LoadRegistry()
	require.NoError(t, err)
	assert.NotNil(t, reg)
	assert.NotNil(t, nearby)

	path := filepath.Join(t.TempDir(), "availability.yaml")
	body := `
platforms:
  - platform: zepto
    category: groceries
    cities: [pune]
nearby:
  pune: [mumbai]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg.Registry.File = path
	reg, nearby, err = cfg.LoadRegistry()
	require.NoError(t, err)
	assert.NotNil(t, reg)
	assert.NotNil(t, nearby)

	cfg.Registry.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, _, err = cfg.LoadRegistry()
	assert.Error(t, err)
}

func TestLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := LoggingConfig{Level: "warn", Format: "json"}.LoggerTo(&buf, "price-aggregator")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"service":"price-aggregator"`)
	assert.Contains(t, out, "shown")
}
