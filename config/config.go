package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/price-aggregator/internal/aggregator"
	"github.com/kosarica/price-aggregator/internal/analytics"
	"github.com/kosarica/price-aggregator/internal/availability"
	"github.com/kosarica/price-aggregator/internal/browser"
	"github.com/kosarica/price-aggregator/internal/database"
	"github.com/kosarica/price-aggregator/internal/fallback"
	"github.com/kosarica/price-aggregator/internal/http/ratelimit"
	"github.com/kosarica/price-aggregator/internal/middleware"
	"github.com/kosarica/price-aggregator/internal/optimizer"
	"github.com/kosarica/price-aggregator/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. PRICE_AGGREGATOR_SERVER_PORT.
const EnvPrefix = "PRICE_AGGREGATOR"

// Analytics backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
	BackendNone     = "none"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig                 `mapstructure:"server"`
	Database   DatabaseConfig               `mapstructure:"database"`
	Mongo      analytics.MongoConfig        `mapstructure:"mongo"`
	Storage    StorageConfig                `mapstructure:"storage"`
	RateLimit  middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	HTTPClient HTTPClientConfig             `mapstructure:"http_client"`
	Browser    browser.Config               `mapstructure:"browser"`
	Aggregator aggregator.Config            `mapstructure:"aggregator"`
	Registry   RegistryConfig               `mapstructure:"registry"`
	Optimizer  optimizer.Config             `mapstructure:"optimizer"`
	Telemetry  telemetry.Config             `mapstructure:"telemetry"`
	Logging    LoggingConfig                `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// SearchTimeout bounds a whole /search request including fallbacks.
	SearchTimeout   time.Duration `mapstructure:"search_timeout"`
	CartConcurrency int           `mapstructure:"cart_concurrency"`
	InternalAPIKey  string        `mapstructure:"internal_api_key"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// Pool converts the section into pool settings.
func (d DatabaseConfig) Pool() database.PoolConfig {
	return database.PoolConfig{
		URL:         d.URL,
		MaxConns:    d.MaxConnections,
		MinConns:    d.MinConnections,
		MaxLifetime: d.MaxConnLifetime,
		MaxIdleTime: d.MaxConnIdleTime,
	}
}

// StorageConfig selects where analytics and user state are kept.
type StorageConfig struct {
	Backend       string                   `mapstructure:"backend"`
	Retention     time.Duration            `mapstructure:"retention"`
	SweepInterval time.Duration            `mapstructure:"sweep_interval"`
	Recorder      analytics.RecorderConfig `mapstructure:"recorder"`
}

// HTTPClientConfig configures the outbound client used by the http driver.
type HTTPClientConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	ratelimit.Config `mapstructure:",squash"`
}

// RegistryConfig points at an optional availability override file.
type RegistryConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// ErrInvalidConfig reports a configuration value that cannot be used.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// loadEnvFile loads the first .env found. Variables already set win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			return godotenv.Load(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("mongo.uri", EnvPrefix+"_MONGO_URI", "MONGODB_URI")
	v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")
	v.BindEnv("server.internal_api_key", EnvPrefix+"_SERVER_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	v.BindEnv("telemetry.enabled", EnvPrefix+"_TELEMETRY_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", EnvPrefix+"_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("browser.bin_path", EnvPrefix+"_BROWSER_BIN_PATH", "CHROME_BIN")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.search_timeout", 120*time.Second)
	v.SetDefault("server.cart_concurrency", 4)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("mongo.database", "price_aggregator")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.retention", 90*24*time.Hour)
	v.SetDefault("storage.sweep_interval", time.Hour)
	rec := analytics.DefaultRecorderConfig()
	v.SetDefault("storage.recorder.queue_size", rec.QueueSize)
	v.SetDefault("storage.recorder.num_workers", rec.NumWorkers)
	v.SetDefault("storage.recorder.write_timeout", rec.WriteTimeout)

	rl := middleware.DefaultRateLimiterConfig()
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.burst_size", rl.BurstSize)
	v.SetDefault("rate_limit.idle_ttl", rl.IdleTTL)

	hc := ratelimit.DefaultConfig()
	v.SetDefault("http_client.timeout", 30*time.Second)
	v.SetDefault("http_client.requests_per_second", hc.RequestsPerSecond)
	v.SetDefault("http_client.max_retries", hc.MaxRetries)
	v.SetDefault("http_client.initial_backoff_ms", hc.InitialBackoffMs)
	v.SetDefault("http_client.max_backoff_ms", hc.MaxBackoffMs)

	bc := browser.DefaultConfig()
	v.SetDefault("browser.driver", bc.Driver)
	v.SetDefault("browser.headless", bc.Headless)
	v.SetDefault("browser.no_sandbox", bc.NoSandbox)
	v.SetDefault("browser.user_agent", bc.UserAgent)
	v.SetDefault("browser.navigation_timeout", bc.NavigationTimeout)
	v.SetDefault("browser.stable_wait", bc.StableWait)
	v.SetDefault("browser.location_step_timeout", bc.LocationStepTimeout)

	ac := aggregator.Defaults()
	v.SetDefault("aggregator.adapter_timeout", ac.AdapterTimeout)
	v.SetDefault("aggregator.max_concurrency", ac.MaxConcurrency)
	v.SetDefault("aggregator.max_results_per_platform", ac.MaxResultsPerPlatform)
	v.SetDefault("aggregator.city_fallback", ac.CityFallback)
	v.SetDefault("aggregator.nearby_retry", ac.NearbyRetry)
	v.SetDefault("aggregator.synthetic_fallback", ac.SyntheticFallback)
	v.SetDefault("aggregator.breaker.enabled", ac.Breaker.Enabled)
	v.SetDefault("aggregator.breaker.max_failures", ac.Breaker.MaxFailures)
	v.SetDefault("aggregator.breaker.reset_timeout", ac.Breaker.ResetTimeout)
	v.SetDefault("aggregator.breaker.half_open_max_calls", ac.Breaker.HalfOpenMaxCalls)

	oc := optimizer.Defaults()
	v.SetDefault("optimizer.max_cart_items", oc.MaxCartItems)
	v.SetDefault("optimizer.min_cart_items", oc.MinCartItems)
	v.SetDefault("optimizer.max_quantity", oc.MaxQuantity)
	v.SetDefault("optimizer.include_out_of_stock", oc.IncludeOutOfStock)
	v.SetDefault("optimizer.currency_symbol", oc.CurrencySymbol)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.metric_interval", 30*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Validate checks cross-section constraints and every section that can
// validate itself.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidConfig{Field: "server.port", Reason: "must be between 1 and 65535"}
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendNone:
	case BackendPostgres:
		if c.Database.URL == "" {
			return ErrInvalidConfig{Field: "database.url", Reason: "is required for the postgres backend"}
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return ErrInvalidConfig{Field: "mongo.uri", Reason: "is required for the mongodb backend"}
		}
	default:
		return ErrInvalidConfig{Field: "storage.backend", Reason: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	if c.Storage.Retention < 0 {
		return ErrInvalidConfig{Field: "storage.retention", Reason: "must be non-negative"}
	}
	switch c.Browser.Driver {
	case browser.DriverRod, browser.DriverChromedp, browser.DriverHTTP:
	default:
		return ErrInvalidConfig{Field: "browser.driver", Reason: fmt.Sprintf("unknown driver %q", c.Browser.Driver)}
	}
	if err := c.Aggregator.Validate(); err != nil {
		return fmt.Errorf("aggregator: %w", err)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// LoadRegistry returns the availability registry and nearby-city table,
// from registry.file when set and the built-in tables otherwise.
func (c *Config) LoadRegistry() (*availability.Registry, *fallback.NearbyTable, error) {
	if c.Registry.File == "" {
		return availability.Default(), fallback.DefaultNearby(), nil
	}
	f, err := availability.LoadFile(c.Registry.File)
	if err != nil {
		return nil, nil, err
	}
	nearby := fallback.DefaultNearby()
	if len(f.Nearby) > 0 {
		nearby = fallback.NewNearbyTable(f.Nearby)
	}
	return f.Registry(), nearby, nil
}

// Logger builds the service logger and installs it as the global zerolog logger.
func (l LoggingConfig) Logger(service string) *zerolog.Logger {
	return l.LoggerTo(os.Stdout, service)
}

// LoggerTo is Logger with an explicit output.
func (l LoggingConfig) LoggerTo(out io.Writer, service string) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}

	output := out
	if l.Format != "json" {
		output = zerolog.ConsoleWriter{Out: out, NoColor: l.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", service).Logger()
	log.Logger = logger
	return &logger
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
