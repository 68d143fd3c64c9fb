package config

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" envconfig:"server"`
	API        APIConfig        `mapstructure:"api" envconfig:"api"`
	JWT        JWTConfig        `mapstructure:"jwt" envconfig:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis" envconfig:"redis"`
	Pages      PagesConfig      `mapstructure:"pages" envconfig:"pages"`
	Calendar   CalendarConfig   `mapstructure:"calendar" envconfig:"calendar"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" envconfig:"rate_limit"`
	Log        LogConfig        `mapstructure:"log" envconfig:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" envconfig:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" envconfig:"port"`
	Mode            string        `mapstructure:"mode" envconfig:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" envconfig:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" envconfig:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" envconfig:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"shutdown_timeout"`
}

// APIConfig points at the clinic API the portal presents.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url" envconfig:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout" envconfig:"timeout"`
	RetryCount      int           `mapstructure:"retry_count" envconfig:"retry_count"`
	RetryWait       time.Duration `mapstructure:"retry_wait" envconfig:"retry_wait"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait" envconfig:"retry_max_wait"`
	BreakerFailures int           `mapstructure:"breaker_failures" envconfig:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout" envconfig:"breaker_timeout"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret" envconfig:"secret"`
	CookieName string `mapstructure:"cookie_name" envconfig:"cookie_name"`
}

// RedisConfig enables cross-instance visit events. An empty URL keeps events in process.
type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"url"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"min_idle_conns"`
}

type PagesConfig struct {
	IdleTTL        time.Duration `mapstructure:"idle_ttl" envconfig:"idle_ttl"`
	SearchDebounce time.Duration `mapstructure:"search_debounce" envconfig:"search_debounce"`
}

type CalendarConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" envconfig:"cache_ttl"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled" envconfig:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" envconfig:"requests_per_second"`
	Burst             int           `mapstructure:"burst" envconfig:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl" envconfig:"idle_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"level"`
	Format string `mapstructure:"format" envconfig:"format"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled" envconfig:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path" envconfig:"metrics_path"`
	Namespace         string `mapstructure:"namespace" envconfig:"namespace"`
}

const envPrefix = "portal"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.retry_count", 2)
	v.SetDefault("api.retry_wait", 200*time.Millisecond)
	v.SetDefault("api.retry_max_wait", 2*time.Second)
	v.SetDefault("api.breaker_failures", 5)
	v.SetDefault("api.breaker_timeout", 30*time.Second)

	v.SetDefault("jwt.cookie_name", "portal_session")

	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("pages.idle_ttl", 30*time.Minute)
	v.SetDefault("pages.search_debounce", 300*time.Millisecond)

	v.SetDefault("calendar.cache_ttl", time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.namespace", "portal")
}

// LoadConfig reads defaults, then config.yml when one is found, then PORTAL_* environment
// variables such as PORTAL_API_BASE_URL or PORTAL_JWT_SECRET.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/app/config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := envconfig.Process(envPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("config: api.base_url is required")
	case c.JWT.Secret == "":
		return fmt.Errorf("config: jwt.secret is required")
	case c.Server.Port <= 0:
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	return nil
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
