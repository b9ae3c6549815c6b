package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHOPWINDOW"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Browse  BrowseConfig
	Redis   RedisConfig
	Cache   CacheConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPWINDOW_APP_ENV" default:"development"`
	Port         string `envconfig:"SHOPWINDOW_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPWINDOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPWINDOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points at the remote catalog API that owns all product data.
type CatalogConfig struct {
	BaseURL string        `envconfig:"SHOPWINDOW_CATALOG_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SHOPWINDOW_CATALOG_TIMEOUT" default:"15s"`
}

func (c CatalogConfig) validate() error {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing catalog base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("catalog base url must be absolute, got %q", c.BaseURL)
	}
	return nil
}

// BrowseConfig tunes the filter/fetch coordinator.
type BrowseConfig struct {
	Debounce       time.Duration `envconfig:"SHOPWINDOW_BROWSE_DEBOUNCE" default:"300ms"`
	DefaultPerPage int           `envconfig:"SHOPWINDOW_BROWSE_DEFAULT_PER_PAGE" default:"12"`
	PriceCeiling   int           `envconfig:"SHOPWINDOW_BROWSE_PRICE_CEILING" default:"5000"`
	PriceStep      int           `envconfig:"SHOPWINDOW_BROWSE_PRICE_STEP" default:"1"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPWINDOW_REDIS_URL"`
	Address      string        `envconfig:"SHOPWINDOW_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPWINDOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPWINDOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPWINDOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPWINDOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPWINDOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPWINDOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPWINDOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured at all; the gateway
// degrades to uncached category fetches when it is not.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type CacheConfig struct {
	CategoriesTTL time.Duration `envconfig:"SHOPWINDOW_CACHE_CATEGORIES_TTL" default:"5m"`
}
