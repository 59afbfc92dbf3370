package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/catalog/pkg/config"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"CATALOG_HTTP_PORT" envDefault:"3001"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Flat-file storage
	DataDir   string `env:"CATALOG_DATA_DIR" envDefault:"data"`
	PublicDir string `env:"CATALOG_PUBLIC_DIR" envDefault:"public"`

	// PublicBaseURL prefixes image URLs; empty means http://localhost:<port>.
	PublicBaseURL       string `env:"CATALOG_PUBLIC_BASE_URL"`
	ImageCacheMaxAgeSec int    `env:"CATALOG_IMAGE_CACHE_MAX_AGE" envDefault:"3600"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Slow storage logging
	SlowStorageThresholdMs int `env:"LOG_SLOW_STORAGE_MS" envDefault:"200"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	return finish(cfg)
}

// LoadFromMap reads configuration from vars instead of the process
// environment.
func LoadFromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFromMap(cfg, vars); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("CATALOG_DATA_DIR is required")
	}
	if strings.TrimSpace(cfg.PublicDir) == "" {
		return nil, fmt.Errorf("CATALOG_PUBLIC_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if cfg.OTELSampleRate < 0 || cfg.OTELSampleRate > 1.0 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", cfg.OTELSampleRate)
	}
	if cfg.ImageCacheMaxAgeSec < 0 {
		return nil, fmt.Errorf("CATALOG_IMAGE_CACHE_MAX_AGE must not be negative, got %d", cfg.ImageCacheMaxAgeSec)
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.HTTPPort)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

// ProductsPath is the products collection document.
func (c *Config) ProductsPath() string {
	return filepath.Join(c.DataDir, "products.json")
}

// ReviewsPath is the reviews collection document.
func (c *Config) ReviewsPath() string {
	return filepath.Join(c.DataDir, "reviews.json")
}

// ProductImagesDir is where product images are written.
func (c *Config) ProductImagesDir() string {
	return filepath.Join(c.PublicDir, "img", "products")
}

// ProductImagesBaseURL is the URL prefix of stored product images.
func (c *Config) ProductImagesBaseURL() string {
	return c.PublicBaseURL + "/img/products"
}

// SlowStorageThreshold returns the slow storage threshold as a duration.
func (c *Config) SlowStorageThreshold() time.Duration {
	return time.Duration(c.SlowStorageThresholdMs) * time.Millisecond
}
