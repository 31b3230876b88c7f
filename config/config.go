package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Source kinds accepted by SOURCE_KIND.
const (
	SourceHTTP     = "http"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"survey"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"survey123"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"total_comp"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// SourceKind selects where the survey tables are loaded from.
	SourceKind    string `env:"SOURCE_KIND" envDefault:"http"`
	DataURL       string `env:"DATA_URL" envDefault:"https://raw.githubusercontent.com/salary-exploration-fishbowl/total-comp-app/main/salary_cleaned.csv"`
	AggregateURL  string `env:"AGGREGATE_URL"`
	DataPath      string `env:"DATA_PATH" envDefault:"./data/salary_cleaned.csv"`
	AggregatePath string `env:"AGGREGATE_PATH" envDefault:"./data/salary_aggregate.csv"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	MaxRetries   int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryDelay   time.Duration `env:"RETRY_DELAY" envDefault:"2s"`

	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return Parse()
}

// Parse populates a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistent settings.
func (c *Config) Validate() error {
	switch c.SourceKind {
	case SourceHTTP:
		if c.DataURL == "" {
			return fmt.Errorf("config: DATA_URL is required when SOURCE_KIND is %q", SourceHTTP)
		}
	case SourceFile:
		if c.DataPath == "" {
			return fmt.Errorf("config: DATA_PATH is required when SOURCE_KIND is %q", SourceFile)
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("config: SOURCE_KIND must be one of http, file, postgres, got %q", c.SourceKind)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("config: MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}
