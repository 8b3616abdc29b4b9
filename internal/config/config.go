// Package config loads application configuration from a YAML file and/or
// environment variables using cleanenv.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure. It contains
// settings for the environment, admin HTTP server, database connection,
// crawl-engine tuning and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// GitHubAPIToken is the bearer credential presented to the remote host API.
	GitHubAPIToken string `env:"GITHUB_API_TOKEN" yaml:"-"`

	// HTTP contains all admin HTTP server related configurations (metrics, health, pprof).
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"repocrawler" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections is applied as the pool's minimum connection count; it does not cap idle connections
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// Crawler contains settings that tune the concurrent crawl engine.
	Crawler struct {
		// TotalRepositories is the target number of distinct repositories to collect.
		TotalRepositories int `env:"CRAWLER_TOTAL_REPOSITORIES" env-default:"100000" yaml:"totalRepositories"`
		// SeedQueries is a comma-separated list of free-text host search queries used to bootstrap the frontier.
		SeedQueries []string `env:"CRAWLER_SEED_QUERIES" env-separator:"," env-default:"is:public" yaml:"seedQueries"`
		// NumberWorkers is how many concurrent workers consume the frontier.
		NumberWorkers int `env:"CRAWLER_NUMBER_WORKERS" env-default:"1" yaml:"numberWorkers"`
		// MaxRepositoryFetchedPerRequest is the page size requested from the remote API (1..100).
		MaxRepositoryFetchedPerRequest int `env:"CRAWLER_MAX_REPOSITORY_FETCHED_PER_REQUEST" env-default:"100" yaml:"maxRepositoryFetchedPerRequest"` //nolint: lll
		// QueueCapacity is the bounded capacity of the in-memory request frontier.
		QueueCapacity int `env:"CRAWLER_QUEUE_CAPACITY" env-default:"128" yaml:"queueCapacity"`
		// WorkerStaggerInterval is the delay between spawning consecutive workers at startup.
		WorkerStaggerInterval time.Duration `env:"CRAWLER_WORKER_STAGGER_INTERVAL" env-default:"1s" yaml:"workerStaggerInterval"` //nolint: lll
		// ProgressReportInterval controls how often the supervisor logs a progress snapshot.
		ProgressReportInterval time.Duration `env:"CRAWLER_PROGRESS_REPORT_INTERVAL" env-default:"1s" yaml:"progressReportInterval"` //nolint: lll
		// RequestTimeout bounds a single call to the remote API client.
		RequestTimeout time.Duration `env:"CRAWLER_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// DurableQueue selects the postgres/river-backed frontier instead of the default in-memory one.
		DurableQueue bool `env:"CRAWLER_DURABLE_QUEUE" env-default:"false" yaml:"durableQueue"`
	} `yaml:"crawler"`

	// GracefulShutdownTimeout is the maximum duration to wait for in-flight work to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"30s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	for i, q := range cfg.Crawler.SeedQueries {
		cfg.Crawler.SeedQueries[i] = strings.TrimSpace(q)
	}

	return &cfg, nil
}
