package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	LogFile         string        `envconfig:"LOG_FILE"`
	StorageBackend  string        `envconfig:"STORAGE_BACKEND"  default:"memory"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	Variant         string        `envconfig:"LPS_VARIANT"      default:"standard"`
	ManifestPath    string        `envconfig:"MANIFEST_PATH"`
	GrpcPort        string        `envconfig:"GRPC_PORT"` // empty disables the gRPC health server
	DispatchWorkers int           `envconfig:"DISPATCH_WORKERS" default:"8"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	// SeedOnStart is nil when SEED_ON_START is unset; see ShouldSeed.
	SeedOnStart     *bool         `envconfig:"SEED_ON_START"`
}

// ShouldSeed reports whether serve loads the demo data. Unless SEED_ON_START says
// otherwise, only the memory backend is seeded since it starts empty on every run.
func (c *Config) ShouldSeed() bool {
	if c.SeedOnStart != nil {
		return *c.SeedOnStart
	}
	return c.StorageBackend == BackendMemory
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		logger.Warnf("Error loading .env file (but continuing): %v", err)
	} else if err == nil {
		logger.Info("Loaded configuration from .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Infof("Configuration loaded: Backend=%s, Variant=%s, LogLevel=%s", cfg.StorageBackend, cfg.Variant, cfg.LogLevel)
	if cfg.DatabaseURL != "" {
		logger.Info("Configuration loaded: DatabaseURL is set")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("configuration error: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.DispatchWorkers <= 0 {
		return fmt.Errorf("configuration error: DISPATCH_WORKERS must be positive, got %d", c.DispatchWorkers)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	return nil
}
