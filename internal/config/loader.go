package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "taskdock.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TASKDOCK_PORT")
	setString(&cfg.Server.CORSOrigin, "TASKDOCK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TASKDOCK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TASKDOCK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TASKDOCK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TASKDOCK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TASKDOCK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Sandbox.WorkspaceRoot, "TASKDOCK_WORKSPACE_ROOT")
	setString(&cfg.Sandbox.ProjectsRoot, "TASKDOCK_PROJECTS_ROOT")
	setString(&cfg.Render.ChromiumPath, "TASKDOCK_CHROMIUM_PATH")
	setDuration(&cfg.Render.Timeout, "TASKDOCK_RENDER_TIMEOUT")
	setInt(&cfg.Render.MaxConcurrent, "TASKDOCK_RENDER_MAX_CONCURRENT")
	setInt64(&cfg.Cache.MaxSizeMB, "TASKDOCK_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.ProbeTTL, "TASKDOCK_CACHE_PROBE_TTL")
	setString(&cfg.Logging.Level, "TASKDOCK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TASKDOCK_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TASKDOCK_LOG_ASYNC")
	setBool(&cfg.Telemetry.Enabled, "TASKDOCK_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "TASKDOCK_OTEL_ENDPOINT")
}

// validate rejects configurations the service cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn must not be empty")
	}
	if len(cfg.Sandbox.Roots()) == 0 {
		return errors.New("sandbox: at least one root must be configured")
	}
	if cfg.Render.Timeout <= 0 {
		return errors.New("render.timeout must be positive")
	}
	if cfg.Render.MaxConcurrent < 1 {
		return errors.New("render.max_concurrent must be at least 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
