package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Env           string  `yaml:"env"`
	Port          string  `yaml:"port"`
	DatabaseURL   string  `yaml:"database_url"`
	JWTSecret     string  `yaml:"jwt_secret"`
	CORSOrigin    string  `yaml:"cors_origin"`
	StorageDriver string  `yaml:"storage_driver"`
	SQLitePath    string  `yaml:"sqlite_path"`
	MigrationsDir string  `yaml:"migrations_dir"`
	LogLevel      string  `yaml:"log_level"`
	AuthRateLimit float64 `yaml:"auth_rate_limit"`
}

func Default() Config {
	return Config{
		Env:           "dev",
		Port:          "8080",
		StorageDriver: DriverPostgres,
		SQLitePath:    "neuropulse.db",
		MigrationsDir: "migrations",
		LogLevel:      "info",
		AuthRateLimit: 5,
	}
}

// Load reads .env, then the optional YAML file named by CONFIG_FILE, then
// environment variables. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" && cfg.Env != "prod" {
		cfg.JWTSecret = "dev-secret"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Env = get("ENV", c.Env)
	c.Port = get("PORT", c.Port)
	c.DatabaseURL = get("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = get("JWT_SECRET", c.JWTSecret)
	c.CORSOrigin = get("CORS_ORIGIN", c.CORSOrigin)
	c.StorageDriver = get("STORAGE_DRIVER", c.StorageDriver)
	c.SQLitePath = get("SQLITE_PATH", c.SQLitePath)
	c.MigrationsDir = get("MIGRATIONS_DIR", c.MigrationsDir)
	c.LogLevel = get("LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
		}
		c.AuthRateLimit = limit
	}
	return nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AuthRateLimit <= 0 {
		return errors.New("AUTH_RATE_LIMIT must be positive")
	}
	return nil
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
