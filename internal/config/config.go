package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	LogMode         string
	CORSOrigins     []string
	LoginRateLimit  int
	LoginRateWindow time.Duration
	ShutdownTimeout time.Duration
}

// fileConfig mirrors the keys accepted in the optional YAML file.
type fileConfig struct {
	Port                  string `yaml:"port"`
	DatabaseType          string `yaml:"db_type"`
	DatabasePath          string `yaml:"db_path"`
	DatabaseURL           string `yaml:"database_url"`
	JWTSecret             string `yaml:"jwt_secret_key"`
	AccessTokenExpireMins int    `yaml:"jwt_access_token_expire_minutes"`
	LogMode               string `yaml:"log_mode"`
	CORSOrigins           string `yaml:"cors_allowed_origins"`
	LoginRateLimit        int    `yaml:"login_rate_limit"`
	LoginRateWindow       string `yaml:"login_rate_window"`
	ShutdownTimeout       string `yaml:"shutdown_timeout"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory and a YAML file named by CONFIG_FILE are
// consulted first; real environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(path); err != nil {
			return nil, err
		}
	}

	return &Config{
		ServerPort:      getEnv("PORT", "8000"),
		DatabaseType:    strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DatabasePath:    getEnv("DB_PATH", "./thrivepath.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET_KEY", ""),
		AccessTokenTTL:  time.Duration(getEnvInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		LogMode:         getEnv("LOG_MODE", "dev"),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}, nil
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseType {
	case "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case "postgres", "postgresql", "pgx", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_TYPE %q", c.DatabaseType))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must be positive"))
	}
	if c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// applyFile exports YAML values as environment defaults without overriding
// anything already set.
func applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	defaults := map[string]string{
		"PORT":                 fc.Port,
		"DB_TYPE":              fc.DatabaseType,
		"DB_PATH":              fc.DatabasePath,
		"DATABASE_URL":         fc.DatabaseURL,
		"JWT_SECRET_KEY":       fc.JWTSecret,
		"LOG_MODE":             fc.LogMode,
		"CORS_ALLOWED_ORIGINS": fc.CORSOrigins,
		"LOGIN_RATE_WINDOW":    fc.LoginRateWindow,
		"SHUTDOWN_TIMEOUT":     fc.ShutdownTimeout,
	}
	if fc.AccessTokenExpireMins > 0 {
		defaults["JWT_ACCESS_TOKEN_EXPIRE_MINUTES"] = strconv.Itoa(fc.AccessTokenExpireMins)
	}
	if fc.LoginRateLimit > 0 {
		defaults["LOGIN_RATE_LIMIT"] = strconv.Itoa(fc.LoginRateLimit)
	}
	for key, value := range defaults {
		if value == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to apply %s: %w", key, err)
		}
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
