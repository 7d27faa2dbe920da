package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Auth          AuthConfig
	Mail          MailConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds credential store configuration. The store is
// required; the service does not start without it.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnTimeout  time.Duration
}

// CacheConfig holds the optional revocation/rate-limit cache configuration.
// An empty RedisURL disables the cache entirely (degraded mode: no rate
// limiting, no blacklist enforcement).
type CacheConfig struct {
	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// Enabled reports whether a cache backend is configured
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

// AuthConfig holds token and credential policy configuration
type AuthConfig struct {
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int
	LoginMaxAttempts int
	LoginWindow      time.Duration
	ResetTokenTTL    time.Duration
}

// MailConfig holds the password-reset mail delivery configuration. An empty
// SMTPAddr routes mail to the log-only sender.
type MailConfig struct {
	SMTPAddr string
	From     string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// LoadConfig builds configuration from defaults, an optional YAML file named
// by AUTH_CONFIG_FILE, and environment variables, in that order (environment
// wins).
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("AUTH_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			ConnTimeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			RedisDB:       0,
			RedisPoolSize: 10,
		},
		Auth: AuthConfig{
			AccessTokenTTL:   time.Hour,
			RefreshTokenTTL:  7 * 24 * time.Hour,
			BcryptCost:       10,
			LoginMaxAttempts: 5,
			LoginWindow:      15 * time.Minute,
			ResetTokenTTL:    time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			MetricsEnabled: true,
		},
	}
}

// fileConfig mirrors Config for YAML overlay. Durations are strings so the
// file can say "15m" the same way the environment does.
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database struct {
		URL          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		ConnTimeout  string `yaml:"conn_timeout"`
	} `yaml:"database"`
	Cache struct {
		RedisURL      string `yaml:"redis_url"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       *int   `yaml:"redis_db"`
		RedisPoolSize int    `yaml:"redis_pool_size"`
	} `yaml:"cache"`
	Auth struct {
		JWTSecret        string `yaml:"jwt_secret"`
		AccessTokenTTL   string `yaml:"access_token_ttl"`
		RefreshTokenTTL  string `yaml:"refresh_token_ttl"`
		BcryptCost       int    `yaml:"bcrypt_cost"`
		LoginMaxAttempts int    `yaml:"login_max_attempts"`
		LoginWindow      string `yaml:"login_window"`
		ResetTokenTTL    string `yaml:"reset_token_ttl"`
	} `yaml:"auth"`
	Mail struct {
		SMTPAddr string `yaml:"smtp_addr"`
		From     string `yaml:"from"`
	} `yaml:"mail"`
	Observability struct {
		LogLevel       string `yaml:"log_level"`
		MetricsEnabled *bool  `yaml:"metrics_enabled"`
	} `yaml:"observability"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	setString(&cfg.Server.Host, fc.Server.Host)
	setString(&cfg.Server.Port, fc.Server.Port)
	setDuration(&cfg.Server.ReadTimeout, fc.Server.ReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, fc.Server.WriteTimeout)
	setDuration(&cfg.Server.IdleTimeout, fc.Server.IdleTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, fc.Server.ShutdownTimeout)

	setString(&cfg.Database.URL, fc.Database.URL)
	setInt(&cfg.Database.MaxOpenConns, fc.Database.MaxOpenConns)
	setInt(&cfg.Database.MaxIdleConns, fc.Database.MaxIdleConns)
	setDuration(&cfg.Database.ConnTimeout, fc.Database.ConnTimeout)

	setString(&cfg.Cache.RedisURL, fc.Cache.RedisURL)
	setString(&cfg.Cache.RedisPassword, fc.Cache.RedisPassword)
	if fc.Cache.RedisDB != nil {
		cfg.Cache.RedisDB = *fc.Cache.RedisDB
	}
	setInt(&cfg.Cache.RedisPoolSize, fc.Cache.RedisPoolSize)

	setString(&cfg.Auth.JWTSecret, fc.Auth.JWTSecret)
	setDuration(&cfg.Auth.AccessTokenTTL, fc.Auth.AccessTokenTTL)
	setDuration(&cfg.Auth.RefreshTokenTTL, fc.Auth.RefreshTokenTTL)
	setInt(&cfg.Auth.BcryptCost, fc.Auth.BcryptCost)
	setInt(&cfg.Auth.LoginMaxAttempts, fc.Auth.LoginMaxAttempts)
	setDuration(&cfg.Auth.LoginWindow, fc.Auth.LoginWindow)
	setDuration(&cfg.Auth.ResetTokenTTL, fc.Auth.ResetTokenTTL)

	setString(&cfg.Mail.SMTPAddr, fc.Mail.SMTPAddr)
	setString(&cfg.Mail.From, fc.Mail.From)

	setString(&cfg.Observability.LogLevel, fc.Observability.LogLevel)
	if fc.Observability.MetricsEnabled != nil {
		cfg.Observability.MetricsEnabled = *fc.Observability.MetricsEnabled
	}

	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("AUTH_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("AUTH_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("AUTH_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("AUTH_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("AUTH_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("AUTH_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.URL = getEnv("AUTH_POSTGRES_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = getEnvInt("AUTH_POSTGRES_MAX_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("AUTH_POSTGRES_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnTimeout = getEnvDuration("AUTH_POSTGRES_TIMEOUT", cfg.Database.ConnTimeout)

	cfg.Cache.RedisURL = getEnv("AUTH_REDIS_URL", cfg.Cache.RedisURL)
	cfg.Cache.RedisPassword = getEnv("AUTH_REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = getEnvInt("AUTH_REDIS_DB", cfg.Cache.RedisDB)
	cfg.Cache.RedisPoolSize = getEnvInt("AUTH_REDIS_POOL_SIZE", cfg.Cache.RedisPoolSize)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.AccessTokenTTL = getEnvDuration("AUTH_ACCESS_TOKEN_TTL", cfg.Auth.AccessTokenTTL)
	cfg.Auth.RefreshTokenTTL = getEnvDuration("AUTH_REFRESH_TOKEN_TTL", cfg.Auth.RefreshTokenTTL)
	cfg.Auth.BcryptCost = getEnvInt("AUTH_BCRYPT_COST", cfg.Auth.BcryptCost)
	cfg.Auth.LoginMaxAttempts = getEnvInt("AUTH_LOGIN_MAX_ATTEMPTS", cfg.Auth.LoginMaxAttempts)
	cfg.Auth.LoginWindow = getEnvDuration("AUTH_LOGIN_WINDOW", cfg.Auth.LoginWindow)
	cfg.Auth.ResetTokenTTL = getEnvDuration("AUTH_RESET_TOKEN_TTL", cfg.Auth.ResetTokenTTL)

	cfg.Mail.SMTPAddr = getEnv("AUTH_SMTP_ADDR", cfg.Mail.SMTPAddr)
	cfg.Mail.From = getEnv("AUTH_MAIL_FROM", cfg.Mail.From)

	cfg.Observability.LogLevel = getEnv("AUTH_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.MetricsEnabled = getEnvBool("AUTH_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Auth.AccessTokenTTL >= c.Auth.RefreshTokenTTL {
		return fmt.Errorf("access token lifetime must be shorter than refresh token lifetime")
	}
	if c.Auth.LoginMaxAttempts <= 0 {
		return fmt.Errorf("login max attempts must be positive")
	}
	if c.Auth.LoginWindow <= 0 {
		return fmt.Errorf("login window must be positive")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
