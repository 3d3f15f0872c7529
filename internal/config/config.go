package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"taskmanager/internal/constants"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"` // prefix for absolute avatar URLs; empty = host-relative
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	BcryptCost int           `yaml:"bcrypt_cost"`
	TokenTTL   time.Duration `yaml:"token_ttl"` // 0 = tokens live until revoked
}

type EmailConfig struct {
	SMTP SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Enabled reports whether outbound mail is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type UploadsConfig struct {
	AvatarMaxBytes int64 `yaml:"avatar_max_bytes"`
	AvatarSize     int   `yaml:"avatar_size"`
}

type RateLimitConfig struct {
	AuthRequests int           `yaml:"auth_requests"`
	AuthWindow   time.Duration `yaml:"auth_window"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TASKS_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("TASKS_SMTP_PASSWORD"); v != "" {
		c.Email.SMTP.Password = v
	}
	if v := os.Getenv("TASKS_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.token_ttl must not be negative")
	}
	if c.Email.SMTP.Enabled() {
		if c.Email.SMTP.Port == 0 {
			return fmt.Errorf("email.smtp.port is required")
		}
		if c.Email.SMTP.From == "" {
			return fmt.Errorf("email.smtp.from is required")
		}
	}
	if c.Uploads.AvatarMaxBytes < 0 {
		return fmt.Errorf("uploads.avatar_max_bytes must not be negative")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "Task Manager"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/tasks.db"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Uploads.AvatarMaxBytes == 0 {
		c.Uploads.AvatarMaxBytes = constants.AvatarMaxUploadBytes
	}
	if c.Uploads.AvatarSize == 0 {
		c.Uploads.AvatarSize = constants.AvatarEdge
	}
	if c.RateLimit.AuthRequests == 0 {
		c.RateLimit.AuthRequests = 10
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = time.Minute
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
