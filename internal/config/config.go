package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	Mail      MailConfig      `yaml:"mail"`
	Invite    InviteConfig    `yaml:"invite"`
	Timer     TimerConfig     `yaml:"timer"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	BaseURL        string   `yaml:"base_url"`
	SessionSecret  string   `yaml:"session_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite only
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MailConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	FailSilently bool   `yaml:"fail_silently"`
}

type InviteConfig struct {
	TokenSecret string        `yaml:"token_secret"`
	TTL         time.Duration `yaml:"ttl"`
}

type TimerConfig struct {
	// SingleOpenLog makes start a no-op while the caller already has an open log on the task.
	SingleOpenLog bool `yaml:"single_open_log"`
}

type RateLimitConfig struct {
	LoginAttempts int           `yaml:"login_attempts"`
	LoginWindow   time.Duration `yaml:"login_window"`
}

// Default returns the built-in configuration used before any file or environment override.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			GinMode:       "debug",
			BaseURL:       "http://localhost:8080",
			SessionSecret: "default-secret-key-change-me",
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "taskuser",
			Password: "taskpassword",
			Name:     "taskhub",
			SSLMode:  "disable",
			Path:     "taskhub.db",
			LogLevel: "warn",
		},
		Redis: RedisConfig{Port: 6379},
		Log:   LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Mail: MailConfig{
			Port: 587,
			From: "admin@example.com",
		},
		Invite: InviteConfig{
			TokenSecret: "default-invite-secret-change-me",
			TTL:         7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{LoginAttempts: 10, LoginWindow: time.Minute},
	}
}

// Load builds the configuration from defaults, an optional YAML file, .env and the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Default()

	paths := []string{"etc/taskhub.yaml", "/etc/taskhub/config.yaml"}
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		paths = []string{file}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
			}
			break
		}
	}

	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.BaseURL = strings.TrimRight(getEnv("BASE_URL", cfg.Server.BaseURL), "/")
	cfg.Server.SessionSecret = getEnv("SESSION_SECRET", cfg.Server.SessionSecret)
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.Database.LogLevel = getEnv("DB_LOG_LEVEL", cfg.Database.LogLevel)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnvInt("REDIS_PORT", cfg.Redis.Port)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.JSON = getEnvBool("LOG_JSON", cfg.Log.JSON)

	cfg.Mail.Host = getEnv("MAIL_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvInt("MAIL_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("MAIL_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("MAIL_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("MAIL_FROM", cfg.Mail.From)
	cfg.Mail.FailSilently = getEnvBool("MAIL_FAIL_SILENTLY", cfg.Mail.FailSilently)

	cfg.Invite.TokenSecret = getEnv("INVITE_TOKEN_SECRET", cfg.Invite.TokenSecret)
	cfg.Invite.TTL = getEnvDuration("INVITE_TTL", cfg.Invite.TTL)

	cfg.Timer.SingleOpenLog = getEnvBool("TIMER_SINGLE_OPEN_LOG", cfg.Timer.SingleOpenLog)

	cfg.RateLimit.LoginAttempts = getEnvInt("LOGIN_RATE_LIMIT", cfg.RateLimit.LoginAttempts)
	cfg.RateLimit.LoginWindow = getEnvDuration("LOGIN_RATE_WINDOW", cfg.RateLimit.LoginWindow)

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// RedisAddr returns host:port, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
