// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration
type Config struct {
	Port        string   `env:"PORT" envDefault:"8787"`
	Environment string   `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL     string   `env:"APP_BASE_URL" envDefault:"http://localhost:8787"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:5502"`

	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Email    EmailConfig
	Gemini   GeminiConfig
	Search   SearchConfig
	OAuth    OAuthConfig
	Tracing  TracingConfig
	Limits   RateLimitConfig
	Cleanup  CleanupConfig
}

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	File  string `env:"LOG_FILE" envDefault:"server.log"`
}

type DatabaseConfig struct {
	Driver   string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	URL      string `env:"DATABASE_URL"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"chirp"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	// SQLitePath is used when Driver is "sqlite"
	SQLitePath string `env:"SQLITE_PATH" envDefault:"chirp.db"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type AuthConfig struct {
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	CookieDomain       string        `env:"COOKIE_DOMAIN"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
}

// Enabled reports whether a Redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type StorageConfig struct {
	Backend  string `env:"STORAGE_BACKEND" envDefault:"local"`
	LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./uploads"`

	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSBucket string `env:"AWS_BUCKET"`
	CDNURL    string `env:"CDN_URL"`

	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"chirp-media"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type EmailConfig struct {
	Region    string `env:"SES_REGION" envDefault:"us-east-1"`
	FromEmail string `env:"SES_FROM_EMAIL"`
	FromName  string `env:"SES_FROM_NAME" envDefault:"Chirp"`
}

type GeminiConfig struct {
	APIKey  string `env:"GEMINI_API_KEY"`
	Model   string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	BaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
}

type SearchConfig struct {
	ElasticsearchURL string `env:"ELASTICSEARCH_URL"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL        string `env:"OAUTH_REDIRECT_URL"`
	// FrontendURL is where the browser lands after a successful Google sign-in
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

// GoogleEnabled reports whether Google sign-in is fully configured
func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != "" && o.RedirectURL != ""
}

type TracingConfig struct {
	Enabled      bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SamplingRate float64 `env:"OTEL_SAMPLING_RATE" envDefault:"1.0"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	// AuthRequests bounds login, register and OTP endpoints per window
	AuthRequests int `env:"RATE_LIMIT_AUTH_REQUESTS" envDefault:"20"`
	// WSMessagesPerSecond and WSBurst bound inbound frames per websocket connection
	WSMessagesPerSecond int `env:"WS_MESSAGES_PER_SECOND" envDefault:"10"`
	WSBurst             int `env:"WS_BURST" envDefault:"20"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func (c *Config) validate() error {
	if c.IsDevelopment() {
		if c.Auth.AccessTokenSecret == "" {
			c.Auth.AccessTokenSecret = "dev-access-secret"
		}
		if c.Auth.RefreshTokenSecret == "" {
			c.Auth.RefreshTokenSecret = "dev-refresh-secret"
		}
		return nil
	}
	if c.Auth.AccessTokenSecret == "" || c.Auth.RefreshTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required outside development")
	}
	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return nil
}

type CleanupConfig struct {
	Interval              time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"2160h"`
}
