package config

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "json" or "console".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	// FirebaseWebAPIKey is used for password sign-in through the Identity Toolkit REST API.
	FirebaseWebAPIKey string `mapstructure:"FIREBASE_WEB_API_KEY"`

	EncryptionKey   string `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	// ClientURL is the SPA origin. It drives CORS and the Stripe redirect URI.
	ClientURL string `mapstructure:"CLIENT_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	// RedisPrefix namespaces every key. The server and the admin tool must agree on it.
	RedisPrefix     string        `mapstructure:"REDIS_PREFIX"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`
	StripeStateTTL  time.Duration `mapstructure:"STRIPE_STATE_TTL"`

	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`
	NotifierQueue  string `mapstructure:"NOTIFIER_QUEUE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

var envKeys = []string{
	"PORT", "GIN_MODE", "LOG_LEVEL", "LOG_FORMAT",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "FIREBASE_WEB_API_KEY",
	"ENCRYPTION_KEY", "STRIPE_SECRET_KEY", "CLIENT_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX", "CATALOG_CACHE_TTL", "STRIPE_STATE_TTL",
	"RABBITMQ_URL", "EVENTS_EXCHANGE", "NOTIFIER_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_FROM",
	"REQUEST_TIMEOUT",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "coachgest:")
	v.SetDefault("CATALOG_CACHE_TTL", 5*time.Minute)
	v.SetDefault("STRIPE_STATE_TTL", 15*time.Minute)
	v.SetDefault("EVENTS_EXCHANGE", "coachgest.events")
	v.SetDefault("NOTIFIER_QUEUE", "coachgest.notifier")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("MAIL_FROM", "CoachGest <noreply@coachgest.com>")
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
		return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if c.FirebaseWebAPIKey == "" {
		return errors.New("FIREBASE_WEB_API_KEY is required")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	if _, err := c.DecodedEncryptionKey(); err != nil {
		return err
	}
	if c.ClientURL == "" {
		return errors.New("CLIENT_URL is required")
	}
	if c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	return nil
}

// DecodedEncryptionKey returns the raw AES-256 key.
func (c *Config) DecodedEncryptionKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, errors.New("ENCRYPTION_KEY must be base64 encoded: " + err.Error())
	}
	if len(key) != 32 {
		return nil, errors.New("ENCRYPTION_KEY must decode to 32 bytes")
	}
	return key, nil
}

// ClientOrigin returns ClientURL without a trailing slash.
func (c *Config) ClientOrigin() string {
	return strings.TrimRight(c.ClientURL, "/")
}
