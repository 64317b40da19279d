// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Classifier   ClassifierConfig   `mapstructure:"classifier"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Alerts       AlertsConfig       `mapstructure:"alerts"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
}

// TracingConfig holds the Jaeger collector endpoint; empty disables export.
type TracingConfig struct {
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// TwilioConfig holds the webhook signing secret and provider identity.
type TwilioConfig struct {
	AuthToken         string `mapstructure:"auth_token"`
	PhoneNumber       string `mapstructure:"phone_number"`
	WebhookBaseURL    string `mapstructure:"webhook_base_url"`
	SkipSignature     bool   `mapstructure:"skip_signature"`     // development bypass only
	SkipAuthorization bool   `mapstructure:"skip_authorization"` // skip allow-list checks
	MaxBodyLength     int    `mapstructure:"max_body_length"`    // outbound message bound
}

// RateLimitConfig holds the fixed-window abuse limits.
type RateLimitConfig struct {
	WindowSeconds   int `mapstructure:"window_seconds"`
	MaxPerWindow    int `mapstructure:"max_per_window"`
	CleanupInterval int `mapstructure:"cleanup_interval"` // seconds
}

// ConversationConfig holds per-sender context memory settings.
type ConversationConfig struct {
	TTLMinutes    int `mapstructure:"ttl_minutes"`
	SweepInterval int `mapstructure:"sweep_interval"` // seconds
}

type ClassifierConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address       string `mapstructure:"address"`
	Password      string `mapstructure:"password"`
	DB            int    `mapstructure:"db"`
	DedupeTTL     int    `mapstructure:"dedupe_ttl"` // minutes
	DedupeEnabled bool   `mapstructure:"dedupe_enabled"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	Enabled   bool     `mapstructure:"enabled"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// AlertsConfig holds settings for operator security alerts.
type AlertsConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	AWSRegion        string `mapstructure:"aws_region"`
	FailureThreshold int    `mapstructure:"failure_threshold"` // signature failures per window
	WindowSeconds    int    `mapstructure:"window_seconds"`
	Email            struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		PhoneNumber string `mapstructure:"phone_number"`
		SenderID    string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
