package config

import "time"

// Config is the root configuration.
type Config struct {
	API           APIConfig            `yaml:"api"`
	Streamer      StreamerConfig       `yaml:"streamer"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions"`
	Logging       LoggingConfig        `yaml:"logging"`
	Metrics       MetricsConfig        `yaml:"metrics"`
}

// APIConfig holds REST settings and credentials.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`     // Session token; skips login when set
	TokenEnv   string        `yaml:"token_env"` // Environment variable holding a session token
	Login      string        `yaml:"login"`
	Password   string        `yaml:"password"`
	OTP        string        `yaml:"otp"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StreamerConfig holds feed connection settings.
type StreamerConfig struct {
	URL                 string        `yaml:"url"` // Overrides the URL returned with the quote token
	Version             string        `yaml:"version"`
	KeepaliveTimeout    int           `yaml:"keepalive_timeout"`
	AggregationPeriod   float64       `yaml:"aggregation_period"`
	MaxSubscriptionSize int           `yaml:"max_subscription_size"`
	SubscribeRate       float64       `yaml:"subscribe_rate"`
	SubscribeBurst      int           `yaml:"subscribe_burst"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	HandshakeTimeout    time.Duration `yaml:"handshake_timeout"`
	BufferSize          int           `yaml:"buffer_size"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	ConnectBackoff      BackoffConfig `yaml:"connect_backoff"`
}

// BackoffConfig bounds connect retries.
type BackoffConfig struct {
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time"`
}

// SubscriptionConfig is one event type subscribed at startup.
// OptionSymbols are brokerage option identifiers converted to quote symbols.
type SubscriptionConfig struct {
	EventType     string   `yaml:"event_type"`
	Fields        []string `yaml:"fields"`
	Symbols       []string `yaml:"symbols"`
	OptionSymbols []string `yaml:"option_symbols"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	DevMode bool   `yaml:"dev_mode"`
}

// MetricsConfig holds metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
