package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL             = "https://api.tastyworks.com"
	DefaultTokenEnv            = "TASTYWORKS_API_TOKEN"
	DefaultAPITimeout          = 30 * time.Second
	DefaultMaxRetries          = 3
	DefaultVersion             = "0.1-DXF-JS-0.3.0"
	DefaultKeepaliveTimeout    = 60
	DefaultAggregationPeriod   = 10.0
	DefaultMaxSubscriptionSize = 500
	DefaultSubscribeRate       = 5.0
	DefaultSubscribeBurst      = 1
	DefaultWriteTimeout        = 5 * time.Second
	DefaultHandshakeTimeout    = 10 * time.Second
	DefaultBufferSize          = 1024
	DefaultPollInterval        = time.Second
	DefaultBackoffInitial      = time.Second
	DefaultBackoffMax          = 30 * time.Second
	DefaultBackoffElapsed      = 5 * time.Minute
	DefaultLogLevel            = "info"
	DefaultMetricsPort         = 9090
	DefaultMetricsPath         = "/metrics"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.TokenEnv == "" {
		c.API.TokenEnv = DefaultTokenEnv
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Streamer defaults
	s := &c.Streamer
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	if s.KeepaliveTimeout == 0 {
		s.KeepaliveTimeout = DefaultKeepaliveTimeout
	}
	if s.AggregationPeriod == 0 {
		s.AggregationPeriod = DefaultAggregationPeriod
	}
	if s.MaxSubscriptionSize == 0 {
		s.MaxSubscriptionSize = DefaultMaxSubscriptionSize
	}
	if s.SubscribeRate == 0 {
		s.SubscribeRate = DefaultSubscribeRate
	}
	if s.SubscribeBurst == 0 {
		s.SubscribeBurst = DefaultSubscribeBurst
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.HandshakeTimeout == 0 {
		s.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if s.BufferSize == 0 {
		s.BufferSize = DefaultBufferSize
	}
	if s.PollInterval == 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.ConnectBackoff.InitialInterval == 0 {
		s.ConnectBackoff.InitialInterval = DefaultBackoffInitial
	}
	if s.ConnectBackoff.MaxInterval == 0 {
		s.ConnectBackoff.MaxInterval = DefaultBackoffMax
	}
	if s.ConnectBackoff.MaxElapsedTime == 0 {
		s.ConnectBackoff.MaxElapsedTime = DefaultBackoffElapsed
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
