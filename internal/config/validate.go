package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must be >= 0")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if (c.API.Login == "") != (c.API.Password == "") {
		return errors.New("api.login and api.password must be set together")
	}

	if err := c.Streamer.validate("streamer"); err != nil {
		return err
	}

	for i, sub := range c.Subscriptions {
		if err := sub.validate(fmt.Sprintf("subscriptions[%d]", i)); err != nil {
			return err
		}
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
		}
	}

	return nil
}

func (s *StreamerConfig) validate(prefix string) error {
	if s.URL != "" {
		if err := validateURL(prefix+".url", s.URL, "ws", "wss"); err != nil {
			return err
		}
	}
	if s.KeepaliveTimeout < 1 {
		return fmt.Errorf("%s.keepalive_timeout must be >= 1", prefix)
	}
	if s.AggregationPeriod < 0 {
		return fmt.Errorf("%s.aggregation_period must be >= 0", prefix)
	}
	if s.MaxSubscriptionSize < 1 {
		return fmt.Errorf("%s.max_subscription_size must be >= 1", prefix)
	}
	if s.SubscribeBurst < 1 {
		return fmt.Errorf("%s.subscribe_burst must be >= 1", prefix)
	}
	if s.BufferSize < 1 {
		return fmt.Errorf("%s.buffer_size must be >= 1", prefix)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%s.poll_interval must be > 0", prefix)
	}
	b := s.ConnectBackoff
	if b.InitialInterval > b.MaxInterval {
		return fmt.Errorf("%s.connect_backoff.initial_interval (%s) cannot exceed max_interval (%s)",
			prefix, b.InitialInterval, b.MaxInterval)
	}
	return nil
}

func (s *SubscriptionConfig) validate(prefix string) error {
	if s.EventType == "" {
		return fmt.Errorf("%s.event_type is required", prefix)
	}
	if len(s.Symbols) == 0 && len(s.OptionSymbols) == 0 {
		return fmt.Errorf("%s needs at least one of symbols or option_symbols", prefix)
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", field, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s scheme must be one of %s, got %q", field, strings.Join(schemes, ", "), u.Scheme)
}
