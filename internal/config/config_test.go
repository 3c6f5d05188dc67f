package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: https://api.cert.example.com
  login: trader
  password: hunter2
streamer:
  url: wss://feed.example.com/realtime
  poll_interval: 250ms
  connect_backoff:
    initial_interval: 2s
subscriptions:
  - event_type: Quote
    symbols: [SPY, AAPL]
  - event_type: Greeks
    fields: [eventSymbol, delta]
    option_symbols:
      - "IQ    200918P00017500"
logging:
  level: debug
  dev_mode: true
metrics:
  enabled: true
  port: 9100
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.cert.example.com" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Login != "trader" || cfg.API.Password != "hunter2" {
		t.Errorf("API credentials = %q/%q", cfg.API.Login, cfg.API.Password)
	}
	if cfg.Streamer.URL != "wss://feed.example.com/realtime" {
		t.Errorf("Streamer.URL = %q", cfg.Streamer.URL)
	}
	if cfg.Streamer.PollInterval != 250*time.Millisecond {
		t.Errorf("Streamer.PollInterval = %v, want 250ms", cfg.Streamer.PollInterval)
	}
	if cfg.Streamer.ConnectBackoff.InitialInterval != 2*time.Second {
		t.Errorf("ConnectBackoff.InitialInterval = %v, want 2s", cfg.Streamer.ConnectBackoff.InitialInterval)
	}
	if len(cfg.Subscriptions) != 2 {
		t.Fatalf("len(Subscriptions) = %d, want 2", len(cfg.Subscriptions))
	}
	if got := cfg.Subscriptions[0].Symbols; len(got) != 2 || got[1] != "AAPL" {
		t.Errorf("Subscriptions[0].Symbols = %v", got)
	}
	if got := cfg.Subscriptions[1].OptionSymbols; len(got) != 1 || got[0] != "IQ    200918P00017500" {
		t.Errorf("Subscriptions[1].OptionSymbols = %v", got)
	}
	if !cfg.Logging.DevMode || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9100 {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_TASTY_PASSWORD", "secret123")

	yaml := `
api:
  login: trader
  password: ${TEST_TASTY_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.Password != "secret123" {
		t.Errorf("API.Password = %q, want %q", cfg.API.Password, "secret123")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeTempFile(t, "api: [unterminated")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config yaml") {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "subscriptions: []\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.TokenEnv != DefaultTokenEnv {
		t.Errorf("API.TokenEnv = %q, want default %q", cfg.API.TokenEnv, DefaultTokenEnv)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Streamer.MaxSubscriptionSize != DefaultMaxSubscriptionSize {
		t.Errorf("Streamer.MaxSubscriptionSize = %d, want default %d", cfg.Streamer.MaxSubscriptionSize, DefaultMaxSubscriptionSize)
	}
	if cfg.Streamer.KeepaliveTimeout != DefaultKeepaliveTimeout {
		t.Errorf("Streamer.KeepaliveTimeout = %d, want default %d", cfg.Streamer.KeepaliveTimeout, DefaultKeepaliveTimeout)
	}
	if cfg.Streamer.ConnectBackoff.MaxElapsedTime != DefaultBackoffElapsed {
		t.Errorf("ConnectBackoff.MaxElapsedTime = %v, want default %v", cfg.Streamer.ConnectBackoff.MaxElapsedTime, DefaultBackoffElapsed)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "logging:\n  level: loud\n")
	_, err := LoadAndValidate(path)
	if err == nil || !strings.HasPrefix(err.Error(), "validate config: logging.level") {
		t.Errorf("error = %v, want logging.level validation error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "bad base url",
			mutate:  func(c *Config) { c.API.BaseURL = "api.tastyworks.com" },
			wantErr: `api.base_url must be an absolute URL, got "api.tastyworks.com"`,
		},
		{
			name:    "websocket base url",
			mutate:  func(c *Config) { c.API.BaseURL = "wss://api.example.com" },
			wantErr: `api.base_url scheme must be one of http, https, got "wss"`,
		},
		{
			name:    "login without password",
			mutate:  func(c *Config) { c.API.Login = "trader" },
			wantErr: "api.login and api.password must be set together",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.API.MaxRetries = -1 },
			wantErr: "api.max_retries must be >= 0",
		},
		{
			name:    "http streamer url",
			mutate:  func(c *Config) { c.Streamer.URL = "https://feed.example.com" },
			wantErr: `streamer.url scheme must be one of ws, wss, got "https"`,
		},
		{
			name:    "zero subscription size",
			mutate:  func(c *Config) { c.Streamer.MaxSubscriptionSize = -5 },
			wantErr: "streamer.max_subscription_size must be >= 1",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Streamer.PollInterval = -time.Second },
			wantErr: "streamer.poll_interval must be > 0",
		},
		{
			name: "backoff initial exceeds max",
			mutate: func(c *Config) {
				c.Streamer.ConnectBackoff.InitialInterval = time.Minute
				c.Streamer.ConnectBackoff.MaxInterval = time.Second
			},
			wantErr: "streamer.connect_backoff.initial_interval (1m0s) cannot exceed max_interval (1s)",
		},
		{
			name: "subscription without event type",
			mutate: func(c *Config) {
				c.Subscriptions = []SubscriptionConfig{{EventType: "Quote", Symbols: []string{"SPY"}}, {Symbols: []string{"SPY"}}}
			},
			wantErr: "subscriptions[1].event_type is required",
		},
		{
			name: "subscription without symbols",
			mutate: func(c *Config) {
				c.Subscriptions = []SubscriptionConfig{{EventType: "Quote"}}
			},
			wantErr: "subscriptions[0] needs at least one of symbols or option_symbols",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: `logging.level must be one of debug, info, warn, error, got "verbose"`,
		},
		{
			name: "metrics port out of range",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name: "metrics disabled ignores port",
			mutate: func(c *Config) {
				c.Metrics.Port = 70000
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
