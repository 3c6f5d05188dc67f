package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/tastystream/internal/api"
	"github.com/rickgao/tastystream/internal/auth"
	"github.com/rickgao/tastystream/internal/config"
	"github.com/rickgao/tastystream/internal/feed"
	"github.com/rickgao/tastystream/internal/logging"
	"github.com/rickgao/tastystream/internal/metrics"
	"github.com/rickgao/tastystream/internal/poller"
	"github.com/rickgao/tastystream/internal/streamer"
	"github.com/rickgao/tastystream/internal/symbol"
	"github.com/rickgao/tastystream/internal/version"
)

func newStreamCmd() *cobra.Command {
	var (
		configPath string
		priceField string
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Connect to the quote feed and print decoded rows as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadAndValidate(configPath); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runStream(ctx, cfg, cmd.OutOrStdout(), priceField)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&priceField, "price-field", "", "print {symbol, price} pairs from this field instead of full rows")
	return cmd
}

func runStream(ctx context.Context, cfg *config.Config, out io.Writer, priceField string) error {
	logger, syncLog, err := logging.New(logging.Config{Level: cfg.Logging.Level, DevMode: cfg.Logging.DevMode})
	if err != nil {
		return err
	}
	defer func() { _ = syncLog() }()
	slog.SetDefault(logger)

	logger.Info("starting tastystream",
		"version", version.Version,
		"commit", version.Commit,
		"api_url", cfg.API.BaseURL,
	)

	subs, err := buildSubscriptions(cfg.Subscriptions)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return errors.New("no subscriptions configured")
	}

	apiClient := api.NewClient(cfg.API.BaseURL, nil,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithUserAgent(version.UserAgent()),
	)
	if err := establishSession(ctx, apiClient, cfg.API); err != nil {
		return err
	}

	tok, err := apiClient.QuoteStreamerToken(ctx)
	if err != nil {
		return err
	}
	feedURL := tok.DxLinkURL
	if cfg.Streamer.URL != "" {
		feedURL = cfg.Streamer.URL
	}
	logger.Info("quote token acquired", "url", feedURL, "level", tok.Level)

	var (
		collector *metrics.Collector
		registry  *prometheus.Registry
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		collector = metrics.NewCollector(registry)
	}

	client := streamer.New(streamer.Config{
		URL:                 feedURL,
		Version:             cfg.Streamer.Version,
		KeepaliveTimeout:    cfg.Streamer.KeepaliveTimeout,
		AggregationPeriod:   cfg.Streamer.AggregationPeriod,
		MaxSubscriptionSize: cfg.Streamer.MaxSubscriptionSize,
		SubscribeRate:       cfg.Streamer.SubscribeRate,
		SubscribeBurst:      cfg.Streamer.SubscribeBurst,
		WriteTimeout:        cfg.Streamer.WriteTimeout,
		HandshakeTimeout:    cfg.Streamer.HandshakeTimeout,
		BufferSize:          cfg.Streamer.BufferSize,
	}, tok.Token, logger, streamer.WithRecorder(collector))

	mgr := feed.NewManager(feed.Config{
		InitialInterval: cfg.Streamer.ConnectBackoff.InitialInterval,
		MaxInterval:     cfg.Streamer.ConnectBackoff.MaxInterval,
		MaxElapsedTime:  cfg.Streamer.ConnectBackoff.MaxElapsedTime,
		AttemptTimeout:  cfg.Streamer.HandshakeTimeout,
	}, client, subs, logger)

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), cfg.Metrics.Path, registry, mgr.Ready, logger)
		g.Go(func() error { return srv.Run(gctx) })
	}

	p := poller.New(poller.Config{Interval: cfg.Streamer.PollInterval}, mgr, newPrinter(out, priceField, logger), collector, logger)
	if err := p.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.Stop(shutdownCtx)
	})

	err = g.Wait()
	stats := p.Stats()
	logger.Info("tastystream stopped",
		"cycles", stats.Cycles,
		"rows", stats.Rows,
		"errors", stats.Errors,
		"reconnects", mgr.Stats().Connects-1,
	)
	return err
}

// establishSession logs in with credentials when configured, otherwise
// resolves a stored session token.
func establishSession(ctx context.Context, c *api.Client, cfg config.APIConfig) error {
	if cfg.Login != "" {
		_, err := c.Login(ctx, cfg.Login, cfg.Password, cfg.OTP)
		return err
	}
	s, err := auth.Resolve(cfg.Token, cfg.TokenEnv)
	if err != nil {
		return err
	}
	c.SetSession(s)
	return nil
}

// buildSubscriptions converts option identifiers to quote symbols and merges
// them with plain symbols.
func buildSubscriptions(cfgs []config.SubscriptionConfig) ([]feed.Subscription, error) {
	subs := make([]feed.Subscription, 0, len(cfgs))
	for _, sc := range cfgs {
		symbols := append([]string(nil), sc.Symbols...)
		for _, raw := range sc.OptionSymbols {
			q, err := symbol.FromString(raw).QuoteSymbol()
			if err != nil {
				return nil, fmt.Errorf("subscription %s: %w", sc.EventType, err)
			}
			symbols = append(symbols, q.String())
		}
		subs = append(subs, feed.Subscription{
			EventType: sc.EventType,
			Fields:    sc.Fields,
			Symbols:   symbols,
		})
	}
	return subs, nil
}
