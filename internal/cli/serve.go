package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/buildinfo"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/fintrack"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/views"
)

const (
	shutdownTimeout  = 30 * time.Second
	sweepInterval    = time.Minute
	amqpConnAttempts = 5
)

type serveFlags struct {
	port   string
	apiURL string
}

func newServeCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			LoadEnvFile()
			cfg, err := LoadAndValidateConfig(flags.apply(cmd))
			if err != nil {
				return err
			}
			logger, err := SetupLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := SignalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&flags.port, "port", "p", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&flags.apiURL, "api-url", "", "backend API base URL (overrides FINTRACK_API_URL)")
	return cmd
}

// apply returns an override that copies only the flags set on the command
// line, so unset flags keep the environment values.
func (f *serveFlags) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		if cmd.Flags().Changed("port") {
			cfg.Port = f.port
		}
		if cmd.Flags().Changed("api-url") {
			cfg.APIURL = f.apiURL
		}
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	logger.Info("Starting fintrack-web",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"api_url", cfg.APIURL)

	api, err := fintrack.NewClient(cfg.APIURL, cfg.APITimeout, fintrack.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	registry := views.NewRegistry(views.Config{MaxSize: cfg.ViewStateMax, TTL: cfg.ViewStateTTL}, logger)
	manager := cache.NewManager(logger)
	registry.Register(manager)
	manager.StartCleanup(sweepInterval)
	defer manager.Stop()

	opts := apphttp.Options{
		API:                api,
		Registry:           registry,
		Logger:             logger,
		Sweeper:            manager,
		PageSize:           cfg.PageSize,
		RecentLimit:        cfg.RecentLimit,
		Payers:             cfg.Payers,
		DefaultPayer:       cfg.DefaultPayer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.Dial(ctx, amqp.Config{
			URL:             cfg.AMQPURL,
			Exchange:        cfg.AMQPExchange,
			RoutingKey:      cfg.AMQPRoutingKey,
			ConnectAttempts: amqpConnAttempts,
		}, logger)
		if err != nil {
			// Events are best effort; the UI works without them.
			logger.Error("AMQP unavailable, expense events disabled", "error", err)
		} else {
			defer client.Close()
			opts.Publisher = client
		}
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, opts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}
