package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/weighttrack/internal/api"
	"github.com/mmynk/weighttrack/internal/auth"
	"github.com/mmynk/weighttrack/internal/config"
	"github.com/mmynk/weighttrack/internal/metrics"
	"github.com/mmynk/weighttrack/internal/middleware"
	"github.com/mmynk/weighttrack/internal/service"
	"github.com/mmynk/weighttrack/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

var flags struct {
	ConfigFile string
	LogLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "weighttrack",
	Short: "Self-hosted weight, training and water tracker",
	Example: `weighttrack --config config.yaml
  weighttrack --log-level debug
  weighttrack migrate`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yaml in current dir, ~/.weighttrack, /etc/weighttrack)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides config file setting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the config and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	logging.SetupWith(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, shim, err := openStore(cfg, m)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []service.Option{service.WithMigrator(shim)}
	users := service.NewUserService(store, opts...)

	secret := cfg.Auth.SessionSecret
	if secret == "" {
		secret, err = auth.RandomSecret()
		if err != nil {
			return err
		}
		slog.Warn("No session secret configured, sessions will not survive a restart")
	}
	sessions := auth.NewSessionManager(secret, cfg.Auth.SessionMaxAge)

	srv := api.New(api.Config{
		Users:    users,
		Entries:  service.NewEntryService(store, opts...),
		Settings: service.NewSettingsService(store, opts...),
		Water:    service.NewWaterService(store, opts...),
		Sessions: sessions,
		Authn: &middleware.Authenticator{
			Sessions:   sessions,
			Users:      users,
			APIKey:     cfg.Auth.APIKey,
			APIKeyUser: cfg.Auth.APIKeyUser,
		},
		SecureCookies: cfg.Auth.SecureCookies,
	})

	mux := http.NewServeMux()
	srv.Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// h2c serves HTTP/2 without TLS for clients behind a plain-text proxy.
	handler := h2c.NewHandler(middleware.Logging(m)(mux), &http2.Server{})
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Listen, "backend", cfg.Storage.Backend, "data_dir", cfg.DataDir)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
