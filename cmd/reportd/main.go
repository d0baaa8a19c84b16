// Command reportd serves the report-generation HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bkyoung/report-generator/internal/adapter/httpapi"
	"github.com/bkyoung/report-generator/internal/adapter/llm"
	"github.com/bkyoung/report-generator/internal/adapter/llm/anthropic"
	"github.com/bkyoung/report-generator/internal/adapter/llm/openai"
	"github.com/bkyoung/report-generator/internal/adapter/store/postgres"
	"github.com/bkyoung/report-generator/internal/config"
	"github.com/bkyoung/report-generator/internal/observability"
	"github.com/bkyoung/report-generator/internal/usecase/report"
	"github.com/bkyoung/report-generator/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:     "reportd",
		Short:   "LLM-backed economic report generation service",
		Version: version.Version(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")
	return cmd
}

func run(ctx context.Context, configFile string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.LoaderOptions{ConfigFile: configFile})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting reportd",
		zap.String("version", version.Version()),
		zap.String("environment", cfg.Server.Environment),
		zap.Int("port", cfg.Server.Port))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pricingPaths := llm.DefaultPricingPaths()
	if cfg.Pricing.Path != "" {
		pricingPaths = append([]string{cfg.Pricing.Path}, pricingPaths...)
	}
	pricing := llm.LoadPricing(pricingPaths, logger)

	primary, err := buildProvider(cfg.LLM.Provider, cfg.LLM)
	if err != nil {
		return fmt.Errorf("build primary provider: %w", err)
	}

	clientCfg := llm.ClientConfig{
		Primary:     primary,
		PrimaryName: cfg.LLM.Provider,
		Pricing:     pricing,
		Metrics:     llm.NewMetrics(registry),
		Logger:      logger,
	}
	if cfg.LLM.FallbackProvider != "" && cfg.LLM.FallbackProvider != cfg.LLM.Provider {
		fallback, err := buildProvider(cfg.LLM.FallbackProvider, cfg.LLM)
		if err != nil {
			logger.Warn("fallback provider unavailable",
				zap.String("provider", cfg.LLM.FallbackProvider),
				zap.Error(err))
		} else {
			clientCfg.Fallback = fallback
			clientCfg.FallbackName = cfg.LLM.FallbackProvider
			clientCfg.FallbackModel = cfg.LLM.FallbackModel
		}
	}
	client := llm.NewClient(clientCfg)

	db, err := postgres.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	store := postgres.New(db, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	orchestrator := report.NewOrchestrator(report.Dependencies{
		Data:         store,
		Sink:         store,
		Generator:    client,
		ModelFast:    cfg.LLM.ModelFast,
		ModelCapable: cfg.LLM.ModelCapable,
		Metrics:      report.NewMetrics(registry),
		Logger:       logger,
	})

	router := httpapi.NewRouter(httpapi.Dependencies{
		Service:  orchestrator,
		Reader:   store,
		Logger:   logger,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// buildProvider maps a logical provider name to a concrete adapter.
func buildProvider(name string, cfg config.LLMConfig) (llm.Provider, error) {
	switch name {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("openai api key not configured")
		}
		return openai.NewClient(cfg.OpenAIAPIKey), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("anthropic api key not configured")
		}
		return anthropic.NewClient(cfg.AnthropicAPIKey), nil
	case "google":
		if cfg.GoogleAPIKey == "" {
			return nil, errors.New("google api key not configured")
		}
		return openai.NewGoogleClient(cfg.GoogleAPIKey), nil
	case "ollama":
		return openai.NewOllamaClient(cfg.OllamaBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
