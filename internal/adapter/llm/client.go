package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	llmhttp "github.com/bkyoung/report-generator/internal/adapter/llm/http"
)

// SleepFunc suspends the calling goroutine for d or until ctx is done.
// Injectable so tests can run the full retry budget without wall-clock delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientConfig captures the collaborators for the retry/fallback client.
type ClientConfig struct {
	Primary     Provider
	PrimaryName string

	// Fallback is optional. When set, FallbackModel replaces the request
	// model on the fallback path.
	Fallback      Provider
	FallbackName  string
	FallbackModel string

	Pricing *Pricing
	Metrics *Metrics
	Logger  *zap.Logger
	Retry   llmhttp.RetryConfig
	Sleep   SleepFunc
}

// Client orchestrates generation calls: bounded retries with jittered
// backoff against the primary provider, escalation to the fallback on
// exhaustion, cost computation, and per-attempt instrumentation. Stateless
// across calls besides its read-only configuration; safe for concurrent use.
type Client struct {
	primary       Provider
	primaryName   string
	fallback      Provider
	fallbackName  string
	fallbackModel string

	pricing *Pricing
	metrics *Metrics
	logger  *zap.Logger
	retry   llmhttp.RetryConfig
	sleep   SleepFunc
}

// NewClient constructs a Client, applying defaults for omitted collaborators.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		primary:       cfg.Primary,
		primaryName:   cfg.PrimaryName,
		fallback:      cfg.Fallback,
		fallbackName:  cfg.FallbackName,
		fallbackModel: cfg.FallbackModel,
		pricing:       cfg.Pricing,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		retry:         cfg.Retry,
		sleep:         cfg.Sleep,
	}
	if c.pricing == nil {
		c.pricing = NewPricing(nil)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = llmhttp.DefaultRetryConfig()
	}
	if c.sleep == nil {
		c.sleep = contextSleep
	}
	return c
}

// Generate attempts the primary provider with retries, falls back to the
// secondary provider and model on exhaustion, and returns a normalized
// response or a terminal error identifying the primary provider.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	resp, primaryErr := c.generateWithRetry(ctx, c.primary, c.primaryName, req)
	if primaryErr == nil {
		return resp, nil
	}

	if c.fallback == nil {
		return GenerateResponse{}, fmt.Errorf("primary provider %s failed after retries: %w",
			c.primaryName, primaryErr)
	}

	c.logger.Warn("primary provider failed, falling back",
		zap.String("primary_provider", c.primaryName),
		zap.String("fallback_provider", c.fallbackName),
		zap.Error(primaryErr))
	if c.metrics != nil {
		c.metrics.Fallbacks.Inc()
	}

	fallbackReq := req
	fallbackReq.Model = c.fallbackModel
	return c.generateWithRetry(ctx, c.fallback, c.fallbackName, fallbackReq)
}

// generateWithRetry runs up to MaxAttempts attempts against one provider,
// sleeping a jittered exponential backoff between failures. The first failure
// is not counted as a retry.
func (c *Client) generateWithRetry(ctx context.Context, provider Provider, providerName string, req GenerateRequest) (GenerateResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		resp, err := c.generateOnce(ctx, provider, providerName, req)
		if err == nil {
			return resp, nil
		}

		c.logger.Warn("llm call failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.retry.MaxAttempts),
			zap.String("provider", providerName),
			zap.String("model", req.Model),
			zap.Error(err))

		if attempt > 0 && c.metrics != nil {
			c.metrics.Retries.WithLabelValues(providerName, req.Model).Inc()
		}
		lastErr = err

		if attempt < c.retry.MaxAttempts-1 {
			if sleepErr := c.sleep(ctx, llmhttp.Backoff(attempt, c.retry)); sleepErr != nil {
				return GenerateResponse{}, sleepErr
			}
		}
	}

	return GenerateResponse{}, lastErr
}

// generateOnce performs a single instrumented attempt: request preview,
// provider call, cost computation, provider attribution, token/duration/cost
// metrics on success, error classification and counting on failure.
func (c *Client) generateOnce(ctx context.Context, provider Provider, providerName string, req GenerateRequest) (GenerateResponse, error) {
	fields := []zap.Field{
		zap.String("provider", providerName),
		zap.String("server_address", ProviderAddress(providerName)),
		zap.Int("server_port", ProviderPort(providerName)),
		zap.String("model", req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
		zap.String("stage", req.Stage),
		zap.String("prompt", llmhttp.Truncate(req.Prompt, llmhttp.MaxLoggedPromptBytes)),
	}
	if req.System != "" {
		fields = append(fields,
			zap.String("system_instructions", llmhttp.Truncate(req.System, llmhttp.MaxLoggedSystemBytes)))
	}
	c.logger.Debug("llm request", fields...)

	start := time.Now()
	resp, err := provider.Generate(ctx, req)
	duration := time.Since(start)

	if err != nil {
		category := llmhttp.Classify(err).String()
		if c.metrics != nil {
			c.metrics.Errors.WithLabelValues(providerName, req.Model, category).Inc()
		}
		return GenerateResponse{}, err
	}

	resp.CostUSD = c.pricing.Cost(resp.Model, resp.InputTokens, resp.OutputTokens)
	resp.Provider = providerName

	c.logger.Debug("llm response",
		zap.String("provider", providerName),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Float64("cost_usd", resp.CostUSD),
		zap.String("finish_reason", resp.FinishReason),
		zap.Duration("duration", duration),
		zap.String("completion", llmhttp.Truncate(resp.Content, llmhttp.MaxLoggedCompletionBytes)))

	if c.metrics != nil {
		c.metrics.TokenUsage.WithLabelValues(providerName, req.Model, "input").Observe(float64(resp.InputTokens))
		c.metrics.TokenUsage.WithLabelValues(providerName, req.Model, "output").Observe(float64(resp.OutputTokens))
		c.metrics.OperationDuration.WithLabelValues(providerName, req.Model).Observe(duration.Seconds())
		c.metrics.Cost.WithLabelValues(providerName, req.Model).Add(resp.CostUSD)
	}

	return resp, nil
}
