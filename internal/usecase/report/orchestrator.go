// Package report implements the four-stage pipeline that turns time-series
// data into a persisted narrative report: retrieve, analyze, generate,
// format. The stages run strictly in order; generate consumes analyze's
// output.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	"github.com/bkyoung/report-generator/internal/domain"
)

// ErrNoData indicates the requested indicators had no observations in the
// requested range. Terminal for the pipeline run; never retried.
var ErrNoData = errors.New("no data found for requested indicators")

// ErrNotFound indicates a requested report does not exist.
var ErrNotFound = errors.New("report not found")

// DataSource supplies indicator time series grouped by indicator, preserving
// first-seen indicator order.
type DataSource interface {
	QueryIndicatorData(ctx context.Context, codes []string, start, end time.Time) ([]domain.IndicatorSeries, error)
}

// ReportSink persists formatted reports.
type ReportSink interface {
	InsertReport(ctx context.Context, report domain.Report) error
}

// TextGenerator issues one logical generation request, handling retries and
// fallback internally.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error)
}

// Request describes one report-generation run.
type Request struct {
	Indicators []string
	StartDate  time.Time
	EndDate    time.Time
	// TraceID is the request-scoped trace identifier; a fresh one is
	// generated when empty.
	TraceID string
}

// Dependencies captures the collaborators for the Orchestrator.
type Dependencies struct {
	Data         DataSource
	Sink         ReportSink
	Generator    TextGenerator
	ModelFast    string
	ModelCapable string
	Metrics      *Metrics
	Logger       *zap.Logger
}

// Orchestrator runs the pipeline and persists the result. No shared mutable
// state between runs; safe for concurrent use.
type Orchestrator struct {
	data         DataSource
	sink         ReportSink
	gen          TextGenerator
	modelFast    string
	modelCapable string
	metrics      *Metrics
	logger       *zap.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		data:         deps.Data,
		sink:         deps.Sink,
		gen:          deps.Generator,
		modelFast:    deps.ModelFast,
		modelCapable: deps.ModelCapable,
		metrics:      deps.Metrics,
		logger:       logger,
	}
}

// GenerateReport runs retrieve, analyze, generate, and format in order,
// persists the assembled report, and records pipeline metrics.
func (o *Orchestrator) GenerateReport(ctx context.Context, req Request) (domain.Report, error) {
	start := time.Now()

	traceID := req.TraceID
	if traceID == "" {
		traceID = uuid.NewString()
	}

	retrieved, err := o.retrieve(ctx, req.Indicators, req.StartDate, req.EndDate)
	if err != nil {
		return domain.Report{}, err
	}

	analysis, err := Analyze(ctx, o.gen, o.modelFast, retrieved.Indicators)
	if err != nil {
		return domain.Report{}, err
	}
	o.logger.Debug("analysis complete",
		zap.String("trace_id", traceID),
		zap.Int("trends", len(analysis.Trends)),
		zap.Int("key_findings", len(analysis.KeyFindings)))

	narrative, err := Generate(ctx, o.gen, o.modelCapable, retrieved.Indicators, analysis)
	if err != nil {
		return domain.Report{}, err
	}

	rep := FormatReport(FormatParams{
		Retrieve:            retrieved,
		Analysis:            analysis,
		Narrative:           narrative,
		IndicatorsRequested: req.Indicators,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Duration:            time.Since(start),
		TraceID:             traceID,
	})

	if err := o.sink.InsertReport(ctx, rep); err != nil {
		return domain.Report{}, fmt.Errorf("persist report: %w", err)
	}

	if o.metrics != nil {
		o.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
		o.metrics.DataPoints.Observe(float64(rep.TotalDataPoints))
		o.metrics.Sections.Observe(float64(len(rep.Sections)))
	}

	o.logger.Info("report generated",
		zap.String("report_id", rep.ID.String()),
		zap.String("trace_id", traceID),
		zap.String("title", rep.Title),
		zap.Int("sections", len(rep.Sections)),
		zap.Int("total_tokens", rep.TotalTokens),
		zap.Float64("total_cost_usd", rep.TotalCostUSD),
		zap.Strings("providers_used", rep.ProvidersUsed),
		zap.Int64("duration_ms", rep.GenerationDurationMS))

	return rep, nil
}

// retrieve fetches the indicator series and fails with ErrNoData when the
// result set is empty, before any LLM call is made.
func (o *Orchestrator) retrieve(ctx context.Context, codes []string, start, end time.Time) (RetrieveResult, error) {
	series, err := o.data.QueryIndicatorData(ctx, codes, start, end)
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("retrieve indicator data: %w", err)
	}

	total := 0
	for _, s := range series {
		total += len(s.Values)
	}

	if len(series) == 0 {
		return RetrieveResult{}, ErrNoData
	}

	o.logger.Debug("retrieve complete",
		zap.Int("indicators", len(series)),
		zap.Int("data_points", total))

	return RetrieveResult{Indicators: series, TotalDataPoints: total}, nil
}
