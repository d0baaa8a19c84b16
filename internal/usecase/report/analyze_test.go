package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	"github.com/bkyoung/report-generator/internal/domain"
	"github.com/bkyoung/report-generator/internal/usecase/report"
)

// fakeGenerator returns a canned response and records the requests it saw.
type fakeGenerator struct {
	resp     llm.GenerateResponse
	err      error
	requests []llm.GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	g.requests = append(g.requests, req)
	return g.resp, g.err
}

func gdpSeries() domain.IndicatorSeries {
	return domain.IndicatorSeries{
		Code:      "GDP",
		Name:      "Gross Domestic Product",
		Unit:      "Billions of USD",
		Frequency: "quarterly",
		Values: []domain.DataPoint{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 27000},
			{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Value: 27300},
			{Date: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Value: 27600},
			{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Value: 28100},
		},
	}
}

func TestAnalyze(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{
		Content: `{
			"trends": [{"indicator": "GDP", "direction": "increasing", "description": "steady growth"}],
			"correlations": ["GDP rises as unemployment falls"],
			"key_findings": ["GDP grew 4% over the period"]
		}`,
		InputTokens:  150,
		OutputTokens: 80,
		CostUSD:      0.004,
		Provider:     "openai",
	}}

	result, err := report.Analyze(context.Background(), gen, "gpt-4.1-mini", []domain.IndicatorSeries{gdpSeries()})
	require.NoError(t, err)

	require.Len(t, result.Trends, 1)
	assert.Equal(t, "GDP", result.Trends[0].Indicator)
	assert.Equal(t, "increasing", result.Trends[0].Direction)
	assert.Equal(t, []string{"GDP rises as unemployment falls"}, result.Correlations)
	assert.Equal(t, []string{"GDP grew 4% over the period"}, result.KeyFindings)
	assert.Equal(t, 150, result.InputTokens)
	assert.Equal(t, 80, result.OutputTokens)
	assert.InDelta(t, 0.004, result.CostUSD, 1e-9)
	assert.Equal(t, "openai", result.Provider)
}

func TestAnalyzeRequestShape(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{Content: `{}`}}

	_, err := report.Analyze(context.Background(), gen, "gpt-4.1-mini", []domain.IndicatorSeries{gdpSeries()})
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "gpt-4.1-mini", req.Model)
	assert.Equal(t, "analyze", req.Stage)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 2048, req.MaxTokens)
	assert.NotEmpty(t, req.System)

	// The data summary carries the indicator block and the January samples.
	assert.Contains(t, req.Prompt, "## Gross Domestic Product (GDP)")
	assert.Contains(t, req.Prompt, "Unit: Billions of USD, Frequency: quarterly")
	assert.Contains(t, req.Prompt, "Range: 2024-01-01 to 2025-01-01")
	assert.Contains(t, req.Prompt, "Data points: 4")
	assert.Contains(t, req.Prompt, "2024-01-01: 27000.00")
	assert.Contains(t, req.Prompt, "2025-01-01: 28100.00")
	// Non-January observations are sampled out of the per-date listing.
	assert.NotContains(t, req.Prompt, "2024-04-01: 27300.00")
}

func TestAnalyzeUnparsableResponse(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{
		Content:     "I cannot produce JSON today.",
		InputTokens: 10, OutputTokens: 5, Provider: "openai",
	}}

	result, err := report.Analyze(context.Background(), gen, "gpt-4.1-mini", []domain.IndicatorSeries{gdpSeries()})
	require.NoError(t, err)

	// The stage degrades instead of failing; the raw text becomes the finding.
	require.Len(t, result.KeyFindings, 1)
	assert.Equal(t, "I cannot produce JSON today.", result.KeyFindings[0])
	assert.Empty(t, result.Trends)
	assert.Equal(t, 10, result.InputTokens)
	assert.Equal(t, "openai", result.Provider)
}

func TestAnalyzeGeneratorError(t *testing.T) {
	wantErr := errors.New("provider down")
	gen := &fakeGenerator{err: wantErr}

	_, err := report.Analyze(context.Background(), gen, "gpt-4.1-mini", []domain.IndicatorSeries{gdpSeries()})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "analyze stage")
}
