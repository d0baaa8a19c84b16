package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	"github.com/bkyoung/report-generator/internal/domain"
	"github.com/bkyoung/report-generator/internal/usecase/report"
)

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{
		Content: `{
			"title": "Q1 2024 Economic Review",
			"executive_summary": "GDP grew steadily while unemployment held flat.",
			"sections": [
				{"heading": "GDP Trends", "content": "GDP rose from 27000 to 28100."},
				{"heading": "Outlook", "content": "Growth expected to continue."}
			]
		}`,
		InputTokens:  500,
		OutputTokens: 700,
		CostUSD:      0.02,
		Provider:     "openai",
	}}

	analysis := report.AnalysisResult{KeyFindings: []string{"GDP grew 4%"}}
	result, err := report.Generate(context.Background(), gen, "gpt-4.1", []domain.IndicatorSeries{gdpSeries()}, analysis)
	require.NoError(t, err)

	assert.Equal(t, "Q1 2024 Economic Review", result.Title)
	assert.Equal(t, "GDP grew steadily while unemployment held flat.", result.ExecutiveSummary)
	require.Len(t, result.Sections, 2)
	assert.Equal(t, "GDP Trends", result.Sections[0].Heading)
	assert.Equal(t, 500, result.InputTokens)
	assert.Equal(t, "openai", result.Provider)
}

func TestGenerateRequestShape(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{Content: `{}`}}

	analysis := report.AnalysisResult{KeyFindings: []string{"GDP grew 4%"}}
	_, err := report.Generate(context.Background(), gen, "gpt-4.1", []domain.IndicatorSeries{gdpSeries()}, analysis)
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "gpt-4.1", req.Model)
	assert.Equal(t, "generate", req.Stage)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 4096, req.MaxTokens)
	assert.Contains(t, req.Prompt, "Gross Domestic Product (GDP)")
	assert.Contains(t, req.Prompt, "2024-01-01 to 2025-01-01")
	assert.Contains(t, req.Prompt, "GDP grew 4%")
}

func TestGenerateMissingFieldsTakeDefaults(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{Content: `{"title": "Partial Report"}`}}

	result, err := report.Generate(context.Background(), gen, "gpt-4.1", nil, report.AnalysisResult{})
	require.NoError(t, err)

	assert.Equal(t, "Partial Report", result.Title)
	assert.Equal(t, "Analysis of economic indicators.", result.ExecutiveSummary)
	assert.NotNil(t, result.Sections)
	assert.Empty(t, result.Sections)
}

func TestGenerateUnparsableResponse(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{
		Content: "Here is your report in prose form, no JSON.",
	}}

	result, err := report.Generate(context.Background(), gen, "gpt-4.1", nil, report.AnalysisResult{})
	require.NoError(t, err)

	assert.Equal(t, "Economic Report", result.Title)
	assert.Equal(t, "Here is your report in prose form, no JSON.", result.ExecutiveSummary)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, "Analysis", result.Sections[0].Heading)
	assert.Equal(t, "Here is your report in prose form, no JSON.", result.Sections[0].Content)
}

func TestGenerateEmptyDataTimeRange(t *testing.T) {
	gen := &fakeGenerator{resp: llm.GenerateResponse{Content: `{}`}}

	_, err := report.Generate(context.Background(), gen, "gpt-4.1", nil, report.AnalysisResult{})
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	assert.Contains(t, gen.requests[0].Prompt, "Time period: unknown")
}

func TestGenerateGeneratorError(t *testing.T) {
	wantErr := errors.New("provider down")
	gen := &fakeGenerator{err: wantErr}

	_, err := report.Generate(context.Background(), gen, "gpt-4.1", nil, report.AnalysisResult{})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "generate stage")
}
