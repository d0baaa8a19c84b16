package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	llmhttp "github.com/bkyoung/report-generator/internal/adapter/llm/http"
	"github.com/bkyoung/report-generator/internal/domain"
)

// NarrativeResult is the generate stage output plus the accounting of the
// LLM call that produced it.
type NarrativeResult struct {
	Title            string           `json:"title"`
	ExecutiveSummary string           `json:"executive_summary"`
	Sections         []domain.Section `json:"sections"`
	InputTokens      int              `json:"input_tokens"`
	OutputTokens     int              `json:"output_tokens"`
	CostUSD          float64          `json:"cost_usd"`
	Provider         string           `json:"provider"`
}

const (
	defaultTitle   = "Economic Report"
	defaultSummary = "Analysis of economic indicators."

	generateSystem = "You are an expert economic analyst writing structured reports. " +
		"Write clear, data-driven narrative with specific numbers and dates. " +
		"Be concise but thorough."
)

// Generate feeds the analysis plus indicator list and inferred time range to
// the capable-tier model, asking for a structured narrative as JSON.
func Generate(ctx context.Context, gen TextGenerator, model string, data []domain.IndicatorSeries, analysis AnalysisResult) (NarrativeResult, error) {
	indicatorList := make([]string, 0, len(data))
	for _, d := range data {
		indicatorList = append(indicatorList, fmt.Sprintf("%s (%s)", d.Name, d.Code))
	}

	timeRange := "unknown"
	if len(data) > 0 && len(data[0].Values) > 0 {
		values := data[0].Values
		timeRange = fmt.Sprintf("%s to %s",
			values[0].Date.Format(dateLayout),
			values[len(values)-1].Date.Format(dateLayout))
	}

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		analysisJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(
		"Write a structured economic report based on this analysis.\n\n"+
			"Indicators: %s\n"+
			"Time period: %s\n\n"+
			"Analysis:\n%s\n\n"+
			"Return your report as JSON with this exact structure:\n"+
			"{\n  \"title\": \"Report title\",\n"+
			"  \"executive_summary\": \"2-3 sentence overview\",\n"+
			"  \"sections\": [\n    {\"heading\": \"Section title\", \"content\": \"Section content with data references\"}\n  ]\n}\n\n"+
			"Include 3-5 sections covering the major themes from the analysis.",
		strings.Join(indicatorList, ", "), timeRange, analysisJSON)

	resp, err := gen.Generate(ctx, llm.GenerateRequest{
		Model:       model,
		System:      generateSystem,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   4096,
		Stage:       "generate",
	})
	if err != nil {
		return NarrativeResult{}, fmt.Errorf("generate stage: %w", err)
	}

	return parseNarrativeResponse(resp), nil
}

// parseNarrativeResponse is lenient: missing fields take generic defaults,
// and a completely unparsable payload becomes a single "Analysis" section
// holding the raw text. Parse failures never fail the stage.
func parseNarrativeResponse(resp llm.GenerateResponse) NarrativeResult {
	result := NarrativeResult{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
		Provider:     resp.Provider,
	}

	var raw struct {
		Title            string           `json:"title"`
		ExecutiveSummary string           `json:"executive_summary"`
		Sections         []domain.Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Content)), &raw); err != nil {
		result.Title = defaultTitle
		result.ExecutiveSummary = llmhttp.Truncate(resp.Content, 500)
		result.Sections = []domain.Section{{Heading: "Analysis", Content: resp.Content}}
		return result
	}

	result.Title = raw.Title
	if result.Title == "" {
		result.Title = defaultTitle
	}
	result.ExecutiveSummary = raw.ExecutiveSummary
	if result.ExecutiveSummary == "" {
		result.ExecutiveSummary = defaultSummary
	}
	result.Sections = raw.Sections
	if result.Sections == nil {
		result.Sections = []domain.Section{}
	}
	return result
}
