package report

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bkyoung/report-generator/internal/adapter/llm"
	llmhttp "github.com/bkyoung/report-generator/internal/adapter/llm/http"
	"github.com/bkyoung/report-generator/internal/domain"
)

// Trend is one directional finding for a single indicator.
type Trend struct {
	Indicator   string `json:"indicator"`
	Direction   string `json:"direction"`
	Description string `json:"description"`
}

// AnalysisResult is the analyze stage output plus the accounting of the LLM
// call that produced it.
type AnalysisResult struct {
	Trends       []Trend  `json:"trends"`
	Correlations []string `json:"correlations"`
	KeyFindings  []string `json:"key_findings"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      float64  `json:"cost_usd"`
	Provider     string   `json:"provider"`
}

const analyzeSystem = `You are an economic data analyst. The dataset contains ` +
	`macroeconomic indicator time series (such as GDP, unemployment rate, CPI) ` +
	`with dated observations, units, and reporting frequency. Base every ` +
	`statement on the numbers provided and reference indicators by their codes.`

const dateLayout = "2006-01-02"

// Analyze builds a compact textual summary of the indicator data and asks
// the fast-tier model for trends, correlations, and key findings as JSON.
func Analyze(ctx context.Context, gen TextGenerator, model string, data []domain.IndicatorSeries) (AnalysisResult, error) {
	prompt := fmt.Sprintf(
		"Analyze the following economic data and identify trends, correlations, and key findings.\n"+
			"Return your analysis as JSON with this exact structure:\n"+
			"{\n  \"trends\": [{\"indicator\": \"CODE\", \"direction\": \"increasing|decreasing|stable|volatile\", \"description\": \"...\"}],\n"+
			"  \"correlations\": [\"description of correlation between indicators\"],\n"+
			"  \"key_findings\": [\"important insight 1\", \"important insight 2\"]\n}\n\n"+
			"DATA:\n%s", buildDataSummary(data))

	resp, err := gen.Generate(ctx, llm.GenerateRequest{
		Model:       model,
		System:      analyzeSystem,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   2048,
		Stage:       "analyze",
	})
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("analyze stage: %w", err)
	}

	return parseAnalysisResponse(resp), nil
}

// buildDataSummary renders one block per indicator: range, first/last value,
// min/max/avg, and January observations as a compact trend proxy. Sampling
// keeps the prompt bounded regardless of series length.
func buildDataSummary(data []domain.IndicatorSeries) string {
	var b strings.Builder
	for _, ind := range data {
		fmt.Fprintf(&b, "\n## %s (%s)\n", ind.Name, ind.Code)
		fmt.Fprintf(&b, "Unit: %s, Frequency: %s\n", ind.Unit, ind.Frequency)

		if len(ind.Values) == 0 {
			continue
		}
		first := ind.Values[0]
		last := ind.Values[len(ind.Values)-1]
		fmt.Fprintf(&b, "Range: %s to %s\n", first.Date.Format(dateLayout), last.Date.Format(dateLayout))
		fmt.Fprintf(&b, "First value: %.2f, Last value: %.2f\n", first.Value, last.Value)
		fmt.Fprintf(&b, "Data points: %d\n", len(ind.Values))

		min, max := math.Inf(1), math.Inf(-1)
		sum := 0.0
		for _, v := range ind.Values {
			min = math.Min(min, v.Value)
			max = math.Max(max, v.Value)
			sum += v.Value
		}
		fmt.Fprintf(&b, "Min: %.2f, Max: %.2f, Avg: %.2f\n", min, max, sum/float64(len(ind.Values)))

		for _, v := range ind.Values {
			if v.Date.Month() == time.January {
				fmt.Fprintf(&b, "  %s: %.2f\n", v.Date.Format(dateLayout), v.Value)
			}
		}
	}
	return b.String()
}

// parseAnalysisResponse is lenient: on parse failure the stage degrades to a
// result whose key findings hold a truncated raw-text excerpt instead of
// failing the pipeline.
func parseAnalysisResponse(resp llm.GenerateResponse) AnalysisResult {
	result := AnalysisResult{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
		Provider:     resp.Provider,
	}

	var raw struct {
		Trends       []Trend  `json:"trends"`
		Correlations []string `json:"correlations"`
		KeyFindings  []string `json:"key_findings"`
	}
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Content)), &raw); err != nil {
		result.KeyFindings = []string{llmhttp.Truncate(resp.Content, 500)}
		return result
	}

	result.Trends = raw.Trends
	result.Correlations = raw.Correlations
	result.KeyFindings = raw.KeyFindings
	return result
}
