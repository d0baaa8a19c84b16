package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/bkyoung/report-generator/internal/domain"
)

// RetrieveResult is the retrieve stage output: the fetched series in
// first-seen indicator order plus the total observation count.
type RetrieveResult struct {
	Indicators      []domain.IndicatorSeries
	TotalDataPoints int
}

// FormatParams carries the stage outputs into report assembly.
type FormatParams struct {
	Retrieve            RetrieveResult
	Analysis            AnalysisResult
	Narrative           NarrativeResult
	IndicatorsRequested []string
	StartDate           time.Time
	EndDate             time.Time
	Duration            time.Duration
	TraceID             string
}

// FormatReport assembles the final report: token and cost sums across both
// LLM calls, providers deduplicated in first-use order, a fresh identity.
// Pure aside from the generated id; fixed inputs always produce the same
// totals.
func FormatReport(params FormatParams) domain.Report {
	totalTokens := params.Analysis.InputTokens + params.Analysis.OutputTokens +
		params.Narrative.InputTokens + params.Narrative.OutputTokens

	providers := make([]string, 0, 2)
	seen := make(map[string]bool, 2)
	for _, p := range []string{params.Analysis.Provider, params.Narrative.Provider} {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		providers = append(providers, p)
	}

	return domain.Report{
		ID:                   uuid.New(),
		Title:                params.Narrative.Title,
		ExecutiveSummary:     params.Narrative.ExecutiveSummary,
		Sections:             params.Narrative.Sections,
		IndicatorsUsed:       params.IndicatorsRequested,
		TimeRangeStart:       params.StartDate,
		TimeRangeEnd:         params.EndDate,
		TotalDataPoints:      params.Retrieve.TotalDataPoints,
		TotalTokens:          totalTokens,
		TotalCostUSD:         params.Analysis.CostUSD + params.Narrative.CostUSD,
		ProvidersUsed:        providers,
		GenerationDurationMS: params.Duration.Milliseconds(),
		TraceID:              params.TraceID,
		Status:               "completed",
	}
}
