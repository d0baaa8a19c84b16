package domain

import (
	"time"

	"github.com/google/uuid"
)

// Section is one heading/content pair of a report narrative.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Report is the final aggregate produced by one pipeline run. It is immutable
// after formatting and persisted verbatim.
type Report struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	ExecutiveSummary string    `json:"executive_summary"`
	Sections         []Section `json:"sections"`
	IndicatorsUsed   []string  `json:"indicators_used"`
	TimeRangeStart   time.Time `json:"time_range_start"`
	TimeRangeEnd     time.Time `json:"time_range_end"`
	TotalDataPoints  int       `json:"total_data_points"`
	TotalTokens      int       `json:"total_tokens"`
	TotalCostUSD     float64   `json:"total_cost_usd"`
	ProvidersUsed    []string  `json:"providers_used"`
	// GenerationDurationMS is wall-clock pipeline duration in milliseconds.
	GenerationDurationMS int64     `json:"generation_duration_ms"`
	TraceID              string    `json:"trace_id"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
}
