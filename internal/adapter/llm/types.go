// Package llm drives text-generation providers through bounded retries with
// jittered backoff, escalates to a configured fallback provider on
// exhaustion, and fills in cost and provider attribution on every response.
package llm

import "context"

// GenerateRequest is the provider-independent shape of one generation call.
// Immutable per call; the fallback path clones it with a substituted model.
type GenerateRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// Stage labels the pipeline stage issuing the call, for observability.
	Stage string
}

// GenerateResponse is the normalized result of a generation call. CostUSD and
// Provider are filled in by the client layer after the provider call returns,
// never by the provider adapter itself.
type GenerateResponse struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	FinishReason string
	Provider     string
}

// Provider is a remote text-generation backend. Implementations build the
// vendor-specific wire request, normalize the response, and must not set
// CostUSD or Provider on the responses they return.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Name() string
}
