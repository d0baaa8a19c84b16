package llm

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"
)

// PriceEntry holds per-1M-token costs for one model.
type PriceEntry struct {
	Provider string  `json:"provider"`
	Input    float64 `json:"input"`
	Output   float64 `json:"output"`
}

type pricingFile struct {
	Models map[string]PriceEntry `json:"models"`
}

// Pricing maps model identifiers to token costs. Read-only after load, safe
// for concurrent use.
type Pricing struct {
	models map[string]PriceEntry
}

// DefaultPricingPaths returns the candidate locations tried, in order, when
// no explicit path is configured.
func DefaultPricingPaths() []string {
	return []string{
		"pricing.json",
		"config/pricing.json",
		"../pricing.json",
		"../../pricing.json",
	}
}

// LoadPricing reads the first candidate file that parses successfully and is
// non-empty. When no candidate qualifies the table is empty, a warning is
// logged once, and every lookup returns 0.0; reports must still be producible
// without current pricing data.
func LoadPricing(paths []string, logger *zap.Logger) *Pricing {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed pricingFile
		if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Models) == 0 {
			continue
		}
		logger.Info("pricing table loaded",
			zap.String("path", path),
			zap.Int("models", len(parsed.Models)))
		return &Pricing{models: parsed.Models}
	}
	logger.Warn("pricing table not found, costs will be $0.00",
		zap.Strings("paths", paths))
	return &Pricing{models: map[string]PriceEntry{}}
}

// NewPricing builds a table directly from entries. Used by tests and by
// callers with an alternative pricing source.
func NewPricing(models map[string]PriceEntry) *Pricing {
	if models == nil {
		models = map[string]PriceEntry{}
	}
	return &Pricing{models: models}
}

// Cost computes the USD cost for a call from the static table, never from
// provider-supplied figures. Unknown models cost 0.0.
func (p *Pricing) Cost(model string, inputTokens, outputTokens int) float64 {
	entry, ok := p.models[model]
	if !ok {
		return 0.0
	}
	return float64(inputTokens)*entry.Input/1_000_000.0 +
		float64(outputTokens)*entry.Output/1_000_000.0
}

var providerServers = map[string]string{
	"openai":    "api.openai.com",
	"anthropic": "api.anthropic.com",
	"google":    "generativelanguage.googleapis.com",
	"ollama":    "localhost",
}

var providerPorts = map[string]int{
	"openai":    443,
	"anthropic": 443,
	"google":    443,
	"ollama":    11434,
}

// ProviderAddress returns the server address tag for a logical provider name.
// Used purely for observability tagging.
func ProviderAddress(name string) string {
	if addr, ok := providerServers[name]; ok {
		return addr
	}
	return "unknown"
}

// ProviderPort returns the server port tag for a logical provider name.
func ProviderPort(name string) int {
	if port, ok := providerPorts[name]; ok {
		return port
	}
	return 443
}
