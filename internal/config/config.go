package config

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Pricing       PricingConfig       `mapstructure:"pricing"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	// RequestTimeout bounds inbound request handling, e.g. "120s".
	RequestTimeout string `mapstructure:"requestTimeout"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig configures providers, model tiers, and generation defaults.
type LLMConfig struct {
	// Provider is the primary logical provider name: openai, anthropic,
	// google, or ollama.
	Provider string `mapstructure:"provider"`
	// ModelCapable serves the generate stage; ModelFast serves analyze.
	ModelCapable string `mapstructure:"modelCapable"`
	ModelFast    string `mapstructure:"modelFast"`

	FallbackProvider string `mapstructure:"fallbackProvider"`
	FallbackModel    string `mapstructure:"fallbackModel"`

	OpenAIAPIKey    string `mapstructure:"openaiApiKey"`
	AnthropicAPIKey string `mapstructure:"anthropicApiKey"`
	GoogleAPIKey    string `mapstructure:"googleApiKey"`
	OllamaBaseURL   string `mapstructure:"ollamaBaseUrl"`

	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"maxTokens"`
}

// PricingConfig configures the pricing table source.
type PricingConfig struct {
	// Path overrides the candidate search locations when set.
	Path string `mapstructure:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}
