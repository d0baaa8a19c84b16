package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile is an explicit path; when empty, ConfigPaths are searched
	// for FileName.{yaml,yml,json}.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from file and environment variables.
// Environment variables use the REPORTD_ prefix with underscores, e.g.
// REPORTD_DATABASE_URL, REPORTD_LLM_OPENAIAPIKEY.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "reportd"
	}
	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "REPORTD"
	}

	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.LLM.OpenAIAPIKey = expandEnvString(cfg.LLM.OpenAIAPIKey)
	cfg.LLM.AnthropicAPIKey = expandEnvString(cfg.LLM.AnthropicAPIKey)
	cfg.LLM.GoogleAPIKey = expandEnvString(cfg.LLM.GoogleAPIKey)
	cfg.Database.URL = expandEnvString(cfg.Database.URL)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.requestTimeout", "120s")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.modelCapable", "gpt-4.1")
	v.SetDefault("llm.modelFast", "gpt-4.1-mini")
	v.SetDefault("llm.fallbackProvider", "anthropic")
	v.SetDefault("llm.fallbackModel", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.ollamaBaseUrl", "http://localhost:11434")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.maxTokens", 4096)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
}

func locateConfigFile(name string, paths []string) string {
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, dir := range paths {
		for _, ext := range []string{"yaml", "yml", "json"} {
			candidate := filepath.Join(dir, name+"."+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// expandEnvString expands ${VAR} and $VAR references so secrets can live in
// the environment while the config file stays checked in.
func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.ExpandEnv(s)
}
