package llm

import (
	"log/slog"

	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/config"
)

// FromConfig builds the configured model behind a circuit breaker. It
// returns nil when no model is configured, which selects the rule-based
// planner.
func FromConfig(cfg config.LLMConfig) ports.LanguageModel {
	if !cfg.Configured() {
		slog.Info("no language model configured, using rule-based planner")
		return nil
	}

	switch cfg.Provider {
	case "ollama":
		m, err := NewOllama(cfg.BaseURL, cfg.Model, cfg.Timeout)
		if err != nil {
			slog.Warn("ollama client init failed, using rule-based planner", "error", err)
			return nil
		}
		return WithBreaker(m)
	default:
		return WithBreaker(NewAnthropic(AnthropicOptions{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}))
	}
}
