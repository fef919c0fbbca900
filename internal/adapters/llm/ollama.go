package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
)

// Ollama runs the planner against a local model.
type Ollama struct {
	client *api.Client
	model  string
}

var _ ports.LanguageModel = (*Ollama)(nil)

// NewOllama creates a new Ollama client.
func NewOllama(baseURL, model string, timeout time.Duration) (*Ollama, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	return &Ollama{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
		model:  model,
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

// Complete flattens the turns into a transcript prompt.
func (o *Ollama) Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: Transcript(turns),
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.0,
			"num_ctx":     8192,
		},
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return sb.String(), nil
}

// Transcript renders turns as "User:" / "Assistant:" paragraphs ending
// with an open assistant turn.
func Transcript(turns []domain.ConversationTurn) string {
	var sb strings.Builder
	for _, t := range turns {
		role := "User"
		if t.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n\n", role, t.Content)
	}
	sb.WriteString("Assistant:")
	return sb.String()
}
