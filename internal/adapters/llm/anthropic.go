// Package llm holds the language model providers behind ports.LanguageModel.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// AnthropicOptions configures the Messages API client.
type AnthropicOptions struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Anthropic calls the Messages API with temperature 0.
type Anthropic struct {
	http      *http.Client
	apiKey    string
	model     string
	url       string
	maxTokens int
}

var _ ports.LanguageModel = (*Anthropic)(nil)

// NewAnthropic creates a new Anthropic client.
func NewAnthropic(opts AnthropicOptions) *Anthropic {
	url := opts.BaseURL
	if url == "" {
		url = anthropicURL
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Anthropic{
		http:      &http.Client{Timeout: opts.Timeout},
		apiKey:    opts.APIKey,
		model:     opts.Model,
		url:       url,
		maxTokens: opts.MaxTokens,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the turns and returns the concatenated text blocks.
func (a *Anthropic) Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error) {
	msgs := make([]anthropicMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, anthropicMessage{Role: t.Role, Content: t.Content})
	}
	payload, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    system,
		Messages:  msgs,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic read body: %w", err)
	}

	var body anthropicResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("anthropic decode (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error != nil {
			return "", fmt.Errorf("anthropic %s: %s", body.Error.Type, body.Error.Message)
		}
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, block := range body.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
