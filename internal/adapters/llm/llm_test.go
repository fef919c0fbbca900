package llm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/samirrijal/kadal/internal/adapters/llm"
	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/pkg/config"
)

func TestAnthropic_Complete(t *testing.T) {
	var body string
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"in_scope\":"},{"type":"text","text":"true}"}]}`))
	}))
	defer srv.Close()

	a := llm.NewAnthropic(llm.AnthropicOptions{APIKey: "sk-test", Model: "test-model", BaseURL: srv.URL})
	reply, err := a.Complete(context.Background(), "system prompt", []domain.ConversationTurn{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != `{"in_scope":true}` {
		t.Errorf("unexpected reply %q", reply)
	}
	if headers.Get("x-api-key") != "sk-test" || headers.Get("anthropic-version") == "" {
		t.Errorf("missing auth headers: %v", headers)
	}
	if !strings.Contains(body, `"system":"system prompt"`) || !strings.Contains(body, `"temperature":0`) {
		t.Errorf("unexpected request body %s", body)
	}
}

func TestAnthropic_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	a := llm.NewAnthropic(llm.AnthropicOptions{APIKey: "bad", BaseURL: srv.URL})
	_, err := a.Complete(context.Background(), "", nil)
	if err == nil || !strings.Contains(err.Error(), "authentication_error") {
		t.Errorf("expected authentication error, got %v", err)
	}
}

func TestTranscript(t *testing.T) {
	got := llm.Transcript([]domain.ConversationTurn{
		{Role: "user", Content: "show Paris"},
		{Role: "assistant", Content: "done"},
		{Role: "user", Content: "now elevation"},
	})
	want := "User: show Paris\n\nAssistant: done\n\nUser: now elevation\n\nAssistant:"
	if got != want {
		t.Errorf("unexpected transcript %q", got)
	}
}

type failingModel struct{ calls int }

func (f *failingModel) Name() string { return "failing" }
func (f *failingModel) Complete(ctx context.Context, system string, turns []domain.ConversationTurn) (string, error) {
	f.calls++
	return "", errors.New("connection refused")
}

func TestWithBreaker_FailsFastWhenOpen(t *testing.T) {
	inner := &failingModel{}
	g := llm.WithBreaker(inner)

	var err error
	for i := 0; i < 10; i++ {
		_, err = g.Complete(context.Background(), "", nil)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if inner.calls >= 10 {
		t.Errorf("open breaker should stop calling the provider, got %d calls", inner.calls)
	}
	if g.Name() != "failing" {
		t.Errorf("name should pass through, got %s", g.Name())
	}
}

func TestFromConfig(t *testing.T) {
	if m := llm.FromConfig(config.LLMConfig{Provider: "anthropic"}); m != nil {
		t.Errorf("expected nil model without an API key, got %s", m.Name())
	}

	m := llm.FromConfig(config.LLMConfig{Provider: "anthropic", APIKey: "sk-test", Model: "test-model"})
	if m == nil || m.Name() != "anthropic" {
		t.Fatalf("expected anthropic model, got %v", m)
	}

	m = llm.FromConfig(config.LLMConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "llama3"})
	if m == nil || m.Name() != "ollama" {
		t.Fatalf("expected ollama model, got %v", m)
	}
}
