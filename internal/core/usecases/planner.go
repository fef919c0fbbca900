package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
)

// maxHistoryTurns bounds the conversation replayed to the model.
const maxHistoryTurns = 10

// QueryPlanner turns a natural-language query into tool calls.
type QueryPlanner interface {
	Name() string
	Analyze(ctx context.Context, query string, region domain.Region, history []domain.ConversationTurn) (*domain.QueryAnalysis, error)
}

// NewQueryPlanner returns an LLM-backed planner when a model is configured
// and the rule-based planner otherwise.
func NewQueryPlanner(llm ports.LanguageModel) QueryPlanner {
	if llm == nil {
		return NewRulePlanner()
	}
	return NewLLMPlanner(llm)
}

// LLMPlanner asks a language model for a QueryAnalysis.
type LLMPlanner struct {
	llm    ports.LanguageModel
	system string
}

// NewLLMPlanner creates a new LLMPlanner.
func NewLLMPlanner(llm ports.LanguageModel) *LLMPlanner {
	return &LLMPlanner{llm: llm, system: SystemPrompt()}
}

// Name identifies the planner in logs and events.
func (p *LLMPlanner) Name() string {
	return "llm:" + p.llm.Name()
}

// Analyze fails with domain.ErrPlannerUnavailable when the model cannot be
// reached and domain.ErrAnalysisFailed when its answer is unusable.
func (p *LLMPlanner) Analyze(ctx context.Context, query string, region domain.Region, history []domain.ConversationTurn) (*domain.QueryAnalysis, error) {
	turns := appendTurn(recentTurns(history), domain.ConversationTurn{Role: "user", Content: UserPrompt(query, region)})

	reply, err := p.llm.Complete(ctx, p.system, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPlannerUnavailable, err)
	}

	analysis, err := ParseAnalysis(reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	return analysis, nil
}

// recentTurns rebuilds the history as alternating user/assistant turns that
// start with a user turn. Consecutive turns of one role are merged before the
// last maxHistoryTurns are kept.
func recentTurns(history []domain.ConversationTurn) []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, 0, len(history))
	for _, t := range history {
		role := strings.ToLower(t.Role)
		if (role != "user" && role != "assistant") || strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = appendTurn(out, domain.ConversationTurn{Role: role, Content: t.Content})
	}
	if len(out) > maxHistoryTurns {
		out = out[len(out)-maxHistoryTurns:]
	}
	for len(out) > 0 && out[0].Role != "user" {
		out = out[1:]
	}
	return out
}

// appendTurn adds t, folding it into the last turn when the roles match.
func appendTurn(turns []domain.ConversationTurn, t domain.ConversationTurn) []domain.ConversationTurn {
	if n := len(turns); n > 0 && turns[n-1].Role == t.Role {
		turns[n-1].Content += "\n\n" + t.Content
		return turns
	}
	return append(turns, t)
}

// ExtractJSON pulls a JSON object out of a model reply that may be fenced or
// wrapped in prose.
func ExtractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)

	if start := strings.Index(s, "```"); start != -1 {
		body := s[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.Contains(body[:nl], "{") {
			body = body[nl+1:] // language tag
		}
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		s = strings.TrimSpace(body)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end < start {
		return "", errors.New("no JSON object in response")
	}
	return s[start : end+1], nil
}

var requiredAnalysisFields = []string{"in_scope", "reasoning", "tool_calls", "response_template"}

// ParseAnalysis extracts and validates a QueryAnalysis from a model reply.
func ParseAnalysis(reply string) (*domain.QueryAnalysis, error) {
	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parse response as JSON: %w", err)
	}
	for _, f := range requiredAnalysisFields {
		if _, ok := fields[f]; !ok {
			return nil, fmt.Errorf("missing required field %q", f)
		}
	}

	var calls []map[string]json.RawMessage
	if err := json.Unmarshal(fields["tool_calls"], &calls); err != nil {
		return nil, fmt.Errorf("tool_calls must be an array of objects: %w", err)
	}
	for i, c := range calls {
		for _, f := range []string{"tool_name", "parameters"} {
			if _, ok := c[f]; !ok {
				return nil, fmt.Errorf("tool_calls[%d] missing %q", i, f)
			}
		}
	}

	var analysis domain.QueryAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	for i := range analysis.ToolCalls {
		if analysis.ToolCalls[i].ToolName == "" {
			return nil, fmt.Errorf("tool_calls[%d] has empty tool_name", i)
		}
		if analysis.ToolCalls[i].Parameters == nil {
			analysis.ToolCalls[i].Parameters = map[string]any{}
		}
	}
	if si := analysis.RequiresSatelliteImagery; si != nil && !si.Visualization.Valid() {
		si.Visualization = domain.VisualizationRGB
	}
	return &analysis, nil
}
