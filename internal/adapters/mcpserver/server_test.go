package mcpserver_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/samirrijal/kadal/internal/adapters/mcpserver"
	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
)

type mockInvoker struct {
	invokeFn func(ctx context.Context, name string, params map[string]any) (map[string]any, error)
	lastName string
}

func (m *mockInvoker) Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	m.lastName = name
	return m.invokeFn(ctx, name, params)
}

type mockProcessor struct {
	got domain.QueryRequest
}

func (m *mockProcessor) Process(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.got = req
	return &domain.QueryResponse{QueryID: "q-1", Status: domain.StatusSuccess, Response: "ok"}, nil
}

func callTool(t *testing.T, invoker mcpserver.ToolInvoker, proc mcpserver.QueryProcessor, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcpserver.New("test", invoker, proc)
	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %s not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return res
}

func text(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	if tc, ok := res.Content[0].(mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func TestNew_RegistersRegistry(t *testing.T) {
	s := mcpserver.New("test", &mockInvoker{}, nil)

	tools := s.ListTools()
	if len(tools) != len(usecases.ToolSpecs) {
		t.Errorf("expected %d tools, got %d", len(usecases.ToolSpecs), len(tools))
	}
	if s.GetTool("ask_map") != nil {
		t.Error("ask_map needs a query processor")
	}
}

func TestToolFor_RequiredParams(t *testing.T) {
	tool := mcpserver.ToolFor(usecases.ToolSpecs[0])

	if tool.Name != "geocode_location" {
		t.Fatalf("unexpected tool %s", tool.Name)
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "location_name" {
		t.Errorf("unexpected required params %v", tool.InputSchema.Required)
	}
}

func TestToolHandler_Success(t *testing.T) {
	inv := &mockInvoker{invokeFn: func(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
		return map[string]any{"found": true, "location": params["location_name"]}, nil
	}}

	res := callTool(t, inv, nil, "geocode_location", map[string]any{"location_name": "Paris"})

	if res.IsError {
		t.Fatalf("unexpected error result: %s", text(res))
	}
	if inv.lastName != "geocode_location" || !strings.Contains(text(res), `"location":"Paris"`) {
		t.Errorf("unexpected result %s", text(res))
	}
}

func TestToolHandler_ErrorResult(t *testing.T) {
	inv := &mockInvoker{invokeFn: func(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
		return nil, errors.New("invalid bounds: no bounds given")
	}}

	res := callTool(t, inv, nil, "get_image_statistics", map[string]any{"dataset_id": "x/y"})

	if !res.IsError || !strings.Contains(text(res), "invalid bounds") {
		t.Errorf("expected error result, got %+v", res)
	}
}

func TestAskHandler_ForwardsBounds(t *testing.T) {
	proc := &mockProcessor{}

	res := callTool(t, &mockInvoker{}, proc, "ask_map", map[string]any{
		"query":  "elevation here",
		"bounds": map[string]any{"north": 44.0, "south": 43.0, "east": -79.0, "west": -80.0},
	})

	if res.IsError {
		t.Fatalf("unexpected error: %s", text(res))
	}
	b, err := proc.got.Region.Bounds()
	if err != nil || b.North != 44 || b.West != -80 {
		t.Errorf("unexpected region %+v (%v)", proc.got.Region, err)
	}
}

func TestAskHandler_RequiresQuery(t *testing.T) {
	res := callTool(t, &mockInvoker{}, &mockProcessor{}, "ask_map", map[string]any{})
	if !res.IsError {
		t.Error("expected error without query")
	}
}
