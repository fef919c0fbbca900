// Package mcpserver exposes the tool registry over the Model Context Protocol.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
)

const (
	serverName = "kadal"
	askTool    = "ask_map"
)

// ToolInvoker runs one registry tool.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, params map[string]any) (map[string]any, error)
}

// QueryProcessor answers a natural-language query end to end.
type QueryProcessor interface {
	Process(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}

// New registers every tool in usecases.ToolSpecs plus ask_map. queries may
// be nil, in which case ask_map is not offered.
func New(version string, tools ToolInvoker, queries QueryProcessor) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Geospatial analysis tools backed by Earth Engine. Area tools need explicit bounds."),
	)

	for _, spec := range usecases.ToolSpecs {
		s.AddTool(ToolFor(spec), toolHandler(string(spec.Name), tools))
	}
	if queries != nil {
		s.AddTool(mcp.NewTool(askTool,
			mcp.WithDescription("Answer a natural-language question about a map region by planning and running the tools above."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The question, e.g. 'How much forest was lost here since 2015?'")),
			mcp.WithObject("bounds", mcp.Description(`Viewport as {"north","south","east","west"}`)),
		), askHandler(queries))
	}
	return s
}

// ToolFor converts a registry entry to its MCP schema.
func ToolFor(spec usecases.ToolSpec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case "object":
			opts = append(opts, mcp.WithObject(p.Name, props...))
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(string(spec.Name), opts...)
}

func toolHandler(name string, tools ToolInvoker) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := tools.Invoke(ctx, name, req.GetArguments())
		if err != nil {
			slog.WarnContext(ctx, "mcp tool failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(result)
	}
}

func askHandler(queries QueryProcessor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		var region domain.Region
		if raw, ok := args["bounds"]; ok && raw != nil {
			var b domain.BoundingBox
			if err := remarshal(raw, &b); err != nil {
				return mcp.NewToolResultError("bounds must be {north,south,east,west}"), nil
			}
			region = b.Region()
		}

		resp, err := queries.Process(ctx, domain.QueryRequest{Query: query, Region: region})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(resp)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
