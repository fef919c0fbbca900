package usecases

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
)

const promptHeader = `You are an expert in Google Earth Engine and geospatial analysis.

Your task is to analyze user queries and determine:
1. Whether the query is within scope for Earth Engine analysis
2. Which Earth Engine tools should be used
3. What parameters to pass to those tools

Available Earth Engine tools:
`

const promptRules = `
IN SCOPE queries include:
- Elevation, terrain, topography analysis
- Land cover analysis and changes
- Satellite imagery requests (especially Sentinel-2)
- Environmental monitoring and change detection between years
- Dataset searches
- Geographic statistics
- Location search and navigation requests
- "Go to [location]" requests - ALWAYS use geocode_location for these
- "Show satellite data/imagery for this area" requests - use get_satellite_imagery for these

CRITICAL LOCATION EXTRACTION RULES:
- "Go to Toronto" -> use geocode_location with {"location_name": "Toronto"}
- "Go to New York City" -> use geocode_location with {"location_name": "New York City"}
- "Navigate to Amazon rainforest" -> use geocode_location with {"location_name": "Amazon rainforest"}
- "Show me Paris" -> use geocode_location with {"location_name": "Paris"}

LOCATION EXTRACTION PATTERNS:
- "Go to X", "Navigate to X", "Show me X", "Take me to X" -> location_name = "X"

CHAINING:
- When a query names a place and asks for analysis there, call geocode_location first and omit "bounds" on the following tools.
- When the query is about "this area", pass "bounds": {} to use the current viewport.

PARAMETER VALIDATION:
- NEVER pass empty strings to location_name
- ALWAYS extract the actual place name from the query
- Remove articles like "the" but keep full place names
- Dates are YYYY-MM-DD

OUT OF SCOPE queries include:
- Weather forecasting
- Real-time data (Earth Engine is historical)
- Non-geospatial requests
- Personal information requests
- General web searches

The response_template may reference result fields in braces, e.g. {location}, {image_count}, {mean:.1f}, {count}, {loss_percentage}, {changed_percent}.

Respond with a single JSON object in this exact format and nothing else:
{
  "in_scope": boolean,
  "reasoning": "explanation of why query is in/out of scope",
  "tool_calls": [
    {
      "tool_name": "tool_name",
      "parameters": {"param1": "value1"},
      "reasoning": "why this tool is appropriate"
    }
  ],
  "response_template": "template for formatting the response to user",
  "requires_satellite_imagery": {"enabled": boolean, "visualization": "rgb|false_color|ndvi|agriculture"}
}`

// SystemPrompt describes the registry, scope rules and output schema.
func SystemPrompt() string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for _, spec := range ToolSpecs {
		fmt.Fprintf(&b, "- %s: %s\n", spec.Name, spec.Description)
		for _, p := range spec.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    - %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	b.WriteString(promptRules)
	return b.String()
}

// UserPrompt is the final message carrying the query and the viewport.
func UserPrompt(query string, region domain.Region) string {
	regionJSON, _ := json.Marshal(region)
	return fmt.Sprintf("User query: %q\n\nGeographic region: %s\n\nAnalyze this query and determine the appropriate Earth Engine operations.", query, regionJSON)
}
