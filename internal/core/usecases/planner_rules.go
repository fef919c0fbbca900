package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/kadal/internal/core/domain"
)

var (
	inScopeKeywords = []string{
		"elevation", "terrain", "satellite", "land cover", "forest", "vegetation",
		"ndvi", "temperature", "precipitation", "dataset", "image", "analysis",
		"statistics", "visualization", "topography", "go to", "show me", "navigate",
		"location", "sentinel", "imagery",
	}
	locationKeywords  = []string{"go to", "navigate to", "find", "location"}
	satelliteKeywords = []string{
		"satellite", "sentinel", "imagery", "image", "show satellite",
		"show me satellite", "show me imagery",
	}
)

const (
	outOfScopeReasoning = "Query does not relate to Earth Engine geospatial analysis capabilities"
	outOfScopeTemplate  = "I can help with Earth Engine analysis like elevation data, land cover, satellite imagery, location search, and environmental monitoring. Please ask about geospatial or environmental data."
	elevationDataset    = "USGS/SRTMGL1_003"
)

// RulePlanner classifies queries by keyword when no model is configured.
type RulePlanner struct{}

// NewRulePlanner creates a new RulePlanner.
func NewRulePlanner() *RulePlanner {
	return &RulePlanner{}
}

// Name identifies the planner in logs and events.
func (p *RulePlanner) Name() string { return "rules" }

// Analyze picks one of three canned plans: geocode, imagery or elevation
// statistics. History is ignored.
func (p *RulePlanner) Analyze(_ context.Context, query string, region domain.Region, _ []domain.ConversationTurn) (*domain.QueryAnalysis, error) {
	lower := strings.ToLower(query)

	if !containsAny(lower, inScopeKeywords) {
		return &domain.QueryAnalysis{
			InScope:          false,
			Reasoning:        outOfScopeReasoning,
			ToolCalls:        []domain.ToolCall{},
			ResponseTemplate: outOfScopeTemplate,
		}, nil
	}

	if containsAny(lower, locationKeywords) {
		name := ExtractLocationName(query)
		return &domain.QueryAnalysis{
			InScope:   true,
			Reasoning: fmt.Sprintf("Location search query for: %s", name),
			ToolCalls: []domain.ToolCall{{
				ToolName:   string(domain.ToolGeocodeLocation),
				Parameters: map[string]any{"location_name": name},
				Reasoning:  "Geocoding location to navigate map viewport",
			}},
			ResponseTemplate: "Navigating to {location}",
		}, nil
	}

	if containsAny(lower, satelliteKeywords) {
		return &domain.QueryAnalysis{
			InScope:   true,
			Reasoning: "Satellite imagery request for current area",
			ToolCalls: []domain.ToolCall{{
				ToolName: string(domain.ToolGetSatelliteImagery),
				Parameters: map[string]any{
					"region":      regionParam(region),
					"start_date":  "2024-01-01",
					"end_date":    "2024-12-31",
					"cloud_cover": 30,
				},
				Reasoning: "Fetching Sentinel-2 satellite imagery for the region",
			}},
			ResponseTemplate: "Showing Sentinel-2 satellite imagery for this area with {image_count} images available",
			RequiresSatelliteImagery: &domain.SatelliteIntent{
				Enabled:       true,
				Visualization: domain.VisualizationRGB,
			},
		}, nil
	}

	return &domain.QueryAnalysis{
		InScope:   true,
		Reasoning: "Query relates to geospatial analysis - using elevation data as example",
		ToolCalls: []domain.ToolCall{{
			ToolName: string(domain.ToolGetImageStatistics),
			Parameters: map[string]any{
				"dataset_id": elevationDataset,
				"region":     regionParam(region),
				"scale":      1000,
			},
			Reasoning: "Elevation analysis provides foundational terrain information",
		}},
		ResponseTemplate: "Elevation analysis: {mean:.1f}m average height in this region",
	}, nil
}

// ExtractLocationName strips navigation phrases from a query. It tries
// "go to " and "navigate to ", then the words after the first run of "to"
// and "me", then falls back to the whole query.
func ExtractLocationName(query string) string {
	lower := strings.ToLower(query)
	source := query
	if len(lower) != len(query) {
		source = lower
	}

	name := ""
	for _, prefix := range []string{"go to ", "navigate to "} {
		if i := strings.Index(lower, prefix); i != -1 {
			name = source[i+len(prefix):]
			break
		}
	}
	if name == "" {
		words := strings.Fields(query)
		for i, w := range words {
			if !isPointer(w) {
				continue
			}
			j := i + 1
			for j < len(words) && isPointer(words[j]) {
				j++
			}
			name = strings.Join(words[j:], " ")
			break
		}
	}

	name = strings.TrimRight(strings.TrimSpace(name), "?.!")
	if name == "" {
		return strings.TrimSpace(query)
	}
	return name
}

// isPointer matches the words that precede a place name ("me", "to").
func isPointer(w string) bool {
	w = strings.ToLower(w)
	return w == "to" || w == "me"
}

func regionParam(r domain.Region) map[string]any {
	coords := make([]any, len(r.Coordinates))
	for i, c := range r.Coordinates {
		coords[i] = c
	}
	return map[string]any{"type": r.Type, "coordinates": coords}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
