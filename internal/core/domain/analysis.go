package domain

import (
	"fmt"
	"time"
)

// ToolName is the closed set of operations the planner may request.
type ToolName string

const (
	ToolGeocodeLocation        ToolName = "geocode_location"
	ToolGetSatelliteImagery    ToolName = "get_satellite_imagery"
	ToolGetImageStatistics     ToolName = "get_image_statistics"
	ToolSearchDatasets         ToolName = "search_datasets"
	ToolGetDatasetInfo         ToolName = "get_dataset_info"
	ToolAnalyzeLandCoverChange ToolName = "analyze_land_cover_change"
	ToolGetSimilarityHeatmap   ToolName = "get_similarity_heatmap"
)

// ToolNames lists the registry in the order it is described to the model.
var ToolNames = []ToolName{
	ToolGeocodeLocation,
	ToolGetSatelliteImagery,
	ToolGetImageStatistics,
	ToolSearchDatasets,
	ToolGetDatasetInfo,
	ToolAnalyzeLandCoverChange,
	ToolGetSimilarityHeatmap,
}

// ParseToolName maps a raw name onto the registry.
func ParseToolName(s string) (ToolName, error) {
	for _, n := range ToolNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTool, s)
}

// Visualization selects a band combination for optical imagery.
type Visualization string

const (
	VisualizationRGB         Visualization = "rgb"
	VisualizationFalseColor  Visualization = "false_color"
	VisualizationNDVI        Visualization = "ndvi"
	VisualizationAgriculture Visualization = "agriculture"
)

// Valid reports whether v is one of the known band combinations.
func (v Visualization) Valid() bool {
	switch v {
	case VisualizationRGB, VisualizationFalseColor, VisualizationNDVI, VisualizationAgriculture:
		return true
	}
	return false
}

// ToolCall is one planned invocation. ToolName stays a raw string so that
// unknown names survive until dispatch.
type ToolCall struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Reasoning  string         `json:"reasoning"`
}

// SatelliteIntent tells the client whether to overlay imagery after the answer.
type SatelliteIntent struct {
	Enabled       bool          `json:"enabled"`
	Visualization Visualization `json:"visualization"`
}

// QueryAnalysis is the planner's decision for one query.
type QueryAnalysis struct {
	InScope                  bool             `json:"in_scope"`
	Reasoning                string           `json:"reasoning"`
	ToolCalls                []ToolCall       `json:"tool_calls"`
	ResponseTemplate         string           `json:"response_template"`
	RequiresSatelliteImagery *SatelliteIntent `json:"requires_satellite_imagery,omitempty"`
}

// ConversationTurn is one prior message in the chat.
type ConversationTurn struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

// ToolOutcome records the result or error of one executed call.
type ToolOutcome struct {
	Tool      string         `json:"tool"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Reasoning string         `json:"reasoning,omitempty"`
}

// Succeeded reports whether the call produced a result.
func (o ToolOutcome) Succeeded() bool {
	return o.Error == ""
}

// QueryOutcome is the dispatcher's output.
type QueryOutcome struct {
	Response string        `json:"response"`
	Results  []ToolOutcome `json:"results"`
}

// QueryStatus is the top-level result kind of a natural-language query.
type QueryStatus string

const (
	StatusSuccess            QueryStatus = "success"
	StatusOutOfScope         QueryStatus = "out_of_scope"
	StatusServiceUnavailable QueryStatus = "service_unavailable"
	StatusAnalysisFailed     QueryStatus = "analysis_failed"
)

// QueryRequest is a natural-language question about a map region.
type QueryRequest struct {
	Query               string             `json:"query" validate:"required,max=2000"`
	Region              Region             `json:"region"`
	ConversationHistory []ConversationTurn `json:"conversation_history,omitempty" validate:"omitempty,dive"`
}

// QueryResponse is what the client receives for a query.
type QueryResponse struct {
	QueryID          string           `json:"query_id"`
	Status           QueryStatus      `json:"status"`
	Response         string           `json:"response"`
	Data             []ToolOutcome    `json:"data,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
	Error            string           `json:"error,omitempty"`
	SatelliteImagery *SatelliteIntent `json:"satellite_imagery,omitempty"`
}

// QueryEvent is published after each processed query.
type QueryEvent struct {
	QueryID   string      `json:"query_id"`
	Query     string      `json:"query"`
	Status    QueryStatus `json:"status"`
	Tools     []string    `json:"tools"`
	Failed    int         `json:"failed_tools"`
	Planner   string      `json:"planner"`
	Duration  float64     `json:"duration_ms"`
	CreatedAt time.Time   `json:"created_at"`
}
