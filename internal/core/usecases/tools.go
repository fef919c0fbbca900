package usecases

import "github.com/samirrijal/kadal/internal/core/domain"

// ToolParam documents one tool argument.
type ToolParam struct {
	Name        string
	Type        string // string | number | object | boolean
	Required    bool
	Description string
}

// ToolSpec documents one registry entry for the planner prompt and the MCP
// server.
type ToolSpec struct {
	Name        domain.ToolName
	Description string
	Params      []ToolParam
}

var boundsParam = ToolParam{
	Name:        "bounds",
	Type:        "object",
	Description: `Area as {"north","south","east","west"}. Omit or null to use the area around a previously geocoded place; {} for the current viewport.`,
}

// ToolSpecs is the registry in prompt order.
var ToolSpecs = []ToolSpec{
	{
		Name:        domain.ToolGeocodeLocation,
		Description: `Convert a place name to coordinates for navigation. Use this for "Go to [location]" queries.`,
		Params: []ToolParam{
			{Name: "location_name", Type: "string", Required: true, Description: "Place name, e.g. Toronto"},
		},
	},
	{
		Name:        domain.ToolGetSatelliteImagery,
		Description: "Get recent Sentinel-2 satellite imagery tiles for an area.",
		Params: []ToolParam{
			boundsParam,
			{Name: "start_date", Type: "string", Description: "YYYY-MM-DD, defaults to 30 days ago"},
			{Name: "end_date", Type: "string", Description: "YYYY-MM-DD, defaults to today"},
			{Name: "cloud_cover", Type: "number", Description: "Maximum cloud cover percentage"},
			{Name: "visualization", Type: "string", Description: "rgb, false_color, ndvi or agriculture"},
		},
	},
	{
		Name:        domain.ToolGetImageStatistics,
		Description: "Calculate mean, min, max and standard deviation of a dataset over an area.",
		Params: []ToolParam{
			{Name: "dataset_id", Type: "string", Required: true, Description: "Dataset id, e.g. USGS/SRTMGL1_003 for elevation"},
			boundsParam,
			{Name: "scale", Type: "number", Description: "Resolution in meters, default 1000"},
		},
	},
	{
		Name:        domain.ToolSearchDatasets,
		Description: "Search datasets by keywords (forest, water, climate, agriculture, urban, terrain).",
		Params: []ToolParam{
			{Name: "keywords", Type: "string", Required: true, Description: "Space separated keywords"},
			{Name: "limit", Type: "number", Description: "Maximum results, default 10"},
		},
	},
	{
		Name:        domain.ToolGetDatasetInfo,
		Description: "Get information about a specific dataset.",
		Params: []ToolParam{
			{Name: "dataset_id", Type: "string", Required: true, Description: "Dataset id"},
		},
	},
	{
		Name:        domain.ToolAnalyzeLandCoverChange,
		Description: "Measure forest loss in an area between two dates.",
		Params: []ToolParam{
			boundsParam,
			{Name: "start_date", Type: "string", Required: true, Description: "YYYY-MM-DD"},
			{Name: "end_date", Type: "string", Required: true, Description: "YYYY-MM-DD"},
		},
	},
	{
		Name:        domain.ToolGetSimilarityHeatmap,
		Description: "Compare satellite embeddings of two years to map where the landscape changed.",
		Params: []ToolParam{
			boundsParam,
			{Name: "reference_year", Type: "number", Description: "Baseline year, default 2022"},
			{Name: "target_year", Type: "number", Description: "Comparison year, default 2023"},
		},
	},
}
