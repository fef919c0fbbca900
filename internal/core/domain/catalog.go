package domain

import "time"

// GeocodeResult is the outcome of resolving a place name. Found=false is a
// normal answer, not an error.
type GeocodeResult struct {
	Found       bool         `json:"found"`
	Location    string       `json:"location,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	PlaceTypes  []string     `json:"place_types,omitempty"`
	Source      string       `json:"source,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// PlaceMatch is the first hit from an external geocoder.
type PlaceMatch struct {
	FormattedAddress string   `json:"formatted_address"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Types            []string `json:"types"`
}

// Dataset is a catalog entry for an analysis dataset.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"type"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Bands       []string `json:"bands,omitempty"`
}

// DemoLocation is a preset area for the map client.
type DemoLocation struct {
	Name        string      `json:"name"`
	Longitude   float64     `json:"longitude"`
	Latitude    float64     `json:"latitude"`
	Bounds      BoundingBox `json:"bounds"`
	Description string      `json:"description"`
}

// AnalysisType describes one supported analysis.
type AnalysisType struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// MonitorReport is the scheduled change summary for one demo location.
type MonitorReport struct {
	Location      string        `json:"location"`
	Bounds        BoundingBox   `json:"bounds"`
	ReferenceYear int           `json:"reference_year"`
	TargetYear    int           `json:"target_year"`
	Summary       ChangeSummary `json:"summary"`
	FallbackUsed  bool          `json:"fallback_used"`
	Error         string        `json:"error,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// QueryLogEntry is one row of the query audit log.
type QueryLogEntry struct {
	ID         string      `json:"id"`
	Query      string      `json:"query"`
	Status     QueryStatus `json:"status"`
	Tools      []string    `json:"tools"`
	Response   string      `json:"response"`
	DurationMS float64     `json:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

// DatasetHit is one search result.
type DatasetHit struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Info     Dataset `json:"info"`
}

// DatasetSearchResult answers a keyword search over the catalog.
type DatasetSearchResult struct {
	Query   string       `json:"query"`
	Results []DatasetHit `json:"results"`
	Count   int          `json:"count"`
}
