package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/usecases"
)

// BackendStatus reports how the analytic backend was initialised.
type BackendStatus interface {
	Status() earthengine.Status
}

// Pinger is a dependency that can be probed for readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReportSource lists the latest monitor report per location.
type ReportSource interface {
	Latest(ctx context.Context) ([]domain.MonitorReport, error)
}

// Environment is echoed by /health.
type Environment struct {
	Debug       bool   `json:"debug"`
	BackendPort int    `json:"backend_port"`
	MCPPort     int    `json:"mcp_port"`
	Name        string `json:"environment"`
}

// Dependencies holds all services needed by HTTP handlers. Everything below
// Backend is optional.
type Dependencies struct {
	Queries  *usecases.QueryService
	Heatmap  *usecases.HeatmapService
	Imagery  *usecases.ImageryService
	Geocoder *usecases.GeocodeService
	Backend  BackendStatus
	Env      Environment
	Version  string

	Reports ReportSource
	NATS    *nats.Conn
	DB      Pinger
	Cache   Pinger
}
