package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

// Application error types the workflow does not retry.
const (
	ErrTypeBackendNotReady = "BackendNotReady"
	ErrTypeRegionTooLarge  = "RegionTooLarge"
)

// HeatmapSource produces the similarity heatmap for a region.
type HeatmapSource interface {
	FetchSimilarityHeatmap(ctx context.Context, b domain.BoundingBox, referenceYear, targetYear int) (*domain.HeatmapResult, error)
}

// ReportStore persists monitor reports.
type ReportStore interface {
	Save(ctx context.Context, report *domain.MonitorReport) error
}

// ReportRequest asks for one location's change report.
type ReportRequest struct {
	Location      domain.DemoLocation
	ReferenceYear int
	TargetYear    int
}

// MonitorActivities holds the activity implementations for the monitor workflow.
// Events and Reports may be nil.
type MonitorActivities struct {
	Heatmap HeatmapSource
	Events  ports.EventPublisher
	Reports ReportStore
	Now     func() time.Time
}

// ComputeChangeReport runs the similarity heatmap over a location and keeps
// only its summary.
func (a *MonitorActivities) ComputeChangeReport(ctx context.Context, req ReportRequest) (*domain.MonitorReport, error) {
	res, err := a.Heatmap.FetchSimilarityHeatmap(ctx, req.Location.Bounds, req.ReferenceYear, req.TargetYear)
	if err != nil {
		metrics.MonitorRuns.WithLabelValues(req.Location.Name, "error").Inc()
		switch {
		case errors.Is(err, domain.ErrBackendNotReady):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeBackendNotReady, err)
		case errors.Is(err, domain.ErrRegionTooLarge):
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeRegionTooLarge, err)
		}
		return nil, fmt.Errorf("heatmap %s: %w", req.Location.Name, err)
	}

	metrics.MonitorRuns.WithLabelValues(req.Location.Name, "success").Inc()
	return &domain.MonitorReport{
		Location:      req.Location.Name,
		Bounds:        req.Location.Bounds,
		ReferenceYear: req.ReferenceYear,
		TargetYear:    req.TargetYear,
		Summary:       res.Summary,
		FallbackUsed:  res.FallbackUsed,
		GeneratedAt:   a.now().UTC(),
	}, nil
}

// PublishMonitorReport stores the report and announces it on the broker.
func (a *MonitorActivities) PublishMonitorReport(ctx context.Context, report domain.MonitorReport) error {
	if a.Reports != nil {
		if err := a.Reports.Save(ctx, &report); err != nil {
			return fmt.Errorf("save report %s: %w", report.Location, err)
		}
	}
	if a.Events == nil {
		slog.InfoContext(ctx, "monitor report (no broker)",
			"location", report.Location,
			"changed_percent", report.Summary.ChangedPercent,
			"error", report.Error,
		)
		return nil
	}
	if err := a.Events.PublishMonitorReport(ctx, &report); err != nil {
		return fmt.Errorf("publish report %s: %w", report.Location, err)
	}
	return nil
}

func (a *MonitorActivities) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
