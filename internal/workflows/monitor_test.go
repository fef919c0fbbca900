package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/workflows"
)

type fakeHeatmap struct {
	fetchFn func(ctx context.Context, b domain.BoundingBox, ref, tgt int) (*domain.HeatmapResult, error)
}

func (f *fakeHeatmap) FetchSimilarityHeatmap(ctx context.Context, b domain.BoundingBox, ref, tgt int) (*domain.HeatmapResult, error) {
	return f.fetchFn(ctx, b, ref, tgt)
}

type fakeEvents struct {
	reports []string
	failFor string
}

func (f *fakeEvents) PublishQueryEvent(ctx context.Context, event *domain.QueryEvent) error {
	return nil
}

func (f *fakeEvents) PublishMonitorReport(ctx context.Context, report *domain.MonitorReport) error {
	if report.Location == f.failFor {
		return errors.New("broker down")
	}
	f.reports = append(f.reports, report.Location)
	return nil
}

var (
	forest = domain.DemoLocation{Name: "Forest", Bounds: domain.BoundingBox{North: -2, South: -4, East: -59, West: -61}}
	city   = domain.DemoLocation{Name: "City", Bounds: domain.BoundingBox{North: 25.5, South: 24.9, East: 55.6, West: 54.9}}
)

func runMonitor(t *testing.T, acts *workflows.MonitorActivities, locations ...domain.DemoLocation) *workflows.MonitorResult {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.ChangeMonitorWorkflow)
	env.RegisterActivity(acts)

	env.ExecuteWorkflow(workflows.ChangeMonitorWorkflow, workflows.MonitorInput{
		ReferenceYear: 2022,
		TargetYear:    2023,
		Locations:     locations,
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var result workflows.MonitorResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return &result
}

func TestChangeMonitorWorkflow_PublishesEveryLocation(t *testing.T) {
	events := &fakeEvents{}
	acts := &workflows.MonitorActivities{
		Heatmap: &fakeHeatmap{fetchFn: func(ctx context.Context, b domain.BoundingBox, ref, tgt int) (*domain.HeatmapResult, error) {
			return &domain.HeatmapResult{Summary: domain.ChangeSummary{Stable: 4, Changed: 1, ChangedPercent: 20}}, nil
		}},
		Events: events,
		Now:    func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	}

	result := runMonitor(t, acts, forest, city)

	if len(result.Reports) != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Reports[0].Summary.ChangedPercent != 20 || result.Reports[0].ReferenceYear != 2022 {
		t.Errorf("unexpected report %+v", result.Reports[0])
	}
	if len(events.reports) != 2 {
		t.Errorf("expected 2 published reports, got %v", events.reports)
	}
}

func TestChangeMonitorWorkflow_BackendNotReadyIsReported(t *testing.T) {
	calls := 0
	events := &fakeEvents{}
	acts := &workflows.MonitorActivities{
		Heatmap: &fakeHeatmap{fetchFn: func(ctx context.Context, b domain.BoundingBox, ref, tgt int) (*domain.HeatmapResult, error) {
			calls++
			return nil, domain.ErrBackendNotReady
		}},
		Events: events,
	}

	result := runMonitor(t, acts, forest)

	if calls != 1 {
		t.Errorf("backend not ready should not be retried, got %d calls", calls)
	}
	if result.Failed != 1 || result.Reports[0].Error == "" {
		t.Errorf("expected failed report, got %+v", result)
	}
	if len(events.reports) != 1 {
		t.Error("failed reports are still published")
	}
}

func TestChangeMonitorWorkflow_PublishFailureContinues(t *testing.T) {
	events := &fakeEvents{failFor: "Forest"}
	acts := &workflows.MonitorActivities{
		Heatmap: &fakeHeatmap{fetchFn: func(ctx context.Context, b domain.BoundingBox, ref, tgt int) (*domain.HeatmapResult, error) {
			return &domain.HeatmapResult{}, nil
		}},
		Events: events,
	}

	result := runMonitor(t, acts, forest, city)

	if result.Unpublished != 1 {
		t.Errorf("expected 1 unpublished report, got %d", result.Unpublished)
	}
	if len(events.reports) != 1 || events.reports[0] != "City" {
		t.Errorf("expected City to be published, got %v", events.reports)
	}
}
