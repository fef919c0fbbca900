// Package workflows holds the Temporal change-monitoring workflow.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// Activity names registered by the monitor worker.
const (
	ActivityComputeChangeReport  = "ComputeChangeReport"
	ActivityPublishMonitorReport = "PublishMonitorReport"
)

// MonitorInput is the input for the change monitor workflow.
type MonitorInput struct {
	ReferenceYear int
	TargetYear    int
	Locations     []domain.DemoLocation
}

// MonitorResult summarises one monitor run.
type MonitorResult struct {
	Reports     []domain.MonitorReport
	Failed      int
	Unpublished int
}

// ChangeMonitorWorkflow computes a similarity summary for every location in
// turn and publishes each report. A location whose computation fails after
// retries is reported with its error; the run continues with the next one.
func ChangeMonitorWorkflow(ctx workflow.Context, input MonitorInput) (*MonitorResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting change monitor", "locations", len(input.Locations),
		"referenceYear", input.ReferenceYear, "targetYear", input.TargetYear)

	computeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeBackendNotReady, ErrTypeRegionTooLarge},
		},
	})
	publishCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	result := &MonitorResult{}
	for _, loc := range input.Locations {
		var report domain.MonitorReport
		req := ReportRequest{Location: loc, ReferenceYear: input.ReferenceYear, TargetYear: input.TargetYear}
		if err := workflow.ExecuteActivity(computeCtx, ActivityComputeChangeReport, req).Get(ctx, &report); err != nil {
			logger.Warn("change report failed", "location", loc.Name, "error", err)
			result.Failed++
			report = domain.MonitorReport{
				Location:      loc.Name,
				Bounds:        loc.Bounds,
				ReferenceYear: input.ReferenceYear,
				TargetYear:    input.TargetYear,
				Error:         err.Error(),
				GeneratedAt:   workflow.Now(ctx).UTC(),
			}
		}

		if err := workflow.ExecuteActivity(publishCtx, ActivityPublishMonitorReport, report).Get(ctx, nil); err != nil {
			logger.Warn("publish report failed", "location", loc.Name, "error", err)
			result.Unpublished++
		}
		result.Reports = append(result.Reports, report)
	}

	logger.Info("Change monitor finished", "reports", len(result.Reports), "failed", result.Failed)
	return result, nil
}
