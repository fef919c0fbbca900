package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/kadal/internal/adapters/earthengine"
	natsadapter "github.com/samirrijal/kadal/internal/adapters/nats"
	"github.com/samirrijal/kadal/internal/adapters/postgres"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/core/usecases"
	"github.com/samirrijal/kadal/internal/pkg/config"
	"github.com/samirrijal/kadal/internal/pkg/logging"
	"github.com/samirrijal/kadal/internal/workflows"
)

const scheduleID = "kadal-change-monitor"

func main() {
	cfg, err := config.Load("kadal-monitor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	backend := earthengine.Initialize(ctx, earthengine.Options{
		ProjectID:       cfg.EarthEngine.ProjectID,
		CredentialsFile: cfg.EarthEngine.CredentialsFile,
		BaseURL:         cfg.EarthEngine.BaseURL,
		Timeout:         cfg.EarthEngine.Timeout,
	})
	if !backend.Ready() {
		slog.Warn("earth engine not initialised, every monitor run will report errors")
	}

	activities := &workflows.MonitorActivities{
		Heatmap: usecases.NewHeatmapService(backend, cfg.Imagery.Tiers),
		Now:     time.Now,
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, reports will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}
	activities.Events = events

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			slog.Warn("database unavailable, reports will not be stored", "error", err)
		} else {
			defer db.Close()
			activities.Reports = postgres.NewMonitorReportRepo(db)
		}
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Monitor.TemporalHost,
		Namespace: cfg.Monitor.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if err := ensureSchedule(ctx, c, cfg.Monitor); err != nil {
		log.Fatalf("schedule: %v", err)
	}

	w := worker.New(c, cfg.Monitor.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ChangeMonitorWorkflow)
	w.RegisterActivity(activities)

	slog.Info("monitor worker started",
		"task_queue", cfg.Monitor.TaskQueue,
		"interval", cfg.Monitor.Interval,
		"locations", len(usecases.DemoLocations()),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// ensureSchedule creates the recurring monitor run. An existing schedule
// is left as is.
func ensureSchedule(ctx context.Context, c client.Client, cfg config.MonitorConfig) error {
	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: scheduleID,
		Spec: client.ScheduleSpec{
			Intervals: []client.ScheduleIntervalSpec{{Every: cfg.Interval}},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        scheduleID + "-run",
			Workflow:  workflows.ChangeMonitorWorkflow,
			TaskQueue: cfg.TaskQueue,
			Args: []interface{}{workflows.MonitorInput{
				ReferenceYear: cfg.ReferenceYear,
				TargetYear:    cfg.TargetYear,
				Locations:     usecases.DemoLocations(),
			}},
		},
	})
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		slog.Info("monitor schedule already exists", "id", scheduleID)
		return nil
	}
	return err
}
