package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/kadal/internal/core/domain"
	"github.com/samirrijal/kadal/internal/core/ports"
	"github.com/samirrijal/kadal/internal/pkg/metrics"
)

const (
	unavailableMessage    = "The query planner is temporarily unavailable. Please try again shortly."
	analysisFailedMessage = "I couldn't understand how to answer that. Please rephrase your question."
)

// QueryService answers natural-language map queries.
type QueryService struct {
	planner    QueryPlanner
	dispatcher *Dispatcher
	events     ports.EventPublisher
	queryLog   ports.QueryLogRepository
	now        func() time.Time
}

// NewQueryService creates a new QueryService. events and queryLog may be nil.
func NewQueryService(planner QueryPlanner, dispatcher *Dispatcher, events ports.EventPublisher, queryLog ports.QueryLogRepository) *QueryService {
	return &QueryService{
		planner:    planner,
		dispatcher: dispatcher,
		events:     events,
		queryLog:   queryLog,
		now:        time.Now,
	}
}

// PlannerName reports which planner variant is active.
func (s *QueryService) PlannerName() string {
	return s.planner.Name()
}

// Process plans and executes one query. Planner failures are reported in
// the response status; only an invalid region is returned as an error.
func (s *QueryService) Process(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if err := validateRegion(req.Region); err != nil {
		return nil, err
	}

	start := s.now()
	resp := &domain.QueryResponse{QueryID: uuid.NewString()}
	var tools []string
	failed := 0

	analysis, err := s.planner.Analyze(ctx, req.Query, req.Region, req.ConversationHistory)
	switch {
	case errors.Is(err, domain.ErrPlannerUnavailable):
		slog.ErrorContext(ctx, "planner unavailable", "planner", s.planner.Name(), "error", err)
		resp.Status = domain.StatusServiceUnavailable
		resp.Response = unavailableMessage
		resp.Error = err.Error()
	case err != nil:
		slog.WarnContext(ctx, "query analysis failed", "planner", s.planner.Name(), "error", err)
		resp.Status = domain.StatusAnalysisFailed
		resp.Response = analysisFailedMessage
		resp.Error = err.Error()
	case !analysis.InScope:
		resp.Status = domain.StatusOutOfScope
		resp.Response = analysis.ResponseTemplate
		if resp.Response == "" {
			resp.Response = outOfScopeTemplate
		}
		resp.Reasoning = analysis.Reasoning
	default:
		outcome := s.dispatcher.Execute(ctx, analysis, req.Region)
		resp.Status = domain.StatusSuccess
		resp.Response = outcome.Response
		resp.Data = outcome.Results
		resp.Reasoning = analysis.Reasoning
		resp.SatelliteImagery = analysis.RequiresSatelliteImagery
		for _, r := range outcome.Results {
			tools = append(tools, r.Tool)
			if !r.Succeeded() {
				failed++
			}
		}
	}

	metrics.PlannerOutcomes.WithLabelValues(s.planner.Name(), string(resp.Status)).Inc()
	s.record(ctx, req.Query, resp, tools, failed, s.now().Sub(start))
	return resp, nil
}

// History returns the most recent logged queries.
func (s *QueryService) History(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error) {
	if s.queryLog == nil {
		return []domain.QueryLogEntry{}, 0, nil
	}
	return s.queryLog.Recent(ctx, limit, offset)
}

// record publishes the event and appends the log entry. Both are best effort.
func (s *QueryService) record(ctx context.Context, query string, resp *domain.QueryResponse, tools []string, failed int, elapsed time.Duration) {
	if tools == nil {
		tools = []string{}
	}
	createdAt := s.now().UTC()
	ms := float64(elapsed.Microseconds()) / 1000

	if s.events != nil {
		event := &domain.QueryEvent{
			QueryID:   resp.QueryID,
			Query:     query,
			Status:    resp.Status,
			Tools:     tools,
			Failed:    failed,
			Planner:   s.planner.Name(),
			Duration:  ms,
			CreatedAt: createdAt,
		}
		if err := s.events.PublishQueryEvent(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish query event", "query_id", resp.QueryID, "error", err)
		}
	}

	if s.queryLog != nil {
		entry := &domain.QueryLogEntry{
			ID:         resp.QueryID,
			Query:      query,
			Status:     resp.Status,
			Tools:      tools,
			Response:   resp.Response,
			DurationMS: ms,
			CreatedAt:  createdAt,
		}
		if err := s.queryLog.Insert(ctx, entry); err != nil {
			slog.WarnContext(ctx, "failed to write query log", "query_id", resp.QueryID, "error", err)
		}
	}
}

// validateRegion accepts an empty region; anything else must be a valid
// rectangle.
func validateRegion(r domain.Region) error {
	if r.Type == "" && len(r.Coordinates) == 0 {
		return nil
	}
	b, err := r.Bounds()
	if err != nil {
		return err
	}
	return b.Validate()
}
