package postgres

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// QueryLogRepo implements ports.QueryLogRepository.
type QueryLogRepo struct {
	db *DB
}

func NewQueryLogRepo(db *DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

func (r *QueryLogRepo) Insert(ctx context.Context, e *domain.QueryLogEntry) error {
	tools := e.Tools
	if tools == nil {
		tools = []string{}
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO query_log (id, query, status, tools, response, duration_ms, created_at)
		VALUES ($1::text::uuid, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, e.ID, e.Query, string(e.Status), tools, e.Response, e.DurationMS, e.CreatedAt)
	return err
}

// Recent returns a page of entries, newest first, plus the total row count.
func (r *QueryLogRepo) Recent(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM query_log`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, query, status, tools, response, duration_ms, created_at
		FROM query_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []domain.QueryLogEntry{}
	for rows.Next() {
		var e domain.QueryLogEntry
		var status string
		if err := rows.Scan(&e.ID, &e.Query, &status, &e.Tools, &e.Response, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Status = domain.QueryStatus(status)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// MonitorReportRepo stores scheduled change reports.
type MonitorReportRepo struct {
	db *DB
}

func NewMonitorReportRepo(db *DB) *MonitorReportRepo {
	return &MonitorReportRepo{db: db}
}

func (r *MonitorReportRepo) Save(ctx context.Context, report *domain.MonitorReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO monitor_reports (location, reference_year, target_year, report, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, report.Location, report.ReferenceYear, report.TargetYear, data, report.GeneratedAt)
	return err
}

// Latest returns the newest report per location.
func (r *MonitorReportRepo) Latest(ctx context.Context) ([]domain.MonitorReport, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (location) report
		FROM monitor_reports
		ORDER BY location, generated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.MonitorReport{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var report domain.MonitorReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
