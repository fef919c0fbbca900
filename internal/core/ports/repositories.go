package ports

import (
	"context"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// QueryLogRepository persists the query audit log.
type QueryLogRepository interface {
	Insert(ctx context.Context, entry *domain.QueryLogEntry) error
	Recent(ctx context.Context, limit, offset int) ([]domain.QueryLogEntry, int, error)
}
