package postgres_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/kadal/internal/adapters/postgres"
)

func TestMigrations_Ordered(t *testing.T) {
	names, err := postgres.Migrations()
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("expected at least 2 migrations, got %v", names)
	}
	if !strings.HasSuffix(names[0], "001_query_log.sql") {
		t.Errorf("expected query log migration first, got %s", names[0])
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("migrations out of order: %s before %s", names[i-1], names[i])
		}
	}
}
