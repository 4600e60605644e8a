package migration

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrderedAndComplete(t *testing.T) {
	m := &Migrator{migrations: sortedMigrations(getAllMigrations())}

	seen := make(map[int]bool)
	for i, mig := range m.migrations {
		if seen[mig.Version] {
			t.Errorf("duplicate migration version %d", mig.Version)
		}
		seen[mig.Version] = true

		if i > 0 && m.migrations[i-1].Version >= mig.Version {
			t.Errorf("migrations not ordered at index %d", i)
		}
		if strings.TrimSpace(mig.Up) == "" || strings.TrimSpace(mig.Down) == "" {
			t.Errorf("migration %d (%s) must have Up and Down", mig.Version, mig.Name)
		}
	}
}

func TestSchemaCoversCapacityQueries(t *testing.T) {
	var all strings.Builder
	for _, mig := range getAllMigrations() {
		all.WriteString(mig.Up)
	}
	schema := all.String()

	for _, column := range []string{"first_name", "last_name", "is_active", "estimated_hours", "due_date", "assigned_to", "duration_hours", "start_time"} {
		if !strings.Contains(schema, column) {
			t.Errorf("schema missing column %s", column)
		}
	}
}

func TestPending(t *testing.T) {
	m := &Migrator{migrations: sortedMigrations([]Migration{
		{Version: 3, Name: "c"},
		{Version: 1, Name: "a"},
		{Version: 2, Name: "b"},
	})}

	tests := []struct {
		current int
		want    []int
	}{
		{0, []int{1, 2, 3}},
		{1, []int{2, 3}},
		{3, nil},
	}

	for _, tt := range tests {
		got := m.Pending(tt.current)
		if len(got) != len(tt.want) {
			t.Fatalf("Pending(%d) returned %d migrations, want %d", tt.current, len(got), len(tt.want))
		}
		for i := range got {
			if got[i].Version != tt.want[i] {
				t.Errorf("Pending(%d)[%d] = %d, want %d", tt.current, i, got[i].Version, tt.want[i])
			}
		}
	}
}
