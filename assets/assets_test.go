package assets

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrations_PairedUpAndDown(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(Migrations, "migrations")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for version := range ups {
		if !downs[version] {
			t.Fatalf("migration %s has no down script", version)
		}
	}
}

func TestMigrations_OneOpenSessionPerDayIndex(t *testing.T) {
	t.Parallel()

	b, err := fs.ReadFile(Migrations, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(b), "overtime_sessions_one_open_per_day_idx") {
		t.Fatal("open session index missing from the initial schema")
	}
}
