package db

import (
	"testing"
	"testing/fstest"
	"time"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"002_run_indexes.sql":     {Data: []byte("CREATE INDEX runs_created ON extraction_runs (created_at);")},
		"001_extraction_runs.sql": {Data: []byte("CREATE TABLE extraction_runs (id UUID PRIMARY KEY);")},
		"010_source_name.sql":     {Data: []byte("CREATE INDEX runs_source ON extraction_runs (source_name);")},
		"README.md":               {Data: []byte("not a migration")},
		"seed.sql":                {Data: []byte("SELECT 1;")},
		"abc_bad.sql":             {Data: []byte("SELECT 1;")},
		"archive/003_old.sql":     {Data: []byte("SELECT 1;")},
	}
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := NewMigrator(nil, testFS()).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantVersions := []int{1, 2, 10}
	for i, v := range wantVersions {
		if migrations[i].Version != v {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, v)
		}
	}
	if migrations[0].Name != "001_extraction_runs.sql" {
		t.Errorf("expected name 001_extraction_runs.sql, got %s", migrations[0].Name)
	}
	if migrations[0].SQL != "CREATE TABLE extraction_runs (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migrations, err := NewMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations, got %d", len(migrations))
	}
}

func TestPending(t *testing.T) {
	migrations, err := NewMigrator(nil, testFS()).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	got := pending(migrations, map[int]time.Time{1: time.Now()})
	if len(got) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(got))
	}
	if got[0].Version != 2 || got[1].Version != 10 {
		t.Errorf("unexpected pending order: %d, %d", got[0].Version, got[1].Version)
	}
}

func TestBuildStatus(t *testing.T) {
	migrations, err := NewMigrator(nil, testFS()).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	statuses := buildStatus(migrations, map[int]time.Time{1: at})

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied || statuses[0].AppliedAt == nil || !statuses[0].AppliedAt.Equal(at) {
		t.Errorf("expected migration 1 applied at %v, got %+v", at, statuses[0])
	}
	for _, s := range statuses[1:] {
		if s.Applied {
			t.Errorf("expected migration %d to be pending", s.Version)
		}
		if s.AppliedAt != nil {
			t.Errorf("expected nil AppliedAt for pending migration %d", s.Version)
		}
	}
}
