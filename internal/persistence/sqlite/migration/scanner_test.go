package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON t(id);")},
		"migrations/002_second.sql":         {Data: []byte("-- Description: Second step\nCREATE TABLE b (id TEXT);")},
		"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
		"migrations/README.md":              {Data: []byte("not a migration")},
	}

	migrations, err := NewScanner(fsys, "migrations").Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantVersions := []string{"001", "002", "010"}
	for i, m := range migrations {
		if m.Version != wantVersions[i] {
			t.Fatalf("migration %d version = %s, want %s", i, m.Version, wantVersions[i])
		}
		if m.Checksum == "" {
			t.Fatalf("migration %s missing checksum", m.Version)
		}
	}
	if migrations[0].Description != "initial schema" {
		t.Errorf("expected description from filename, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "Second step" {
		t.Errorf("expected description from content, got %q", migrations[1].Description)
	}
}

func TestScanner_Rejects(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		fsys fstest.MapFS
		want error
	}{
		"bad filename": {
			fsys: fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}},
			want: ErrInvalidMigrationFile,
		},
		"empty file": {
			fsys: fstest.MapFS{"m/001_empty.sql": {Data: []byte("  \n")}},
			want: ErrInvalidMigrationFile,
		},
		"duplicate version": {
			fsys: fstest.MapFS{
				"m/001_a.sql": {Data: []byte("SELECT 1;")},
				"m/1_b.sql":   {Data: []byte("SELECT 2;")},
			},
			want: ErrDuplicateVersion,
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewScanner(tt.fsys, "m").Scan()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSplitStatements(t *testing.T) {
	t.Parallel()

	sql := `-- leading comment
CREATE TABLE a (id TEXT);

-- another
CREATE TABLE b (id TEXT);
;`
	got := splitStatements(sql)
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
}
