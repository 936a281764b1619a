package migration

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestScanner_ScanMigrations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		files         fstest.MapFS
		expectedOrder []string
		expectErr     error
		errorContains string
	}{
		{
			name: "orders by numeric version and ignores other files",
			files: fstest.MapFS{
				"migrations/010_add_index.sql":   {Data: []byte("CREATE INDEX idx ON t(a);")},
				"migrations/002_add_table.sql":   {Data: []byte("CREATE TABLE u (id INTEGER);")},
				"migrations/001_create_base.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
				"migrations/README.md":           {Data: []byte("# notes")},
			},
			expectedOrder: []string{"001", "002", "010"},
		},
		{
			name:  "empty directory",
			files: fstest.MapFS{"migrations": {Mode: fs.ModeDir | 0o755}},
		},
		{
			name: "invalid filename",
			files: fstest.MapFS{
				"migrations/create_users.sql": {Data: []byte("CREATE TABLE t (a TEXT);")},
			},
			expectErr:     ErrInvalidMigrationFile,
			errorContains: "does not match pattern",
		},
		{
			name: "duplicate versions",
			files: fstest.MapFS{
				"migrations/001_first.sql":  {Data: []byte("CREATE TABLE a (x TEXT);")},
				"migrations/0001_other.sql": {Data: []byte("CREATE TABLE b (x TEXT);")},
				"migrations/001_second.sql": {Data: []byte("CREATE TABLE c (x TEXT);")},
			},
			expectErr: ErrDuplicateVersion,
		},
		{
			name: "comment only file",
			files: fstest.MapFS{
				"migrations/001_empty.sql": {Data: []byte("-- nothing here\n")},
			},
			expectErr: ErrInvalidMigrationFile,
		},
		{
			name: "unbalanced parentheses",
			files: fstest.MapFS{
				"migrations/001_broken.sql": {Data: []byte("CREATE TABLE t (a TEXT;")},
			},
			expectErr:     ErrInvalidMigrationFile,
			errorContains: "parenthesis",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			migrations, err := NewScanner(tt.files, "migrations").ScanMigrations()
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("expected %v, got %v", tt.expectErr, err)
				}
				if tt.errorContains != "" && !strings.Contains(err.Error(), tt.errorContains) {
					t.Fatalf("expected error to contain %q, got %v", tt.errorContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanMigrations failed: %v", err)
			}
			if len(migrations) != len(tt.expectedOrder) {
				t.Fatalf("expected %d migrations, got %d", len(tt.expectedOrder), len(migrations))
			}
			for i, version := range tt.expectedOrder {
				if migrations[i].Version != version {
					t.Fatalf("position %d: expected version %s, got %s", i, version, migrations[i].Version)
				}
			}
		})
	}
}

func TestScanner_Metadata(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"migrations/001_create_users.sql": {Data: []byte("-- Description: Accounts table\nCREATE TABLE users (id INTEGER);\n")},
		"migrations/002_add_jobs.sql":     {Data: []byte("CREATE TABLE jobs (id INTEGER);\n")},
	}

	migrations, err := NewScanner(files, "migrations").ScanMigrations()
	if err != nil {
		t.Fatalf("ScanMigrations failed: %v", err)
	}
	if migrations[0].Description != "Accounts table" {
		t.Fatalf("expected description from comment, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "add jobs" {
		t.Fatalf("expected description from filename, got %q", migrations[1].Description)
	}
	if migrations[0].FilePath != "migrations/001_create_users.sql" {
		t.Fatalf("unexpected file path %q", migrations[0].FilePath)
	}
	if len(migrations[0].Checksum) != 64 || migrations[0].Checksum == migrations[1].Checksum {
		t.Fatalf("expected distinct sha256 checksums, got %q and %q", migrations[0].Checksum, migrations[1].Checksum)
	}
}

func TestScanner_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := NewScanner(fstest.MapFS{}, "missing").ScanMigrations()
	var migErr *MigrationError
	if !errors.As(err, &migErr) || migErr.Operation != "read directory" {
		t.Fatalf("expected read directory MigrationError, got %v", err)
	}
}

func TestParseSQL(t *testing.T) {
	t.Parallel()

	statements := parseSQL(`
-- Description: two tables
CREATE TABLE a (
    id INTEGER -- trailing note stays
);

-- comment only

CREATE INDEX idx_a ON a(id);
`)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %#v", len(statements), statements)
	}
	if !strings.HasPrefix(statements[0], "CREATE TABLE a (") || !strings.HasPrefix(statements[1], "CREATE INDEX") {
		t.Fatalf("unexpected statements %#v", statements)
	}
}
