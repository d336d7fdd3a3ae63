package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

var testMigrations = fstest.MapFS{
	"sql/001_create_runs.up.sql":    {Data: []byte("CREATE TABLE runs (id INTEGER PRIMARY KEY)")},
	"sql/001_create_runs.down.sql":  {Data: []byte("DROP TABLE runs")},
	"sql/002_add_label.up.sql":      {Data: []byte("ALTER TABLE runs ADD COLUMN label TEXT")},
	"sql/002_add_label.down.sql":    {Data: []byte("ALTER TABLE runs DROP COLUMN label")},
	"sql/README.md":                 {Data: []byte("ignored")},
	"sql/003_no_down_yet.up.sql":    {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY)")},
	"other/001_unrelated.up.sql":    {Data: []byte("not sql at all")},
	"sql/nested/009_skipped.up.sql": {Data: []byte("not sql at all")},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetMigrations(t *testing.T) {
	migs, err := NewFileProvider(testMigrations, "sql", "").GetMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(migs) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migs))
	}
	if migs[0].Version != 1 || migs[0].Name != "create runs" || migs[0].Down == "" {
		t.Errorf("first migration = %+v", migs[0])
	}
	if migs[2].Version != 3 || migs[2].Down != "" {
		t.Errorf("third migration = %+v", migs[2])
	}
}

func TestMigrateUpAndDown(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	m := NewMigrator(db, NewFileProvider(testMigrations, "sql", ""), nil)

	if err := m.MigrateTo(ctx, 2); err != nil {
		t.Fatalf("migrate to 2: %v", err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
	if _, err := db.Exec("INSERT INTO runs (id, label) VALUES (1, 'a')"); err != nil {
		t.Errorf("schema not applied: %v", err)
	}

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil || len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pending = %+v, %v", pending, err)
	}

	if err := m.MigrateUp(ctx); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 3 {
		t.Errorf("version = %d, want 3", v)
	}

	// Migration 3 has no down SQL.
	if err := m.MigrateTo(ctx, 1); err == nil {
		t.Error("expected rollback past migration 3 to fail")
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 3 {
		t.Errorf("failed rollback changed version to %d", v)
	}
}

func TestMigrateDownToZero(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	fsys := fstest.MapFS{
		"001_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER)")},
		"001_a.down.sql": {Data: []byte("DROP TABLE a")},
		"002_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER)")},
		"002_b.down.sql": {Data: []byte("DROP TABLE b")},
	}
	m := NewMigrator(db, NewFileProvider(fsys, "", "versions"), nil)

	if err := m.MigrateUp(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.MigrateTo(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
	if err := m.MigrateTo(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.GetCurrentVersion(ctx); v != 0 {
		t.Errorf("version = %d, want 0", v)
	}
	if _, err := db.Exec("SELECT * FROM a"); err == nil {
		t.Error("table a should be gone")
	}
}
