package db

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite_SyncsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.db")
	gdb, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}

	for _, table := range []string{"projects", "messages"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}

	var count int64
	if err := gdb.Raw(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_messages_project_created_at'`,
	).Scan(&count).Error; err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if count != 1 {
		t.Fatal("messages history index missing")
	}
}

func TestOpenSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.db")
	if _, err := OpenSQLite(path); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := OpenSQLite(path); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
}
