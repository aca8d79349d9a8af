package storage

import (
	"database/sql"
	"testing"
	"time"

	"dolo/internal/config"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"oracle": {DSN: "whatever"},
		},
	}
	if _, err := Open("oracle", cfg); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestStoredFilenameIsUnique(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO conversations (title, created_at) VALUES (?, ?)`, "t", now)
	if err != nil {
		t.Fatalf("insert conversation: %v", err)
	}
	convID, _ := res.LastInsertId()

	insert := func() error {
		_, err := db.Exec(
			`INSERT INTO reports (conversation_id, original_filename, stored_filename, file_path, mime_type, file_size, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			convID, "a.png", "123_a.png", "uploads/123_a.png", "image/png", 10, now,
		)
		return err
	}
	if err := insert(); err != nil {
		t.Fatalf("first report insert: %v", err)
	}
	if err := insert(); err == nil {
		t.Fatalf("duplicate stored_filename must be rejected by the store")
	}
}
