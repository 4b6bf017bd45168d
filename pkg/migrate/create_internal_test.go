package migrate

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationSkipsTakenVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)

	first, err := createSQLMigration(dir, "add unit notes", now)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := createSQLMigration(dir, "add sale notes", now)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if filepath.Base(first) != "20260914100000_add_unit_notes.sql" {
		t.Fatalf("unexpected first file %s", first)
	}
	if !strings.HasPrefix(filepath.Base(second), "20260914100001_") {
		t.Fatalf("expected bumped version, got %s", second)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migrations should validate: %v", err)
	}
}

func TestCheckSections(t *testing.T) {
	if err := checkSections("x.sql", "-- +goose Down\n-- +goose Up\n"); err == nil {
		t.Fatal("expected ordering error")
	}
	if err := checkSections("x.sql", "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n"); err == nil {
		t.Fatal("expected unbalanced statement error")
	}
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	if err := ValidateEmbedded(); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}
