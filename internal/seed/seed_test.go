package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Simplici0/labelquote/internal/db"
	"github.com/Simplici0/labelquote/internal/migrations"
	"github.com/Simplici0/labelquote/internal/settings"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	wantFirst := len(DefaultMaterials) + len(settings.Defaults())
	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != wantFirst {
				t.Fatalf("expected %d inserts in first run, got %d", wantFirst, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM materials`, len(DefaultMaterials))
	assertCount(t, database, `SELECT COUNT(*) FROM settings`, len(settings.Defaults()))
}

func TestRunKeepsEditedValues(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "seed-edit.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := database.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, settings.KeyInkPrice, 9999); err != nil {
		t.Fatalf("insert custom setting: %v", err)
	}
	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	var value float64
	if err := database.QueryRow(`SELECT value FROM settings WHERE key = ?`, settings.KeyInkPrice).Scan(&value); err != nil {
		t.Fatalf("query setting: %v", err)
	}
	if value != 9999 {
		t.Fatalf("expected edited ink price to survive seed, got %v", value)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
