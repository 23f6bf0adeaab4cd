package seed

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Simplici0/labelquote/internal/settings"
)

// DefaultMaterials are the stock materials and their price per m².
var DefaultMaterials = map[string]float64{
	"Paper (chrome)": 39.95,
	"Plastic (PPW)":  54.05,
	"Thermal Paper":  49.35,
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the default materials and settings. Existing rows are never
// changed, so running it repeatedly is safe.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureMaterials(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSettings(ctx, tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// ensureMaterials seeds the stock list only into an empty table so deleted
// or renamed materials do not come back.
func ensureMaterials(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM materials`).Scan(&count); err != nil {
		return fmt.Errorf("count materials: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range sortedKeys(DefaultMaterials) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO materials (name, price_per_m2)
			VALUES (?, ?)
		`, name, DefaultMaterials[name]); err != nil {
			return fmt.Errorf("insert default material %q: %w", name, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	defaults := settings.Defaults()
	for _, key := range sortedKeys(defaults) {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value)
			VALUES (?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, defaults[key])
		if err != nil {
			return fmt.Errorf("insert default setting %q: %w", key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert default setting %q: %w", key, err)
		}
		stats.Inserts += int(affected)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
