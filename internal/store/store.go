// Package store persists settings, material prices and calculation history
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Simplici0/labelquote/internal/settings"
)

// ErrNotFound is returned when a material or calculation does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a material with the same name already exists.
var ErrConflict = errors.New("already exists")

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store backed by db.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Settings loads the flat settings mapping.
func (s *Store) Settings(ctx context.Context) (settings.Values, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	values := settings.Values{}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return values, nil
}

// UpdateSettings validates and upserts values in a single transaction.
func (s *Store) UpdateSettings(ctx context.Context, values settings.Values) error {
	if err := values.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
		`, key, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert setting %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}

// Materials loads the material name to price per m² mapping.
func (s *Store) Materials(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, price_per_m2 FROM materials ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make(map[string]float64)
	for rows.Next() {
		var name string
		var price float64
		if err := rows.Scan(&name, &price); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials[name] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

// UpdateMaterialPrice changes the price of an existing material.
func (s *Store) UpdateMaterialPrice(ctx context.Context, name string, price float64) error {
	if price < 0 {
		return fmt.Errorf("price_per_m2 must be >= 0, got %v", price)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET price_per_m2 = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, price, name)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("material %q: %w", name, ErrNotFound)
	}
	return nil
}

// AddMaterial inserts a new material.
func (s *Store) AddMaterial(ctx context.Context, name string, price float64) error {
	if name == "" {
		return errors.New("material name is required")
	}
	if price < 0 {
		return fmt.Errorf("price_per_m2 must be >= 0, got %v", price)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, price_per_m2) VALUES (?, ?)
	`, name, price); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("material %q: %w", name, ErrConflict)
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// isConstraintViolation matches both primary and extended constraint codes.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// Calculation is one saved quote.
type Calculation struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"created_at"`
	ClientName        string             `json:"client_name"`
	ProductName       string             `json:"product_name"`
	LabelWidth        float64            `json:"template_width"`
	LabelHeight       float64            `json:"template_height"`
	Quantity          int                `json:"quantity"`
	Colors            int                `json:"num_colors"`
	Blank             bool               `json:"is_blank"`
	Varnish           bool               `json:"is_uv_varnish"`
	MaterialName      string             `json:"material_name"`
	Tool              string             `json:"tool_type"`
	MachineSpeed      float64            `json:"machine_speed"`
	ProfitCoefficient float64            `json:"profit_coefficient"`
	TotalPrice        float64            `json:"total_price"`
	PricePerPiece     float64            `json:"price_per_piece"`
	Results           map[string]float64 `json:"results,omitempty"`
}

// SaveCalculation records a calculation and returns it with ID and timestamp set.
func (s *Store) SaveCalculation(ctx context.Context, c Calculation) (Calculation, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC().Truncate(time.Second)

	results, err := json.Marshal(c.Results)
	if err != nil {
		return Calculation{}, fmt.Errorf("encode calculation results: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO calculations (
			id, created_at, client_name, product_name, template_width, template_height,
			quantity, num_colors, is_blank, is_uv_varnish, material_name, tool_type,
			machine_speed, profit_coefficient, total_price, price_per_piece, results_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.CreatedAt.Format(time.DateTime), c.ClientName, c.ProductName, c.LabelWidth, c.LabelHeight,
		c.Quantity, c.Colors, c.Blank, c.Varnish, c.MaterialName, c.Tool,
		c.MachineSpeed, c.ProfitCoefficient, c.TotalPrice, c.PricePerPiece, string(results),
	); err != nil {
		return Calculation{}, fmt.Errorf("insert calculation: %w", err)
	}
	return c, nil
}

const calculationColumns = `
	id, created_at, COALESCE(client_name, ''), COALESCE(product_name, ''), template_width, template_height,
	quantity, num_colors, is_blank, is_uv_varnish, material_name, tool_type,
	machine_speed, profit_coefficient, total_price, price_per_piece, results_json`

// ListCalculations returns saved calculations, newest first, optionally
// filtered by client or product name.
func (s *Store) ListCalculations(ctx context.Context, query string, limit int) ([]Calculation, error) {
	if limit <= 0 {
		limit = 100
	}
	search := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+calculationColumns+`
		FROM calculations
		WHERE (? = '' OR COALESCE(client_name, '') LIKE ? OR COALESCE(product_name, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, rowid DESC
		LIMIT ?
	`, query, search, search, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calculations := make([]Calculation, 0)
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calculations = append(calculations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}
	return calculations, nil
}

// GetCalculation loads one calculation by ID.
func (s *Store) GetCalculation(ctx context.Context, id string) (Calculation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+calculationColumns+` FROM calculations WHERE id = ?`, id)
	c, err := scanCalculation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Calculation{}, fmt.Errorf("calculation %q: %w", id, ErrNotFound)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (Calculation, error) {
	var c Calculation
	var createdAt, results string
	err := row.Scan(
		&c.ID, &createdAt, &c.ClientName, &c.ProductName, &c.LabelWidth, &c.LabelHeight,
		&c.Quantity, &c.Colors, &c.Blank, &c.Varnish, &c.MaterialName, &c.Tool,
		&c.MachineSpeed, &c.ProfitCoefficient, &c.TotalPrice, &c.PricePerPiece, &results,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Calculation{}, err
		}
		return Calculation{}, fmt.Errorf("scan calculation: %w", err)
	}
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Calculation{}, err
	}
	if err := json.Unmarshal([]byte(results), &c.Results); err != nil {
		return Calculation{}, fmt.Errorf("decode calculation results: %w", err)
	}
	return c, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse calculation timestamp %q", raw)
}
