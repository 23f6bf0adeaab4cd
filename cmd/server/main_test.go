package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/labelquote/internal/config"
	"github.com/Simplici0/labelquote/internal/db"
	"github.com/Simplici0/labelquote/internal/press"
	"github.com/Simplici0/labelquote/internal/seed"
	"github.com/Simplici0/labelquote/internal/store"
)

func runConfig(t *testing.T) config.Config {
	t.Helper()
	d := press.DefaultConstraints()
	return config.Config{
		Env:     "dev",
		DBPath:  filepath.Join(t.TempDir(), "run.db"),
		Port:    "0",
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Press: config.PressConfig{
			Pitch:            d.Pitch,
			GapMin:           d.GapMin,
			GapMax:           d.GapMax,
			ZMin:             d.ZMin,
			ZMax:             d.ZMax,
			CylinderWidth:    d.TotalCylinderWidth,
			WorkingWidth:     d.WorkingWidth,
			LateralGap:       d.LateralGap,
			EdgeWaste:        d.EdgeWaste,
			MaxMaterialWidth: d.MaxMaterialWidth,
		},
	}
}

func TestRun_StopsCleanlyOnCancel(t *testing.T) {
	cfg := runConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, run(ctx, cfg, zap.NewNop()))

	// The database was migrated, seeded and released.
	database, err := db.Open(context.Background(), cfg.DBPath)
	require.NoError(t, err)
	defer database.Close()
	materials, err := store.New(database).Materials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed.DefaultMaterials, materials)
}

func TestRun_ReturnsStartupErrors(t *testing.T) {
	cfg := runConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing-dir", "run.db")

	err := run(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}
