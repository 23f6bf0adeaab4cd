package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Simplici0/labelquote/internal/press"
)

const envPrefix = "LABELS"

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
}

// PressConfig overrides the mechanical constraints of the press.
type PressConfig struct {
	Pitch            float64 `mapstructure:"pitch"`
	GapMin           float64 `mapstructure:"gap_min"`
	GapMax           float64 `mapstructure:"gap_max"`
	ZMin             int     `mapstructure:"z_min"`
	ZMax             int     `mapstructure:"z_max"`
	CylinderWidth    float64 `mapstructure:"cylinder_width"`
	WorkingWidth     float64 `mapstructure:"working_width"`
	LateralGap       float64 `mapstructure:"lateral_gap"`
	EdgeWaste        float64 `mapstructure:"edge_waste"`
	MaxMaterialWidth float64 `mapstructure:"max_material_width"`
}

// Constraints converts the press section into solver constraints.
func (p PressConfig) Constraints() press.Constraints {
	return press.Constraints{
		Pitch:              p.Pitch,
		GapMin:             p.GapMin,
		GapMax:             p.GapMax,
		ZMin:               p.ZMin,
		ZMax:               p.ZMax,
		TotalCylinderWidth: p.CylinderWidth,
		WorkingWidth:       p.WorkingWidth,
		LateralGap:         p.LateralGap,
		EdgeWaste:          p.EdgeWaste,
		MaxMaterialWidth:   p.MaxMaterialWidth,
	}
}

// Config holds application configuration.
type Config struct {
	Env      string        `mapstructure:"env"`
	DBPath   string        `mapstructure:"db_path"`
	Port     string        `mapstructure:"port"`
	AdminKey string        `mapstructure:"admin_key"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Press    PressConfig   `mapstructure:"press"`
}

// IsDev reports whether the server runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}

// Load reads an optional YAML file, the local .env file and LABELS_*
// environment variables, then validates the result.
func Load(path string) (Config, error) {
	// Best-effort: production should use real env injection.
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks all configuration invariants.
func (c Config) Validate() error {
	var errs []string
	if c.DBPath == "" {
		errs = append(errs, "db_path must not be empty")
	}
	if c.Port == "" {
		errs = append(errs, "port must not be empty")
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePress(c.Press); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validatePress(p PressConfig) error {
	var errs []string
	if p.Pitch <= 0 {
		errs = append(errs, "press.pitch must be > 0")
	}
	if p.GapMin <= 0 || p.GapMax < p.GapMin {
		errs = append(errs, fmt.Sprintf("press gap window [%v, %v] is invalid", p.GapMin, p.GapMax))
	}
	if p.ZMin < 1 || p.ZMax < p.ZMin {
		errs = append(errs, fmt.Sprintf("press tooth range [%d, %d] is invalid", p.ZMin, p.ZMax))
	}
	if p.WorkingWidth <= 0 {
		errs = append(errs, "press.working_width must be > 0")
	}
	if p.CylinderWidth < p.WorkingWidth {
		errs = append(errs, "press.cylinder_width must not be below press.working_width")
	}
	if p.LateralGap < 0 || p.EdgeWaste < 0 {
		errs = append(errs, "press.lateral_gap and press.edge_waste must be >= 0")
	}
	if p.MaxMaterialWidth <= 0 {
		errs = append(errs, "press.max_material_width must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("db_path", "./labels.db")
	v.SetDefault("port", "8080")
	v.SetDefault("admin_key", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	d := press.DefaultConstraints()
	v.SetDefault("press.pitch", d.Pitch)
	v.SetDefault("press.gap_min", d.GapMin)
	v.SetDefault("press.gap_max", d.GapMax)
	v.SetDefault("press.z_min", d.ZMin)
	v.SetDefault("press.z_max", d.ZMax)
	v.SetDefault("press.cylinder_width", d.TotalCylinderWidth)
	v.SetDefault("press.working_width", d.WorkingWidth)
	v.SetDefault("press.lateral_gap", d.LateralGap)
	v.SetDefault("press.edge_waste", d.EdgeWaste)
	v.SetDefault("press.max_material_width", d.MaxMaterialWidth)
}
