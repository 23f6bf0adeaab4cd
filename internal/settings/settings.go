// Package settings maps the flat key/value settings table onto the typed
// economics used by the pricing pipeline.
package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Simplici0/labelquote/internal/pricing"
)

const (
	KeyInkPrice          = "ink_price_per_kg"
	KeyVarnishPrice      = "varnish_price_per_kg"
	KeyLaborPrice        = "machine_labor_price_per_hour"
	KeyToolSemirotary    = "tool_price_semirotary"
	KeyToolRotary        = "tool_price_rotary"
	KeyPlatePrice        = "plate_price_per_color"
	KeyMachineSpeed      = "machine_speed_default"
	KeySingleProfitCoeff = "single_calc_profit_coefficient"

	tierKeyPrefix = "profit_coeff_"
)

const (
	MachineSpeedMin = 10.0
	MachineSpeedMax = 120.0

	// DefaultTierCoefficient applies to tiers without a stored coefficient.
	DefaultTierCoefficient = 0.20
)

// DefaultTiers are the quantities quoted in a multi-quantity offer.
var DefaultTiers = []int{1000, 10000, 20000, 50000, 100000}

var defaultTierCoefficients = map[int]float64{
	1000:   0.30,
	10000:  0.25,
	20000:  0.22,
	50000:  0.20,
	100000: 0.18,
}

// Values is the flat settings mapping as stored.
type Values map[string]float64

// TierKey returns the settings key of the profit coefficient for a tier.
func TierKey(quantity int) string {
	return tierKeyPrefix + strconv.Itoa(quantity)
}

// ParseTierKey extracts the tier quantity from a profit coefficient key.
func ParseTierKey(key string) (int, bool) {
	raw, ok := strings.CutPrefix(key, tierKeyPrefix)
	if !ok {
		return 0, false
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q <= 0 {
		return 0, false
	}
	return q, true
}

// Defaults returns the fallback value of every known setting.
func Defaults() Values {
	v := Values{
		KeyInkPrice:          2350,
		KeyVarnishPrice:      1800,
		KeyLaborPrice:        3000,
		KeyToolSemirotary:    6000,
		KeyToolRotary:        8000,
		KeyPlatePrice:        2000,
		KeyMachineSpeed:      30,
		KeySingleProfitCoeff: 0.25,
	}
	for q, coeff := range defaultTierCoefficients {
		v[TierKey(q)] = coeff
	}
	return v
}

// Get returns the stored value for key, or its default when the key is
// missing or negative.
func (v Values) Get(key string) float64 {
	if value, ok := v[key]; ok && value >= 0 {
		return value
	}
	if q, ok := ParseTierKey(key); ok {
		if coeff, ok := defaultTierCoefficients[q]; ok {
			return coeff
		}
		return DefaultTierCoefficient
	}
	return Defaults()[key]
}

// Merge returns a copy of v with missing keys filled from Defaults.
func (v Values) Merge() Values {
	out := Defaults()
	for k, value := range v {
		out[k] = value
	}
	return out
}

// Economics builds the pricing economics from the settings snapshot.
func (v Values) Economics() pricing.Economics {
	return pricing.Economics{
		InkPricePerKg:     v.Get(KeyInkPrice),
		VarnishPricePerKg: v.Get(KeyVarnishPrice),
		PlatePerColor:     v.Get(KeyPlatePrice),
		LaborPerHour:      v.Get(KeyLaborPrice),
		ToolSemirotary:    v.Get(KeyToolSemirotary),
		ToolRotary:        v.Get(KeyToolRotary),
		Process:           pricing.DefaultProcess(),
	}
}

// MachineSpeed returns the default machine speed clamped to the press range.
func (v Values) MachineSpeed() float64 {
	return ClampSpeed(v.Get(KeyMachineSpeed))
}

// ClampSpeed keeps a machine speed inside the supported range.
func ClampSpeed(speed float64) float64 {
	return min(max(speed, MachineSpeedMin), MachineSpeedMax)
}

// TierCoefficients returns the profit coefficient of each tier.
func (v Values) TierCoefficients(tiers []int) map[int]float64 {
	out := make(map[int]float64, len(tiers))
	for _, q := range tiers {
		out[q] = v.Get(TierKey(q))
	}
	return out
}

// Validate checks every value and returns an error describing all violations.
func (v Values) Validate() error {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, k := range keys {
		value := v[k]
		if _, known := Defaults()[k]; !known {
			if _, ok := ParseTierKey(k); !ok {
				errs = append(errs, fmt.Sprintf("%s is not a known setting", k))
				continue
			}
		}
		if value < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0, got %v", k, value))
		}
		if k == KeyMachineSpeed && (value < MachineSpeedMin || value > MachineSpeedMax) {
			errs = append(errs, fmt.Sprintf("%s must be %v-%v, got %v", k, MachineSpeedMin, MachineSpeedMax, value))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
