package pricing

import (
	"fmt"
	"math"
)

// FormatDuration renders minutes as "N min", "H h" or "H h M min".
// Negative durations render as "N/A".
func FormatDuration(minutes float64) string {
	if minutes < 0 || math.IsNaN(minutes) {
		return "N/A"
	}
	total := int64(math.RoundToEven(minutes))
	if total == 0 {
		return "0 min"
	}
	if total < 60 {
		return fmt.Sprintf("%d min", total)
	}
	hours, rest := total/60, total%60
	if rest == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, rest)
}
