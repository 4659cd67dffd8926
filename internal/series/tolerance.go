package series

import (
	"strconv"
	"strings"
	"time"

	"github.com/rickb777/period"

	"waterdata-platform/internal/models"
)

// Gap tolerances arrive in three spellings: pandas-style frequency aliases
// from the retrieval prototypes ("15min", "D"), Go duration strings ("15m",
// "24h"), and ISO-8601 periods ("PT15M", "P1D"). All resolve to a fixed
// calendar step.
var frequencyAliases = map[string]time.Duration{
	"D":   24 * time.Hour,
	"H":   time.Hour,
	"min": time.Minute,
	"T":   time.Minute,
	"S":   time.Second,
}

// ParseTolerance resolves a tolerance string to a sampling interval.
func ParseTolerance(tolerance string) (time.Duration, error) {
	tolerance = strings.TrimSpace(tolerance)
	if tolerance == "" {
		return 0, &models.ValidationError{
			Field:   "gap_tolerance",
			Value:   tolerance,
			Message: "empty gap tolerance",
		}
	}

	if d, ok := frequencyAliases[tolerance]; ok {
		return d, nil
	}

	if d, ok := parseFrequencyAlias(tolerance); ok {
		return d, nil
	}

	if d, err := time.ParseDuration(tolerance); err == nil && d > 0 {
		return d, nil
	}

	if p, err := period.Parse(tolerance); err == nil {
		d, _ := p.Duration()
		if d > 0 {
			return d, nil
		}
	}

	return 0, &models.ValidationError{
		Field:   "gap_tolerance",
		Value:   tolerance,
		Message: "unrecognized gap tolerance: " + tolerance,
	}
}

// parseFrequencyAlias handles multiples of a pandas alias, e.g. "15min",
// "2D", "6H".
func parseFrequencyAlias(tolerance string) (time.Duration, bool) {
	for alias, unit := range frequencyAliases {
		if !strings.HasSuffix(tolerance, alias) {
			continue
		}
		count := strings.TrimSuffix(tolerance, alias)
		if count == "" {
			continue
		}
		n, err := strconv.Atoi(count)
		if err != nil || n <= 0 {
			continue
		}
		return time.Duration(n) * unit, true
	}
	return 0, false
}
