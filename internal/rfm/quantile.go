package rfm

import (
	"math"
	"sort"

	"github.com/chrisdamba/wooinsights/internal/models"
)

// Percentile interpolates linearly between the two sorted values bracketing
// index p/100*(n-1). p outside 0..100 is clamped; an empty slice yields 0.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	index := p / 100 * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// NewQuantileTable sorts a copy of values and reads off the bucket boundaries.
func NewQuantileTable(values []float64) models.QuantileTable {
	if len(values) == 0 {
		return models.QuantileTable{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return models.QuantileTable{
		Min: sorted[0],
		Q20: Percentile(sorted, 20),
		Q40: Percentile(sorted, 40),
		Q60: Percentile(sorted, 60),
		Q80: Percentile(sorted, 80),
		Max: sorted[len(sorted)-1],
	}
}

// scoreHigherBetter gives 5 to values at or above q80 down to 1 below q20.
func scoreHigherBetter(v float64, q models.QuantileTable) int {
	switch {
	case v >= q.Q80:
		return 5
	case v >= q.Q60:
		return 4
	case v >= q.Q40:
		return 3
	case v >= q.Q20:
		return 2
	default:
		return 1
	}
}

// scoreLowerBetter is the recency mapping: the smallest values score 5.
func scoreLowerBetter(v float64, q models.QuantileTable) int {
	switch {
	case v <= q.Q20:
		return 5
	case v <= q.Q40:
		return 4
	case v <= q.Q60:
		return 3
	case v <= q.Q80:
		return 2
	default:
		return 1
	}
}
