package rfm

import "github.com/chrisdamba/wooinsights/internal/models"

// Classify applies the segment rules in order; the first match wins.
func Classify(r, f, m int) models.Segment {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return models.SegmentChampions
	case r >= 3 && f >= 3 && m >= 3:
		return models.SegmentLoyal
	case r >= 3 && f >= 1 && m >= 2:
		return models.SegmentPotential
	case r >= 4 && f == 1:
		return models.SegmentNew
	case r == 2 && f >= 2:
		return models.SegmentAtRisk
	default:
		return models.SegmentLost
	}
}
