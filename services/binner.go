package services

import (
	"math"

	"shortform-signals/models"
)

// Unbucketed labels durations outside every bucket, including undefined ones.
const Unbucketed = "unbucketed"

// DurationBucket is a half-open (Lower, Upper] interval of seconds.
type DurationBucket struct {
	Label string
	Lower float64
	Upper float64
}

// DurationBuckets is the fixed ordered bucket set.
var DurationBuckets = []DurationBucket{
	{Label: "0-15s", Lower: 0, Upper: 15},
	{Label: "15-30s", Lower: 15, Upper: 30},
	{Label: "30-45s", Lower: 30, Upper: 45},
	{Label: "45-60s", Lower: 45, Upper: 60},
	{Label: "60s+", Lower: 60, Upper: 100},
}

// BucketDuration returns the bucket label for a duration in seconds.
func BucketDuration(sec float64) string {
	if math.IsNaN(sec) {
		return Unbucketed
	}
	for _, b := range DurationBuckets {
		if sec > b.Lower && sec <= b.Upper {
			return b.Label
		}
	}
	return Unbucketed
}

// BucketOrder ranks a bucket label by its position; unbucketed and unknown
// labels sort last.
func BucketOrder(label string) int {
	for i, b := range DurationBuckets {
		if b.Label == label {
			return i
		}
	}
	return len(DurationBuckets)
}

// BinDurations assigns a bucket to every row, parallel to rows.
func BinDurations(rows []models.AnalysisRow) []string {
	bins := make([]string, len(rows))
	for i := range rows {
		bins[i] = BucketDuration(rows[i].DurationSec)
	}
	return bins
}

// DurationKey groups rows by precomputed buckets from BinDurations.
func DurationKey(bins []string) Key {
	return Key{
		Name: "duration_bin",
		Value: func(i int, _ *models.AnalysisRow) (string, bool) {
			return bins[i], true
		},
		Order: BucketOrder,
	}
}
