package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
)

func TestDeriveEngagementScenario(t *testing.T) {
	rows := rowsOf(
		video("a", "", "A", 10, 100, 10, 0, 0),
		video("b", "", "B", 10, 0, 5, 0, 0),
		video("c", "", "A", 10, 50, 5, 0, 0),
	)

	require.Len(t, rows, 3)
	assert.InDelta(t, 10.0, rows[0].EngagementRate, 1e-9)
	assert.True(t, math.IsNaN(rows[1].EngagementRate))
	assert.InDelta(t, 10.0, rows[2].EngagementRate, 1e-9)
}

func TestDeriveRatios(t *testing.T) {
	v := models.VideoRecord{Views: 200, Likes: 20, Comments: 6, Shares: 4, WatchTime: 3000, FullViews: 50}
	d := Derive(&v)

	assert.InDelta(t, 15.0, d.EngagementRate, 1e-9)
	assert.InDelta(t, 15.0, d.AvgWatchTimePerView, 1e-9)
	assert.InDelta(t, 0.1, d.LikeToViewRatio, 1e-9)
	assert.InDelta(t, 0.02, d.ShareToViewRatio, 1e-9)
}

func TestDeriveUndefinedViews(t *testing.T) {
	for _, views := range []float64{0, math.NaN()} {
		v := models.VideoRecord{Views: views, Likes: 1, WatchTime: 10}
		d := Derive(&v)
		assert.True(t, math.IsNaN(d.EngagementRate))
		assert.True(t, math.IsNaN(d.AvgWatchTimePerView))
		assert.True(t, math.IsNaN(d.LikeToViewRatio))
		assert.True(t, math.IsNaN(d.ShareToViewRatio))
	}
}

func TestDeriveRetentionOnlyWhenAbsent(t *testing.T) {
	v := models.VideoRecord{Views: 100, FullViews: 40, RetentionRate: 0.9}
	joined := Join([]models.VideoRecord{v}, nil)

	kept := DeriveMetrics(joined, true)
	assert.InDelta(t, 0.9, kept[0].RetentionRate, 1e-9)

	derived := DeriveMetrics(joined, false)
	assert.InDelta(t, 0.4, derived[0].RetentionRate, 1e-9)

	// Input rows are never mutated.
	assert.InDelta(t, 0.9, joined[0].RetentionRate, 1e-9)
}
