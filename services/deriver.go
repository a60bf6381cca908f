package services

import (
	"math"

	"shortform-signals/models"
)

// DeriveMetrics returns a copy of rows with the derived ratios filled in.
// retentionPresent reports whether the source carried retention_rate; when it
// did not, retention_rate is derived as full_views / views.
func DeriveMetrics(rows []models.AnalysisRow, retentionPresent bool) []models.AnalysisRow {
	out := make([]models.AnalysisRow, len(rows))
	for i, r := range rows {
		r.DerivedMetrics = Derive(&r.VideoRecord)
		if !retentionPresent {
			r.RetentionRate = ratio(r.FullViews, r.Views)
		}
		out[i] = r
	}
	return out
}

// Derive computes the view-normalized ratios of a single video.
func Derive(v *models.VideoRecord) models.DerivedMetrics {
	return models.DerivedMetrics{
		EngagementRate:      ratio(v.Likes+v.Comments+v.Shares, v.Views) * 100,
		AvgWatchTimePerView: ratio(v.WatchTime, v.Views),
		LikeToViewRatio:     ratio(v.Likes, v.Views),
		ShareToViewRatio:    ratio(v.Shares, v.Views),
	}
}

// ratio is num/den, undefined (NaN) when den is zero or undefined.
func ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den
}
