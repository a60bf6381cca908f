package services

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"shortform-signals/models"
)

// CorrelationMetrics is the fixed numeric metric set of the correlation matrix.
var CorrelationMetrics = []string{
	models.ColViews, models.ColLikes, models.ColComments, models.ColShares,
	models.ColWatchTime, models.ColFullViews, models.ColRetentionRate,
	models.ColHookWatchRate, models.ColEngagementRate,
	models.ColAvgWatchTimePerView, models.ColLikeToViewRatio,
	models.ColShareToViewRatio,
}

// Correlate computes pairwise-complete Pearson correlations between metrics.
// A pair with fewer than two complete rows, or with zero variance on either
// side, is undefined (NaN). The diagonal is 1 wherever the metric varies.
func Correlate(rows []models.AnalysisRow, metrics []string) (*models.CorrMatrix, error) {
	for _, m := range metrics {
		if !models.IsNumericColumn(m) {
			return nil, fmt.Errorf("%w: %q is not a numeric column", models.ErrMissingColumn, m)
		}
	}

	cols := make([][]float64, len(metrics))
	for j, m := range metrics {
		cols[j] = make([]float64, len(rows))
		for i := range rows {
			cols[j][i], _ = rows[i].Numeric(m)
		}
	}

	n := len(metrics)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearson(cols[i], cols[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			values[i][j] = r
			values[j][i] = r
		}
	}

	return &models.CorrMatrix{
		Columns: append([]string(nil), metrics...),
		Values:  values,
	}, nil
}

func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	return math.Max(-1, math.Min(1, r))
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// StrongestPair returns the off-diagonal pair with the largest defined
// correlation. ok is false when no pair is defined.
func StrongestPair(m *models.CorrMatrix) (a, b string, r float64, ok bool) {
	best := math.Inf(-1)
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if !m.Defined(i, j) {
				continue
			}
			if v := m.Values[i][j]; v > best {
				best, a, b, ok = v, m.Columns[i], m.Columns[j], true
			}
		}
	}
	return a, b, best, ok
}
