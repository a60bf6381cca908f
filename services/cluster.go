package services

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"shortform-signals/models"
)

// ClusterFeatures is the fixed feature set used for clustering.
var ClusterFeatures = []string{
	models.ColViews, models.ColLikes, models.ColShares,
	models.ColRetentionRate, models.ColEngagementRate,
}

const (
	kmeansRestarts = 10
	kmeansMaxIter  = 300
)

// ClusterEngine partitions rows into k clusters over standardized features.
type ClusterEngine struct {
	Features  []string
	Restarts  int
	MaxIter   int
	Precision int
}

// NewClusterEngine returns an engine over ClusterFeatures.
func NewClusterEngine() *ClusterEngine {
	return &ClusterEngine{
		Features:  ClusterFeatures,
		Restarts:  kmeansRestarts,
		MaxIter:   kmeansMaxIter,
		Precision: 3,
	}
}

// Cluster standardizes the features over rows, runs seeded k-means and
// summarizes raw feature means per cluster. Undefined feature cells are
// imputed with the feature mean before scaling, so every row is assigned.
// k must lie in [1, number of distinct feature vectors].
func (e *ClusterEngine) Cluster(rows []models.AnalysisRow, k int, seed int64) (*models.ClusterResult, error) {
	for _, f := range e.Features {
		if !models.IsNumericColumn(f) {
			return nil, fmt.Errorf("%w: %q is not a numeric column", models.ErrMissingColumn, f)
		}
	}

	points := standardize(featureMatrix(rows, e.Features))
	distinct := countDistinct(points)
	if k < 1 || k > distinct {
		return nil, fmt.Errorf("%w: k=%d must be between 1 and %d distinct rows", models.ErrInvalidParameter, k, distinct)
	}

	rng := rand.New(rand.NewSource(seed))
	var best []int
	bestInertia := math.Inf(1)
	restarts := e.Restarts
	if restarts < 1 {
		restarts = 1
	}
	for run := 0; run < restarts; run++ {
		labels, inertia := lloyd(points, kmeansPlusPlus(points, k, rng), e.MaxIter)
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	aggs := make([]Agg, len(e.Features))
	for i, f := range e.Features {
		aggs[i] = Mean(f)
	}
	key := Key{
		Name: "cluster",
		Value: func(i int, _ *models.AnalysisRow) (string, bool) {
			return strconv.Itoa(best[i]), true
		},
		Order: func(v string) int {
			n, _ := strconv.Atoi(v)
			return n
		},
	}
	summary, err := NewAggregator(e.Precision).Aggregate(rows, []Key{key}, aggs)
	if err != nil {
		return nil, err
	}

	return &models.ClusterResult{
		K:           k,
		Seed:        seed,
		Features:    append([]string(nil), e.Features...),
		Assignments: best,
		Summary:     summary,
		Inertia:     bestInertia,
	}, nil
}

// featureMatrix extracts row-major features, imputing undefined cells with
// the feature's mean over defined cells (0 when none is defined).
func featureMatrix(rows []models.AnalysisRow, features []string) [][]float64 {
	m := make([][]float64, len(rows))
	for i := range rows {
		m[i] = make([]float64, len(features))
		for j, f := range features {
			m[i][j], _ = rows[i].Numeric(f)
		}
	}
	for j := range features {
		var defined []float64
		for i := range m {
			if !math.IsNaN(m[i][j]) {
				defined = append(defined, m[i][j])
			}
		}
		fill := 0.0
		if len(defined) > 0 {
			fill = stat.Mean(defined, nil)
		}
		for i := range m {
			if math.IsNaN(m[i][j]) {
				m[i][j] = fill
			}
		}
	}
	return m
}

// standardize scales each column to zero mean and unit population variance.
// A constant column keeps scale 1 and becomes all zeros.
func standardize(m [][]float64) [][]float64 {
	if len(m) == 0 {
		return m
	}
	dims := len(m[0])
	out := make([][]float64, len(m))
	for i := range out {
		out[i] = make([]float64, dims)
	}
	col := make([]float64, len(m))
	for j := 0; j < dims; j++ {
		for i := range m {
			col[i] = m[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range m {
			out[i][j] = (m[i][j] - mean) / std
		}
	}
	return out
}

func countDistinct(points [][]float64) int {
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		seen[fmt.Sprint(p)] = struct{}{}
	}
	return len(seen)
}

// kmeansPlusPlus picks k initial centers, each next center drawn with
// probability proportional to its squared distance from the nearest chosen one.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			dist[i] = math.Inf(1)
			for _, c := range centers {
				dist[i] = math.Min(dist[i], sqDist(p, c))
			}
			total += dist[i]
		}

		target := rng.Float64() * total
		pick := -1
		cum := 0.0
		for i, d := range dist {
			if d == 0 {
				continue
			}
			pick = i
			cum += d
			if cum >= target {
				break
			}
		}
		centers = append(centers, clone(points[pick]))
	}
	return centers
}

// lloyd iterates assignment and centroid updates until assignments settle.
func lloyd(points, centers [][]float64, maxIter int) ([]int, float64) {
	k := len(centers)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			c := nearest(p, centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			counts[labels[i]]++
			for d, v := range p {
				sums[labels[i]][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster: move it onto the point farthest from its centroid.
				far := farthest(points, labels, counts, centers)
				counts[labels[far]]--
				for d, v := range points[far] {
					sums[labels[far]][d] -= v
				}
				labels[far] = c
				counts[c] = 1
				sums[c] = clone(points[far])
			}
		}
		for c := 0; c < k; c++ {
			for d := range sums[c] {
				centers[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia
}

func nearest(p []float64, centers [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// farthest skips points that are alone in their cluster.
func farthest(points [][]float64, labels, counts []int, centers [][]float64) int {
	best, bestDist := 0, -1.0
	for i, p := range points {
		if counts[labels[i]] <= 1 {
			continue
		}
		if d := sqDist(p, centers[labels[i]]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(p []float64) []float64 {
	return append([]float64(nil), p...)
}
