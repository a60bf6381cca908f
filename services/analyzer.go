package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"shortform-signals/models"
	"shortform-signals/utils"
)

// Analyzer is one analysis session. It joins and derives the analysis table
// once; every analysis returns a freshly owned result and leaves the table
// untouched, so each call can be retried independently.
type Analyzer struct {
	RunID     string
	StartedAt time.Time

	dataset *models.Dataset
	rows    []models.AnalysisRow
	logger  *utils.Entry
}

// NewAnalyzer builds the analysis table from ds.
func NewAnalyzer(ds *models.Dataset, logger *utils.Logger) *Analyzer {
	id := uuid.NewString()
	a := &Analyzer{
		RunID:     id,
		StartedAt: time.Now(),
		dataset:   ds,
		logger:    logger.With("run", id),
	}
	a.rows = DeriveMetrics(Join(ds.Videos.Records, ds.Creators), ds.Videos.HasRetention)
	a.logger.Info("[analyzer] Prepared %d analysis rows", len(a.rows))
	return a
}

// Rows returns a copy of the analysis table.
func (a *Analyzer) Rows() []models.AnalysisRow {
	return append([]models.AnalysisRow(nil), a.rows...)
}

// FormatPerformance summarizes mean and std of the core metrics per format.
func (a *Analyzer) FormatPerformance() (*models.Summary, error) {
	return NewAggregator(2).Aggregate(a.rows,
		[]Key{ColumnKey(models.ColFormatType)},
		[]Agg{
			MeanStd(models.ColViews),
			MeanStd(models.ColLikes),
			MeanStd(models.ColComments),
			MeanStd(models.ColShares),
			MeanStd(models.ColRetentionRate),
			MeanStd(models.ColEngagementRate),
			MeanStd(models.ColHookWatchRate),
		})
}

// CreatorRanking ranks creators by mean retention rate, with followers joined
// in by creator name.
func (a *Analyzer) CreatorRanking(n int) (*models.Summary, error) {
	summary, err := NewAggregator(3).Aggregate(a.rows,
		[]Key{ColumnKey(models.ColCreatorName), ColumnKey(models.ColNiche)},
		[]Agg{
			Mean(models.ColViews),
			Mean(models.ColLikes),
			Mean(models.ColShares),
			Mean(models.ColRetentionRate),
			Mean(models.ColEngagementRate),
			Mean(models.ColHookWatchRate),
		})
	if err != nil {
		return nil, err
	}

	followers := make(map[string]float64, len(a.dataset.Creators))
	for _, c := range a.dataset.Creators {
		if _, ok := followers[c.CreatorName]; !ok {
			followers[c.CreatorName] = c.Followers
		}
	}
	summary.Columns = append(summary.Columns, models.ColFollowers)
	for i := range summary.Rows {
		f, ok := followers[summary.Rows[i].Key[0]]
		if !ok {
			f = math.NaN()
		}
		summary.Rows[i].Values = append(summary.Rows[i].Values, f)
	}

	return TopGroups(summary, models.ColRetentionRate+"_mean", n)
}

// NicheAnalysis summarizes metric means and video counts per creator niche.
func (a *Analyzer) NicheAnalysis() (*models.Summary, error) {
	return NewAggregator(3).Aggregate(a.rows,
		[]Key{ColumnKey(models.ColNiche)},
		[]Agg{
			{Metric: models.ColViews, Stats: []Stat{StatMean, StatCount}},
			Mean(models.ColLikes),
			Mean(models.ColShares),
			Mean(models.ColRetentionRate),
			Mean(models.ColEngagementRate),
			Mean(models.ColHookWatchRate),
		})
}

// DurationAnalysis summarizes metric means per duration bucket, in bucket
// order with unbucketed rows last.
func (a *Analyzer) DurationAnalysis() (*models.Summary, error) {
	return NewAggregator(3).Aggregate(a.rows,
		[]Key{DurationKey(BinDurations(a.rows))},
		[]Agg{
			Mean(models.ColViews),
			Mean(models.ColRetentionRate),
			Mean(models.ColEngagementRate),
			Mean(models.ColHookWatchRate),
		})
}

// Correlation computes the correlation matrix of the standard metric set.
func (a *Analyzer) Correlation() (*models.CorrMatrix, error) {
	return Correlate(a.rows, CorrelationMetrics)
}

// Clusters partitions the videos into k performance clusters.
func (a *Analyzer) Clusters(k int, seed int64) (*models.ClusterResult, error) {
	res, err := NewClusterEngine().Cluster(a.rows, k, seed)
	if err != nil {
		return nil, err
	}
	a.logger.Info("[analyzer] Clustered %d videos into %d clusters (inertia %.3f)", len(a.rows), k, res.Inertia)
	return res, nil
}

// TopPerformers returns the n best videos by metric.
func (a *Analyzer) TopPerformers(metric string, n int) (*models.Projection, error) {
	return TopN(a.rows, metric, n, TopPerformerColumns)
}

// TopNiches returns the n niches with the largest mean of metric.
func (a *Analyzer) TopNiches(metric string, n int) (*models.Summary, error) {
	if !models.IsNumericColumn(metric) {
		return nil, fmt.Errorf("%w: %w: %q", models.ErrInvalidParameter, models.ErrUnknownMetric, metric)
	}
	summary, err := NewAggregator(3).Aggregate(a.rows,
		[]Key{ColumnKey(models.ColNiche)},
		[]Agg{Mean(metric)})
	if err != nil {
		return nil, err
	}
	return TopGroups(summary, metric+"_mean", n)
}

// Insights renders the headline findings of every analysis.
func (a *Analyzer) Insights() []string {
	n := NewNarrator()
	in := NarratorInput{}
	var err error
	if in.Formats, err = a.FormatPerformance(); err != nil {
		a.logger.Warn("[analyzer] Format analysis unavailable: %v", err)
	}
	if in.Creators, err = a.CreatorRanking(5); err != nil {
		a.logger.Warn("[analyzer] Creator ranking unavailable: %v", err)
	}
	if in.Niches, err = a.NicheAnalysis(); err != nil {
		a.logger.Warn("[analyzer] Niche analysis unavailable: %v", err)
	}
	if in.Durations, err = a.DurationAnalysis(); err != nil {
		a.logger.Warn("[analyzer] Duration analysis unavailable: %v", err)
	}
	if in.Correlation, err = a.Correlation(); err != nil {
		a.logger.Warn("[analyzer] Correlation analysis unavailable: %v", err)
	}
	return n.Narrate(in)
}

// DataSummary describes the loaded dataset.
func (a *Analyzer) DataSummary() models.DataSummary {
	ds := a.dataset
	s := models.DataSummary{
		TotalVideos:      len(ds.Videos.Records),
		TotalCreators:    len(ds.Creators),
		TotalPlatforms:   len(ds.Platforms),
		AvgViews:         math.NaN(),
		AvgRetentionRate: math.NaN(),
		HasRetention:     ds.Videos.HasRetention,
	}

	formats := map[string]struct{}{}
	var views, retention []float64
	for _, r := range ds.Videos.Records {
		if r.FormatType != "" {
			formats[r.FormatType] = struct{}{}
		}
		if !math.IsNaN(r.Views) {
			views = append(views, r.Views)
		}
		if !math.IsNaN(r.RetentionRate) {
			retention = append(retention, r.RetentionRate)
		}
	}
	niches := map[string]struct{}{}
	for _, c := range ds.Creators {
		if c.Niche != "" {
			niches[c.Niche] = struct{}{}
		}
	}
	s.FormatTypes = len(formats)
	s.CreatorNiches = len(niches)
	if len(views) > 0 {
		s.AvgViews = stat.Mean(views, nil)
	}
	if s.HasRetention && len(retention) > 0 {
		s.AvgRetentionRate = stat.Mean(retention, nil)
	}
	return s
}

// RunInfo describes this session for persistence.
func (a *Analyzer) RunInfo(warnings, k int, seed int64) models.RunInfo {
	return models.RunInfo{
		ID:           a.RunID,
		StartedAt:    a.StartedAt,
		Videos:       len(a.dataset.Videos.Records),
		Creators:     len(a.dataset.Creators),
		Platforms:    len(a.dataset.Platforms),
		Warnings:     warnings,
		ClusterCount: k,
		ClusterSeed:  seed,
	}
}
