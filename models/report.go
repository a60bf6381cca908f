package models

import (
	"math"
	"strconv"
	"time"
)

// Cell is one value of a projected table: text, number, or null.
// A number cell holding NaN is undefined.
type Cell struct {
	Text   string
	Num    float64
	IsNum  bool
	IsNull bool
}

func TextCell(s string) Cell { return Cell{Text: s} }
func NumberCell(v float64) Cell { return Cell{Num: v, IsNum: true} }
func NullCell() Cell { return Cell{IsNull: true} }

// Undefined reports a null cell or an undefined number.
func (c Cell) Undefined() bool {
	return c.IsNull || (c.IsNum && math.IsNaN(c.Num))
}

// String renders the cell; undefined cells render as the empty string.
func (c Cell) String() string {
	switch {
	case c.Undefined():
		return ""
	case c.IsNum:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return c.Text
	}
}

// Projection is a table restricted to a set of columns, e.g. a top-N result.
type Projection struct {
	Columns []string
	Rows    [][]Cell
}

// SummaryRow is one group of an aggregate. Key holds one value per grouping
// column, Values one value per stat column, Size the number of input rows.
type SummaryRow struct {
	Key    []string
	Values []float64
	Size   int
}

// Summary is a grouped aggregate. Stat columns are named "<metric>_<stat>"
// (e.g. "views_mean"); undefined statistics are NaN.
type Summary struct {
	Keys    []string
	Columns []string
	Rows    []SummaryRow
}

// ColumnIndex returns the position of a stat column or -1.
func (s *Summary) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the stat of row i in the named column.
func (s *Summary) Value(i int, column string) (float64, bool) {
	idx := s.ColumnIndex(column)
	if idx < 0 || i < 0 || i >= len(s.Rows) {
		return math.NaN(), false
	}
	return s.Rows[i].Values[idx], true
}

// ArgMax returns the index of the row with the largest defined value in the
// column. The first row wins ties. ok is false when the column is unknown or
// has no defined value.
func (s *Summary) ArgMax(column string) (int, bool) {
	idx := s.ColumnIndex(column)
	if idx < 0 {
		return -1, false
	}
	best := -1
	for i, row := range s.Rows {
		v := row.Values[idx]
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > s.Rows[best].Values[idx] {
			best = i
		}
	}
	return best, best >= 0
}

// KeyLabel joins a row key for display.
func (r SummaryRow) KeyLabel() string {
	label := ""
	for i, k := range r.Key {
		if i > 0 {
			label += " / "
		}
		label += k
	}
	return label
}

// CorrMatrix is a symmetric Pearson correlation matrix. Undefined
// correlations are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// Defined reports whether the correlation of columns i and j is defined.
func (m *CorrMatrix) Defined(i, j int) bool {
	return !math.IsNaN(m.Values[i][j])
}

// ClusterResult is the outcome of one clustering call. Assignments is
// parallel to the clustered rows; Summary has one row per cluster with the
// raw feature means and Size as the cluster row count.
type ClusterResult struct {
	K           int
	Seed        int64
	Features    []string
	Assignments []int
	Summary     *Summary
	Inertia     float64
}

// DataSummary is the headline description of a loaded dataset.
type DataSummary struct {
	TotalVideos      int
	TotalCreators    int
	TotalPlatforms   int
	AvgViews         float64
	FormatTypes      int
	CreatorNiches    int
	AvgRetentionRate float64
	HasRetention     bool
}

// RunInfo identifies one analysis run for persistence.
type RunInfo struct {
	ID           string
	StartedAt    time.Time
	Videos       int
	Creators     int
	Platforms    int
	Warnings     int
	ClusterCount int
	ClusterSeed  int64
}
