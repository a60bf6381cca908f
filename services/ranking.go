package services

import (
	"fmt"
	"math"
	"sort"

	"shortform-signals/models"
)

// TopPerformerColumns is the default projection of a top-videos ranking.
var TopPerformerColumns = []string{
	models.ColVideoID, models.ColCreatorName, models.ColFormatType,
	models.ColDurationSec, models.ColViews, models.ColLikes, models.ColShares,
	models.ColRetentionRate, models.ColEngagementRate, models.ColHookWatchRate,
	models.ColNiche,
}

// TopN returns the n rows with the largest metric value, descending, projected
// onto columns. Ties keep input order; undefined values rank after all
// defined ones. n larger than the row count returns every row.
func TopN(rows []models.AnalysisRow, metric string, n int, columns []string) (*models.Projection, error) {
	if !models.IsNumericColumn(metric) {
		return nil, fmt.Errorf("%w: %w: %q", models.ErrInvalidParameter, models.ErrUnknownMetric, metric)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: top-n must not be negative, got %d", models.ErrInvalidParameter, n)
	}
	var probe models.AnalysisRow
	for _, c := range columns {
		if _, ok := probe.Cell(c); !ok {
			return nil, fmt.Errorf("%w: projection column %q", models.ErrMissingColumn, c)
		}
	}

	idx := make([]int, len(rows))
	vals := make([]float64, len(rows))
	for i := range rows {
		idx[i] = i
		vals[i], _ = rows[i].Numeric(metric)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return descending(vals[idx[a]], vals[idx[b]])
	})
	if n < len(idx) {
		idx = idx[:n]
	}

	out := &models.Projection{Columns: append([]string(nil), columns...)}
	for _, i := range idx {
		cells := make([]models.Cell, len(columns))
		for j, c := range columns {
			cells[j], _ = rows[i].Cell(c)
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// TopGroups returns a copy of summary holding its n groups with the largest
// value in column, descending with the same tie and undefined rules as TopN.
func TopGroups(summary *models.Summary, column string, n int) (*models.Summary, error) {
	col := summary.ColumnIndex(column)
	if col < 0 {
		return nil, fmt.Errorf("%w: %w: %q", models.ErrInvalidParameter, models.ErrUnknownMetric, column)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: top-n must not be negative, got %d", models.ErrInvalidParameter, n)
	}

	rows := append([]models.SummaryRow(nil), summary.Rows...)
	sort.SliceStable(rows, func(a, b int) bool {
		return descending(rows[a].Values[col], rows[b].Values[col])
	})
	if n < len(rows) {
		rows = rows[:n]
	}
	return &models.Summary{
		Keys:    append([]string(nil), summary.Keys...),
		Columns: append([]string(nil), summary.Columns...),
		Rows:    rows,
	}, nil
}

// descending orders larger values first and undefined values last.
func descending(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	default:
		return a > b
	}
}
