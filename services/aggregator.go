package services

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"shortform-signals/models"
)

// Stat is one aggregation function.
type Stat string

const (
	StatMean  Stat = "mean"
	StatStd   Stat = "std"
	StatCount Stat = "count"
)

// Agg requests statistics of one numeric metric.
type Agg struct {
	Metric string
	Stats  []Stat
}

// Mean is shorthand for an Agg computing only the mean.
func Mean(metric string) Agg { return Agg{Metric: metric, Stats: []Stat{StatMean}} }

// MeanStd is shorthand for an Agg computing mean and standard deviation.
func MeanStd(metric string) Agg { return Agg{Metric: metric, Stats: []Stat{StatMean, StatStd}} }

// Key selects the group value of a row. Value returns ok=false for a null key,
// and such rows join no group. Order, when set, ranks key values for sorting;
// otherwise groups sort lexically. Column is set for keys read straight from
// the row schema and must name a categorical column.
type Key struct {
	Name   string
	Column string
	Value  func(i int, r *models.AnalysisRow) (string, bool)
	Order  func(v string) int
}

// ColumnKey groups by a categorical column of the row schema.
func ColumnKey(col string) Key {
	return Key{
		Name:   col,
		Column: col,
		Value: func(_ int, r *models.AnalysisRow) (string, bool) {
			v, valid, _ := r.Categorical(col)
			return v, valid
		},
	}
}

// Aggregator computes grouped summary statistics.
type Aggregator struct {
	// Precision is the number of decimal places results are rounded to.
	Precision int
}

// NewAggregator returns an Aggregator rounding to the given decimal places.
func NewAggregator(precision int) *Aggregator {
	return &Aggregator{Precision: precision}
}

// Aggregate groups rows by keys and computes the requested statistics per
// group. Only observed key combinations produce a group. Mean and std skip
// undefined cells; count counts defined cells; std is the sample standard
// deviation and is undefined below two values.
func (a *Aggregator) Aggregate(rows []models.AnalysisRow, keys []Key, aggs []Agg) (*models.Summary, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: aggregate needs at least one group key", models.ErrInvalidParameter)
	}
	if a.Precision < 0 {
		return nil, fmt.Errorf("%w: precision must not be negative, got %d", models.ErrInvalidParameter, a.Precision)
	}
	for _, k := range keys {
		if k.Value == nil {
			return nil, fmt.Errorf("%w: group key %q has no selector", models.ErrMissingColumn, k.Name)
		}
		if k.Column != "" && !models.IsCategoricalColumn(k.Column) {
			return nil, fmt.Errorf("%w: %q is not a categorical column", models.ErrMissingColumn, k.Column)
		}
	}

	summary := &models.Summary{}
	for _, k := range keys {
		summary.Keys = append(summary.Keys, k.Name)
	}
	for _, agg := range aggs {
		if !models.IsNumericColumn(agg.Metric) {
			return nil, fmt.Errorf("%w: %q is not a numeric column", models.ErrMissingColumn, agg.Metric)
		}
		for _, st := range agg.Stats {
			switch st {
			case StatMean, StatStd, StatCount:
			default:
				return nil, fmt.Errorf("%w: unsupported statistic %q", models.ErrInvalidParameter, st)
			}
			summary.Columns = append(summary.Columns, agg.Metric+"_"+string(st))
		}
	}

	type group struct {
		key  []string
		rows []int
	}
	groups := make(map[string]*group)
	var order []*group

rowLoop:
	for i := range rows {
		key := make([]string, len(keys))
		for j, k := range keys {
			v, ok := k.Value(i, &rows[i])
			if !ok {
				continue rowLoop
			}
			key[j] = v
		}
		id := groupID(key)
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, i)
	}

	sort.SliceStable(order, func(x, y int) bool {
		return lessKey(keys, order[x].key, order[y].key)
	})

	for _, g := range order {
		row := models.SummaryRow{Key: g.key, Size: len(g.rows)}
		for _, agg := range aggs {
			values := definedValues(rows, g.rows, agg.Metric)
			for _, st := range agg.Stats {
				row.Values = append(row.Values, a.round(compute(st, values)))
			}
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary, nil
}

func compute(st Stat, values []float64) float64 {
	switch st {
	case StatMean:
		if len(values) == 0 {
			return math.NaN()
		}
		return stat.Mean(values, nil)
	case StatStd:
		if len(values) < 2 {
			return math.NaN()
		}
		return stat.StdDev(values, nil)
	case StatCount:
		return float64(len(values))
	}
	return math.NaN()
}

func definedValues(rows []models.AnalysisRow, idx []int, metric string) []float64 {
	values := make([]float64, 0, len(idx))
	for _, i := range idx {
		v, _ := rows[i].Numeric(metric)
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

func (a *Aggregator) round(v float64) float64 {
	return roundTo(v, a.Precision)
}

// roundTo rounds half away from zero to the given decimal places.
func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func groupID(key []string) string {
	id := ""
	for _, k := range key {
		id += fmt.Sprintf("%d:%s|", len(k), k)
	}
	return id
}

func lessKey(keys []Key, a, b []string) bool {
	for i, k := range keys {
		if a[i] == b[i] {
			continue
		}
		if k.Order != nil {
			oa, ob := k.Order(a[i]), k.Order(b[i])
			if oa != ob {
				return oa < ob
			}
		}
		return a[i] < b[i]
	}
	return false
}
