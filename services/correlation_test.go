package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
)

func TestCorrelateSymmetricUnitDiagonal(t *testing.T) {
	ds := sampleDataset()
	rows := DeriveMetrics(Join(ds.Videos.Records, ds.Creators), true)

	m, err := Correlate(rows, CorrelationMetrics)
	require.NoError(t, err)
	require.Len(t, m.Values, len(CorrelationMetrics))

	for i := range m.Columns {
		assert.Equal(t, 1.0, m.Values[i][i], "diagonal of %s", m.Columns[i])
		for j := range m.Columns {
			a, b := m.Values[i][j], m.Values[j][i]
			if math.IsNaN(a) {
				assert.True(t, math.IsNaN(b))
				continue
			}
			assert.Equal(t, a, b)
			assert.LessOrEqual(t, math.Abs(a), 1.0)
		}
	}
}

func TestCorrelatePerfectAndPairwiseComplete(t *testing.T) {
	rows := rowsOf(
		video("a", "", "A", 10, 100, 10, 0, 0),
		video("b", "", "A", 10, 200, 20, 0, 0),
		video("c", "", "A", 10, 300, 30, 0, 0),
		video("d", "", "A", 10, math.NaN(), 1000, 0, 0),
	)

	m, err := Correlate(rows, []string{models.ColViews, models.ColLikes})
	require.NoError(t, err)

	// Row d lacks views, so only the three complete pairs count.
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
}

func TestCorrelateZeroVarianceIsUndefined(t *testing.T) {
	rows := rowsOf(
		video("a", "", "A", 10, 100, 5, 0, 0),
		video("b", "", "A", 10, 200, 5, 0, 0),
		video("c", "", "A", 10, 300, 5, 0, 0),
	)

	m, err := Correlate(rows, []string{models.ColViews, models.ColLikes})
	require.NoError(t, err)

	assert.Equal(t, 1.0, m.Values[0][0])
	assert.True(t, math.IsNaN(m.Values[1][1]), "constant metric has undefined diagonal")
	assert.True(t, math.IsNaN(m.Values[0][1]))
	assert.False(t, m.Defined(0, 1))
}

func TestCorrelateUnknownMetric(t *testing.T) {
	_, err := Correlate(nil, []string{"plays"})
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestStrongestPair(t *testing.T) {
	m := &models.CorrMatrix{
		Columns: []string{"a", "b", "c"},
		Values: [][]float64{
			{1, 0.2, -0.9},
			{0.2, 1, 0.7},
			{-0.9, 0.7, 1},
		},
	}
	a, b, r, ok := StrongestPair(m)
	require.True(t, ok)
	assert.Equal(t, "b", a)
	assert.Equal(t, "c", b)
	assert.Equal(t, 0.7, r)

	nan := math.NaN()
	_, _, _, ok = StrongestPair(&models.CorrMatrix{Columns: []string{"a", "b"}, Values: [][]float64{{nan, nan}, {nan, nan}}})
	assert.False(t, ok)
}
