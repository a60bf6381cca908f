package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
)

func TestTopNDescendingStable(t *testing.T) {
	rows := rowsOf(
		video("a", "", "A", 10, 100, 10, 0, 0),
		video("b", "", "A", 10, 300, 10, 0, 0),
		video("c", "", "A", 10, 200, 10, 0, 0),
		video("d", "", "A", 10, 300, 10, 0, 0),
	)

	p, err := TopN(rows, models.ColViews, 3, []string{models.ColVideoID, models.ColViews})
	require.NoError(t, err)

	require.Len(t, p.Rows, 3)
	assert.Equal(t, []string{"video_id", "views"}, p.Columns)
	assert.Equal(t, "b", p.Rows[0][0].Text, "ties keep input order")
	assert.Equal(t, "d", p.Rows[1][0].Text)
	assert.Equal(t, "c", p.Rows[2][0].Text)
	for i := 1; i < len(p.Rows); i++ {
		assert.GreaterOrEqual(t, p.Rows[i-1][1].Num, p.Rows[i][1].Num)
	}
}

func TestTopNMoreThanRowsReturnsAll(t *testing.T) {
	rows := scenarioRows()

	p, err := TopN(rows, models.ColEngagementRate, 50, []string{models.ColVideoID})
	require.NoError(t, err)

	require.Len(t, p.Rows, len(rows))
	assert.Equal(t, "b", p.Rows[2][0].Text, "undefined values rank last")
}

func TestTopNErrors(t *testing.T) {
	rows := scenarioRows()

	_, err := TopN(rows, "plays", 3, nil)
	assert.ErrorIs(t, err, models.ErrUnknownMetric)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "plays")

	_, err = TopN(rows, models.ColViews, -1, nil)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = TopN(rows, models.ColViews, 1, []string{"thumbnail"})
	assert.ErrorIs(t, err, models.ErrMissingColumn)

	_, err = TopN(rows, models.ColNiche, 1, nil)
	assert.ErrorIs(t, err, models.ErrUnknownMetric, "categorical columns cannot be ranked")
}

func TestTopNProjectsNullCreatorFields(t *testing.T) {
	ds := sampleDataset()
	rows := DeriveMetrics(Join(ds.Videos.Records, ds.Creators), true)

	p, err := TopN(rows, models.ColViews, 10, TopPerformerColumns)
	require.NoError(t, err)

	require.Len(t, p.Rows, len(rows))
	last := p.Rows[len(p.Rows)-1]
	assert.Equal(t, "v6", last[0].Text)
	assert.True(t, last[1].Undefined(), "creator_name of unmatched video is null")
}

func TestTopGroups(t *testing.T) {
	s := &models.Summary{
		Keys:    []string{"niche"},
		Columns: []string{"engagement_rate_mean"},
		Rows: []models.SummaryRow{
			{Key: []string{"a"}, Values: []float64{1}},
			{Key: []string{"b"}, Values: []float64{math.NaN()}},
			{Key: []string{"c"}, Values: []float64{5}},
			{Key: []string{"d"}, Values: []float64{5}},
		},
	}

	top, err := TopGroups(s, "engagement_rate_mean", 3)
	require.NoError(t, err)
	require.Len(t, top.Rows, 3)
	assert.Equal(t, "c", top.Rows[0].Key[0])
	assert.Equal(t, "d", top.Rows[1].Key[0])
	assert.Equal(t, "a", top.Rows[2].Key[0])
	assert.Equal(t, "a", s.Rows[0].Key[0], "input summary is untouched")

	_, err = TopGroups(s, "views_mean", 1)
	assert.ErrorIs(t, err, models.ErrUnknownMetric)
}
