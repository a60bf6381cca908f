package services

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
)

func TestNarrateEmptyInputsFallBack(t *testing.T) {
	empty := &models.Summary{Keys: []string{"format_type"}, Columns: []string{"retention_rate_mean"}}

	var lines []string
	require.NotPanics(t, func() {
		lines = NewNarrator().Narrate(NarratorInput{
			Formats:   empty,
			Creators:  empty,
			Niches:    empty,
			Durations: empty,
		})
	})

	require.Len(t, lines, 5)
	assert.Equal(t, "Best Performing Format: not enough data to compare formats", lines[0])
	assert.Equal(t, "Top Creator: no creator could be ranked", lines[1])
	assert.Equal(t, "Most Engaging Niche: not enough data to compare niches", lines[2])
	assert.Equal(t, "Optimal Duration: not enough data to compare durations", lines[3])
	assert.Equal(t, "Strongest Correlation: no metric pair has a defined correlation", lines[4])
}

func TestNarrateAllUndefinedFallsBack(t *testing.T) {
	s := &models.Summary{
		Keys:    []string{"format_type"},
		Columns: []string{"retention_rate_mean"},
		Rows:    []models.SummaryRow{{Key: []string{"A"}, Values: []float64{math.NaN()}}},
	}
	lines := NewNarrator().Narrate(NarratorInput{Formats: s})
	assert.True(t, strings.HasSuffix(lines[0], "not enough data to compare formats"))
}

func TestNarrateTopCreatorUsesBestRetention(t *testing.T) {
	s := &models.Summary{
		Keys:    []string{"creator_name", "niche"},
		Columns: []string{"retention_rate_mean"},
		Rows: []models.SummaryRow{
			{Key: []string{"Ana", "education"}, Values: []float64{0.4}},
			{Key: []string{"Cyd", "comedy"}, Values: []float64{0.65}},
			{Key: []string{"Ben", "travel"}, Values: []float64{math.NaN()}},
		},
	}
	lines := NewNarrator().Narrate(NarratorInput{Creators: s})
	assert.Equal(t, "Top Creator: Cyd leads in retention rate", lines[1])

	for i := range s.Rows {
		s.Rows[i].Values[0] = math.NaN()
	}
	lines = NewNarrator().Narrate(NarratorInput{Creators: s})
	assert.Equal(t, "Top Creator: no creator could be ranked", lines[1])
}

func TestAnalyzerInsights(t *testing.T) {
	a := NewAnalyzer(sampleDataset(), testLogger())
	lines := a.Insights()

	require.Len(t, lines, 5)
	// Mean retention: skit (0.65+0.1)/2, tutorial 0.475, vlog 0.5.
	assert.Equal(t, "Best Performing Format: vlog has the highest average retention rate", lines[0])
	assert.Equal(t, "Top Creator: Cyd leads in retention rate", lines[1])
	assert.Equal(t, "Most Engaging Niche: comedy generates the highest engagement rates", lines[2])
	assert.Equal(t, "Optimal Duration: 30-45s videos retain viewers best", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "Strongest Correlation: "))
}
