package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
)

func TestJoinKeepsEveryVideoOnce(t *testing.T) {
	ds := sampleDataset()
	rows := Join(ds.Videos.Records, ds.Creators)

	require.Len(t, rows, len(ds.Videos.Records))
	for i, r := range rows {
		assert.Equal(t, ds.Videos.Records[i].VideoID, r.VideoID)
	}
	require.NotNil(t, rows[0].Creator)
	assert.Equal(t, "Ana", rows[0].Creator.CreatorName)
	assert.Nil(t, rows[5].Creator, "unknown creator keeps null creator fields")

	_, valid, ok := rows[5].Categorical(models.ColNiche)
	assert.True(t, ok)
	assert.False(t, valid)
}

func TestJoinDuplicateCreatorFirstWins(t *testing.T) {
	videos := []models.VideoRecord{{VideoID: "v1", CreatorID: "c1"}}
	creators := []models.CreatorRecord{
		{CreatorID: "c1", CreatorName: "first"},
		{CreatorID: "c1", CreatorName: "second"},
	}

	rows := Join(videos, creators)

	require.Len(t, rows, 1)
	assert.Equal(t, "first", rows[0].Creator.CreatorName)
}

func TestJoinCopiesCreator(t *testing.T) {
	creators := []models.CreatorRecord{{CreatorID: "c1", CreatorName: "Ana"}}
	rows := Join([]models.VideoRecord{{VideoID: "v1", CreatorID: "c1"}}, creators)

	rows[0].Creator.CreatorName = "changed"
	assert.Equal(t, "Ana", creators[0].CreatorName)
}
