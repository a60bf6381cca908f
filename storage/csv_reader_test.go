package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortform-signals/models"
	"shortform-signals/utils"
)

const videosCSV = `video_id,creator_id,format_type,duration_sec,views,likes,comments,shares,watch_time,full_views,retention_rate,hook_watch_rate,platform_id
v1,c1,tutorial,12,1000,100,10,5,9000,400,0.4,0.8,p1
v2,c2,vlog,45,0,0,0,0,0,0,,0.5,p1
v3, c1 ,tutorial,30,abc,10,1,1,100,10,0.2,0.6,p2
`

const creatorsCSV = `creator_id,creator_name,niche,followers
c1,Ana,education,12000
c2,Ben,travel,
`

const platformsCSV = `platform_id,platform_name,max_duration_sec,region
p1,clips,60,global
p2,reels,90,
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	r := NewCSVReader(utils.NewDiscardLogger())

	ds, err := r.LoadDataset(
		writeFile(t, dir, "videos.csv", videosCSV),
		writeFile(t, dir, "creators.csv", creatorsCSV),
		writeFile(t, dir, "platforms.csv", platformsCSV),
	)
	require.NoError(t, err)

	require.Len(t, ds.Videos.Records, 3)
	assert.True(t, ds.Videos.HasRetention)
	v1 := ds.Videos.Records[0]
	assert.Equal(t, "v1", v1.VideoID)
	assert.Equal(t, 1000.0, v1.Views)
	assert.Equal(t, 0.4, v1.RetentionRate)
	assert.True(t, math.IsNaN(ds.Videos.Records[1].RetentionRate), "empty cell is undefined")
	assert.Equal(t, "c1", ds.Videos.Records[2].CreatorID, "cells are trimmed")
	assert.True(t, math.IsNaN(ds.Videos.Records[2].Views), "unparsable cell is undefined")

	require.Len(t, ds.Creators, 2)
	assert.True(t, math.IsNaN(ds.Creators[1].Followers))

	require.Len(t, ds.Platforms, 2)
	assert.Equal(t, "p1", ds.Platforms[0].PlatformID)
	assert.Equal(t, "clips", ds.Platforms[0].PlatformName)
	assert.Equal(t, map[string]string{"max_duration_sec": "60", "region": "global"}, ds.Platforms[0].Attributes)
}

func TestLoadVideosWithoutRetention(t *testing.T) {
	content := "video_id,creator_id,format_type,duration_sec,views,likes,comments,shares,watch_time,full_views,hook_watch_rate\n" +
		"v1,c1,A,10,100,1,1,1,10,50,0.5\n"
	path := writeFile(t, t.TempDir(), "videos.csv", content)

	table, err := NewCSVReader(utils.NewDiscardLogger()).LoadVideos(path)
	require.NoError(t, err)

	assert.False(t, table.HasRetention)
	assert.True(t, math.IsNaN(table.Records[0].RetentionRate))
}

func TestLoadMissingColumn(t *testing.T) {
	dir := t.TempDir()
	r := NewCSVReader(utils.NewDiscardLogger())

	_, err := r.LoadVideos(writeFile(t, dir, "videos.csv", "video_id,creator_id\nv1,c1\n"))
	require.ErrorIs(t, err, models.ErrMissingColumn)
	assert.Contains(t, err.Error(), "format_type")

	_, err = r.LoadCreators(writeFile(t, dir, "creators.csv", "creator_id,creator_name,followers\n"))
	assert.ErrorIs(t, err, models.ErrMissingColumn)

	_, err = r.LoadPlatforms(writeFile(t, dir, "platforms.csv", "name,region\n"))
	assert.ErrorIs(t, err, models.ErrMissingColumn)
}

func TestLoadMissingAndEmptyFile(t *testing.T) {
	dir := t.TempDir()
	r := NewCSVReader(utils.NewDiscardLogger())

	_, err := r.LoadCreators(filepath.Join(dir, "nope.csv"))
	assert.Error(t, err)

	_, err = r.LoadCreators(writeFile(t, dir, "empty.csv", ""))
	assert.ErrorContains(t, err, "is empty")
}
