package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVideos = `video_id,creator_id,format_type,duration_sec,views,likes,comments,shares,watch_time,full_views,retention_rate,hook_watch_rate
v1,c1,tutorial,12,1000,100,10,5,9000,400,0.4,0.8
v2,c1,tutorial,28,2000,150,20,30,20000,1100,0.55,0.7
v3,c2,vlog,40,500,80,5,15,6000,350,0.7,0.9
v4,c2,vlog,55,800,40,4,2,4000,240,0.3,0.5
v5,c3,skit,90,3000,600,60,90,45000,1950,0.65,0.85
v6,c9,skit,120,0,0,0,0,0,0,0.1,0.2
`

const testCreators = `creator_id,creator_name,niche,followers
c1,Ana,education,12000
c2,Ben,travel,50000
c3,Cyd,comedy,90000
`

const testPlatforms = `platform_id,platform_name,region
p1,clips,global
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"videos.csv":    testVideos,
		"creators.csv":  testCreators,
		"platforms.csv": testPlatforms,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Setenv("VIDEOS_FILE", filepath.Join(dir, "videos.csv"))
	t.Setenv("CREATORS_FILE", filepath.Join(dir, "creators.csv"))
	t.Setenv("PLATFORMS_FILE", filepath.Join(dir, "platforms.csv"))
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "signals.db"))
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("MAX_RETRIES", "1")
	return dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "none.env")}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestAnalyzeFromCSV(t *testing.T) {
	dir := setupEnv(t)

	out := run(t, "analyze", "--clusters", "2", "--top", "3", "--persist")

	assert.Contains(t, out, "SHORTFORM VIDEO ANALYSIS REPORT")
	assert.Contains(t, out, "Format Performance")
	assert.Contains(t, out, "Performance Clusters (k=2, seed=42)")
	assert.Contains(t, out, "Best Performing Format: vlog has the highest average retention rate")
	assert.Contains(t, out, "Top Creator: Cyd leads in retention rate")

	for _, f := range []string{
		"analysis_table.csv", "format_performance.csv", "creator_ranking.csv",
		"niche_analysis.csv", "duration_analysis.csv", "correlation_matrix.csv", "clusters.csv",
	} {
		assert.FileExists(t, filepath.Join(dir, "out", f))
	}
	assert.FileExists(t, filepath.Join(dir, "signals.db"))
}

func TestLoadThenAnalyzeFromDB(t *testing.T) {
	setupEnv(t)

	out := run(t, "load")
	assert.Contains(t, out, "Data Summary")
	assert.Contains(t, out, "total_videos")

	out = run(t, "analyze", "--from-db", "--clusters", "3", "--metric", "engagement_rate")
	assert.Contains(t, out, "Top Performing Videos by engagement_rate")
	assert.Contains(t, out, "Most Engaging Niche: comedy generates the highest engagement rates")
}

func TestAnalyzeRejectsBadFlags(t *testing.T) {
	setupEnv(t)

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env", filepath.Join(t.TempDir(), "none.env"), "analyze", "--clusters", "0"})
	assert.ErrorContains(t, cmd.Execute(), "CLUSTER_COUNT")
}

func TestAnalyzeUnknownMetricIsNotFatal(t *testing.T) {
	setupEnv(t)

	out := run(t, "analyze", "--clusters", "2", "--metric", "plays")
	assert.NotContains(t, out, "Top Performing Videos by plays")
	assert.Contains(t, out, "Key Insights")
}
