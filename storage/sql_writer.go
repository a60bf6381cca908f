package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"shortform-signals/config"
	"shortform-signals/models"
	"shortform-signals/utils"
)

const batchSize = 50

var videoTableColumns = []string{
	"row_num", "video_id", "creator_id", "format_type", "duration_sec",
	"views", "likes", "comments", "shares", "watch_time", "full_views",
	"retention_rate", "hook_watch_rate", "engagement_rate",
	"avg_watch_time_per_view", "like_to_view_ratio", "share_to_view_ratio",
}

var creatorTableColumns = []string{"row_num", "creator_id", "creator_name", "niche", "followers"}

var platformTableColumns = []string{"row_num", "platform_id", "platform_name", "attributes"}

var runTableColumns = []string{
	"run_id", "started_at", "videos", "creators", "platforms", "warnings",
	"cluster_count", "cluster_seed",
}

// SQLWriter persists analysis tables to PostgreSQL or SQLite.
type SQLWriter struct {
	db     *sql.DB
	driver string
}

var _ DatasetStore = (*SQLWriter)(nil)

// NewSQLWriter opens a connection for driver (config.DriverPostgres or
// config.DriverSQLite), pings it with retries, runs schema migrations and
// returns a ready-to-use SQLWriter.
func NewSQLWriter(driver, dsn string, retry *utils.RetryConfig) (*SQLWriter, error) {
	if driver == config.DriverSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("%s: create db dir: %w", driver, err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := retry.Do(driver+" ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, err
	}

	w, err := NewSQLWriterWithDB(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewSQLWriterWithDB wraps an open database and runs schema migrations.
func NewSQLWriterWithDB(db *sql.DB, driver string) (*SQLWriter, error) {
	if driver != config.DriverPostgres && driver != config.DriverSQLite {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
	w := &SQLWriter{db: db, driver: driver}
	if err := w.migrate(); err != nil {
		return nil, fmt.Errorf("%s: migrate: %w", driver, err)
	}
	return w, nil
}

// Migrations returns the schema statements for driver, in execution order.
func Migrations(driver string) []string {
	ts := "TIMESTAMPTZ"
	if driver == config.DriverSQLite {
		ts = "TIMESTAMP"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS shortform_videos (
			row_num                 INTEGER NOT NULL,
			video_id                TEXT    NOT NULL DEFAULT '',
			creator_id              TEXT    NOT NULL DEFAULT '',
			format_type             TEXT    NOT NULL DEFAULT '',
			duration_sec            DOUBLE PRECISION,
			views                   DOUBLE PRECISION,
			likes                   DOUBLE PRECISION,
			comments                DOUBLE PRECISION,
			shares                  DOUBLE PRECISION,
			watch_time              DOUBLE PRECISION,
			full_views              DOUBLE PRECISION,
			retention_rate          DOUBLE PRECISION,
			hook_watch_rate         DOUBLE PRECISION,
			engagement_rate         DOUBLE PRECISION,
			avg_watch_time_per_view DOUBLE PRECISION,
			like_to_view_ratio      DOUBLE PRECISION,
			share_to_view_ratio     DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_format  ON shortform_videos(format_type)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_creator ON shortform_videos(creator_id)`,
		`CREATE TABLE IF NOT EXISTS shortform_creators (
			row_num      INTEGER NOT NULL,
			creator_id   TEXT    NOT NULL DEFAULT '',
			creator_name TEXT    NOT NULL DEFAULT '',
			niche        TEXT    NOT NULL DEFAULT '',
			followers    DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS shortform_platforms (
			row_num       INTEGER NOT NULL,
			platform_id   TEXT    NOT NULL DEFAULT '',
			platform_name TEXT    NOT NULL DEFAULT '',
			attributes    TEXT    NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS shortform_runs (
			run_id        TEXT    PRIMARY KEY,
			started_at    ` + ts + ` NOT NULL,
			videos        INTEGER NOT NULL,
			creators      INTEGER NOT NULL,
			platforms     INTEGER NOT NULL,
			warnings      INTEGER NOT NULL,
			cluster_count INTEGER NOT NULL,
			cluster_seed  BIGINT  NOT NULL
		)`,
	}
}

func (w *SQLWriter) migrate() error {
	for _, stmt := range Migrations(w.driver) {
		if _, err := w.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes all rows of the dataset tables. Run history is kept.
func (w *SQLWriter) Clear() error {
	for _, table := range []string{"shortform_videos", "shortform_creators", "shortform_platforms"} {
		if _, err := w.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("%s: clear %s: %w", w.driver, table, err)
		}
	}
	return nil
}

// Write replaces the stored dataset: analysis rows (raw and derived
// columns), creators and platforms. Undefined values are stored as NULL.
func (w *SQLWriter) Write(rows []models.AnalysisRow, creators []models.CreatorRecord, platforms []models.PlatformRecord) error {
	if err := w.Clear(); err != nil {
		return err
	}

	videoRows := make([][]any, len(rows))
	for i, r := range rows {
		videoRows[i] = []any{
			i, r.VideoID, r.CreatorID, r.FormatType, nullable(r.DurationSec),
			nullable(r.Views), nullable(r.Likes), nullable(r.Comments), nullable(r.Shares),
			nullable(r.WatchTime), nullable(r.FullViews), nullable(r.RetentionRate),
			nullable(r.HookWatchRate), nullable(r.EngagementRate),
			nullable(r.AvgWatchTimePerView), nullable(r.LikeToViewRatio),
			nullable(r.ShareToViewRatio),
		}
	}
	if err := w.insert("shortform_videos", videoTableColumns, videoRows); err != nil {
		return err
	}

	creatorRows := make([][]any, len(creators))
	for i, c := range creators {
		creatorRows[i] = []any{i, c.CreatorID, c.CreatorName, c.Niche, nullable(c.Followers)}
	}
	if err := w.insert("shortform_creators", creatorTableColumns, creatorRows); err != nil {
		return err
	}

	platformRows := make([][]any, len(platforms))
	for i, p := range platforms {
		attrs, err := json.Marshal(p.Attributes)
		if err != nil {
			return fmt.Errorf("%s: encode platform attributes: %w", w.driver, err)
		}
		platformRows[i] = []any{i, p.PlatformID, p.PlatformName, string(attrs)}
	}
	return w.insert("shortform_platforms", platformTableColumns, platformRows)
}

// RecordRun appends one analysis run to the run history.
func (w *SQLWriter) RecordRun(run models.RunInfo) error {
	return w.insert("shortform_runs", runTableColumns, [][]any{{
		run.ID, run.StartedAt.UTC().Truncate(time.Second), run.Videos, run.Creators,
		run.Platforms, run.Warnings, run.ClusterCount, run.ClusterSeed,
	}})
}

func (w *SQLWriter) insert(table string, cols []string, rows [][]any) error {
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := w.insertBatch(table, cols, rows[i:end]); err != nil {
			return fmt.Errorf("%s: insert %s: %w", w.driver, table, err)
		}
	}
	return nil
}

func (w *SQLWriter) insertBatch(table string, cols []string, batch [][]any) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*len(cols))

	for idx, row := range batch {
		ph := make([]string, len(cols))
		for c := range cols {
			ph[c] = w.placeholder(idx*len(cols) + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(cols, ", "), strings.Join(valueStrings, ","))

	_, err := w.db.Exec(query, valueArgs...)
	return err
}

func (w *SQLWriter) placeholder(n int) string {
	if w.driver == config.DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// FetchDataset reads the stored dataset back. Retention rate is always
// present in the store, so the returned video table reports HasRetention.
func (w *SQLWriter) FetchDataset() (*models.Dataset, error) {
	ds := &models.Dataset{Videos: models.VideoTable{HasRetention: true}}

	rows, err := w.db.Query(`
		SELECT video_id, creator_id, format_type, duration_sec, views, likes,
		       comments, shares, watch_time, full_views, retention_rate, hook_watch_rate
		FROM shortform_videos
		ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch videos: %w", w.driver, err)
	}
	defer rows.Close()
	for rows.Next() {
		var v models.VideoRecord
		var nums [9]sql.NullFloat64
		if err := rows.Scan(&v.VideoID, &v.CreatorID, &v.FormatType,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6], &nums[7], &nums[8]); err != nil {
			return nil, fmt.Errorf("%s: scan video: %w", w.driver, err)
		}
		v.DurationSec, v.Views, v.Likes = orNaN(nums[0]), orNaN(nums[1]), orNaN(nums[2])
		v.Comments, v.Shares, v.WatchTime = orNaN(nums[3]), orNaN(nums[4]), orNaN(nums[5])
		v.FullViews, v.RetentionRate, v.HookWatchRate = orNaN(nums[6]), orNaN(nums[7]), orNaN(nums[8])
		ds.Videos.Records = append(ds.Videos.Records, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: fetch videos: %w", w.driver, err)
	}

	if ds.Creators, err = w.fetchCreators(); err != nil {
		return nil, err
	}
	if ds.Platforms, err = w.fetchPlatforms(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (w *SQLWriter) fetchCreators() ([]models.CreatorRecord, error) {
	rows, err := w.db.Query(`
		SELECT creator_id, creator_name, niche, followers
		FROM shortform_creators
		ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch creators: %w", w.driver, err)
	}
	defer rows.Close()

	var creators []models.CreatorRecord
	for rows.Next() {
		var c models.CreatorRecord
		var followers sql.NullFloat64
		if err := rows.Scan(&c.CreatorID, &c.CreatorName, &c.Niche, &followers); err != nil {
			return nil, fmt.Errorf("%s: scan creator: %w", w.driver, err)
		}
		c.Followers = orNaN(followers)
		creators = append(creators, c)
	}
	return creators, rows.Err()
}

func (w *SQLWriter) fetchPlatforms() ([]models.PlatformRecord, error) {
	rows, err := w.db.Query(`
		SELECT platform_id, platform_name, attributes
		FROM shortform_platforms
		ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch platforms: %w", w.driver, err)
	}
	defer rows.Close()

	var platforms []models.PlatformRecord
	for rows.Next() {
		var p models.PlatformRecord
		var attrs string
		if err := rows.Scan(&p.PlatformID, &p.PlatformName, &attrs); err != nil {
			return nil, fmt.Errorf("%s: scan platform: %w", w.driver, err)
		}
		if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
			return nil, fmt.Errorf("%s: decode platform attributes: %w", w.driver, err)
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}

func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
