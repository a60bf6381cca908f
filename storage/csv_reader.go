package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"shortform-signals/models"
	"shortform-signals/utils"
)

var videoColumns = []string{
	models.ColVideoID, models.ColCreatorID, models.ColFormatType,
	models.ColDurationSec, models.ColViews, models.ColLikes, models.ColComments,
	models.ColShares, models.ColWatchTime, models.ColFullViews,
	models.ColHookWatchRate,
}

var creatorColumns = []string{
	models.ColCreatorID, models.ColCreatorName, models.ColNiche, models.ColFollowers,
}

// CSVReader loads the three input datasets from CSV files.
type CSVReader struct {
	logger *utils.Logger
}

// NewCSVReader creates a CSVReader with the given logger.
func NewCSVReader(logger *utils.Logger) *CSVReader {
	return &CSVReader{logger: logger}
}

// LoadDataset reads videos, creators and platforms from their files.
func (r *CSVReader) LoadDataset(videosPath, creatorsPath, platformsPath string) (*models.Dataset, error) {
	videos, err := r.LoadVideos(videosPath)
	if err != nil {
		return nil, err
	}
	creators, err := r.LoadCreators(creatorsPath)
	if err != nil {
		return nil, err
	}
	platforms, err := r.LoadPlatforms(platformsPath)
	if err != nil {
		return nil, err
	}
	return &models.Dataset{Videos: *videos, Creators: creators, Platforms: platforms}, nil
}

// LoadVideos reads the videos file.
func (r *CSVReader) LoadVideos(path string) (*models.VideoTable, error) {
	t, err := readTable(path, "videos", videoColumns)
	if err != nil {
		return nil, err
	}
	_, hasRetention := t.index[models.ColRetentionRate]
	table := &models.VideoTable{HasRetention: hasRetention}
	for _, row := range t.rows {
		rec := models.VideoRecord{
			VideoID:       t.text(row, models.ColVideoID),
			CreatorID:     t.text(row, models.ColCreatorID),
			FormatType:    t.text(row, models.ColFormatType),
			DurationSec:   t.number(row, models.ColDurationSec),
			Views:         t.number(row, models.ColViews),
			Likes:         t.number(row, models.ColLikes),
			Comments:      t.number(row, models.ColComments),
			Shares:        t.number(row, models.ColShares),
			WatchTime:     t.number(row, models.ColWatchTime),
			FullViews:     t.number(row, models.ColFullViews),
			RetentionRate: math.NaN(),
			HookWatchRate: t.number(row, models.ColHookWatchRate),
		}
		if hasRetention {
			rec.RetentionRate = t.number(row, models.ColRetentionRate)
		}
		table.Records = append(table.Records, rec)
	}
	r.report(t, len(table.Records))
	return table, nil
}

// LoadCreators reads the creators file.
func (r *CSVReader) LoadCreators(path string) ([]models.CreatorRecord, error) {
	t, err := readTable(path, "creators", creatorColumns)
	if err != nil {
		return nil, err
	}
	creators := make([]models.CreatorRecord, 0, len(t.rows))
	for _, row := range t.rows {
		creators = append(creators, models.CreatorRecord{
			CreatorID:   t.text(row, models.ColCreatorID),
			CreatorName: t.text(row, models.ColCreatorName),
			Niche:       t.text(row, models.ColNiche),
			Followers:   t.number(row, models.ColFollowers),
		})
	}
	r.report(t, len(creators))
	return creators, nil
}

// LoadPlatforms reads the platforms file. The id comes from platform_id (or
// platform), the name from platform_name (or name); every other column is
// kept as a descriptive attribute.
func (r *CSVReader) LoadPlatforms(path string) ([]models.PlatformRecord, error) {
	t, err := readTable(path, "platforms", nil)
	if err != nil {
		return nil, err
	}
	idCol := firstPresent(t, "platform_id", "platform")
	nameCol := firstPresent(t, "platform_name", "name")
	if idCol == "" {
		return nil, fmt.Errorf("%w: platforms: platform_id", models.ErrMissingColumn)
	}

	platforms := make([]models.PlatformRecord, 0, len(t.rows))
	for _, row := range t.rows {
		p := models.PlatformRecord{
			PlatformID: t.text(row, idCol),
			Attributes: map[string]string{},
		}
		if nameCol != "" {
			p.PlatformName = t.text(row, nameCol)
		}
		for i, h := range t.header {
			if h != idCol && h != nameCol && i < len(row) {
				p.Attributes[h] = strings.TrimSpace(row[i])
			}
		}
		platforms = append(platforms, p)
	}
	r.report(t, len(platforms))
	return platforms, nil
}

func (r *CSVReader) report(t *rawTable, n int) {
	r.logger.Info("[csv] Loaded %d %s records", n, t.name)
	if t.badNumbers > 0 {
		r.logger.Warn("[csv] %d unparsable numeric cells in %s treated as missing", t.badNumbers, t.name)
	}
}

type rawTable struct {
	name       string
	header     []string
	index      map[string]int
	rows       [][]string
	badNumbers int
}

func readTable(path, name string, required []string) (*rawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s file %q: %w", name, path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: %s file %q is empty", name, path)
		}
		return nil, fmt.Errorf("csv: read %s header: %w", name, err)
	}

	t := &rawTable{name: name, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		t.header = append(t.header, h)
		t.index[h] = i
	}
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			return nil, fmt.Errorf("%w: %s: %s", models.ErrMissingColumn, name, col)
		}
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %s row: %w", name, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *rawTable) text(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses a numeric cell; empty or unparsable cells are NaN.
func (t *rawTable) number(row []string, col string) float64 {
	s := t.text(row, col)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.badNumbers++
		return math.NaN()
	}
	return v
}

func firstPresent(t *rawTable, cols ...string) string {
	for _, c := range cols {
		if _, ok := t.index[c]; ok {
			return c
		}
	}
	return ""
}
