package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"shortform-signals/models"
)

var _ RecordWriter = (*CSVWriter)(nil)

// CSVWriter writes rows to a CSV file under a fixed header.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends rows to the file.
func (c *CSVWriter) WriteRecords(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// Exporter writes analysis outputs as CSV files into one directory for
// downstream charting. Undefined values are written as empty cells.
type Exporter struct {
	dir string
}

// NewExporter writes into dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// AnalysisColumns is the column order of the exported analysis table.
var AnalysisColumns = []string{
	models.ColVideoID, models.ColCreatorID, models.ColCreatorName, models.ColNiche,
	models.ColFollowers, models.ColFormatType, models.ColDurationSec,
	models.ColViews, models.ColLikes, models.ColComments, models.ColShares,
	models.ColWatchTime, models.ColFullViews, models.ColRetentionRate,
	models.ColHookWatchRate, models.ColEngagementRate,
	models.ColAvgWatchTimePerView, models.ColLikeToViewRatio,
	models.ColShareToViewRatio,
}

// Analysis writes the analysis table plus duration bucket and cluster id.
// bins and clusters may be nil; otherwise they are parallel to rows.
func (e *Exporter) Analysis(rows []models.AnalysisRow, bins []string, clusters []int) (string, error) {
	header := append(append([]string(nil), AnalysisColumns...), "duration_bin", "cluster")
	out := make([][]string, len(rows))
	for i := range rows {
		rec := make([]string, 0, len(header))
		for _, col := range AnalysisColumns {
			cell, _ := rows[i].Cell(col)
			rec = append(rec, cell.String())
		}
		bin, cluster := "", ""
		if bins != nil {
			bin = bins[i]
		}
		if clusters != nil {
			cluster = strconv.Itoa(clusters[i])
		}
		out[i] = append(rec, bin, cluster)
	}
	return e.write("analysis_table.csv", header, out)
}

// Summary writes a grouped aggregate to <name>.csv.
func (e *Exporter) Summary(name string, s *models.Summary) (string, error) {
	header := append(append(append([]string(nil), s.Keys...), s.Columns...), "rows")
	out := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rec := append([]string(nil), r.Key...)
		for _, v := range r.Values {
			rec = append(rec, formatCell(v))
		}
		out[i] = append(rec, strconv.Itoa(r.Size))
	}
	return e.write(name+".csv", header, out)
}

// Correlation writes the correlation matrix with a leading label column.
func (e *Exporter) Correlation(m *models.CorrMatrix) (string, error) {
	header := append([]string{"metric"}, m.Columns...)
	out := make([][]string, len(m.Columns))
	for i, c := range m.Columns {
		rec := []string{c}
		for j := range m.Columns {
			rec = append(rec, formatCell(m.Values[i][j]))
		}
		out[i] = rec
	}
	return e.write("correlation_matrix.csv", header, out)
}

func (e *Exporter) write(file string, header []string, rows [][]string) (string, error) {
	path := filepath.Join(e.dir, file)
	w, err := NewCSVWriter(path, header)
	if err != nil {
		return "", err
	}
	if err := w.WriteRecords(rows); err != nil {
		_ = w.Close()
		return "", err
	}
	return path, w.Close()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
