package services

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"shortform-signals/models"
)

const undefinedText = "n/a"

// ReportPrinter renders analysis results as terminal tables.
type ReportPrinter struct {
	w io.Writer
}

// NewReportPrinter prints to w.
func NewReportPrinter(w io.Writer) *ReportPrinter {
	return &ReportPrinter{w: w}
}

// Banner prints a section heading.
func (p *ReportPrinter) Banner(title string) {
	sep := strings.Repeat("═", 54)
	fmt.Fprintf(p.w, "\n%s\n  %s\n%s\n", sep, title, sep)
}

// Section prints a titled block heading.
func (p *ReportPrinter) Section(title string) {
	fmt.Fprintf(p.w, "\n  %s\n  %s\n", title, strings.Repeat("─", 54))
}

// Summary prints a grouped aggregate.
func (p *ReportPrinter) Summary(title string, s *models.Summary) {
	p.Section(title)
	if s == nil || len(s.Rows) == 0 {
		fmt.Fprintln(p.w, "  No data available")
		return
	}

	headers := append(append([]string(nil), s.Keys...), s.Columns...)
	headers = append(headers, "rows")
	rows := make([][]string, 0, len(s.Rows))
	for _, r := range s.Rows {
		row := append([]string(nil), r.Key...)
		for _, v := range r.Values {
			row = append(row, formatFloat(v))
		}
		row = append(row, strconv.Itoa(r.Size))
		rows = append(rows, row)
	}
	fmt.Fprintln(p.w, renderTable(headers, rows, len(s.Keys)))
}

// Projection prints a projected row set such as a top-N ranking.
func (p *ReportPrinter) Projection(title string, proj *models.Projection) {
	p.Section(title)
	if proj == nil || len(proj.Rows) == 0 {
		fmt.Fprintln(p.w, "  No data available")
		return
	}
	rows := make([][]string, 0, len(proj.Rows))
	for _, r := range proj.Rows {
		row := make([]string, len(r))
		for i, c := range r {
			switch {
			case c.Undefined():
				row[i] = undefinedText
			case c.IsNum:
				row[i] = formatFloat(c.Num)
			default:
				row[i] = c.Text
			}
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(p.w, renderTable(proj.Columns, rows, 0))
}

// Correlation prints the correlation matrix.
func (p *ReportPrinter) Correlation(title string, m *models.CorrMatrix) {
	p.Section(title)
	if m == nil || len(m.Columns) == 0 {
		fmt.Fprintln(p.w, "  No data available")
		return
	}
	headers := append([]string{""}, m.Columns...)
	rows := make([][]string, len(m.Columns))
	for i, c := range m.Columns {
		rows[i] = append(rows[i], c)
		for j := range m.Columns {
			rows[i] = append(rows[i], formatFloat(m.Values[i][j]))
		}
	}
	fmt.Fprintln(p.w, renderTable(headers, rows, 1))
}

// Insights prints numbered insight sentences.
func (p *ReportPrinter) Insights(lines []string) {
	p.Section("Key Insights")
	for i, l := range lines {
		fmt.Fprintf(p.w, "  %d. %s\n", i+1, l)
	}
}

// DataSummary prints the dataset headline numbers.
func (p *ReportPrinter) DataSummary(s models.DataSummary) {
	p.Section("Data Summary")
	retention := "not calculated"
	if s.HasRetention {
		retention = formatFloat(s.AvgRetentionRate)
	}
	rows := [][]string{
		{"total_videos", strconv.Itoa(s.TotalVideos)},
		{"total_creators", strconv.Itoa(s.TotalCreators)},
		{"total_platforms", strconv.Itoa(s.TotalPlatforms)},
		{"avg_views", formatFloat(s.AvgViews)},
		{"format_types", strconv.Itoa(s.FormatTypes)},
		{"creator_niches", strconv.Itoa(s.CreatorNiches)},
		{"avg_retention_rate", retention},
	}
	fmt.Fprintln(p.w, renderTable([]string{"metric", "value"}, rows, 1))
}

// renderTable left-aligns the first leftCols columns and right-aligns the rest.
func renderTable(headers []string, rows [][]string, leftCols int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	// Headers stay in schema case so they match the exported CSV columns.
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignRight
		if i < leftCols {
			align = text.AlignLeft
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return undefinedText
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
