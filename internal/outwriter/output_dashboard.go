package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDashboard outputs every aggregate view, dispatching based on the output format configured.
// CSV carries the trend series only, since the other views have different shapes.
func WriteDashboard(dash schema.Dashboard, cfg *contract.Config) error {
	if ok, err := writeStructured(cfg, dash); ok {
		return err
	}
	switch cfg.Output {
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendCSV(w, dash.Trend)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the dashboard; use json, yaml or csv")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDashboardText(w, dash, cfg)
		}, "Wrote table")
	}
}

// writeDashboardText renders severity, files, authors and trend as consecutive tables.
func writeDashboardText(w io.Writer, dash schema.Dashboard, cfg *contract.Config) error {
	sections := []struct {
		title  string
		render func(io.Writer) error
	}{
		{"Severity", func(w io.Writer) error { return writeSeverityTable(w, dash.Severity) }},
		{"Files", func(w io.Writer) error { return writeFileCountsTable(w, dash.Files, cfg) }},
		{"Authors", func(w io.Writer) error { return writeAuthorCountsTable(w, dash.Authors) }},
		{"Trend", func(w io.Writer) error { return writeTrendTable(w, dash.Trend) }},
	}
	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", s.title); err != nil {
			return err
		}
		if err := s.render(w); err != nil {
			return err
		}
	}
	return nil
}

func writeSeverityTable(w io.Writer, counts schema.SeverityCounts) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Severity", "Findings"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})
	values := map[schema.Severity]int{
		schema.SeverityHigh:   counts.High,
		schema.SeverityMedium: counts.Medium,
		schema.SeverityLow:    counts.Low,
	}
	var data [][]string
	for _, sev := range schema.AllSeverities {
		data = append(data, []string{contract.GetColorSeverity(sev), strconv.Itoa(values[sev])})
	}
	data = append(data, []string{"total", strconv.Itoa(counts.Total())})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeFileCountsTable(w io.Writer, files []schema.FileIssueCount, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Issues"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})
	pathWidth := getMaxTableTextWidth(cfg, 25)
	var data [][]string
	for _, f := range files {
		data = append(data, []string{contract.TruncatePath(f.File, pathWidth), strconv.Itoa(f.Issues)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeAuthorCountsTable(w io.Writer, authors []schema.AuthorCommitCount) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Author", "Commits"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})
	var data [][]string
	for _, a := range authors {
		data = append(data, []string{a.Author, strconv.Itoa(a.Commits)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeTrendTable(w io.Writer, trend []schema.TrendPoint) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Commit", "Date", "Author", "Files", "Issues", "High", "Medium", "Low"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, p := range trend {
		data = append(data, []string{
			shortHash(p.Hash),
			p.Date.Format("2006-01-02"),
			contract.TruncateText(p.Author, 20),
			strconv.Itoa(p.FilesChanged),
			strconv.Itoa(p.Issues),
			strconv.Itoa(p.High),
			strconv.Itoa(p.Medium),
			strconv.Itoa(p.Low),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeTrendCSV writes one row per trend point.
func writeTrendCSV(w io.Writer, trend []schema.TrendPoint) error {
	header := []string{"hash", "date", "author", "files_changed", "issues", "high", "medium", "low"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range trend {
			rec := []string{
				p.Hash,
				p.Date.Format(contract.DateTimeFormat),
				p.Author,
				strconv.Itoa(p.FilesChanged),
				strconv.Itoa(p.Issues),
				strconv.Itoa(p.High),
				strconv.Itoa(p.Medium),
				strconv.Itoa(p.Low),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
