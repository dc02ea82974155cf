package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/codepulse/core/agg"
	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/parquet"
	"github.com/huangsam/codepulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteFindings outputs findings, dispatching based on the output format configured.
func WriteFindings(findings []schema.Finding, cfg *contract.Config) error {
	if ok, err := writeStructured(cfg, findings); ok {
		return err
	}
	switch cfg.Output {
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFindingsCSV(w, findings)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(cfg.OutputFile, parquet.ConvertFindings(findings))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFindingsTable(w, findings, cfg)
		}, "Wrote table")
	}
}

// writeFindingsTable renders findings in file and line order.
func writeFindingsTable(w io.Writer, findings []schema.Finding, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"File", "Line", "Severity", "Tool", "Issue", "Commit"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft}
	})

	pathWidth := getMaxTableTextWidth(cfg, 80)
	var data [][]string
	for _, f := range findings {
		data = append(data, []string{
			contract.TruncatePath(f.File, pathWidth),
			strconv.Itoa(f.Line),
			contract.GetColorSeverity(f.Severity),
			f.Tool,
			contract.TruncateText(f.IssueType, 30),
			shortHash(f.CommitHash),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	counts := agg.SeverityBreakdown(findings)
	_, err := fmt.Fprintf(w, "Showing %d findings (high: %d, medium: %d, low: %d)\n",
		len(findings), counts.High, counts.Medium, counts.Low)
	return err
}

// writeFindingsCSV writes every finding field, one row per finding.
func writeFindingsCSV(w io.Writer, findings []schema.Finding) error {
	header := []string{"id", "commit_hash", "tool", "issue_type", "severity", "file", "line", "owner", "repo", "run_id"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, f := range findings {
			rec := []string{
				strconv.FormatInt(f.ID, 10),
				f.CommitHash,
				f.Tool,
				f.IssueType,
				string(f.Severity),
				f.File,
				strconv.Itoa(f.Line),
				f.Owner,
				f.Repo,
				f.RunID,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
