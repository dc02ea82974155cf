package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/parquet"
	"github.com/huangsam/codepulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRuns outputs ingestion runs, dispatching based on the output format configured.
func WriteRuns(runs []schema.IngestRun, cfg *contract.Config) error {
	if ok, err := writeStructured(cfg, runs); ok {
		return err
	}
	switch cfg.Output {
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, runs)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(cfg.OutputFile, parquet.ConvertRuns(runs))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs, cfg)
		}, "Wrote table")
	}
}

// writeRunsTable renders runs newest first.
func writeRunsTable(w io.Writer, runs []schema.IngestRun, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Repository", "Started", "Took", "Status", "Commits", "Findings", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight,
			tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
		}
	})

	errorWidth := getMaxTableTextWidth(cfg, 95)
	var data [][]string
	for _, r := range runs {
		data = append(data, []string{
			shortRunID(r.RunID),
			contract.RepoKey(r.Owner, r.Repo),
			r.StartedAt.Format("2006-01-02 15:04:05"),
			runDuration(r),
			contract.GetColorStatus(r.Status),
			strconv.Itoa(r.CommitCount),
			strconv.Itoa(r.FindingCount),
			contract.TruncateText(formatRunError(r), errorWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

// writeRunsCSV writes every run field, one row per run.
func writeRunsCSV(w io.Writer, runs []schema.IngestRun) error {
	header := []string{
		"run_id", "owner", "repo", "started_at", "finished_at", "status", "error_kind", "error",
		"commit_count", "finding_count", "head_hash", "report_key",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			finished := ""
			if r.FinishedAt != nil {
				finished = r.FinishedAt.Format(contract.DateTimeFormat)
			}
			rec := []string{
				r.RunID,
				r.Owner,
				r.Repo,
				r.StartedAt.Format(contract.DateTimeFormat),
				finished,
				string(r.Status),
				r.ErrorKind,
				r.Error,
				strconv.Itoa(r.CommitCount),
				strconv.Itoa(r.FindingCount),
				r.HeadHash,
				r.ReportKey,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// shortRunID keeps the first uuid group.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(r schema.IngestRun) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

func formatRunError(r schema.IngestRun) string {
	if r.ErrorKind == "" {
		return r.Error
	}
	return r.ErrorKind + ": " + r.Error
}
