package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// WriteOutcome outputs the result of one ingestion.
func WriteOutcome(outcome schema.IngestOutcome, cfg *contract.Config) error {
	if ok, err := writeStructured(cfg, outcome); ok {
		return err
	}
	switch cfg.Output {
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOutcomeCSV(w, outcome)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for ingest; use json, yaml or csv")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOutcomeText(w, outcome)
		}, "Wrote summary")
	}
}

func writeOutcomeText(w io.Writer, o schema.IngestOutcome) error {
	lines := []string{
		o.Message,
		fmt.Sprintf("Run ID: %s", o.RunID),
		fmt.Sprintf("HEAD: %s", o.HeadHash),
	}
	if o.ReportKey != "" {
		lines = append(lines, fmt.Sprintf("Report: %s", o.ReportKey))
	}
	s := o.Summary
	if s.CommitsSkipped > 0 || s.FindingsSkipped > 0 {
		lines = append(lines, fmt.Sprintf("Skipped: %d commits, %d findings", s.CommitsSkipped, s.FindingsSkipped))
	}
	if s.FindingsSuperseded > 0 {
		lines = append(lines, fmt.Sprintf("Superseded: %d findings from earlier runs", s.FindingsSuperseded))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func writeOutcomeCSV(w io.Writer, o schema.IngestOutcome) error {
	header := []string{
		"run_id", "owner", "repo", "head_hash", "report_key", "commits", "findings",
		"commits_skipped", "findings_skipped", "findings_superseded",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		return cw.Write([]string{
			o.RunID,
			o.Owner,
			o.Repo,
			o.HeadHash,
			o.ReportKey,
			strconv.Itoa(o.Commits),
			strconv.Itoa(o.Findings),
			strconv.Itoa(o.Summary.CommitsSkipped),
			strconv.Itoa(o.Summary.FindingsSkipped),
			strconv.Itoa(o.Summary.FindingsSuperseded),
		})
	})
}
