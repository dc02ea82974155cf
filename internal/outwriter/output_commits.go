package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/internal/parquet"
	"github.com/huangsam/codepulse/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// shortHashLen is how much of a commit hash tables show.
const shortHashLen = 7

// WriteCommits outputs commits, dispatching based on the output format configured.
func WriteCommits(commits []schema.Commit, cfg *contract.Config) error {
	if ok, err := writeStructured(cfg, commits); ok {
		return err
	}
	switch cfg.Output {
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCommitsCSV(w, commits)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeParquetFile(cfg.OutputFile, parquet.ConvertCommits(commits))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCommitsTable(w, commits, cfg)
		}, "Wrote table")
	}
}

// writeCommitsTable renders commits newest first with a one-line message.
func writeCommitsTable(w io.Writer, commits []schema.Commit, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Hash", "Date", "Author", "Files", "+", "-", "Message"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft}
	})

	messageWidth := getMaxTableTextWidth(cfg, 75)
	var data [][]string
	for _, c := range commits {
		data = append(data, []string{
			shortHash(c.Hash),
			c.Date.Format("2006-01-02 15:04"),
			contract.TruncateText(c.Author, 20),
			strconv.Itoa(c.FilesChanged),
			strconv.Itoa(c.Insertions),
			strconv.Itoa(c.Deletions),
			contract.TruncateText(c.Message, messageWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d commits\n", len(commits))
	return err
}

// writeCommitsCSV writes every commit field, one row per commit.
func writeCommitsCSV(w io.Writer, commits []schema.Commit) error {
	header := []string{"hash", "author", "date", "message", "owner", "repo", "files_changed", "insertions", "deletions"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range commits {
			rec := []string{
				c.Hash,
				c.Author,
				c.Date.Format(contract.DateTimeFormat),
				c.Message,
				c.Owner,
				c.Repo,
				strconv.Itoa(c.FilesChanged),
				strconv.Itoa(c.Insertions),
				strconv.Itoa(c.Deletions),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}
