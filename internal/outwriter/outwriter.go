// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteCommits prints commits using the configured output format.
func (ow *OutWriter) WriteCommits(commits []schema.Commit, cfg *contract.Config) error {
	return WriteCommits(commits, cfg)
}

// WriteFindings prints findings using the configured output format.
func (ow *OutWriter) WriteFindings(findings []schema.Finding, cfg *contract.Config) error {
	return WriteFindings(findings, cfg)
}

// WriteDashboard prints the aggregate views using the configured output format.
func (ow *OutWriter) WriteDashboard(dash schema.Dashboard, cfg *contract.Config) error {
	return WriteDashboard(dash, cfg)
}

// WriteRuns prints ingestion runs using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.IngestRun, cfg *contract.Config) error {
	return WriteRuns(runs, cfg)
}

// WriteOutcome prints the result of an ingestion using the configured output format.
func (ow *OutWriter) WriteOutcome(outcome schema.IngestOutcome, cfg *contract.Config) error {
	return WriteOutcome(outcome, cfg)
}

// getMaxTableTextWidth returns the width left for one free-text column after
// reserving fixed for the other columns, borders and padding.
func getMaxTableTextWidth(cfg *contract.Config, fixed int) int {
	termWidth := cfg.Width // Absolute width override from flag/env

	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - fixed
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
