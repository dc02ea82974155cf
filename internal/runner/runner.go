// Package runner executes the external static-analysis process against a checkout
// and turns its report into structured findings.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

const (
	// stderrLimit bounds how much of the analyzer's stderr is kept for error messages.
	stderrLimit = 8 << 10

	// killGrace is how long Wait keeps draining pipes after the process is killed.
	killGrace = time.Second
)

// Runner implements contract.AnalysisRunner by launching one process per run.
type Runner struct {
	command   []string
	format    schema.AnalyzerFormat
	timeout   time.Duration
	maxOutput int64
	exitCodes []int
}

var _ contract.AnalysisRunner = &Runner{} // Compile-time check

// NewRunner creates a runner from the validated config.
func NewRunner(cfg *contract.Config) *Runner {
	cfg = cfg.Clone()
	return &Runner{
		command:   cfg.AnalyzerCommand,
		format:    cfg.AnalyzerFormat,
		timeout:   cfg.AnalyzerTimeout,
		maxOutput: cfg.AnalyzerMaxOutput,
		exitCodes: cfg.AnalyzerExitCodes,
	}
}

// Run executes the analyzer in target.Dir and returns its parsed findings.
// Output from a process that timed out, overflowed or failed is never returned.
func (r *Runner) Run(ctx context.Context, target schema.AnalysisTarget) (schema.AnalysisResult, error) {
	if len(r.command) == 0 {
		return schema.AnalysisResult{}, fmt.Errorf("%w: no analyzer command configured", contract.ErrAnalysisFailed)
	}

	argv := make([]string, len(r.command))
	for i, arg := range r.command {
		argv[i] = contract.ExpandRepoTemplate(arg, target.Owner, target.Repo, target.Dir)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout := newCappedBuffer(r.maxOutput, cancel)
	stderr := &headBuffer{limit: stderrLimit}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = target.Dir
	cmd.Env = append(os.Environ(),
		"CODEPULSE_OWNER="+target.Owner,
		"CODEPULSE_REPO="+target.Repo,
		"CODEPULSE_DIR="+target.Dir,
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = killGrace
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return schema.AnalysisResult{}, fmt.Errorf("%w: starting %s: %v", contract.ErrAnalysisFailed, argv[0], err)
	}
	waitErr := cmd.Wait()
	duration := time.Since(start)

	switch {
	case stdout.Overflowed():
		return schema.AnalysisResult{}, fmt.Errorf("%w: output exceeded %d bytes", contract.ErrAnalysisOverflow, r.maxOutput)
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return schema.AnalysisResult{}, fmt.Errorf("%w: killed after %s", contract.ErrAnalysisTimeout, r.timeout)
	case ctx.Err() != nil:
		return schema.AnalysisResult{}, fmt.Errorf("%w: %v", contract.ErrAnalysisFailed, ctx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return schema.AnalysisResult{}, fmt.Errorf("%w: %v", contract.ErrAnalysisFailed, waitErr)
		}
		if !slices.Contains(r.exitCodes, exitErr.ExitCode()) {
			return schema.AnalysisResult{}, fmt.Errorf("%w: exit code %d: %s",
				contract.ErrAnalysisFailed, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
	} else if !slices.Contains(r.exitCodes, 0) {
		return schema.AnalysisResult{}, fmt.Errorf("%w: exit code 0 is not an accepted exit code", contract.ErrAnalysisFailed)
	}

	report := stdout.Bytes()
	findings, err := ParseReport(r.format, report, target.Dir)
	if err != nil {
		return schema.AnalysisResult{}, fmt.Errorf("%w: %v", contract.ErrAnalysisFailed, err)
	}

	return schema.AnalysisResult{
		Findings: findings,
		Report:   report,
		Duration: duration,
	}, nil
}
