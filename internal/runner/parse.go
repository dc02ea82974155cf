package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huangsam/codepulse/schema"
)

// eslintFileResult is one entry of ESLint's JSON formatter output.
type eslintFileResult struct {
	FilePath string `json:"filePath"`
	Messages []struct {
		RuleID   *string `json:"ruleId"`
		Severity int     `json:"severity"`
		Line     int     `json:"line"`
	} `json:"messages"`
}

// nativeFinding is one entry of the native JSON report.
type nativeFinding struct {
	Tool      string `json:"tool"`
	IssueType string `json:"issue_type"`
	Severity  string `json:"severity"`
	File      string `json:"file"`
	Line      int    `json:"line"`
}

// ParseReport converts raw analyzer output into findings.
// Findings are returned untagged; the caller assigns commit, repo and run.
func ParseReport(format schema.AnalyzerFormat, report []byte, dir string) ([]schema.Finding, error) {
	if len(bytes.TrimSpace(report)) == 0 {
		return nil, fmt.Errorf("analyzer produced no output")
	}
	switch format {
	case schema.ESLintFormat:
		return parseESLint(report, dir)
	case schema.NativeFormat:
		return parseNative(report)
	default:
		return nil, fmt.Errorf("unsupported analyzer format %q", format)
	}
}

func parseESLint(report []byte, dir string) ([]schema.Finding, error) {
	var results []eslintFileResult
	if err := json.Unmarshal(report, &results); err != nil {
		return nil, fmt.Errorf("decoding eslint report: %w", err)
	}

	var findings []schema.Finding
	for _, result := range results {
		file := relativePath(dir, result.FilePath)
		for _, msg := range result.Messages {
			issueType := "unknown"
			if msg.RuleID != nil && *msg.RuleID != "" {
				issueType = *msg.RuleID
			}
			findings = append(findings, schema.Finding{
				Tool:      "eslint",
				IssueType: issueType,
				Severity:  schema.SeverityFromESLint(msg.Severity),
				File:      file,
				Line:      msg.Line,
			})
		}
	}
	return findings, nil
}

func parseNative(report []byte) ([]schema.Finding, error) {
	var entries []nativeFinding
	if err := json.Unmarshal(report, &entries); err != nil {
		return nil, fmt.Errorf("decoding native report: %w", err)
	}

	findings := make([]schema.Finding, 0, len(entries))
	for i, entry := range entries {
		severity := schema.Severity(strings.ToLower(entry.Severity))
		if _, ok := schema.ValidSeverities[severity]; !ok {
			return nil, fmt.Errorf("entry %d: invalid severity %q", i, entry.Severity)
		}
		if entry.Tool == "" || entry.File == "" {
			return nil, fmt.Errorf("entry %d: tool and file are required", i)
		}
		issueType := entry.IssueType
		if issueType == "" {
			issueType = "unknown"
		}
		findings = append(findings, schema.Finding{
			Tool:      entry.Tool,
			IssueType: issueType,
			Severity:  severity,
			File:      filepath.ToSlash(entry.File),
			Line:      entry.Line,
		})
	}
	return findings, nil
}

// relativePath returns path relative to dir when it lies inside dir.
// Both sides are also compared with symlinks resolved, since analyzers
// usually report real paths while dir may go through a symlink.
func relativePath(dir, path string) string {
	if dir == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	if rel, ok := within(dir, path); ok {
		return rel
	}
	if rel, ok := within(resolveSymlinks(dir), resolveSymlinks(path)); ok {
		return rel
	}
	return filepath.ToSlash(path)
}

func within(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func resolveSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
