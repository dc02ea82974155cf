package schema

import "time"

// TrendPoint is one point of the per-commit trend series.
type TrendPoint struct {
	Hash         string    `json:"hash" yaml:"hash"`
	Date         time.Time `json:"date" yaml:"date"`
	Author       string    `json:"author" yaml:"author"`
	FilesChanged int       `json:"files_changed" yaml:"files_changed"`
	Issues       int       `json:"issues" yaml:"issues"`
	High         int       `json:"high" yaml:"high"`
	Medium       int       `json:"medium" yaml:"medium"`
	Low          int       `json:"low" yaml:"low"`
}

// SeverityCounts is the number of findings per severity.
type SeverityCounts struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// Total returns the sum across all severities.
func (s SeverityCounts) Total() int {
	return s.High + s.Medium + s.Low
}

// Add increments the counter for the given severity.
// Unknown severities are counted as low.
func (s *SeverityCounts) Add(sev Severity) {
	switch sev {
	case SeverityHigh:
		s.High++
	case SeverityMedium:
		s.Medium++
	default:
		s.Low++
	}
}

// FileIssueCount is the number of findings in one file.
type FileIssueCount struct {
	File   string `json:"file" yaml:"file"`
	Issues int    `json:"issues" yaml:"issues"`
}

// AuthorCommitCount is the number of commits by one author.
type AuthorCommitCount struct {
	Author  string `json:"author" yaml:"author"`
	Commits int    `json:"commits" yaml:"commits"`
}

// Dashboard bundles every aggregate view.
type Dashboard struct {
	Trend    []TrendPoint        `json:"trend" yaml:"trend"`
	Severity SeverityCounts      `json:"severity" yaml:"severity"`
	Files    []FileIssueCount    `json:"files" yaml:"files"`
	Authors  []AuthorCommitCount `json:"authors" yaml:"authors"`
}
