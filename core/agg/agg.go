// Package agg has the aggregate views over stored commits and findings.
// Every function is pure and keeps the order of its input.
package agg

import "github.com/huangsam/codepulse/schema"

// BuildTrend returns one point per commit, in the order of commits.
// Findings are attributed to the commit they were recorded against.
func BuildTrend(commits []schema.Commit, findings []schema.Finding) []schema.TrendPoint {
	byCommit := make(map[string]*schema.SeverityCounts)
	for _, f := range findings {
		counts, ok := byCommit[f.CommitHash]
		if !ok {
			counts = &schema.SeverityCounts{}
			byCommit[f.CommitHash] = counts
		}
		counts.Add(f.Severity)
	}

	trend := make([]schema.TrendPoint, 0, len(commits))
	for _, c := range commits {
		point := schema.TrendPoint{
			Hash:         c.Hash,
			Date:         c.Date,
			Author:       c.Author,
			FilesChanged: c.FilesChanged,
		}
		if counts, ok := byCommit[c.Hash]; ok {
			point.High = counts.High
			point.Medium = counts.Medium
			point.Low = counts.Low
			point.Issues = counts.Total()
		}
		trend = append(trend, point)
	}
	return trend
}

// SeverityBreakdown counts findings per severity across the whole dataset.
func SeverityBreakdown(findings []schema.Finding) schema.SeverityCounts {
	var counts schema.SeverityCounts
	for _, f := range findings {
		counts.Add(f.Severity)
	}
	return counts
}

// FileIssueCounts groups findings by file in first-seen order.
func FileIssueCounts(findings []schema.Finding) []schema.FileIssueCount {
	index := make(map[string]int)
	files := make([]schema.FileIssueCount, 0)
	for _, f := range findings {
		i, ok := index[f.File]
		if !ok {
			i = len(files)
			index[f.File] = i
			files = append(files, schema.FileIssueCount{File: f.File})
		}
		files[i].Issues++
	}
	return files
}

// AuthorCommitCounts groups commits by author in first-seen order.
func AuthorCommitCounts(commits []schema.Commit) []schema.AuthorCommitCount {
	index := make(map[string]int)
	authors := make([]schema.AuthorCommitCount, 0)
	for _, c := range commits {
		i, ok := index[c.Author]
		if !ok {
			i = len(authors)
			index[c.Author] = i
			authors = append(authors, schema.AuthorCommitCount{Author: c.Author})
		}
		authors[i].Commits++
	}
	return authors
}

// BuildDashboard computes every view at once.
func BuildDashboard(commits []schema.Commit, findings []schema.Finding) schema.Dashboard {
	return schema.Dashboard{
		Trend:    BuildTrend(commits, findings),
		Severity: SeverityBreakdown(findings),
		Files:    FileIssueCounts(findings),
		Authors:  AuthorCommitCounts(commits),
	}
}
