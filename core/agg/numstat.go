package agg

import (
	"strconv"
	"strings"

	"github.com/huangsam/codepulse/schema"
)

// ParseCommitStats parses `git log --numstat` output written with
// contract.ActivityLogFormat and returns the change volume of each commit by hash.
// Binary files count as changed with zero lines; a rename counts as one file.
func ParseCommitStats(out []byte) map[string]schema.CommitStats {
	stats := make(map[string]schema.CommitStats)
	var current string

	for _, l := range strings.Split(string(out), "\n") {
		l = strings.Trim(l, " \t\r\n'")

		if strings.HasPrefix(l, "--") {
			// Commit header line
			current = parseCommitHeader(l)
			if current != "" {
				if _, ok := stats[current]; !ok {
					stats[current] = schema.CommitStats{}
				}
			}
			continue
		}
		if l == "" || current == "" {
			continue
		}

		add, del, ok := parseFileStatsLine(l)
		if !ok {
			continue
		}
		s := stats[current]
		s.FilesChanged++
		s.Insertions += add
		s.Deletions += del
		stats[current] = s
	}
	return stats
}

// MergeCommitStats copies change volume into commits whose hash has stats
// and returns how many commits were updated.
func MergeCommitStats(commits []schema.Commit, stats map[string]schema.CommitStats) int {
	merged := 0
	for i := range commits {
		s, ok := stats[commits[i].Hash]
		if !ok {
			continue
		}
		commits[i].FilesChanged = s.FilesChanged
		commits[i].Insertions = s.Insertions
		commits[i].Deletions = s.Deletions
		merged++
	}
	return merged
}

// parseCommitHeader extracts the hash from a "--hash|author|date" line.
func parseCommitHeader(line string) string {
	if !strings.HasPrefix(line, "--") || len(line) < 5 { // --x|y|z minimum
		return ""
	}
	parts := strings.SplitN(line[2:], "|", 3)
	if len(parts) != 3 || parts[0] == "" {
		return ""
	}
	return parts[0]
}

// parseFileStatsLine parses "added<TAB>deleted<TAB>path".
func parseFileStatsLine(line string) (int, int, bool) {
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) < 3 || parts[2] == "" {
		return 0, 0, false
	}
	return parseChurnValue(parts[0]), parseChurnValue(parts[1]), true
}

// parseChurnValue converts a churn string to int, handling "-" as 0.
func parseChurnValue(s string) int {
	if s == "-" {
		return 0
	}
	if val, err := strconv.Atoi(s); err == nil && val >= 0 {
		return val
	}
	return 0
}
