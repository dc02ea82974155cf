package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/codepulse/schema"
)

// Color variables for console output.
var (
	HighColor   = color.New(color.FgRed, color.Bold) // HighColor represents standard danger.
	MediumColor = color.New(color.FgYellow)          // MediumColor represents standard caution, not bold.
	LowColor    = color.New(color.FgCyan)            // LowColor represents informational / low-priority signal.
	OkColor     = color.New(color.FgGreen)
	FailColor   = color.New(color.FgRed)
)

// repoNamePattern matches the characters GitHub allows in owner and repository names.
var repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// GetColorSeverity returns a colored severity label for console output (table).
func GetColorSeverity(sev schema.Severity) string {
	text := string(sev)
	switch sev {
	case schema.SeverityHigh:
		return HighColor.Sprint(text)
	case schema.SeverityMedium:
		return MediumColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// GetColorStatus returns a colored run status label for console output.
func GetColorStatus(status schema.RunStatus) string {
	if status == schema.RunSucceeded {
		return OkColor.Sprint(string(status))
	}
	return FailColor.Sprint(string(status))
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "Info "+format+"\n", args...)
}

// GetDBFilePath returns the path to the default SQLite DB file.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".codepulse.db"
	}
	return filepath.Join(homeDir, ".codepulse.db")
}

// ValidateRepoName checks that owner and repo are safe to place in URLs and paths.
func ValidateRepoName(owner, repo string) error {
	for _, part := range []struct{ label, value string }{{"owner", owner}, {"repo", repo}} {
		if part.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, part.label)
		}
		if part.value == "." || part.value == ".." || !repoNamePattern.MatchString(part.value) {
			return fmt.Errorf("%w: %s %q contains unsupported characters", ErrInvalidInput, part.label, part.value)
		}
	}
	return nil
}

// RepoKey returns the canonical owner/repo key.
func RepoKey(owner, repo string) string {
	return owner + "/" + repo
}

// ExpandRepoTemplate substitutes {owner}, {repo} and {dir} in s.
func ExpandRepoTemplate(s, owner, repo, dir string) string {
	return strings.NewReplacer("{owner}", owner, "{repo}", repo, "{dir}", dir).Replace(s)
}

// ParseExitCodes parses a comma-separated list of process exit codes like "0,1".
func ParseExitCodes(s string) ([]int, error) {
	var codes []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil || code < 0 || code > 255 {
			return nil, fmt.Errorf("invalid exit code %q", part)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("at least one exit code is required")
	}
	return codes, nil
}

// TruncateText shortens s to maxWidth runes with an ellipsis suffix.
// Only the first line of s is kept.
func TruncateText(s string, maxWidth int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
