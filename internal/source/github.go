// Package source fetches commit metadata from a remote repository host.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/codepulse/internal/contract"
	"github.com/huangsam/codepulse/schema"
)

// maxBodyBytes bounds the size of a single commits page we are willing to decode.
const maxBodyBytes = 32 << 20

// GitHubSource implements contract.CommitSource against the GitHub REST API.
type GitHubSource struct {
	baseURL string
	token   string
	perPage int
	client  *http.Client
}

var _ contract.CommitSource = &GitHubSource{} // Compile-time check

// NewGitHubSource creates a source client from the validated config.
func NewGitHubSource(cfg *contract.Config) *GitHubSource {
	return &GitHubSource{
		baseURL: strings.TrimRight(cfg.SourceURL, "/"),
		token:   cfg.GitHubToken,
		perPage: cfg.SourcePerPage,
		client:  &http.Client{Timeout: cfg.SourceTimeout},
	}
}

// apiCommit mirrors the subset of the commits payload we read.
// Pointers distinguish a missing field from an empty one.
type apiCommit struct {
	SHA    *string `json:"sha"`
	Commit *struct {
		Author *struct {
			Name *string `json:"name"`
			Date *string `json:"date"`
		} `json:"author"`
		Message *string `json:"message"`
	} `json:"commit"`
}

// FetchCommits returns the first page of commits for owner/repo, most recent first.
func (s *GitHubSource) FetchCommits(ctx context.Context, owner, repo string) ([]schema.Commit, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits", s.baseURL, url.PathEscape(owner), url.PathEscape(repo))
	if s.perPage > 0 {
		endpoint += "?per_page=" + strconv.Itoa(s.perPage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "codepulse")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s/%s returned status %d", contract.ErrSourceRejected, owner, repo, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", contract.ErrSourceUnavailable, err)
	}

	var entries []apiCommit
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrSourceMalformed, err)
	}

	commits := make([]schema.Commit, 0, len(entries))
	for i, entry := range entries {
		commit, err := toCommit(entry, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", contract.ErrSourceMalformed, i, err)
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// toCommit maps one payload entry, rejecting entries with missing fields.
func toCommit(entry apiCommit, owner, repo string) (schema.Commit, error) {
	if entry.SHA == nil || *entry.SHA == "" {
		return schema.Commit{}, fmt.Errorf("missing sha")
	}
	if entry.Commit == nil || entry.Commit.Author == nil {
		return schema.Commit{}, fmt.Errorf("commit %s: missing author", *entry.SHA)
	}
	author := entry.Commit.Author
	if author.Name == nil {
		return schema.Commit{}, fmt.Errorf("commit %s: missing author name", *entry.SHA)
	}
	if author.Date == nil {
		return schema.Commit{}, fmt.Errorf("commit %s: missing author date", *entry.SHA)
	}
	if entry.Commit.Message == nil {
		return schema.Commit{}, fmt.Errorf("commit %s: missing message", *entry.SHA)
	}
	date, err := time.Parse(time.RFC3339, *author.Date)
	if err != nil {
		return schema.Commit{}, fmt.Errorf("commit %s: %v", *entry.SHA, err)
	}
	return schema.Commit{
		Hash:    *entry.SHA,
		Author:  *author.Name,
		Date:    date.UTC(),
		Message: *entry.Commit.Message,
		Owner:   owner,
		Repo:    repo,
	}, nil
}
