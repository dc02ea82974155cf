package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initTestRepo creates a repository with two commits and returns its path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git := func(args ...string) {
		full := append([]string{"-C", dir, "-c", "user.name=Test Author", "-c", "user.email=test@example.com"}, args...)
		out, err := exec.Command("git", full...).CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	git("init", "--quiet")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("let a = 1;\n"), 0o644))
	git("add", ".")
	git("commit", "--quiet", "-m", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("let a = 2;\nlet b = 3;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.js"), []byte("let c = 4;\n"), 0o644))
	git("add", ".")
	git("commit", "--quiet", "-m", "second")
	return dir
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()

	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")
	mockClient.On("Run", ctx, "/path/to/repo", "log", "-1", "--oneline").
		Return(expectedOutput, expectedError).
		Once()

	actualOutput, actualError := mockClient.Run(ctx, "/path/to/repo", "log", "-1", "--oneline")

	assert.Equal(t, expectedOutput, actualOutput)
	assert.Equal(t, expectedError, actualError)
	mockClient.AssertExpectations(t)
}

func TestGitCommand_DisablesTerminalPrompt(t *testing.T) {
	cmd := gitCommand(context.Background(), "status")
	assert.Equal(t, []string{"git", "status"}, cmd.Args)
	assert.Contains(t, cmd.Env, "GIT_TERMINAL_PROMPT=0")
	assert.Greater(t, len(cmd.Env), 1, "caller environment is kept")
}

func TestLocalGitClient_CloneMissingRemoteFailsFast(t *testing.T) {
	skipIfGitNotAvailable(t)
	dir := filepath.Join(t.TempDir(), "clone")
	err := NewLocalGitClient().Clone(context.Background(), "file://"+filepath.Join(t.TempDir(), "missing"), dir, 1)
	assert.Error(t, err)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client)
	assert.IsType(t, &LocalGitClient{}, client)
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	repo := initTestRepo(t)

	tests := []struct {
		name        string
		repoPath    string
		args        []string
		expectError bool
	}{
		{"valid command", repo, []string{"status", "--short"}, false},
		{"invalid repo path", "/nonexistent/path", []string{"status"}, true},
		{"invalid git command", repo, []string{"invalid-command"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Run(ctx, tt.repoPath, tt.args...)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalGitClient_GetRepoHash(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	hash, err := client.GetRepoHash(context.Background(), initTestRepo(t))
	require.NoError(t, err)
	assert.Len(t, hash, 40)

	_, err = client.GetRepoHash(context.Background(), t.TempDir())
	assert.Error(t, err, "a directory without a repository has no HEAD")
}

func TestLocalGitClient_GetActivityLog(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	repo := initTestRepo(t)

	out, err := client.GetActivityLog(context.Background(), repo, 1)
	require.NoError(t, err)

	log := string(out)
	assert.Equal(t, 1, strings.Count(log, "--"), "only the newest commit should be included")
	assert.Contains(t, log, "|Test Author|")
	assert.Contains(t, log, "b.js")

	out, err = client.GetActivityLog(context.Background(), repo, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), "|Test Author|"))
}

func TestLocalGitClient_Clone(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	ctx := context.Background()
	src := initTestRepo(t)
	dst := filepath.Join(t.TempDir(), "checkout")

	require.NoError(t, client.Clone(ctx, "file://"+src, dst, 1))

	srcHash, err := client.GetRepoHash(ctx, src)
	require.NoError(t, err)
	dstHash, err := client.GetRepoHash(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, srcHash, dstHash)

	count, err := client.Run(ctx, dst, "rev-list", "--count", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(string(count)), "depth 1 keeps a single commit")

	err = client.Clone(ctx, "file:///nonexistent/repo", filepath.Join(t.TempDir(), "x"), 1)
	assert.Error(t, err)
}
