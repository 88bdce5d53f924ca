// Package testutil builds throwaway git repositories for integration tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// Author identifies who a commit is made as.
type Author struct {
	Name  string
	Email string
}

// GitRepo is a temporary repository with a configured committer.
type GitRepo struct {
	t   testing.TB
	Dir string
}

// NewGitRepo initialises a repository in a temp dir. The test is skipped
// under -short or when git is not installed.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	repo := &GitRepo{t: t, Dir: t.TempDir()}
	repo.Git("init", "-q")
	repo.Git("config", "commit.gpgsign", "false")
	return repo
}

// Git runs a git command in the repository and fails the test on error.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
	return string(out)
}

// Commit writes content to path and commits it as author.
func (r *GitRepo) Commit(author Author, path, content, message string) {
	r.t.Helper()
	full := filepath.Join(r.Dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		r.t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		r.t.Fatalf("Failed to write file: %v", err)
	}
	r.Git("add", path)
	r.Git("-c", "user.name="+author.Name, "-c", "user.email="+author.Email,
		"commit", "-q", "-m", message)
}
