package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// GitService runs git commands against one repository working tree.
type GitService struct {
	repoRoot      string
	linePorcelain bool
}

func NewGitService(repoRoot string, linePorcelain bool) *GitService {
	return &GitService{repoRoot: repoRoot, linePorcelain: linePorcelain}
}

// RepoRoot returns the directory commands run in
func (s *GitService) RepoRoot() string {
	return s.repoRoot
}

// Blame returns porcelain blame output for an inclusive line range of a
// repository-relative path.
func (s *GitService) Blame(ctx context.Context, path string, startLine, endLine int) ([]byte, error) {
	format := "--porcelain"
	if s.linePorcelain {
		format = "--line-porcelain"
	}

	args := []string{"blame", format, "-L", fmt.Sprintf("%d,%d", startLine, endLine), "--", path}
	output, err := s.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git blame failed: %w", err)
	}
	return output, nil
}

// GetCurrentCommit returns the current commit hash
func (s *GitService) GetCurrentCommit(ctx context.Context) (string, error) {
	output, err := s.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// TopLevel returns the root of the working tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	s := &GitService{repoRoot: dir}
	output, err := s.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository root: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

func (s *GitService) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoRoot

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return nil, fmt.Errorf("%s: %w", msg, err)
			}
		}
		return nil, err
	}
	return output, nil
}
