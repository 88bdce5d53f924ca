package blame

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dpolishuk/contribgraph/internal/models"
)

// Runner produces porcelain blame output for an inclusive line range of a
// repository-relative path. *git.GitService satisfies it.
type Runner interface {
	Blame(ctx context.Context, path string, startLine, endLine int) ([]byte, error)
}

// Attributor computes the contributors owning a line range.
type Attributor struct {
	runner Runner
	logger *log.Logger
}

func NewAttributor(runner Runner, logger *log.Logger) *Attributor {
	return &Attributor{runner: runner, logger: logger}
}

// Contributors runs one blame query and parses it. Every failure, whether
// from git or from parsing, is returned as an error and never mixed into the
// contributor list.
func (a *Attributor) Contributors(ctx context.Context, path string, startLine, endLine int) ([]models.Contributor, error) {
	if startLine < 1 || endLine < startLine {
		return nil, fmt.Errorf("invalid line range %d-%d", startLine, endLine)
	}

	output, err := a.runner.Blame(ctx, path, startLine, endLine)
	if err != nil {
		return nil, fmt.Errorf("%s:%d-%d: %w", path, startLine, endLine, err)
	}

	result, err := Parse(output)
	if err != nil {
		return nil, fmt.Errorf("%s:%d-%d: %w", path, startLine, endLine, err)
	}

	for _, w := range result.Warnings {
		a.logger.Warn("ambiguous blame header", "file", path, "detail", w)
	}
	return result.Contributors, nil
}
