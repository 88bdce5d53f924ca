package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dpolishuk/contribgraph/internal/attribution"
	"github.com/dpolishuk/contribgraph/internal/blame"
	"github.com/dpolishuk/contribgraph/internal/config"
	"github.com/dpolishuk/contribgraph/internal/db"
	"github.com/dpolishuk/contribgraph/internal/git"
	"github.com/dpolishuk/contribgraph/internal/logging"
	"github.com/dpolishuk/contribgraph/internal/models"
	"github.com/dpolishuk/contribgraph/internal/visualization"
	"github.com/google/uuid"
)

var (
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AA66"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func runGenerate(ctx context.Context, cfg *config.Config, inputPath string, stdout, stderr io.Writer) error {
	logger := logging.New(stderr, cfg.Debug)

	gitSvc := newGitService(ctx, cfg, logger)
	pipeline := attribution.NewPipeline(blame.NewAttributor(gitSvc, logger), logger)

	stats, err := pipeline.Run(ctx, inputPath, cfg.ContributorsPath())
	if err != nil {
		return err
	}
	logger.Info("attribution finished",
		"records", stats.Total, "attributed", stats.Attributed,
		"failed", stats.Failed, "skipped", stats.Skipped)
	fmt.Fprintln(stdout, doneStyle.Render("Attribution complete;"),
		labelStyle.Render("output in"), cfg.ContributorsPath())

	// The page is built from the file just written, not from memory.
	entities, err := attribution.LoadEntities(cfg.ContributorsPath())
	if err != nil {
		return err
	}

	opts := visualization.Options{VisNetworkURL: cfg.VisNetworkURL}
	if err := visualization.WriteFile(cfg.VisualizationPath(), entities, opts); err != nil {
		return err
	}
	fmt.Fprintln(stdout, doneStyle.Render("Interactive visualization saved to"), cfg.VisualizationPath())
	fmt.Fprintln(stdout, labelStyle.Render("Open it in a web browser to view and interact with the graph."))

	if cfg.ExportEnabled() {
		if err := exportGraph(ctx, cfg, entities, logger); err != nil {
			return err
		}
	}
	return nil
}

// newGitService resolves the working tree root so entity paths are
// interpreted relative to it. Outside a repository the configured path is
// kept and each blame query reports its own error.
func newGitService(ctx context.Context, cfg *config.Config, logger *log.Logger) *git.GitService {
	root := cfg.RepoPath
	if top, err := git.TopLevel(ctx, cfg.RepoPath); err != nil {
		logger.Warn("not a git repository, attribution will fail per record", "path", cfg.RepoPath, "error", err)
	} else {
		root = top
	}

	svc := git.NewGitService(root, cfg.LinePorcelain())
	if commit, err := svc.GetCurrentCommit(ctx); err == nil {
		logger.Debug("blaming working tree", "root", svc.RepoRoot(), "head", commit, "format", cfg.BlameFormat)
	}
	return svc
}

func exportGraph(ctx context.Context, cfg *config.Config, entities []*models.Entity, logger *log.Logger) error {
	client, err := db.NewNeo4jClient(ctx, db.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPass,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.EnsureConstraints(ctx); err != nil {
		return err
	}

	runID := uuid.New().String()
	writer := db.NewGraphWriter(client)
	if err := writer.WriteEntities(ctx, runID, entities); err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}

	summary, err := writer.Summary(ctx)
	if err != nil {
		return fmt.Errorf("failed to read back exported graph: %w", err)
	}
	logger.Info("graph exported", "run", runID, "uri", cfg.Neo4jURI, "database", client.Database(),
		"entities", summary.Entities, "references", summary.References,
		"contributors", summary.Contributors)
	return nil
}
