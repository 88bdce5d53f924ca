package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(NewViper())

	assert.Equal(t, ".", cfg.RepoPath)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, BlameFormatPorcelain, cfg.BlameFormat)
	assert.Equal(t, DefaultVisNetworkURL, cfg.VisNetworkURL)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "neo4j", cfg.Neo4jDatabase)
	assert.False(t, cfg.ExportEnabled())
	assert.False(t, cfg.LinePorcelain())
	assert.Equal(t, ContributorsFile, cfg.ContributorsPath())
	assert.Equal(t, VisualizationFile, cfg.VisualizationPath())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CONTRIBGRAPH_REPO", "/src/project")
	t.Setenv("CONTRIBGRAPH_OUT", "/tmp/out")
	t.Setenv("CONTRIBGRAPH_BLAME_FORMAT", BlameFormatLinePorcelain)
	t.Setenv("CONTRIBGRAPH_NEO4J_URI", "bolt://localhost:7687")
	t.Setenv("CONTRIBGRAPH_DEBUG", "true")

	cfg := Load(NewViper())

	assert.Equal(t, "/src/project", cfg.RepoPath)
	assert.Equal(t, filepath.Join("/tmp/out", ContributorsFile), cfg.ContributorsPath())
	assert.True(t, cfg.LinePorcelain())
	assert.True(t, cfg.ExportEnabled())
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	cfg := Load(NewViper())
	cfg.BlameFormat = "incremental"
	assert.Error(t, cfg.Validate())

	cfg = Load(NewViper())
	cfg.VisNetworkURL = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONTRIBGRAPH_PORT=4100\nCONTRIBGRAPH_OUT=/from/dotenv\n"), 0644))

	t.Setenv("CONTRIBGRAPH_OUT", "/from/env")
	t.Cleanup(func() { os.Unsetenv("CONTRIBGRAPH_PORT") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))

	cfg := Load(NewViper())
	assert.Equal(t, "4100", cfg.Port)
	assert.Equal(t, "/from/env", cfg.OutputDir, "existing variables win")
}
