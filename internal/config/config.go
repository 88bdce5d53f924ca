package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ContributorsFile  = "contributors.json"
	VisualizationFile = "visualization.html"

	BlameFormatPorcelain     = "porcelain"
	BlameFormatLinePorcelain = "line-porcelain"

	DefaultVisNetworkURL = "https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"
)

// Keys shared by flags and CONTRIBGRAPH_* environment variables.
const (
	KeyRepo          = "repo"
	KeyOut           = "out"
	KeyBlameFormat   = "blame-format"
	KeyVisURL        = "vis-url"
	KeyNeo4jURI      = "neo4j-uri"
	KeyNeo4jUser     = "neo4j-user"
	KeyNeo4jPassword = "neo4j-password"
	KeyNeo4jDatabase = "neo4j-database"
	KeyPort          = "port"
	KeyDebug         = "debug"
)

type Config struct {
	RepoPath      string
	OutputDir     string
	BlameFormat   string
	VisNetworkURL string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPass     string
	Neo4jDatabase string
	Port          string
	Debug         bool
}

// LoadDotEnv copies KEY=value pairs from the given files into the process
// environment. Variables that are already set are left alone and missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CONTRIBGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyRepo, ".")
	v.SetDefault(KeyOut, ".")
	v.SetDefault(KeyBlameFormat, BlameFormatPorcelain)
	v.SetDefault(KeyVisURL, DefaultVisNetworkURL)
	v.SetDefault(KeyNeo4jURI, "")
	v.SetDefault(KeyNeo4jUser, "neo4j")
	v.SetDefault(KeyNeo4jPassword, "")
	v.SetDefault(KeyNeo4jDatabase, "neo4j")
	v.SetDefault(KeyPort, "3001")
	v.SetDefault(KeyDebug, false)
	return v
}

func Load(v *viper.Viper) *Config {
	return &Config{
		RepoPath:      v.GetString(KeyRepo),
		OutputDir:     v.GetString(KeyOut),
		BlameFormat:   v.GetString(KeyBlameFormat),
		VisNetworkURL: v.GetString(KeyVisURL),
		Neo4jURI:      v.GetString(KeyNeo4jURI),
		Neo4jUser:     v.GetString(KeyNeo4jUser),
		Neo4jPass:     v.GetString(KeyNeo4jPassword),
		Neo4jDatabase: v.GetString(KeyNeo4jDatabase),
		Port:          v.GetString(KeyPort),
		Debug:         v.GetBool(KeyDebug),
	}
}

func (c *Config) Validate() error {
	switch c.BlameFormat {
	case BlameFormatPorcelain, BlameFormatLinePorcelain:
	default:
		return fmt.Errorf("invalid blame format %q: must be %q or %q",
			c.BlameFormat, BlameFormatPorcelain, BlameFormatLinePorcelain)
	}
	if c.VisNetworkURL == "" {
		return fmt.Errorf("vis-network script URL must not be empty")
	}
	return nil
}

func (c *Config) LinePorcelain() bool {
	return c.BlameFormat == BlameFormatLinePorcelain
}

func (c *Config) ContributorsPath() string {
	return filepath.Join(c.OutputDir, ContributorsFile)
}

func (c *Config) VisualizationPath() string {
	return filepath.Join(c.OutputDir, VisualizationFile)
}

// ExportEnabled reports whether the Neo4j export stage should run.
func (c *Config) ExportEnabled() bool {
	return c.Neo4jURI != ""
}
