package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dpolishuk/contribgraph/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const usageLine = "Usage: contribgraph <input.json>"

var errUsage = errors.New("wrong number of arguments")

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(stdout, usageLine)
		return 1
	case err != nil:
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	v := config.NewViper()

	root := &cobra.Command{
		Use:   "contribgraph <input.json>",
		Short: "Attribute code entities to their git contributors and draw the dependency graph",
		Long: `contribgraph reads a JSON array of code-entity records, runs git blame over
each record's line range, writes the enriched records to contributors.json and
renders them as an interactive graph in visualization.html.

An input file whose name matches a subcommand must be given with a path,
for example ./serve.

A .env file in the working directory is read before the command runs;
variables already set in the environment take precedence.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		// Runs after the argument check, so a usage error touches no files.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, args[0], stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.DisableDefaultCmd = true
	// "help" as the only argument is a usage error like any other count
	// mismatch; --help still prints the full help.
	root.SetHelpCommand(&cobra.Command{
		Use:    "help",
		Hidden: true,
		Args: func(cmd *cobra.Command, args []string) error {
			return errUsage
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errUsage
		},
	})

	flags := root.PersistentFlags()
	flags.String(config.KeyRepo, ".", "git repository root the entity file paths are relative to")
	flags.String(config.KeyOut, ".", "directory for contributors.json and visualization.html")
	flags.Bool(config.KeyDebug, false, "enable debug logging")
	bindFlags(v, root.PersistentFlags(), config.KeyRepo, config.KeyOut, config.KeyDebug)

	local := root.Flags()
	local.String(config.KeyBlameFormat, config.BlameFormatPorcelain, "blame output format: porcelain or line-porcelain")
	local.String(config.KeyVisURL, config.DefaultVisNetworkURL, "vis-network script URL embedded in the page")
	local.String(config.KeyNeo4jURI, "", "export the enriched graph to this Neo4j instance")
	local.String(config.KeyNeo4jUser, "neo4j", "Neo4j user")
	local.String(config.KeyNeo4jPassword, "", "Neo4j password")
	local.String(config.KeyNeo4jDatabase, "neo4j", "Neo4j database name")
	bindFlags(v, local, config.KeyBlameFormat, config.KeyVisURL,
		config.KeyNeo4jURI, config.KeyNeo4jUser, config.KeyNeo4jPassword, config.KeyNeo4jDatabase)

	root.AddCommand(newServeCommand(v, stderr))
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		// only fails for a nil flag, which would be a programming error
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
}
