package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	"github.com/matzehuels/nodeflow/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Before any subcommand runs, the configuration is loaded from --config (or
// the default location) and the logger level is set from it:
//   - Default: the configured log.level, "info" unless set
//   - With --verbose (-v): debug level
//
// The logger is attached to the command context and reachable from every
// command via loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Nodeflow evaluates dataflow graph documents",
		Long: `Nodeflow is a CLI for working with node-based dataflow graphs.

It validates and normalizes graph documents, evaluates output sockets with
a persistent result cache, renders graphs as DOT or SVG, and keeps
documents in a local or MongoDB-backed store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nodeflow/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.normalizeCommand())
	root.AddCommand(c.hashCommand())
	root.AddCommand(c.topoCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and prepares the logger.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level, _ := cfg.Log.ParsedLevel()
	if c.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// Execute runs the command tree with ctx.
//
// Example:
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
func (c *CLI) Execute(ctx context.Context) error {
	return c.RootCommand().ExecuteContext(ctx)
}
