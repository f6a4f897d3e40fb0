package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	CatalogDir string
	DBPath     string

	// Config is resolved in PersistentPreRunE. Commands built directly
	// (as in tests) fall back to config.Default().
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the factoryplan CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "factoryplan",
		Short: "factoryplan - factory network planner",
		Long: `Recompute, validate and store factory network plans.

A plan is a set of factories, each producing materials with selected
recipes and importing materials from other factories. Every edit
recomputes the whole network: parts, byproducts, power, buildings,
dependencies and exports.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolveConfig(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./factoryplan.yaml)")
	cmd.PersistentFlags().StringVar(&opts.CatalogDir, "catalog", "", "catalog directory (default built-in catalog)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "tab database path")

	// Add subcommands
	cmd.AddCommand(NewRecomputeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewSaveCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewTabsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolveConfig loads the layered config, applies flag overrides and
// installs the default slog logger on stderr.
func (o *RootOptions) resolveConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if cmd.Flags().Changed("catalog") {
		cfg.Catalog.Dir = o.CatalogDir
	}
	if cmd.Flags().Changed("db") {
		cfg.Store.Path = o.DBPath
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	slog.SetDefault(cfg.Logging.NewLogger(cmd.ErrOrStderr()))
	o.Config = cfg
	return nil
}

// config returns the resolved config, or defaults plus flag values when
// PersistentPreRunE did not run.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	cfg := config.Default()
	if o.CatalogDir != "" {
		cfg.Catalog.Dir = o.CatalogDir
	}
	if o.DBPath != "" {
		cfg.Store.Path = o.DBPath
	}
	return cfg
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
