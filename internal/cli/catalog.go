package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/catalog"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	RecipesFor string // list recipes producing this material
}

// CatalogSummary is the JSON payload of the catalog command.
type CatalogSummary struct {
	Dir          string           `json:"dir,omitempty"` // empty for the built-in catalog
	Digest       string           `json:"digest"`
	Recipes      []string         `json:"recipes"`
	PowerRecipes []string         `json:"power_recipes"`
	RawResources []string         `json:"raw_resources"`
	Matches      []catalog.Recipe `json:"matches,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load, validate and list the recipe catalog",
		Long: `Load the configured catalog (or the built-in one), check it against the
catalog schema and rules, and list its recipes, power recipes and raw
resources.

Exit codes:
  0 - Catalog valid
  2 - Catalog missing, malformed or breaking a catalog rule

Examples:
  factoryplan catalog
  factoryplan catalog --catalog ./catalog
  factoryplan catalog --recipes-for iron-ingot`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RecipesFor, "recipes-for", "", "list recipes whose primary product is this material")

	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	dir := opts.config().Catalog.Dir

	cat, err := LoadCatalog(dir)
	if err != nil {
		return reportLoadError(formatter, err)
	}

	summary := CatalogSummary{
		Dir:          dir,
		Digest:       cat.Digest,
		Recipes:      cat.RecipeIDs(),
		PowerRecipes: cat.PowerRecipeIDs(),
		RawResources: cat.RawResourceIDs(),
	}
	if opts.RecipesFor != "" {
		summary.Matches = cat.RecipesFor(opts.RecipesFor)
		if len(summary.Matches) == 0 && !cat.IsRaw(opts.RecipesFor) {
			msg := fmt.Sprintf("no recipe produces %s", opts.RecipesFor)
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, msg, nil, nil)
		}
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	if opts.RecipesFor != "" {
		if cat.IsRaw(opts.RecipesFor) {
			fmt.Fprintf(w, "%s is a raw resource\n", opts.RecipesFor)
		}
		for _, r := range summary.Matches {
			fmt.Fprintf(w, "%s  %s  (%s)\n", r.ID, r.Name, r.Building.Name)
		}
		return nil
	}

	source := dir
	if source == "" {
		source = "built-in"
	}
	fmt.Fprintf(w, "✓ Catalog valid (%s)\n", source)
	fmt.Fprintf(w, "digest %s\n", cat.Digest)
	fmt.Fprintf(w, "recipes (%d): %s\n", len(summary.Recipes), strings.Join(summary.Recipes, ", "))
	fmt.Fprintf(w, "power recipes (%d): %s\n", len(summary.PowerRecipes), strings.Join(summary.PowerRecipes, ", "))
	fmt.Fprintf(w, "raw resources (%d): %s\n", len(summary.RawResources), strings.Join(summary.RawResources, ", "))
	return nil
}
