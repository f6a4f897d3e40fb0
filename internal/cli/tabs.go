package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
	"github.com/roach88/factoryplan/internal/store"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Name string
	ID   string // replace an existing tab
}

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Output string
}

// TabResult is the JSON payload of save and load.
type TabResult struct {
	ID     string                `json:"id"`
	Name   string                `json:"name"`
	Digest string                `json:"digest"`
	Pruned []engine.PrunedImport `json:"pruned,omitempty"`
	Plan   *ir.Plan              `json:"plan,omitempty"`
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <plan.json>",
		Short: "Recompute a plan and store it as a named tab",
		Long: `Recompute a plan file and save the result in the tab database.

The tab name defaults to the file name without extension. Passing --id
replaces that tab and moves it to the end of the listing.

Examples:
  factoryplan save plan.json --name "iron line"
  factoryplan save plan.json --id 0192a0c4-... --db tabs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "tab name (default: file name)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "tab id to replace")

	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <tab-id|name>",
		Short: "Reopen a saved tab",
		Long: `Load a tab by id, or by name when no tab has that id, and recompute it
the way a reopened tab is recomputed (cold start by default).

Examples:
  factoryplan load "iron line"
  factoryplan load 0192a0c4-... -o plan.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the recomputed plan JSON to this file")

	return cmd
}

// NewTabsCommand creates the tabs command.
func NewTabsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tabs",
		Short:         "List saved tabs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTabsList(rootOpts, cmd)
		},
	}

	rm := &cobra.Command{
		Use:           "rm <tab-id>",
		Short:         "Delete a saved tab",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTabsRemove(rootOpts, args[0], cmd)
		},
	}
	cmd.AddCommand(rm)

	return cmd
}

func runSave(opts *SaveOptions, planPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	cat, err := LoadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	plan, err := ReadPlan(planPath)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	snap, pruned, err := recomputePlan(cat, plan, cfg.Engine.ColdStartOnLoad)
	if err != nil {
		return reportEngineError(formatter, err)
	}

	name := opts.Name
	if name == "" {
		base := filepath.Base(planPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	st, err := OpenStore(cfg.Store.Path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()

	saved, err := st.Save(cmdContext(cmd), ir.Tab{ID: opts.ID, Name: name, Plan: snap.Plan})
	if err != nil {
		return reportStoreError(formatter, err)
	}
	formatter.VerboseLog("Saved %d factory(ies) to %s", len(snap.Plan.Factories), cfg.Store.Path)

	result := TabResult{ID: saved.ID, Name: saved.Name, Digest: saved.Digest, Pruned: pruned}
	if opts.Format == "json" {
		return formatter.SuccessPlan(result, saved.Digest)
	}
	writePruned(formatter.Writer, pruned)
	fmt.Fprintf(formatter.Writer, "✓ Saved tab %q (%s)\n", saved.Name, saved.ID)
	return nil
}

func runLoad(opts *LoadOptions, ref string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	cat, err := LoadCatalog(cfg.Catalog.Dir)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	st, err := OpenStore(cfg.Store.Path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()

	ctx := cmdContext(cmd)
	tab, err := st.Load(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		tab, err = st.FindByName(ctx, ref)
	}
	if err != nil {
		return reportStoreError(formatter, err)
	}

	snap, pruned, err := recomputePlan(cat, tab.Plan, cfg.Engine.ColdStartOnLoad)
	if err != nil {
		return reportEngineError(formatter, err)
	}

	if opts.Output != "" {
		if err := writePlanFile(opts.Output, snap.Plan); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil, err)
		}
	}

	if opts.Format == "json" {
		return formatter.SuccessPlan(TabResult{
			ID:     tab.ID,
			Name:   tab.Name,
			Digest: snap.Digest,
			Pruned: pruned,
			Plan:   snap.Plan,
		}, snap.Digest)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "tab %q (%s)\n\n", tab.Name, tab.ID)
	writePruned(w, pruned)
	engine.WriteReport(w, snap.Plan)
	return nil
}

func runTabsList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := OpenStore(opts.config().Store.Path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()

	tabs, err := st.List(cmdContext(cmd))
	if err != nil {
		return reportStoreError(formatter, err)
	}
	if tabs == nil {
		tabs = []store.TabSummary{}
	}

	if opts.Format == "json" {
		return formatter.Success(tabs)
	}
	if len(tabs) == 0 {
		fmt.Fprintln(formatter.Writer, "No saved tabs.")
		return nil
	}
	for _, t := range tabs {
		fmt.Fprintf(formatter.Writer, "%s  %-24s  %d factory(ies)  %s\n", t.ID, t.Name, t.FactoryCount, shortDigest(t.Digest))
	}
	return nil
}

func runTabsRemove(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := OpenStore(opts.config().Store.Path)
	if err != nil {
		return reportLoadError(formatter, err)
	}
	defer st.Close()

	if err := st.Delete(cmdContext(cmd), id); err != nil {
		return reportStoreError(formatter, err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted tab %s\n", id)
	return nil
}

// reportStoreError maps store sentinel errors to CLI codes.
func reportStoreError(formatter *OutputFormatter, err error) error {
	code := ErrCodeStore
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, store.ErrDigestMismatch):
		code = ErrCodeDigestMismatch
	case errors.Is(err, store.ErrInvalidPayload):
		code = ErrCodeInvalidPlan
	}
	return formatter.Fail(ExitCommandError, code, err.Error(), nil, err)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
