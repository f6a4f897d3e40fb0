package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/factoryplan/internal/engine"
	"github.com/roach88/factoryplan/internal/ir"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Dot bool // emit Graphviz DOT
}

// GraphEdge is one import: From supplies Material to To.
type GraphEdge struct {
	From     int     `json:"from"`
	FromName string  `json:"from_name"`
	To       int     `json:"to"`
	ToName   string  `json:"to_name"`
	Material string  `json:"material"`
	Amount   float64 `json:"amount"`
}

// GraphResult is the JSON payload of the graph command.
type GraphResult struct {
	Edges  []GraphEdge           `json:"edges"`
	Cycles []engine.CycleWarning `json:"cycles"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <plan.json>",
		Short: "Print the import graph and circular supply warnings",
		Long: `Recompute a plan and print one edge per import, supplier first.

Factories that supply each other in a loop are reported as warnings.
Loops are legal and do not change the exit code.

Examples:
  factoryplan graph plan.json
  factoryplan graph plan.json --dot | dot -Tsvg > plan.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dot, "dot", false, "output Graphviz DOT")

	return cmd
}

func runGraph(opts *GraphOptions, planPath string, cmd *cobra.Command) error {
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
	formatter.VerboseLog("Pruned %d import(s)", len(pruned))

	result := GraphResult{
		Edges:  graphEdges(snap.Plan),
		Cycles: engine.AnalyzeCycles(snap.Plan),
	}

	switch {
	case opts.Format == "json":
		return formatter.Success(result)
	case opts.Dot:
		writeDot(formatter.Writer, snap.Plan, result.Edges)
	default:
		for _, e := range result.Edges {
			fmt.Fprintf(formatter.Writer, "%s (%d) -> %s (%d): %s %.3f\n",
				e.FromName, e.From, e.ToName, e.To, e.Material, e.Amount)
		}
	}
	for _, c := range result.Cycles {
		fmt.Fprintf(formatter.Diag(), "%s: %s\n", c.Level, c.Message)
	}
	return nil
}

// graphEdges lists every import whose supplier exists, ordered by
// supplier, consumer, then material.
func graphEdges(plan *ir.Plan) []GraphEdge {
	edges := []GraphEdge{}
	for _, f := range plan.Factories {
		for _, in := range f.Inputs {
			supplier, ok := plan.Factory(in.FactoryID)
			if !ok {
				continue
			}
			edges = append(edges, GraphEdge{
				From:     supplier.ID,
				FromName: supplier.Name,
				To:       f.ID,
				ToName:   f.Name,
				Material: in.Material,
				Amount:   in.Amount,
			})
		}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Material < edges[j].Material
	})
	return edges
}

func writeDot(w io.Writer, plan *ir.Plan, edges []GraphEdge) {
	fmt.Fprintln(w, "digraph plan {")
	for _, f := range plan.Factories {
		attrs := ""
		if f.HasProblem {
			attrs = ", color=red"
		}
		fmt.Fprintf(w, "  f%d [label=%q%s];\n", f.ID, f.Name, attrs)
	}
	for _, e := range edges {
		fmt.Fprintf(w, "  f%d -> f%d [label=%q];\n", e.From, e.To, fmt.Sprintf("%s %.3f", e.Material, e.Amount))
	}
	fmt.Fprintln(w, "}")
}
