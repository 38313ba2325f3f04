package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/mvp-joe/fieldgraph/internal/graph"
	"github.com/spf13/cobra"
)

var (
	impactTables  []string
	impactDepth   int
	impactReverse bool
	impactJSON    bool
)

// impactCmd represents the impact command
var impactCmd = &cobra.Command{
	Use:   "impact <fieldId>",
	Short: "List the fields affected by a change to a field",
	Long: `Impact builds the dependency graph and walks it from the given field.

By default it lists every field that must be recomputed when the field changes,
nearest first. With --reverse it lists the fields the given field is computed
from instead.

Examples:
  fieldgraph impact fldPrice
  fieldgraph impact fldTotal --reverse --depth 1
`,
	Args: cobra.ExactArgs(1),
	RunE: runImpact,
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().StringSliceVarP(&impactTables, "table", "t", nil, "table id glob patterns (default from graph.tables)")
	impactCmd.Flags().IntVarP(&impactDepth, "depth", "d", -1, "maximum traversal depth, 0 for unbounded (default from graph.impact_depth)")
	impactCmd.Flags().BoolVarP(&impactReverse, "reverse", "r", false, "list dependencies instead of dependents")
	impactCmd.Flags().BoolVar(&impactJSON, "json", false, "print results as JSON")
}

func runImpact(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	db, err := env.openReadOnly()
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := env.buildGraph(cmd.Context(), db, impactTables)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	idx, err := graph.NewIndex(data)
	if err != nil {
		return fmt.Errorf("failed to index graph: %w", err)
	}

	depth := impactDepth
	if depth < 0 {
		depth = env.cfg.Graph.ImpactDepth
	}
	dir := graph.DirectionDependents
	if impactReverse {
		dir = graph.DirectionDependencies
	}

	fieldID := args[0]
	results, err := idx.Query(fieldID, dir, depth)
	if errors.Is(err, graph.ErrFieldNotFound) {
		return fmt.Errorf("field %s is not part of the graph of the selected tables", fieldID)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if impactJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintf(out, "No %s for %s\n", dir, fieldID)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPTH\tFIELD\tTABLE\tTYPE\tVIA")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s->%s (%s)\n",
			r.Depth, r.FieldID, r.TableID, r.Type, r.Via.FromFieldID, r.Via.ToFieldID, r.Via.Kind)
	}
	return tw.Flush()
}
