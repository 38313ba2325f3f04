package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/mvp-joe/fieldgraph/internal/graph"
	"github.com/spf13/cobra"
)

var (
	buildTables []string
	buildFormat string
	buildQuiet  bool
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and print the field dependency graph",
	Long: `Build loads the field definitions of the selected tables, derives the
dependency edges of link, lookup, rollup and conditional fields, merges them
with the recorded formula references and prints the result.

Fields whose stored configuration cannot be parsed are skipped and listed as
diagnostics; they never stop the build.

Examples:
  # Build every table
  fieldgraph build

  # Build the order tables only, as JSON
  fieldgraph build --table 'tblOrder*' --format json
`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringSliceVarP(&buildTables, "table", "t", nil, "table id glob patterns (default from graph.tables)")
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "text", "output format: text or json")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "disable the progress bar")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if buildFormat != "text" && buildFormat != "json" {
		return fmt.Errorf("unknown format %q (valid: text, json)", buildFormat)
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	db, err := env.openReadOnly()
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := env.newParseCache()
	if err != nil {
		return err
	}
	opts := []graph.BuilderOption{
		graph.WithProgress(NewCLIProgressReporter(os.Stderr, buildQuiet || buildFormat == "json")),
	}
	if cache != nil {
		defer cache.Close()
		opts = append(opts, graph.WithParseCache(cache))
	}

	data, err := env.buildGraph(cmd.Context(), db, buildTables, opts...)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}

	if buildFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	return printGraph(cmd.OutOrStdout(), data)
}

// printGraph writes the edges and diagnostics as aligned columns.
func printGraph(out io.Writer, data *graph.GraphData) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tTO\tKIND\tLINK\tSEMANTIC")
	for _, e := range data.Edges {
		link := e.LinkFieldID
		if link == "" {
			link = "-"
		}
		fmt.Fprintf(tw, "%s.%s\t%s.%s\t%s\t%s\t%s\n",
			e.FromTableID, e.FromFieldID, e.ToTableID, e.ToFieldID, e.Kind, link, e.Semantic)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d fields, %d edges\n", len(data.FieldsByID), len(data.Edges))
	if len(data.Diagnostics) > 0 {
		fmt.Fprintf(out, "\n%d fields skipped:\n", len(data.Diagnostics))
		for _, d := range data.Diagnostics {
			fmt.Fprintf(out, "  %s.%s (%s): %s\n", d.TableID, d.FieldID, d.Type, d.Message)
		}
	}
	return nil
}
