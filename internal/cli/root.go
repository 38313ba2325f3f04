package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	rootDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fieldgraph",
	Short: "Field dependency graph for computed table fields",
	Long: `fieldgraph reads field definitions (formula, link, lookup, rollup and
conditional fields) from a SQLite database and derives the dependency edges a
recomputation engine needs: which fields must be recomputed when a field
changes, and whether that requires crossing to linked records.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.fieldgraph/config.yml)")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "project root directory (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
