package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvp-joe/fieldgraph/internal/field"
	"github.com/mvp-joe/fieldgraph/internal/graph"
	"github.com/mvp-joe/fieldgraph/internal/watcher"
	"github.com/spf13/cobra"
)

var watchTables []string

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the dependency graph whenever the field database changes",
	Long: `Watch builds the graph once, then rebuilds it each time the field
database is written, printing a one-line summary and any skipped fields.

Parsed field options are cached across rebuilds, so only fields whose stored
configuration changed are parsed again. Press Ctrl+C to stop.
`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringSliceVarP(&watchTables, "table", "t", nil, "table id glob patterns (default from graph.tables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := env.newParseCache()
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	w, err := watcher.NewDBWatcher(env.dbPath, time.Duration(env.cfg.Watch.DebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}
	defer w.Stop()

	changes := make(chan struct{}, 1)
	notify := func(files []string) {
		if verbose {
			log.Printf("Database changed: %v", files)
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	if err := w.Start(ctx, notify); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r := &rebuilder{env: env, cache: cache, patterns: watchTables, out: out}
	r.run(ctx)

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", env.dbPath)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Stopped watching")
			return nil
		case <-changes:
			w.Pause()
			r.run(ctx)
			w.Resume()
		}
	}
}

// rebuilder rebuilds the graph and reports the outcome. A failed rebuild is
// logged and watching continues.
type rebuilder struct {
	env      *environment
	cache    *field.ParseCache
	patterns []string
	out      io.Writer
}

func (r *rebuilder) run(ctx context.Context) {
	start := time.Now()
	data, err := r.build(ctx)
	if err != nil {
		log.Printf("Warning: rebuild failed: %s", field.DescribeError(err))
		return
	}

	fmt.Fprintf(r.out, "[%s] %d fields, %d edges, %d skipped (%v)\n",
		time.Now().Format("15:04:05"), len(data.FieldsByID), len(data.Edges), len(data.Diagnostics),
		time.Since(start).Round(time.Millisecond))
	for _, d := range data.Diagnostics {
		fmt.Fprintf(r.out, "  skipped %s.%s (%s): %s\n", d.TableID, d.FieldID, d.Type, d.Message)
	}
	if verbose && r.cache != nil {
		hits, misses := r.cache.Stats()
		log.Printf("Options cache: %d hits, %d misses", hits, misses)
	}
}

// build recovers from panics so one bad rebuild never ends the watch loop.
func (r *rebuilder) build(ctx context.Context) (data *graph.GraphData, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during rebuild: %s", field.DescribeError(p))
		}
	}()

	db, err := r.env.openReadOnly()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var opts []graph.BuilderOption
	if r.cache != nil {
		opts = append(opts, graph.WithParseCache(r.cache))
	}
	return r.env.buildGraph(ctx, db, r.patterns, opts...)
}
