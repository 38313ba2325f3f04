package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// CLIProgressReporter implements graph.GraphProgressReporter with a progress bar.
type CLIProgressReporter struct {
	quiet    bool
	showBar  bool
	out      io.Writer
	graphBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter writing to out.
// The bar is only drawn when out is a terminal.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:   quiet,
		showBar: !quiet && isTerminal(out),
		out:     out,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (c *CLIProgressReporter) OnGraphBuildingStart(totalFields int) {
	if !c.showBar {
		return
	}
	c.graphBar = progressbar.NewOptions(totalFields,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Analyzing fields"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("fields/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnGraphFieldProcessed(processedFields, totalFields int, fieldID string) {
	if c.graphBar == nil {
		return
	}
	c.graphBar.Add(1)
}

func (c *CLIProgressReporter) OnGraphBuildingComplete(fieldCount, edgeCount int, duration time.Duration) {
	if c.quiet {
		return
	}
	if c.graphBar != nil {
		c.graphBar.Finish()
	}
	log.Printf("Built dependency graph: %d fields, %d edges in %v", fieldCount, edgeCount, duration.Round(time.Millisecond))
}
