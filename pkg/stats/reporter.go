package stats

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"go-blur-bench/pkg/common"
)

// Throughput is 1000*ItemCount/elapsedMs using integer division. A run that
// took less than a millisecond is counted as one millisecond.
func Throughput(m common.RunMetrics) int64 {
	return throughput(int64(m.ItemCount), m.ElapsedMs())
}

func throughput(items, elapsedMs int64) int64 {
	if elapsedMs <= 0 {
		elapsedMs = 1
	}
	return 1000 * items / elapsedMs
}

// Reporter prints the benchmark console lines. It is safe for concurrent use.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	banner *color.Color
	warn   *color.Color
}

func NewReporter(out io.Writer) *Reporter {
	r := &Reporter{
		out:    out,
		banner: color.New(color.FgCyan, color.Bold),
		warn:   color.New(color.FgYellow),
	}
	if !isTerminal(out) {
		r.banner.DisableColor()
		r.warn.DisableColor()
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Strategy announces the strategy about to run.
func (r *Reporter) Strategy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banner.Fprintln(r.out, name)
}

// InvalidMode reports an unknown mode code.
func (r *Reporter) InvalidMode(mode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warn.Fprintf(r.out, "Default. Invalid test case (mode %d)\n", mode)
}

// HalfFinished prints the completion line of one priority split half.
func (r *Reporter) HalfFinished(priority common.Priority, items int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Processing with priority: %d finished. [%d images] [%d ms] \n",
		int(priority), items, elapsed.Milliseconds())
}

// Report prints the summary line.
func (r *Reporter) Report(m common.RunMetrics) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "Time [%d ms] / Images [ %d ] / AVG [%d images/sec] \n",
		m.ElapsedMs(), m.ItemCount, Throughput(m))
	if m.Failed > 0 {
		r.warn.Fprintf(r.out, "Failed [%d of %d images]\n", m.Failed, m.ItemCount)
	}
}
