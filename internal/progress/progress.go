// Package progress prints fetch-round progress to the terminal while a
// run is in flight.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"drivetime/internal/core"
)

// Progress implements core.Reporter: it counts task completions as the
// orchestrator reports them and periodically redraws a status line.
type Progress struct {
	total     int
	done      atomic.Int64
	failed    atomic.Int64
	round     atomic.Int64
	startTime time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	clock     core.Clock
	mu        sync.Mutex
}

// NewProgress creates a Progress for a run of total tasks.
func NewProgress(total int, quiet bool) *Progress {
	return NewProgressWithClock(total, quiet, core.RealClock{})
}

// NewProgressWithClock creates a Progress with a custom clock (for testing).
func NewProgressWithClock(total int, quiet bool, clock core.Clock) *Progress {
	return &Progress{
		total:  total,
		quiet:  quiet,
		output: os.Stderr,
		clock:  clock,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Report records one task completion. Safe for concurrent use.
// Retryable failures are not counted as failed: the task is still
// pending and may succeed in a later round, so only permanent
// failures move the failed counter.
func (p *Progress) Report(e core.Event) {
	switch {
	case e.Success:
		p.done.Add(1)
	case !e.Retry:
		p.failed.Add(1)
	}
	r := int64(e.Round)
	for {
		cur := p.round.Load()
		if r <= cur || p.round.CompareAndSwap(cur, r) {
			break
		}
	}
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = p.clock.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(500 * time.Millisecond)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printStatus()
		}
	}
}

func (p *Progress) printStatus() {
	elapsed := p.clock.Since(p.startTime).Round(time.Second)
	done := p.done.Load()
	failed := p.failed.Load()
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K[%s] round %d: %d/%d fetched, %d failed\r",
		elapsed, p.round.Load(), done, int64(p.total), failed)
	p.mu.Unlock()
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
