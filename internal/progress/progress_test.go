package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"drivetime/internal/core"
)

func TestProgress_CountsEvents(t *testing.T) {
	p := NewProgress(8, true)

	p.Report(core.Event{Round: 1, Success: true})
	p.Report(core.Event{Round: 1, Success: true})
	p.Report(core.Event{Round: 1, Success: false, Retry: false})
	p.Report(core.Event{Round: 2, Success: false, Retry: true})

	if got := p.done.Load(); got != 2 {
		t.Errorf("done = %d, want 2", got)
	}
	if got := p.failed.Load(); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
	if got := p.round.Load(); got != 2 {
		t.Errorf("round = %d, want 2", got)
	}
}

func TestProgress_RetriedTaskCountsOnce(t *testing.T) {
	p := NewProgress(4, true)

	// One task fails retryably in round 1 and succeeds in round 2;
	// it must not show up as both failed and fetched.
	p.Report(core.Event{Round: 1, Success: false, Retry: true})
	p.Report(core.Event{Round: 2, Success: true})

	if got := p.done.Load(); got != 1 {
		t.Errorf("done = %d, want 1", got)
	}
	if got := p.failed.Load(); got != 0 {
		t.Errorf("failed = %d, want 0", got)
	}
}

func TestProgress_StatusLine(t *testing.T) {
	clock := core.NewFakeClock(time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	p := NewProgressWithClock(8, false, clock)
	p.SetOutput(&buf)
	p.startTime = clock.Now()
	clock.Advance(3 * time.Second)

	p.Report(core.Event{Round: 1, Success: true})
	p.printStatus()

	out := buf.String()
	if !strings.Contains(out, "[3s]") {
		t.Errorf("status missing elapsed time: %q", out)
	}
	if !strings.Contains(out, "round 1") {
		t.Errorf("status missing round: %q", out)
	}
	if !strings.Contains(out, "1/8 fetched") {
		t.Errorf("status missing counts: %q", out)
	}
}

func TestProgress_QuietMode(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(4, true)
	p.SetOutput(&buf)

	p.Start()
	p.Printf("round %d", 1)
	time.Sleep(10 * time.Millisecond)
	p.Stop()

	if buf.Len() != 0 {
		t.Errorf("quiet mode wrote output: %q", buf.String())
	}
}

func TestProgress_DoubleStop(t *testing.T) {
	p := NewProgress(4, false)
	p.SetOutput(&bytes.Buffer{})
	p.Start()
	p.Stop()
	p.Stop() // must not panic or close twice
}

func TestProgress_StopWithoutStart(t *testing.T) {
	p := NewProgress(4, false)
	p.SetOutput(&bytes.Buffer{})
	p.Stop()
}

func TestProgress_Printf(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(4, false)
	p.SetOutput(&buf)

	p.Printf("retry round %d: retrying %d failed queries", 2, 3)

	out := buf.String()
	if !strings.Contains(out, "\033[K") {
		t.Error("expected line-clear escape before message")
	}
	if !strings.Contains(out, "retry round 2: retrying 3 failed queries\n") {
		t.Errorf("unexpected output: %q", out)
	}
}
