// Package orchestrator schedules traffic-duration lookups across a
// bounded worker pool and re-schedules retryable failures in successive
// rounds at reduced concurrency.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"drivetime/internal/core"
)

// Defaults mirror the upstream-friendly first pass / gentler retry
// shape: a wide first round, then smaller pools for stragglers.
const (
	DefaultInitialConcurrency = 30
	DefaultConcurrencyDecay   = 0.5
	DefaultMinConcurrency     = 10
	DefaultMaxRounds          = 3
	DefaultPerCallTimeout     = 30 * time.Second
)

// ErrNoTasks indicates an empty task set; nothing was dispatched.
var ErrNoTasks = errors.New("no tasks to dispatch")

// Config tunes a run. The zero value picks the defaults above.
type Config struct {
	// InitialConcurrency is the worker count for round 1.
	InitialConcurrency int
	// ConcurrencyDecay scales the worker count between rounds; must be
	// in (0, 1]. Concurrency never increases across rounds.
	ConcurrencyDecay float64
	// MinConcurrency is the floor below which the pool never shrinks.
	MinConcurrency int
	// MaxRounds caps the number of dispatch rounds.
	MaxRounds int
	// PerCallTimeout bounds each individual fetch.
	PerCallTimeout time.Duration
	// RoundTimeout bounds a whole round; zero means no round deadline.
	// Tasks unresolved at the deadline count as timeouts for the next
	// round; in-flight calls drain in the background.
	RoundTimeout time.Duration
	// Reporter observes task completions; nil means no reporting.
	Reporter core.Reporter
}

func (c Config) withDefaults() Config {
	if c.InitialConcurrency <= 0 {
		c.InitialConcurrency = DefaultInitialConcurrency
	}
	if c.ConcurrencyDecay <= 0 || c.ConcurrencyDecay > 1 {
		c.ConcurrencyDecay = DefaultConcurrencyDecay
	}
	if c.MinConcurrency <= 0 {
		c.MinConcurrency = DefaultMinConcurrency
	}
	if c.MinConcurrency > c.InitialConcurrency {
		c.MinConcurrency = c.InitialConcurrency
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	if c.PerCallTimeout <= 0 {
		c.PerCallTimeout = DefaultPerCallTimeout
	}
	if c.Reporter == nil {
		c.Reporter = core.NullReporter
	}
	return c
}

// Outcome is the final result of a run. Results holds one entry per
// resolved task: a duration for successes, a classified error for
// permanent failures. Unresolved lists tasks still failing retryably
// when no rounds remained.
type Outcome struct {
	Results    map[core.TaskKey]core.Result
	Unresolved []core.Task
	RoundsUsed int
}

// Minutes returns the recorded duration for a task, if it succeeded.
func (o *Outcome) Minutes(task core.Task) (float64, bool) {
	res, ok := o.Results[task.Key()]
	if !ok || !res.OK() {
		return 0, false
	}
	return res.Minutes, true
}

// Failed returns the permanent failure recorded for a task, if any.
func (o *Outcome) Failed(task core.Task) (*core.FetchError, bool) {
	res, ok := o.Results[task.Key()]
	if !ok || res.OK() {
		return nil, false
	}
	return res.Err, true
}

// Complete reports whether every task resolved successfully.
func (o *Outcome) Complete() bool {
	if len(o.Unresolved) > 0 {
		return false
	}
	for _, res := range o.Results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// roundState is the orchestrator's per-round bookkeeping: which tasks
// are still unresolved entering the round and how wide the pool is.
type roundState struct {
	index       int
	concurrency int
	pending     []core.Task
}

// Orchestrator runs fetch tasks to completion across retry rounds.
// Stateless between runs; safe to reuse for independent task sets.
type Orchestrator struct {
	fetcher core.Fetcher
	cfg     Config
}

func New(fetcher core.Fetcher, cfg Config) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, cfg: cfg.withDefaults()}
}

// Run dispatches every task and returns once all have resolved, the
// maximum round count is reached, or a round makes no progress. Individual
// task failures never abort the run; only an empty task set does.
func (o *Orchestrator) Run(ctx context.Context, tasks []core.Task) (*Outcome, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	out := &Outcome{Results: make(map[core.TaskKey]core.Result, len(tasks))}
	state := roundState{index: 1, concurrency: o.cfg.InitialConcurrency, pending: tasks}

	for {
		retry := o.runRound(ctx, state, out)
		out.RoundsUsed = state.index

		if len(retry) == 0 {
			return out, nil
		}
		// Retry only when the round shrank the pending set; a round
		// that resolves nothing would spin forever otherwise.
		if state.index >= o.cfg.MaxRounds || len(retry) >= len(state.pending) {
			out.Unresolved = retry
			return out, nil
		}
		state = roundState{
			index:       state.index + 1,
			concurrency: o.nextConcurrency(state.concurrency),
			pending:     retry,
		}
	}
}

func (o *Orchestrator) nextConcurrency(current int) int {
	next := int(float64(current) * o.cfg.ConcurrencyDecay)
	if next < o.cfg.MinConcurrency {
		next = o.cfg.MinConcurrency
	}
	if next > current {
		next = current
	}
	return next
}

// runRound dispatches state.pending across a pool of state.concurrency
// workers, records successes and permanent failures into out as they
// resolve, and returns the retryable remainder for the next round.
func (o *Orchestrator) runRound(ctx context.Context, state roundState, out *Outcome) []core.Task {
	workers := state.concurrency
	if workers > len(state.pending) {
		workers = len(state.pending)
	}

	roundCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.RoundTimeout > 0 {
		roundCtx, cancel = context.WithTimeout(ctx, o.cfg.RoundTimeout)
		defer cancel()
	}

	taskCh := make(chan core.Task)
	// Buffered to the round size so workers never block on delivery;
	// stragglers past the round deadline drain here and are dropped.
	resultCh := make(chan core.Result, len(state.pending))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				resultCh <- o.fetchOne(roundCtx, task)
			}
		}()
	}
	go func() {
		for _, task := range state.pending {
			taskCh <- task
		}
		close(taskCh)
	}()

	var deadlineCh <-chan time.Time
	if o.cfg.RoundTimeout > 0 {
		timer := time.NewTimer(o.cfg.RoundTimeout)
		defer timer.Stop()
		deadlineCh = timer.C
	}

	resolved := make(map[core.TaskKey]bool, len(state.pending))
	var retry []core.Task

	record := func(res core.Result) {
		resolved[res.Task.Key()] = true
		switch {
		case res.OK():
			// A task already resolved as a success is never overwritten.
			if _, exists := out.Results[res.Task.Key()]; !exists {
				out.Results[res.Task.Key()] = res
			}
		case res.Err.Retryable():
			retry = append(retry, res.Task)
		default:
			out.Results[res.Task.Key()] = res
		}
		o.cfg.Reporter.Report(core.Event{
			Task:     res.Task,
			Round:    state.index,
			Success:  res.OK(),
			Retry:    !res.OK() && res.Err.Retryable(),
			Duration: res.Duration,
			Error:    errString(res),
		})
	}

collect:
	for n := 0; n < len(state.pending); n++ {
		select {
		case res := <-resultCh:
			record(res)
		case <-deadlineCh:
			break collect
		case <-ctx.Done():
			break collect
		}
	}
	// The round is joined; anything not yet resolved counts as a
	// timeout and is eligible for the next round like any other
	// retryable failure.
	for _, task := range state.pending {
		if !resolved[task.Key()] {
			record(core.Result{
				Task: task,
				Err:  core.Errf(core.KindTimeout, "", "unresolved at round %d deadline", state.index),
			})
		}
	}
	wgWaitWithin(&wg, roundCtx)
	return retry
}

// fetchOne bounds a single fetch with the per-call timeout.
func (o *Orchestrator) fetchOne(ctx context.Context, task core.Task) core.Result {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.PerCallTimeout)
	defer cancel()
	return o.fetcher.Fetch(callCtx, task)
}

// wgWaitWithin waits for the round's workers unless the round context
// already expired, in which case they drain on their own.
func wgWaitWithin(wg *sync.WaitGroup, ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func errString(res core.Result) string {
	if res.OK() {
		return ""
	}
	return res.Err.Error()
}
