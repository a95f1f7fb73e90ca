// Package batch fans a set of generation requests out over a bounded worker
// pool. One item failing never aborts its siblings.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/progress"
)

const defaultWorkers = 3

type Config struct {
	// MaxConcurrency caps simultaneous generations so the ephemeris
	// calculator and PDF renderer are not overwhelmed. Defaults to 3.
	MaxConcurrency int
	// ItemTimeout bounds a single item's generation. Zero disables it.
	ItemTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{MaxConcurrency: defaultWorkers}
}

// Result is the outcome of one batch item, indexed by the request's original
// position. Exactly one of Report and Err is set.
type Result struct {
	Index  int                    `json:"index"`
	Report *model.GeneratedReport `json:"report,omitempty"`
	Err    error                  `json:"-"`
}

// Progress is the aggregate view over all items: the percentage is the
// arithmetic mean of the individual item percentages.
type Progress struct {
	Percentage int    `json:"percentage"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
	Message    string `json:"message"`
}

// Orchestrator runs batches of generation requests.
type Orchestrator struct {
	cfg    Config
	gen    *generator.Generator
	logger logging.Logger
}

func New(cfg Config, gen *generator.Generator, logger logging.Logger) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultWorkers
	}
	return &Orchestrator{cfg: cfg, gen: gen, logger: logger}
}

// Run generates every request and returns one result per request, in request
// order. onProgress, when non-nil, receives aggregate progress snapshots; the
// final snapshot reports how many items succeeded.
func (o *Orchestrator) Run(ctx context.Context, requests []generator.Request, onProgress func(Progress)) []Result {
	results := make([]Result, len(requests))
	if len(requests) == 0 {
		return results
	}

	agg := newAggregator(len(requests), onProgress)

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.cfg.MaxConcurrency)

	for i, req := range requests {
		wg.Add(1)
		go func(i int, req generator.Request) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = o.runItem(ctx, i, req, agg)
		}(i, req)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	agg.finish(succeeded)
	if o.logger != nil {
		o.logger.Info("batch finished",
			logging.Field{Key: "total", Value: len(requests)},
			logging.Field{Key: "succeeded", Value: succeeded})
	}
	return results
}

func (o *Orchestrator) runItem(ctx context.Context, i int, req generator.Request, agg *aggregator) Result {
	itemCtx := ctx
	cancel := func() {}
	if o.cfg.ItemTimeout > 0 {
		itemCtx, cancel = context.WithTimeout(ctx, o.cfg.ItemTimeout)
	}
	defer cancel()

	tr := progress.NewTracker(uuid.NewString(), 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for state := range tr.Events() {
			agg.update(i, state.Percentage)
		}
	}()

	report, err := o.gen.Generate(itemCtx, req, tr)
	<-done

	if err != nil {
		// A deadline hit inside the pipeline surfaces as a cancellation;
		// report it as the item's timeout instead.
		if o.cfg.ItemTimeout > 0 && itemCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = &generator.TimeoutError{After: o.cfg.ItemTimeout}
		}
		if o.logger != nil {
			o.logger.Warn("batch item failed",
				logging.Field{Key: "index", Value: i},
				logging.Field{Key: "code", Value: generator.CodeOf(err)},
				logging.Field{Key: "error", Value: err.Error()})
		}
		agg.update(i, 100)
		agg.fail()
		return Result{Index: i, Err: err}
	}
	return Result{Index: i, Report: report}
}

// aggregator folds per-item percentages into one mean figure and serializes
// callbacks to the observer.
type aggregator struct {
	mu         sync.Mutex
	pcts       []int
	completed  int
	failed     int
	onProgress func(Progress)
}

func newAggregator(n int, onProgress func(Progress)) *aggregator {
	return &aggregator{pcts: make([]int, n), onProgress: onProgress}
}

func (a *aggregator) update(i, pct int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pct < a.pcts[i] {
		return
	}
	a.pcts[i] = pct
	if pct == 100 {
		a.completed++
	}
	a.emit(fmt.Sprintf("%d of %d items finished", a.completed, len(a.pcts)))
}

func (a *aggregator) fail() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed++
}

func (a *aggregator) finish(succeeded int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.pcts {
		a.pcts[i] = 100
	}
	a.completed = len(a.pcts)
	a.emit(fmt.Sprintf("%d of %d succeeded", succeeded, len(a.pcts)))
}

// emit assumes the caller holds the mutex.
func (a *aggregator) emit(msg string) {
	if a.onProgress == nil {
		return
	}
	sum := 0
	for _, p := range a.pcts {
		sum += p
	}
	a.onProgress(Progress{
		Percentage: sum / len(a.pcts),
		Completed:  a.completed,
		Failed:     a.failed,
		Total:      len(a.pcts),
		Message:    msg,
	})
}
