package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/astralhq/astral/internal/batch"
	"github.com/astralhq/astral/internal/cache"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/testutil"
)

func batchRequest(date string) generator.Request {
	return generator.Request{
		Subject: model.BirthSubject{
			Date: date,
			Time: "14:20",
			Location: model.Location{
				Name: "Berlin", Latitude: 52.52, Longitude: 13.405, Timezone: "Europe/Berlin",
			},
		},
		Kind:   model.KindWestern,
		Config: model.DefaultGenerationConfig(),
	}
}

func newOrchestrator(cfg batch.Config, calc *testutil.DummyCalculator) *batch.Orchestrator {
	gen := generator.New(generator.Config{}, calc, nil, nil,
		cache.New(cache.Config{}, nil), &testutil.DummyLogger{})
	return batch.New(cfg, gen, &testutil.DummyLogger{})
}

func TestBatchAllSucceed(t *testing.T) {
	o := newOrchestrator(batch.DefaultConfig(), testutil.NewDummyCalculator())

	requests := []generator.Request{
		batchRequest("1990-03-15"),
		batchRequest("1985-11-02"),
		batchRequest("2001-07-21"),
	}
	results := o.Run(context.Background(), requests, nil)

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d failed: %v", i, r.Err)
		}
		if r.Index != i {
			t.Fatalf("item %d carries index %d", i, r.Index)
		}
		if r.Report == nil {
			t.Fatalf("item %d has no report", i)
		}
	}
}

func TestBatchIsolatesFailures(t *testing.T) {
	o := newOrchestrator(batch.DefaultConfig(), testutil.NewDummyCalculator())

	// Item at index 2 has a future birth date and must fail validation
	// without dragging the other four down.
	requests := []generator.Request{
		batchRequest("1990-03-15"),
		batchRequest("1985-11-02"),
		batchRequest("2999-01-01"),
		batchRequest("1972-04-30"),
		batchRequest("2001-07-21"),
	}
	results := o.Run(context.Background(), requests, nil)

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	if succeeded != 4 {
		t.Fatalf("succeeded = %d, want 4", succeeded)
	}

	var ve *generator.ValidationError
	if !errors.As(results[2].Err, &ve) {
		t.Fatalf("item 2 error = %v, want ValidationError", results[2].Err)
	}
	if results[2].Report != nil {
		t.Fatal("failed item must not carry a report")
	}
}

func TestBatchResultsKeepRequestOrder(t *testing.T) {
	calc := testutil.NewDummyCalculator()
	calc.Delay = 5 * time.Millisecond
	o := newOrchestrator(batch.Config{MaxConcurrency: 2}, calc)

	dates := []string{"1990-03-15", "1985-11-02", "1972-04-30", "2001-07-21"}
	requests := make([]generator.Request, len(dates))
	for i, d := range dates {
		requests[i] = batchRequest(d)
	}

	results := o.Run(context.Background(), requests, nil)
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d failed: %v", i, r.Err)
		}
		if r.Report.Subject.Date != dates[i] {
			t.Fatalf("item %d holds date %s, want %s", i, r.Report.Subject.Date, dates[i])
		}
	}
}

func TestBatchItemTimeout(t *testing.T) {
	calc := testutil.NewDummyCalculator()
	calc.Delay = 200 * time.Millisecond
	o := newOrchestrator(batch.Config{MaxConcurrency: 2, ItemTimeout: 20 * time.Millisecond}, calc)

	results := o.Run(context.Background(), []generator.Request{batchRequest("1990-03-15")}, nil)

	var te *generator.TimeoutError
	if !errors.As(results[0].Err, &te) {
		t.Fatalf("expected TimeoutError, got %v", results[0].Err)
	}
	if generator.CodeOf(results[0].Err) != generator.CodeTimeout {
		t.Fatalf("code = %s", generator.CodeOf(results[0].Err))
	}
}

func TestBatchAggregateProgress(t *testing.T) {
	o := newOrchestrator(batch.DefaultConfig(), testutil.NewDummyCalculator())

	var (
		mu        sync.Mutex
		snapshots []batch.Progress
	)
	requests := []generator.Request{
		batchRequest("1990-03-15"),
		batchRequest("1985-11-02"),
	}
	o.Run(context.Background(), requests, func(p batch.Progress) {
		mu.Lock()
		snapshots = append(snapshots, p)
		mu.Unlock()
	})

	if len(snapshots) == 0 {
		t.Fatal("no progress snapshots observed")
	}
	final := snapshots[len(snapshots)-1]
	if final.Percentage != 100 {
		t.Fatalf("final percentage = %d, want 100", final.Percentage)
	}
	if final.Message != "2 of 2 succeeded" {
		t.Fatalf("final message = %q", final.Message)
	}
	for _, p := range snapshots {
		if p.Percentage < 0 || p.Percentage > 100 {
			t.Fatalf("percentage out of range: %+v", p)
		}
		if p.Total != 2 {
			t.Fatalf("total = %d", p.Total)
		}
	}
}

func TestBatchFinalMessageCountsFailures(t *testing.T) {
	o := newOrchestrator(batch.DefaultConfig(), testutil.NewDummyCalculator())

	var (
		mu    sync.Mutex
		final batch.Progress
	)
	requests := []generator.Request{
		batchRequest("1990-03-15"),
		batchRequest("2999-01-01"),
		batchRequest("1985-11-02"),
	}
	results := o.Run(context.Background(), requests, func(p batch.Progress) {
		mu.Lock()
		final = p
		mu.Unlock()
	})

	if results[1].Err == nil {
		t.Fatal("expected item 1 to fail validation")
	}
	if final.Message != "2 of 3 succeeded" {
		t.Fatalf("final message = %q", final.Message)
	}
	if final.Failed != 1 {
		t.Fatalf("failed = %d, want 1", final.Failed)
	}
}

func TestBatchEmptyInput(t *testing.T) {
	o := newOrchestrator(batch.DefaultConfig(), testutil.NewDummyCalculator())
	results := o.Run(context.Background(), nil, nil)
	if len(results) != 0 {
		t.Fatalf("results = %v, want empty", results)
	}
}

func TestBatchConcurrencyBound(t *testing.T) {
	calc := testutil.NewDummyCalculator()
	calc.Delay = 30 * time.Millisecond
	o := newOrchestrator(batch.Config{MaxConcurrency: 1}, calc)

	requests := []generator.Request{
		batchRequest("1990-03-15"),
		batchRequest("1985-11-02"),
		batchRequest("1972-04-30"),
	}

	start := time.Now()
	results := o.Run(context.Background(), requests, nil)
	elapsed := time.Since(start)

	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("item %d failed: %v", i, r.Err)
		}
	}
	// Serialized items cannot be faster than the sum of their delays.
	if elapsed < 90*time.Millisecond {
		t.Fatalf("3 serialized 30ms items finished in %s", elapsed)
	}
}
