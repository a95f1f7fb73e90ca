package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/astralhq/astral/internal/app"
	"github.com/astralhq/astral/internal/batch"
	"github.com/astralhq/astral/internal/cache"
	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/testutil"
)

func newTestOrchestrator(calc *testutil.DummyCalculator) (*app.Orchestrator, *testutil.DummyStore) {
	logger := &testutil.DummyLogger{}
	st := &testutil.DummyStore{}
	gen := generator.New(generator.Config{}, calc, nil, st, cache.New(cache.Config{}, nil), logger)
	batches := batch.New(batch.DefaultConfig(), gen, logger)
	engine := compare.New(logger)
	return app.NewOrchestrator(app.DefaultConfig(), gen, batches, engine, st, logger), st
}

func orchRequest(date string) generator.Request {
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

// drainJob consumes the job's event channel until the orchestrator closes it.
func drainJob(t *testing.T, job *app.Job) []app.JobEvent {
	t.Helper()
	var events []app.JobEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-job.Events:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("job did not finish in time")
		}
	}
}

func TestStartGenerateJob(t *testing.T) {
	o, _ := newTestOrchestrator(testutil.NewDummyCalculator())

	job, err := o.StartGenerateJob(context.Background(), orchRequest("1990-03-15"))
	if err != nil {
		t.Fatalf("StartGenerateJob: %v", err)
	}
	events := drainJob(t, job)

	final := o.GetJob(job.ID)
	if final == nil {
		t.Fatal("job vanished from the table")
	}
	if final.Status != app.JobDone {
		t.Fatalf("status = %s, error = %s", final.Status, final.Error)
	}
	if final.Report == nil || final.Report.Fingerprint == "" {
		t.Fatal("done job carries no report")
	}
	if final.EndedAt.IsZero() {
		t.Fatal("EndedAt not set")
	}

	sawProgress := false
	for _, ev := range events {
		if ev.Type == app.JobEventProgress {
			sawProgress = true
			break
		}
	}
	if !sawProgress {
		t.Fatal("no progress events forwarded")
	}
}

func TestStartGenerateJobValidationFailure(t *testing.T) {
	o, _ := newTestOrchestrator(testutil.NewDummyCalculator())

	job, err := o.StartGenerateJob(context.Background(), orchRequest("2999-01-01"))
	if err != nil {
		t.Fatalf("StartGenerateJob: %v", err)
	}
	drainJob(t, job)

	final := o.GetJob(job.ID)
	if final.Status != app.JobFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	if final.ErrorCode != generator.CodeValidation {
		t.Fatalf("error code = %s", final.ErrorCode)
	}
}

func TestCancelGenerateJob(t *testing.T) {
	calc := testutil.NewDummyCalculator()
	calc.Delay = 300 * time.Millisecond
	o, _ := newTestOrchestrator(calc)

	job, err := o.StartGenerateJob(context.Background(), orchRequest("1990-03-15"))
	if err != nil {
		t.Fatalf("StartGenerateJob: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	o.CancelJob(job.ID)
	drainJob(t, job)

	final := o.GetJob(job.ID)
	if final.Status != app.JobCanceled {
		t.Fatalf("status = %s, want canceled", final.Status)
	}
}

func TestStartBatchJob(t *testing.T) {
	o, _ := newTestOrchestrator(testutil.NewDummyCalculator())

	requests := []generator.Request{
		orchRequest("1990-03-15"),
		orchRequest("2999-01-01"), // invalid, isolated failure
		orchRequest("1985-11-02"),
	}
	job, err := o.StartBatchJob(context.Background(), requests)
	if err != nil {
		t.Fatalf("StartBatchJob: %v", err)
	}
	drainJob(t, job)

	final := o.GetJob(job.ID)
	if final.Status != app.JobDone {
		t.Fatalf("status = %s, error = %s", final.Status, final.Error)
	}
	if len(final.BatchResults) != 3 {
		t.Fatalf("batch results = %d, want 3", len(final.BatchResults))
	}
	if final.BatchResults[0].Report == nil || final.BatchResults[2].Report == nil {
		t.Fatal("valid items should carry reports")
	}
	if final.BatchResults[1].Code != generator.CodeValidation {
		t.Fatalf("item 1 code = %s", final.BatchResults[1].Code)
	}
}

func TestStartBatchJobRejectsEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(testutil.NewDummyCalculator())
	if _, err := o.StartBatchJob(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestOrchestratorCompareDefaults(t *testing.T) {
	o, _ := newTestOrchestrator(testutil.NewDummyCalculator())
	ctx := context.Background()

	a, err := o.Generate(ctx, orchRequest("1990-03-15"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := o.Generate(ctx, orchRequest("1985-11-02"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Empty settings fall back to the default field set.
	result, err := o.Compare([]*model.GeneratedReport{a, b}, model.ComparisonSettings{})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(result.Fields) == 0 {
		t.Fatal("no fields compared")
	}

	out, err := o.ExportComparison(result, model.ComparisonSettings{}, compare.FormatJSON)
	if err != nil {
		t.Fatalf("ExportComparison: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty export")
	}
}

func TestOrchestratorReportPassthrough(t *testing.T) {
	o, st := newTestOrchestrator(testutil.NewDummyCalculator())
	ctx := context.Background()

	req := orchRequest("1990-03-15")
	req.Config.Persist = true
	req.OwnerID = "owner-1"
	report, err := o.Generate(ctx, req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if st.SavedCount("owner-1") != 1 {
		t.Fatalf("saved = %d", st.SavedCount("owner-1"))
	}

	reports, err := o.ListReports(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d", len(reports))
	}

	deleted, err := o.DeleteReport(ctx, report.Fingerprint, "owner-1")
	if err != nil || !deleted {
		t.Fatalf("DeleteReport = %v, %v", deleted, err)
	}
}
