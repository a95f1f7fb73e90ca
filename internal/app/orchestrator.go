package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/astralhq/astral/internal/batch"
	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/interfaces"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/progress"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress (optional fields)
	Stage      string `json:"stage,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
	Message    string `json:"message,omitempty"`
	Completed  int    `json:"completed,omitempty"`
	Total      int    `json:"total,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// BatchItemResult is the JSON-safe projection of one batch item outcome.
type BatchItemResult struct {
	Index  int                    `json:"index"`
	Report *model.GeneratedReport `json:"report,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Code   string                 `json:"code,omitempty"`
}

type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"` // "generate" | "batch"
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	ErrorCode string        `json:"error_code,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	// Optional results:
	Report       *model.GeneratedReport `json:"report,omitempty"`
	BatchResults []BatchItemResult      `json:"batch_results,omitempty"`
}

// Orchestrator owns the job table and fronts the generation, batch and
// comparison services for callers (HTTP server and CLI alike).
type Orchestrator struct {
	cfg     *Config
	gen     *generator.Generator
	batches *batch.Orchestrator
	engine  *compare.Engine
	store   interfaces.ReportStore
	logger  logging.Logger

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

// NewOrchestrator ties together config, services and logger.
func NewOrchestrator(cfg *Config, gen *generator.Generator, batches *batch.Orchestrator, engine *compare.Engine, store interfaces.ReportStore, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Orchestrator{
		cfg:     cfg,
		gen:     gen,
		batches: batches,
		engine:  engine,
		store:   store,
		logger:  logger,
	}
}

func (o *Orchestrator) ensureJobMaps() {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobs == nil {
		o.jobs = make(map[string]*Job)
	}
	o.jobs[job.ID] = job
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if o.jobCancels == nil {
		o.jobCancels = make(map[string]context.CancelFunc)
	}
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

func (o *Orchestrator) getCancel(jobID string) context.CancelFunc {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobCancels[jobID]
}

// StartGenerateJob runs one generation asynchronously. Progress from the
// pipeline's tracker is forwarded onto the job's event channel.
func (o *Orchestrator) StartGenerateJob(ctx context.Context, req generator.Request) (*Job, error) {
	o.ensureJobMaps()

	jobID := uuid.New().String()
	now := time.Now().UTC()

	job := &Job{
		ID:        jobID,
		Type:      "generate",
		Status:    JobPending,
		StartedAt: now,
		Events:    make(chan JobEvent, 16),
	}
	o.setJob(job)

	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(jobID, cancel)

	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobPending,
	})

	go func() {
		defer o.closeJob(jobID)

		o.markRunning(jobID)

		tr := progress.NewTracker(jobID, 16)
		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			for state := range tr.Events() {
				o.emitJobEvent(jobID, JobEvent{
					JobID:      jobID,
					Type:       JobEventProgress,
					Stage:      string(state.Stage),
					Percentage: state.Percentage,
					Message:    state.Message,
				})
			}
		}()

		report, err := o.gen.Generate(jobCtx, req, tr)
		<-forwarded
		if err != nil {
			o.finishError(jobID, jobCtx, err)
			return
		}

		o.jobsMu.Lock()
		if j, ok := o.jobs[jobID]; ok {
			j.Status = JobDone
			j.Report = report
		}
		o.jobsMu.Unlock()
		o.emitJobEvent(jobID, JobEvent{
			JobID:  jobID,
			Type:   JobEventResult,
			Status: JobDone,
		})
	}()

	return job, nil
}

// StartBatchJob runs a set of generation requests asynchronously. Aggregate
// progress snapshots are forwarded onto the job's event channel; one failing
// item never fails the job.
func (o *Orchestrator) StartBatchJob(ctx context.Context, requests []generator.Request) (*Job, error) {
	if len(requests) == 0 {
		return nil, errors.New("batch requires at least one request")
	}
	o.ensureJobMaps()

	jobID := uuid.New().String()
	now := time.Now().UTC()

	job := &Job{
		ID:        jobID,
		Type:      "batch",
		Status:    JobPending,
		StartedAt: now,
		Events:    make(chan JobEvent, 16),
	}
	o.setJob(job)

	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(jobID, cancel)

	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobPending,
	})

	go func() {
		defer o.closeJob(jobID)

		o.markRunning(jobID)

		results := o.batches.Run(jobCtx, requests, func(p batch.Progress) {
			o.emitJobEvent(jobID, JobEvent{
				JobID:      jobID,
				Type:       JobEventProgress,
				Percentage: p.Percentage,
				Message:    p.Message,
				Completed:  p.Completed,
				Total:      p.Total,
			})
		})

		items := make([]BatchItemResult, len(results))
		for i, r := range results {
			items[i] = BatchItemResult{Index: r.Index, Report: r.Report}
			if r.Err != nil {
				items[i].Error = r.Err.Error()
				items[i].Code = generator.CodeOf(r.Err)
			}
		}

		select {
		case <-jobCtx.Done():
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobCanceled
				j.Error = jobCtx.Err().Error()
				j.BatchResults = items
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(jobID, JobEvent{
				JobID:  jobID,
				Type:   JobEventStatus,
				Status: JobCanceled,
				Error:  jobCtx.Err().Error(),
			})
		default:
			o.jobsMu.Lock()
			if j, ok := o.jobs[jobID]; ok {
				j.Status = JobDone
				j.BatchResults = items
			}
			o.jobsMu.Unlock()
			o.emitJobEvent(jobID, JobEvent{
				JobID:  jobID,
				Type:   JobEventResult,
				Status: JobDone,
			})
		}
	}()

	return job, nil
}

func (o *Orchestrator) markRunning(jobID string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = JobRunning
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: JobRunning,
	})
}

func (o *Orchestrator) finishError(jobID string, jobCtx context.Context, err error) {
	status := JobFailed
	detail := err.Error()
	select {
	case <-jobCtx.Done():
		status = JobCanceled
		detail = jobCtx.Err().Error()
	default:
	}

	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		j.Error = detail
		j.ErrorCode = generator.CodeOf(err)
	}
	o.jobsMu.Unlock()
	o.emitJobEvent(jobID, JobEvent{
		JobID:  jobID,
		Type:   JobEventStatus,
		Status: status,
		Error:  detail,
	})
}

func (o *Orchestrator) closeJob(jobID string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.EndedAt = time.Now().UTC()
	}
	o.jobsMu.Unlock()
	o.deleteCancel(jobID)

	// Close events channel so websocket loop can terminate cleanly
	o.jobsMu.Lock()
	j := o.jobs[jobID]
	o.jobsMu.Unlock()
	if j != nil && j.Events != nil {
		close(j.Events)
	}
}

func (o *Orchestrator) CancelJob(jobID string) {
	cancel := o.getCancel(jobID)
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	return j
}

func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	jobs := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

// Generate runs one generation synchronously on the caller's goroutine.
func (o *Orchestrator) Generate(ctx context.Context, req generator.Request) (*model.GeneratedReport, error) {
	return o.gen.Generate(ctx, req, nil)
}

// Compare scores the given reports. Empty settings fall back to the default
// weighted field set.
func (o *Orchestrator) Compare(reports []*model.GeneratedReport, settings model.ComparisonSettings) (*model.ComparisonResult, error) {
	if len(settings.CompareFields) == 0 {
		settings = compare.DefaultSettings()
	}
	return o.engine.Compare(reports, settings)
}

// ExportComparison serializes a comparison result in the requested format.
func (o *Orchestrator) ExportComparison(result *model.ComparisonResult, settings model.ComparisonSettings, format compare.ExportFormat) ([]byte, error) {
	if len(settings.CompareFields) == 0 {
		settings = compare.DefaultSettings()
	}
	return compare.Export(result, settings, format)
}

// ListReports returns an owner's persisted reports, newest first.
func (o *Orchestrator) ListReports(ctx context.Context, ownerID string) ([]*model.GeneratedReport, error) {
	if o.store == nil {
		return nil, errors.New("persistence is not configured")
	}
	return o.store.LoadByOwner(ctx, ownerID)
}

// DeleteReport removes one persisted report. It reports whether a row was
// actually deleted.
func (o *Orchestrator) DeleteReport(ctx context.Context, reportID, ownerID string) (bool, error) {
	if o.store == nil {
		return false, errors.New("persistence is not configured")
	}
	return o.store.Delete(ctx, reportID, ownerID)
}
