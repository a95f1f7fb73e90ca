// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/astralhq/astral/internal/ephemeris"
	"github.com/astralhq/astral/internal/interfaces"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns how many warnings were recorded.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// DummyCalculator wraps the real deterministic ephemeris backend, adding
// call counting, optional per-call delay, and forced failure.
type DummyCalculator struct {
	Delay time.Duration
	Fail  bool
	// FailFor forces failure only for subjects with a matching date.
	FailFor string

	inner *ephemeris.Calculator
	mu    sync.Mutex
	calls int
}

func NewDummyCalculator() *DummyCalculator {
	return &DummyCalculator{inner: ephemeris.New(ephemeris.Config{})}
}

func (d *DummyCalculator) ComputePositions(ctx context.Context, subject model.BirthSubject) (*model.ChartData, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Fail || (d.FailFor != "" && subject.Date == d.FailFor) {
		return nil, errors.New("dummy ephemeris failure")
	}
	return d.inner.ComputePositions(ctx, subject)
}

func (d *DummyCalculator) Close() error { return nil }

// Calls returns how many times ComputePositions was invoked.
func (d *DummyCalculator) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// DummyPDF implements interfaces.PDFRenderer without a browser.
type DummyPDF struct {
	Fail bool

	mu    sync.Mutex
	calls int
}

func (d *DummyPDF) Render(_ context.Context, html string, _ interfaces.PDFOptions) ([]byte, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if d.Fail {
		return nil, errors.New("dummy PDF failure")
	}
	return append([]byte("%PDF-dummy:"), []byte(html[:min(16, len(html))])...), nil
}

func (d *DummyPDF) Close() error { return nil }

func (d *DummyPDF) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// DummyStore implements interfaces.ReportStore in memory.
type DummyStore struct {
	FailSave bool

	mu    sync.Mutex
	saved map[string][]*model.GeneratedReport
}

func (d *DummyStore) Save(_ context.Context, ownerID string, report *model.GeneratedReport) error {
	if d.FailSave {
		return errors.New("dummy store failure")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saved == nil {
		d.saved = make(map[string][]*model.GeneratedReport)
	}
	d.saved[ownerID] = append(d.saved[ownerID], report)
	return nil
}

func (d *DummyStore) LoadByOwner(_ context.Context, ownerID string) ([]*model.GeneratedReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*model.GeneratedReport(nil), d.saved[ownerID]...), nil
}

func (d *DummyStore) Delete(_ context.Context, reportID, ownerID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rs := d.saved[ownerID]
	for i, r := range rs {
		if r.Fingerprint == reportID {
			d.saved[ownerID] = append(rs[:i], rs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (d *DummyStore) Close() error { return nil }

// SavedCount returns how many reports an owner has.
func (d *DummyStore) SavedCount(ownerID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.saved[ownerID])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
