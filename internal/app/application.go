package app

import (
	"context"
	"errors"

	"github.com/astralhq/astral/internal/batch"
	"github.com/astralhq/astral/internal/cache"
	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/ephemeris"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/interfaces"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/render"
	"github.com/astralhq/astral/internal/store"
)

// Application is the runtime state container. It wires the calculator, cache,
// renderer, store and services together and owns their lifecycles. Pass
// Application into modules that need access to the shared services rather
// than using package-level variables.
type Application struct {
	Config *Config
	Logger logging.Logger
	Orch   *Orchestrator

	Cache *cache.ReportCache

	calc  interfaces.Calculator
	pdf   interfaces.PDFRenderer
	store interfaces.ReportStore

	// internal context for cancellation / lifecycle
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication constructs every service from cfg. A nil cfg gets defaults.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("App")
	}

	calc := ephemeris.New(cfg.EphemerisCfg)
	reportCache := cache.New(cfg.CacheCfg, logger)

	var pdf interfaces.PDFRenderer
	if cfg.EnablePDF {
		pdf = render.NewChromePDF(cfg.RenderCfg)
	}

	var reportStore interfaces.ReportStore
	if cfg.DatabasePath != "" {
		st, err := store.Open(cfg.DatabasePath, logger)
		if err != nil {
			return nil, err
		}
		reportStore = st
	}

	gen := generator.New(cfg.GeneratorCfg, calc, pdf, reportStore, reportCache, logger)
	batches := batch.New(cfg.BatchCfg, gen, logger)
	engine := compare.New(logger)
	orch := NewOrchestrator(cfg, gen, batches, engine, reportStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		Config: cfg,
		Logger: logger,
		Orch:   orch,
		Cache:  reportCache,
		calc:   calc,
		pdf:    pdf,
		store:  reportStore,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start launches background work: currently just the cache sweep.
func (a *Application) Start() error {
	if a == nil {
		return errors.New("application is nil")
	}
	if a.Config.CacheCfg.SweepInterval > 0 {
		a.Cache.StartSweep(a.ctx, a.Config.CacheCfg.SweepInterval)
	}
	a.Logger.Info("application started",
		logging.Field{Key: "persistence", Value: a.store != nil},
		logging.Field{Key: "pdf", Value: a.pdf != nil})
	return nil
}

// Shutdown releases every held resource. Safe to call once.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")
	a.cancel()

	var firstErr error
	if a.pdf != nil {
		a.pdf.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.calc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
