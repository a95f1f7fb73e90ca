// Package generator drives a single report generation through its stages:
// validation, calculations, analysis, formatting, finalizing. Progress is
// published through the caller's progress.Tracker; cancellation is observed
// at stage boundaries. A cancelled or failed generation never writes into
// the report cache.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/astralhq/astral/internal/cache"
	"github.com/astralhq/astral/internal/compose"
	"github.com/astralhq/astral/internal/ephemeris"
	"github.com/astralhq/astral/internal/fingerprint"
	"github.com/astralhq/astral/internal/interfaces"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
	"github.com/astralhq/astral/internal/progress"
	"github.com/astralhq/astral/internal/render"
	"github.com/astralhq/astral/internal/utils"
)

// minBirthYear is the sanity floor for birth dates.
const minBirthYear = 1900

// Config controls pipeline details.
type Config struct {
	// Ayanamsa for vedic sidereal adjustment; zero uses the ephemeris default.
	Ayanamsa float64 `json:"ayanamsa,omitempty"`
}

// Request is one generation request.
type Request struct {
	Subject model.BirthSubject `json:"subject"`
	// Partner is required for compatibility reports.
	Partner *model.BirthSubject    `json:"partner,omitempty"`
	Kind    model.ReportKind       `json:"kind"`
	Config  model.GenerationConfig `json:"config"`
	// OwnerID scopes persisted reports; required only when Config.Persist.
	OwnerID string `json:"owner_id,omitempty"`
}

// Generator runs generation requests against injected collaborators.
type Generator struct {
	cfg      Config
	calc     interfaces.Calculator
	pdf      interfaces.PDFRenderer
	store    interfaces.ReportStore
	cache    *cache.ReportCache
	composer *compose.Composer
	html     *render.HTMLRenderer
	logger   logging.Logger

	// now is swappable for validation and metadata tests.
	now func() time.Time
}

// New wires a Generator. pdf and store may be nil: PDF requests then degrade
// to HTML-only and persistence becomes a no-op.
func New(cfg Config, calc interfaces.Calculator, pdf interfaces.PDFRenderer, store interfaces.ReportStore, reportCache *cache.ReportCache, logger logging.Logger) *Generator {
	if cfg.Ayanamsa <= 0 {
		cfg.Ayanamsa = ephemeris.DefaultConfig().Ayanamsa
	}
	return &Generator{
		cfg:      cfg,
		calc:     calc,
		pdf:      pdf,
		store:    store,
		cache:    reportCache,
		composer: compose.New(logger),
		html:     render.NewHTML(),
		logger:   logger,
		now:      time.Now,
	}
}

// SetNowFunc overrides the clock. Tests only.
func (g *Generator) SetNowFunc(now func() time.Time) { g.now = now }

// Fingerprint exposes the cache key for a request.
func (g *Generator) Fingerprint(req Request) string {
	return fingerprint.Compute(req.Subject, req.Partner, req.Kind, req.Config)
}

// Generate runs one request through the full pipeline. tr may be nil when no
// observer cares about progress.
func (g *Generator) Generate(ctx context.Context, req Request, tr *progress.Tracker) (*model.GeneratedReport, error) {
	// A tracker tracks exactly one generation; reuse is a caller error.
	if tr != nil && tr.Current() != model.StagePending {
		return nil, fmt.Errorf("tracker %s already in use (stage %s)", tr.ID(), tr.Current())
	}

	fp := g.Fingerprint(req)

	if req.Config.ForceRegenerate {
		g.cache.Invalidate(fp)
	} else if cached := g.cache.Get(fp); cached != nil {
		// Cache hit: the stage jumps straight to complete.
		g.advance(tr, model.StageComplete, "served from cache")
		if g.logger != nil {
			g.logger.Debug("cache hit", logging.Field{Key: "fingerprint", Value: fp})
		}
		return cached, nil
	}

	// Stage: validation.
	g.advance(tr, model.StageValidation, "validating subject")
	if err := g.validate(req); err != nil {
		return nil, g.fail(tr, model.StageValidation, err)
	}
	if err := g.checkCancel(ctx, tr, model.StageValidation); err != nil {
		return nil, err
	}

	// Stage: calculations.
	g.advance(tr, model.StageCalculations, "computing positions")
	chart, partnerChart, transitChart, err := g.calculate(ctx, req)
	if err != nil {
		// A calculator aborted by cancellation surfaces as a cancellation,
		// not a calculation failure.
		if ctx.Err() != nil {
			return nil, g.checkCancel(ctx, tr, model.StageCalculations)
		}
		return nil, g.fail(tr, model.StageCalculations, err)
	}
	if err := g.checkCancel(ctx, tr, model.StageCalculations); err != nil {
		return nil, err
	}

	// Stage: analysis.
	g.advance(tr, model.StageAnalysis, "synthesizing content")
	summary, sections, err := g.composer.Compose(compose.Input{
		Kind:         req.Kind,
		Subject:      req.Subject,
		Partner:      req.Partner,
		Chart:        chart,
		PartnerChart: partnerChart,
		TransitChart: transitChart,
		Detail:       req.Config.DetailLevel,
	})
	if err != nil {
		return nil, g.fail(tr, model.StageAnalysis, &ComposeError{Err: err})
	}
	if err := g.checkCancel(ctx, tr, model.StageAnalysis); err != nil {
		return nil, err
	}

	// Stage: formatting.
	g.advance(tr, model.StageFormatting, "rendering output")
	report := &model.GeneratedReport{
		Fingerprint: fp,
		Kind:        req.Kind,
		Subject:     req.Subject,
		Partner:     req.Partner,
		Chart:       chart,
		Summary:     summary,
		Sections:    sections,
		Metadata: model.ReportMetadata{
			GeneratedAt:  g.now().UTC(),
			Config:       req.Config,
			SectionCount: len(sections),
		},
	}
	report.Output.HTML = g.html.Render(report)
	report.Metadata.WordCount = utils.WordCount(utils.HTMLToText(report.Output.HTML))

	if req.Config.IncludePDF {
		report.Output.PDF = g.renderPDF(ctx, report.Output.HTML, fp)
	}
	if err := g.checkCancel(ctx, tr, model.StageFormatting); err != nil {
		return nil, err
	}

	// Stage: finalizing. The cancellation check precedes the cache write so a
	// cancelled generation never publishes its result.
	g.advance(tr, model.StageFinalizing, "storing report")
	if err := g.checkCancel(ctx, tr, model.StageFinalizing); err != nil {
		return nil, err
	}
	g.cache.Put(fp, report)
	g.persist(ctx, req, report)

	g.advance(tr, model.StageComplete, "")
	if g.logger != nil {
		g.logger.Info("generated report",
			logging.Field{Key: "fingerprint", Value: fp},
			logging.Field{Key: "kind", Value: string(req.Kind)},
			logging.Field{Key: "sections", Value: len(sections)})
	}
	return report, nil
}

func (g *Generator) validate(req Request) error {
	if !req.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown report kind %q", req.Kind)}
	}
	if !req.Config.DetailLevel.Valid() {
		return &ValidationError{Field: "config.detail_level", Reason: fmt.Sprintf("unknown detail level %q", req.Config.DetailLevel)}
	}
	if err := g.validateSubject("subject", req.Subject); err != nil {
		return err
	}
	if req.Kind == model.KindCompatibility {
		if req.Partner == nil {
			return &ValidationError{Field: "partner", Reason: "compatibility reports need a second subject"}
		}
		if err := g.validateSubject("partner", *req.Partner); err != nil {
			return err
		}
	}
	if req.Config.Persist && req.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Reason: "required when persist is set"}
	}
	return nil
}

func (g *Generator) validateSubject(field string, s model.BirthSubject) error {
	if s.Date == "" {
		return &ValidationError{Field: field + ".date", Reason: "birth date is required"}
	}
	if s.Time == "" {
		return &ValidationError{Field: field + ".time", Reason: "birth time is required"}
	}
	if s.Location.Latitude == 0 && s.Location.Longitude == 0 {
		return &ValidationError{Field: field + ".location", Reason: "birth coordinates are required"}
	}
	if s.Location.Latitude < -90 || s.Location.Latitude > 90 {
		return &ValidationError{Field: field + ".location.latitude", Reason: "out of range"}
	}
	if s.Location.Longitude < -180 || s.Location.Longitude > 180 {
		return &ValidationError{Field: field + ".location.longitude", Reason: "out of range"}
	}

	moment, err := s.BirthMoment()
	if err != nil {
		return &ValidationError{Field: field + ".date", Reason: err.Error()}
	}
	if moment.Year() < minBirthYear {
		return &ValidationError{Field: field + ".date", Reason: fmt.Sprintf("before year %d", minBirthYear)}
	}
	if moment.After(g.now()) {
		return &ValidationError{Field: field + ".date", Reason: "birth date is in the future"}
	}
	return nil
}

// calculate invokes the ephemeris backend and applies kind-specific
// post-processing.
func (g *Generator) calculate(ctx context.Context, req Request) (chart, partnerChart, transitChart *model.ChartData, err error) {
	chart, err = g.calc.ComputePositions(ctx, req.Subject)
	if err != nil {
		return nil, nil, nil, &CalculationError{Err: err}
	}

	switch req.Kind {
	case model.KindVedic:
		chart = ephemeris.ApplySidereal(chart, g.cfg.Ayanamsa)

	case model.KindChinese:
		moment, merr := req.Subject.BirthMoment()
		if merr != nil {
			return nil, nil, nil, &CalculationError{Err: merr}
		}
		if chart.Extras == nil {
			chart.Extras = map[string]string{}
		}
		chart.Extras["four_pillars"] = ephemeris.FormatPillars(ephemeris.FourPillars(moment))

	case model.KindTransit:
		// Transits are computed for the current day at the birth location.
		now := g.now().UTC()
		transitSubject := model.BirthSubject{
			Date:     now.Format("2006-01-02"),
			Time:     now.Format("15:04"),
			Location: req.Subject.Location,
		}
		transitSubject.Location.Timezone = "UTC"
		transitChart, err = g.calc.ComputePositions(ctx, transitSubject)
		if err != nil {
			return nil, nil, nil, &CalculationError{Err: err}
		}

	case model.KindCompatibility:
		partnerChart, err = g.calc.ComputePositions(ctx, *req.Partner)
		if err != nil {
			return nil, nil, nil, &CalculationError{Err: err}
		}
	}
	return chart, partnerChart, transitChart, nil
}

// renderPDF materializes the PDF, degrading to HTML-only output on failure.
func (g *Generator) renderPDF(ctx context.Context, html, fp string) []byte {
	if g.pdf == nil {
		if g.logger != nil {
			g.logger.Warn("PDF requested but no renderer configured",
				logging.Field{Key: "fingerprint", Value: fp})
		}
		return nil
	}
	pdf, err := g.pdf.Render(ctx, html, interfaces.PDFOptions{})
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("PDF rendering failed, returning HTML only",
				logging.Field{Key: "fingerprint", Value: fp},
				logging.Field{Key: "error", Value: err.Error()})
		}
		return nil
	}
	return pdf
}

// persist hands the report to the store when requested. Failure is downgraded
// to a warning; the generation still succeeds.
func (g *Generator) persist(ctx context.Context, req Request, report *model.GeneratedReport) {
	if !req.Config.Persist || g.store == nil {
		return
	}
	if err := g.store.Save(ctx, req.OwnerID, report); err != nil {
		perr := &PersistenceError{Err: err}
		if g.logger != nil {
			g.logger.Warn(perr.Error(),
				logging.Field{Key: "fingerprint", Value: report.Fingerprint},
				logging.Field{Key: "owner_id", Value: req.OwnerID},
				logging.Field{Key: "code", Value: CodeOf(perr)})
		}
	}
}

func (g *Generator) advance(tr *progress.Tracker, stage model.Stage, msg string) {
	if tr == nil {
		return
	}
	if err := tr.Advance(stage, msg); err != nil && g.logger != nil {
		g.logger.Warn("progress transition rejected",
			logging.Field{Key: "stage", Value: string(stage)},
			logging.Field{Key: "error", Value: err.Error()})
	}
}

// fail publishes the error through the tracker once and wraps it with the
// failing stage name.
func (g *Generator) fail(tr *progress.Tracker, stage model.Stage, err error) error {
	wrapped := fmt.Errorf("stage %s: %w", stage, err)
	if tr != nil {
		if ferr := tr.Fail(wrapped); ferr != nil && g.logger != nil {
			g.logger.Warn("progress fail rejected", logging.Field{Key: "error", Value: ferr.Error()})
		}
	}
	return wrapped
}

// checkCancel observes cooperative cancellation at a stage boundary. A
// cancelled generation never reaches the cache write.
func (g *Generator) checkCancel(ctx context.Context, tr *progress.Tracker, stage model.Stage) error {
	if ctx.Err() == nil {
		return nil
	}
	cerr := &CancelledError{Stage: stage, Err: ctx.Err()}
	if tr != nil {
		if ferr := tr.Fail(cerr); ferr != nil && g.logger != nil {
			g.logger.Warn("progress fail rejected", logging.Field{Key: "error", Value: ferr.Error()})
		}
	}
	return cerr
}
