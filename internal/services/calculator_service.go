package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pindex/internal/config"
	apperrors "pindex/internal/errors"
	"pindex/internal/exporter"
	"pindex/internal/infrastructure"
	"pindex/internal/poverty"
	"pindex/internal/records"
)

// ErrorSourceDataset marks errors found while validating the dataset
const ErrorSourceDataset = "Dataset"

// ApplicationError is one entry of the merged dataset and panel error list
type ApplicationError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// PanelSummary describes one panel built by a load
type PanelSummary struct {
	Name      string `json:"name"`
	YearMin   int    `json:"year_min"`
	YearMax   int    `json:"year_max"`
	WaveCount int    `json:"wave_count"`
	People    int    `json:"people"`
	EverPoor  int    `json:"ever_poor"`
	Valid     bool   `json:"valid"`
	Results   int    `json:"results"`
}

// Snapshot is the resident state produced by one load. A snapshot is never modified
// after it is published, readers may keep it while a new load runs.
//
// The empty snapshot, held before the first load and after a failed one, has no
// dataset: every collection is empty and IsValid reports false.
type Snapshot struct {
	RunID    string
	Source   string
	LoadedAt time.Time

	dataset *poverty.Dataset
	panels  []PanelSummary
	errors  []ApplicationError
	results []poverty.PovertyIndexResult
}

func emptySnapshot() *Snapshot {
	return &Snapshot{}
}

// HasDataset reports whether the snapshot holds a loaded dataset
func (s *Snapshot) HasDataset() bool { return s.dataset != nil }

// IsValid reports whether a dataset is loaded and neither it nor any panel has errors
func (s *Snapshot) IsValid() bool { return s.dataset != nil && len(s.errors) == 0 }

// Observations returns the loaded observations in input order
func (s *Snapshot) Observations() []poverty.Observation {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.Observations()
}

// People returns the timelines sorted by country then person id
func (s *Snapshot) People() []*poverty.PersonTimeline {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.People()
}

// Ratios returns the persistence ratios, empty unless the dataset is valid
func (s *Snapshot) Ratios() []poverty.PersistenceRatio {
	if s.dataset == nil {
		return nil
	}
	return s.dataset.PersistenceRatios()
}

// Errors returns dataset errors followed by panel errors
func (s *Snapshot) Errors() []ApplicationError { return s.errors }

// ErrorMessages returns the message of every error
func (s *Snapshot) ErrorMessages() []string {
	out := make([]string, 0, len(s.errors))
	for _, e := range s.errors {
		out = append(out, e.Message)
	}
	return out
}

// Panels returns the panels in ascending anchor year
func (s *Snapshot) Panels() []PanelSummary { return s.panels }

// Results returns the index results grouped by panel, then alpha, then person
func (s *Snapshot) Results() []poverty.PovertyIndexResult { return s.results }

// YearMin returns the oldest observed year, zero without a dataset
func (s *Snapshot) YearMin() int {
	if s.dataset == nil {
		return 0
	}
	return s.dataset.YearMin()
}

// YearMax returns the most recent observed year, zero without a dataset
func (s *Snapshot) YearMax() int {
	if s.dataset == nil {
		return 0
	}
	return s.dataset.YearMax()
}

// CalculatorService loads observation files and keeps the outcome of the last load resident.
// Loads are serialized; readers always see either the previous or the new snapshot.
type CalculatorService struct {
	alphas     []float64
	concurrent int
	export     config.ExportConfig

	reader   *records.Reader
	exporter *exporter.Exporter
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.CalculationMetrics

	loadMu sync.Mutex
	mu     sync.RWMutex
	state  *Snapshot

	hooksMu     sync.Mutex
	beginUpdate []func(context.Context)
	endUpdate   []func(context.Context)
}

// NewCalculatorService creates a calculator in the empty state. providers may be nil, in which
// case nothing is traced or measured.
func NewCalculatorService(cfg *config.Config, providers *infrastructure.OTelProviders, logger *slog.Logger) (*CalculatorService, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		providers = infrastructure.NoopProviders()
	}

	alphas, err := poverty.AlphaSweep(cfg.Calculation.AlphaStep)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid alpha step", err)
	}

	metrics, err := infrastructure.NewCalculationMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create calculation metrics: %w", err)
	}

	concurrent := cfg.Calculation.MaxConcurrency
	if concurrent < 1 {
		concurrent = 1
	}

	return &CalculatorService{
		alphas:     alphas,
		concurrent: concurrent,
		export:     cfg.Export,
		reader:     records.NewReader(logger),
		exporter: exporter.New(exporter.Options{
			Precision:     cfg.Export.Precision,
			IncludeHeader: cfg.Export.IncludeHeader,
		}, logger),
		logger:  infrastructure.WithComponent(logger, "calculator"),
		tracer:  providers.Tracer,
		metrics: metrics,
		state:   emptySnapshot(),
	}, nil
}

// OnBeginUpdate registers fn to run when a load starts
func (c *CalculatorService) OnBeginUpdate(fn func(context.Context)) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.beginUpdate = append(c.beginUpdate, fn)
}

// OnEndUpdate registers fn to run when a load finishes, whether it failed or not
func (c *CalculatorService) OnEndUpdate(fn func(context.Context)) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.endUpdate = append(c.endUpdate, fn)
}

func (c *CalculatorService) fire(ctx context.Context, hooks *[]func(context.Context)) {
	c.hooksMu.Lock()
	fns := slices.Clone(*hooks)
	c.hooksMu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// State returns the current snapshot
func (c *CalculatorService) State() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *CalculatorService) setState(s *Snapshot) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Reset discards the resident state
func (c *CalculatorService) Reset() {
	c.setState(emptySnapshot())
}

// Alphas returns the mixing weights swept for every valid panel
func (c *CalculatorService) Alphas() []float64 {
	return append([]float64(nil), c.alphas...)
}

// LoadFile loads the observations file at path. See Load.
func (c *CalculatorService) LoadFile(ctx context.Context, path string) (*Snapshot, error) {
	return c.run(ctx, path, func() ([]poverty.Observation, error) {
		return c.reader.ReadFile(path)
	})
}

// Load reads observations from src and replaces the resident state with the dataset,
// panels and index results they produce. source names the input in logs and in the
// snapshot.
//
// Validation findings are not failures: they end up in Snapshot.Errors and stop the
// computation at the stage that found them. Every other problem fails the load with a
// LOAD AppError and leaves the calculator in the empty state.
func (c *CalculatorService) Load(ctx context.Context, src io.Reader, source string) (*Snapshot, error) {
	return c.run(ctx, source, func() ([]poverty.Observation, error) {
		return c.reader.Read(src)
	})
}

func (c *CalculatorService) run(ctx context.Context, source string, read func() ([]poverty.Observation, error)) (*Snapshot, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	runID := infrastructure.GenerateTraceID()
	ctx = infrastructure.WithTraceID(ctx, runID)
	ctx, span := c.tracer.Start(ctx, "calculator.load", trace.WithAttributes(
		attribute.String("pindex.source", source),
		attribute.String("pindex.run_id", runID),
	))
	defer span.End()

	start := time.Now()
	c.fire(ctx, &c.beginUpdate)
	defer c.fire(ctx, &c.endUpdate)

	c.logger.InfoContext(ctx, "loading dataset", slog.String("source", source))

	snap, err := c.load(ctx, read)
	stats := infrastructure.LoadStats{Duration: time.Since(start)}
	if err != nil {
		err = wrapLoadError(err, source)
		infrastructure.RecordError(ctx, err)
		empty := emptySnapshot()
		c.setState(empty)

		stats.Err = err
		c.metrics.RecordLoad(ctx, stats)
		c.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return empty, err
	}

	snap.RunID = runID
	snap.Source = source
	snap.LoadedAt = time.Now().UTC()
	c.setState(snap)

	stats.Observations = len(snap.Observations())
	stats.Panels = len(snap.panels)
	stats.IndexResults = len(snap.results)
	for _, e := range snap.errors {
		if e.Source == ErrorSourceDataset {
			stats.DatasetErrors++
		} else {
			stats.PanelErrors++
		}
	}
	c.metrics.RecordLoad(ctx, stats)

	span.SetAttributes(
		attribute.Int("pindex.observations", stats.Observations),
		attribute.Int("pindex.panels", stats.Panels),
		attribute.Int("pindex.errors", len(snap.errors)),
	)
	c.logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", source),
		slog.Int("observations", stats.Observations),
		slog.Int("people", len(snap.People())),
		slog.Int("panels", stats.Panels),
		slog.Int("errors", len(snap.errors)),
		slog.Int("results", stats.IndexResults),
		slog.Duration("duration", stats.Duration))
	return snap, nil
}

func wrapLoadError(err error, source string) error {
	if apperrors.IsType(err, apperrors.ErrTypeLoad) {
		return err
	}
	return apperrors.NewLoadError(err).WithContext("source", source)
}

func (c *CalculatorService) load(ctx context.Context, read func() ([]poverty.Observation, error)) (*Snapshot, error) {
	observations, err := read()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dsCtx, span := c.tracer.Start(ctx, "calculator.dataset")
	ds, err := poverty.NewDataset(dsCtx, observations, c.logger)
	span.End()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{dataset: ds}
	for _, e := range ds.Errors() {
		snap.errors = append(snap.errors, ApplicationError{Source: ErrorSourceDataset, Message: e.Message})
	}
	if !ds.IsValid() {
		return snap, nil
	}

	outcomes, err := c.computePanels(ctx, ds)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		snap.panels = append(snap.panels, o.summary)
		snap.errors = append(snap.errors, o.errors...)
		snap.results = append(snap.results, o.results...)
	}
	return snap, nil
}

type panelJob struct {
	yearMin int
	yearMax int
	cohort  []*poverty.PersonTimeline
}

type panelOutcome struct {
	summary PanelSummary
	errors  []ApplicationError
	results []poverty.PovertyIndexResult
}

// partition groups the people of a valid dataset into panels anchored at every year
// before the most recent one. A person belongs to the panel whose span equals its own.
func partition(ds *poverty.Dataset) []panelJob {
	var jobs []panelJob
	for year := ds.YearMin(); year < ds.YearMax(); year++ {
		span := 1 + (ds.YearMax() - year)
		cohort := ds.PeopleWithSpan(span)
		if len(cohort) == 0 {
			continue
		}
		jobs = append(jobs, panelJob{yearMin: year, yearMax: ds.YearMax(), cohort: cohort})
	}
	return jobs
}

// computePanels runs the panels at most c.concurrent at a time. Outcomes keep the order
// of the jobs regardless of completion order.
func (c *CalculatorService) computePanels(ctx context.Context, ds *poverty.Dataset) ([]panelOutcome, error) {
	jobs := partition(ds)
	outcomes := make([]panelOutcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrent)
	for i, job := range jobs {
		g.Go(func() error {
			out, err := c.computePanel(gctx, job, ds.RatioTable())
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (c *CalculatorService) computePanel(ctx context.Context, job panelJob, ratios *poverty.RatioTable) (panelOutcome, error) {
	if err := ctx.Err(); err != nil {
		return panelOutcome{}, err
	}

	ctx, span := c.tracer.Start(ctx, "calculator.panel", trace.WithAttributes(
		attribute.Int("pindex.year_min", job.yearMin),
		attribute.Int("pindex.year_max", job.yearMax),
		attribute.Int("pindex.people", len(job.cohort)),
	))
	defer span.End()

	pd, err := poverty.NewPanelData(job.yearMin, job.yearMax, job.cohort, ratios)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return panelOutcome{}, fmt.Errorf("panel %d-%d: %w", job.yearMin, job.yearMax, err)
	}

	out := panelOutcome{summary: PanelSummary{
		Name:      pd.Name(),
		YearMin:   pd.YearMin(),
		YearMax:   pd.YearMax(),
		WaveCount: pd.YearSpan(),
		People:    len(pd.People()),
		EverPoor:  len(pd.EverPoor()),
		Valid:     pd.IsValid(),
	}}

	if !pd.IsValid() {
		for _, e := range pd.Errors() {
			out.errors = append(out.errors, ApplicationError{Source: pd.Name(), Message: e.Message})
		}
		c.logger.WarnContext(ctx, "panel is not valid",
			slog.String("panel", pd.Name()),
			slog.Int("errors", len(out.errors)))
		return out, nil
	}

	for _, alpha := range c.alphas {
		results, err := pd.CalculatePovertyIndex(alpha)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return panelOutcome{}, err
		}
		out.results = append(out.results, results...)
	}
	out.summary.Results = len(out.results)

	c.logger.DebugContext(ctx, "panel computed",
		slog.String("panel", pd.Name()),
		slog.Int("ever_poor", out.summary.EverPoor),
		slog.Int("results", out.summary.Results))
	return out, nil
}
