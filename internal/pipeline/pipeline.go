// Package pipeline sequences loading, cleaning, profiling and the analysis
// engine over one file and assembles the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/profile"
	"github.com/KaramelBytes/datalens-cli/internal/report"
)

// Loader reads a file into a dataset.
type Loader interface {
	Load(path string, opt dataset.Options) (*dataset.Dataset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string, opt dataset.Options) (*dataset.Dataset, error)

func (f LoaderFunc) Load(path string, opt dataset.Options) (*dataset.Dataset, error) {
	return f(path, opt)
}

// Cleaner returns a cleaned copy of a dataset.
type Cleaner interface {
	Clean(d *dataset.Dataset) *dataset.Dataset
}

// CleanerFunc adapts a function to Cleaner.
type CleanerFunc func(d *dataset.Dataset) *dataset.Dataset

func (f CleanerFunc) Clean(d *dataset.Dataset) *dataset.Dataset { return f(d) }

// Profiler explores a dataset and classifies its business domain.
type Profiler interface {
	Explore(d *dataset.Dataset) *profile.Profile
}

// ProfilerFunc adapts a function to Profiler.
type ProfilerFunc func(d *dataset.Dataset) *profile.Profile

func (f ProfilerFunc) Explore(d *dataset.Dataset) *profile.Profile { return f(d) }

// Screener runs the predictive screen.
type Screener interface {
	Screen(cols analysis.Columns) analysis.PredictiveScreen
}

// Orchestrator runs one analysis per call and keeps no state between calls.
type Orchestrator struct {
	engine   *analysis.Engine
	opts     dataset.Options
	loader   Loader
	cleaner  Cleaner
	profiler Profiler
	screener Screener
	now      func() time.Time
	log      *logging.Logger
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

func WithLoader(l Loader) Option            { return func(o *Orchestrator) { o.loader = l } }
func WithCleaner(c Cleaner) Option          { return func(o *Orchestrator) { o.cleaner = c } }
func WithProfiler(p Profiler) Option        { return func(o *Orchestrator) { o.profiler = p } }
func WithScreener(s Screener) Option        { return func(o *Orchestrator) { o.screener = s } }
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }
func WithLogger(l *logging.Logger) Option   { return func(o *Orchestrator) { o.log = l } }

// WithDatasetOptions sets the reader options passed to the loader.
func WithDatasetOptions(opt dataset.Options) Option {
	return func(o *Orchestrator) { o.opts = opt }
}

// New builds an orchestrator over engine with the default collaborators.
func New(engine *analysis.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:   engine,
		opts:     dataset.DefaultOptions(),
		loader:   LoaderFunc(dataset.Load),
		cleaner:  CleanerFunc(dataset.Clean),
		profiler: ProfilerFunc(profile.Explore),
		now:      time.Now,
		log:      logging.Nop(),
	}
	if engine != nil {
		o.screener = engine.Screener
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run analyzes the file at path. It never returns nil and never panics; any
// failure becomes a failure report.
func (o *Orchestrator) Run(path string) *report.AnalysisReport {
	start := o.now()
	rep, err := o.run(path)
	if err != nil {
		var se *StageError
		stage := "unknown"
		if errors.As(err, &se) {
			stage = se.Stage
		}
		o.log.Error("analysis failed", zap.String("path", path), zap.String("stage", stage), zap.Error(err))
		return report.Failure(err.Error(), o.now())
	}
	o.log.Info("analysis complete",
		zap.String("path", path),
		zap.Int("rows", rep.FileInfo.Rows),
		zap.Int("columns", rep.FileInfo.Columns),
		zap.String("domain", rep.Analysis.DomainLabel()),
		zap.Duration("elapsed", o.now().Sub(start)),
	)
	return rep
}

// RunContext runs the analysis in its own goroutine and abandons it when ctx
// ends first. The abandoned run completes in the background and is discarded.
func (o *Orchestrator) RunContext(ctx context.Context, path string) (*report.AnalysisReport, error) {
	done := make(chan *report.AnalysisReport, 1)
	go func() { done <- o.Run(path) }()
	select {
	case rep := <-done:
		return rep, nil
	case <-ctx.Done():
		o.log.Warn("analysis abandoned", zap.String("path", path), zap.Error(ctx.Err()))
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) run(path string) (*report.AnalysisReport, error) {
	if o.engine == nil {
		return nil, &StageError{Stage: StageStatistics, Err: errors.New("analysis engine not configured")}
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &StageError{Stage: StageLoad, Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
		}
		return nil, &StageError{Stage: StageLoad, Err: err}
	}

	var raw, clean *dataset.Dataset
	var prof *profile.Profile
	err := o.stage(StageLoad, func() error {
		d, err := o.loader.Load(path, o.opts)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrEmptyLoad
		}
		raw = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := o.stage(StageClean, func() error {
		clean = o.cleaner.Clean(raw)
		if clean == nil {
			return ErrEmptyLoad
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := o.stage(StageProfile, func() error {
		prof = o.profiler.Explore(clean)
		return nil
	}); err != nil {
		return nil, err
	}

	cols := analysis.Classify(clean)
	var st *analysis.Statistics
	if err := o.stage(StageStatistics, func() error {
		st = analysis.ComputeStatistics(clean, cols, o.engine.Thresholds)
		return nil
	}); err != nil {
		return nil, err
	}
	var ins analysis.InsightBundle
	if err := o.stage(StageInsights, func() error {
		ins = o.engine.Insights.Generate(clean, cols, st, st.DataQuality, prof.DomainLabel())
		return nil
	}); err != nil {
		return nil, err
	}
	var vis analysis.Visualizations
	if err := o.stage(StageVisualizations, func() error {
		vis = o.engine.Charts.Recommend(cols)
		return nil
	}); err != nil {
		return nil, err
	}

	pred := analysis.PredictiveScreen{}
	if clean.Rows() > o.engine.Thresholds.PredictiveMinRows {
		// A failed screen is reported inside the section rather than failing the run.
		if err := o.stage(StagePredictions, func() error {
			pred = o.screener.Screen(cols)
			return nil
		}); err != nil {
			pred = analysis.PredictiveScreen{Error: "predictive analysis error: " + err.Error()}
		}
	}

	return &report.AnalysisReport{
		Success:   true,
		Timestamp: o.now().Format(report.TimestampLayout),
		FileInfo: &report.FileInfo{
			Path:        absPath(raw.Path, path),
			Type:        fileType(raw, path),
			Rows:        raw.Rows(),
			Columns:     raw.Width(),
			ColumnNames: raw.Names(),
		},
		Analysis:       prof,
		Statistics:     st,
		Insights:       &ins,
		Visualizations: &vis,
		Predictions:    &pred,
	}, nil
}

// stage runs fn, converting a returned error or a panic into a StageError.
func (o *Orchestrator) stage(name string, fn func() error) (err error) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: name, Err: recovered(r)}
		}
		o.log.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", o.now().Sub(start)), zap.Bool("ok", err == nil))
	}()
	if err := fn(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

func fileType(d *dataset.Dataset, path string) string {
	if d.Format != "" {
		return d.Format
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func absPath(p, fallback string) string {
	if p != "" {
		return p
	}
	if abs, err := filepath.Abs(fallback); err == nil {
		return abs
	}
	return fallback
}
