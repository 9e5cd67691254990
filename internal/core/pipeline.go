package core

import (
	"context"
	"log/slog"
	"time"

	"keibacore/pkg/domain"
)

// Pipeline is the batch entry point: it runs the stage chain over a set of
// joined rows, gates the result, and returns the feature table with its
// registry snapshot. A pipeline value is reusable across batches; each Run
// allocates its own registry and table, so batches may be processed
// concurrently.
type Pipeline struct {
	cfg     Config
	logger  *slog.Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option configures a pipeline.
type Option func(*Pipeline)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(p *Pipeline) {
		if metrics != nil {
			p.metrics = metrics
		}
	}
}

// WithTracer attaches a tracer.
func WithTracer(tracer Tracer) Option {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPipeline validates the configuration and constructs a pipeline.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		logger:  discardLogger(),
		metrics: NoopMetricsRecorder{},
		tracer:  NoopTracer{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Result is one completed batch: the feature table plus the ordered
// registry snapshot a serving-time consumer aligns against.
type Result struct {
	Table    *Table
	Registry RegistrySnapshot
}

// DefaultStages returns the standard stage list in dependency order. The
// relative stage reads base and performance columns, so it runs after
// them.
func DefaultStages(cfg Config, logger *slog.Logger) []Stage {
	mapper := NewRankMapper(cfg.RankTables, logger)
	return []Stage{
		NewBaseStage(),
		NewPerformanceStage(),
		NewRaceStage(mapper),
		NewRelativeStage(),
		NewPedigreeStage(cfg.PedigreeDepth),
	}
}

// Run executes the stages over the rows with a fresh registry and table,
// then gates the output. Identical rows, stage list, and configuration
// produce identical columns in identical order on every run.
func (p *Pipeline) Run(ctx context.Context, rows []domain.RaceRow, stages []Stage) (Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline_run")
	started := time.Now()

	result, err := p.run(ctx, rows, stages)

	p.metrics.Observe(ctx, "pipeline_run", err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		p.logger.Error("pipeline run failed", "rows", len(rows), "error", err)
		return Result{}, err
	}
	p.logger.Info("pipeline run complete",
		"rows", len(rows),
		"features", len(result.Registry),
		"duration", time.Since(started))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, rows []domain.RaceRow, stages []Stage) (Result, error) {
	table := NewTable(rows)
	registry := NewRegistry()

	chain := NewChain(stages, p.logger, p.metrics)
	if err := chain.Run(ctx, table, registry); err != nil {
		return Result{}, err
	}

	gate := NewGate(p.cfg, p.logger)
	if err := gate.Check(table, registry, len(rows)); err != nil {
		return Result{}, err
	}

	return Result{Table: table, Registry: registry.Snapshot()}, nil
}
