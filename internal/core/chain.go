package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"keibacore/pkg/domain"
)

// Chain runs an ordered list of stages over a working table, registering
// each stage's declared names before accepting its columns. The stage
// order is a strict total order defined by the caller; later stages may
// read columns contributed by earlier ones.
//
// There is no partial-success mode: the first stage failure or name
// collision aborts the remaining stages and the batch is discarded, since
// a partial table would silently mis-align with a downstream model's
// expected column set.
type Chain struct {
	stages  []Stage
	logger  *slog.Logger
	metrics MetricsRecorder
}

// NewChain constructs a chain over the given stages.
func NewChain(stages []Stage, logger *slog.Logger, metrics MetricsRecorder) *Chain {
	if logger == nil {
		logger = discardLogger()
	}
	return &Chain{stages: stages, logger: logger, metrics: metrics}
}

// Run executes every stage in order against the table, registering new
// feature names in the supplied per-run registry. Failures are wrapped as
// domain.ExtractionError carrying the stage name.
func (c *Chain) Run(ctx context.Context, table *Table, registry *Registry) error {
	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			return domain.ExtractionError{Stage: stage.Name(), Err: err}
		}
		started := time.Now()
		err := c.runStage(stage, table, registry)
		c.observe(ctx, "stage_"+stage.Name(), err == nil, time.Since(started))
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) runStage(stage Stage, table *Table, registry *Registry) error {
	contribution, err := stage.Apply(table)
	if err != nil {
		return domain.ExtractionError{Stage: stage.Name(), Err: err}
	}
	for _, name := range contribution.Names {
		if _, err := registry.Register(name); err != nil {
			return domain.ExtractionError{Stage: stage.Name(), Err: err}
		}
		column, ok := contribution.Columns[name]
		if !ok {
			return domain.ExtractionError{Stage: stage.Name(), Err: fmt.Errorf("declared feature %s has no column", name)}
		}
		if err := table.addColumn(name, column); err != nil {
			return domain.ExtractionError{Stage: stage.Name(), Err: err}
		}
	}
	c.logger.Debug("stage complete", "stage", stage.Name(), "features", len(contribution.Names))
	return nil
}

func (c *Chain) observe(ctx context.Context, operation string, success bool, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Observe(ctx, operation, success, d)
}
