package core

import (
	"fmt"
	"log/slog"
	"math"

	"keibacore/pkg/domain"
)

// Gate checks the chain's output against the structural invariants a
// downstream model depends on. It runs once per batch, after the last
// stage.
type Gate struct {
	cfg    Config
	logger *slog.Logger
}

// NewGate constructs a gate in the mode selected by cfg.StrictMode.
func NewGate(cfg Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = discardLogger()
	}
	return &Gate{cfg: cfg, logger: logger}
}

// Check validates the table against the registry. In strict mode any
// violation returns a domain.FeatureIntegrityError listing every offending
// feature; in lenient mode violations are logged and the batch passes
// through unmodified.
func (g *Gate) Check(table *Table, registry *Registry, inputRows int) error {
	var problems []domain.IntegrityProblem
	add := func(feature, reason string) {
		problems = append(problems, domain.IntegrityProblem{Feature: feature, Reason: reason})
	}

	if table.Len() != inputRows {
		add("(table)", fmt.Sprintf("output has %d rows, input had %d", table.Len(), inputRows))
	}

	columns := 0
	for _, name := range registry.Names() {
		col, ok := table.Column(name)
		if !ok {
			add(name, "registered feature has no output column")
			continue
		}
		columns++
		if len(col) != table.Len() {
			add(name, fmt.Sprintf("column has %d values for %d rows", len(col), table.Len()))
		}
		if allNull(col) && !g.cfg.allowsNull(name) {
			add(name, "column is entirely null")
		}
		if bad := nonFiniteCount(col); bad > 0 {
			add(name, fmt.Sprintf("column contains %d non-finite value(s)", bad))
		}
	}
	if columns != registry.Count() {
		add("(table)", fmt.Sprintf("table has %d of %d registered columns", columns, registry.Count()))
	}

	if len(problems) == 0 {
		return nil
	}
	if !g.cfg.StrictMode {
		for _, p := range problems {
			g.logger.Warn("feature integrity violation", "feature", p.Feature, "reason", p.Reason)
		}
		return nil
	}
	return domain.FeatureIntegrityError{Problems: problems}
}

func allNull(col []any) bool {
	if len(col) == 0 {
		return false
	}
	for _, v := range col {
		if v != nil {
			return false
		}
	}
	return true
}

func nonFiniteCount(col []any) int {
	n := 0
	for _, v := range col {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			n++
		}
	}
	return n
}
