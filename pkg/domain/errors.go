package domain

import (
	"fmt"
	"strings"
)

// DuplicateFeatureError reports a feature name registered twice within one
// pipeline run.
type DuplicateFeatureError struct {
	Name string
}

func (e DuplicateFeatureError) Error() string {
	return fmt.Sprintf("feature %q already registered in this run", e.Name)
}

// ExtractionError wraps a stage failure with the stage name. The chain
// aborts the batch on the first occurrence; remaining stages do not run.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e ExtractionError) Unwrap() error { return e.Err }

// PedigreeDataError reports a malformed ancestor slot list. Slot is the
// 1-based offending slot index, or 0 when the list itself is malformed.
type PedigreeDataError struct {
	Slot   int
	Reason string
}

func (e PedigreeDataError) Error() string {
	if e.Slot == 0 {
		return fmt.Sprintf("pedigree data: %s", e.Reason)
	}
	return fmt.Sprintf("pedigree data: slot %d: %s", e.Slot, e.Reason)
}

// IntegrityProblem is one validation-gate finding about one feature.
type IntegrityProblem struct {
	Feature string
	Reason  string
}

// FeatureIntegrityError aggregates every validation-gate violation for a
// batch; it is never truncated to the first finding.
type FeatureIntegrityError struct {
	Problems []IntegrityProblem
}

func (e FeatureIntegrityError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("%s: %s", p.Feature, p.Reason)
	}
	return fmt.Sprintf("feature integrity: %d violation(s): %s", len(e.Problems), strings.Join(parts, "; "))
}

// Features returns the offending feature names in finding order.
func (e FeatureIntegrityError) Features() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Feature
	}
	return out
}
