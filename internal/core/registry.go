// Package core implements the feature-extraction pipeline: the per-run
// feature registry, the working table, the categorical rank mapper, the
// extractor stages and chain, the validation gate, and the pipeline entry
// point.
package core

import "keibacore/pkg/domain"

// Registry is the per-run ledger of declared feature names. It enforces
// name uniqueness and fixes the output column order by registration
// sequence. A registry is scoped to exactly one pipeline run; it is not
// safe for concurrent use and must never be shared across batches.
type Registry struct {
	names   []string
	indexes map[string]int
}

// NewRegistry constructs an empty registry for a single run.
func NewRegistry() *Registry {
	return &Registry{indexes: make(map[string]int)}
}

// Register declares a feature name and returns its positional index.
// Registering a name twice within one run fails with
// domain.DuplicateFeatureError.
func (r *Registry) Register(name string) (int, error) {
	if _, exists := r.indexes[name]; exists {
		return 0, domain.DuplicateFeatureError{Name: name}
	}
	idx := len(r.names)
	r.names = append(r.names, name)
	r.indexes[name] = idx
	return idx, nil
}

// Exists reports whether the name has been registered in this run.
func (r *Registry) Exists(name string) bool {
	_, ok := r.indexes[name]
	return ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Count returns the number of registered names.
func (r *Registry) Count() int { return len(r.names) }

// Snapshot captures the ordered (name, index) pairs for serving-time
// alignment.
func (r *Registry) Snapshot() RegistrySnapshot {
	out := make(RegistrySnapshot, len(r.names))
	for i, name := range r.names {
		out[i] = domain.FeatureIndex{Name: name, Index: i}
	}
	return out
}

// RegistrySnapshot is an immutable, ordered view of a run's registry.
type RegistrySnapshot []domain.FeatureIndex

// Names returns the snapshot's feature names in column order.
func (s RegistrySnapshot) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}
