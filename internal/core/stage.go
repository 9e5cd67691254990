package core

// Contribution is a stage's output: the feature names it declares, in
// registration order, and one column per name with exactly one value per
// table row (nil = null).
type Contribution struct {
	Names   []string
	Columns map[string][]any
}

// Stage computes one named group of features over the working table. A
// stage is a pure function of the table it receives: it must not mutate
// the table or retain references to it, and it must emit the same feature
// names in the same order on every invocation so that training and
// serving observe identical column layouts.
type Stage interface {
	Name() string
	Apply(table *Table) (Contribution, error)
}

// newContribution pre-sizes a contribution for the fixed name list of a
// stage.
func newContribution(names []string, rows int) Contribution {
	columns := make(map[string][]any, len(names))
	for _, name := range names {
		columns[name] = make([]any, rows)
	}
	return Contribution{Names: names, Columns: columns}
}
