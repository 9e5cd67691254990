package core

import (
	"fmt"

	"keibacore/pkg/domain"
)

// Table is the working feature table for one batch: the source rows in
// caller order plus the feature columns accumulated by the stages. Row
// count and row identities are fixed at construction; stages contribute
// columns only.
type Table struct {
	rows    []domain.RaceRow
	keys    []domain.EntryKey
	columns map[string][]any
}

// NewTable wraps a batch of joined rows. The rows are treated as
// read-only; the table never mutates them.
func NewTable(rows []domain.RaceRow) *Table {
	keys := make([]domain.EntryKey, len(rows))
	for i, row := range rows {
		keys[i] = row.Key()
	}
	return &Table{
		rows:    rows,
		keys:    keys,
		columns: make(map[string][]any),
	}
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the source row at index i.
func (t *Table) Row(i int) domain.RaceRow { return t.rows[i] }

// Rows returns the source rows in order. Callers must not mutate them.
func (t *Table) Rows() []domain.RaceRow { return t.rows }

// Keys returns the (race_id, horse_id) identities in row order.
func (t *Table) Keys() []domain.EntryKey {
	out := make([]domain.EntryKey, len(t.keys))
	copy(out, t.keys)
	return out
}

// Column returns a feature column and whether it exists.
func (t *Table) Column(name string) ([]any, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Value returns one cell of a feature column; nil when the column is
// missing.
func (t *Table) Value(name string, i int) any {
	col, ok := t.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return nil
	}
	return col[i]
}

// Float returns a numeric cell as float64, with ok=false for null or
// non-numeric values.
func (t *Table) Float(name string, i int) (float64, bool) {
	switch v := t.Value(name, i).(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// addColumn attaches a stage-contributed column. The length must equal the
// row count; the chain enforces name uniqueness via the registry before
// calling this.
func (t *Table) addColumn(name string, values []any) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %s has %d values for %d rows", name, len(values), len(t.rows))
	}
	if _, exists := t.columns[name]; exists {
		return fmt.Errorf("column %s already present", name)
	}
	t.columns[name] = values
	return nil
}

// Export materializes the table as a stored run, with columns restricted
// to and ordered by the registry snapshot.
func (t *Table) Export(snapshot RegistrySnapshot) domain.StoredRun {
	columns := make(map[string][]any, len(snapshot))
	for _, f := range snapshot {
		if col, ok := t.columns[f.Name]; ok {
			cp := make([]any, len(col))
			copy(cp, col)
			columns[f.Name] = cp
		}
	}
	return domain.StoredRun{
		Features: append([]domain.FeatureIndex(nil), snapshot...),
		Keys:     t.Keys(),
		Columns:  columns,
	}
}

// groupByRace returns row indexes per race in first-seen race order.
// Relative stages use this to compute within-race aggregates.
func (t *Table) groupByRace() [][]int {
	order := make([]string, 0)
	groups := make(map[string][]int)
	for i, row := range t.rows {
		if _, seen := groups[row.RaceID]; !seen {
			order = append(order, row.RaceID)
		}
		groups[row.RaceID] = append(groups[row.RaceID], i)
	}
	out := make([][]int, len(order))
	for i, raceID := range order {
		out[i] = groups[raceID]
	}
	return out
}
