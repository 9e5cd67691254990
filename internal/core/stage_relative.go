package core

import "math"

// relativeStage derives within-race comparative features: deviations of an
// entry from its own race's field. It reads columns contributed by the
// base and performance stages, so it must run after them.
type relativeStage struct{}

// NewRelativeStage returns the within-race comparison stage.
func NewRelativeStage() Stage { return relativeStage{} }

func (relativeStage) Name() string { return "relative" }

var relativeFeatureNames = []string{
	"weight_carried_diff",
	"weight_carried_zscore",
	"horse_age_diff",
	"avg_corner_position_diff",
	"finish_position_pct",
}

func (relativeStage) Apply(table *Table) (Contribution, error) {
	out := newContribution(relativeFeatureNames, table.Len())
	for _, group := range table.groupByRace() {
		applyDeviation(table, out, group, "weight_carried", "weight_carried_diff", "weight_carried_zscore")
		applyDeviation(table, out, group, "horse_age", "horse_age_diff", "")
		applyDeviation(table, out, group, "avg_corner_position", "avg_corner_position_diff", "")

		for _, i := range group {
			row := table.Row(i)
			field := row.FieldSize
			if field <= 0 {
				field = len(group)
			}
			if row.FinishPosition > 0 && field > 0 {
				out.Columns["finish_position_pct"][i] = float64(row.FinishPosition) / float64(field)
			} else {
				out.Columns["finish_position_pct"][i] = nil
			}
		}
	}
	return out, nil
}

// applyDeviation fills diff (and optionally z-score) columns for one race
// group from a previously contributed source column. Null source cells get
// null outputs and are excluded from the group statistics.
func applyDeviation(table *Table, out Contribution, group []int, source, diffName, zscoreName string) {
	values := make(map[int]float64, len(group))
	sum := 0.0
	for _, i := range group {
		if v, ok := table.Float(source, i); ok {
			values[i] = v
			sum += v
		}
	}
	if len(values) == 0 {
		for _, i := range group {
			out.Columns[diffName][i] = nil
			if zscoreName != "" {
				out.Columns[zscoreName][i] = nil
			}
		}
		return
	}

	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(values)))

	for _, i := range group {
		v, ok := values[i]
		if !ok {
			out.Columns[diffName][i] = nil
			if zscoreName != "" {
				out.Columns[zscoreName][i] = nil
			}
			continue
		}
		diff := v - mean
		out.Columns[diffName][i] = diff
		if zscoreName != "" {
			// A uniform field has zero spread; the deviation is 0 by
			// definition, not undefined.
			if std == 0 {
				out.Columns[zscoreName][i] = 0.0
			} else {
				out.Columns[zscoreName][i] = diff / std
			}
		}
	}
}
