package core

import "math"

// performanceStage derives running-style and earnings features from the
// in-race record: corner passing positions, finish time, and prize money.
type performanceStage struct{}

// NewPerformanceStage returns the in-race performance stage.
func NewPerformanceStage() Stage { return performanceStage{} }

func (performanceStage) Name() string { return "performance" }

var performanceFeatureNames = []string{
	"first_corner_position",
	"last_corner_position",
	"avg_corner_position",
	"corner_position_gain",
	"finish_time_seconds",
	"prize_money_won",
	"prize_money_log",
}

func (performanceStage) Apply(table *Table) (Contribution, error) {
	out := newContribution(performanceFeatureNames, table.Len())
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)

		// Corner passes of 0 mean the position was not recorded at that
		// corner (short courses have fewer than four).
		first, last, sum, count := 0, 0, 0, 0
		for _, pos := range row.CornerPassOrder {
			if pos <= 0 {
				continue
			}
			if count == 0 {
				first = pos
			}
			last = pos
			sum += pos
			count++
		}
		if count > 0 {
			out.Columns["first_corner_position"][i] = first
			out.Columns["last_corner_position"][i] = last
			out.Columns["avg_corner_position"][i] = float64(sum) / float64(count)
			out.Columns["corner_position_gain"][i] = first - last
		} else {
			out.Columns["first_corner_position"][i] = nil
			out.Columns["last_corner_position"][i] = nil
			out.Columns["avg_corner_position"][i] = nil
			out.Columns["corner_position_gain"][i] = nil
		}

		if row.FinishTime > 0 {
			out.Columns["finish_time_seconds"][i] = row.FinishTime
		} else {
			out.Columns["finish_time_seconds"][i] = nil
		}

		prize := prizeFor(row.PrizeByRank, row.FinishPosition)
		out.Columns["prize_money_won"][i] = prize
		out.Columns["prize_money_log"][i] = math.Log1p(float64(prize))
	}
	return out, nil
}

// prizeFor returns the payout for a finish position, 0 for positions
// outside the money.
func prizeFor(prizeByRank []int64, finishPosition int) int64 {
	if finishPosition < 1 || finishPosition > len(prizeByRank) {
		return 0
	}
	return prizeByRank[finishPosition-1]
}
