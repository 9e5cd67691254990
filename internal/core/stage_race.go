package core

// Distance-category boundaries in meters. Categories follow the common
// sprint / mile / intermediate / long split of Japanese flat racing.
const (
	sprintMax       = 1400
	mileMax         = 1800
	intermediateMax = 2200
)

// Field-size thresholds for the full-gate and small-field flags.
const (
	largeFieldMin = 15
	smallFieldMax = 8
)

// raceStage derives race-context features: categorical ranks for grade,
// class, and track codes plus distance, field-size, and calendar signals.
type raceStage struct {
	mapper *RankMapper
}

// NewRaceStage returns the race-context stage backed by the given mapper.
func NewRaceStage(mapper *RankMapper) Stage { return raceStage{mapper: mapper} }

func (raceStage) Name() string { return "race" }

var raceFeatureNames = []string{
	"race_class_rank",
	"is_graded_race",
	"is_g1_race",
	"class_code_rank",
	"track_rank",
	"distance_category",
	"distance_normalized",
	"distance_squared",
	"field_size_normalized",
	"is_large_field",
	"is_small_field",
	"race_month",
	"race_season",
}

func (s raceStage) Apply(table *Table) (Contribution, error) {
	out := newContribution(raceFeatureNames, table.Len())
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)

		out.Columns["race_class_rank"][i] = s.mapper.Map(row.GradeCode, TableGrade)
		out.Columns["is_graded_race"][i] = s.mapper.IsGraded(row.GradeCode, TableGrade)
		out.Columns["is_g1_race"][i] = s.mapper.IsTopGrade(row.GradeCode, TableGrade)
		out.Columns["class_code_rank"][i] = s.mapper.Map(row.ClassCode, TableClass)
		out.Columns["track_rank"][i] = s.mapper.Map(row.TrackCode, TableTrack)

		out.Columns["distance_category"][i] = distanceCategory(row.Distance)
		normalized := float64(row.Distance) / 1000.0
		out.Columns["distance_normalized"][i] = normalized
		out.Columns["distance_squared"][i] = normalized * normalized

		out.Columns["field_size_normalized"][i] = float64(row.FieldSize) / 18.0
		out.Columns["is_large_field"][i] = row.FieldSize >= largeFieldMin
		out.Columns["is_small_field"][i] = row.FieldSize > 0 && row.FieldSize <= smallFieldMax

		if row.RaceDate.IsZero() {
			out.Columns["race_month"][i] = nil
			out.Columns["race_season"][i] = nil
		} else {
			month := int(row.RaceDate.Month())
			out.Columns["race_month"][i] = month
			out.Columns["race_season"][i] = season(month)
		}
	}
	return out, nil
}

func distanceCategory(distance int) int {
	switch {
	case distance <= sprintMax:
		return 0
	case distance <= mileMax:
		return 1
	case distance <= intermediateMax:
		return 2
	default:
		return 3
	}
}

// season maps a month to 1=spring, 2=summer, 3=autumn, 4=winter.
func season(month int) int {
	switch {
	case month >= 3 && month <= 5:
		return 1
	case month >= 6 && month <= 8:
		return 2
	case month >= 9 && month <= 11:
		return 3
	default:
		return 4
	}
}
