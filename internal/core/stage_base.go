package core

// baseStage derives the identity-level features of each entry: age at race
// time, encoded sex, and carried weight.
type baseStage struct{}

// NewBaseStage returns the base attribute stage.
func NewBaseStage() Stage { return baseStage{} }

func (baseStage) Name() string { return "base" }

var baseFeatureNames = []string{
	"horse_age",
	"horse_sex_encoded",
	"is_male",
	"is_female",
	"weight_carried",
}

// sexCodes is the registry encoding for sex strings as carried by the
// source records. Unknown strings encode as 0.
var sexCodes = map[string]int{
	"牡": 1,
	"牝": 2,
	"セ": 3,
}

func (baseStage) Apply(table *Table) (Contribution, error) {
	out := newContribution(baseFeatureNames, table.Len())
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)

		if row.BirthDate.IsZero() || row.RaceDate.IsZero() {
			out.Columns["horse_age"][i] = nil
		} else {
			age := row.RaceDate.Year() - row.BirthDate.Year()
			if row.RaceDate.YearDay() < row.BirthDate.YearDay() {
				age--
			}
			if age < 0 {
				age = 0
			}
			out.Columns["horse_age"][i] = age
		}

		sex := sexCodes[row.SexCode]
		out.Columns["horse_sex_encoded"][i] = sex
		out.Columns["is_male"][i] = sex == 1
		out.Columns["is_female"][i] = sex == 2

		out.Columns["weight_carried"][i] = row.Weight
	}
	return out, nil
}
