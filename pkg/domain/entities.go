// Package domain defines the entities, value types, ancestor-slot layout,
// error taxonomy, and persistence contracts shared by the keibacore feature
// pipeline and its infrastructure adapters.
package domain

import "time"

// AncestorSlotCount is the number of flat ancestor references carried by a
// horse record: 2 parents, 4 grandparents, 8 great-grandparents.
const AncestorSlotCount = 14

// Horse is a registered horse as supplied by the external data layer.
// Ancestors holds the 14 flat pedigree slots; nil means unknown.
type Horse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	BirthDate time.Time `json:"birth_date"`
	SexCode   string    `json:"sex_code"`
	Ancestors []*string `json:"ancestors"`
}

// Race is a single race card with its coded attributes.
type Race struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	GradeCode   string    `json:"grade_code"`
	ClassCode   string    `json:"class_code"`
	TrackCode   string    `json:"track_code"`
	Distance    int       `json:"distance"`
	FieldSize   int       `json:"field_size"`
	PrizeByRank []int64   `json:"prize_by_rank"`
}

// RaceEntry is one horse's start in one race, keyed by (RaceID, HorseID).
type RaceEntry struct {
	RaceID          string  `json:"race_id"`
	HorseID         string  `json:"horse_id"`
	JockeyID        string  `json:"jockey_id"`
	TrainerID       string  `json:"trainer_id"`
	OwnerID         string  `json:"owner_id"`
	Weight          float64 `json:"weight"`
	FinishPosition  int     `json:"finish_position"`
	CornerPassOrder [4]int  `json:"corner_pass_order"`
	FinishTime      float64 `json:"finish_time"`
}

// RaceRow is a joined race/entry/horse record, the unit the pipeline
// consumes. The data layer owns the join; the pipeline treats rows as
// read-only.
type RaceRow struct {
	RaceID          string    `json:"race_id"`
	HorseID         string    `json:"horse_id"`
	JockeyID        string    `json:"jockey_id"`
	TrainerID       string    `json:"trainer_id"`
	OwnerID         string    `json:"owner_id"`
	GradeCode       string    `json:"grade_code"`
	TrackCode       string    `json:"track_code"`
	ClassCode       string    `json:"class_code"`
	Distance        int       `json:"distance"`
	FieldSize       int       `json:"field_size"`
	Weight          float64   `json:"weight"`
	FinishPosition  int       `json:"finish_position"`
	CornerPassOrder [4]int    `json:"corner_pass_order"`
	FinishTime      float64   `json:"finish_time"`
	PrizeByRank     []int64   `json:"prize_by_rank,omitempty"`
	Ancestors       []*string `json:"ancestors"`
	BirthDate       time.Time `json:"birth_date"`
	SexCode         string    `json:"sex_code"`
	RaceDate        time.Time `json:"race_date"`
}

// Key returns the composite identity of the row.
func (r RaceRow) Key() EntryKey {
	return EntryKey{RaceID: r.RaceID, HorseID: r.HorseID}
}

// EntryKey identifies one feature-table row: one horse in one race.
type EntryKey struct {
	RaceID  string `json:"race_id"`
	HorseID string `json:"horse_id"`
}

// FeatureIndex is one (name, position) pair of a registry snapshot. The
// index is the output column position; serving-time consumers align their
// input vectors against the snapshot order.
type FeatureIndex struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}
