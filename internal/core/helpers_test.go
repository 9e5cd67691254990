package core

import (
	"time"

	"keibacore/pkg/domain"
)

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nullAncestors() []*string {
	return make([]*string, domain.AncestorSlotCount)
}

func strPtr(s string) *string { return &s }

// threeHorseG1 builds one G1 race with three entries and fully null
// pedigrees.
func threeHorseG1() []domain.RaceRow {
	base := domain.RaceRow{
		RaceID:      "202405021211",
		GradeCode:   "G1",
		TrackCode:   "05",
		Distance:    2400,
		FieldSize:   18,
		PrizeByRank: []int64{30000, 12000, 7500},
		RaceDate:    testDate(2024, time.May, 26),
	}

	a := base
	a.HorseID = "H001"
	a.JockeyID = "J01"
	a.SexCode = "牡"
	a.BirthDate = testDate(2020, time.March, 10)
	a.Weight = 58
	a.FinishPosition = 1
	a.CornerPassOrder = [4]int{3, 3, 2, 1}
	a.FinishTime = 145.2
	a.Ancestors = nullAncestors()

	b := base
	b.HorseID = "H002"
	b.JockeyID = "J02"
	b.SexCode = "牝"
	b.BirthDate = testDate(2020, time.April, 2)
	b.Weight = 56
	b.FinishPosition = 2
	b.CornerPassOrder = [4]int{10, 9, 7, 4}
	b.FinishTime = 145.5
	b.Ancestors = nullAncestors()

	c := base
	c.HorseID = "H003"
	c.JockeyID = "J03"
	c.SexCode = "セ"
	c.BirthDate = testDate(2019, time.February, 20)
	c.Weight = 58
	c.FinishPosition = 18
	c.CornerPassOrder = [4]int{18, 18, 17, 16}
	c.FinishTime = 148.0
	c.Ancestors = nullAncestors()

	return []domain.RaceRow{a, b, c}
}
