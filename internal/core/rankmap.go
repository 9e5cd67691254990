package core

import "log/slog"

// RankTable maps coded categorical values to numeric ranks. Fallback is
// returned for codes absent from the table; lookups never fail because
// race-code catalogs evolve and historical records carry obsolete codes.
type RankTable struct {
	Ranks           map[string]int `json:"ranks"`
	Fallback        int            `json:"fallback"`
	GradedThreshold int            `json:"graded_threshold,omitempty"`
}

// MaxRank returns the highest rank present in the table, or the fallback
// for an empty table.
func (t RankTable) MaxRank() int {
	max := t.Fallback
	first := true
	for _, rank := range t.Ranks {
		if first || rank > max {
			max = rank
			first = false
		}
	}
	return max
}

// Built-in table names.
const (
	TableGrade = "grade"
	TableTrack = "track"
	TableClass = "class"
)

// defaultRankTables reproduces the historical code catalogs, including the
// coexisting roman/ascii grade spellings found in older records. Unmapped
// spellings deliberately fall back to rank 0 rather than guessing aliases.
func defaultRankTables() map[string]RankTable {
	return map[string]RankTable{
		TableGrade: {
			Ranks: map[string]int{
				"G1": 10, "GⅠ": 10, "GI": 10,
				"G2": 9, "GⅡ": 9, "GII": 9,
				"G3": 8, "GⅢ": 8, "GIII": 8,
				"L": 7, "Listed": 7,
				"OP": 6, "Open": 6, "オープン": 6,
			},
			Fallback:        0,
			GradedThreshold: 8,
		},
		TableClass: {
			Ranks: map[string]int{
				"3勝": 5, "1600万": 5,
				"2勝": 4, "1000万": 4,
				"1勝": 3, "500万": 3,
				"新馬": 2,
				"未勝利": 1,
			},
			Fallback: 0,
		},
		TableTrack: {
			Ranks: map[string]int{
				"05": 10, // Tokyo
				"06": 9,  // Nakayama
				"09": 9,  // Hanshin
				"08": 9,  // Kyoto
				"07": 7,  // Chukyo
				"04": 6,  // Niigata
				"01": 5,  // Sapporo
				"02": 5,  // Hakodate
				"03": 5,  // Fukushima
				"10": 5,  // Kokura
			},
			Fallback: 0,
		},
	}
}

// RankMapper resolves coded categorical values against named rank tables.
// Tables are read-only after construction and safe for concurrent lookups.
type RankMapper struct {
	tables map[string]RankTable
	logger *slog.Logger
}

// NewRankMapper builds a mapper from the built-in tables merged with the
// supplied overrides (override tables replace built-ins wholesale). The
// logger, when non-nil, receives a warning per fallback lookup.
func NewRankMapper(overrides map[string]RankTable, logger *slog.Logger) *RankMapper {
	tables := defaultRankTables()
	for name, table := range overrides {
		tables[name] = table
	}
	return &RankMapper{tables: tables, logger: logger}
}

// Map resolves a code against a named table, degrading to the table's
// fallback for unknown codes and to 0 for unknown tables.
func (m *RankMapper) Map(code, tableName string) int {
	table, ok := m.tables[tableName]
	if !ok {
		m.warn("unknown rank table", tableName, code)
		return 0
	}
	if rank, ok := table.Ranks[code]; ok {
		return rank
	}
	m.warn("unmapped code, using fallback rank", tableName, code)
	return table.Fallback
}

// IsGraded reports whether the code's rank reaches the table's graded
// threshold. Tables without a threshold never report graded.
func (m *RankMapper) IsGraded(code, tableName string) bool {
	table, ok := m.tables[tableName]
	if !ok || table.GradedThreshold == 0 {
		return false
	}
	return m.Map(code, tableName) >= table.GradedThreshold
}

// IsTopGrade reports whether the code maps to the table's maximum rank.
func (m *RankMapper) IsTopGrade(code, tableName string) bool {
	table, ok := m.tables[tableName]
	if !ok {
		return false
	}
	rank, ok := table.Ranks[code]
	return ok && rank == table.MaxRank()
}

func (m *RankMapper) warn(msg, tableName, code string) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(msg, "table", tableName, "code", code)
}
