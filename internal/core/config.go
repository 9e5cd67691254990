package core

import "fmt"

// Config carries the caller-controlled pipeline options. The zero value is
// not valid; obtain defaults via DefaultConfig and override fields as
// needed.
type Config struct {
	// StrictMode selects the validation-gate mode: strict returns
	// FeatureIntegrityError and discards the batch, lenient logs the
	// findings and passes the batch through. The mode is always explicit;
	// there is no silent default at the gate.
	StrictMode bool
	// PedigreeDepth restricts ancestry analysis to 1..3 generations.
	PedigreeDepth int
	// RankTables overrides the built-in categorical rank tables by name.
	RankTables map[string]RankTable
	// AllowNullFeatures lists features the gate accepts as entirely null.
	AllowNullFeatures []string
}

// DefaultConfig returns the baseline configuration: strict gate, full
// 3-generation pedigree depth, built-in rank tables, and the
// known-sparse pedigree columns allow-listed.
func DefaultConfig() Config {
	return Config{
		StrictMode:    true,
		PedigreeDepth: 3,
		AllowNullFeatures: []string{
			// Null for every horse without a detected shared ancestor.
			"nearest_common_ancestor_generation",
			// Null whenever the parent slot itself is unknown.
			"sire_line_encoded",
			"dam_line_encoded",
		},
	}
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if c.PedigreeDepth < 1 || c.PedigreeDepth > 3 {
		return fmt.Errorf("pedigree depth %d out of range 1..3", c.PedigreeDepth)
	}
	return nil
}

func (c Config) allowsNull(name string) bool {
	for _, allowed := range c.AllowNullFeatures {
		if allowed == name {
			return true
		}
	}
	return false
}
