package core

import (
	"hash/fnv"

	"keibacore/internal/pedigree"
)

// lineageBuckets is the modulus of the lineage identifier encoding. The
// encoding is a stable hash bucket, not an ordinal: equal identifiers
// always encode equally, distinct ones collide rarely at this size.
const lineageBuckets = 10000

// pedigreeStage derives ancestry features by resolving each row's flat
// ancestor slots through the pedigree resolver.
type pedigreeStage struct {
	resolver *pedigree.Resolver
}

// NewPedigreeStage returns the ancestry stage restricted to the given
// generation depth.
func NewPedigreeStage(depth int) Stage {
	return pedigreeStage{resolver: pedigree.New(depth)}
}

func (pedigreeStage) Name() string { return "pedigree" }

var pedigreeFeatureNames = []string{
	"has_inbreeding",
	"inbreeding_coefficient",
	"nearest_common_ancestor_generation",
	"sire_line_encoded",
	"dam_line_encoded",
	"known_ancestor_count",
	"pedigree_completeness",
}

func (s pedigreeStage) Apply(table *Table) (Contribution, error) {
	out := newContribution(pedigreeFeatureNames, table.Len())
	for i := 0; i < table.Len(); i++ {
		summary, err := s.resolver.Resolve(table.Row(i).Ancestors)
		if err != nil {
			return Contribution{}, err
		}

		out.Columns["has_inbreeding"][i] = summary.HasInbreeding
		out.Columns["inbreeding_coefficient"][i] = summary.InbreedingCoefficient
		if summary.NearestCommonAncestorGeneration != nil {
			out.Columns["nearest_common_ancestor_generation"][i] = *summary.NearestCommonAncestorGeneration
		} else {
			out.Columns["nearest_common_ancestor_generation"][i] = nil
		}

		out.Columns["sire_line_encoded"][i] = encodeLineage(summary.SireLineID)
		out.Columns["dam_line_encoded"][i] = encodeLineage(summary.DamLineID)

		out.Columns["known_ancestor_count"][i] = summary.KnownAncestors
		out.Columns["pedigree_completeness"][i] = float64(summary.KnownAncestors) / float64(summary.ConsideredSlots)
	}
	return out, nil
}

// encodeLineage hashes an ancestor identifier into a stable bucket; nil for
// unknown lineage.
func encodeLineage(id *string) any {
	if id == nil {
		return nil
	}
	h := fnv.New32a()
	h.Write([]byte(*id))
	return int(h.Sum32() % lineageBuckets)
}
