// Package pedigree reconstructs a fixed-depth ancestry tree from the 14
// flat ancestor slots of a horse record and derives lineage and inbreeding
// features from it.
package pedigree

import (
	"math"
	"strings"

	"keibacore/pkg/domain"
)

// MaxDepth is the deepest generation the flat slot layout can express.
const MaxDepth = 3

// Node is one resolved ancestor occurrence: a known identifier bound to its
// fixed position in the tree.
type Node struct {
	Position   domain.AncestorPosition
	AncestorID string
}

// Coincidence records one shared ancestor across two distinct slots.
type Coincidence struct {
	AncestorID   string
	SlotA        int
	SlotB        int
	DepthA       int
	DepthB       int
	Contribution float64
}

// Summary is the feature-ready output of resolving one horse's slots.
type Summary struct {
	SireLineID                      *string
	DamLineID                       *string
	KnownAncestors                  int
	ConsideredSlots                 int
	HasInbreeding                   bool
	InbreedingCoefficient           float64
	NearestCommonAncestorGeneration *int
	Coincidences                    []Coincidence
}

// Resolver parses ancestor slot lists up to a configured generation depth.
// The zero value is not usable; construct with New.
type Resolver struct {
	depth int
}

// New returns a resolver restricted to the given generation depth (1..3).
// Depths outside the range are clamped to it.
func New(depth int) *Resolver {
	if depth < 1 {
		depth = 1
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return &Resolver{depth: depth}
}

// Depth reports the configured analysis depth.
func (r *Resolver) Depth() int { return r.depth }

// Resolve validates the slot list, builds the tree restricted to the
// configured depth, and derives the lineage summary.
//
// Slots beyond the configured depth are ignored entirely; they are still
// validated for shape so malformed source rows surface regardless of the
// configured depth. Two unknown (nil) slots never form a coincidence.
func (r *Resolver) Resolve(slots []*string) (Summary, error) {
	nodes, err := r.parse(slots)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		ConsideredSlots: consideredSlots(r.depth),
		KnownAncestors:  len(nodes),
	}
	for _, node := range nodes {
		switch node.Position.Slot {
		case domain.SlotSire:
			id := node.AncestorID
			summary.SireLineID = &id
		case domain.SlotDam:
			id := node.AncestorID
			summary.DamLineID = &id
		}
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].AncestorID != nodes[j].AncestorID {
				continue
			}
			di := int(nodes[i].Position.Generation)
			dj := int(nodes[j].Position.Generation)
			c := Coincidence{
				AncestorID:   nodes[i].AncestorID,
				SlotA:        nodes[i].Position.Slot,
				SlotB:        nodes[j].Position.Slot,
				DepthA:       di,
				DepthB:       dj,
				Contribution: math.Pow(0.5, float64(di+dj+1)),
			}
			summary.Coincidences = append(summary.Coincidences, c)
			summary.InbreedingCoefficient += c.Contribution
			combined := di + dj
			if summary.NearestCommonAncestorGeneration == nil || combined < *summary.NearestCommonAncestorGeneration {
				nearest := combined
				summary.NearestCommonAncestorGeneration = &nearest
			}
		}
	}
	summary.HasInbreeding = len(summary.Coincidences) > 0

	return summary, nil
}

// parse validates all 14 slots and returns the known nodes within depth, in
// slot order.
func (r *Resolver) parse(slots []*string) ([]Node, error) {
	if len(slots) != domain.AncestorSlotCount {
		slot := len(slots) + 1
		if len(slots) > domain.AncestorSlotCount {
			slot = domain.AncestorSlotCount + 1
		}
		return nil, domain.PedigreeDataError{Slot: slot, Reason: "slot list must contain exactly 14 entries"}
	}

	nodes := make([]Node, 0, domain.AncestorSlotCount)
	for i, ref := range slots {
		pos, err := domain.AncestorPositionFor(i + 1)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			continue
		}
		id := strings.TrimSpace(*ref)
		if id == "" {
			return nil, domain.PedigreeDataError{Slot: pos.Slot, Reason: "ancestor identifier is empty"}
		}
		if int(pos.Generation) > r.depth {
			continue
		}
		nodes = append(nodes, Node{Position: pos, AncestorID: id})
	}
	return nodes, nil
}

func consideredSlots(depth int) int {
	// 2 + 4 + 8 slots per generation.
	switch depth {
	case 1:
		return 2
	case 2:
		return 6
	default:
		return domain.AncestorSlotCount
	}
}
