package domain

import "fmt"

// Generation is the depth of an ancestor slot relative to the horse itself:
// 1 = parent, 2 = grandparent, 3 = great-grandparent.
type Generation int

// AncestorPosition describes one of the 14 fixed pedigree slots. Branch is
// the path from the horse, one letter per generation: "s" sire, "d" dam,
// so "ds" is the dam's sire.
type AncestorPosition struct {
	Slot       int        `json:"slot"` // 1-based
	Generation Generation `json:"generation"`
	Branch     string     `json:"branch"`
}

// ancestorPositions is the fixed slot -> (generation, branch) bijection.
// Slot order follows the flat layout of the source records: parents,
// grandparents in sire-first order, then great-grandparents in the
// analogous positional order. This table is an invariant of the data model
// and must never be reordered.
var ancestorPositions = [AncestorSlotCount]AncestorPosition{
	{Slot: 1, Generation: 1, Branch: "s"},
	{Slot: 2, Generation: 1, Branch: "d"},
	{Slot: 3, Generation: 2, Branch: "ss"},
	{Slot: 4, Generation: 2, Branch: "sd"},
	{Slot: 5, Generation: 2, Branch: "ds"},
	{Slot: 6, Generation: 2, Branch: "dd"},
	{Slot: 7, Generation: 3, Branch: "sss"},
	{Slot: 8, Generation: 3, Branch: "ssd"},
	{Slot: 9, Generation: 3, Branch: "sds"},
	{Slot: 10, Generation: 3, Branch: "sdd"},
	{Slot: 11, Generation: 3, Branch: "dss"},
	{Slot: 12, Generation: 3, Branch: "dsd"},
	{Slot: 13, Generation: 3, Branch: "dds"},
	{Slot: 14, Generation: 3, Branch: "ddd"},
}

// AncestorPositionFor returns the fixed position bound to a 1-based slot
// number.
func AncestorPositionFor(slot int) (AncestorPosition, error) {
	if slot < 1 || slot > AncestorSlotCount {
		return AncestorPosition{}, fmt.Errorf("ancestor slot %d out of range 1..%d", slot, AncestorSlotCount)
	}
	return ancestorPositions[slot-1], nil
}

// AncestorPositions returns a copy of the full bijection table in slot
// order.
func AncestorPositions() []AncestorPosition {
	out := make([]AncestorPosition, AncestorSlotCount)
	copy(out, ancestorPositions[:])
	return out
}

// SlotSire and SlotDam are the two lineage-defining slots.
const (
	SlotSire = 1
	SlotDam  = 2
)
