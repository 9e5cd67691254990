package core

import (
	"errors"
	"testing"

	"keibacore/pkg/domain"
)

func TestRegistryAssignsSequentialIndexes(t *testing.T) {
	r := NewRegistry()
	names := []string{"horse_age", "weight_carried", "race_class_rank"}
	for want, name := range names {
		got, err := r.Register(name)
		if err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("index for %s: got %d want %d", name, got, want)
		}
	}
	if r.Count() != len(names) {
		t.Fatalf("count: got %d want %d", r.Count(), len(names))
	}
	for i, name := range r.Names() {
		if name != names[i] {
			t.Fatalf("names()[%d]: got %s want %s", i, name, names[i])
		}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("horse_age"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := r.Register("horse_age")
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
	var dup domain.DuplicateFeatureError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateFeatureError, got %T", err)
	}
	if dup.Name != "horse_age" {
		t.Fatalf("duplicate name: got %s", dup.Name)
	}
	if r.Count() != 1 {
		t.Fatalf("count after failed register: got %d want 1", r.Count())
	}
}

func TestRegistryExists(t *testing.T) {
	r := NewRegistry()
	if r.Exists("horse_age") {
		t.Fatalf("empty registry reports horse_age")
	}
	if _, err := r.Register("horse_age"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Exists("horse_age") {
		t.Fatalf("registered name not reported")
	}
}

func TestRegistrySnapshotIsOrderedAndDetached(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"b", "a", "c"} {
		if _, err := r.Register(name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	snap := r.Snapshot()
	want := []string{"b", "a", "c"}
	for i, f := range snap {
		if f.Name != want[i] || f.Index != i {
			t.Fatalf("snapshot[%d]: got (%s,%d) want (%s,%d)", i, f.Name, f.Index, want[i], i)
		}
	}
	snap[0].Name = "mutated"
	if r.Names()[0] != "b" {
		t.Fatalf("registry mutated through snapshot")
	}
}
