package core

import "testing"

func TestConfigValidateDepthRange(t *testing.T) {
	for _, depth := range []int{1, 2, 3} {
		cfg := DefaultConfig()
		cfg.PedigreeDepth = depth
		if err := cfg.Validate(); err != nil {
			t.Fatalf("depth %d rejected: %v", depth, err)
		}
	}
	for _, depth := range []int{0, -1, 4} {
		cfg := DefaultConfig()
		cfg.PedigreeDepth = depth
		if err := cfg.Validate(); err == nil {
			t.Fatalf("depth %d accepted", depth)
		}
	}
}

func TestConfigAllowsNull(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.allowsNull("nearest_common_ancestor_generation") {
		t.Fatalf("default allow-list missing nearest_common_ancestor_generation")
	}
	if cfg.allowsNull("weight_carried") {
		t.Fatalf("weight_carried should not be allow-listed")
	}
}
