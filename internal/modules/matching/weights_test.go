package matching

import "testing"

func TestDefaultWeightsCeiling(t *testing.T) {
	if got := DefaultWeights().ceiling(); got != 300 {
		t.Fatalf("ceiling = %d, want 300", got)
	}
}

func TestWeightsApply(t *testing.T) {
	base := DefaultWeights()
	got, unknown := base.Apply(map[string]int{
		"preferred_driver": 30,
		"LOW_RATED_DRIVER": -20,
		"bogus":            1,
	})

	if got.PreferredDriver != 30 || got.LowRatedDriver != -20 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if base.PreferredDriver != 20 {
		t.Errorf("Apply mutated the receiver")
	}
	if len(unknown) != 1 || unknown[0] != "bogus" {
		t.Errorf("unknown = %v, want [bogus]", unknown)
	}
}

func TestCeilingIgnoresPenaltiesAndExclusivePairs(t *testing.T) {
	w := Weights{Base: 50, PerfectTime: 10, CloseTime: 30, LowRatedDriver: -100, HighWind: -5}
	if got := w.ceiling(); got != 80 {
		t.Fatalf("ceiling = %d, want 80", got)
	}
	if got := (Weights{}).ceiling(); got != 1 {
		t.Fatalf("empty weights ceiling = %d, want 1", got)
	}
}
