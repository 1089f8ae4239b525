package main

import "testing"

func TestBinCounts(t *testing.T) {
	counts := binCounts([]float64{0, 0.1, 0.5, 0.99, 1}, 5, 0, 1)
	if len(counts) != 5 {
		t.Error("problem with bin count", len(counts))
	}
	expected := []float64{2, 0, 1, 0, 2}
	for i := range expected {
		if counts[i] != expected[i] {
			t.Error("problem binning values", i, counts[i], expected[i])
		}
	}

	counts = binCounts([]float64{2, 2, 2}, 4, 2, 2)
	if counts[0] != 3 || counts[1] != 0 || counts[2] != 0 || counts[3] != 0 {
		t.Error("problem binning a collapsed range", counts)
	}

	counts = binCounts(nil, 3, 0, 1)
	if counts[0] != 0 || counts[1] != 0 || counts[2] != 0 {
		t.Error("problem binning an empty slice", counts)
	}
}
