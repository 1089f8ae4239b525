package cohort

import "testing"

func TestVariantTypes(t *testing.T) {
	tests := []struct {
		ref, alt                        string
		snv, insertion, deletion, trans bool
	}{
		{"A", "G", true, false, false, true},
		{"G", "A", true, false, false, true},
		{"C", "T", true, false, false, true},
		{"A", "C", true, false, false, false},
		{"G", "C", true, false, false, false},
		{"A", "AT", false, true, false, false},
		{"ATT", "A", false, false, true, false},
		{"A", "*", false, false, false, false},
		{"A", "A", false, false, false, false},
	}
	for _, test := range tests {
		if IsSnv(test.ref, test.alt) != test.snv {
			t.Errorf("problem with SNV test for %s>%s", test.ref, test.alt)
		}
		if IsInsertion(test.ref, test.alt) != test.insertion {
			t.Errorf("problem with insertion test for %s>%s", test.ref, test.alt)
		}
		if IsDeletion(test.ref, test.alt) != test.deletion {
			t.Errorf("problem with deletion test for %s>%s", test.ref, test.alt)
		}
		if IsTransition(test.ref, test.alt) != test.trans {
			t.Errorf("problem with transition test for %s>%s", test.ref, test.alt)
		}
	}
}

func TestSiteKey(t *testing.T) {
	s := Site{Chr: "chr2", Pos: 1200, Ref: "G", Alt: "T"}
	if s.Key() != "chr2:1200:G:T" {
		t.Errorf("problem with site key: got %s", s.Key())
	}
}
