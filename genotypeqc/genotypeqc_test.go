package genotypeqc

import (
	"testing"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/vcf"
)

func record(samples ...vcf.Sample) vcf.Vcf {
	return vcf.Vcf{
		Chr:     "chr1",
		Pos:     1000,
		Id:      ".",
		Ref:     "A",
		Alt:     []string{"G"},
		Filter:  "PASS",
		Info:    ".",
		Format:  []string{"GT", "AD", "DP", "GQ"},
		Samples: samples,
	}
}

func call(alleles []int16, ad string, dp, gq string) vcf.Sample {
	return vcf.Sample{Alleles: alleles, Phase: make([]bool, len(alleles)), FormatData: []string{"", ad, dp, gq}}
}

func TestRecordFilters(t *testing.T) {
	v := record(
		call([]int16{0, 1}, "8,7", "15", "99"),  // clean het, AB 0.467
		call([]int16{0, 1}, "5,4", "9", "99"),   // low depth
		call([]int16{0, 1}, "8,7", "15", "19"),  // low quality
		call([]int16{0, 1}, "13,2", "15", "99"), // het AB 0.133
		call([]int16{0, 1}, "2,13", "15", "99"), // het AB 0.867
		call([]int16{0, 0}, "12,3", "15", "60"), // homref AB 0.2
		call([]int16{1, 1}, "3,12", "15", "60"), // homalt AB 0.8
		call([]int16{-1, -1}, ".", ".", "."),    // already missing
	)
	var counts Counts
	v = Record(v, Defaults(), &counts)

	expectedMissing := []bool{false, true, true, true, true, true, true, true}
	for i := range expectedMissing {
		missing := cohort.Classify(v.Samples[i]) == cohort.Missing
		if missing != expectedMissing[i] {
			t.Errorf("problem with sample %d: expected missing=%v", i, expectedMissing[i])
		}
	}
	if counts.Calls != 7 {
		t.Errorf("expected 7 called genotypes, got %d", counts.Calls)
	}
	if counts.LowDepth != 1 || counts.LowQuality != 1 || counts.BadBalance != 4 {
		t.Errorf("problem with filter counts: %+v", counts)
	}
	if counts.Filtered() != 6 {
		t.Errorf("expected 6 filtered calls, got %d", counts.Filtered())
	}
}

func TestDisabledFilters(t *testing.T) {
	v := record(call([]int16{0, 1}, "5,4", "9", "12"))
	var counts Counts
	v = Record(v, Thresholds{}, &counts)
	if cohort.Classify(v.Samples[0]) != cohort.Het {
		t.Error("zero-valued thresholds should disable all filters")
	}
	if counts.Filtered() != 0 {
		t.Errorf("expected no filtered calls, got %d", counts.Filtered())
	}
}

func TestBalancePrefersExplicitAb(t *testing.T) {
	v := record(call([]int16{0, 1}, "8,7", "15", "99"))
	v.Format = append(v.Format, "AB")
	v.Samples[0].FormatData = append(v.Samples[0].FormatData, "0.1")
	var counts Counts
	v = Record(v, Defaults(), &counts)
	if cohort.Classify(v.Samples[0]) != cohort.Missing {
		t.Error("an explicit AB below the het floor should filter the call")
	}
	if counts.BadBalance != 1 {
		t.Errorf("expected 1 balance-filtered call, got %d", counts.BadBalance)
	}
}

func TestCallsWithoutDepthInfoPass(t *testing.T) {
	v := vcf.Vcf{
		Chr: "chr1", Pos: 1000, Id: ".", Ref: "A", Alt: []string{"G"},
		Filter: "PASS", Info: ".", Format: []string{"GT"},
		Samples: []vcf.Sample{{Alleles: []int16{0, 1}, Phase: make([]bool, 2), FormatData: []string{""}}},
	}
	var counts Counts
	v = Record(v, Defaults(), &counts)
	if cohort.Classify(v.Samples[0]) != cohort.Het {
		t.Error("calls without DP, GQ, or AD should pass untouched")
	}
}
