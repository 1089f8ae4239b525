package kinship

import (
	"math"
	"testing"

	"github.com/covid19-hg/covid19-sequencing/cohort"
)

// Columns: twin1, twin2, parent, stranger. The twins are genotype-identical,
// the parent shares every twin allele without opposite homozygotes, and the
// stranger is discordant at most sites.
func testMatrix() *cohort.Matrix {
	return &cohort.Matrix{
		SampleNames: []string{"twin1", "twin2", "parent", "stranger"},
		Sites: []cohort.Site{
			{Chr: "chr1", Pos: 100}, {Chr: "chr1", Pos: 200}, {Chr: "chr1", Pos: 300},
			{Chr: "chr2", Pos: 100}, {Chr: "chr2", Pos: 200}, {Chr: "chr2", Pos: 300},
		},
		Geno: [][]int8{
			{0, 0, 1, 2},
			{1, 1, 1, 0},
			{2, 2, 1, 0},
			{1, 1, 1, 1},
			{0, 0, 1, 2},
			{1, 1, 0, 0},
		},
	}
}

func pairByNames(pairs []Pair, a, b string) Pair {
	for i := range pairs {
		if (pairs[i].SampleI == a && pairs[i].SampleJ == b) || (pairs[i].SampleI == b && pairs[i].SampleJ == a) {
			return pairs[i]
		}
	}
	return Pair{Kinship: math.NaN()}
}

func TestEstimate(t *testing.T) {
	pairs := Estimate(testMatrix())
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs for 4 samples, got %d", len(pairs))
	}

	twins := pairByNames(pairs, "twin1", "twin2")
	if twins.NShared != 6 || twins.HetHet != 3 || twins.Ibs0 != 0 {
		t.Errorf("problem with twin pair tallies: %+v", twins)
	}
	if math.Abs(twins.Kinship-0.5) > 1e-9 {
		t.Errorf("expected kinship 0.5 for identical twins, got %f", twins.Kinship)
	}

	// hetHet=2, ibs0=0, het(twin1)=3, het(parent)=5:
	// 0.5 + (4 - 0 - 3 - 5) / (4*3) = 1/6
	parental := pairByNames(pairs, "twin1", "parent")
	if math.Abs(parental.Kinship-1.0/6) > 1e-9 {
		t.Errorf("expected kinship 1/6 for the parent pair, got %f", parental.Kinship)
	}

	// hetHet=1, ibs0=3, het(twin1)=3, het(stranger)=1:
	// 0.5 + (2 - 12 - 3 - 1) / (4*1) = -3
	strange := pairByNames(pairs, "twin1", "stranger")
	if strange.Ibs0 != 3 || math.Abs(strange.Kinship-(-3)) > 1e-9 {
		t.Errorf("expected strongly negative kinship for the stranger pair, got %+v", strange)
	}
}

func TestEstimateSkipsMissing(t *testing.T) {
	m := testMatrix()
	m.Geno[0][0] = -1
	pairs := Estimate(m)
	twins := pairByNames(pairs, "twin1", "twin2")
	if twins.NShared != 5 {
		t.Errorf("expected 5 shared sites after masking one call, got %d", twins.NShared)
	}
}

func TestRelated(t *testing.T) {
	pairs := Estimate(testMatrix())
	related := Related(pairs, DefaultThreshold)
	if len(related) != 3 {
		t.Fatalf("expected 3 related pairs (twins and both parent pairs), got %d", len(related))
	}
	for i := range related {
		if related[i].SampleI == "stranger" || related[i].SampleJ == "stranger" {
			t.Errorf("the stranger should not be in a related pair: %+v", related[i])
		}
	}
}

func TestUnrelated(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	related := []Pair{{I: 0, J: 1}, {I: 0, J: 2}}
	keep, dropped := Unrelated(names, related, nil)
	if len(dropped) != 1 || dropped[0] != "a" {
		t.Errorf("expected only the hub sample dropped, got %v", dropped)
	}
	if len(keep) != 3 || keep[0] != "b" || keep[2] != "d" {
		t.Errorf("problem with kept samples: %v", keep)
	}

	// tie on degree: drop the sample with the lower call rate
	related = []Pair{{I: 0, J: 1}}
	keep, dropped = Unrelated(names, related, []float64{0.99, 0.95, 1, 1})
	if len(dropped) != 1 || dropped[0] != "b" {
		t.Errorf("expected the lower-callrate sample dropped, got %v", dropped)
	}
	if len(keep) != 3 || keep[0] != "a" {
		t.Errorf("problem with kept samples after tiebreak: %v", keep)
	}
}

func TestUnrelatedKinTrio(t *testing.T) {
	// twins related to each other and both related to the parent: dropping
	// any one sample leaves one related pair, so two must go
	pairs := Related(Estimate(testMatrix()), DefaultThreshold)
	m := testMatrix()
	keep, dropped := Unrelated(m.SampleNames, pairs, m.SampleCallRates())
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped samples, got %v", dropped)
	}
	if len(keep) != 2 || keep[1] != "stranger" {
		t.Errorf("problem with kept samples: %v", keep)
	}
}
