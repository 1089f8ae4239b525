package cohort

import "testing"

func TestLoadMatrix(t *testing.T) {
	opt := MatrixOptions{
		MinMaf:        0.1,
		MinCallRate:   0.75,
		MinSpacing:    100,
		AutosomesOnly: true,
		RequirePass:   true,
	}
	m := LoadMatrix("testdata/markers.vcf", opt, 0)
	if len(m.SampleNames) != 4 || m.SampleNames[0] != "s1" || m.SampleNames[3] != "s4" {
		t.Fatalf("problem with sample names: got %v", m.SampleNames)
	}
	if len(m.Sites) != 2 {
		t.Fatalf("expected 2 retained sites, got %d", len(m.Sites))
	}
	if m.Sites[0].Key() != "chr1:1000:A:G" || m.Sites[1].Key() != "chr2:1200:G:T" {
		t.Errorf("problem with retained sites: got %s, %s", m.Sites[0].Key(), m.Sites[1].Key())
	}
	expectedGeno := [][]int8{
		{1, 0, 2, 0},
		{2, 1, 0, 1},
	}
	for i := range expectedGeno {
		for j := range expectedGeno[i] {
			if m.Geno[i][j] != expectedGeno[i][j] {
				t.Errorf("problem with genotype at site %d sample %d: expected %d, got %d",
					i, j, expectedGeno[i][j], m.Geno[i][j])
			}
		}
	}
	if m.Sites[0].AltFreq != 0.375 || m.Sites[1].AltFreq != 0.5 {
		t.Errorf("problem with allele frequencies: got %f, %f", m.Sites[0].AltFreq, m.Sites[1].AltFreq)
	}
}

func TestMatrixCallRates(t *testing.T) {
	m := &Matrix{
		SampleNames: []string{"s1", "s2"},
		Sites:       []Site{{Chr: "chr1", Pos: 1}, {Chr: "chr1", Pos: 2}},
		Geno: [][]int8{
			{1, -1},
			{0, 2},
		},
	}
	siteRates := m.SiteCallRates()
	if siteRates[0] != 0.5 || siteRates[1] != 1 {
		t.Errorf("problem with site call rates: got %v", siteRates)
	}
	sampleRates := m.SampleCallRates()
	if sampleRates[0] != 1 || sampleRates[1] != 0.5 {
		t.Errorf("problem with sample call rates: got %v", sampleRates)
	}
}

func TestMaxSites(t *testing.T) {
	m := LoadMatrix("testdata/markers.vcf", MatrixOptions{MaxSites: 1}, 0)
	if len(m.Sites) != 1 || len(m.Geno) != 1 {
		t.Errorf("expected the matrix to stop at 1 site, got %d", len(m.Sites))
	}
}
