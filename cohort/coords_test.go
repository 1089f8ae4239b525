package cohort

import "testing"

func TestParseBuild(t *testing.T) {
	tests := []struct {
		input    string
		expected Build
		wantErr  bool
	}{
		{"GRCh37", GRCh37, false},
		{"hg19", GRCh37, false},
		{"grch38", GRCh38, false},
		{"hg38", GRCh38, false},
		{"38", GRCh38, false},
		{"mm10", "", true},
	}
	for _, test := range tests {
		actual, err := ParseBuild(test.input)
		if test.wantErr && err == nil {
			t.Errorf("expected an error parsing build %s", test.input)
		}
		if !test.wantErr && actual != test.expected {
			t.Errorf("problem parsing build %s: expected %s, got %s", test.input, test.expected, actual)
		}
	}
}

func TestContigTests(t *testing.T) {
	if !IsAutosome("chr22") || !IsAutosome("1") {
		t.Error("problem recognizing autosomes")
	}
	if IsAutosome("chrX") || IsAutosome("chrM") || IsAutosome("GL000220.1") {
		t.Error("non-autosomes should not be recognized as autosomes")
	}
	if !IsChrX("X") || !IsChrX("chrX") || IsChrX("chrY") {
		t.Error("problem recognizing the X chromosome")
	}
	if !IsChrY("chrY") || IsChrY("chrX") {
		t.Error("problem recognizing the Y chromosome")
	}
}

var parTests = []struct {
	build    Build
	pos      int
	expected bool
}{
	{GRCh37, 60001, true},
	{GRCh37, 60000, false},
	{GRCh37, 2699520, true},
	{GRCh37, 2699521, false},
	{GRCh37, 154931044, true},
	{GRCh37, 100000000, false},
	{GRCh38, 10001, true},
	{GRCh38, 2781479, true},
	{GRCh38, 2781480, false},
	{GRCh38, 155701383, true},
	{GRCh38, 156030896, false},
}

func TestInParX(t *testing.T) {
	for _, test := range parTests {
		if InParX(test.build, test.pos) != test.expected {
			t.Errorf("problem with PAR test for %s X:%d: expected %v", test.build, test.pos, test.expected)
		}
	}
}
