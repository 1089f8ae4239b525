package annotate

import (
	"strings"
	"testing"

	"github.com/vertgenlab/gonomics/vcf"
)

func TestSetInfoField(t *testing.T) {
	tests := []struct {
		info, key, value string
		expected         string
	}{
		{".", "AC", "3", "AC=3"},
		{"", "AC", "3", "AC=3"},
		{"DP=100", "AC", "3", "DP=100;AC=3"},
		{"AC=9;AN=10", "AC", "3", "AC=3;AN=10"},
		{"AC;AN=10", "AC", "3", "AC=3;AN=10"},
	}
	for _, test := range tests {
		if actual := setInfoField(test.info, test.key, test.value); actual != test.expected {
			t.Errorf("problem setting %s=%s in %q: expected %q, got %q", test.key, test.value, test.info, test.expected, actual)
		}
	}
}

func TestSetInfoFlag(t *testing.T) {
	if actual := setInfoFlag(".", "LCR"); actual != "LCR" {
		t.Errorf("problem flagging an empty INFO: got %q", actual)
	}
	if actual := setInfoFlag("AC=3;LCR", "LCR"); actual != "AC=3;LCR" {
		t.Errorf("re-flagging should be a no-op: got %q", actual)
	}
	if actual := setInfoFlag("AC=3", "LCR"); actual != "AC=3;LCR" {
		t.Errorf("problem appending a flag: got %q", actual)
	}
}

func testRecord(chr string, pos int, filter string) vcf.Vcf {
	return vcf.Vcf{
		Chr:    chr,
		Pos:    pos,
		Id:     ".",
		Ref:    "A",
		Alt:    []string{"G"},
		Filter: filter,
		Info:   "AC=99;AN=2",
		Format: []string{"GT", "AD", "DP", "GQ"},
		Samples: []vcf.Sample{
			{Alleles: []int16{0, 1}, Phase: make([]bool, 2), FormatData: []string{"", "8,7", "15", "99"}},
			{Alleles: []int16{0, 0}, Phase: make([]bool, 2), FormatData: []string{"", "20,0", "20", "60"}},
			{Alleles: []int16{1, 1}, Phase: make([]bool, 2), FormatData: []string{"", "0,18", "18", "54"}},
			{Alleles: []int16{-1, -1}, Phase: make([]bool, 2), FormatData: []string{"", ".", ".", "."}},
		},
	}
}

func TestRecordAnnotations(t *testing.T) {
	a, err := New([]string{"testdata/lcr.bed"}, "testdata/csq.tsv")
	if err != nil {
		t.Fatalf("problem building annotator: %v", err)
	}

	v := a.Record(testRecord("chr1", 1000, "VQSRTrancheSNP99.90to100.00"))
	for _, expected := range []string{"AC=3", "AN=6", "AF=0.5", "LCR", "FAIL_VQSR", "GENE=BRCA2", "CSQ=missense_variant"} {
		if !hasInfoEntry(v.Info, expected) {
			t.Errorf("expected %s in INFO, got %q", expected, v.Info)
		}
	}

	abIdx := len(v.Format) - 1
	if v.Format[abIdx] != "AB" {
		t.Fatalf("expected AB appended to FORMAT, got %v", v.Format)
	}
	expectedBalance := []string{"0.467", "0", "1", "."}
	for i := range expectedBalance {
		if v.Samples[i].FormatData[abIdx] != expectedBalance[i] {
			t.Errorf("problem with AB for sample %d: expected %s, got %s", i, expectedBalance[i], v.Samples[i].FormatData[abIdx])
		}
	}

	v = a.Record(testRecord("chr3", 50, "PASS"))
	for _, absent := range []string{"LCR", "FAIL_VQSR", "GENE", "CSQ"} {
		if strings.Contains(v.Info, absent) {
			t.Errorf("did not expect %s in INFO for a clean record, got %q", absent, v.Info)
		}
	}
}

func TestHeaderLines(t *testing.T) {
	a, err := New(nil, "")
	if err != nil {
		t.Fatalf("problem building annotator: %v", err)
	}
	lines := a.HeaderLines()
	if len(lines) != 8 {
		t.Errorf("expected 8 header lines, got %d", len(lines))
	}
	for i := range lines {
		if !strings.HasPrefix(lines[i], "##") {
			t.Errorf("malformed header line: %s", lines[i])
		}
	}
}

func hasInfoEntry(info, entry string) bool {
	for _, word := range strings.Split(info, ";") {
		if word == entry {
			return true
		}
	}
	return false
}
