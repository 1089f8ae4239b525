package outlier

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/vertgenlab/gonomics/fileio"
)

func snvMetric() []Metric {
	return []Metric{{Name: "n_snv", Value: func(m sampleqc.Metrics) float64 { return float64(m.NSnv) }}}
}

func titvMetric() []Metric {
	return []Metric{{Name: "r_titv", Value: func(m sampleqc.Metrics) float64 { return m.TiTvRatio }}}
}

// Eleven samples, median 105, deviations with median 3. Bounds at
// multiplier 4 are 93 to 117, so only the last sample is out.
func snvSamples() []sampleqc.Metrics {
	counts := []int{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 200}
	out := make([]sampleqc.Metrics, len(counts))
	for i, c := range counts {
		out[i] = sampleqc.Metrics{Sample: string(rune('a' + i)), NSnv: c}
	}
	return out
}

func TestDetectCohortBounds(t *testing.T) {
	bounds, flags := Detect(snvSamples(), nil, snvMetric(), DefaultOptions())
	if len(bounds) != 1 {
		t.Fatalf("problem with bound count: got %d, expected 1", len(bounds))
	}
	b := bounds[0]
	if b.Group != "all" || b.N != 11 {
		t.Errorf("problem with cohort bound: group %s, n %d", b.Group, b.N)
	}
	if b.Median != 105 || b.Mad != 3 {
		t.Errorf("problem with robust statistics: median %f, mad %f", b.Median, b.Mad)
	}
	if b.Low != 93 || b.High != 117 {
		t.Errorf("problem with bounds: got [%f, %f], expected [93, 117]", b.Low, b.High)
	}
	if len(flags) != 1 {
		t.Fatalf("problem with flag count: got %d, expected 1", len(flags))
	}
	if flags[0].Sample != "k" || flags[0].Value != 200 {
		t.Errorf("problem with flagged sample: %s value %f", flags[0].Sample, flags[0].Value)
	}
}

func TestDetectStratified(t *testing.T) {
	samples := []sampleqc.Metrics{
		{Sample: "a1", TiTvRatio: 1.8},
		{Sample: "a2", TiTvRatio: 1.9},
		{Sample: "a3", TiTvRatio: 2.0},
		{Sample: "a4", TiTvRatio: 2.1},
		{Sample: "a5", TiTvRatio: 2.2},
		{Sample: "b1", TiTvRatio: 1.0},
		{Sample: "b2", TiTvRatio: 1.1},
		{Sample: "b3", TiTvRatio: 1.2},
		{Sample: "b4", TiTvRatio: 1.3},
		{Sample: "b5", TiTvRatio: 3.0},
	}
	groups := make(map[string]string)
	for i := range samples {
		groups[samples[i].Sample] = samples[i].Sample[:1]
	}
	bounds, flags := Detect(samples, groups, titvMetric(), DefaultOptions())
	if len(bounds) != 3 {
		t.Fatalf("problem with stratified bounds: got %d, expected cohort plus two groups", len(bounds))
	}
	if bounds[0].Group != "all" || bounds[1].Group != "a" || bounds[2].Group != "b" {
		t.Errorf("problem with bound ordering: %s, %s, %s", bounds[0].Group, bounds[1].Group, bounds[2].Group)
	}
	if math.Abs(bounds[2].Median-1.2) > 1e-9 || math.Abs(bounds[2].Mad-0.1) > 1e-9 {
		t.Errorf("problem with group b statistics: median %f, mad %f", bounds[2].Median, bounds[2].Mad)
	}
	if len(flags) != 1 {
		t.Fatalf("problem with flag count: got %d, expected 1", len(flags))
	}
	if flags[0].Sample != "b5" || flags[0].Group != "b" {
		t.Errorf("problem with stratified flag: sample %s judged against %s", flags[0].Sample, flags[0].Group)
	}
}

func TestDetectSmallGroupFallback(t *testing.T) {
	samples := []sampleqc.Metrics{
		{Sample: "g1", NSnv: 10},
		{Sample: "g2", NSnv: 11},
		{Sample: "g3", NSnv: 12},
		{Sample: "g4", NSnv: 13},
		{Sample: "g5", NSnv: 14},
		{Sample: "solo", NSnv: 100},
	}
	groups := map[string]string{
		"g1": "big", "g2": "big", "g3": "big", "g4": "big", "g5": "big",
		"solo": "rare",
	}
	bounds, flags := Detect(samples, groups, snvMetric(), DefaultOptions())
	for _, b := range bounds {
		if b.Group == "rare" {
			t.Errorf("problem with small stratum: bounds were built from %d samples", b.N)
		}
	}
	if len(flags) != 1 {
		t.Fatalf("problem with flag count: got %d, expected 1", len(flags))
	}
	if flags[0].Sample != "solo" || flags[0].Group != "all" {
		t.Errorf("problem with fallback: sample %s judged against %s", flags[0].Sample, flags[0].Group)
	}
}

func TestDetectSkipsNaN(t *testing.T) {
	samples := []sampleqc.Metrics{
		{Sample: "s1", InsDelRatio: 1.0},
		{Sample: "s2", InsDelRatio: 1.1},
		{Sample: "s3", InsDelRatio: 0.9},
		{Sample: "s4", InsDelRatio: math.NaN()},
	}
	defs := []Metric{{Name: "r_ins_del", Value: func(m sampleqc.Metrics) float64 { return m.InsDelRatio }}}
	bounds, flags := Detect(samples, nil, defs, DefaultOptions())
	if len(bounds) != 1 || bounds[0].N != 3 {
		t.Fatalf("problem with bound: NaN values should not be counted")
	}
	for _, f := range flags {
		if f.Sample == "s4" {
			t.Errorf("problem with NaN handling: sample without a ratio was flagged")
		}
	}
}

func TestFailing(t *testing.T) {
	flags := []Flag{
		{Sample: "x", Metric: "n_snv"},
		{Sample: "y", Metric: "r_titv"},
		{Sample: "x", Metric: "r_titv"},
	}
	failing := Failing(flags)
	if len(failing) != 2 || failing[0] != "x" || failing[1] != "y" {
		t.Errorf("problem with failing samples: %v", failing)
	}
}

func TestWriteTables(t *testing.T) {
	bounds, flags := Detect(snvSamples(), nil, snvMetric(), DefaultOptions())
	dir := t.TempDir()
	boundsFile := filepath.Join(dir, "bounds.tsv")
	flagsFile := filepath.Join(dir, "flags.tsv")
	WriteBounds(boundsFile, bounds)
	WriteFlags(flagsFile, flags)

	lines := fileio.Read(boundsFile)
	if len(lines) != 2 {
		t.Fatalf("problem with bounds file: %d lines", len(lines))
	}
	if lines[1] != "n_snv\tall\t11\t105.0000\t3.0000\t93.0000\t117.0000" {
		t.Errorf("problem with bounds row: %s", lines[1])
	}
	lines = fileio.Read(flagsFile)
	if len(lines) != 2 {
		t.Fatalf("problem with flags file: %d lines", len(lines))
	}
	if lines[1] != "k\tn_snv\tall\t200.0000\t93.0000\t117.0000" {
		t.Errorf("problem with flags row: %s", lines[1])
	}
}
