package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// lineWithPrefix returns the first line starting with the prefix, or "".
func lineWithPrefix(lines []string, prefix string) string {
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	return ""
}

func countSuffix(lines []string, suffix string) int {
	var n int
	for _, line := range lines {
		if strings.HasSuffix(line, suffix) {
			n++
		}
	}
	return n
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata/qc.toml")
	if err != nil {
		t.Fatalf("problem loading config: %v", err)
	}
	if cfg.NumPcs != 3 {
		t.Errorf("problem with overridden setting: num_pcs %d", cfg.NumPcs)
	}
	if cfg.MinSiteCallRate != 0.97 {
		t.Errorf("problem with default setting: min_site_call_rate %f", cfg.MinSiteCallRate)
	}
	if cfg.KinshipThreshold != 0.088 {
		t.Errorf("problem with default setting: kinship_threshold %f", cfg.KinshipThreshold)
	}
	if cfg.MarkerSpacing != 1000 {
		t.Errorf("problem with overridden setting: marker_spacing %d", cfg.MarkerSpacing)
	}
}

func TestLoadConfigRejectsBadAssay(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bad.toml")
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "vcf_file = \"in.vcf\"")
	fmt.Fprintln(out, "assay = \"lowpass\"")
	err := out.Close()
	exception.PanicOnErr(err)
	if _, err = LoadConfig(file); err == nil {
		t.Errorf("problem with validation: bad assay was accepted")
	}
}

func TestValidateRequiresInput(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Errorf("problem with validation: missing vcf_file was accepted")
	}
}

// The test cohort has six samples: s5 and s6 are identical twins, s1 to s3
// are female by X heterozygosity, and s4 to s6 male. Every genotype is clean,
// so the only QC failure is one twin dropped for kinship.
func TestRunFullPipeline(t *testing.T) {
	cfg, err := LoadConfig("testdata/qc.toml")
	if err != nil {
		t.Fatalf("problem loading config: %v", err)
	}
	cfg.OutDir = t.TempDir()
	if err = Run(cfg, 0); err != nil {
		t.Fatalf("problem running pipeline: %v", err)
	}

	vcfLines := fileio.Read(filepath.Join(cfg.OutDir, VcfOut))
	var headerLines, records int
	var sawSplitHeader bool
	for _, line := range vcfLines {
		if strings.HasPrefix(line, "#") {
			headerLines++
			if strings.Contains(line, "OLD_MULTIALLELIC") {
				sawSplitHeader = true
			}
		} else {
			records++
		}
	}
	if records != 10 {
		t.Errorf("problem with output vcf: %d records, expected 10", records)
	}
	if !sawSplitHeader {
		t.Errorf("problem with output vcf: split header line missing")
	}

	lines := fileio.Read(filepath.Join(cfg.OutDir, VariantMetricsOut))
	if len(lines) != 11 {
		t.Errorf("problem with variant metrics: %d lines, expected 11", len(lines))
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, SampleMetricsOut))
	if len(lines) != 7 {
		t.Fatalf("problem with sample metrics: %d lines, expected 7", len(lines))
	}
	if countSuffix(lines[1:], "\tpass\t.") != 6 {
		t.Errorf("problem with sample metrics: every sample should pass the hard filters")
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, SexCheckOut))
	if len(lines) != 7 {
		t.Fatalf("problem with sex check: %d lines, expected 7", len(lines))
	}
	if row := lineWithPrefix(lines, "s1\t"); !strings.Contains(row, "female") {
		t.Errorf("problem with sex imputation for s1: %s", row)
	}
	if row := lineWithPrefix(lines, "s4\t"); !strings.Contains(row, "male") {
		t.Errorf("problem with sex imputation for s4: %s", row)
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, KinshipOut))
	if len(lines) != 16 {
		t.Fatalf("problem with kinship pairs: %d lines, expected 16", len(lines))
	}
	if countSuffix(lines, "\tyes") != 1 {
		t.Errorf("problem with relatedness: expected exactly the twin pair above threshold")
	}
	if row := lineWithPrefix(lines, "s5\ts6\t"); !strings.HasSuffix(row, "\tyes") {
		t.Errorf("problem with twin pair: %s", row)
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, PcaScoresOut))
	if len(lines) != 7 {
		t.Fatalf("problem with pca scores: %d lines, expected 7", len(lines))
	}
	if countSuffix(lines[1:], "\tyes") != 1 {
		t.Errorf("problem with pca: exactly one sample should be projected")
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, PcaLoadingsOut))
	if len(lines) != 9 {
		t.Errorf("problem with pca loadings: %d lines, expected 9 for 8 markers", len(lines))
	}
	lines = fileio.Read(filepath.Join(cfg.OutDir, PcaVarianceOut))
	if len(lines) != 4 {
		t.Errorf("problem with pca variance: %d lines, expected 4", len(lines))
	}
	if info, err := os.Stat(filepath.Join(cfg.OutDir, PcaPlotOut)); err != nil || info.Size() == 0 {
		t.Errorf("problem with pca plot: missing or empty")
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, OutlierBoundsOut))
	if len(lines) != 7 {
		t.Errorf("problem with outlier bounds: %d lines, expected cohort and group rows for three usable metrics", len(lines))
	}
	lines = fileio.Read(filepath.Join(cfg.OutDir, OutlierFlagsOut))
	if len(lines) != 1 {
		t.Errorf("problem with outlier flags: %d lines, expected header only", len(lines))
	}

	lines = fileio.Read(filepath.Join(cfg.OutDir, SummaryOut))
	if len(lines) != 7 {
		t.Fatalf("problem with summary: %d lines, expected 7", len(lines))
	}
	if countSuffix(lines[1:], "\tpass\t.") != 5 {
		t.Errorf("problem with summary: expected five passing samples")
	}
	if countSuffix(lines[1:], "\tfail\tkinship") != 1 {
		t.Errorf("problem with summary: expected one sample failed for kinship only")
	}

	pass := fileio.Read(filepath.Join(cfg.OutDir, PassListOut))
	if len(pass) != 5 {
		t.Fatalf("problem with pass list: %d samples, expected 5", len(pass))
	}
	for _, required := range []string{"s1", "s2", "s3", "s4"} {
		if lineWithPrefix(pass, required) == "" {
			t.Errorf("problem with pass list: %s missing", required)
		}
	}
	var twins int
	for _, name := range []string{"s5", "s6"} {
		for _, p := range pass {
			if p == name {
				twins++
			}
		}
	}
	if twins != 1 {
		t.Errorf("problem with pass list: exactly one twin should remain, found %d", twins)
	}
}

func TestRunSkipsStages(t *testing.T) {
	cfg, err := LoadConfig("testdata/qc.toml")
	if err != nil {
		t.Fatalf("problem loading config: %v", err)
	}
	cfg.OutDir = t.TempDir()
	cfg.SkipSexCheck = true
	cfg.SkipKinship = true
	cfg.SkipPca = true
	cfg.SkipOutliers = true
	if err = Run(cfg, 0); err != nil {
		t.Fatalf("problem running reduced pipeline: %v", err)
	}
	if _, err = os.Stat(filepath.Join(cfg.OutDir, SexCheckOut)); !os.IsNotExist(err) {
		t.Errorf("problem with skip: sex check artifact was written")
	}
	if _, err = os.Stat(filepath.Join(cfg.OutDir, KinshipOut)); !os.IsNotExist(err) {
		t.Errorf("problem with skip: kinship artifact was written")
	}
	pass := fileio.Read(filepath.Join(cfg.OutDir, PassListOut))
	if len(pass) != 6 {
		t.Errorf("problem with reduced pipeline: %d passing samples, expected 6", len(pass))
	}
}
