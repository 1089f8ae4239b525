package pipeline

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/genotypeqc"
	"github.com/covid19-hg/covid19-sequencing/kinship"
	"github.com/covid19-hg/covid19-sequencing/outlier"
	"github.com/covid19-hg/covid19-sequencing/pca"
	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/covid19-hg/covid19-sequencing/sexcheck"
	"github.com/covid19-hg/covid19-sequencing/variantqc"
)

// Assay values select the depth expectations of the sequencing design.
const (
	AssayWes = "wes"
	AssayWgs = "wgs"
)

// Config drives a full QC run. Genotype and site filters with a zero value
// are disabled; sample filters with a zero value fall back to the assay
// defaults.
type Config struct {
	VcfFile    string   `toml:"vcf_file"`
	SampleFile string   `toml:"sample_file"`
	LcrFiles   []string `toml:"lcr_files"`
	CsqFile    string   `toml:"consequence_file"`
	OutDir     string   `toml:"output_dir"`

	GenomeBuild string `toml:"genome_build"`
	Assay       string `toml:"assay"`

	SkipSexCheck     bool `toml:"skip_sex_check"`
	SkipKinship      bool `toml:"skip_kinship"`
	SkipPca          bool `toml:"skip_pca"`
	SkipOutliers     bool `toml:"skip_outliers"`
	SkipPlots        bool `toml:"skip_plots"`
	KeepFailingSites bool `toml:"keep_failing_sites"`

	MinGenotypeDepth   int     `toml:"min_genotype_depth"`
	MinGenotypeQuality int     `toml:"min_genotype_quality"`
	MaxHomRefBalance   float64 `toml:"max_homref_balance"`
	HetBalanceLow      float64 `toml:"het_balance_low"`
	HetBalanceHigh     float64 `toml:"het_balance_high"`
	MinHomAltBalance   float64 `toml:"min_homalt_balance"`

	MinSiteCallRate float64 `toml:"min_site_call_rate"`
	MinHwePvalue    float64 `toml:"min_hwe_pvalue"`
	RequirePass     bool    `toml:"require_pass"`
	ExcludeLcr      bool    `toml:"exclude_lcr"`
	DropMonomorphic bool    `toml:"drop_monomorphic"`

	MinSampleCallRate float64 `toml:"min_sample_call_rate"`
	MinMeanDepth      float64 `toml:"min_mean_depth"`

	SexMinMaf     float64 `toml:"sex_min_maf"`
	FemaleCeiling float64 `toml:"female_f_ceiling"`
	MaleFloor     float64 `toml:"male_f_floor"`

	KinshipThreshold  float64 `toml:"kinship_threshold"`
	MarkerMinMaf      float64 `toml:"marker_min_maf"`
	MarkerMinCallRate float64 `toml:"marker_min_call_rate"`
	MarkerSpacing     int     `toml:"marker_spacing"`
	MaxMarkers        int     `toml:"max_markers"`

	NumPcs int `toml:"num_pcs"`

	OutlierMultiplier float64 `toml:"outlier_mad_multiplier"`
	OutlierMinGroup   int     `toml:"outlier_min_group"`
}

// DefaultConfig returns the standard whole-exome QC settings on GRCh38.
func DefaultConfig() *Config {
	gt := genotypeqc.Defaults()
	site := variantqc.Defaults()
	sex := sexcheck.DefaultOptions()
	return &Config{
		OutDir:      "qc_out",
		GenomeBuild: "GRCh38",
		Assay:       AssayWes,

		MinGenotypeDepth:   gt.MinDepth,
		MinGenotypeQuality: gt.MinQuality,
		MaxHomRefBalance:   gt.MaxHomRefBalance,
		HetBalanceLow:      gt.HetBalanceLow,
		HetBalanceHigh:     gt.HetBalanceHigh,
		MinHomAltBalance:   gt.MinHomAltBalance,

		MinSiteCallRate: site.MinCallRate,
		MinHwePvalue:    site.MinHwePvalue,
		RequirePass:     site.RequirePass,
		ExcludeLcr:      site.ExcludeLcr,

		SexMinMaf:     sex.MinMaf,
		FemaleCeiling: sex.FemaleCeiling,
		MaleFloor:     sex.MaleFloor,

		KinshipThreshold:  kinship.DefaultThreshold,
		MarkerMinMaf:      0.01,
		MarkerMinCallRate: 0.99,
		MarkerSpacing:     10000,

		NumPcs: pca.DefaultComponents,

		OutlierMultiplier: outlier.DefaultMultiplier,
		OutlierMinGroup:   5,
	}
}

// LoadConfig reads a TOML config file over the defaults, so the file only
// needs the settings that differ.
func LoadConfig(file string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", file, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail mid-run.
func (c *Config) Validate() error {
	if c.VcfFile == "" {
		return fmt.Errorf("config: vcf_file is required")
	}
	if c.Assay != AssayWes && c.Assay != AssayWgs {
		return fmt.Errorf("config: assay must be %q or %q, got %q", AssayWes, AssayWgs, c.Assay)
	}
	if _, err := cohort.ParseBuild(c.GenomeBuild); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) build() cohort.Build {
	b, err := cohort.ParseBuild(c.GenomeBuild)
	if err != nil {
		return cohort.GRCh38
	}
	return b
}

func (c *Config) genotypeThresholds() genotypeqc.Thresholds {
	return genotypeqc.Thresholds{
		MinDepth:         c.MinGenotypeDepth,
		MinQuality:       c.MinGenotypeQuality,
		MaxHomRefBalance: c.MaxHomRefBalance,
		HetBalanceLow:    c.HetBalanceLow,
		HetBalanceHigh:   c.HetBalanceHigh,
		MinHomAltBalance: c.MinHomAltBalance,
	}
}

func (c *Config) siteThresholds() variantqc.Thresholds {
	return variantqc.Thresholds{
		MinCallRate:     c.MinSiteCallRate,
		MinHwePvalue:    c.MinHwePvalue,
		RequirePass:     c.RequirePass,
		ExcludeLcr:      c.ExcludeLcr,
		DropMonomorphic: c.DropMonomorphic,
	}
}

func (c *Config) sampleThresholds() sampleqc.Thresholds {
	th := sampleqc.ExomeDefaults()
	if c.Assay == AssayWgs {
		th = sampleqc.GenomeDefaults()
	}
	if c.MinSampleCallRate > 0 {
		th.MinCallRate = c.MinSampleCallRate
	}
	if c.MinMeanDepth > 0 {
		th.MinMeanDepth = c.MinMeanDepth
	}
	return th
}

func (c *Config) sexOptions() sexcheck.Options {
	return sexcheck.Options{
		Build:         c.build(),
		MinMaf:        c.SexMinMaf,
		RequirePass:   false,
		FemaleCeiling: c.FemaleCeiling,
		MaleFloor:     c.MaleFloor,
	}
}

func (c *Config) markerOptions() cohort.MatrixOptions {
	return cohort.MatrixOptions{
		MinMaf:        c.MarkerMinMaf,
		MinCallRate:   c.MarkerMinCallRate,
		MinSpacing:    c.MarkerSpacing,
		MaxSites:      c.MaxMarkers,
		AutosomesOnly: true,
	}
}

func (c *Config) outlierOptions() outlier.Options {
	return outlier.Options{Multiplier: c.OutlierMultiplier, MinGroup: c.OutlierMinGroup}
}
