package cohort

import (
	"log"

	"github.com/vertgenlab/gonomics/vcf"
)

// MatrixOptions select the markers loaded into a genotype matrix.
type MatrixOptions struct {
	MinMaf        float64
	MinCallRate   float64
	MinSpacing    int
	MaxSites      int
	AutosomesOnly bool
	RequirePass   bool
}

// Matrix is a dense biallelic genotype matrix with variants as rows and
// samples as columns. Cells hold alternate-allele counts, -1 for missing.
type Matrix struct {
	SampleNames []string
	Sites       []Site
	Geno        [][]int8
}

// LoadMatrix streams a VCF and retains biallelic SNVs passing the marker
// filters in opt. Sites closer than opt.MinSpacing to the previous retained
// site on the same chromosome are skipped, thinning dense blocks of markers
// in linkage. A MaxSites of zero means unlimited.
func LoadMatrix(file string, opt MatrixOptions, verbose int) *Matrix {
	records, header := vcf.GoReadToChan(file)
	m := &Matrix{SampleNames: SampleNames(header)}
	var lastChr string
	var lastPos int
	var full bool
	var seen int
	for v := range records {
		seen++
		if full {
			continue
		}
		if !vcf.IsBiallelic(v) || !IsSnv(v.Ref, v.Alt[0]) {
			continue
		}
		if opt.RequirePass && !PassingFilter(v) {
			continue
		}
		if opt.AutosomesOnly && !IsAutosome(v.Chr) {
			continue
		}
		if opt.MinSpacing > 0 && v.Chr == lastChr && v.Pos-lastPos < opt.MinSpacing {
			continue
		}
		row, af, callRate, ok := genotypeRow(v)
		if !ok {
			continue
		}
		maf := af
		if maf > 0.5 {
			maf = 1 - maf
		}
		if maf < opt.MinMaf || callRate < opt.MinCallRate {
			continue
		}
		m.Sites = append(m.Sites, Site{Chr: v.Chr, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt[0], AltFreq: af})
		m.Geno = append(m.Geno, row)
		lastChr, lastPos = v.Chr, v.Pos
		if opt.MaxSites > 0 && len(m.Sites) == opt.MaxSites {
			full = true
		}
	}
	if verbose > 0 {
		log.Printf("retained %d of %d sites for the genotype matrix\n", len(m.Sites), seen)
	}
	return m
}

// genotypeRow converts one record's calls to alternate-allele counts and
// returns the alternate-allele frequency and genotype call rate alongside.
func genotypeRow(v vcf.Vcf) (row []int8, af, callRate float64, ok bool) {
	if len(v.Samples) == 0 {
		return nil, 0, 0, false
	}
	row = make([]int8, len(v.Samples))
	var calledSamples, altAlleles, totalAlleles int
	for i := range v.Samples {
		called, alt := CountAlleles(v.Samples[i])
		if called == 0 {
			row[i] = -1
			continue
		}
		row[i] = int8(alt)
		calledSamples++
		altAlleles += alt
		totalAlleles += called
	}
	if totalAlleles == 0 {
		return nil, 0, 0, false
	}
	af = float64(altAlleles) / float64(totalAlleles)
	callRate = float64(calledSamples) / float64(len(v.Samples))
	return row, af, callRate, true
}

// SiteCallRates returns the per-site genotype call rate of a loaded matrix.
func (m *Matrix) SiteCallRates() []float64 {
	rates := make([]float64, len(m.Geno))
	for i := range m.Geno {
		var called int
		for j := range m.Geno[i] {
			if m.Geno[i][j] >= 0 {
				called++
			}
		}
		rates[i] = float64(called) / float64(len(m.Geno[i]))
	}
	return rates
}

// SampleCallRates returns the per-sample genotype call rate across the loaded
// sites.
func (m *Matrix) SampleCallRates() []float64 {
	rates := make([]float64, len(m.SampleNames))
	if len(m.Geno) == 0 {
		return rates
	}
	for j := range m.SampleNames {
		var called int
		for i := range m.Geno {
			if m.Geno[i][j] >= 0 {
				called++
			}
		}
		rates[j] = float64(called) / float64(len(m.Geno))
	}
	return rates
}
