// Package genotypeqc applies hard per-genotype filters ahead of site and
// sample QC. Failing calls are set to missing rather than removed so that
// downstream call rates reflect the filtering.
package genotypeqc

import (
	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/vcf"
)

// Thresholds holds the hard genotype filters. A zero value disables the
// corresponding filter.
type Thresholds struct {
	MinDepth         int
	MinQuality       int
	MaxHomRefBalance float64
	HetBalanceLow    float64
	HetBalanceHigh   float64
	MinHomAltBalance float64
}

// Defaults returns the standard short-read joint-calling thresholds: depth at
// least 10, genotype quality at least 20, and allele balance consistent with
// the called genotype class.
func Defaults() Thresholds {
	return Thresholds{
		MinDepth:         10,
		MinQuality:       20,
		MaxHomRefBalance: 0.1,
		HetBalanceLow:    0.25,
		HetBalanceHigh:   0.75,
		MinHomAltBalance: 0.9,
	}
}

// Counts tallies called genotypes seen and calls set to missing by reason.
// A call failing several filters is counted once, under the first filter in
// depth, quality, balance order.
type Counts struct {
	Calls      int
	LowDepth   int
	LowQuality int
	BadBalance int
}

// Filtered returns the total number of calls set to missing.
func (c Counts) Filtered() int {
	return c.LowDepth + c.LowQuality + c.BadBalance
}

// Record applies the thresholds to every called genotype of a biallelic
// record, setting failing calls to missing in place and tallying reasons in
// counts.
func Record(v vcf.Vcf, th Thresholds, counts *Counts) vcf.Vcf {
	dpIdx := cohort.FormatIndex(v, "DP")
	gqIdx := cohort.FormatIndex(v, "GQ")
	adIdx := cohort.FormatIndex(v, "AD")
	abIdx := cohort.FormatIndex(v, "AB")
	for i := range v.Samples {
		class := cohort.Classify(v.Samples[i])
		if class == cohort.Missing {
			continue
		}
		counts.Calls++
		if dp, ok := cohort.SampleInt(v, i, dpIdx); ok && th.MinDepth > 0 && dp < th.MinDepth {
			cohort.SetMissing(&v.Samples[i])
			counts.LowDepth++
			continue
		}
		if gq, ok := cohort.SampleInt(v, i, gqIdx); ok && th.MinQuality > 0 && gq < th.MinQuality {
			cohort.SetMissing(&v.Samples[i])
			counts.LowQuality++
			continue
		}
		if !balanceOk(v, i, class, th, abIdx, adIdx) {
			cohort.SetMissing(&v.Samples[i])
			counts.BadBalance++
		}
	}
	return v
}

// balanceOk tests the allele balance of a call against the expectation for
// its genotype class. Calls without depth information pass.
func balanceOk(v vcf.Vcf, sampleIdx int, class cohort.GenotypeClass, th Thresholds, abIdx, adIdx int) bool {
	ab, ok := cohort.AlleleBalance(v, sampleIdx, abIdx, adIdx)
	if !ok {
		return true
	}
	switch class {
	case cohort.HomRef:
		return th.MaxHomRefBalance == 0 || ab <= th.MaxHomRefBalance
	case cohort.Het:
		if th.HetBalanceLow > 0 && ab < th.HetBalanceLow {
			return false
		}
		if th.HetBalanceHigh > 0 && ab > th.HetBalanceHigh {
			return false
		}
	case cohort.HomAlt:
		return th.MinHomAltBalance == 0 || ab >= th.MinHomAltBalance
	}
	return true
}
