// Package sexcheck imputes genetic sex from the inbreeding coefficient on
// non-pseudoautosomal X-chromosome SNVs and reconciles it against reported
// sex. Females show the heterozygosity expected under random mating while
// males, hemizygous on X, show almost none.
package sexcheck

import (
	"fmt"
	"math"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

// Options selects the X-chromosome sites used for the estimate and the F
// cutoffs for calling sex.
type Options struct {
	Build         cohort.Build
	MinMaf        float64
	RequirePass   bool
	FemaleCeiling float64
	MaleFloor     float64
}

// DefaultOptions returns the standard settings: common PASS SNVs on GRCh38,
// F below 0.2 called female and above 0.8 called male.
func DefaultOptions() Options {
	return Options{
		Build:         cohort.GRCh38,
		MinMaf:        0.05,
		RequirePass:   true,
		FemaleCeiling: 0.2,
		MaleFloor:     0.8,
	}
}

// Result is one sample's X-chromosome inbreeding estimate. F is NaN when the
// sample had no usable sites.
type Result struct {
	Sample   string
	NSites   int
	ObsHet   int
	ExpHet   float64
	F        float64
	Imputed  string
	Reported string
}

// Status classifies the agreement between imputed and reported sex.
func (r Result) Status() string {
	switch {
	case r.Imputed == "":
		return "ambiguous"
	case r.Reported != "" && r.Reported != r.Imputed:
		return "mismatch"
	default:
		return "ok"
	}
}

// Accumulator folds X-chromosome records into per-sample heterozygosity
// tallies.
type Accumulator struct {
	opt    Options
	names  []string
	nSites []int
	obsHet []int
	expHet []float64
}

// NewAccumulator prepares an accumulator for the given sample columns.
func NewAccumulator(sampleNames []string, opt Options) *Accumulator {
	return &Accumulator{
		opt:    opt,
		names:  sampleNames,
		nSites: make([]int, len(sampleNames)),
		obsHet: make([]int, len(sampleNames)),
		expHet: make([]float64, len(sampleNames)),
	}
}

// Add folds one record into the tallies. Records outside the non-PAR X, or
// failing the site selection in the options, are ignored.
func (a *Accumulator) Add(v vcf.Vcf) {
	if !cohort.IsChrX(v.Chr) || cohort.InParX(a.opt.Build, v.Pos) {
		return
	}
	if len(v.Alt) != 1 || !cohort.IsSnv(v.Ref, v.Alt[0]) {
		return
	}
	if a.opt.RequirePass && !cohort.PassingFilter(v) {
		return
	}
	var alleleNumber, altCount int
	for i := range v.Samples {
		called, alt := cohort.CountAlleles(v.Samples[i])
		alleleNumber += called
		altCount += alt
	}
	if alleleNumber < 2 {
		return
	}
	p := float64(altCount) / float64(alleleNumber)
	maf := p
	if maf > 0.5 {
		maf = 1 - maf
	}
	if maf < a.opt.MinMaf {
		return
	}
	// unbiased per-site expected heterozygosity
	siteExp := 2 * p * (1 - p) * float64(alleleNumber) / float64(alleleNumber-1)
	for i := range v.Samples {
		class := cohort.Classify(v.Samples[i])
		if class == cohort.Missing {
			continue
		}
		a.nSites[i]++
		a.expHet[i] += siteExp
		if class == cohort.Het {
			a.obsHet[i]++
		}
	}
}

// Results computes F for every sample and imputes sex from the cutoffs.
// Reported sex comes from the optional sample-annotation table.
func (a *Accumulator) Results(table *cohort.Table) []Result {
	out := make([]Result, len(a.names))
	for i := range a.names {
		r := Result{
			Sample: a.names[i],
			NSites: a.nSites[i],
			ObsHet: a.obsHet[i],
			ExpHet: a.expHet[i],
			F:      math.NaN(),
		}
		if r.ExpHet > 0 {
			r.F = 1 - float64(r.ObsHet)/r.ExpHet
		}
		switch {
		case math.IsNaN(r.F):
		case r.F < a.opt.FemaleCeiling:
			r.Imputed = "female"
		case r.F > a.opt.MaleFloor:
			r.Imputed = "male"
		}
		if row, found := table.Lookup(r.Sample); found {
			r.Reported = cohort.NormalizeSex(row.Sex)
		}
		out[i] = r
	}
	return out
}

// Mismatches returns the samples whose imputed sex contradicts their
// reported sex.
func Mismatches(results []Result) []string {
	var out []string
	for i := range results {
		if results[i].Status() == "mismatch" {
			out = append(out, results[i].Sample)
		}
	}
	return out
}

// WriteResults writes the per-sample sex imputation table.
func WriteResults(file string, results []Result) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "sample\tn_sites\tobs_het\texp_het\tf\timputed_sex\treported_sex\tstatus")
	for i := range results {
		r := results[i]
		fmt.Fprintf(out, "%s\t%d\t%d\t%.4f\t%.4f\t%s\t%s\t%s\n",
			r.Sample, r.NSites, r.ObsHet, r.ExpHet, r.F, dotWhenEmpty(r.Imputed), dotWhenEmpty(r.Reported), r.Status())
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

func dotWhenEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "."
	}
	return s
}
