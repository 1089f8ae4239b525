// Package sampleqc accumulates per-sample quality metrics across a streamed
// callset and applies the sample-level hard filters: genotype call rate and
// mean coverage depth.
package sampleqc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/gocarina/gocsv"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

// Metrics holds one sample's accumulated QC statistics. Variant-type counts
// tally alternate alleles, so a homozygous call contributes two. Ratio fields
// are NaN when the denominator is zero.
type Metrics struct {
	Sample      string  `csv:"sample"`
	NSites      int     `csv:"n_sites"`
	NCalled     int     `csv:"n_called"`
	CallRate    float64 `csv:"call_rate"`
	MeanDepth   float64 `csv:"mean_dp"`
	MeanQuality float64 `csv:"mean_gq"`
	NHomRef     int     `csv:"n_homref"`
	NHet        int     `csv:"n_het"`
	NHomAlt     int     `csv:"n_homalt"`
	NSnv        int     `csv:"n_snv"`
	NInsertion  int     `csv:"n_insertion"`
	NDeletion   int     `csv:"n_deletion"`
	NSingleton  int     `csv:"n_singleton"`
	TiTvRatio   float64 `csv:"r_titv"`
	HetHomRatio float64 `csv:"r_het_hom"`
	InsDelRatio float64 `csv:"r_ins_del"`
}

// Thresholds holds the sample-level hard filters. Samples must reach
// MinCallRate and strictly exceed MinMeanDepth.
type Thresholds struct {
	MinCallRate  float64
	MinMeanDepth float64
}

// ExomeDefaults returns the exome sequencing thresholds.
func ExomeDefaults() Thresholds {
	return Thresholds{MinCallRate: 0.97, MinMeanDepth: 20}
}

// GenomeDefaults returns the whole-genome sequencing thresholds, which accept
// the lower coverage typical of WGS runs.
func GenomeDefaults() Thresholds {
	return Thresholds{MinCallRate: 0.97, MinMeanDepth: 15}
}

// Accumulator tallies per-sample metrics across streamed biallelic records.
type Accumulator struct {
	names      []string
	sites      int
	nCalled    []int
	depthSum   []int
	depthN     []int
	qualSum    []int
	qualN      []int
	nHomRef    []int
	nHet       []int
	nHomAlt    []int
	nSnv       []int
	nTi        []int
	nTv        []int
	nIns       []int
	nDel       []int
	nSingleton []int
}

// NewAccumulator prepares an accumulator for the given sample columns.
func NewAccumulator(sampleNames []string) *Accumulator {
	n := len(sampleNames)
	return &Accumulator{
		names:      sampleNames,
		nCalled:    make([]int, n),
		depthSum:   make([]int, n),
		depthN:     make([]int, n),
		qualSum:    make([]int, n),
		qualN:      make([]int, n),
		nHomRef:    make([]int, n),
		nHet:       make([]int, n),
		nHomAlt:    make([]int, n),
		nSnv:       make([]int, n),
		nTi:        make([]int, n),
		nTv:        make([]int, n),
		nIns:       make([]int, n),
		nDel:       make([]int, n),
		nSingleton: make([]int, n),
	}
}

// Add folds one biallelic record into the tallies. Records that are not
// biallelic or carry only a star allele are ignored.
func (a *Accumulator) Add(v vcf.Vcf) {
	if len(v.Alt) != 1 || v.Alt[0] == "*" {
		return
	}
	a.sites++
	dpIdx := cohort.FormatIndex(v, "DP")
	gqIdx := cohort.FormatIndex(v, "GQ")
	isSnv := cohort.IsSnv(v.Ref, v.Alt[0])
	isTi := cohort.IsTransition(v.Ref, v.Alt[0])
	isIns := cohort.IsInsertion(v.Ref, v.Alt[0])
	isDel := cohort.IsDeletion(v.Ref, v.Alt[0])

	var siteAc int
	for i := range v.Samples {
		_, alt := cohort.CountAlleles(v.Samples[i])
		siteAc += alt
	}

	for i := range v.Samples {
		called, alt := cohort.CountAlleles(v.Samples[i])
		if called == 0 {
			continue
		}
		a.nCalled[i]++
		if dp, ok := cohort.SampleInt(v, i, dpIdx); ok {
			a.depthSum[i] += dp
			a.depthN[i]++
		}
		if gq, ok := cohort.SampleInt(v, i, gqIdx); ok {
			a.qualSum[i] += gq
			a.qualN[i]++
		}
		switch cohort.Classify(v.Samples[i]) {
		case cohort.HomRef:
			a.nHomRef[i]++
		case cohort.Het:
			a.nHet[i]++
		case cohort.HomAlt:
			a.nHomAlt[i]++
		}
		if alt == 0 {
			continue
		}
		switch {
		case isSnv:
			a.nSnv[i] += alt
			if isTi {
				a.nTi[i] += alt
			} else {
				a.nTv[i] += alt
			}
		case isIns:
			a.nIns[i] += alt
		case isDel:
			a.nDel[i] += alt
		}
		if siteAc == 1 && alt == 1 {
			a.nSingleton[i]++
		}
	}
}

// Metrics returns the accumulated statistics for every sample.
func (a *Accumulator) Metrics() []Metrics {
	out := make([]Metrics, len(a.names))
	for i := range a.names {
		m := Metrics{
			Sample:      a.names[i],
			NSites:      a.sites,
			NCalled:     a.nCalled[i],
			MeanDepth:   math.NaN(),
			MeanQuality: math.NaN(),
			NHomRef:     a.nHomRef[i],
			NHet:        a.nHet[i],
			NHomAlt:     a.nHomAlt[i],
			NSnv:        a.nSnv[i],
			NInsertion:  a.nIns[i],
			NDeletion:   a.nDel[i],
			NSingleton:  a.nSingleton[i],
			TiTvRatio:   ratio(a.nTi[i], a.nTv[i]),
			HetHomRatio: ratio(a.nHet[i], a.nHomAlt[i]),
			InsDelRatio: ratio(a.nIns[i], a.nDel[i]),
		}
		if a.sites > 0 {
			m.CallRate = float64(a.nCalled[i]) / float64(a.sites)
		}
		if a.depthN[i] > 0 {
			m.MeanDepth = float64(a.depthSum[i]) / float64(a.depthN[i])
		}
		if a.qualN[i] > 0 {
			m.MeanQuality = float64(a.qualSum[i]) / float64(a.qualN[i])
		}
		out[i] = m
	}
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// Evaluate returns the hard-filter failures for one sample's metrics. A
// sample without depth information is not failed on depth.
func Evaluate(m Metrics, th Thresholds) []string {
	var fail []string
	if th.MinCallRate > 0 && m.CallRate < th.MinCallRate {
		fail = append(fail, "callrate")
	}
	if th.MinMeanDepth > 0 && !math.IsNaN(m.MeanDepth) && m.MeanDepth <= th.MinMeanDepth {
		fail = append(fail, "depth")
	}
	return fail
}

const metricsHeader = "sample\tn_sites\tn_called\tcall_rate\tmean_dp\tmean_gq\tn_homref\tn_het\tn_homalt\tn_snv\tn_insertion\tn_deletion\tn_singleton\tr_titv\tr_het_hom\tr_ins_del\tstatus\treasons"

// WriteMetrics writes the per-sample metrics table with pass/fail status
// columns from the thresholds.
func WriteMetrics(file string, metrics []Metrics, th Thresholds) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, metricsHeader)
	for i := range metrics {
		m := metrics[i]
		status, reasons := "pass", "."
		if fail := Evaluate(m, th); len(fail) > 0 {
			status = "fail"
			reasons = strings.Join(fail, ",")
		}
		fmt.Fprintf(out, "%s\t%d\t%d\t%.4f\t%.4f\t%.4f\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\t%s\t%s\n",
			m.Sample, m.NSites, m.NCalled, m.CallRate, m.MeanDepth, m.MeanQuality,
			m.NHomRef, m.NHet, m.NHomAlt, m.NSnv, m.NInsertion, m.NDeletion, m.NSingleton,
			m.TiTvRatio, m.HetHomRatio, m.InsDelRatio, status, reasons)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// ReadMetrics parses a metrics table written by WriteMetrics. NaN ratio
// fields round-trip.
func ReadMetrics(file string) ([]Metrics, error) {
	fileBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
	var rows []Metrics
	if err = gocsv.UnmarshalBytes(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("parsing sample metrics %s: %w", file, err)
	}
	return rows, nil
}
