// Package variantqc computes per-site quality metrics for biallelic records
// and evaluates the site-level filters: genotype call rate, Hardy-Weinberg
// equilibrium on autosomes, VQSR status, and low-complexity regions.
package variantqc

import (
	"fmt"
	"math"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/hwe"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

// Sites with an approximate Hardy-Weinberg P value above this cutoff skip the
// exact test.
const hweScreen = 0.05

// Thresholds holds the site-level filters. Zero-valued numeric fields and
// false flags disable the corresponding filter.
type Thresholds struct {
	MinCallRate     float64
	MinHwePvalue    float64
	RequirePass     bool
	ExcludeLcr      bool
	DropMonomorphic bool
}

// Defaults returns the joint-callset site filters: call rate at least 0.97,
// Hardy-Weinberg P at least 1e-10, VQSR PASS only, and low-complexity
// regions excluded.
func Defaults() Thresholds {
	return Thresholds{
		MinCallRate:  0.97,
		MinHwePvalue: 1e-10,
		RequirePass:  true,
		ExcludeLcr:   true,
	}
}

// Metrics summarizes one biallelic site. HwePvalue is NaN for sites where
// the test does not apply.
type Metrics struct {
	Chr          string
	Pos          int
	Ref          string
	Alt          string
	NCalled      int
	CallRate     float64
	AlleleCount  int
	AlleleNumber int
	AltFreq      float64
	NHomRef      int
	NHet         int
	NHomAlt      int
	HwePvalue    float64
	Fail         []string
}

// Pass reports whether the site passed every enabled filter.
func (m Metrics) Pass() bool {
	return len(m.Fail) == 0
}

// Site computes metrics for one biallelic record and evaluates the
// thresholds, recording each failed filter in Metrics.Fail.
func Site(v vcf.Vcf, th Thresholds) Metrics {
	m := Metrics{Chr: v.Chr, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt[0], HwePvalue: math.NaN()}
	for i := range v.Samples {
		switch cohort.Classify(v.Samples[i]) {
		case cohort.HomRef:
			m.NHomRef++
		case cohort.Het:
			m.NHet++
		case cohort.HomAlt:
			m.NHomAlt++
		default:
			continue
		}
		called, alt := cohort.CountAlleles(v.Samples[i])
		m.AlleleNumber += called
		m.AlleleCount += alt
	}
	m.NCalled = m.NHomRef + m.NHet + m.NHomAlt
	if len(v.Samples) > 0 {
		m.CallRate = float64(m.NCalled) / float64(len(v.Samples))
	}
	if m.AlleleNumber > 0 {
		m.AltFreq = float64(m.AlleleCount) / float64(m.AlleleNumber)
	}
	if cohort.IsAutosome(v.Chr) && m.NCalled > 0 {
		m.HwePvalue = hwe.Fast(m.NHomRef, m.NHet, m.NHomAlt, hweScreen)
	}

	if th.MinCallRate > 0 && m.CallRate < th.MinCallRate {
		m.Fail = append(m.Fail, "callrate")
	}
	if th.MinHwePvalue > 0 && !math.IsNaN(m.HwePvalue) && m.HwePvalue < th.MinHwePvalue {
		m.Fail = append(m.Fail, "hwe")
	}
	if th.RequirePass && (!cohort.PassingFilter(v) || infoHasFlag(v.Info, "FAIL_VQSR")) {
		m.Fail = append(m.Fail, "vqsr")
	}
	if th.ExcludeLcr && infoHasFlag(v.Info, "LCR") {
		m.Fail = append(m.Fail, "lcr")
	}
	if th.DropMonomorphic && (m.AlleleCount == 0 || m.AlleleCount == m.AlleleNumber) {
		m.Fail = append(m.Fail, "monomorphic")
	}
	return m
}

func infoHasFlag(info, key string) bool {
	for _, word := range strings.Split(info, ";") {
		if word == key {
			return true
		}
	}
	return false
}

// MetricsWriter streams per-site metrics to a tab-delimited table.
type MetricsWriter struct {
	out *fileio.EasyWriter
}

// NewMetricsWriter creates the output file and writes the header line.
func NewMetricsWriter(file string) *MetricsWriter {
	w := &MetricsWriter{out: fileio.EasyCreate(file)}
	fmt.Fprintln(w.out, "chrom\tpos\tref\talt\tn_called\tcall_rate\tac\tan\taf\tn_homref\tn_het\tn_homalt\thwe_p\tstatus\treasons")
	return w
}

// Write appends one site's metrics.
func (w *MetricsWriter) Write(m Metrics) {
	status, reasons := "pass", "."
	if !m.Pass() {
		status = "fail"
		reasons = strings.Join(m.Fail, ",")
	}
	hweField := "NA"
	if !math.IsNaN(m.HwePvalue) {
		hweField = fmt.Sprintf("%.4g", m.HwePvalue)
	}
	fmt.Fprintf(w.out, "%s\t%d\t%s\t%s\t%d\t%.4f\t%d\t%d\t%.4f\t%d\t%d\t%d\t%s\t%s\t%s\n",
		m.Chr, m.Pos, m.Ref, m.Alt, m.NCalled, m.CallRate, m.AlleleCount, m.AlleleNumber,
		m.AltFreq, m.NHomRef, m.NHet, m.NHomAlt, hweField, status, reasons)
}

// Close flushes and closes the table.
func (w *MetricsWriter) Close() error {
	return w.out.Close()
}
