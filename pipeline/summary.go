package pipeline

import (
	"fmt"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/covid19-hg/covid19-sequencing/sexcheck"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// Verdict is the final per-sample QC call. A sample passes when no stage
// recorded a reason against it.
type Verdict struct {
	Sample  string
	Reasons []string
}

// Pass reports whether the sample survived every enabled check.
func (v Verdict) Pass() bool {
	return len(v.Reasons) == 0
}

func buildVerdicts(metrics []sampleqc.Metrics, th sampleqc.Thresholds, sexMismatch, kinDropped, outliers []string) []Verdict {
	mismatch := toSet(sexMismatch)
	dropped := toSet(kinDropped)
	outlying := toSet(outliers)
	verdicts := make([]Verdict, len(metrics))
	for i := range metrics {
		v := Verdict{Sample: metrics[i].Sample}
		v.Reasons = append(v.Reasons, sampleqc.Evaluate(metrics[i], th)...)
		if mismatch[v.Sample] {
			v.Reasons = append(v.Reasons, "sex")
		}
		if dropped[v.Sample] {
			v.Reasons = append(v.Reasons, "kinship")
		}
		if outlying[v.Sample] {
			v.Reasons = append(v.Reasons, "outlier")
		}
		verdicts[i] = v
	}
	return verdicts
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// writeSummary writes the per-sample verdict table, one row per sample in
// metrics order.
func writeSummary(file string, metrics []sampleqc.Metrics, sexBySample map[string]sexcheck.Result, kinDropped, outliers []string, verdicts []Verdict) {
	dropped := toSet(kinDropped)
	outlying := toSet(outliers)
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "sample\tcall_rate\tmean_dp\tn_snv\tr_titv\timputed_sex\tsex_status\tkinship\toutlier\tstatus\treasons")
	for i := range metrics {
		m := metrics[i]
		imputed, sexStatus := ".", "."
		if r, found := sexBySample[m.Sample]; found {
			if r.Imputed != "" {
				imputed = r.Imputed
			}
			sexStatus = r.Status()
		}
		kin := "keep"
		if dropped[m.Sample] {
			kin = "drop"
		}
		flagged := "no"
		if outlying[m.Sample] {
			flagged = "yes"
		}
		status, reasons := "pass", "."
		if !verdicts[i].Pass() {
			status = "fail"
			reasons = strings.Join(verdicts[i].Reasons, ",")
		}
		fmt.Fprintf(out, "%s\t%.4f\t%.2f\t%d\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Sample, m.CallRate, m.MeanDepth, m.NSnv, m.TiTvRatio, imputed, sexStatus, kin, flagged, status, reasons)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// writePassList writes the passing sample IDs, one per line.
func writePassList(file string, verdicts []Verdict) {
	out := fileio.EasyCreate(file)
	for i := range verdicts {
		if verdicts[i].Pass() {
			fmt.Fprintln(out, verdicts[i].Sample)
		}
	}
	err := out.Close()
	exception.PanicOnErr(err)
}
