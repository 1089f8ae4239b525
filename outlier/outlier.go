// Package outlier flags samples whose quality metrics fall outside robust
// bounds built from the cohort distribution. Bounds are the median plus and
// minus a multiple of the median absolute deviation, computed per population
// when group labels are available so ancestry shifts in ti/tv or het rates
// are not mistaken for bad samples.
package outlier

import (
	"fmt"

	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/montanaflynn/stats"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"golang.org/x/exp/slices"
)

// DefaultMultiplier scales the median absolute deviation when building
// bounds. The deviation is used raw, without a normal consistency factor.
const DefaultMultiplier = 4

// cohortGroup labels the bounds computed over every sample at once.
const cohortGroup = "all"

// Options control bound construction.
type Options struct {
	Multiplier float64
	MinGroup   int // strata smaller than this fall back to cohort bounds
}

// DefaultOptions returns the standard outlier criteria.
func DefaultOptions() Options {
	return Options{Multiplier: DefaultMultiplier, MinGroup: 5}
}

// Metric names one value extracted from a sample's quality metrics.
type Metric struct {
	Name  string
	Value func(m sampleqc.Metrics) float64
}

// DefaultMetrics returns the metric set screened for outliers.
func DefaultMetrics() []Metric {
	return []Metric{
		{Name: "n_snv", Value: func(m sampleqc.Metrics) float64 { return float64(m.NSnv) }},
		{Name: "n_singleton", Value: func(m sampleqc.Metrics) float64 { return float64(m.NSingleton) }},
		{Name: "r_titv", Value: func(m sampleqc.Metrics) float64 { return m.TiTvRatio }},
		{Name: "r_het_hom", Value: func(m sampleqc.Metrics) float64 { return m.HetHomRatio }},
		{Name: "r_ins_del", Value: func(m sampleqc.Metrics) float64 { return m.InsDelRatio }},
	}
}

// Bound is the acceptance interval for one metric within one group.
type Bound struct {
	Metric string
	Group  string
	N      int
	Median float64
	Mad    float64
	Low    float64
	High   float64
}

// Contains reports whether the value sits inside the bound. NaN values are
// never outliers, they simply carry no information for the metric.
func (b Bound) Contains(value float64) bool {
	if value != value {
		return true
	}
	return value >= b.Low && value <= b.High
}

// Flag records one metric of one sample falling outside its bound.
type Flag struct {
	Sample string
	Metric string
	Group  string
	Value  float64
	Low    float64
	High   float64
}

// Detect builds bounds for each metric and returns them with the flags for
// every sample falling outside. groups maps sample to population label;
// samples without a label, and members of strata smaller than opt.MinGroup,
// are judged against the cohort-wide bounds.
func Detect(metrics []sampleqc.Metrics, groups map[string]string, defs []Metric, opt Options) ([]Bound, []Flag) {
	if opt.Multiplier <= 0 {
		opt.Multiplier = DefaultMultiplier
	}
	var bounds []Bound
	var flags []Flag
	for _, def := range defs {
		byGroup := make(map[string][]float64)
		var cohortValues []float64
		for i := range metrics {
			v := def.Value(metrics[i])
			if v != v {
				continue
			}
			cohortValues = append(cohortValues, v)
			if label := groups[metrics[i].Sample]; label != "" {
				byGroup[label] = append(byGroup[label], v)
			}
		}
		if len(cohortValues) == 0 {
			continue
		}
		metricBounds := map[string]Bound{
			cohortGroup: newBound(def.Name, cohortGroup, cohortValues, opt.Multiplier),
		}
		labels := make([]string, 0, len(byGroup))
		for label := range byGroup {
			labels = append(labels, label)
		}
		slices.Sort(labels)
		for _, label := range labels {
			if len(byGroup[label]) >= opt.MinGroup {
				metricBounds[label] = newBound(def.Name, label, byGroup[label], opt.Multiplier)
			}
		}

		bounds = append(bounds, metricBounds[cohortGroup])
		for _, label := range labels {
			if b, found := metricBounds[label]; found {
				bounds = append(bounds, b)
			}
		}
		for i := range metrics {
			v := def.Value(metrics[i])
			b := metricBounds[cohortGroup]
			if label := groups[metrics[i].Sample]; label != "" {
				if grouped, found := metricBounds[label]; found {
					b = grouped
				}
			}
			if !b.Contains(v) {
				flags = append(flags, Flag{
					Sample: metrics[i].Sample,
					Metric: def.Name,
					Group:  b.Group,
					Value:  v,
					Low:    b.Low,
					High:   b.High,
				})
			}
		}
	}
	return bounds, flags
}

func newBound(metric, group string, values []float64, multiplier float64) Bound {
	data := stats.Float64Data(values)
	median, err := data.Median()
	exception.PanicOnErr(err)
	mad, err := data.MedianAbsoluteDeviation()
	exception.PanicOnErr(err)
	return Bound{
		Metric: metric,
		Group:  group,
		N:      len(values),
		Median: median,
		Mad:    mad,
		Low:    median - multiplier*mad,
		High:   median + multiplier*mad,
	}
}

// Failing returns the unique samples carrying at least one flag, in first
// occurrence order.
func Failing(flags []Flag) []string {
	var out []string
	seen := make(map[string]bool)
	for i := range flags {
		if !seen[flags[i].Sample] {
			seen[flags[i].Sample] = true
			out = append(out, flags[i].Sample)
		}
	}
	return out
}

// WriteBounds writes the acceptance intervals.
func WriteBounds(file string, bounds []Bound) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "metric\tgroup\tn\tmedian\tmad\tlow\thigh")
	for _, b := range bounds {
		fmt.Fprintf(out, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\n", b.Metric, b.Group, b.N, b.Median, b.Mad, b.Low, b.High)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// WriteFlags writes one row per outlying metric per sample.
func WriteFlags(file string, flags []Flag) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "sample\tmetric\tgroup\tvalue\tlow\thigh")
	for _, f := range flags {
		fmt.Fprintf(out, "%s\t%s\t%s\t%.4f\t%.4f\t%.4f\n", f.Sample, f.Metric, f.Group, f.Value, f.Low, f.High)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}
