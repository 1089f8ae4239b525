package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/vcf"
)

func sampleQcUsage(sampleQcFlags *flag.FlagSet) {
	fmt.Print(
		"sampleqc - compute per-sample quality metrics\n\n" +
			"Accumulates call rate, depth, quality, genotype class, variant\n" +
			"type, and singleton counts per sample over biallelic records, then\n" +
			"evaluates the hard call rate and depth filters for the chosen\n" +
			"assay.\n\n" +
			"Usage:\n" +
			"  seqqc sampleqc [options] -i input.vcf.gz -o metrics.tsv\n\n" +
			"Options:\n")
	sampleQcFlags.PrintDefaults()
}

func runSampleQc(args []string) {
	var err error
	sampleQcFlags := flag.NewFlagSet("sampleqc", flag.ExitOnError)
	input := sampleQcFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := sampleQcFlags.String("o", "stdout", "Output metrics table.")
	assay := sampleQcFlags.String("assay", "wes", "Sequencing assay for depth expectations: wes or wgs.")
	minCallRate := sampleQcFlags.Float64("minCallRate", 0, "Minimum sample call rate. 0 uses the assay default.")
	minMeanDepth := sampleQcFlags.Float64("minMeanDepth", 0, "Minimum mean depth over called sites. 0 uses the assay default.")
	hist := sampleQcFlags.Bool("hist", false, "Print terminal histograms of call rate and mean depth.")
	verbose := sampleQcFlags.Int("verbose", 0, "Level of verbosity in log.")
	err = sampleQcFlags.Parse(args)
	exception.PanicOnErr(err)
	sampleQcFlags.Usage = func() { sampleQcUsage(sampleQcFlags) }

	if *input == "" {
		sampleQcFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	var th sampleqc.Thresholds
	switch *assay {
	case "wes":
		th = sampleqc.ExomeDefaults()
	case "wgs":
		th = sampleqc.GenomeDefaults()
	default:
		sampleQcFlags.Usage()
		errExit("\nERROR: -assay must be wes or wgs")
	}
	if *minCallRate > 0 {
		th.MinCallRate = *minCallRate
	}
	if *minMeanDepth > 0 {
		th.MinMeanDepth = *minMeanDepth
	}
	sampleQcVcf(*input, *output, th, *hist, *verbose)
}

func sampleQcVcf(input, output string, th sampleqc.Thresholds, hist bool, verbose int) {
	records, header := vcf.GoReadToChan(input)
	names := cohort.SampleNames(header)
	if len(names) == 0 {
		log.Fatal("ERROR: input vcf has no sample columns")
	}
	acc := sampleqc.NewAccumulator(names)
	var n int
	for v := range records {
		acc.Add(v)
		n++
	}
	metrics := acc.Metrics()
	sampleqc.WriteMetrics(output, metrics, th)

	var failing int
	for i := range metrics {
		if len(sampleqc.Evaluate(metrics[i], th)) > 0 {
			failing++
		}
	}
	if verbose > 0 {
		log.Printf("accumulated %d records\n", n)
	}
	log.Printf("%d of %d samples fail the hard filters\n", failing, len(metrics))

	if hist {
		callRates := make([]float64, len(metrics))
		depths := make([]float64, len(metrics))
		for i := range metrics {
			callRates[i] = metrics[i].CallRate
			depths[i] = metrics[i].MeanDepth
		}
		asciiHist("sample call rate", callRates, 20)
		asciiHist("sample mean depth", depths, 20)
	}
}
