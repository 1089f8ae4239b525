package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/outlier"
	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/vertgenlab/gonomics/exception"
)

func outliersUsage(outliersFlags *flag.FlagSet) {
	fmt.Print(
		"outliers - flag samples with outlying QC metrics\n\n" +
			"Reads a per-sample metrics table written by 'seqqc sampleqc' and\n" +
			"flags samples falling outside median +/- mad*MAD bounds for each\n" +
			"metric. With a sample table carrying a population column, bounds\n" +
			"are computed within each population so ancestry differences in\n" +
			"variant counts do not flag whole groups.\n\n" +
			"Usage:\n" +
			"  seqqc outliers [options] -i metrics.tsv -flags flags.tsv\n\n" +
			"Options:\n")
	outliersFlags.PrintDefaults()
}

func runOutliers(args []string) {
	var err error
	outliersFlags := flag.NewFlagSet("outliers", flag.ExitOnError)
	defaults := outlier.DefaultOptions()
	input := outliersFlags.String("i", "", "Input sample metrics table from 'seqqc sampleqc'.")
	sampleFile := outliersFlags.String("samples", "", "Tab-delimited sample table with a population column for stratified bounds.")
	boundsFile := outliersFlags.String("bounds", "", "Optional output table of the computed bounds.")
	flagsFile := outliersFlags.String("flags", "stdout", "Output table of flagged samples.")
	multiplier := outliersFlags.Float64("mad", defaults.Multiplier, "Number of median absolute deviations spanned by the bounds.")
	minGroup := outliersFlags.Int("minGroup", defaults.MinGroup, "Minimum samples in a population before it gets its own bounds. Smaller groups fall back to cohort bounds.")
	err = outliersFlags.Parse(args)
	exception.PanicOnErr(err)
	outliersFlags.Usage = func() { outliersUsage(outliersFlags) }

	if *input == "" {
		outliersFlags.Usage()
		errExit("\nERROR: must specify input metrics table (-i)")
	}

	opt := outlier.Options{Multiplier: *multiplier, MinGroup: *minGroup}
	detectOutliers(*input, *sampleFile, *boundsFile, *flagsFile, opt)
}

func detectOutliers(input, sampleFile, boundsFile, flagsFile string, opt outlier.Options) {
	metrics, err := sampleqc.ReadMetrics(input)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if len(metrics) == 0 {
		log.Fatalf("ERROR: no samples in %s", input)
	}

	var groups map[string]string
	if sampleFile != "" {
		table, err := cohort.ReadTable(sampleFile)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
		groups = table.Groups()
	}

	bounds, flags := outlier.Detect(metrics, groups, outlier.DefaultMetrics(), opt)
	if boundsFile != "" {
		outlier.WriteBounds(boundsFile, bounds)
	}
	outlier.WriteFlags(flagsFile, flags)

	failing := outlier.Failing(flags)
	if len(failing) > 0 {
		log.Printf("%d of %d samples are outliers: %s\n", len(failing), len(metrics), strings.Join(failing, ", "))
	} else {
		log.Printf("no outliers among %d samples\n", len(metrics))
	}
}
