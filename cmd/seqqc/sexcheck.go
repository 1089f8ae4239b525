package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/sexcheck"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/vcf"
)

func sexCheckUsage(sexCheckFlags *flag.FlagSet) {
	fmt.Print(
		"sexcheck - impute sex from X heterozygosity\n\n" +
			"Estimates the inbreeding coefficient F over common SNVs outside\n" +
			"the X pseudoautosomal regions. Hemizygous males approach F of 1,\n" +
			"females sit near 0. A sample table with a sex column flags\n" +
			"mismatches against reported sex.\n\n" +
			"Usage:\n" +
			"  seqqc sexcheck [options] -i input.vcf.gz -o sexcheck.tsv\n\n" +
			"Options:\n")
	sexCheckFlags.PrintDefaults()
}

func runSexCheck(args []string) {
	var err error
	sexCheckFlags := flag.NewFlagSet("sexcheck", flag.ExitOnError)
	defaults := sexcheck.DefaultOptions()
	input := sexCheckFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := sexCheckFlags.String("o", "stdout", "Output results table.")
	sampleFile := sexCheckFlags.String("samples", "", "Tab-delimited sample table with sample_id and sex columns for mismatch reporting.")
	buildName := sexCheckFlags.String("build", "GRCh38", "Genome build for the pseudoautosomal coordinates: GRCh37 or GRCh38.")
	minMaf := sexCheckFlags.Float64("minMaf", defaults.MinMaf, "Minimum minor allele frequency for an informative site.")
	femaleCeiling := sexCheckFlags.Float64("femaleF", defaults.FemaleCeiling, "Samples with F below this are called female.")
	maleFloor := sexCheckFlags.Float64("maleF", defaults.MaleFloor, "Samples with F above this are called male.")
	requirePass := sexCheckFlags.Bool("requirePass", defaults.RequirePass, "Use only sites with a passing FILTER column.")
	err = sexCheckFlags.Parse(args)
	exception.PanicOnErr(err)
	sexCheckFlags.Usage = func() { sexCheckUsage(sexCheckFlags) }

	if *input == "" {
		sexCheckFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}
	build, err := cohort.ParseBuild(*buildName)
	if err != nil {
		sexCheckFlags.Usage()
		errExit("\nERROR: " + err.Error())
	}

	opt := sexcheck.Options{
		Build:         build,
		MinMaf:        *minMaf,
		RequirePass:   *requirePass,
		FemaleCeiling: *femaleCeiling,
		MaleFloor:     *maleFloor,
	}
	sexCheckVcf(*input, *output, *sampleFile, opt)
}

func sexCheckVcf(input, output, sampleFile string, opt sexcheck.Options) {
	var table *cohort.Table
	var err error
	if sampleFile != "" {
		table, err = cohort.ReadTable(sampleFile)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
	}
	records, header := vcf.GoReadToChan(input)
	names := cohort.SampleNames(header)
	if len(names) == 0 {
		log.Fatal("ERROR: input vcf has no sample columns")
	}
	acc := sexcheck.NewAccumulator(names, opt)
	for v := range records {
		acc.Add(v)
	}
	results := acc.Results(table)
	sexcheck.WriteResults(output, results)

	if mismatches := sexcheck.Mismatches(results); len(mismatches) > 0 {
		log.Printf("WARNING: %d samples mismatch their reported sex: %s\n", len(mismatches), strings.Join(mismatches, ", "))
	}
}
