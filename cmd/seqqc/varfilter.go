package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/variantqc"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

func varFilterUsage(varFilterFlags *flag.FlagSet) {
	fmt.Print(
		"varfilter - compute site metrics and remove failing sites\n\n" +
			"Biallelic sites are scored on call rate, Hardy-Weinberg equilibrium\n" +
			"on autosomes, VQSR status, and low-complexity overlap. Run annotate\n" +
			"first so the LCR and FAIL_VQSR flags are present. Setting a numeric\n" +
			"threshold to 0 disables it.\n\n" +
			"Usage:\n" +
			"  seqqc varfilter [options] -i input.vcf.gz -o output.vcf.gz\n\n" +
			"Options:\n")
	varFilterFlags.PrintDefaults()
}

func runVarFilter(args []string) {
	var err error
	varFilterFlags := flag.NewFlagSet("varfilter", flag.ExitOnError)
	defaults := variantqc.Defaults()
	input := varFilterFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := varFilterFlags.String("o", "stdout", "Output VCF file.")
	metricsFile := varFilterFlags.String("metrics", "", "Write the per-site metrics table to this file.")
	minCallRate := varFilterFlags.Float64("minCallRate", defaults.MinCallRate, "Minimum genotype call rate.")
	minHwe := varFilterFlags.Float64("minHwe", defaults.MinHwePvalue, "Minimum Hardy-Weinberg equilibrium P value on autosomes.")
	requirePass := varFilterFlags.Bool("requirePass", defaults.RequirePass, "Remove sites failing VQSR.")
	excludeLcr := varFilterFlags.Bool("excludeLcr", defaults.ExcludeLcr, "Remove sites flagged as low-complexity.")
	dropMonomorphic := varFilterFlags.Bool("dropMonomorphic", defaults.DropMonomorphic, "Remove sites without a called alternate allele.")
	keepFail := varFilterFlags.Bool("keepFail", false, "Write failing sites too, keeping the metrics table as the record of failures.")
	verbose := varFilterFlags.Int("verbose", 0, "Level of verbosity in log.")
	err = varFilterFlags.Parse(args)
	exception.PanicOnErr(err)
	varFilterFlags.Usage = func() { varFilterUsage(varFilterFlags) }

	if *input == "" {
		varFilterFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	th := variantqc.Thresholds{
		MinCallRate:     *minCallRate,
		MinHwePvalue:    *minHwe,
		RequirePass:     *requirePass,
		ExcludeLcr:      *excludeLcr,
		DropMonomorphic: *dropMonomorphic,
	}
	filterVariants(*input, *output, *metricsFile, th, *keepFail, *verbose)
}

func filterVariants(input, output, metricsFile string, th variantqc.Thresholds, keepFail bool, verbose int) {
	records, header := vcf.GoReadToChan(input)
	out := fileio.EasyCreate(output)
	vcf.NewWriteHeader(out, header)
	var metricsOut *variantqc.MetricsWriter
	if metricsFile != "" {
		metricsOut = variantqc.NewMetricsWriter(metricsFile)
	}
	var seen, passed, unsplit int
	for v := range records {
		seen++
		if !vcf.IsBiallelic(v) {
			unsplit++
			vcf.WriteVcf(out, v)
			continue
		}
		m := variantqc.Site(v, th)
		if metricsOut != nil {
			metricsOut.Write(m)
		}
		if m.Pass() {
			passed++
		} else if !keepFail {
			continue
		}
		vcf.WriteVcf(out, v)
	}
	err := out.Close()
	exception.PanicOnErr(err)
	if metricsOut != nil {
		err = metricsOut.Close()
		exception.PanicOnErr(err)
	}
	if unsplit > 0 {
		log.Printf("WARNING: %d multiallelic sites were written through unscored, run 'seqqc split' first\n", unsplit)
	}
	log.Printf("%d of %d sites pass\n", passed, seen)
	if verbose > 0 && seen > 0 {
		log.Printf("site pass rate %.4f\n", float64(passed)/float64(seen))
	}
}
