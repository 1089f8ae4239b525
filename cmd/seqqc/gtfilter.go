package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/genotypeqc"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

func gtFilterUsage(gtFilterFlags *flag.FlagSet) {
	fmt.Print(
		"gtfilter - set genotypes failing hard filters to missing\n\n" +
			"Calls below the depth or quality thresholds, or with an allele\n" +
			"balance inconsistent with the called genotype, become missing so\n" +
			"downstream call rates reflect the filtering. Setting a threshold\n" +
			"to 0 disables it.\n\n" +
			"Usage:\n" +
			"  seqqc gtfilter [options] -i input.vcf.gz -o output.vcf.gz\n\n" +
			"Options:\n")
	gtFilterFlags.PrintDefaults()
}

func runGtFilter(args []string) {
	var err error
	gtFilterFlags := flag.NewFlagSet("gtfilter", flag.ExitOnError)
	defaults := genotypeqc.Defaults()
	input := gtFilterFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := gtFilterFlags.String("o", "stdout", "Output VCF file.")
	minDepth := gtFilterFlags.Int("minDP", defaults.MinDepth, "Minimum read depth for a called genotype.")
	minQuality := gtFilterFlags.Int("minGQ", defaults.MinQuality, "Minimum genotype quality.")
	maxHomRefBalance := gtFilterFlags.Float64("maxHomRefAB", defaults.MaxHomRefBalance, "Maximum allele balance for homozygous reference calls.")
	hetBalanceLow := gtFilterFlags.Float64("minHetAB", defaults.HetBalanceLow, "Minimum allele balance for heterozygous calls.")
	hetBalanceHigh := gtFilterFlags.Float64("maxHetAB", defaults.HetBalanceHigh, "Maximum allele balance for heterozygous calls.")
	minHomAltBalance := gtFilterFlags.Float64("minHomAltAB", defaults.MinHomAltBalance, "Minimum allele balance for homozygous alternate calls.")
	err = gtFilterFlags.Parse(args)
	exception.PanicOnErr(err)
	gtFilterFlags.Usage = func() { gtFilterUsage(gtFilterFlags) }

	if *input == "" {
		gtFilterFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	th := genotypeqc.Thresholds{
		MinDepth:         *minDepth,
		MinQuality:       *minQuality,
		MaxHomRefBalance: *maxHomRefBalance,
		HetBalanceLow:    *hetBalanceLow,
		HetBalanceHigh:   *hetBalanceHigh,
		MinHomAltBalance: *minHomAltBalance,
	}
	filterGenotypes(*input, *output, th)
}

func filterGenotypes(input, output string, th genotypeqc.Thresholds) {
	records, header := vcf.GoReadToChan(input)
	out := fileio.EasyCreate(output)
	vcf.NewWriteHeader(out, header)
	var counts genotypeqc.Counts
	for v := range records {
		vcf.WriteVcf(out, genotypeqc.Record(v, th, &counts))
	}
	err := out.Close()
	exception.PanicOnErr(err)
	log.Printf("set %d of %d calls to missing: %d low depth, %d low quality, %d bad allele balance\n",
		counts.Filtered(), counts.Calls, counts.LowDepth, counts.LowQuality, counts.BadBalance)
}
