package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/split"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

func splitUsage(splitFlags *flag.FlagSet) {
	fmt.Print(
		"split - decompose multiallelic records into biallelic records\n\n" +
			"Each alternate allele becomes its own left-trimmed record with the\n" +
			"original site recorded in the OLD_MULTIALLELIC INFO field. Star\n" +
			"alleles are dropped.\n\n" +
			"Usage:\n" +
			"  seqqc split [options] -i input.vcf.gz -o output.vcf.gz\n\n" +
			"Options:\n")
	splitFlags.PrintDefaults()
}

func runSplit(args []string) {
	var err error
	splitFlags := flag.NewFlagSet("split", flag.ExitOnError)
	input := splitFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := splitFlags.String("o", "stdout", "Output VCF file.")
	verbose := splitFlags.Int("verbose", 0, "Level of verbosity in log.")
	err = splitFlags.Parse(args)
	exception.PanicOnErr(err)
	splitFlags.Usage = func() { splitUsage(splitFlags) }

	if *input == "" {
		splitFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	splitVcf(*input, *output, *verbose)
}

func splitVcf(input, output string, verbose int) {
	records, header := split.GoSplit(input)
	out := fileio.EasyCreate(output)
	vcf.NewWriteHeader(out, header)
	var n int
	for v := range records {
		vcf.WriteVcf(out, v)
		n++
	}
	err := out.Close()
	exception.PanicOnErr(err)
	if verbose > 0 {
		log.Printf("wrote %d biallelic records\n", n)
	}
}
