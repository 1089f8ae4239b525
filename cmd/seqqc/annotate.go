package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/annotate"
	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

// inputFiles is a custom type that gets filled by flag.Parse()
type inputFiles []string

func (i *inputFiles) String() string {
	return strings.Join(*i, " ")
}

func (i *inputFiles) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func annotateUsage(annotateFlags *flag.FlagSet) {
	fmt.Print(
		"annotate - add allele counts, allele balance, and site flags\n\n" +
			"AC, AN, and AF are recomputed from the genotypes present. Sites\n" +
			"overlapping a low-complexity BED gain an LCR flag, non-PASS sites a\n" +
			"FAIL_VQSR flag, and a consequence table adds GENE and CSQ fields.\n\n" +
			"Usage:\n" +
			"  seqqc annotate [options] -i input.vcf.gz -o output.vcf.gz\n\n" +
			"Options:\n")
	annotateFlags.PrintDefaults()
}

func runAnnotate(args []string) {
	var err error
	annotateFlags := flag.NewFlagSet("annotate", flag.ExitOnError)
	var lcrFiles inputFiles
	input := annotateFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := annotateFlags.String("o", "stdout", "Output VCF file.")
	annotateFlags.Var(&lcrFiles, "lcr", "BED file of low-complexity regions. May be declared more than once with additional -lcr flags.")
	csqFile := annotateFlags.String("csq", "", "Tab-delimited consequence table with chrom, pos, ref, alt, gene, and consequence columns.")
	verbose := annotateFlags.Int("verbose", 0, "Level of verbosity in log.")
	err = annotateFlags.Parse(args)
	exception.PanicOnErr(err)
	annotateFlags.Usage = func() { annotateUsage(annotateFlags) }

	if *input == "" {
		annotateFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	annotateVcf(*input, *output, lcrFiles, *csqFile, *verbose)
}

func annotateVcf(input, output string, lcrFiles []string, csqFile string, verbose int) {
	ann, err := annotate.New(lcrFiles, csqFile)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	records, header := vcf.GoReadToChan(input)
	header = cohort.AddHeaderLines(header, ann.HeaderLines()...)
	out := fileio.EasyCreate(output)
	vcf.NewWriteHeader(out, header)
	var n int
	for v := range records {
		vcf.WriteVcf(out, ann.Record(v))
		n++
	}
	err = out.Close()
	exception.PanicOnErr(err)
	if verbose > 0 {
		log.Printf("annotated %d records\n", n)
	}
}
