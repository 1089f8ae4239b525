package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/kinship"
	"github.com/pkg/profile"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

func kinshipUsage(kinshipFlags *flag.FlagSet) {
	fmt.Print(
		"kinship - estimate pairwise relatedness with the KING-robust method\n\n" +
			"Builds a thinned common-variant genotype matrix from the input VCF\n" +
			"and scores every sample pair. Second-degree relatives and closer\n" +
			"score above the default threshold of 0.088. The -keep and -drop\n" +
			"outputs partition the cohort into a maximal unrelated subset and\n" +
			"its complement.\n\n" +
			"Usage:\n" +
			"  seqqc kinship [options] -i input.vcf.gz -o pairs.tsv\n\n" +
			"Options:\n")
	kinshipFlags.PrintDefaults()
}

func runKinship(args []string) {
	var err error
	kinshipFlags := flag.NewFlagSet("kinship", flag.ExitOnError)
	cpuprofile := kinshipFlags.Bool("cpuprofile", false, "write cpu profile")
	memprofile := kinshipFlags.Bool("memprofile", false, "write memory profile")
	input := kinshipFlags.String("i", "", "Input VCF file. May be gzipped.")
	output := kinshipFlags.String("o", "stdout", "Output pairwise kinship table.")
	keepFile := kinshipFlags.String("keep", "", "Output file listing a maximal unrelated sample subset, one per line.")
	dropFile := kinshipFlags.String("drop", "", "Output file listing samples dropped to break related pairs, one per line.")
	threshold := kinshipFlags.Float64("threshold", kinship.DefaultThreshold, "Kinship above this marks a pair as related.")
	minMaf := kinshipFlags.Float64("maf", 0.01, "Minimum minor allele frequency for a marker site.")
	minCallRate := kinshipFlags.Float64("minCallRate", 0.99, "Minimum genotype call rate for a marker site.")
	spacing := kinshipFlags.Int("spacing", 10000, "Minimum distance in bp between marker sites.")
	maxSites := kinshipFlags.Int("maxSites", 0, "Maximum number of marker sites. 0 for unlimited.")
	hist := kinshipFlags.Bool("hist", false, "Print a text histogram of pairwise kinship to stdout.")
	verbose := kinshipFlags.Int("verbose", 0, "Verbosity level for debugging.")
	err = kinshipFlags.Parse(args)
	exception.PanicOnErr(err)
	kinshipFlags.Usage = func() { kinshipUsage(kinshipFlags) }

	if *memprofile && *cpuprofile {
		kinshipFlags.Usage()
		log.Fatal("ERROR: -memprofile and -cpuprofile are mutually exclusive.")
	}
	if *memprofile {
		defer profile.Start(profile.MemProfile).Stop()
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if *input == "" {
		kinshipFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}

	opt := cohort.MatrixOptions{
		MinMaf:        *minMaf,
		MinCallRate:   *minCallRate,
		MinSpacing:    *spacing,
		MaxSites:      *maxSites,
		AutosomesOnly: true,
	}
	kinshipVcf(*input, *output, *keepFile, *dropFile, opt, *threshold, *hist, *verbose)
}

func kinshipVcf(input, output, keepFile, dropFile string, opt cohort.MatrixOptions, threshold float64, hist bool, verbose int) {
	m := cohort.LoadMatrix(input, opt, verbose)
	if len(m.Sites) == 0 {
		log.Fatal("ERROR: no marker sites pass the matrix filters, try relaxing -maf or -minCallRate")
	}
	pairs := kinship.Estimate(m)
	kinship.WritePairs(output, pairs, threshold)

	related := kinship.Related(pairs, threshold)
	log.Printf("%d of %d pairs are related at kinship > %g\n", len(related), len(pairs), threshold)
	if keepFile != "" || dropFile != "" {
		keep, dropped := kinship.Unrelated(m.SampleNames, related, m.SampleCallRates())
		if keepFile != "" {
			writeSampleList(keepFile, keep)
		}
		if dropFile != "" {
			writeSampleList(dropFile, dropped)
		}
		log.Printf("dropping %d samples leaves %d unrelated\n", len(dropped), len(keep))
	}

	if hist {
		values := make([]float64, 0, len(pairs))
		for i := range pairs {
			if !math.IsNaN(pairs[i].Kinship) {
				values = append(values, pairs[i].Kinship)
			}
		}
		asciiHist("pairwise kinship", values, 20)
	}
}

func writeSampleList(file string, samples []string) {
	var err error
	out := fileio.EasyCreate(file)
	for i := range samples {
		_, err = fmt.Fprintln(out, samples[i])
		exception.PanicOnErr(err)
	}
	err = out.Close()
	exception.PanicOnErr(err)
}
