package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/pca"
	"github.com/pkg/profile"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

func pcaUsage(pcaFlags *flag.FlagSet) {
	fmt.Print(
		"pca - compute genotype principal components\n\n" +
			"Builds a thinned common-variant genotype matrix from the input VCF,\n" +
			"normalizes genotypes by allele frequency, and decomposes the matrix\n" +
			"into principal components. With -fit the decomposition uses only the\n" +
			"listed samples and the rest are projected onto the fitted axes, so\n" +
			"related samples do not distort the components. With -project no fit\n" +
			"happens at all: every sample is placed on components described by a\n" +
			"previously written loadings table, and the marker filter flags are\n" +
			"ignored because the table defines the marker set.\n\n" +
			"Usage:\n" +
			"  seqqc pca [options] -i input.vcf.gz -scores scores.tsv\n\n" +
			"Options:\n")
	pcaFlags.PrintDefaults()
}

func runPca(args []string) {
	var err error
	pcaFlags := flag.NewFlagSet("pca", flag.ExitOnError)
	cpuprofile := pcaFlags.Bool("cpuprofile", false, "write cpu profile")
	memprofile := pcaFlags.Bool("memprofile", false, "write memory profile")
	input := pcaFlags.String("i", "", "Input VCF file. May be gzipped.")
	fitFile := pcaFlags.String("fit", "", "File listing samples to fit the components on, one per line. Remaining samples are projected. Default fits all samples.")
	projectFile := pcaFlags.String("project", "", "Project every sample onto this previously written loadings table instead of fitting.")
	components := pcaFlags.Int("k", pca.DefaultComponents, "Number of principal components to report.")
	scoresFile := pcaFlags.String("scores", "stdout", "Output per-sample score table.")
	loadingsFile := pcaFlags.String("loadings", "", "Optional output table of per-site loadings.")
	varianceFile := pcaFlags.String("variance", "", "Optional output table of variance explained per component.")
	plotFile := pcaFlags.String("plot", "", "Optional PC1 vs PC2 scatter plot. Format follows the file extension (.pdf, .png, .svg).")
	sampleFile := pcaFlags.String("samples", "", "Tab-delimited sample table with a population column for coloring the plot.")
	minMaf := pcaFlags.Float64("maf", 0.01, "Minimum minor allele frequency for a marker site.")
	minCallRate := pcaFlags.Float64("minCallRate", 0.99, "Minimum genotype call rate for a marker site.")
	spacing := pcaFlags.Int("spacing", 10000, "Minimum distance in bp between marker sites.")
	maxSites := pcaFlags.Int("maxSites", 0, "Maximum number of marker sites. 0 for unlimited.")
	verbose := pcaFlags.Int("verbose", 0, "Verbosity level for debugging.")
	err = pcaFlags.Parse(args)
	exception.PanicOnErr(err)
	pcaFlags.Usage = func() { pcaUsage(pcaFlags) }

	if *memprofile && *cpuprofile {
		pcaFlags.Usage()
		log.Fatal("ERROR: -memprofile and -cpuprofile are mutually exclusive.")
	}
	if *memprofile {
		defer profile.Start(profile.MemProfile).Stop()
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if *input == "" {
		pcaFlags.Usage()
		errExit("\nERROR: must specify input vcf (-i)")
	}
	if *components < 1 {
		pcaFlags.Usage()
		errExit("\nERROR: -k must be at least 1")
	}
	if *projectFile != "" && *fitFile != "" {
		pcaFlags.Usage()
		errExit("\nERROR: -fit and -project are mutually exclusive")
	}
	if *projectFile != "" && (*loadingsFile != "" || *varianceFile != "" || *plotFile != "") {
		pcaFlags.Usage()
		errExit("\nERROR: only the -scores output is available with -project")
	}

	opt := cohort.MatrixOptions{
		MinMaf:        *minMaf,
		MinCallRate:   *minCallRate,
		MinSpacing:    *spacing,
		MaxSites:      *maxSites,
		AutosomesOnly: true,
	}
	if *projectFile != "" {
		opt = cohort.MatrixOptions{AutosomesOnly: true}
		projectVcf(*input, *projectFile, *scoresFile, opt, *verbose)
		return
	}
	pcaVcf(*input, *fitFile, *scoresFile, *loadingsFile, *varianceFile, *plotFile, *sampleFile, opt, *components, *verbose)
}

// projectVcf places every sample of a callset onto components fitted
// elsewhere, described by a written loadings table.
func projectVcf(input, loadingsFile, scoresFile string, opt cohort.MatrixOptions, verbose int) {
	r, err := pca.ReadLoadings(loadingsFile)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	m := cohort.LoadMatrix(input, opt, verbose)
	if len(m.SampleNames) == 0 {
		log.Fatalf("ERROR: no samples in %s", input)
	}
	proj, err := r.Project(m, nil)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if verbose > 0 {
		log.Printf("projected %d samples onto %d markers\n", len(m.SampleNames), len(r.Sites))
	}
	pca.WriteScores(scoresFile, r.Components, r.AllScores(m.SampleNames, proj))
}

func pcaVcf(input, fitFile, scoresFile, loadingsFile, varianceFile, plotFile, sampleFile string, opt cohort.MatrixOptions, components, verbose int) {
	m := cohort.LoadMatrix(input, opt, verbose)
	if len(m.Sites) == 0 {
		log.Fatal("ERROR: no marker sites pass the matrix filters, try relaxing -maf or -minCallRate")
	}

	var fitSamples []string
	if fitFile != "" {
		fitSamples = fileio.Read(fitFile)
		if len(fitSamples) == 0 {
			log.Fatalf("ERROR: no sample names in %s", fitFile)
		}
	}
	r, err := pca.Fit(m, fitSamples, components)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if verbose > 0 {
		log.Printf("fit %d components on %d samples over %d sites\n", r.Components, len(r.Samples), len(r.Sites))
	}

	var projected []string
	var projScores [][]float64
	if fitFile != "" {
		fitSet := make(map[string]bool)
		for i := range r.Samples {
			fitSet[r.Samples[i]] = true
		}
		for i := range m.SampleNames {
			if !fitSet[m.SampleNames[i]] {
				projected = append(projected, m.SampleNames[i])
			}
		}
		if len(projected) > 0 {
			projScores, err = r.Project(m, projected)
			if err != nil {
				log.Fatalf("ERROR: %v", err)
			}
		}
	}

	scores := r.AllScores(projected, projScores)
	pca.WriteScores(scoresFile, r.Components, scores)
	if loadingsFile != "" {
		pca.WriteLoadings(loadingsFile, r)
	}
	if varianceFile != "" {
		pca.WriteVariance(varianceFile, r)
	}

	if plotFile != "" {
		var groups map[string]string
		if sampleFile != "" {
			table, err := cohort.ReadTable(sampleFile)
			if err != nil {
				log.Fatalf("ERROR: %v", err)
			}
			groups = table.Groups()
		}
		err = pca.ScatterPlot(plotFile, r, scores, groups)
		if err != nil {
			log.Fatalf("ERROR: %v", err)
		}
	}
}
