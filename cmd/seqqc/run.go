package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/covid19-hg/covid19-sequencing/pipeline"
	"github.com/vertgenlab/gonomics/exception"
)

func runPipelineUsage(runFlags *flag.FlagSet) {
	fmt.Print(
		"run - run the full cohort QC pipeline\n\n" +
			"Reads a TOML config and runs every QC stage in order: multiallelic\n" +
			"splitting, genotype filtering, annotation, site filtering, sample\n" +
			"metrics, sex check, kinship, PCA, and outlier detection. Writes the\n" +
			"filtered VCF, the per-stage tables, and a per-sample summary with\n" +
			"the final pass list to the output directory.\n\n" +
			"Usage:\n" +
			"  seqqc run -config qc.toml\n\n" +
			"Options:\n")
	runFlags.PrintDefaults()
}

func runPipeline(args []string) {
	var err error
	runFlags := flag.NewFlagSet("run", flag.ExitOnError)
	configFile := runFlags.String("config", "", "TOML config file. Unset keys keep their defaults.")
	outDir := runFlags.String("out", "", "Override the output directory from the config.")
	verbose := runFlags.Int("verbose", 0, "Verbosity level for debugging.")
	err = runFlags.Parse(args)
	exception.PanicOnErr(err)
	runFlags.Usage = func() { runPipelineUsage(runFlags) }

	if *configFile == "" {
		runFlags.Usage()
		errExit("\nERROR: must specify a config file (-config)")
	}

	cfg, err := pipeline.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	err = pipeline.Run(cfg, *verbose)
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
}
