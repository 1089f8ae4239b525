package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

const version string = "0.1.0"
const gonomicsVersion string = "1.0.1-0.20240426183757-e6c6ab634c20"

type subcommand struct {
	name     string
	function func(args []string)
	blurb    string
}

// SubCommands contains all valid subcommands.
// New subcommands can be added to seqqc by adding a new entry to this array.
var SubCommands = []*subcommand{
	{"split", runSplit, "decompose multiallelic records into biallelic records"},
	{"annotate", runAnnotate, "add allele counts, allele balance, and site flags"},
	{"gtfilter", runGtFilter, "set genotypes failing hard filters to missing"},
	{"varfilter", runVarFilter, "compute site metrics and remove failing sites"},
	{"sampleqc", runSampleQc, "compute per-sample quality metrics"},
	{"sexcheck", runSexCheck, "impute sex from X heterozygosity"},
	{"kinship", runKinship, "estimate pairwise relatedness and an unrelated set"},
	{"pca", runPca, "compute genotype principal components"},
	{"outliers", runOutliers, "flag samples outside robust metric bounds"},
	{"run", runPipeline, "run the full QC pipeline from a config file"},
}

func usage() {
	s := new(strings.Builder)
	s.WriteString(
		"Program: seqqc (cohort sequencing quality control)\n" +
			"Version: " + version + " (gonomics " + gonomicsVersion + ")\n" +
			"\nUsage:\tseqqc <command> [options]\n\n" +
			"Commands:\n")

	// add subcommand text via tabwriter so the columns align
	w := tabwriter.NewWriter(s, 0, 8, 5, '\t', tabwriter.AlignRight)
	for i := range SubCommands {
		fmt.Fprintf(w, "\t%s\t%s\n", SubCommands[i].name, SubCommands[i].blurb)
	}
	w.Flush()
	fmt.Print(s.String())
}

// commandMap builds a map of possible subcommands keyed on the name of the subcommand
func commandMap() map[string]func(args []string) {
	m := make(map[string]func(args []string))
	for i := range SubCommands {
		m[SubCommands[i].name] = SubCommands[i].function
	}
	return m
}

func main() {
	flag.Usage = usage
	flag.Parse()

	// check if first argument is a valid subcommand
	command := commandMap()[flag.Arg(0)]

	// if no command is found, print the usage and return
	if command == nil {
		flag.Usage()
		return
	}

	// if command successfully found, pass in remaining arguments and execute
	command(flag.Args()[1:])
}

func errExit(err string) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
