package cohort

import (
	"fmt"
	"strings"
)

// Build identifies a human reference genome build.
type Build string

const (
	GRCh37 Build = "GRCh37"
	GRCh38 Build = "GRCh38"
)

// ParseBuild recognizes common names for the two supported builds.
func ParseBuild(s string) (Build, error) {
	switch strings.ToLower(s) {
	case "grch37", "hg19", "37":
		return GRCh37, nil
	case "grch38", "hg38", "38":
		return GRCh38, nil
	}
	return "", fmt.Errorf("unrecognized genome build: %s", s)
}

func contigBase(chr string) string {
	return strings.TrimPrefix(chr, "chr")
}

// IsAutosome reports whether a contig name is one of chromosomes 1-22, with or
// without a chr prefix.
func IsAutosome(chr string) bool {
	switch contigBase(chr) {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11",
		"12", "13", "14", "15", "16", "17", "18", "19", "20", "21", "22":
		return true
	}
	return false
}

// IsChrX reports whether a contig name is the X chromosome.
func IsChrX(chr string) bool {
	return contigBase(chr) == "X"
}

// IsChrY reports whether a contig name is the Y chromosome.
func IsChrY(chr string) bool {
	return contigBase(chr) == "Y"
}

type span struct {
	start int
	end   int
}

// Pseudoautosomal regions on chromosome X, 1-based inclusive.
var parX = map[Build][]span{
	GRCh37: {{60001, 2699520}, {154931044, 155260560}},
	GRCh38: {{10001, 2781479}, {155701383, 156030895}},
}

// InParX reports whether an X-chromosome position falls inside a
// pseudoautosomal region, where males carry two alleles and heterozygous
// calls are expected.
func InParX(build Build, pos int) bool {
	for _, region := range parX[build] {
		if pos >= region.start && pos <= region.end {
			return true
		}
	}
	return false
}
