package cohort

import "fmt"

// Site identifies one biallelic variant together with its cohort
// alternate-allele frequency.
type Site struct {
	Chr     string
	Pos     int
	Ref     string
	Alt     string
	AltFreq float64
}

// Key returns a chr:pos:ref:alt string identifying the site.
func (s Site) Key() string {
	return fmt.Sprintf("%s:%d:%s:%s", s.Chr, s.Pos, s.Ref, s.Alt)
}

// IsSnv reports whether a ref/alt pair describes a single-nucleotide variant.
func IsSnv(ref, alt string) bool {
	return len(ref) == 1 && len(alt) == 1 && ref != alt && alt != "*"
}

// IsInsertion reports whether a ref/alt pair describes an insertion.
func IsInsertion(ref, alt string) bool {
	return len(alt) > len(ref) && alt != "*"
}

// IsDeletion reports whether a ref/alt pair describes a deletion.
func IsDeletion(ref, alt string) bool {
	return len(ref) > len(alt) && alt != "*"
}

// IsTransition reports whether a single-nucleotide variant is a purine-purine
// or pyrimidine-pyrimidine exchange. Transversions are all remaining SNVs.
func IsTransition(ref, alt string) bool {
	if !IsSnv(ref, alt) {
		return false
	}
	switch ref + alt {
	case "AG", "GA", "CT", "TC":
		return true
	}
	return false
}
