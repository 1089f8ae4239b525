// Package cohort provides shared access helpers for a joint callset: genotype
// classification, FORMAT field retrieval, reference coordinate tests, the
// sample-annotation table, and a dense genotype matrix for the linear-algebra
// steps of the pipeline.
package cohort

import (
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/vcf"
)

// GenotypeClass buckets a single genotype call. A call with any missing allele
// is treated as entirely missing.
type GenotypeClass byte

const (
	Missing GenotypeClass = iota
	HomRef
	Het
	HomAlt
)

func (g GenotypeClass) String() string {
	switch g {
	case HomRef:
		return "homref"
	case Het:
		return "het"
	case HomAlt:
		return "homalt"
	default:
		return "missing"
	}
}

// Classify returns the genotype class of a sample call. Haploid calls can only
// be HomRef or HomAlt.
func Classify(s vcf.Sample) GenotypeClass {
	if len(s.Alleles) == 0 {
		return Missing
	}
	var ref, alt int
	for i := range s.Alleles {
		switch {
		case s.Alleles[i] < 0:
			return Missing
		case s.Alleles[i] == 0:
			ref++
		default:
			alt++
		}
	}
	switch {
	case alt == 0:
		return HomRef
	case ref == 0:
		return HomAlt
	default:
		return Het
	}
}

// IsCalled reports whether a sample has a fully called genotype.
func IsCalled(s vcf.Sample) bool {
	return Classify(s) != Missing
}

// CountAlleles returns the number of called alleles and how many of them are
// alternate. Both are zero for missing calls.
func CountAlleles(s vcf.Sample) (called, alt int) {
	if Classify(s) == Missing {
		return 0, 0
	}
	called = len(s.Alleles)
	for i := range s.Alleles {
		if s.Alleles[i] > 0 {
			alt++
		}
	}
	return called, alt
}

// SetMissing overwrites a genotype call with an uncalled genotype of the same
// ploidy, keeping the remaining FORMAT values intact.
func SetMissing(s *vcf.Sample) {
	if len(s.Alleles) == 0 {
		return
	}
	for i := range s.Alleles {
		s.Alleles[i] = -1
	}
	for i := range s.Phase {
		s.Phase[i] = false
	}
}

// FormatIndex returns the index of tag within the record's FORMAT fields, or
// -1 when the record does not carry the tag.
func FormatIndex(v vcf.Vcf, tag string) int {
	for i := range v.Format {
		if v.Format[i] == tag {
			return i
		}
	}
	return -1
}

func sampleField(v vcf.Vcf, sampleIdx, fieldIdx int) (string, bool) {
	if fieldIdx < 1 || sampleIdx < 0 || sampleIdx >= len(v.Samples) {
		return "", false
	}
	data := v.Samples[sampleIdx].FormatData
	if fieldIdx >= len(data) || data[fieldIdx] == "" || data[fieldIdx] == "." {
		return "", false
	}
	return data[fieldIdx], true
}

// SampleInt parses an integer FORMAT value (e.g. DP, GQ) for one sample. The
// bool is false when the field is absent, empty, or not numeric.
func SampleInt(v vcf.Vcf, sampleIdx, fieldIdx int) (int, bool) {
	field, ok := sampleField(v, sampleIdx, fieldIdx)
	if !ok {
		return 0, false
	}
	val, err := strconv.Atoi(field)
	if err != nil {
		return 0, false
	}
	return val, true
}

// SampleFloat parses a floating-point FORMAT value for one sample.
func SampleFloat(v vcf.Vcf, sampleIdx, fieldIdx int) (float64, bool) {
	field, ok := sampleField(v, sampleIdx, fieldIdx)
	if !ok {
		return 0, false
	}
	val, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// AlleleDepths returns the reference and alternate read counts from the AD
// field of a biallelic record.
func AlleleDepths(v vcf.Vcf, sampleIdx, adIdx int) (refCount, altCount int, ok bool) {
	field, fieldOk := sampleField(v, sampleIdx, adIdx)
	if !fieldOk {
		return 0, 0, false
	}
	words := strings.Split(field, ",")
	if len(words) < 2 {
		return 0, 0, false
	}
	var err error
	refCount, err = strconv.Atoi(words[0])
	if err != nil {
		return 0, 0, false
	}
	altCount, err = strconv.Atoi(words[1])
	if err != nil {
		return 0, 0, false
	}
	return refCount, altCount, true
}

// AlleleBalance returns the alternate-allele read fraction alt/(ref+alt) for
// one sample, preferring an explicit AB FORMAT value over recomputation from
// AD. Pass -1 for an index when the corresponding tag is absent.
func AlleleBalance(v vcf.Vcf, sampleIdx, abIdx, adIdx int) (float64, bool) {
	if ab, ok := SampleFloat(v, sampleIdx, abIdx); ok {
		return ab, true
	}
	refCount, altCount, ok := AlleleDepths(v, sampleIdx, adIdx)
	if !ok || refCount+altCount == 0 {
		return 0, false
	}
	return float64(altCount) / float64(refCount+altCount), true
}

// PassingFilter reports whether a record's FILTER column is PASS or unset.
func PassingFilter(v vcf.Vcf) bool {
	return v.Filter == "PASS" || v.Filter == "." || v.Filter == ""
}
