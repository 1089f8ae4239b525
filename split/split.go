// Package split breaks multiallelic VCF records into biallelic records with
// downcoded genotypes so that every downstream QC step can assume one
// alternate allele per record.
package split

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/vcf"
)

const oldMultiallelicTag = "OLD_MULTIALLELIC"

// HeaderLine returns the INFO metadata line describing the tag added to split
// records.
func HeaderLine() string {
	return "##INFO=<ID=" + oldMultiallelicTag + ",Number=1,Type=String,Description=\"Original chr:pos:ref/alts of a split multiallelic record\">"
}

// Record returns the biallelic representation of one input record. Biallelic
// input is passed through untouched; multiallelic input yields one record per
// non-star alternate allele, each with genotypes downcoded to the target
// allele, AD collapsed to two entries, and PL dropped. Records whose only
// alternate is the spanning-deletion star vanish. Split products are trimmed
// to their minimal allele representation, which can advance POS past later
// records from the same site.
func Record(v vcf.Vcf) []vcf.Vcf {
	if len(v.Alt) == 0 {
		return []vcf.Vcf{v}
	}
	if len(v.Alt) == 1 && v.Alt[0] != "*" {
		return []vcf.Vcf{v}
	}
	out := make([]vcf.Vcf, 0, len(v.Alt))
	for k := range v.Alt {
		if v.Alt[k] == "*" {
			continue
		}
		out = append(out, splitOne(v, k))
	}
	return out
}

// GoSplit launches a goroutine reading a VCF and sends the biallelic
// representation of every record on the returned channel. The returned header
// carries the OLD_MULTIALLELIC INFO line.
func GoSplit(file string) (<-chan vcf.Vcf, vcf.Header) {
	records, header := vcf.GoReadToChan(file)
	header = cohort.AddHeaderLines(header, HeaderLine())
	out := make(chan vcf.Vcf, 1000)
	go func() {
		for v := range records {
			for _, product := range Record(v) {
				out <- product
			}
		}
		close(out)
	}()
	return out, header
}

func splitOne(v vcf.Vcf, altIdx int) vcf.Vcf {
	keep := keepFields(v.Format)
	format := make([]string, len(keep))
	adIdx := -1
	for i := range keep {
		format[i] = v.Format[keep[i]]
		if format[i] == "AD" {
			adIdx = i
		}
	}
	samples := make([]vcf.Sample, len(v.Samples))
	for i := range v.Samples {
		samples[i] = splitSample(v.Samples[i], int16(altIdx+1), keep, adIdx, altIdx)
	}
	ref, alt, pos := trimAlleles(v.Ref, v.Alt[altIdx], v.Pos)
	return vcf.Vcf{
		Chr:     v.Chr,
		Pos:     pos,
		Id:      v.Id,
		Ref:     ref,
		Alt:     []string{alt},
		Qual:    v.Qual,
		Filter:  v.Filter,
		Info:    fmt.Sprintf("%s=%s:%d:%s/%s", oldMultiallelicTag, v.Chr, v.Pos, v.Ref, strings.Join(v.Alt, ",")),
		Format:  format,
		Samples: samples,
	}
}

// splitSample downcodes one genotype call: the target allele becomes allele 1
// and every other allele, reference or not, becomes allele 0.
func splitSample(s vcf.Sample, target int16, keep []int, adIdx, altIdx int) vcf.Sample {
	out := vcf.Sample{
		Alleles: make([]int16, len(s.Alleles)),
		Phase:   make([]bool, len(s.Phase)),
	}
	copy(out.Phase, s.Phase)
	for j := range s.Alleles {
		switch {
		case s.Alleles[j] < 0:
			out.Alleles[j] = -1
		case s.Alleles[j] == target:
			out.Alleles[j] = 1
		default:
			out.Alleles[j] = 0
		}
	}
	if len(s.FormatData) == 0 {
		return out
	}
	out.FormatData = make([]string, len(keep))
	for i := range keep {
		if keep[i] < len(s.FormatData) {
			out.FormatData[i] = s.FormatData[keep[i]]
		}
	}
	if adIdx >= 0 {
		out.FormatData[adIdx] = collapseDepths(out.FormatData[adIdx], altIdx)
	}
	return out
}

// keepFields returns the FORMAT indices carried onto split products.
// Likelihood fields cannot be sliced per-allele, so PL is dropped.
func keepFields(format []string) []int {
	keep := make([]int, 0, len(format))
	for i := range format {
		if format[i] == "PL" {
			continue
		}
		keep = append(keep, i)
	}
	return keep
}

// collapseDepths reduces an R-length AD vector to [other, target], summing
// the depths of the reference and every non-target allele into "other".
func collapseDepths(ad string, altIdx int) string {
	if ad == "" || ad == "." {
		return ad
	}
	words := strings.Split(ad, ",")
	targetPos := altIdx + 1
	if targetPos >= len(words) {
		return "."
	}
	var other, target int
	for i := range words {
		val, err := strconv.Atoi(words[i])
		if err != nil {
			return "."
		}
		if i == targetPos {
			target = val
		} else {
			other += val
		}
	}
	return fmt.Sprintf("%d,%d", other, target)
}

// trimAlleles reduces a split ref/alt pair to its minimal representation,
// first dropping shared trailing bases and then shared leading bases while
// advancing pos.
func trimAlleles(ref, alt string, pos int) (string, string, int) {
	for len(ref) > 1 && len(alt) > 1 && ref[len(ref)-1] == alt[len(alt)-1] {
		ref = ref[:len(ref)-1]
		alt = alt[:len(alt)-1]
	}
	for len(ref) > 1 && len(alt) > 1 && ref[0] == alt[0] {
		ref = ref[1:]
		alt = alt[1:]
		pos++
	}
	return ref, alt, pos
}
