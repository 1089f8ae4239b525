package cohort

import (
	"strings"

	"github.com/vertgenlab/gonomics/vcf"
	"golang.org/x/exp/slices"
)

// SampleNames returns the VCF sample names ordered by column index.
func SampleNames(h vcf.Header) []string {
	names := make([]string, len(h.Samples))
	for name, idx := range h.Samples {
		names[idx] = name
	}
	return names
}

// AddHeaderLines inserts metadata lines immediately above the #CHROM line of a
// VCF header, skipping lines already present so re-annotation stays idempotent.
func AddHeaderLines(h vcf.Header, lines ...string) vcf.Header {
	insertAt := len(h.Text)
	for i := range h.Text {
		if strings.HasPrefix(h.Text[i], "#CHROM") {
			insertAt = i
			break
		}
	}
	var adding []string
	for _, line := range lines {
		if !slices.Contains(h.Text, line) {
			adding = append(adding, line)
		}
	}
	if len(adding) == 0 {
		return h
	}
	updated := make([]string, 0, len(h.Text)+len(adding))
	updated = append(updated, h.Text[:insertAt]...)
	updated = append(updated, adding...)
	updated = append(updated, h.Text[insertAt:]...)
	h.Text = updated
	return h
}
