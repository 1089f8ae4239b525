// Package annotate rewrites VCF records with the cohort-level INFO and
// per-genotype FORMAT fields the QC steps filter on: recomputed allele
// counts, low-complexity region and VQSR-failure flags, allele balance, and
// optional gene consequences from an external table.
package annotate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/gocarina/gocsv"
	"github.com/vertgenlab/gonomics/bed"
	"github.com/vertgenlab/gonomics/interval"
	"github.com/vertgenlab/gonomics/vcf"
)

// Consequence is one row of a tab-delimited variant consequence table, as
// exported from a variant effect predictor run on the cohort's sites.
type Consequence struct {
	Chrom       string `csv:"chrom"`
	Pos         int    `csv:"pos"`
	Ref         string `csv:"ref"`
	Alt         string `csv:"alt"`
	Gene        string `csv:"gene"`
	Consequence string `csv:"consequence"`
}

// Annotator applies site and genotype annotations to streamed records.
type Annotator struct {
	lcr map[string]*interval.IntervalNode
	csq map[string]Consequence
}

// New builds an Annotator. Both inputs are optional: lcrBeds are BED files of
// low-complexity regions, pooled into one exclusion set, and csqTable is a
// tab-delimited consequence table with chrom, pos, ref, alt, gene, and
// consequence columns.
func New(lcrBeds []string, csqTable string) (*Annotator, error) {
	a := new(Annotator)
	var lcrIntervals []interval.Interval
	for _, lcrBed := range lcrBeds {
		if lcrBed == "" {
			continue
		}
		regions := bed.Read(lcrBed)
		for i := range regions {
			lcrIntervals = append(lcrIntervals, regions[i])
		}
	}
	if len(lcrIntervals) > 0 {
		a.lcr = interval.BuildTree(lcrIntervals)
	}
	if csqTable != "" {
		rows, err := readConsequences(csqTable)
		if err != nil {
			return nil, err
		}
		a.csq = make(map[string]Consequence)
		for i := range rows {
			key := cohort.Site{Chr: rows[i].Chrom, Pos: rows[i].Pos, Ref: rows[i].Ref, Alt: rows[i].Alt}.Key()
			a.csq[key] = rows[i]
		}
	}
	return a, nil
}

func readConsequences(file string) ([]Consequence, error) {
	fileBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
	var rows []Consequence
	if err = gocsv.UnmarshalBytes(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("parsing consequence table %s: %w", file, err)
	}
	return rows, nil
}

// HeaderLines returns the metadata lines for every field the Annotator can
// add.
func (a *Annotator) HeaderLines() []string {
	return []string{
		"##INFO=<ID=AC,Number=A,Type=Integer,Description=\"Alternate allele count in called genotypes\">",
		"##INFO=<ID=AN,Number=1,Type=Integer,Description=\"Total number of called alleles\">",
		"##INFO=<ID=AF,Number=A,Type=Float,Description=\"Alternate allele frequency in called genotypes\">",
		"##INFO=<ID=LCR,Number=0,Type=Flag,Description=\"Site overlaps a low-complexity region\">",
		"##INFO=<ID=FAIL_VQSR,Number=0,Type=Flag,Description=\"Site failed variant quality score recalibration\">",
		"##INFO=<ID=GENE,Number=1,Type=String,Description=\"Gene symbol from the consequence table\">",
		"##INFO=<ID=CSQ,Number=1,Type=String,Description=\"Predicted consequence from the consequence table\">",
		"##FORMAT=<ID=AB,Number=1,Type=Float,Description=\"Alternate allele read fraction\">",
	}
}

// Record returns the record with allele counts recomputed from its genotypes
// and the remaining annotations applied. The input record is not modified.
func (a *Annotator) Record(v vcf.Vcf) vcf.Vcf {
	v.Info = setAlleleCounts(v)
	if a.lcr != nil && len(interval.Query(a.lcr, v, "any")) > 0 {
		v.Info = setInfoFlag(v.Info, "LCR")
	}
	if !cohort.PassingFilter(v) {
		v.Info = setInfoFlag(v.Info, "FAIL_VQSR")
	}
	if a.csq != nil && len(v.Alt) == 1 {
		key := cohort.Site{Chr: v.Chr, Pos: v.Pos, Ref: v.Ref, Alt: v.Alt[0]}.Key()
		if hit, found := a.csq[key]; found {
			if hit.Gene != "" {
				v.Info = setInfoField(v.Info, "GENE", hit.Gene)
			}
			if hit.Consequence != "" {
				v.Info = setInfoField(v.Info, "CSQ", hit.Consequence)
			}
		}
	}
	return addAlleleBalance(v)
}

// setAlleleCounts recomputes AC, AN, and AF from the record's genotype calls,
// replacing any caller-supplied values.
func setAlleleCounts(v vcf.Vcf) string {
	counts := make([]int, len(v.Alt))
	var an int
	for i := range v.Samples {
		for _, allele := range v.Samples[i].Alleles {
			if allele < 0 {
				continue
			}
			an++
			if int(allele) > 0 && int(allele) <= len(counts) {
				counts[allele-1]++
			}
		}
	}
	acWords := make([]string, len(counts))
	afWords := make([]string, len(counts))
	for i := range counts {
		acWords[i] = fmt.Sprintf("%d", counts[i])
		if an == 0 {
			afWords[i] = "0"
		} else {
			afWords[i] = trimFloat(float64(counts[i]) / float64(an))
		}
	}
	info := setInfoField(v.Info, "AC", strings.Join(acWords, ","))
	info = setInfoField(info, "AN", fmt.Sprintf("%d", an))
	return setInfoField(info, "AF", strings.Join(afWords, ","))
}

// addAlleleBalance appends an AB FORMAT value for every sample with usable
// allele depths. Existing AB values are recomputed in place.
func addAlleleBalance(v vcf.Vcf) vcf.Vcf {
	adIdx := cohort.FormatIndex(v, "AD")
	if adIdx == -1 {
		return v
	}
	abIdx := cohort.FormatIndex(v, "AB")
	if abIdx == -1 {
		v.Format = append(append([]string{}, v.Format...), "AB")
		abIdx = len(v.Format) - 1
	}
	samples := make([]vcf.Sample, len(v.Samples))
	for i := range v.Samples {
		samples[i] = v.Samples[i]
		if len(samples[i].FormatData) == 0 {
			continue
		}
		ab := "."
		if refCount, altCount, ok := cohort.AlleleDepths(v, i, adIdx); ok && refCount+altCount > 0 {
			ab = trimFloat(float64(altCount) / float64(refCount+altCount))
		}
		data := make([]string, len(v.Format))
		copy(data, samples[i].FormatData)
		data[abIdx] = ab
		samples[i].FormatData = data
	}
	v.Samples = samples
	return v
}

// setInfoField replaces key=value in a semicolon-delimited INFO string,
// appending the pair when the key is absent.
func setInfoField(info, key, value string) string {
	entry := key + "=" + value
	if info == "" || info == "." {
		return entry
	}
	words := strings.Split(info, ";")
	for i := range words {
		if words[i] == key || strings.HasPrefix(words[i], key+"=") {
			words[i] = entry
			return strings.Join(words, ";")
		}
	}
	return info + ";" + entry
}

// setInfoFlag appends a bare flag to a semicolon-delimited INFO string when
// not already present.
func setInfoFlag(info, key string) string {
	if info == "" || info == "." {
		return key
	}
	words := strings.Split(info, ";")
	for i := range words {
		if words[i] == key {
			return info
		}
	}
	return info + ";" + key
}

// trimFloat formats a fraction with three decimals, dropping trailing zeros
// so whole numbers print bare.
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
