// Package pca decomposes a genotype matrix into principal components after
// Hardy-Weinberg variance normalization, the standard projection used to
// expose ancestry structure in a sequencing cohort. Related samples can be
// held out of the fit and projected onto the fitted components afterwards.
package pca

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"gonum.org/v1/gonum/mat"
)

// DefaultComponents is the number of principal components reported.
const DefaultComponents = 10

// Result holds the decomposition of a genotype matrix. Sites lists the
// polymorphic markers that entered the fit, aligned with Loadings rows.
type Result struct {
	Components int
	Samples    []string
	Scores     [][]float64
	Sites      []cohort.Site
	Loadings   [][]float64
	Variance   []float64

	rows  []int
	freqs []float64
	norms []float64
}

// Fit decomposes the genotype matrix restricted to fitSamples, or to every
// sample when fitSamples is nil. Genotypes are centered at twice the allele
// frequency of the fitted samples and scaled by the total Hardy-Weinberg
// variance across the fitted sites; missing genotypes sit at the center.
// Monomorphic sites are dropped. k is capped by the matrix dimensions.
func Fit(m *cohort.Matrix, fitSamples []string, k int) (*Result, error) {
	cols, err := columnIndexes(m, fitSamples)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no samples to decompose")
	}

	r := &Result{Samples: make([]string, len(cols))}
	for i := range cols {
		r.Samples[i] = m.SampleNames[cols[i]]
	}
	for s := range m.Geno {
		var altSum, alleles int
		for _, c := range cols {
			if g := m.Geno[s][c]; g >= 0 {
				altSum += int(g)
				alleles += 2
			}
		}
		if alleles == 0 {
			continue
		}
		p := float64(altSum) / float64(alleles)
		if p <= 0 || p >= 1 {
			continue
		}
		r.rows = append(r.rows, s)
		r.freqs = append(r.freqs, p)
		r.Sites = append(r.Sites, m.Sites[s])
	}
	if len(r.rows) == 0 {
		return nil, fmt.Errorf("no polymorphic sites among the fitted samples")
	}

	r.norms = make([]float64, len(r.rows))
	for i := range r.rows {
		r.norms[i] = math.Sqrt(float64(len(r.rows)) * 2 * r.freqs[i] * (1 - r.freqs[i]))
	}

	x := mat.NewDense(len(cols), len(r.rows), nil)
	for ri, s := range r.rows {
		for ci, c := range cols {
			if g := m.Geno[s][c]; g >= 0 {
				x.Set(ci, ri, (float64(g)-2*r.freqs[ri])/r.norms[ri])
			}
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("singular value decomposition did not converge")
	}
	values := svd.Values(nil)
	if k <= 0 {
		k = DefaultComponents
	}
	if k > len(values) {
		k = len(values)
	}
	r.Components = k

	var total float64
	for _, s := range values {
		total += s * s
	}
	r.Variance = make([]float64, k)
	for c := 0; c < k; c++ {
		if total > 0 {
			r.Variance[c] = values[c] * values[c] / total
		}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Scores = make([][]float64, len(cols))
	for i := range cols {
		r.Scores[i] = make([]float64, k)
		for c := 0; c < k; c++ {
			r.Scores[i][c] = u.At(i, c) * values[c]
		}
	}
	r.Loadings = make([][]float64, len(r.rows))
	for i := range r.rows {
		r.Loadings[i] = make([]float64, k)
		for c := 0; c < k; c++ {
			r.Loadings[i][c] = v.At(i, c)
		}
	}
	return r, nil
}

// Project returns component scores for the given samples, or for every
// sample when samples is nil, using the fitted loadings, frequencies, and
// scaling. On a result fitted in-process the matrix must be the fitted one;
// on a result read back with ReadLoadings, markers are matched to the matrix
// by position and alleles, and markers the matrix lacks contribute nothing,
// like missing genotypes.
func (r *Result) Project(m *cohort.Matrix, samples []string) ([][]float64, error) {
	cols, err := columnIndexes(m, samples)
	if err != nil {
		return nil, err
	}
	rows := r.rows
	if rows == nil {
		rows = matchSites(m, r.Sites)
	}
	out := make([][]float64, len(cols))
	for i, c := range cols {
		out[i] = make([]float64, r.Components)
		for ri, s := range rows {
			if s < 0 {
				continue
			}
			g := m.Geno[s][c]
			if g < 0 {
				continue
			}
			x := (float64(g) - 2*r.freqs[ri]) / r.norms[ri]
			for comp := 0; comp < r.Components; comp++ {
				out[i][comp] += x * r.Loadings[ri][comp]
			}
		}
	}
	return out, nil
}

// matchSites locates each fitted site in a matrix, -1 when absent.
func matchSites(m *cohort.Matrix, sites []cohort.Site) []int {
	index := make(map[string]int, len(m.Sites))
	for i := range m.Sites {
		index[m.Sites[i].Key()] = i
	}
	rows := make([]int, len(sites))
	for i := range sites {
		row, found := index[sites[i].Key()]
		if !found {
			row = -1
		}
		rows[i] = row
	}
	return rows
}

func columnIndexes(m *cohort.Matrix, samples []string) ([]int, error) {
	if samples == nil {
		cols := make([]int, len(m.SampleNames))
		for i := range cols {
			cols[i] = i
		}
		return cols, nil
	}
	index := make(map[string]int, len(m.SampleNames))
	for i := range m.SampleNames {
		index[m.SampleNames[i]] = i
	}
	cols := make([]int, 0, len(samples))
	for _, name := range samples {
		idx, found := index[name]
		if !found {
			return nil, fmt.Errorf("sample %s is not in the genotype matrix", name)
		}
		cols = append(cols, idx)
	}
	return cols, nil
}

// SampleScores pairs one sample with its component scores.
type SampleScores struct {
	Sample    string
	Scores    []float64
	Projected bool
}

// AllScores merges the fitted samples with projected ones into a single
// table for reporting.
func (r *Result) AllScores(projectedNames []string, projectedScores [][]float64) []SampleScores {
	out := make([]SampleScores, 0, len(r.Samples)+len(projectedNames))
	for i := range r.Samples {
		out = append(out, SampleScores{Sample: r.Samples[i], Scores: r.Scores[i]})
	}
	for i := range projectedNames {
		out = append(out, SampleScores{Sample: projectedNames[i], Scores: projectedScores[i], Projected: true})
	}
	return out
}

// WriteScores writes the per-sample component score table.
func WriteScores(file string, components int, scores []SampleScores) {
	out := fileio.EasyCreate(file)
	fmt.Fprint(out, "sample")
	for c := 1; c <= components; c++ {
		fmt.Fprintf(out, "\tpc%d", c)
	}
	fmt.Fprintln(out, "\tprojected")
	for i := range scores {
		fmt.Fprint(out, scores[i].Sample)
		for c := 0; c < components; c++ {
			fmt.Fprintf(out, "\t%.6f", scores[i].Scores[c])
		}
		if scores[i].Projected {
			fmt.Fprintln(out, "\tyes")
		} else {
			fmt.Fprintln(out, "\tno")
		}
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// WriteLoadings writes the per-site loading table.
func WriteLoadings(file string, r *Result) {
	out := fileio.EasyCreate(file)
	fmt.Fprint(out, "chrom\tpos\tref\talt\taf")
	for c := 1; c <= r.Components; c++ {
		fmt.Fprintf(out, "\tpc%d", c)
	}
	fmt.Fprintln(out)
	for i := range r.Sites {
		s := r.Sites[i]
		fmt.Fprintf(out, "%s\t%d\t%s\t%s\t%.4f", s.Chr, s.Pos, s.Ref, s.Alt, r.freqs[i])
		for c := 0; c < r.Components; c++ {
			fmt.Fprintf(out, "\t%.6f", r.Loadings[i][c])
		}
		fmt.Fprintln(out)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// ReadLoadings rebuilds a projector from a table written by WriteLoadings,
// so a later cohort can be placed on components fitted elsewhere. The result
// carries no scores or variance and only serves Project. Sites whose written
// allele frequency rounded to a monomorphic value are skipped.
func ReadLoadings(file string) (*Result, error) {
	lines := fileio.Read(file)
	if len(lines) == 0 {
		return nil, fmt.Errorf("loadings table %s is empty", file)
	}
	header := strings.Split(lines[0], "\t")
	if len(header) < 6 || header[0] != "chrom" {
		return nil, fmt.Errorf("loadings table %s: unrecognized header", file)
	}
	r := &Result{Components: len(header) - 5}
	for _, line := range lines[1:] {
		words := strings.Split(line, "\t")
		if len(words) != len(header) {
			return nil, fmt.Errorf("loadings table %s: expected %d fields, got %d", file, len(header), len(words))
		}
		pos, err := strconv.Atoi(words[1])
		if err != nil {
			return nil, fmt.Errorf("loadings table %s: bad position %q", file, words[1])
		}
		af, err := strconv.ParseFloat(words[4], 64)
		if err != nil {
			return nil, fmt.Errorf("loadings table %s: bad allele frequency %q", file, words[4])
		}
		if af <= 0 || af >= 1 {
			continue
		}
		loadings := make([]float64, r.Components)
		for c := range loadings {
			loadings[c], err = strconv.ParseFloat(words[5+c], 64)
			if err != nil {
				return nil, fmt.Errorf("loadings table %s: bad loading %q", file, words[5+c])
			}
		}
		r.Sites = append(r.Sites, cohort.Site{Chr: words[0], Pos: pos, Ref: words[2], Alt: words[3], AltFreq: af})
		r.freqs = append(r.freqs, af)
		r.Loadings = append(r.Loadings, loadings)
	}
	if len(r.Sites) == 0 {
		return nil, fmt.Errorf("loadings table %s has no usable sites", file)
	}
	r.norms = make([]float64, len(r.Sites))
	for i := range r.norms {
		r.norms[i] = math.Sqrt(float64(len(r.Sites)) * 2 * r.freqs[i] * (1 - r.freqs[i]))
	}
	return r, nil
}

// WriteVariance writes the fraction of variance explained by each component.
func WriteVariance(file string, r *Result) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "component\tvariance_fraction")
	for c := 0; c < r.Components; c++ {
		fmt.Fprintf(out, "pc%d\t%.6f\n", c+1, r.Variance[c])
	}
	err := out.Close()
	exception.PanicOnErr(err)
}
