// Package kinship estimates pairwise relatedness with the KING-robust
// estimator over a pruned marker set and selects a maximal unrelated subset
// of samples by greedily breaking related pairs.
package kinship

import (
	"fmt"
	"math"

	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// DefaultThreshold is the kinship coefficient above which a pair is treated
// as related. Duplicates score near 0.5, parent-offspring and full siblings
// near 0.25, and second-degree relatives near 0.125.
const DefaultThreshold = 0.088

// Pair holds the KING-robust kinship estimate for one sample pair. Kinship
// is NaN when either sample has no heterozygous calls among the shared
// sites.
type Pair struct {
	I       int
	J       int
	SampleI string
	SampleJ string
	NShared int
	HetHet  int
	Ibs0    int
	Kinship float64
}

// Estimate computes kinship for every sample pair of a genotype matrix.
// Only sites called in both samples of a pair contribute to its estimate.
func Estimate(m *cohort.Matrix) []Pair {
	n := len(m.SampleNames)
	pairs := make([]Pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, estimatePair(m, i, j))
		}
	}
	return pairs
}

func estimatePair(m *cohort.Matrix, i, j int) Pair {
	var hetI, hetJ, hetHet, ibs0, shared int
	for s := range m.Geno {
		gi, gj := m.Geno[s][i], m.Geno[s][j]
		if gi < 0 || gj < 0 {
			continue
		}
		shared++
		if gi == 1 {
			hetI++
		}
		if gj == 1 {
			hetJ++
		}
		switch {
		case gi == 1 && gj == 1:
			hetHet++
		case (gi == 0 && gj == 2) || (gi == 2 && gj == 0):
			ibs0++
		}
	}
	p := Pair{
		I:       i,
		J:       j,
		SampleI: m.SampleNames[i],
		SampleJ: m.SampleNames[j],
		NShared: shared,
		HetHet:  hetHet,
		Ibs0:    ibs0,
		Kinship: math.NaN(),
	}
	minHet := hetI
	if hetJ < hetI {
		minHet = hetJ
	}
	if minHet > 0 {
		p.Kinship = 0.5 + float64(2*hetHet-4*ibs0-hetI-hetJ)/float64(4*minHet)
	}
	return p
}

// Related returns the pairs whose kinship exceeds the threshold.
func Related(pairs []Pair, threshold float64) []Pair {
	var out []Pair
	for i := range pairs {
		if !math.IsNaN(pairs[i].Kinship) && pairs[i].Kinship > threshold {
			out = append(out, pairs[i])
		}
	}
	return out
}

// Unrelated partitions samples into a kept unrelated subset and the dropped
// remainder. It repeatedly removes the sample involved in the most related
// pairs, breaking ties toward the sample with the lower call rate, until no
// related pair remains. callRates may be nil.
func Unrelated(sampleNames []string, related []Pair, callRates []float64) (keep, dropped []string) {
	n := len(sampleNames)
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	degree := make([]int, n)
	for _, p := range related {
		if p.I < 0 || p.J < 0 || p.I >= n || p.J >= n || p.I == p.J || adj[p.I][p.J] {
			continue
		}
		adj[p.I][p.J], adj[p.J][p.I] = true, true
		degree[p.I]++
		degree[p.J]++
	}
	removed := make([]bool, n)
	for {
		worst := -1
		for i := 0; i < n; i++ {
			if removed[i] || degree[i] == 0 {
				continue
			}
			switch {
			case worst == -1 || degree[i] > degree[worst]:
				worst = i
			case degree[i] == degree[worst] && callRates != nil && callRates[i] < callRates[worst]:
				worst = i
			}
		}
		if worst == -1 {
			break
		}
		removed[worst] = true
		for j := 0; j < n; j++ {
			if adj[worst][j] && !removed[j] {
				degree[j]--
			}
		}
		degree[worst] = 0
		dropped = append(dropped, sampleNames[worst])
	}
	for i := range sampleNames {
		if !removed[i] {
			keep = append(keep, sampleNames[i])
		}
	}
	return keep, dropped
}

// WritePairs writes the pairwise kinship table, marking pairs above the
// threshold as related.
func WritePairs(file string, pairs []Pair, threshold float64) {
	out := fileio.EasyCreate(file)
	fmt.Fprintln(out, "sample_i\tsample_j\tn_shared\tn_hethet\tn_ibs0\tkinship\trelated")
	for i := range pairs {
		p := pairs[i]
		related := "no"
		if !math.IsNaN(p.Kinship) && p.Kinship > threshold {
			related = "yes"
		}
		fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%d\t%.4f\t%s\n",
			p.SampleI, p.SampleJ, p.NShared, p.HetHet, p.Ibs0, p.Kinship, related)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}
