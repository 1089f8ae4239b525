// Package hwe implements the Hardy-Weinberg equilibrium exact test used to
// flag genotyping artifacts during variant QC.
package hwe

import (
	"math"
	"math/big"

	"github.com/BenLubar/memoize"
	"gonum.org/v1/gonum/stat/distuv"
)

var memoizedExact = memoize.Memoize(Exact)
var memoizedProbability = memoize.Memoize(probability)
var memoizedFactorial = memoize.Memoize(factorialRange)

// Fast screens with the chi-squared approximation and only runs the exact
// test when the approximate P value falls below cutoff. Sites that are
// clearly in equilibrium never pay for the exact computation.
func Fast(homRef, het, homAlt int, cutoff float64) float64 {
	p := Approximate(float64(homRef), float64(het), float64(homAlt))
	if p < cutoff {
		return memoizedExact.(func(int64, int64, int64) float64)(int64(homRef), int64(het), int64(homAlt))
	}
	return p
}

// Approximate returns the one-degree-of-freedom chi-squared approximation of
// the Hardy-Weinberg P value. Monomorphic sites return 1.
func Approximate(homRef, het, homAlt float64) float64 {
	x := chiSquare(homRef, het, homAlt)
	if x == 0 {
		return 1
	}
	return distuv.ChiSquared{K: 1}.Survival(x)
}

// Exact computes the two-sided exact Hardy-Weinberg P value of a genotype
// configuration: the summed probability of every heterozygote count at least
// as unlikely as the observed one, holding the allele counts fixed, after
// RA Fisher's method. Results are memoized. Truth values for validation come
// from https://www.cog-genomics.org/software/stats.
func Exact(homRef, het, homAlt int64) float64 {
	// enforce homRef common, homAlt rare
	if homAlt > homRef {
		homRef, homAlt = homAlt, homRef
	}
	base := memoizedProbability.(func(int64, int64, int64) float64)(homRef, het, homAlt)
	sum := base

	// configurations with more heterozygotes than observed
	for hr, h, ha := homRef-1, het+2, homAlt-1; ha >= 0; hr, h, ha = hr-1, h+2, ha-1 {
		p := memoizedProbability.(func(int64, int64, int64) float64)(hr, h, ha)
		if p > base {
			continue
		}
		if p <= math.SmallestNonzeroFloat64 {
			break
		}
		sum += p
	}

	// configurations with fewer heterozygotes than observed
	for hr, h, ha := homRef+1, het-2, homAlt+1; h >= 0; hr, h, ha = hr+1, h-2, ha+1 {
		p := memoizedProbability.(func(int64, int64, int64) float64)(hr, h, ha)
		if p > base {
			continue
		}
		if p <= math.SmallestNonzeroFloat64 {
			break
		}
		sum += p
	}
	return sum
}

// probability is the chance of observing exactly het heterozygotes among
// homRef+het+homAlt individuals with the implied allele counts.
func probability(homRef, het, homAlt int64) float64 {
	refAlleles := homRef*2 + het
	altAlleles := homAlt*2 + het
	n := homRef + het + homAlt

	var num, denom big.Int
	num.Exp(big.NewInt(2), big.NewInt(het), nil)
	num.Mul(&num, memoizedFactorial.(func(int64, int64) *big.Int)(1, refAlleles))
	num.Mul(&num, memoizedFactorial.(func(int64, int64) *big.Int)(1, altAlleles))

	denom.Set(memoizedFactorial.(func(int64, int64) *big.Int)(n+1, 2*n))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, homRef))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, het))
	denom.Mul(&denom, memoizedFactorial.(func(int64, int64) *big.Int)(1, homAlt))

	var ratNum, ratDenom big.Rat
	ratNum.SetInt(&num)
	ratDenom.SetInt(&denom)
	p, _ := new(big.Rat).Quo(&ratNum, &ratDenom).Float64()
	return p
}

func chiSquare(homRef, het, homAlt float64) float64 {
	refAlleles := homRef*2 + het
	altAlleles := homAlt*2 + het
	if refAlleles == 0 || altAlleles == 0 {
		return 0
	}
	n := homRef + het + homAlt
	total := refAlleles + altAlleles
	p := refAlleles / total
	q := altAlleles / total
	eHomRef := p * p * n
	eHet := 2 * p * q * n
	eHomAlt := q * q * n
	return (eHomRef-homRef)*(eHomRef-homRef)/eHomRef +
		(eHet-het)*(eHet-het)/eHet +
		(eHomAlt-homAlt)*(eHomAlt-homAlt)/eHomAlt
}

func factorialRange(a, b int64) *big.Int {
	return big.NewInt(1).MulRange(a, b)
}
