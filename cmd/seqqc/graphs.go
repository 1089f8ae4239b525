package main

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/stat"
)

// asciiHist prints a text histogram of values binned across their observed
// range. NaN values are dropped before binning.
func asciiHist(title string, values []float64, bins int) {
	clean := make([]float64, 0, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			clean = append(clean, values[i])
		}
	}
	if len(clean) == 0 {
		fmt.Printf("%s: no values to plot\n", title)
		return
	}
	min, max := clean[0], clean[0]
	for i := range clean {
		if clean[i] < min {
			min = clean[i]
		}
		if clean[i] > max {
			max = clean[i]
		}
	}
	fmt.Printf("%s (n=%d, mean %.4g, sd %.4g, range %.4g to %.4g)\n",
		title, len(clean), stat.Mean(clean, nil), stat.StdDev(clean, nil), min, max)
	fmt.Println(asciigraph.Plot(binCounts(clean, bins, min, max), asciigraph.Height(8), asciigraph.Precision(0)))
}

// binCounts tallies values into equal-width bins spanning [min, max]. Values
// on the top edge land in the last bin. A collapsed range puts everything in
// the first bin.
func binCounts(values []float64, bins int, min, max float64) []float64 {
	counts := make([]float64, bins)
	if min == max {
		counts[0] = float64(len(values))
		return counts
	}
	for i := range values {
		bin := int(float64(bins) * (values[i] - min) / (max - min))
		if bin == bins {
			bin = bins - 1
		}
		counts[bin]++
	}
	return counts
}
