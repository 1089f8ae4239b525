package pca

import (
	"fmt"
	"image/color"

	"github.com/vertgenlab/gonomics/exception"
	"golang.org/x/exp/slices"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ScatterPlot draws the first two components of each sample, colored by the
// population label in groups. Samples without a label share one series.
func ScatterPlot(file string, r *Result, scores []SampleScores, groups map[string]string) error {
	if r.Components < 2 {
		return fmt.Errorf("need at least two components to plot")
	}

	grouped := make(map[string]plotter.XYs)
	for i := range scores {
		label := groups[scores[i].Sample]
		if label == "" {
			label = "cohort"
		}
		grouped[label] = append(grouped[label], plotter.XY{X: scores[i].Scores[0], Y: scores[i].Scores[1]})
	}
	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	pl := plot.New()
	pl.Title.Text = "Genotype principal components"
	pl.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", r.Variance[0]*100)
	pl.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", r.Variance[1]*100)

	colors := scatterPalette()
	for i, label := range labels {
		sc, err := plotter.NewScatter(grouped[label])
		exception.PanicOnErr(err)
		sc.GlyphStyle.Color = colors[i%len(colors)]
		sc.GlyphStyle.Radius = vg.Points(2)
		pl.Add(sc)
		pl.Legend.Add(label, sc)
	}

	err := pl.Save(15*vg.Centimeter, 15*vg.Centimeter, file)
	exception.PanicOnErr(err)
	return nil
}

func scatterPalette() []color.Color {
	return []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 255, G: 127, B: 14, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 214, G: 39, B: 40, A: 255},
		color.RGBA{R: 148, G: 103, B: 189, A: 255},
		color.RGBA{R: 140, G: 86, B: 75, A: 255},
	}
}
