// Package pipeline runs the cohort QC stages end to end: multiallelic
// splitting, genotype and site filtering, sample statistics, sex imputation,
// relatedness, principal components, and outlier review, writing one artifact
// file per stage into the output directory.
package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/covid19-hg/covid19-sequencing/annotate"
	"github.com/covid19-hg/covid19-sequencing/cohort"
	"github.com/covid19-hg/covid19-sequencing/genotypeqc"
	"github.com/covid19-hg/covid19-sequencing/kinship"
	"github.com/covid19-hg/covid19-sequencing/outlier"
	"github.com/covid19-hg/covid19-sequencing/pca"
	"github.com/covid19-hg/covid19-sequencing/sampleqc"
	"github.com/covid19-hg/covid19-sequencing/sexcheck"
	"github.com/covid19-hg/covid19-sequencing/split"
	"github.com/covid19-hg/covid19-sequencing/variantqc"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"github.com/vertgenlab/gonomics/vcf"
)

// Artifact file names within the output directory.
const (
	VcfOut            = "cohort_qc.vcf.gz"
	VariantMetricsOut = "variant_metrics.tsv"
	SampleMetricsOut  = "sample_metrics.tsv"
	SexCheckOut       = "sex_check.tsv"
	KinshipOut        = "kinship_pairs.tsv"
	PcaScoresOut      = "pca_scores.tsv"
	PcaLoadingsOut    = "pca_loadings.tsv"
	PcaVarianceOut    = "pca_variance.tsv"
	PcaPlotOut        = "pca_scores.pdf"
	OutlierBoundsOut  = "outlier_bounds.tsv"
	OutlierFlagsOut   = "outlier_flags.tsv"
	SummaryOut        = "qc_summary.tsv"
	PassListOut       = "samples_pass.txt"
)

// siteStage carries everything accumulated while streaming the input once.
type siteStage struct {
	sampleNames []string
	gtCounts    genotypeqc.Counts
	seen        int
	pieces      int
	passed      int
	sampleAcc   *sampleqc.Accumulator
	sexAcc      *sexcheck.Accumulator
}

// Run executes the configured QC and writes every artifact into cfg.OutDir.
func Run(cfg *Config, verbose int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	var table *cohort.Table
	if cfg.SampleFile != "" {
		var err error
		table, err = cohort.ReadTable(cfg.SampleFile)
		if err != nil {
			return err
		}
	}
	ann, err := annotate.New(cfg.LcrFiles, cfg.CsqFile)
	if err != nil {
		return err
	}

	st, err := runSiteStage(cfg, ann, verbose)
	if err != nil {
		return err
	}

	sampleTh := cfg.sampleThresholds()
	sampleMetrics := st.sampleAcc.Metrics()
	sampleqc.WriteMetrics(filepath.Join(cfg.OutDir, SampleMetricsOut), sampleMetrics, sampleTh)

	var sexBySample map[string]sexcheck.Result
	var sexMismatch []string
	if st.sexAcc != nil {
		results := st.sexAcc.Results(table)
		sexcheck.WriteResults(filepath.Join(cfg.OutDir, SexCheckOut), results)
		sexMismatch = sexcheck.Mismatches(results)
		sexBySample = make(map[string]sexcheck.Result, len(results))
		for i := range results {
			sexBySample[results[i].Sample] = results[i]
		}
		if verbose > 0 {
			log.Printf("sex check: %d of %d samples mismatch their reported sex\n", len(sexMismatch), len(results))
		}
	}

	var droppedKin []string
	var matrix *cohort.Matrix
	if !cfg.SkipKinship || !cfg.SkipPca {
		matrix = cohort.LoadMatrix(filepath.Join(cfg.OutDir, VcfOut), cfg.markerOptions(), verbose)
		if len(matrix.Sites) == 0 {
			if verbose > 0 {
				log.Println("no markers passed the relatedness filters, skipping kinship and pca")
			}
			matrix = nil
		}
	}

	unrelated := st.sampleNames
	if !cfg.SkipKinship && matrix != nil {
		pairs := kinship.Estimate(matrix)
		kinship.WritePairs(filepath.Join(cfg.OutDir, KinshipOut), pairs, cfg.KinshipThreshold)
		related := kinship.Related(pairs, cfg.KinshipThreshold)
		unrelated, droppedKin = kinship.Unrelated(matrix.SampleNames, related, matrix.SampleCallRates())
		if verbose > 0 {
			log.Printf("kinship: %d related pairs, %d samples dropped for the unrelated set\n", len(related), len(droppedKin))
		}
	}

	if !cfg.SkipPca && matrix != nil {
		if err = runPcaStage(cfg, matrix, unrelated, droppedKin, table); err != nil {
			return err
		}
	}

	var outlierFailing []string
	if !cfg.SkipOutliers {
		bounds, flags := outlier.Detect(sampleMetrics, table.Groups(), outlier.DefaultMetrics(), cfg.outlierOptions())
		outlier.WriteBounds(filepath.Join(cfg.OutDir, OutlierBoundsOut), bounds)
		outlier.WriteFlags(filepath.Join(cfg.OutDir, OutlierFlagsOut), flags)
		outlierFailing = outlier.Failing(flags)
		if verbose > 0 {
			log.Printf("outliers: %d samples outside the robust bounds\n", len(outlierFailing))
		}
	}

	verdicts := buildVerdicts(sampleMetrics, sampleTh, sexMismatch, droppedKin, outlierFailing)
	writeSummary(filepath.Join(cfg.OutDir, SummaryOut), sampleMetrics, sexBySample, droppedKin, outlierFailing, verdicts)
	writePassList(filepath.Join(cfg.OutDir, PassListOut), verdicts)
	if verbose > 0 {
		var passing int
		for i := range verdicts {
			if verdicts[i].Pass() {
				passing++
			}
		}
		log.Printf("qc complete: %d of %d samples pass\n", passing, len(verdicts))
	}
	return nil
}

// runSiteStage streams the input VCF once: splitting multiallelics, filtering
// genotypes, annotating, scoring sites, and feeding the passing records to the
// output VCF and the per-sample accumulators.
func runSiteStage(cfg *Config, ann *annotate.Annotator, verbose int) (*siteStage, error) {
	records, header := vcf.GoReadToChan(cfg.VcfFile)
	names := cohort.SampleNames(header)
	if len(names) == 0 {
		return nil, fmt.Errorf("no samples in %s", cfg.VcfFile)
	}
	st := &siteStage{
		sampleNames: names,
		sampleAcc:   sampleqc.NewAccumulator(names),
	}
	if !cfg.SkipSexCheck {
		st.sexAcc = sexcheck.NewAccumulator(names, cfg.sexOptions())
	}

	header = cohort.AddHeaderLines(header, split.HeaderLine())
	header = cohort.AddHeaderLines(header, ann.HeaderLines()...)
	out := fileio.EasyCreate(filepath.Join(cfg.OutDir, VcfOut))
	vcf.NewWriteHeader(out, header)
	metricsOut := variantqc.NewMetricsWriter(filepath.Join(cfg.OutDir, VariantMetricsOut))

	gtTh := cfg.genotypeThresholds()
	siteTh := cfg.siteThresholds()
	for v := range records {
		st.seen++
		for _, piece := range split.Record(v) {
			st.pieces++
			piece = genotypeqc.Record(piece, gtTh, &st.gtCounts)
			piece = ann.Record(piece)
			m := variantqc.Site(piece, siteTh)
			metricsOut.Write(m)
			pass := m.Pass()
			if pass || cfg.KeepFailingSites {
				vcf.WriteVcf(out, piece)
			}
			if pass {
				st.passed++
				st.sampleAcc.Add(piece)
				if st.sexAcc != nil {
					st.sexAcc.Add(piece)
				}
			}
		}
	}
	err := out.Close()
	exception.PanicOnErr(err)
	err = metricsOut.Close()
	exception.PanicOnErr(err)
	if verbose > 0 {
		log.Printf("sites: %d input records, %d after splitting, %d pass\n", st.seen, st.pieces, st.passed)
		log.Printf("genotypes: %d of %d calls filtered\n", st.gtCounts.Filtered(), st.gtCounts.Calls)
	}
	return st, nil
}

// runPcaStage fits components on the unrelated samples, projects the dropped
// relatives, and writes the score, loading, and variance tables plus the
// scatter plot.
func runPcaStage(cfg *Config, matrix *cohort.Matrix, unrelated, droppedKin []string, table *cohort.Table) error {
	r, err := pca.Fit(matrix, unrelated, cfg.NumPcs)
	if err != nil {
		return fmt.Errorf("pca: %w", err)
	}
	var proj [][]float64
	if len(droppedKin) > 0 {
		proj, err = r.Project(matrix, droppedKin)
		if err != nil {
			return fmt.Errorf("pca projection: %w", err)
		}
	}
	scores := r.AllScores(droppedKin, proj)
	pca.WriteScores(filepath.Join(cfg.OutDir, PcaScoresOut), r.Components, scores)
	pca.WriteLoadings(filepath.Join(cfg.OutDir, PcaLoadingsOut), r)
	pca.WriteVariance(filepath.Join(cfg.OutDir, PcaVarianceOut), r)
	if !cfg.SkipPlots && r.Components >= 2 {
		return pca.ScatterPlot(filepath.Join(cfg.OutDir, PcaPlotOut), r, scores, table.Groups())
	}
	return nil
}
