package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agrosmart/ml"
	"agrosmart/training"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and bootstrap model artifacts",
}

var modelsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load every artifact and print its feature order and classes",
	RunE:  runModelsVerify,
}

var verifyKind string

var trainCfg = training.DefaultConfig()

var modelsTrainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train bootstrap artifacts from synthesized rule-table data",
	Long: `Synthesizes a dataset per kind from the agronomic rule tables, fits a
random forest on it and writes the artifacts into models.dir (or --out).

The resulting models only reproduce the rule tables; replace them with
artifacts trained on field data for real use.`,
	RunE: runModelsTrain,
}

func init() {
	modelsVerifyCmd.Flags().StringVar(&verifyKind, "kind", "", "Verify only this kind (crop, fertilizer or yield)")

	f := modelsTrainCmd.Flags()
	f.StringVar(&trainCfg.Dir, "out", "", "Output directory (default: models.dir)")
	f.IntVar(&trainCfg.Samples, "samples", trainCfg.Samples, "Rows to synthesize per kind")
	f.IntVar(&trainCfg.Trees, "trees", trainCfg.Trees, "Trees per forest")
	f.IntVar(&trainCfg.MaxDepth, "max-depth", trainCfg.MaxDepth, "Maximum tree depth")
	f.IntVar(&trainCfg.MinSamplesSplit, "min-samples-split", trainCfg.MinSamplesSplit, "Minimum rows to split a node")
	f.Float64Var(&trainCfg.TestRatio, "test-ratio", trainCfg.TestRatio, "Share of rows held out for scoring")
	f.Int64Var(&trainCfg.Seed, "seed", trainCfg.Seed, "Random seed")

	modelsCmd.AddCommand(modelsVerifyCmd)
	modelsCmd.AddCommand(modelsTrainCmd)
}

func runModelsVerify(cmd *cobra.Command, args []string) error {
	kinds := ml.Kinds()
	if verifyKind != "" {
		kind, err := ml.ParseKind(verifyKind)
		if err != nil {
			return err
		}
		kinds = []ml.Kind{kind}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tMODEL\tFEATURES\tCLASSES")

	var errs []error
	for _, kind := range kinds {
		art, err := ml.LoadArtifact(cfg.Models.Dir, kind)
		if err != nil {
			fmt.Fprintf(w, "%s\tERROR\t%v\t\n", kind, err)
			errs = append(errs, err)
			continue
		}
		classes := "-"
		if clf, ok := art.Model.(ml.Classifier); ok && len(clf.Classes()) > 0 {
			classes = strings.Join(clf.Classes(), ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, art.Model.Type(), strings.Join(art.Features, ","), classes)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func runModelsTrain(cmd *cobra.Command, args []string) error {
	if trainCfg.Dir == "" {
		trainCfg.Dir = cfg.Models.Dir
	}
	reports, err := training.Bootstrap(cmd.Context(), trainCfg, logger)
	if err != nil {
		return err
	}
	return printJSON(cmd, reports)
}
