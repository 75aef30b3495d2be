package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"agrosmart/ml"
	"agrosmart/predict"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a single prediction against the local artifacts",
	Long: `Runs one prediction through the same service the API uses and prints the
result as JSON. models.fallback applies here too.

Example:
  agrosmart predict crop --n 90 --p 42 --k 43 --temperature 21 --humidity 82 --rainfall 203 --ph 6.5`,
}

var (
	cropIn  predict.CropInput
	fertIn  predict.FertilizerInput
	yieldIn predict.YieldInput
)

var predictCropCmd = &cobra.Command{
	Use:   "crop",
	Short: "Recommend a crop for the given soil and climate",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(ml.NewRegistry(cfg.Models.Dir, ml.WithLogger(logger)), cfg, logger)
		res, err := svc.PredictCrop(cmd.Context(), cropIn)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var predictFertilizerCmd = &cobra.Command{
	Use:   "fertilizer",
	Short: "Recommend a fertilizer for a crop and current soil nutrients",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(ml.NewRegistry(cfg.Models.Dir, ml.WithLogger(logger)), cfg, logger)
		res, err := svc.RecommendFertilizer(cmd.Context(), fertIn)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var predictYieldCmd = &cobra.Command{
	Use:   "yield",
	Short: "Estimate the yield of a crop in kg/ha",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService(ml.NewRegistry(cfg.Models.Dir, ml.WithLogger(logger)), cfg, logger)
		res, err := svc.EstimateYield(cmd.Context(), yieldIn)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

func init() {
	f := predictCropCmd.Flags()
	f.StringVar(&cropIn.SoilType, "soil-type", "Alluvial Soil", "Soil type")
	f.StringVar(&cropIn.Region, "region", "Central India", "Region")
	f.Float64Var(&cropIn.N, "n", 0, "Nitrogen level")
	f.Float64Var(&cropIn.P, "p", 0, "Phosphorus level")
	f.Float64Var(&cropIn.K, "k", 0, "Potassium level")
	f.Float64Var(&cropIn.Temperature, "temperature", 25, "Temperature in °C")
	f.Float64Var(&cropIn.Humidity, "humidity", 70, "Relative humidity in %")
	f.Float64Var(&cropIn.Rainfall, "rainfall", 100, "Rainfall in mm")
	f.Float64Var(&cropIn.PH, "ph", 6.5, "Soil pH")

	f = predictFertilizerCmd.Flags()
	f.StringVar(&fertIn.CropType, "crop", "", "Crop type (required)")
	f.StringVar(&fertIn.SoilType, "soil-type", "Alluvial Soil", "Soil type")
	f.Float64Var(&fertIn.N, "n", 0, "Current nitrogen level")
	f.Float64Var(&fertIn.P, "p", 0, "Current phosphorus level")
	f.Float64Var(&fertIn.K, "k", 0, "Current potassium level")
	f.Float64Var(&fertIn.PH, "ph", 6.5, "Soil pH")
	f.Float64Var(&fertIn.Temperature, "temperature", 25, "Temperature in °C")
	f.Float64Var(&fertIn.Humidity, "humidity", 70, "Relative humidity in %")
	f.Float64Var(&fertIn.Moisture, "moisture", 50, "Soil moisture in %")
	_ = predictFertilizerCmd.MarkFlagRequired("crop")

	f = predictYieldCmd.Flags()
	f.StringVar(&yieldIn.CropType, "crop", "", "Crop type (required)")
	f.Float64Var(&yieldIn.AreaHectares, "area", 1, "Area in hectares")
	f.StringVar(&yieldIn.Season, "season", "Kharif", "Season: Kharif, Rabi or Zaid")
	f.StringVar(&yieldIn.Region, "region", "", "Region, used by the rule fallback only")
	f.Float64Var(&yieldIn.Temperature, "temperature", 25, "Temperature in °C")
	f.Float64Var(&yieldIn.Humidity, "humidity", 70, "Relative humidity in %")
	f.Float64Var(&yieldIn.Rainfall, "rainfall", 100, "Rainfall in mm")
	f.StringVar(&yieldIn.SoilType, "soil-type", "Alluvial Soil", "Soil type")
	f.Float64Var(&yieldIn.PH, "ph", 6.5, "Soil pH")
	f.Float64Var(&yieldIn.N, "n", 0, "Nitrogen level")
	f.Float64Var(&yieldIn.P, "p", 0, "Phosphorus level")
	f.Float64Var(&yieldIn.K, "k", 0, "Potassium level")
	_ = predictYieldCmd.MarkFlagRequired("crop")

	predictCmd.AddCommand(predictCropCmd)
	predictCmd.AddCommand(predictFertilizerCmd)
	predictCmd.AddCommand(predictYieldCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return err
}
