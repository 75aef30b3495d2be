package training

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrosmart/ml"
	"agrosmart/predict"
	"agrosmart/rules"
)

func smallConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Dir = dir
	cfg.Samples = 300
	cfg.Trees = 5
	cfg.MaxDepth = 8
	return cfg
}

func TestCropDatasetStaysInRanges(t *testing.T) {
	ds := CropDataset(rand.New(rand.NewSource(1)), 20)
	require.Len(t, ds.X, 20*len(rules.Crops))
	require.Len(t, ds.Y, len(ds.X))

	for i, row := range ds.X {
		req := rules.CropRequirements[ds.Labels[int(ds.Y[i])]]
		assert.True(t, req.N.Contains(row[0]), "row %d N", i)
		assert.True(t, req.Temp.Contains(row[3]), "row %d temperature", i)
		assert.True(t, req.Rainfall.Contains(row[6]), "row %d rainfall", i)
	}
}

func TestFertilizerDatasetEncodesCategories(t *testing.T) {
	ds, err := FertilizerDataset(rand.New(rand.NewSource(1)), 200)
	require.NoError(t, err)
	require.NotEmpty(t, ds.Labels)
	assert.IsNonDecreasing(t, ds.Labels)
	assert.Equal(t, "Fertilizer", ds.TargetColumn)

	soilCol, cropCol := 8, 9
	assert.Equal(t, "Soil", ds.Features[soilCol])
	assert.Equal(t, "Crop", ds.Features[cropCol])
	for i, row := range ds.X {
		assert.Less(t, int(row[soilCol]), len(rules.SoilTypes))
		assert.Less(t, int(row[cropCol]), len(rules.Crops))
		assert.Less(t, int(ds.Y[i]), len(ds.Labels))
	}
}

func TestYieldDatasetUsesHectograms(t *testing.T) {
	ds, err := YieldDataset(rand.New(rand.NewSource(1)), 100)
	require.NoError(t, err)
	assert.Nil(t, ds.Labels)
	for _, y := range ds.Y {
		// Lentil at its worst still clears 0.1 t/ha.
		assert.GreaterOrEqual(t, y, 1000.0)
	}
}

func TestTrainScoresHeldOutRows(t *testing.T) {
	cfg := smallConfig(t.TempDir())

	_, crop, err := Train(context.Background(), ml.KindCrop, cfg)
	require.NoError(t, err)
	assert.Equal(t, "accuracy", crop.Metric)
	assert.Greater(t, crop.Score, 0.4)
	assert.Equal(t, 300, crop.Train+crop.Test)

	_, yield, err := Train(context.Background(), ml.KindYield, cfg)
	require.NoError(t, err)
	assert.Equal(t, "r2", yield.Metric)
	assert.Greater(t, yield.Score, 0.5)
}

func TestTrainIsDeterministic(t *testing.T) {
	cfg := smallConfig(t.TempDir())
	a, ra, err := Train(context.Background(), ml.KindFertilizer, cfg)
	require.NoError(t, err)
	b, rb, err := Train(context.Background(), ml.KindFertilizer, cfg)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
	assert.Equal(t, a.Model, b.Model)
}

func TestTrainRejectsUnknownKind(t *testing.T) {
	_, _, err := Train(context.Background(), ml.Kind("weather"), smallConfig(t.TempDir()))
	assert.ErrorIs(t, err, ml.ErrUnknownKind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Train(ctx, ml.KindCrop, smallConfig(t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBootstrapArtifactsServePredictions(t *testing.T) {
	dir := t.TempDir()
	reports, err := Bootstrap(context.Background(), smallConfig(dir), nil)
	require.NoError(t, err)
	require.Len(t, reports, len(ml.Kinds()))

	for _, kind := range ml.Kinds() {
		_, err := ml.LoadArtifact(dir, kind)
		require.NoError(t, err, kind)
	}

	svc := predict.NewService(ml.NewRegistry(dir))
	ctx := context.Background()

	crop, err := svc.PredictCrop(ctx, predict.CropInput{
		SoilType: "Alluvial Soil", Region: "East India",
		N: 100, P: 50, K: 50, Temperature: 25, Humidity: 70, Rainfall: 150, PH: 6.5,
	})
	require.NoError(t, err)
	assert.Equal(t, predict.SourceModel, crop.Source)
	assert.Contains(t, rules.Crops, crop.Label)

	fert, err := svc.RecommendFertilizer(ctx, predict.DefaultFertilizerClimate(predict.FertilizerInput{
		SoilType: "Clay Soil", CropType: "Wheat", N: 10, P: 10, K: 10, PH: 6.8,
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, fert.Name)

	yield, err := svc.EstimateYield(ctx, predict.YieldInput{
		CropType: "Maize", AreaHectares: 3, Season: "Kharif",
		Temperature: 26, Humidity: 70, Rainfall: 90, SoilType: "Red Soil", PH: 6.5,
		N: 110, P: 60, K: 60,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, yield.EstimatedKgPerHa, predict.MinYieldKgPerHa)
}
