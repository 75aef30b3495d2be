package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrosmart/ml"
	"agrosmart/predict"
	"agrosmart/training"
)

// execute runs the root command with a config file pointing at dir.
func execute(t *testing.T, dir, fallback string, args ...string) (string, error) {
	t.Helper()
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	body := "models:\n  dir: " + dir + "\n  fallback: " + fallback + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(body), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPredictCropFromRules(t *testing.T) {
	out, err := execute(t, t.TempDir(), "rules",
		"predict", "crop", "--n", "100", "--p", "50", "--k", "50",
		"--temperature", "25", "--humidity", "70", "--rainfall", "150", "--ph", "6.5",
		"--soil-type", "Alluvial Soil", "--region", "East India")
	require.NoError(t, err)

	var res predict.CropResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "Rice", res.Label)
	assert.Equal(t, predict.SourceRules, res.Source)
}

func TestPredictWithoutModelsFails(t *testing.T) {
	_, err := execute(t, t.TempDir(), "none", "predict", "yield", "--crop", "Rice")
	assert.ErrorIs(t, err, predict.ErrInference)
}

func TestModelsTrainThenVerify(t *testing.T) {
	dir := t.TempDir()
	defer func() { trainCfg = training.DefaultConfig() }()

	out, err := execute(t, dir, "none", "models", "train", "--samples", "200", "--trees", "3", "--max-depth", "6")
	require.NoError(t, err)
	var reports []training.Report
	require.NoError(t, json.Unmarshal([]byte(out), &reports), out)
	assert.Len(t, reports, 3)

	out, err = execute(t, dir, "none", "models", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "random_forest_classifier")
	assert.Contains(t, out, "random_forest_regressor")
	assert.Contains(t, out, "Unnamed: 0")
}

func TestModelsVerifySingleKind(t *testing.T) {
	dir := t.TempDir()
	defer func() {
		trainCfg = training.DefaultConfig()
		verifyKind = ""
	}()

	_, err := execute(t, dir, "none", "models", "train", "--samples", "200", "--trees", "3", "--max-depth", "6")
	require.NoError(t, err)

	out, err := execute(t, dir, "none", "models", "verify", "--kind", "yield")
	require.NoError(t, err)
	assert.Contains(t, out, "random_forest_regressor")
	assert.NotContains(t, out, "random_forest_classifier")

	_, err = execute(t, dir, "none", "models", "verify", "--kind", "soybean")
	assert.ErrorIs(t, err, ml.ErrUnknownKind)
}

func TestModelsVerifyReportsMissingArtifacts(t *testing.T) {
	out, err := execute(t, t.TempDir(), "none", "models", "verify")
	assert.Error(t, err)
	assert.Contains(t, out, "ERROR")
}
