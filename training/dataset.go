// Package training fits bootstrap model artifacts from datasets synthesized
// out of the agronomic rule tables.
package training

import (
	"fmt"
	"math/rand"

	"agrosmart/ml"
	"agrosmart/rules"
)

// Dataset is a feature matrix with one target per row. Labels is set for
// classification, where targets index into it.
type Dataset struct {
	Features     []string
	X            [][]float64
	Y            []float64
	Labels       []string
	Encoders     map[string]*ml.LabelEncoder
	TargetColumn string
}

func (d Dataset) classifier() bool { return len(d.Labels) > 0 }

func uniform(rnd *rand.Rand, r rules.Range) float64 {
	return r.Min + rnd.Float64()*(r.Max-r.Min)
}

func pick(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}

// CropDataset draws perCrop rows inside every crop's requirement ranges.
func CropDataset(rnd *rand.Rand, perCrop int) Dataset {
	ds := Dataset{
		Features: []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"},
		Labels:   append([]string(nil), rules.Crops...),
	}
	for label, crop := range rules.Crops {
		req := rules.CropRequirements[crop]
		for i := 0; i < perCrop; i++ {
			ds.X = append(ds.X, []float64{
				uniform(rnd, req.N),
				uniform(rnd, req.P),
				uniform(rnd, req.K),
				uniform(rnd, req.Temp),
				uniform(rnd, req.Humidity),
				uniform(rnd, req.PH),
				uniform(rnd, req.Rainfall),
			})
			ds.Y = append(ds.Y, float64(label))
		}
	}
	return ds
}

// FertilizerDataset labels n random field readings with the fertilizer the
// rule table recommends for them.
func FertilizerDataset(rnd *rand.Rand, n int) (Dataset, error) {
	soil := ml.FitLabelEncoder(rules.SoilTypes)
	crop := ml.FitLabelEncoder(rules.Crops)
	ds := Dataset{
		Features: []string{
			"Temperature", "Moisture", "Rainfall", "PH",
			"Nitrogen", "Phosphorous", "Potassium", "Carbon",
			"Soil", "Crop", "Remark",
		},
		Encoders:     map[string]*ml.LabelEncoder{"Soil": soil, "Crop": crop},
		TargetColumn: "Fertilizer",
	}

	var recommender rules.FertilizerRecommender
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		soilType := pick(rnd, rules.SoilTypes)
		cropType := pick(rnd, rules.Crops)
		target := rules.FertilizerPlans[cropType].Target
		nLevel := rnd.Float64() * target.N * 1.2
		pLevel := rnd.Float64() * target.P * 1.2
		kLevel := rnd.Float64() * target.K * 1.2
		ph := uniform(rnd, rules.Range{Min: 4.5, Max: 9})

		advice, err := recommender.Recommend(rules.FertilizerConditions{
			Crop: cropType, N: nLevel, P: pLevel, K: kLevel, PH: ph, SoilType: soilType,
		})
		if err != nil {
			return Dataset{}, err
		}
		soilCode, _ := soil.Encode(soilType)
		cropCode, _ := crop.Encode(cropType)
		ds.X = append(ds.X, []float64{
			uniform(rnd, rules.Range{Min: 15, Max: 40}),
			uniform(rnd, rules.Range{Min: 20, Max: 80}),
			uniform(rnd, rules.Range{Min: 0, Max: 300}),
			ph,
			nLevel, pLevel, kLevel,
			uniform(rnd, rules.Range{Min: 5, Max: 35}),
			float64(soilCode), float64(cropCode),
			0,
		})
		names = append(names, advice.Fertilizer)
	}

	labels := ml.FitLabelEncoder(names)
	ds.Labels = labels.Classes()
	for _, name := range names {
		code, _ := labels.Encode(name)
		ds.Y = append(ds.Y, float64(code))
	}
	return ds, nil
}

// YieldDataset produces n rows with targets in hg/ha, the unit the model
// output is converted from.
func YieldDataset(rnd *rand.Rand, n int) (Dataset, error) {
	item := ml.FitLabelEncoder(rules.Crops)
	ds := Dataset{
		Features: []string{
			"Unnamed: 0", "Area", "Item", "Year",
			"average_rain_fall_mm_per_year", "pesticides_tonnes", "avg_temp",
		},
		Encoders:     map[string]*ml.LabelEncoder{"Item": item},
		TargetColumn: "hg/ha_yield",
	}

	estimator := rules.NewYieldEstimator(rnd.Float64)
	for i := 0; i < n; i++ {
		cropType := pick(rnd, rules.Crops)
		req := rules.CropRequirements[cropType]
		cond := rules.YieldConditions{
			Crop:        cropType,
			Season:      pick(rnd, rules.Seasons),
			Region:      pick(rnd, rules.Regions),
			Temperature: uniform(rnd, rules.Range{Min: req.Temp.Min - 5, Max: req.Temp.Max + 5}),
			Humidity:    uniform(rnd, req.Humidity),
			Rainfall:    uniform(rnd, rules.Range{Min: req.Rainfall.Min / 2, Max: req.Rainfall.Max * 1.5}),
			SoilType:    pick(rnd, rules.SoilTypes),
			PH:          uniform(rnd, rules.Range{Min: 5, Max: 8.5}),
			N:           uniform(rnd, req.N),
			P:           uniform(rnd, req.P),
			K:           uniform(rnd, req.K),
		}
		est, err := estimator.Estimate(cond)
		if err != nil {
			return Dataset{}, fmt.Errorf("row %d: %w", i, err)
		}
		code, _ := item.Encode(cropType)
		ds.X = append(ds.X, []float64{
			float64(i),
			uniform(rnd, rules.Range{Min: 0.5, Max: 50}),
			float64(code),
			float64(2000 + rnd.Intn(26)),
			cond.Rainfall * 10,
			(cond.N + cond.P + cond.K) * 0.01,
			cond.Temperature,
		})
		ds.Y = append(ds.Y, est.Estimated*tonneToHectogram)
	}
	return ds, nil
}

const tonneToHectogram = 10000

// splitDataset shuffles rows with rnd and holds out testRatio of them.
func splitDataset(rnd *rand.Rand, ds Dataset, testRatio float64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	indices := rnd.Perm(len(ds.X))
	split := len(ds.X) - int(float64(len(ds.X))*testRatio)
	if split < 1 {
		split = 1
	}
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, ds.X[idx])
			trainY = append(trainY, ds.Y[idx])
		} else {
			testX = append(testX, ds.X[idx])
			testY = append(testY, ds.Y[idx])
		}
	}
	return trainX, trainY, testX, testY
}
