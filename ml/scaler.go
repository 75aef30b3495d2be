package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler applies (x - mean) / scale per position. A zero scale is
// treated as one, matching how constant training columns are fitted.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Fit(rows [][]float64) error {
	if len(rows) == 0 {
		return errors.New("rows is empty")
	}
	width := len(rows[0])
	s.Mean = make([]float64, width)
	s.Scale = make([]float64, width)
	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: ragged row of %d, want %d", ErrFeatureMismatch, len(row), width)
		}
		for i, v := range row {
			s.Mean[i] += v
		}
	}
	n := float64(len(rows))
	for i := range s.Mean {
		s.Mean[i] /= n
	}
	for _, row := range rows {
		for i, v := range row {
			d := v - s.Mean[i]
			s.Scale[i] += d * d
		}
	}
	for i := range s.Scale {
		s.Scale[i] = math.Sqrt(s.Scale[i] / n)
		if s.Scale[i] == 0 {
			s.Scale[i] = 1
		}
	}
	return nil
}

// Transform returns a new scaled vector; the input is left untouched.
func (s *StandardScaler) Transform(vector FeatureVector) (FeatureVector, error) {
	if len(vector) != len(s.Mean) || len(vector) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d, scaler fitted on %d", ErrFeatureMismatch, len(vector), len(s.Mean))
	}
	out := make(FeatureVector, len(vector))
	for i, v := range vector {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
