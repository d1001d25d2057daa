package prediction

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes feature vectors to zero mean and unit
// variance. It is fit on the training split only and persisted alongside
// the regressors so inference uses the exact training-time statistics.
type StandardScaler struct {
	Means []float64 `msgpack:"means"`
	Stds  []float64 `msgpack:"stds"`
}

// Fit computes per-column mean and standard deviation.
// Columns with zero variance get a standard deviation of 1 so they scale
// to a constant instead of dividing by zero.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("cannot fit scaler on empty matrix")
	}

	cols := len(X[0])
	s.Means = make([]float64, cols)
	s.Stds = make([]float64, cols)

	column := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			column[i] = row[j]
		}
		s.Means[j] = stat.Mean(column, nil)
		std := stat.StdDev(column, nil)
		if std == 0 || len(X) < 2 {
			std = 1
		}
		s.Stds[j] = std
	}
	return nil
}

// Transform standardizes a single feature vector
func (s *StandardScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out
}

// TransformAll standardizes a feature matrix
func (s *StandardScaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
