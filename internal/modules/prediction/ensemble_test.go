package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "cryptodeck/internal/testing"
)

func trainingData(t *testing.T) ([][]float64, []float64) {
	t.Helper()
	frame := NewPipeline(10).Build(testingpkg.TrendSeries(150, 100, 0.3))
	require.False(t, frame.Empty())
	X, y := frame.LabeledData()
	require.GreaterOrEqual(t, len(y), MinTrainRows)
	return X, y
}

func TestEnsembleFitIsDeterministic(t *testing.T) {
	X, y := trainingData(t)

	a := NewEnsemble()
	metricsA, err := a.Fit(X, y, 0.2)
	require.NoError(t, err)

	b := NewEnsemble()
	metricsB, err := b.Fit(X, y, 0.2)
	require.NoError(t, err)

	assert.Equal(t, metricsA, metricsB)
	assert.Equal(t, a.Predict(X[len(X)-1]), b.Predict(X[len(X)-1]))
}

func TestEnsembleRejectsTooFewRows(t *testing.T) {
	X, y := trainingData(t)
	short := MinTrainRows - 1

	_, err := NewEnsemble().Fit(X[:short], y[:short], 0.2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEnsembleRejectsLengthMismatch(t *testing.T) {
	X, y := trainingData(t)

	_, err := NewEnsemble().Fit(X, y[:len(y)-1], 0.2)
	require.Error(t, err)
}

func TestEnsembleScalerFitOnTrainingSliceOnly(t *testing.T) {
	X, y := trainingData(t)

	e := NewEnsemble()
	_, err := e.Fit(X, y, 0.2)
	require.NoError(t, err)

	trainN := int(float64(len(X)) * 0.8)
	reference := &StandardScaler{}
	require.NoError(t, reference.Fit(X[:trainN]))

	assert.Equal(t, reference.Means, e.Scaler.Means)
	assert.Equal(t, reference.Stds, e.Scaler.Stds)
}

func TestEnsembleMetricsAreFinite(t *testing.T) {
	X, y := trainingData(t)

	metrics, err := NewEnsemble().Fit(X, y, 0.2)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, metrics.MAE, 0.0)
	assert.GreaterOrEqual(t, metrics.RMSE, metrics.MAE)
}

func TestEnsemblePredictionIsWeightedBlend(t *testing.T) {
	X, y := trainingData(t)

	e := NewEnsemble()
	_, err := e.Fit(X, y, 0.2)
	require.NoError(t, err)

	x := X[len(X)-1]
	scaled := e.Scaler.Transform(x)
	want := 0.6*e.Forest.Predict(scaled) + 0.4*e.Boost.Predict(scaled)

	assert.InDelta(t, want, e.Predict(x), 1e-12)
}

func TestEnsemblePredictionIsBoundedOnCleanTrend(t *testing.T) {
	X, y := trainingData(t)

	e := NewEnsemble()
	_, err := e.Fit(X, y, 0.2)
	require.NoError(t, err)

	// Daily changes in the fixture stay within a few percent; tree-based
	// regressors cannot extrapolate past the label range
	pred := e.Predict(X[len(X)-1])
	assert.Less(t, pred, 5.0)
	assert.Greater(t, pred, -5.0)
}
