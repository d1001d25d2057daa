package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodeck/internal/domain"
	testingpkg "cryptodeck/internal/testing"
)

func TestBuildIsDeterministic(t *testing.T) {
	pipeline := NewPipeline(10)
	series := testingpkg.TrendSeries(120, 100, 0.3)

	a := pipeline.Build(series)
	b := pipeline.Build(series)

	require.Equal(t, a.Len(), b.Len())
	assert.Equal(t, a.Rows, b.Rows)

	aX, aY := a.LabeledData()
	bX, bY := b.LabeledData()
	assert.Equal(t, aX, bX)
	assert.Equal(t, aY, bY)
}

func TestBuildDropsIndicatorWarmup(t *testing.T) {
	pipeline := NewPipeline(10)
	series := testingpkg.TrendSeries(120, 100, 0.3)

	frame := pipeline.Build(series)
	require.False(t, frame.Empty())

	// sma_30 is the longest warmup: the first 29 rows cannot be finite
	assert.LessOrEqual(t, frame.Len(), 120-29)

	for i, row := range frame.Rows {
		for j, v := range row {
			assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0),
				"row %d column %s is not finite", i, frame.Columns[j])
		}
	}
}

func TestBuildReturnsEmptyFrameOnShortSeries(t *testing.T) {
	pipeline := NewPipeline(10)

	for _, n := range []int{0, 1, 5, 30} {
		frame := pipeline.Build(testingpkg.TrendSeries(n, 100, 0.3))
		assert.Truef(t, frame.Empty(), "series of %d rows should yield an empty frame", n)
	}
}

func TestBuildNeverReadsFutureRows(t *testing.T) {
	pipeline := NewPipeline(10)
	series := testingpkg.TrendSeries(120, 100, 0.3)

	base := pipeline.Build(series)
	require.False(t, base.Empty())

	// Perturb the final candle; every feature row before it must be unchanged
	perturbed := make(domain.Series, len(series))
	copy(perturbed, series)
	perturbed[len(perturbed)-1].Close *= 1.5
	perturbed[len(perturbed)-1].Volume *= 3

	frame := pipeline.Build(perturbed)
	require.Equal(t, base.Len(), frame.Len())

	for i := 0; i < base.Len()-1; i++ {
		assert.Equalf(t, base.Rows[i], frame.Rows[i], "row %d changed", i)
	}
}

func TestTargetsAreNextPeriodChange(t *testing.T) {
	pipeline := NewPipeline(10)
	series := testingpkg.TrendSeries(120, 100, 0.3)

	frame := pipeline.Build(series)
	require.False(t, frame.Empty())

	closes := series.Closes()
	offset := len(series) - frame.Len()

	for i := 0; i < frame.Len()-1; i++ {
		idx := offset + i
		want := (closes[idx+1] - closes[idx]) / closes[idx] * 100
		assert.InDelta(t, want, frame.Targets[i], 1e-9)
	}
	// The final row is the unlabeled inference row
	assert.True(t, math.IsNaN(frame.Targets[frame.Len()-1]))
}

func TestLabeledDataExcludesInferenceRow(t *testing.T) {
	pipeline := NewPipeline(10)
	frame := pipeline.Build(testingpkg.TrendSeries(120, 100, 0.3))
	require.False(t, frame.Empty())

	X, y := frame.LabeledData()
	require.Equal(t, len(X), len(y))
	assert.Equal(t, frame.Len()-1, len(y))

	for _, target := range y {
		assert.False(t, math.IsNaN(target))
	}
}

func TestZeroVolumeYieldsZeroRatioAndCorrelation(t *testing.T) {
	pipeline := NewPipeline(10)
	series := testingpkg.TrendSeries(120, 100, 0.3)
	for i := range series {
		series[i].Volume = 0
	}

	frame := pipeline.Build(series)
	require.False(t, frame.Empty())

	row := frame.LastRowMap()
	assert.Equal(t, 0.0, row["volume_ratio"])
	assert.Equal(t, 0.0, row["price_volume_corr_20"])
}

func TestRisingSeriesSaturatesRSI(t *testing.T) {
	pipeline := NewPipeline(10)
	frame := pipeline.Build(testingpkg.RisingSeries(120, 100))
	require.False(t, frame.Empty())

	row := frame.LastRowMap()
	assert.InDelta(t, 100.0, row["rsi_14"], 1e-9)
	// price_position stays finite thanks to the epsilon guard
	assert.False(t, math.IsNaN(row["price_position_20"]))
	assert.Greater(t, row["price_position_20"], 0.9)
}

func TestFlatSeriesStaysFinite(t *testing.T) {
	pipeline := NewPipeline(10)
	frame := pipeline.Build(testingpkg.FlatSeries(120, 50, 1000))
	require.False(t, frame.Empty())

	row := frame.InferenceRow()
	assert.True(t, finiteVector(row))

	byName := frame.LastRowMap()
	assert.Equal(t, 0.0, byName["return_1"])
	assert.Equal(t, 0.0, byName["volatility_20"])
	assert.Equal(t, 0.0, byName["price_volume_corr_20"])
}

func TestColumnOrderMatchesContract(t *testing.T) {
	pipeline := NewPipeline(10)
	frame := pipeline.Build(testingpkg.TrendSeries(120, 100, 0.3))

	require.Equal(t, FeatureColumns, frame.Columns)
	require.Equal(t, len(FeatureColumns), len(frame.InferenceRow()))
}
