package prediction

import (
	"math"

	"cryptodeck/internal/domain"
	"cryptodeck/pkg/formulas"
)

// PipelineVersion is bumped whenever the feature set, column order, or any
// indicator's semantics change. Artifacts recording an older version are
// rejected at load time and retrained.
const PipelineVersion = 1

// FeatureColumns is the fixed column order of the feature frame. This order
// is the compatibility contract between the pipeline and stored artifacts.
var FeatureColumns = []string{
	"return_1",
	"log_return_1",
	"sma_7",
	"sma_14",
	"sma_30",
	"ema_7",
	"ema_14",
	"rsi_14",
	"macd",
	"macd_signal",
	"macd_hist",
	"bb_upper",
	"bb_middle",
	"bb_lower",
	"bb_width",
	"volatility_20",
	"volume_ratio",
	"price_volume_corr_20",
	"price_position_20",
	"roc_7",
	"roc_14",
}

// epsilon guards divisions against zero-width rolling ranges
const epsilon = 1e-9

// Pipeline derives a FeatureFrame from a price series. Pure and
// deterministic: same input, same output, no I/O, no randomness.
type Pipeline struct {
	minPredict int
}

// NewPipeline creates a feature pipeline. minPredict is the smallest number
// of post-indicator rows considered usable; below it Build returns an empty
// frame and callers take the fallback path.
func NewPipeline(minPredict int) *Pipeline {
	return &Pipeline{minPredict: minPredict}
}

// Version returns the pipeline compatibility version
func (p *Pipeline) Version() int {
	return PipelineVersion
}

// Columns returns the feature column order
func (p *Pipeline) Columns() []string {
	return FeatureColumns
}

// Build computes the feature frame for a series. Rows with non-finite
// values are dropped from the head (indicator warmup); the last surviving
// row is left unlabeled as the inference row. Returns an empty frame, not
// an error, when fewer than minPredict rows survive.
func (p *Pipeline) Build(series domain.Series) *FeatureFrame {
	n := len(series)
	frame := &FeatureFrame{Columns: FeatureColumns}
	if n < 2 {
		return frame
	}

	closes := series.Closes()
	volumes := series.Volumes()

	// Simple and log returns; index 0 has no predecessor
	simpleReturns := make([]float64, n)
	logReturns := make([]float64, n)
	simpleReturns[0] = math.NaN()
	logReturns[0] = math.NaN()
	for i := 1; i < n; i++ {
		if closes[i-1] != 0 {
			simpleReturns[i] = (closes[i] - closes[i-1]) / closes[i-1]
		} else {
			simpleReturns[i] = math.NaN()
		}
		if closes[i] > 0 && closes[i-1] > 0 {
			logReturns[i] = math.Log(closes[i] / closes[i-1])
		} else {
			logReturns[i] = math.NaN()
		}
	}

	sma7 := formulas.SMASeries(closes, 7)
	sma14 := formulas.SMASeries(closes, 14)
	sma30 := formulas.SMASeries(closes, 30)
	ema7 := formulas.EMASeries(closes, 7)
	ema14 := formulas.EMASeries(closes, 14)
	rsi14 := formulas.RSISeries(closes, 14)
	macd, macdSignal, macdHist := formulas.MACDSeries(closes, 12, 26, 9)
	bbUpper, bbMiddle, bbLower := formulas.BollingerSeries(closes, 20, 2)

	bbWidth := make([]float64, n)
	for i := range bbWidth {
		if bbMiddle[i] != 0 {
			bbWidth[i] = (bbUpper[i] - bbLower[i]) / bbMiddle[i]
		} else {
			bbWidth[i] = math.NaN()
		}
	}

	// Rolling volatility of simple returns, in percent
	volatility := formulas.RollingStd(simpleReturns[1:], 20)
	volatility20 := make([]float64, n)
	volatility20[0] = math.NaN()
	for i := 1; i < n; i++ {
		volatility20[i] = volatility[i-1] * 100
	}

	// Volume relative to its 20-period average; constant-zero volume yields 0
	volumeSMA := formulas.SMASeries(volumes, 20)
	volumeRatio := make([]float64, n)
	for i := range volumeRatio {
		switch {
		case math.IsNaN(volumeSMA[i]):
			volumeRatio[i] = math.NaN()
		case volumeSMA[i] == 0:
			volumeRatio[i] = 0
		default:
			volumeRatio[i] = volumes[i] / volumeSMA[i]
		}
	}

	priceVolumeCorr := formulas.RollingCorrelation(closes, volumes, 20)

	high20 := formulas.RollingMax(closes, 20)
	low20 := formulas.RollingMin(closes, 20)
	pricePosition := make([]float64, n)
	for i := range pricePosition {
		pricePosition[i] = (closes[i] - low20[i]) / (high20[i] - low20[i] + epsilon)
	}

	roc7 := rateOfChange(closes, 7)
	roc14 := rateOfChange(closes, 14)

	columns := [][]float64{
		simpleReturns, logReturns,
		sma7, sma14, sma30, ema7, ema14,
		rsi14, macd, macdSignal, macdHist,
		bbUpper, bbMiddle, bbLower, bbWidth,
		volatility20, volumeRatio, priceVolumeCorr,
		pricePosition, roc7, roc14,
	}

	// Next-period close-to-close percent change; the final row is unlabeled
	targets := make([]float64, n)
	for i := 0; i < n-1; i++ {
		if closes[i] != 0 {
			targets[i] = (closes[i+1] - closes[i]) / closes[i] * 100
		} else {
			targets[i] = math.NaN()
		}
	}
	targets[n-1] = math.NaN()

	// Drop the indicator warmup: skip rows from the head until every column
	// is finite
	start := 0
	for ; start < n; start++ {
		if rowFinite(columns, start) {
			break
		}
	}

	if n-start < p.minPredict {
		return frame
	}

	for i := start; i < n; i++ {
		row := make([]float64, len(columns))
		for j, col := range columns {
			row[j] = col[i]
		}
		frame.Rows = append(frame.Rows, row)
		frame.Targets = append(frame.Targets, targets[i])
		frame.Timestamps = append(frame.Timestamps, series[i].Timestamp)
	}
	return frame
}

// rateOfChange computes the n-period percent change; NaN-padded head
func rateOfChange(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		if i < period || closes[i-period] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - closes[i-period]) / closes[i-period] * 100
	}
	return out
}

func rowFinite(columns [][]float64, i int) bool {
	for _, col := range columns {
		if math.IsNaN(col[i]) || math.IsInf(col[i], 0) {
			return false
		}
	}
	return true
}

// finiteVector reports whether every value in the vector is finite
func finiteVector(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
