// Package prediction implements the price-prediction pipeline: feature
// engineering from technical indicators, a two-regressor ensemble trained
// per asset, on-disk artifact persistence, and the facade that orchestrates
// training and prediction for the rest of the application.
package prediction

import (
	"math"
	"time"
)

// Direction classifies the sign of a predicted change
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Strength classifies the magnitude of a predicted change
type Strength string

const (
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

// Prediction is the record returned by every Predict call.
// A fallback record (IsFallback true) is a first-class outcome, not an error.
type Prediction struct {
	AssetID                string    `json:"asset_id"`
	CurrentPrice           float64   `json:"current_price"`
	PredictedPrice         float64   `json:"predicted_price"`
	PredictedChangePercent float64   `json:"predicted_change_percent"`
	ConfidenceScore        float64   `json:"confidence_score"` // [0, 95]
	Direction              Direction `json:"direction"`
	Strength               Strength  `json:"strength"`
	TimeFrameDays          int       `json:"time_frame"`
	Timestamp              time.Time `json:"timestamp"`
	Insights               []string  `json:"insights"`
	IsFallback             bool      `json:"is_fallback"`
}

// directionOf derives the direction from the sign of a predicted change
func directionOf(changePct float64) Direction {
	switch {
	case changePct > 0:
		return DirectionBullish
	case changePct < 0:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}

// strengthOf derives the strength from the magnitude of a predicted change
func strengthOf(changePct float64) Strength {
	abs := math.Abs(changePct)
	switch {
	case abs > 5:
		return StrengthStrong
	case abs > 2:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// FeatureFrame is the tabular output of the feature pipeline: one row per
// time step, one value per feature column, plus a target column holding the
// next-period close-to-close percent change. The last row is unlabeled
// (target NaN) and reserved for inference.
type FeatureFrame struct {
	Columns    []string
	Rows       [][]float64
	Targets    []float64
	Timestamps []time.Time
}

// Len returns the number of rows in the frame
func (f *FeatureFrame) Len() int {
	return len(f.Rows)
}

// Empty reports whether the frame has no usable rows
func (f *FeatureFrame) Empty() bool {
	return len(f.Rows) == 0
}

// InferenceRow returns the last (unlabeled) row, or nil for an empty frame
func (f *FeatureFrame) InferenceRow() []float64 {
	if len(f.Rows) == 0 {
		return nil
	}
	return f.Rows[len(f.Rows)-1]
}

// LabeledData returns the feature matrix and target vector of all rows with
// a finite target, preserving temporal order. The unlabeled inference row
// is excluded by construction.
func (f *FeatureFrame) LabeledData() (X [][]float64, y []float64) {
	for i, row := range f.Rows {
		if math.IsNaN(f.Targets[i]) || !finiteVector(row) {
			continue
		}
		X = append(X, row)
		y = append(y, f.Targets[i])
	}
	return X, y
}

// LastRowMap returns the inference row keyed by column name, or nil for an
// empty frame. Used by the insight generator.
func (f *FeatureFrame) LastRowMap() map[string]float64 {
	row := f.InferenceRow()
	if row == nil {
		return nil
	}
	m := make(map[string]float64, len(f.Columns))
	for i, col := range f.Columns {
		m[col] = row[i]
	}
	return m
}
