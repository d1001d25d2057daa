package prediction

import (
	"fmt"
	"math"
)

// MinTrainRows is the smallest number of labeled rows the ensemble will fit on
const MinTrainRows = 20

// Ensemble weights are a design decision, not a tuned hyperparameter
const (
	weightForest = 0.6
	weightBoost  = 0.4
)

// Metrics holds the holdout evaluation of a trained ensemble
type Metrics struct {
	MAE  float64 `msgpack:"mae" json:"mae"`
	RMSE float64 `msgpack:"rmse" json:"rmse"`
}

// Ensemble combines the two regressors and the feature scaler. It predicts
// the next-period percent change, never the price itself.
type Ensemble struct {
	Scaler *StandardScaler `msgpack:"scaler"`
	Forest *BaggedTrees    `msgpack:"forest"`
	Boost  *GradientBoost  `msgpack:"boost"`
}

// NewEnsemble creates an unfitted ensemble
func NewEnsemble() *Ensemble {
	return &Ensemble{
		Scaler: &StandardScaler{},
		Forest: NewBaggedTrees(),
		Boost:  NewGradientBoost(),
	}
}

// Fit trains both regressors on the leading (1 - holdoutFraction) slice and
// evaluates the combined prediction on the trailing slice. The split is
// temporal: the holdout always follows the training rows and nothing is
// ever shuffled.
func (e *Ensemble) Fit(X [][]float64, y []float64, holdoutFraction float64) (Metrics, error) {
	if len(X) != len(y) {
		return Metrics{}, fmt.Errorf("feature/target length mismatch: %d != %d", len(X), len(y))
	}
	if len(y) < MinTrainRows {
		return Metrics{}, fmt.Errorf("%w: %d labeled rows, need %d", ErrInsufficientData, len(y), MinTrainRows)
	}

	trainN := int(float64(len(X)) * (1 - holdoutFraction))
	if trainN < 1 {
		trainN = 1
	}
	if trainN >= len(X) {
		trainN = len(X) - 1
	}

	trainX, holdX := X[:trainN], X[trainN:]
	trainY, holdY := y[:trainN], y[trainN:]

	if err := e.Scaler.Fit(trainX); err != nil {
		return Metrics{}, err
	}
	scaledTrain := e.Scaler.TransformAll(trainX)

	e.Forest.Fit(scaledTrain, trainY)
	e.Boost.Fit(scaledTrain, trainY)

	var absSum, sqSum float64
	for i, x := range holdX {
		err := e.Predict(x) - holdY[i]
		absSum += math.Abs(err)
		sqSum += err * err
	}
	n := float64(len(holdX))

	return Metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
	}, nil
}

// Predict standardizes the vector with the persisted scaler and combines
// both regressors with the fixed 0.6/0.4 weights. Returns the predicted
// next-period percent change.
func (e *Ensemble) Predict(x []float64) float64 {
	scaled := e.Scaler.Transform(x)
	return weightForest*e.Forest.Predict(scaled) + weightBoost*e.Boost.Predict(scaled)
}
