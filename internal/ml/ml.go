// Package ml trains and scores the binary ICM/TE classifiers offered by the service.
//
// All models are tree ensembles grown on histogram bins of the training features.
// Given the same seed and inputs every model produces identical output.
package ml

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Supported model kinds, in catalog order.
const (
	CatBoost     = "catboost"
	XGBoost      = "xgboost"
	RandomForest = "randomforest"
)

// Kinds returns every supported model kind.
func Kinds() []string {
	return []string{CatBoost, XGBoost, RandomForest}
}

// IsKind reports whether name is a supported model kind.
func IsKind(name string) bool {
	switch name {
	case CatBoost, XGBoost, RandomForest:
		return true
	}
	return false
}

// Classifier is a binary classifier over dense feature rows.
type Classifier interface {
	Fit(ctx context.Context, X *mat.Dense, y []int) error
	// PredictProba returns P(label == 1) for every row of X.
	PredictProba(X *mat.Dense) []float64
}

// New returns an untrained classifier of the given kind with its fixed hyperparameters.
func New(kind string, seed int64) (Classifier, error) {
	switch kind {
	case CatBoost:
		return &ObliviousBoosting{
			Iterations:   100,
			LearningRate: 0.1,
			Depth:        6,
			L2LeafReg:    3,
			Subsample:    0.8,
			Seed:         seed,
		}, nil
	case XGBoost:
		return &GradientBoosting{
			NEstimators:    100,
			LearningRate:   0.1,
			MaxDepth:       6,
			Lambda:         1,
			MinChildWeight: 1,
		}, nil
	case RandomForest:
		return &Forest{
			NEstimators: 100,
			MaxDepth:    10,
			Seed:        seed,
		}, nil
	}
	return nil, fmt.Errorf("unknown model kind %q", kind)
}

// Predict thresholds probabilities at 0.5.
func Predict(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}
