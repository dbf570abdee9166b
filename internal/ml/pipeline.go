package ml

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"cellclassify/internal/model"
)

var tracer = otel.Tracer("cellclassify/internal/ml")

// Options configures a pipeline run.
type Options struct {
	Seed         int64
	MaxSamples   int
	MaxFeatures  int
	PositiveRate float64
	TestSize     float64
}

// Outcome is everything a run produces for one set of models.
type Outcome struct {
	Samples     int
	Features    int
	YTest       []int
	Metrics     map[string]model.ModelMetrics
	Predictions map[string]model.Predictions
	Durations   map[string]time.Duration
}

// Run synthesizes a labeled matrix bounded by the uploaded table's shape, splits
// and scales it, then trains and scores each model kind in order.
func Run(ctx context.Context, opts Options, rows, cols int, kinds []string) (*Outcome, error) {
	n, p := min(opts.MaxSamples, rows), min(opts.MaxFeatures, cols)

	X, y, err := Synthesize(rand.New(rand.NewSource(opts.Seed)), n, p, opts.PositiveRate)
	if err != nil {
		return nil, err
	}
	split, err := StratifiedSplit(rand.New(rand.NewSource(opts.Seed)), X, y, opts.TestSize)
	if err != nil {
		return nil, err
	}

	var scaler StandardScaler
	scaler.Fit(split.XTrain)
	xTrain := scaler.Transform(split.XTrain)
	xTest := scaler.Transform(split.XTest)

	out := &Outcome{
		Samples:     n,
		Features:    p,
		YTest:       split.YTest,
		Metrics:     make(map[string]model.ModelMetrics, len(kinds)),
		Predictions: make(map[string]model.Predictions, len(kinds)),
		Durations:   make(map[string]time.Duration, len(kinds)),
	}
	for _, kind := range kinds {
		start := time.Now()
		m, pr, err := trainAndScore(ctx, kind, opts.Seed, xTrain, split.YTrain, xTest, split.YTest)
		out.Durations[kind] = time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		out.Metrics[kind] = m
		out.Predictions[kind] = pr
	}
	return out, nil
}

func trainAndScore(ctx context.Context, kind string, seed int64, xTrain *mat.Dense, yTrain []int, xTest *mat.Dense, yTest []int) (model.ModelMetrics, model.Predictions, error) {
	rows, cols := xTrain.Dims()
	ctx, span := tracer.Start(ctx, "model.train", trace.WithAttributes(
		attribute.String("model.kind", kind),
		attribute.Int("train.rows", rows),
		attribute.Int("train.features", cols),
	))
	defer span.End()

	clf, err := New(kind, seed)
	if err == nil {
		err = clf.Fit(ctx, xTrain, yTrain)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.ModelMetrics{}, model.Predictions{}, err
	}

	proba := clf.PredictProba(xTest)
	pred := Predict(proba)
	metrics, err := Evaluate(yTest, pred, proba)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.ModelMetrics{}, model.Predictions{}, err
	}
	return metrics, model.Predictions{Predictions: pred, Probabilities: proba}, nil
}
