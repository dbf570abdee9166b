package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracyAndF1(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    []int
		yPred    []int
		accuracy float64
		f1       float64
	}{
		{name: "perfect", yTrue: []int{0, 1, 1}, yPred: []int{0, 1, 1}, accuracy: 1, f1: 1},
		{name: "mixed", yTrue: []int{0, 0, 1, 1, 1}, yPred: []int{0, 1, 1, 1, 0}, accuracy: 0.6, f1: 2.0 / 3},
		{name: "no positives anywhere", yTrue: []int{0, 0}, yPred: []int{0, 0}, accuracy: 1, f1: 0},
		{name: "all wrong", yTrue: []int{1, 0}, yPred: []int{0, 1}, accuracy: 0, f1: 0},
		{name: "empty", accuracy: 0, f1: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.accuracy, Accuracy(tt.yTrue, tt.yPred), 1e-12)
			assert.InDelta(t, tt.f1, F1(tt.yTrue, tt.yPred), 1e-12)
		})
	}
}

func TestROCAUC(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []int
		score []float64
		want  float64
	}{
		{name: "classic", yTrue: []int{0, 0, 1, 1}, score: []float64{0.1, 0.4, 0.35, 0.8}, want: 0.75},
		{name: "all tied", yTrue: []int{0, 1}, score: []float64{0.5, 0.5}, want: 0.5},
		{name: "partial tie", yTrue: []int{0, 1, 0, 1}, score: []float64{0.2, 0.2, 0.1, 0.9}, want: 0.875},
		{name: "inverted", yTrue: []int{1, 0}, score: []float64{0.1, 0.9}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ROCAUC(tt.yTrue, tt.score)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestROCAUC_SingleClass(t *testing.T) {
	_, err := ROCAUC([]int{0, 0, 0}, []float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestReport(t *testing.T) {
	rep := Report([]int{0, 0, 1, 1, 1}, []int{0, 1, 1, 1, 0})

	require.Len(t, rep.Classes, 2)
	icm, te := rep.Classes["0"], rep.Classes["1"]
	assert.InDelta(t, 0.5, icm.Precision, 1e-12)
	assert.InDelta(t, 0.5, icm.Recall, 1e-12)
	assert.InDelta(t, 0.5, icm.F1Score, 1e-12)
	assert.Equal(t, 2, icm.Support)
	assert.InDelta(t, 2.0/3, te.Precision, 1e-12)
	assert.Equal(t, 3, te.Support)

	assert.InDelta(t, 0.6, rep.Accuracy, 1e-12)
	assert.InDelta(t, (0.5+2.0/3)/2, rep.MacroAvg.Precision, 1e-12)
	assert.InDelta(t, 0.6, rep.WeightedAvg.Precision, 1e-12)
	assert.Equal(t, 5, rep.MacroAvg.Support)
	assert.Equal(t, 5, rep.WeightedAvg.Support)
}

func TestReport_PredictedOnlyLabel(t *testing.T) {
	rep := Report([]int{0, 0}, []int{0, 1})
	require.Contains(t, rep.Classes, "1")
	assert.Equal(t, 0, rep.Classes["1"].Support)
	assert.Zero(t, rep.Classes["1"].Precision)
}

func TestEvaluate(t *testing.T) {
	m, err := Evaluate([]int{0, 1, 1}, []int{0, 1, 0}, []float64{0.2, 0.9, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3, m.F1Score, 1e-12)
	assert.InDelta(t, 1, m.AUCScore, 1e-12)
	assert.Len(t, m.ClassificationReport.Classes, 2)

	_, err = Evaluate([]int{1, 1}, []int{1, 1}, []float64{0.7, 0.8})
	assert.ErrorIs(t, err, ErrSingleClass)
}
