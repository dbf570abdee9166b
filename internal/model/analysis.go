package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Label values used in ground truth and predictions.
const (
	LabelICM = 0
	LabelTE  = 1
)

// LabelName returns the human-readable cell type for a binary label.
func LabelName(label int) string {
	if label == LabelTE {
		return "TE"
	}
	return "ICM"
}

// AnalysisResult is the persisted document of one analysis run.
// It is written once and never mutated.
type AnalysisResult struct {
	AnalysisID      string                  `json:"analysis_id"`
	FileID          string                  `json:"file_id"`
	Timestamp       time.Time               `json:"timestamp"`
	DataShape       [2]int                  `json:"data_shape"`
	ModelsUsed      []string                `json:"models_used"`
	Results         map[string]ModelMetrics `json:"results"`
	TestPredictions TestPredictions         `json:"test_predictions"`
}

// Validate checks that every invoked model has one metrics block and one
// prediction block aligned with the ground truth vector.
func (r *AnalysisResult) Validate() error {
	n := len(r.TestPredictions.YTrue)
	if len(r.TestPredictions.SampleIDs) != n {
		return fmt.Errorf("sample_ids has %d entries, y_true has %d", len(r.TestPredictions.SampleIDs), n)
	}
	for _, name := range r.ModelsUsed {
		if _, ok := r.Results[name]; !ok {
			return fmt.Errorf("model %q has no metrics", name)
		}
		p, ok := r.TestPredictions.Models[name]
		if !ok {
			return fmt.Errorf("model %q has no predictions", name)
		}
		if len(p.Predictions) != n || len(p.Probabilities) != n {
			return fmt.Errorf("model %q predictions are not aligned with y_true (%d/%d vs %d)",
				name, len(p.Predictions), len(p.Probabilities), n)
		}
	}
	return nil
}

// BestAccuracy is the highest accuracy among the invoked models.
func (r *AnalysisResult) BestAccuracy() float64 {
	best := 0.0
	for _, name := range r.ModelsUsed {
		if m, ok := r.Results[name]; ok && m.Accuracy > best {
			best = m.Accuracy
		}
	}
	return best
}

// ModelMetrics holds the scores of one model on the test partition.
type ModelMetrics struct {
	Accuracy             float64              `json:"accuracy"`
	F1Score              float64              `json:"f1_score"`
	AUCScore             float64              `json:"auc_score"`
	ClassificationReport ClassificationReport `json:"classification_report"`
}

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1-score"`
	Support   int     `json:"support"`
}

// ClassificationReport serializes flat: one key per class label, plus
// "accuracy", "macro avg" and "weighted avg".
type ClassificationReport struct {
	Classes     map[string]ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

const (
	reportAccuracyKey = "accuracy"
	reportMacroKey    = "macro avg"
	reportWeightedKey = "weighted avg"
)

func (r ClassificationReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Classes)+3)
	for label, m := range r.Classes {
		out[label] = m
	}
	out[reportAccuracyKey] = r.Accuracy
	out[reportMacroKey] = r.MacroAvg
	out[reportWeightedKey] = r.WeightedAvg
	return json.Marshal(out)
}

func (r *ClassificationReport) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Classes = make(map[string]ClassMetrics)
	for key, v := range raw {
		var err error
		switch key {
		case reportAccuracyKey:
			err = json.Unmarshal(v, &r.Accuracy)
		case reportMacroKey:
			err = json.Unmarshal(v, &r.MacroAvg)
		case reportWeightedKey:
			err = json.Unmarshal(v, &r.WeightedAvg)
		default:
			var m ClassMetrics
			err = json.Unmarshal(v, &m)
			r.Classes[key] = m
		}
		if err != nil {
			return fmt.Errorf("classification_report[%q]: %w", key, err)
		}
	}
	return nil
}

// Predictions is the per-sample output of one model.
type Predictions struct {
	Predictions   []int     `json:"predictions"`
	Probabilities []float64 `json:"probabilities"`
}

// TestPredictions serializes flat: "y_true", "sample_ids" and one key per model.
type TestPredictions struct {
	YTrue     []int
	SampleIDs []int
	Models    map[string]Predictions
}

const (
	yTrueKey     = "y_true"
	sampleIDsKey = "sample_ids"
)

func (p TestPredictions) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Models)+2)
	for name, preds := range p.Models {
		out[name] = preds
	}
	out[yTrueKey] = nonNilInts(p.YTrue)
	out[sampleIDsKey] = nonNilInts(p.SampleIDs)
	return json.Marshal(out)
}

func (p *TestPredictions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Models = make(map[string]Predictions)
	for key, v := range raw {
		var err error
		switch key {
		case yTrueKey:
			err = json.Unmarshal(v, &p.YTrue)
		case sampleIDsKey:
			err = json.Unmarshal(v, &p.SampleIDs)
		default:
			var preds Predictions
			err = json.Unmarshal(v, &preds)
			p.Models[key] = preds
		}
		if err != nil {
			return fmt.Errorf("test_predictions[%q]: %w", key, err)
		}
	}
	return nil
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// HistoryEntry is a read-only projection of an AnalysisResult.
type HistoryEntry struct {
	AnalysisID   string    `json:"analysis_id"`
	Timestamp    time.Time `json:"timestamp"`
	DataShape    [2]int    `json:"data_shape"`
	ModelsUsed   []string  `json:"models_used"`
	BestAccuracy float64   `json:"best_accuracy"`
}

// DataInfo describes the data actually used by an analysis run.
type DataInfo struct {
	Samples  int `json:"samples"`
	Features int `json:"features"`
	TestSize int `json:"test_size"`
}
