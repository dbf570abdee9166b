package ml

import (
	"errors"
	"sort"
	"strconv"

	"cellclassify/internal/model"
)

var ErrSingleClass = errors.New("only one class present in y_true; ROC AUC score is not defined in that case")

// Accuracy is the share of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hit := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue))
}

type confusion struct {
	tp, fp, fn int
	support    int
}

func countFor(label int, yTrue, yPred []int) confusion {
	var c confusion
	for i := range yTrue {
		t, p := yTrue[i] == label, yPred[i] == label
		switch {
		case t && p:
			c.tp++
		case p:
			c.fp++
		case t:
			c.fn++
		}
		if t {
			c.support++
		}
	}
	return c
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func (c confusion) metrics() model.ClassMetrics {
	precision := ratio(c.tp, c.tp+c.fp)
	recall := ratio(c.tp, c.tp+c.fn)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return model.ClassMetrics{Precision: precision, Recall: recall, F1Score: f1, Support: c.support}
}

// F1 is the F1 score of label 1. It is 0 when precision and recall are both undefined or zero.
func F1(yTrue, yPred []int) float64 {
	return countFor(model.LabelTE, yTrue, yPred).metrics().F1Score
}

// ROCAUC is the area under the ROC curve computed from score ranks, with tied
// scores sharing their average rank.
func ROCAUC(yTrue []int, score []float64) (float64, error) {
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return score[order[a]] < score[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && score[order[j]] == score[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // mean of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var pos, neg int
	var rankSum float64
	for i, label := range yTrue {
		if label == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, ErrSingleClass
	}
	u := rankSum - float64(pos*(pos+1))/2
	return u / float64(pos*neg), nil
}

// Report builds per-class precision, recall, F1 and support for every label
// present in yTrue or yPred, plus accuracy and macro and weighted averages.
func Report(yTrue, yPred []int) model.ClassificationReport {
	present := map[int]bool{}
	for i := range yTrue {
		present[yTrue[i]] = true
		present[yPred[i]] = true
	}
	labels := make([]int, 0, len(present))
	for l := range present {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	rep := model.ClassificationReport{
		Classes:  make(map[string]model.ClassMetrics, len(labels)),
		Accuracy: Accuracy(yTrue, yPred),
	}
	total := len(yTrue)
	for _, l := range labels {
		m := countFor(l, yTrue, yPred).metrics()
		rep.Classes[strconv.Itoa(l)] = m

		k := float64(len(labels))
		rep.MacroAvg.Precision += m.Precision / k
		rep.MacroAvg.Recall += m.Recall / k
		rep.MacroAvg.F1Score += m.F1Score / k

		if total > 0 {
			w := float64(m.Support) / float64(total)
			rep.WeightedAvg.Precision += m.Precision * w
			rep.WeightedAvg.Recall += m.Recall * w
			rep.WeightedAvg.F1Score += m.F1Score * w
		}
	}
	rep.MacroAvg.Support = total
	rep.WeightedAvg.Support = total
	return rep
}

// Evaluate scores one model's test predictions.
func Evaluate(yTrue, yPred []int, proba []float64) (model.ModelMetrics, error) {
	auc, err := ROCAUC(yTrue, proba)
	if err != nil {
		return model.ModelMetrics{}, err
	}
	return model.ModelMetrics{
		Accuracy:             Accuracy(yTrue, yPred),
		F1Score:              F1(yTrue, yPred),
		AUCScore:             auc,
		ClassificationReport: Report(yTrue, yPred),
	}, nil
}
