package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Synthesize draws a standard normal feature matrix and Bernoulli labels with
// P(1) = positiveRate. Features are drawn first, then labels, from the same rng.
func Synthesize(rng *rand.Rand, samples, features int, positiveRate float64) (*mat.Dense, []int, error) {
	if samples < 1 || features < 1 {
		return nil, nil, fmt.Errorf("cannot synthesize %dx%d data", samples, features)
	}
	data := make([]float64, samples*features)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	y := make([]int, samples)
	for i := range y {
		if rng.Float64() < positiveRate {
			y[i] = 1
		}
	}
	return mat.NewDense(samples, features, data), y, nil
}

// Split holds train and test partitions.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []int
}

// StratifiedSplit partitions rows so each class keeps its share in both sides.
// The test side gets ceil(testSize*n) rows.
func StratifiedSplit(rng *rand.Rand, X *mat.Dense, y []int, testSize float64) (*Split, error) {
	n := len(y)
	if r, _ := X.Dims(); r != n {
		return nil, fmt.Errorf("X has %d rows, y has %d labels", r, n)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("test size %v must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		if len(byClass[c]) < 2 {
			return nil, errors.New("the least populated class in y has only 1 member, which is too few; the minimum number of groups for any class cannot be less than 2")
		}
	}
	if nTest < len(classes) || nTrain < len(classes) {
		return nil, fmt.Errorf("a split of %d samples into %d train and %d test rows cannot hold all %d classes",
			n, nTrain, nTest, len(classes))
	}

	// largest remainder allocation of test rows per class
	alloc := make([]int, len(classes))
	rem := make([]float64, len(classes))
	given := 0
	for k, c := range classes {
		exact := float64(nTest) * float64(len(byClass[c])) / float64(n)
		alloc[k] = int(math.Floor(exact))
		rem[k] = exact - float64(alloc[k])
		given += alloc[k]
	}
	order := make([]int, len(classes))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })
	for k := 0; given < nTest; k = (k + 1) % len(order) {
		c := order[k]
		if alloc[c] < len(byClass[classes[c]])-1 {
			alloc[c]++
			given++
		}
	}

	var trainIdx, testIdx []int
	for k, c := range classes {
		idx := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		testIdx = append(testIdx, idx[:alloc[k]]...)
		trainIdx = append(trainIdx, idx[alloc[k]:]...)
	}
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

	s := &Split{}
	s.XTrain, s.YTrain = takeRows(X, y, trainIdx)
	s.XTest, s.YTest = takeRows(X, y, testIdx)
	return s, nil
}

func takeRows(X *mat.Dense, y []int, idx []int) (*mat.Dense, []int) {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	labels := make([]int, len(idx))
	for k, i := range idx {
		out.SetRow(k, X.RawRowView(i))
		labels[k] = y[i]
	}
	return out, labels
}

// StandardScaler centers features and scales them to unit (population) variance.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fit learns per-column mean and standard deviation. Constant columns get scale 1.
func (s *StandardScaler) Fit(X *mat.Dense) {
	r, c := X.Dims()
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X *mat.Dense) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		src, dst := X.RawRowView(i), out.RawRowView(i)
		for j := range dst {
			dst[j] = (src[j] - s.Mean[j]) / s.Scale[j]
		}
	}
	return out
}
