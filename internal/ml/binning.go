package ml

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// maxBins bounds the histogram size per feature so bin ids fit a byte.
const maxBins = 64

// binner maps raw feature values onto quantile bins learned from training data.
// Value v of feature f falls in bin i when borders[f][i-1] < v <= borders[f][i].
type binner struct {
	borders [][]float64
}

func newBinner(X *mat.Dense) *binner {
	r, c := X.Dims()
	b := &binner{borders: make([][]float64, c)}
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		sort.Float64s(col)
		b.borders[j] = quantileBorders(col)
	}
	return b
}

func quantileBorders(sorted []float64) []float64 {
	uniq := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}
	if len(uniq) <= maxBins {
		out := make([]float64, 0, len(uniq)-1)
		for i := 1; i < len(uniq); i++ {
			out = append(out, (uniq[i-1]+uniq[i])/2)
		}
		return out
	}

	n := len(sorted)
	top := sorted[n-1]
	out := make([]float64, 0, maxBins-1)
	for k := 1; k < maxBins; k++ {
		v := sorted[k*n/maxBins]
		if v >= top {
			break
		}
		if len(out) == 0 || v > out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// bins returns the number of bins of feature f.
func (b *binner) bins(f int) int {
	return len(b.borders[f]) + 1
}

// threshold returns the raw split value equivalent to "bin <= bin".
func (b *binner) threshold(f int, bin uint8) float64 {
	return b.borders[f][bin]
}

// transform returns column-major bin ids: out[f][i] is the bin of row i.
func (b *binner) transform(X *mat.Dense) [][]uint8 {
	r, c := X.Dims()
	out := make([][]uint8, c)
	for j := 0; j < c; j++ {
		col := make([]uint8, r)
		borders := b.borders[j]
		for i := 0; i < r; i++ {
			col[i] = uint8(sort.SearchFloat64s(borders, X.At(i, j)))
		}
		out[j] = col
	}
	return out
}

// partition reorders idx in place so rows with col[i] <= bin come first.
func partition(idx []int, col []uint8, bin uint8) (left, right []int) {
	k := 0
	for i, row := range idx {
		if col[row] <= bin {
			idx[k], idx[i] = idx[i], idx[k]
			k++
		}
	}
	return idx[:k], idx[k:]
}
