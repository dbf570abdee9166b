package ml

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// minGain is the smallest loss reduction accepted for a split.
const minGain = 1e-10

// GradientBoosting fits depth-wise regression trees to the logistic loss
// with second-order (Newton) leaf weights.
type GradientBoosting struct {
	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	Lambda         float64
	MinChildWeight float64

	base  float64
	trees []*regTree
}

type regNode struct {
	leaf        bool
	feature     int
	threshold   float64
	left, right int32
	value       float64
}

type regTree struct {
	nodes []regNode
}

func (t *regTree) predict(row []float64) float64 {
	n := &t.nodes[0]
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = &t.nodes[n.left]
		} else {
			n = &t.nodes[n.right]
		}
	}
	return n.value
}

func (m *GradientBoosting) Fit(ctx context.Context, X *mat.Dense, y []int) error {
	n, p := X.Dims()
	if n == 0 || n != len(y) {
		return errors.New("gradient boosting: empty or misaligned training set")
	}
	bins := newBinner(X)
	xb := bins.transform(X)

	m.base = logit(positiveShare(y))
	m.trees = m.trees[:0]

	F := make([]float64, n)
	for i := range F {
		F[i] = m.base
	}
	g := make([]float64, n)
	h := make([]float64, n)
	idx := make([]int, n)

	b := &regBuilder{
		xb:       xb,
		bins:     bins,
		g:        g,
		h:        h,
		features: p,
		maxDepth: m.MaxDepth,
		lambda:   m.Lambda,
		minChild: m.MinChildWeight,
		eta:      m.LearningRate,
		histG:    make([]float64, maxBins),
		histH:    make([]float64, maxBins),
		delta:    make([]float64, n),
	}

	for t := 0; t < m.NEstimators; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range F {
			pr := sigmoid(F[i])
			g[i] = pr - float64(y[i])
			h[i] = math.Max(pr*(1-pr), 1e-16)
			idx[i] = i
		}
		b.tree = &regTree{}
		b.grow(idx, 0)
		for i := range F {
			F[i] += b.delta[i]
		}
		m.trees = append(m.trees, b.tree)
	}
	return nil
}

func (m *GradientBoosting) PredictProba(X *mat.Dense) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		f := m.base
		for _, t := range m.trees {
			f += t.predict(row)
		}
		out[i] = sigmoid(f)
	}
	return out
}

type regBuilder struct {
	xb       [][]uint8
	bins     *binner
	g, h     []float64
	features int
	maxDepth int
	lambda   float64
	minChild float64
	eta      float64

	histG, histH []float64
	tree         *regTree
	// delta receives each training row's leaf value for the tree being grown
	delta []float64
}

func (b *regBuilder) grow(idx []int, depth int) int32 {
	var G, H float64
	for _, i := range idx {
		G += b.g[i]
		H += b.h[i]
	}
	id := int32(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, regNode{})

	if depth < b.maxDepth && len(idx) >= 2 {
		if f, bin, ok := b.bestSplit(idx, G, H); ok {
			left, right := partition(idx, b.xb[f], bin)
			l := b.grow(left, depth+1)
			r := b.grow(right, depth+1)
			b.tree.nodes[id] = regNode{
				feature:   f,
				threshold: b.bins.threshold(f, bin),
				left:      l,
				right:     r,
			}
			return id
		}
	}

	w := -G / (H + b.lambda) * b.eta
	b.tree.nodes[id] = regNode{leaf: true, value: w}
	for _, i := range idx {
		b.delta[i] = w
	}
	return id
}

func (b *regBuilder) bestSplit(idx []int, G, H float64) (int, uint8, bool) {
	parent := G * G / (H + b.lambda)
	best, bestF, bestBin := minGain, -1, uint8(0)

	for f := 0; f < b.features; f++ {
		nb := b.bins.bins(f)
		if nb < 2 {
			continue
		}
		hg, hh := b.histG[:nb], b.histH[:nb]
		clear(hg)
		clear(hh)
		col := b.xb[f]
		for _, i := range idx {
			hg[col[i]] += b.g[i]
			hh[col[i]] += b.h[i]
		}

		var GL, HL float64
		for bin := 0; bin < nb-1; bin++ {
			GL += hg[bin]
			HL += hh[bin]
			GR, HR := G-GL, H-HL
			if HL < b.minChild || HR < b.minChild {
				continue
			}
			gain := GL*GL/(HL+b.lambda) + GR*GR/(HR+b.lambda) - parent
			if gain > best {
				best, bestF, bestBin = gain, f, uint8(bin)
			}
		}
	}
	return bestF, bestBin, bestF >= 0
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	const eps = 1e-6
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}

func positiveShare(y []int) float64 {
	pos := 0
	for _, v := range y {
		pos += v
	}
	return float64(pos) / float64(len(y))
}
