package ml

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Forest is a bagged ensemble of gini classification trees. Each split looks at
// a random subset of MaxFeatures features (sqrt of the feature count when zero).
type Forest struct {
	NEstimators int
	MaxDepth    int
	MaxFeatures int
	Seed        int64

	trees []*regTree
}

func (m *Forest) Fit(ctx context.Context, X *mat.Dense, y []int) error {
	n, p := X.Dims()
	if n == 0 || n != len(y) {
		return errors.New("random forest: empty or misaligned training set")
	}
	bins := newBinner(X)
	xb := bins.transform(X)

	mtry := m.MaxFeatures
	if mtry <= 0 {
		mtry = int(math.Sqrt(float64(p)))
	}
	mtry = min(max(mtry, 1), p)

	// seeds are drawn up front so the result does not depend on scheduling
	master := rand.New(rand.NewSource(m.Seed))
	seeds := make([]int64, m.NEstimators)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*regTree, m.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range trees {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trees[t] = growGini(xb, bins, y, p, mtry, m.MaxDepth, rand.New(rand.NewSource(seeds[t])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.trees = trees
	return nil
}

func (m *Forest) PredictProba(X *mat.Dense) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	if len(m.trees) == 0 {
		return out
	}
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		s := 0.0
		for _, t := range m.trees {
			s += t.predict(row)
		}
		out[i] = s / float64(len(m.trees))
	}
	return out
}

type giniBuilder struct {
	xb       [][]uint8
	bins     *binner
	y        []int
	w        []float64
	maxDepth int
	mtry     int
	rng      *rand.Rand
	perm     []int
	h0, h1   []float64
	tree     *regTree
}

// growGini fits one tree on a bootstrap sample. Leaves hold the share of label 1.
func growGini(xb [][]uint8, bins *binner, y []int, features, mtry, maxDepth int, rng *rand.Rand) *regTree {
	n := len(y)
	w := make([]float64, n)
	for k := 0; k < n; k++ {
		w[rng.Intn(n)]++
	}
	idx := make([]int, 0, n)
	for i, c := range w {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	perm := make([]int, features)
	for i := range perm {
		perm[i] = i
	}
	b := &giniBuilder{
		xb:       xb,
		bins:     bins,
		y:        y,
		w:        w,
		maxDepth: maxDepth,
		mtry:     mtry,
		rng:      rng,
		perm:     perm,
		h0:       make([]float64, maxBins),
		h1:       make([]float64, maxBins),
		tree:     &regTree{},
	}
	b.grow(idx, 0)
	return b.tree
}

func (b *giniBuilder) grow(idx []int, depth int) int32 {
	var w0, w1 float64
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.w[i]
		} else {
			w0 += b.w[i]
		}
	}
	id := int32(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, regNode{})

	if depth < b.maxDepth && len(idx) >= 2 && w0 > 0 && w1 > 0 {
		if f, bin, ok := b.bestSplit(idx, w0, w1); ok {
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
	b.tree.nodes[id] = regNode{leaf: true, value: w1 / (w0 + w1)}
	return id
}

// purity is sum of squared class weights over total weight; maximizing the
// children's purity sum minimizes weighted gini impurity.
func purity(a, c float64) float64 {
	t := a + c
	if t == 0 {
		return 0
	}
	return (a*a + c*c) / t
}

func (b *giniBuilder) bestSplit(idx []int, w0, w1 float64) (int, uint8, bool) {
	best, bestF, bestBin := purity(w0, w1)+minGain, -1, uint8(0)

	p := len(b.perm)
	for k := 0; k < b.mtry; k++ {
		j := k + b.rng.Intn(p-k)
		b.perm[k], b.perm[j] = b.perm[j], b.perm[k]
		f := b.perm[k]

		nb := b.bins.bins(f)
		if nb < 2 {
			continue
		}
		h0, h1 := b.h0[:nb], b.h1[:nb]
		clear(h0)
		clear(h1)
		col := b.xb[f]
		for _, i := range idx {
			if b.y[i] == 1 {
				h1[col[i]] += b.w[i]
			} else {
				h0[col[i]] += b.w[i]
			}
		}

		var l0, l1 float64
		for bin := 0; bin < nb-1; bin++ {
			l0 += h0[bin]
			l1 += h1[bin]
			r0, r1 := w0-l0, w1-l1
			if l0+l1 == 0 || r0+r1 == 0 {
				continue
			}
			score := purity(l0, l1) + purity(r0, r1)
			if score > best {
				best, bestF, bestBin = score, f, uint8(bin)
			}
		}
	}
	return bestF, bestBin, bestF >= 0
}
