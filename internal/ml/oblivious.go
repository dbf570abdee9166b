package ml

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ObliviousBoosting fits symmetric trees to the logistic loss: every node at a
// given depth shares one (feature, threshold) test, so a tree of depth d is a
// list of d tests indexing 2^d leaves.
type ObliviousBoosting struct {
	Iterations   int
	LearningRate float64
	Depth        int
	L2LeafReg    float64
	// Subsample is the Bernoulli row sampling rate per iteration.
	Subsample float64
	Seed      int64

	trees []obliviousTree
}

type obliviousTree struct {
	features   []int
	thresholds []float64
	values     []float64
}

func (t *obliviousTree) leaf(row []float64) int {
	leaf := 0
	for d, f := range t.features {
		if row[f] > t.thresholds[d] {
			leaf |= 1 << d
		}
	}
	return leaf
}

func (m *ObliviousBoosting) Fit(ctx context.Context, X *mat.Dense, y []int) error {
	n, p := X.Dims()
	if n == 0 || n != len(y) {
		return errors.New("oblivious boosting: empty or misaligned training set")
	}
	bins := newBinner(X)
	xb := bins.transform(X)
	rng := rand.New(rand.NewSource(m.Seed))
	m.trees = m.trees[:0]

	maxLeaves := 1 << m.Depth
	var (
		F      = make([]float64, n)
		g      = make([]float64, n)
		h      = make([]float64, n)
		leafOf = make([]int, n)
		sample = make([]int, 0, n)
		hg     = make([]float64, (maxLeaves/2+1)*maxBins)
		hh     = make([]float64, (maxLeaves/2+1)*maxBins)
		leafG  = make([]float64, maxLeaves)
		leafH  = make([]float64, maxLeaves)
		cumG   = make([]float64, maxLeaves)
		cumH   = make([]float64, maxLeaves)
	)

	for it := 0; it < m.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range F {
			pr := sigmoid(F[i])
			g[i] = pr - float64(y[i])
			h[i] = math.Max(pr*(1-pr), 1e-16)
		}

		sample = sample[:0]
		for i := 0; i < n; i++ {
			if rng.Float64() < m.Subsample {
				sample = append(sample, i)
			}
		}
		if len(sample) == 0 {
			for i := 0; i < n; i++ {
				sample = append(sample, i)
			}
		}
		for _, i := range sample {
			leafOf[i] = 0
		}

		tree := obliviousTree{}
		for d := 0; d < m.Depth; d++ {
			leaves := 1 << d
			clear(leafG[:leaves])
			clear(leafH[:leaves])
			for _, i := range sample {
				leafG[leafOf[i]] += g[i]
				leafH[leafOf[i]] += h[i]
			}
			current := 0.0
			for l := 0; l < leaves; l++ {
				current += leafG[l] * leafG[l] / (leafH[l] + m.L2LeafReg)
			}

			best, bestF, bestBin := current+minGain, -1, 0
			for f := 0; f < p; f++ {
				nb := bins.bins(f)
				if nb < 2 {
					continue
				}
				clear(hg[:leaves*nb])
				clear(hh[:leaves*nb])
				col := xb[f]
				for _, i := range sample {
					k := leafOf[i]*nb + int(col[i])
					hg[k] += g[i]
					hh[k] += h[i]
				}
				clear(cumG[:leaves])
				clear(cumH[:leaves])
				for bin := 0; bin < nb-1; bin++ {
					score := 0.0
					for l := 0; l < leaves; l++ {
						cumG[l] += hg[l*nb+bin]
						cumH[l] += hh[l*nb+bin]
						GR, HR := leafG[l]-cumG[l], leafH[l]-cumH[l]
						score += cumG[l]*cumG[l]/(cumH[l]+m.L2LeafReg) + GR*GR/(HR+m.L2LeafReg)
					}
					if score > best {
						best, bestF, bestBin = score, f, bin
					}
				}
			}
			if bestF < 0 {
				break
			}

			tree.features = append(tree.features, bestF)
			tree.thresholds = append(tree.thresholds, bins.threshold(bestF, uint8(bestBin)))
			col := xb[bestF]
			for _, i := range sample {
				if int(col[i]) > bestBin {
					leafOf[i] |= 1 << d
				}
			}
		}

		leaves := 1 << len(tree.features)
		clear(leafG[:leaves])
		clear(leafH[:leaves])
		for _, i := range sample {
			leafG[leafOf[i]] += g[i]
			leafH[leafOf[i]] += h[i]
		}
		tree.values = make([]float64, leaves)
		for l := range tree.values {
			tree.values[l] = -leafG[l] / (leafH[l] + m.L2LeafReg) * m.LearningRate
		}

		for i := 0; i < n; i++ {
			F[i] += tree.values[tree.leaf(X.RawRowView(i))]
		}
		m.trees = append(m.trees, tree)
	}
	return nil
}

func (m *ObliviousBoosting) PredictProba(X *mat.Dense) []float64 {
	r, _ := X.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		row := X.RawRowView(i)
		f := 0.0
		for k := range m.trees {
			t := &m.trees[k]
			f += t.values[t.leaf(row)]
		}
		out[i] = sigmoid(f)
	}
	return out
}
