package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"

	"TradeSentinel/internal/model"
)

// BoostConfig controls the gradient-boosted regression trees.
type BoostConfig struct {
	Stages       int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int
}

// DefaultBoostConfig uses 100 stages of depth-3 trees with shrinkage 0.1.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{Stages: 100, LearningRate: 0.1, MaxDepth: 3, MinLeaf: 1}
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

// regressionTree is a CART tree over squared loss stored as a flat node slice.
type regressionTree struct {
	nodes []treeNode
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type treeBuilder struct {
	x       [][]float64
	target  []float64
	depth   int
	minLeaf int
	nodes   []treeNode
}

func (b *treeBuilder) build(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.target[i]
	}
	mean := sum / float64(len(idx))

	pos := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{leaf: true, value: mean})
	if depth >= b.depth || len(idx) < 2*b.minLeaf {
		return pos
	}

	feature, threshold, ok := b.bestSplit(idx, sum)
	if !ok {
		return pos
	}
	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[pos] = treeNode{feature: feature, threshold: threshold, left: l, right: r}
	return pos
}

// bestSplit maximizes the reduction in squared error over every feature and cut point.
func (b *treeBuilder) bestSplit(idx []int, total float64) (int, float64, bool) {
	m := len(idx)
	base := total * total / float64(m)
	bestGain := 1e-12
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, m)
	for f := range b.x[idx[0]] {
		copy(order, idx)
		sort.Slice(order, func(a, c int) bool { return b.x[order[a]][f] < b.x[order[c]][f] })

		var leftSum float64
		for k := 1; k < m; k++ {
			leftSum += b.target[order[k-1]]
			lo, hi := b.x[order[k-1]][f], b.x[order[k]][f]
			if lo == hi || k < b.minLeaf || m-k < b.minLeaf {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(m-k) - base
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (lo + hi) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// booster is an additive ensemble of shrunken regression trees on top of the target mean.
type booster struct {
	base  float64
	rate  float64
	trees []*regressionTree
}

func (g *booster) predict(x []float64) float64 {
	out := g.base
	for _, t := range g.trees {
		out += g.rate * t.predict(x)
	}
	return out
}

// fitBooster runs gradient boosting on squared loss. The context is checked between stages.
func fitBooster(ctx context.Context, cfg BoostConfig, x [][]float64, y []float64) (*booster, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows for %d targets", model.ErrModelFit, len(x), len(y))
	}
	width := len(x[0])
	var sum float64
	for i := range y {
		if len(x[i]) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", model.ErrModelFit, i, len(x[i]), width)
		}
		for _, v := range x[i] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite feature in row %d", model.ErrModelFit, i)
			}
		}
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("%w: non-finite target in row %d", model.ErrModelFit, i)
		}
		sum += y[i]
	}
	if cfg.MinLeaf < 1 {
		cfg.MinLeaf = 1
	}

	g := &booster{base: sum / float64(len(y)), rate: cfg.LearningRate}
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.base
	}
	residual := make([]float64, len(y))
	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}

	for s := 0; s < cfg.Stages; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		b := &treeBuilder{x: x, target: residual, depth: cfg.MaxDepth, minLeaf: cfg.MinLeaf}
		b.build(all, 0)
		tree := &regressionTree{nodes: b.nodes}
		g.trees = append(g.trees, tree)
		for i := range pred {
			pred[i] += g.rate * tree.predict(x[i])
		}
	}
	return g, nil
}
