package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// HRPWeights allocates portfolio weights by hierarchical risk parity:
// correlation distances between assets are clustered bottom-up, the assets
// are reordered along the hierarchy, and capital is split by recursive
// bisection with inverse-variance allocation at each split. HRP avoids the
// unstable matrix inversion of mean-variance optimization and tolerates
// noisy correlation estimates.
//
// On any computation failure (too little history, zero-variance columns,
// non-finite moments) it degrades to equal weighting across all assets
// rather than failing the caller.
func HRPWeights(hist PriceHistory) map[string]float64 {
	n := len(hist.Symbols)
	if n == 0 {
		return map[string]float64{}
	}
	if n == 1 {
		return map[string]float64{hist.Symbols[0]: 1.0}
	}
	if err := hist.Validate(); err != nil {
		return equalWeights(hist.Symbols)
	}

	ret := returnsMatrix(hist)

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, ret, nil)
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, ret, nil)

	// Zero-variance assets produce NaN correlations; there is no meaningful
	// hierarchy to build then.
	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			c := corr.At(i, j)
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return equalWeights(hist.Symbols)
			}
			d := math.Sqrt(0.5 * (1 - c))
			if math.IsNaN(d) {
				d = 0
			}
			dist[i][j] = d
		}
	}

	order := seriate(dist)
	weights := bisect(&cov, order)

	out := make(map[string]float64, n)
	sum := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return equalWeights(hist.Symbols)
		}
		out[hist.Symbols[i]] = w
		sum += w
	}
	if sum <= 0 {
		return equalWeights(hist.Symbols)
	}
	// normalize away bisection round-off
	for sym := range out {
		out[sym] /= sum
	}
	return out
}

func equalWeights(symbols []string) map[string]float64 {
	w := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		w[sym] = 1.0 / float64(len(symbols))
	}
	return w
}

// seriate orders assets along a single-linkage hierarchy so that correlated
// assets end up adjacent (the quasi-diagonalization step of HRP).
func seriate(dist [][]float64) []int {
	n := len(dist)
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	// cluster-to-cluster distances, single linkage
	cd := make([][]float64, n)
	for i := range cd {
		cd[i] = append([]float64(nil), dist[i]...)
	}

	for len(clusters) > 1 {
		bestA, bestB := 0, 1
		best := math.Inf(1)
		for a := 0; a < len(clusters); a++ {
			for b := a + 1; b < len(clusters); b++ {
				if cd[a][b] < best {
					best = cd[a][b]
					bestA, bestB = a, b
				}
			}
		}

		merged := append(append([]int{}, clusters[bestA]...), clusters[bestB]...)

		// distances from the merged cluster to the rest
		next := make([]float64, 0, len(clusters)-1)
		for k := 0; k < len(clusters); k++ {
			if k == bestA || k == bestB {
				continue
			}
			next = append(next, math.Min(cd[bestA][k], cd[bestB][k]))
		}

		// rebuild cluster list and distance matrix without a and b
		rest := make([][]int, 0, len(clusters)-1)
		restIdx := make([]int, 0, len(clusters)-1)
		for k := 0; k < len(clusters); k++ {
			if k == bestA || k == bestB {
				continue
			}
			rest = append(rest, clusters[k])
			restIdx = append(restIdx, k)
		}

		newN := len(rest) + 1
		ncd := make([][]float64, newN)
		for i := range ncd {
			ncd[i] = make([]float64, newN)
		}
		for i := 0; i < len(rest); i++ {
			for j := 0; j < len(rest); j++ {
				ncd[i][j] = cd[restIdx[i]][restIdx[j]]
			}
		}
		for i := 0; i < len(rest); i++ {
			ncd[i][newN-1] = next[i]
			ncd[newN-1][i] = next[i]
		}

		clusters = append(rest, merged)
		cd = ncd
	}

	return clusters[0]
}

// bisect walks the seriated order top-down, splitting each segment in half
// and tilting capital toward the half with the lower inverse-variance
// cluster risk.
func bisect(cov *mat.SymDense, order []int) []float64 {
	weights := make([]float64, cov.SymmetricDim())
	for _, i := range order {
		weights[i] = 1.0
	}

	segments := [][]int{order}
	for len(segments) > 0 {
		var next [][]int
		for _, seg := range segments {
			if len(seg) < 2 {
				continue
			}
			mid := len(seg) / 2
			left, right := seg[:mid], seg[mid:]

			vLeft := clusterVariance(cov, left)
			vRight := clusterVariance(cov, right)

			alpha := 0.5
			if vLeft+vRight > 0 {
				alpha = 1 - vLeft/(vLeft+vRight)
			}

			for _, i := range left {
				weights[i] *= alpha
			}
			for _, i := range right {
				weights[i] *= 1 - alpha
			}

			next = append(next, left, right)
		}
		segments = next
	}

	return weights
}

// clusterVariance is the portfolio variance of a sub-cluster under
// inverse-variance weighting of its members.
func clusterVariance(cov *mat.SymDense, idx []int) float64 {
	ivp := make([]float64, len(idx))
	sum := 0.0
	for k, i := range idx {
		v := cov.At(i, i)
		if v <= 0 {
			return math.NaN()
		}
		ivp[k] = 1 / v
		sum += ivp[k]
	}
	for k := range ivp {
		ivp[k] /= sum
	}

	variance := 0.0
	for a, i := range idx {
		for b, j := range idx {
			variance += ivp[a] * ivp[b] * cov.At(i, j)
		}
	}
	return variance
}
