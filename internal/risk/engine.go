package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PriceHistory is a rectangular price matrix: one column per asset, one row
// per observation, oldest first. The sampling cadence of the rows defines the
// period of any VaR figure derived from it.
type PriceHistory struct {
	Symbols []string
	Prices  [][]float64
}

// Validate checks the matrix is rectangular, positive and long enough to
// produce at least two return observations.
func (h PriceHistory) Validate() error {
	n := len(h.Symbols)
	if n == 0 {
		return fmt.Errorf("price history has no assets")
	}
	if len(h.Prices) < 3 {
		return fmt.Errorf("price history too short: %d rows, need at least 3", len(h.Prices))
	}
	for i, row := range h.Prices {
		if len(row) != n {
			return fmt.Errorf("price row %d has %d columns, want %d", i, len(row), n)
		}
		for j, p := range row {
			if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("invalid price %.4f for %s at row %d", p, h.Symbols[j], i)
			}
		}
	}
	return nil
}

// returnsMatrix computes simple per-period returns, one row per consecutive
// price pair. Returns are raw percentage changes; nothing is annualized.
func returnsMatrix(h PriceHistory) *mat.Dense {
	rows := len(h.Prices) - 1
	cols := len(h.Symbols)
	ret := mat.NewDense(rows, cols, nil)
	for t := 0; t < rows; t++ {
		for j := 0; j < cols; j++ {
			ret.Set(t, j, h.Prices[t+1][j]/h.Prices[t][j]-1)
		}
	}
	return ret
}

// VaR computes one-period parametric Value-at-Risk for a portfolio using the
// variance-covariance method. weights maps symbol to portfolio share; symbols
// absent from the map count as zero. The returned fraction is clamped at 0:
// a negative raw VaR means the portfolio is expected to profit, which is not
// treated as risk. The figure is "per period of the input sampling
// frequency" — callers choose the cadence by choosing the history.
func VaR(portfolioValue float64, weights map[string]float64, hist PriceHistory, confidence float64) (amount, fraction float64, err error) {
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, fmt.Errorf("confidence %.4f outside (0,1)", confidence)
	}
	if err := hist.Validate(); err != nil {
		return 0, 0, err
	}

	ret := returnsMatrix(hist)
	n := len(hist.Symbols)

	w := make([]float64, n)
	for j, sym := range hist.Symbols {
		w[j] = weights[sym]
	}

	means := make([]float64, n)
	for j := 0; j < n; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, ret), nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, ret, nil)

	wv := mat.NewVecDense(n, w)
	portMean := mat.Dot(wv, mat.NewVecDense(n, means))

	var cw mat.VecDense
	cw.MulVec(&cov, wv)
	portVariance := mat.Dot(wv, &cw)
	if portVariance < 0 {
		// covariance round-off can leave a tiny negative quadratic form
		portVariance = 0
	}
	portStd := math.Sqrt(portVariance)

	if math.IsNaN(portMean) || math.IsNaN(portStd) {
		return 0, 0, fmt.Errorf("degenerate return series: portfolio moments are NaN")
	}

	z := distuv.UnitNormal.Quantile(confidence)

	fraction = -(portMean - z*portStd)
	if fraction < 0 {
		fraction = 0
	}
	amount = portfolioValue * fraction
	return amount, fraction, nil
}
