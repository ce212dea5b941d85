package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BollingerSeries returns the middle, upper and lower bands: a window-bar SMA
// plus and minus k sample standard deviations.
func BollingerSeries(closes []float64, window int, k float64) (middle, upper, lower []float64) {
	middle = SMASeries(closes, window)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		if window < 2 || i < window-1 {
			upper[i], lower[i] = math.NaN(), math.NaN()
			continue
		}
		sd := stat.StdDev(closes[i-window+1:i+1], nil)
		upper[i] = middle[i] + k*sd
		lower[i] = middle[i] - k*sd
	}
	return middle, upper, lower
}

// Volatility is the sample standard deviation of the last min(lookback, n) closes.
// It is 1 when at most one close is available.
func Volatility(closes []float64, lookback int) float64 {
	n := lookback
	if n > len(closes) {
		n = len(closes)
	}
	if n <= 1 {
		return 1
	}
	return stat.StdDev(closes[len(closes)-n:], nil)
}
