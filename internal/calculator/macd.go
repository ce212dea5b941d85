package calculator

import "math"

// EMASeries computes an exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if span <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACDSeries returns the MACD line (EMA fast - EMA slow) and its signal line.
func MACDSeries(closes []float64, fast, slow, signal int) (macd, signalLine []float64) {
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMASeries(macd, signal)
	return macd, signalLine
}
