package calculator

import "math"

// RSISeries computes the Wilder-smoothed RSI for every position of closes.
// Average gain and loss are exponentially smoothed with alpha = 1/period, seeded
// with the first price change. Position 0 has no change and is NaN.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}
	out[0] = math.NaN()
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// rsiValue maps smoothed averages to RSI. A zero average loss is 100,
// unless nothing moved at all, which reads as neutral 50.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// CalculateRSI returns the latest RSI of closes. Returns 50.0 if data is insufficient.
func CalculateRSI(closes []float64, period int) float64 {
	if len(closes) < 2 {
		return 50.0
	}
	series := RSISeries(closes, period)
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return 50.0
	}
	return v
}
