package calculator

import (
	"errors"
	"math"

	"TradeSentinel/internal/model"
)

// Fibonacci retracement ratios.
var fibRatios = [4]float64{0.236, 0.382, 0.5, 0.618}

// SwingRange scans the most recent lookback bars and returns the highest high and lowest low.
func SwingRange(bars []model.PriceBar, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	n := len(bars)
	start := n - lookback
	if start < 0 || lookback <= 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low, nil
}

// CalculateFibonacci derives retracement levels from the swing over the last lookback bars.
func CalculateFibonacci(bars []model.PriceBar, lookback int) (model.FibonacciLevels, error) {
	high, low, err := SwingRange(bars, lookback)
	if err != nil {
		return model.FibonacciLevels{}, err
	}
	diff := high - low
	return model.FibonacciLevels{
		SwingHigh: high,
		SwingLow:  low,
		L236:      high - fibRatios[0]*diff,
		L382:      high - fibRatios[1]*diff,
		L500:      high - fibRatios[2]*diff,
		L618:      high - fibRatios[3]*diff,
	}, nil
}
