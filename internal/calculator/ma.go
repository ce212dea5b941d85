package calculator

import (
	"errors"
	"math"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"TradeSentinel/internal/model"
)

// valueIndicator exposes a plain float series as a techan.Indicator.
type valueIndicator []float64

func (v valueIndicator) Calculate(index int) big.Decimal {
	return big.NewDecimal(v[index])
}

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sma := techan.NewSimpleMovingAverage(valueIndicator(prices), period)
	return sma.Calculate(len(prices) - 1).Float(), nil
}

// SMASeries returns the rolling simple moving average aligned with values.
// Positions before the window is filled are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sma := techan.NewSimpleMovingAverage(valueIndicator(values), period)
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sma.Calculate(i).Float()
	}
	return out
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
