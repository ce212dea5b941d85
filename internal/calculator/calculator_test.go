package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeSentinel/internal/model"
)

var t0 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func hourlyBars(n int, price func(i int) float64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := 0; i < n; i++ {
		p := price(i)
		bars[i] = model.PriceBar{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  p,
			High:  p + 1,
			Low:   p - 1,
			Close: p,
		}
	}
	return bars
}

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-9)

	_, err = CalculateSMA([]float64{1, 2}, 5)
	assert.Error(t, err)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestSMASeries_LeadingNaN(t *testing.T) {
	s := SMASeries([]float64{2, 4, 6, 8}, 3)
	assert.True(t, math.IsNaN(s[0]))
	assert.True(t, math.IsNaN(s[1]))
	assert.InDelta(t, 4.0, s[2], 1e-9)
	assert.InDelta(t, 6.0, s[3], 1e-9)
}

func TestRSISeries_RisingSeriesIs100(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSISeries(closes, 14)
	assert.True(t, math.IsNaN(rsi[0]))
	for i := 1; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i])
	}
}

func TestRSISeries_Bounds(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	for i, v := range RSISeries(closes, 14)[1:] {
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i+1)
		assert.LessOrEqual(t, v, 100.0, "index %d", i+1)
	}
}

func TestRSISeries_FallingSeriesIsZero(t *testing.T) {
	closes := []float64{10, 9, 8, 7, 6}
	rsi := RSISeries(closes, 14)
	assert.InDelta(t, 0.0, rsi[4], 1e-9)
}

func TestRSISeries_FlatIsNeutral(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	rsi := RSISeries(closes, 14)
	assert.Equal(t, 50.0, rsi[9])
	assert.Equal(t, 50.0, CalculateRSI(closes, 14))
}

func TestRSISeries_WilderSmoothing(t *testing.T) {
	// changes: +2, -1 ; alpha = 0.5 with period 2
	rsi := RSISeries([]float64{10, 12, 11}, 2)
	// avgGain: 2 -> 0.5*0 + 0.5*2 = 1 ; avgLoss: 0 -> 0.5*1 + 0.5*0 = 0.5
	assert.InDelta(t, 100-100/(1+2.0), rsi[2], 1e-9)
}

func TestEMASeries_SeededWithFirstValue(t *testing.T) {
	ema := EMASeries([]float64{10, 20}, 3) // alpha 0.5
	assert.Equal(t, 10.0, ema[0])
	assert.InDelta(t, 15.0, ema[1], 1e-9)
}

func TestMACDSeries_ConstantIsZero(t *testing.T) {
	closes := []float64{5, 5, 5, 5, 5, 5}
	macd, sig := MACDSeries(closes, 12, 26, 9)
	for i := range closes {
		assert.InDelta(t, 0.0, macd[i], 1e-12)
		assert.InDelta(t, 0.0, sig[i], 1e-12)
	}
}

func TestBollingerSeries(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	mid, up, lo := BollingerSeries(closes, 5, 2)
	assert.True(t, math.IsNaN(up[3]))
	assert.InDelta(t, 3.0, mid[4], 1e-9)
	sd := math.Sqrt(2.5) // sample stddev of 1..5
	assert.InDelta(t, 3+2*sd, up[4], 1e-9)
	assert.InDelta(t, 3-2*sd, lo[4], 1e-9)
}

func TestVolatility(t *testing.T) {
	assert.Equal(t, 1.0, Volatility(nil, 48))
	assert.Equal(t, 1.0, Volatility([]float64{42}, 48))
	assert.InDelta(t, math.Sqrt(2.5), Volatility([]float64{100, 1, 2, 3, 4, 5}, 5), 1e-9)
	assert.Equal(t, 0.0, Volatility([]float64{7, 7, 7}, 48))
}

func TestCalculateFibonacci(t *testing.T) {
	bars := hourlyBars(150, func(i int) float64 { return float64(i) })
	fib, err := CalculateFibonacci(bars, 100)
	require.NoError(t, err)
	// trailing 100 bars: closes 50..149, highs 51..150, lows 49..148
	assert.Equal(t, 150.0, fib.SwingHigh)
	assert.Equal(t, 49.0, fib.SwingLow)
	assert.InDelta(t, 150-0.5*101, fib.L500, 1e-9)
	assert.InDelta(t, 150-0.236*101, fib.L236, 1e-9)
	assert.InDelta(t, 150-0.618*101, fib.L618, 1e-9)

	_, err = CalculateFibonacci(nil, 100)
	assert.Error(t, err)
}

func TestBuildFrame_DropsIncompleteRows(t *testing.T) {
	bars := hourlyBars(60, func(i int) float64 { return 100 + float64(i%5) })
	frame := BuildFrame(bars)
	// long MA and Bollinger need 20 bars, so the first 19 rows are dropped.
	require.Len(t, frame, 41)
	assert.Equal(t, bars[19].Time, frame[0].Time)
	for _, r := range frame {
		assert.False(t, math.IsNaN(r.MALong))
		assert.False(t, math.IsNaN(r.BBUpper))
		assert.Equal(t, frame[0].Fib500, r.Fib500)
	}
}

func TestBuildFrame_ShortInputNeverFails(t *testing.T) {
	assert.Empty(t, BuildFrame(nil))
	assert.Empty(t, BuildFrame(hourlyBars(10, func(int) float64 { return 100 })))
	assert.Len(t, BuildFrame(hourlyBars(20, func(int) float64 { return 100 })), 1)
}

func TestBuildFrame_FlatPrices(t *testing.T) {
	frame := BuildFrame(hourlyBars(30, func(int) float64 { return 100 }))
	require.NotEmpty(t, frame)
	last := frame[len(frame)-1]
	assert.Equal(t, last.MAShort, last.MALong)
	assert.Equal(t, 50.0, last.RSI)
	assert.Equal(t, 100.0, last.BBUpper)
}
