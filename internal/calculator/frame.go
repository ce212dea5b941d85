package calculator

import (
	"math"

	"TradeSentinel/internal/model"
)

// Params holds the indicator windows.
type Params struct {
	ShortMA     int
	LongMA      int
	RSIPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	BBWindow    int
	BBK         float64
	FibLookback int
}

// DefaultParams returns the standard hourly configuration.
func DefaultParams() Params {
	return Params{
		ShortMA:     5,
		LongMA:      20,
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		BBWindow:    20,
		BBK:         2,
		FibLookback: 100,
	}
}

// BuildFrame computes every indicator with DefaultParams.
func BuildFrame(bars []model.PriceBar) []model.IndicatorFrame {
	return BuildFrameWith(bars, DefaultParams())
}

// BuildFrameWith computes indicators over hourly bars and drops every row that
// lacks full window coverage. Short input yields fewer (possibly zero) rows.
func BuildFrameWith(bars []model.PriceBar, p Params) []model.IndicatorFrame {
	if len(bars) == 0 {
		return nil
	}
	closes := extractCloses(bars)

	maShort := SMASeries(closes, p.ShortMA)
	maLong := SMASeries(closes, p.LongMA)
	rsi := RSISeries(closes, p.RSIPeriod)
	macd, macdSignal := MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	bbMid, bbUp, bbLo := BollingerSeries(closes, p.BBWindow, p.BBK)

	// Levels are constant across the frame.
	fib, err := CalculateFibonacci(bars, p.FibLookback)
	if err != nil {
		return nil
	}

	frame := make([]model.IndicatorFrame, 0, len(bars))
	for i, b := range bars {
		row := model.IndicatorFrame{
			PriceBar:   b,
			MAShort:    maShort[i],
			MALong:     maLong[i],
			RSI:        rsi[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			BBMiddle:   bbMid[i],
			BBUpper:    bbUp[i],
			BBLower:    bbLo[i],
			Fib236:     fib.L236,
			Fib382:     fib.L382,
			Fib500:     fib.L500,
			Fib618:     fib.L618,
		}
		if !complete(&row) {
			continue
		}
		frame = append(frame, row)
	}
	return frame
}

func complete(r *model.IndicatorFrame) bool {
	for _, v := range [...]float64{
		r.Close, r.MAShort, r.MALong, r.RSI, r.MACD, r.MACDSignal,
		r.BBMiddle, r.BBUpper, r.BBLower, r.Fib236, r.Fib382, r.Fib500, r.Fib618,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
