package model

// IndicatorFrame is a PriceBar enriched with every derived indicator.
// A row only exists once all rolling windows are filled.
type IndicatorFrame struct {
	PriceBar

	MAShort    float64 `json:"ma_short"`
	MALong     float64 `json:"ma_long"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`

	BBMiddle float64 `json:"bb_middle"`
	BBUpper  float64 `json:"bb_upper"`
	BBLower  float64 `json:"bb_lower"`

	Fib236 float64 `json:"fib_236"`
	Fib382 float64 `json:"fib_382"`
	Fib500 float64 `json:"fib_500"`
	Fib618 float64 `json:"fib_618"`
}

// FibonacciLevels holds retracement levels derived from one swing.
type FibonacciLevels struct {
	SwingHigh float64 `json:"swing_high"`
	SwingLow  float64 `json:"swing_low"`
	L236      float64 `json:"l236"`
	L382      float64 `json:"l382"`
	L500      float64 `json:"l500"`
	L618      float64 `json:"l618"`
}

// Closes extracts the close column of a frame.
func Closes(frame []IndicatorFrame) []float64 {
	out := make([]float64, len(frame))
	for i, r := range frame {
		out[i] = r.Close
	}
	return out
}
