package model

// Signal is the directional classification of the latest bar.
type Signal int

const (
	Bearish Signal = -1
	Neutral Signal = 0
	Bullish Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Bullish:
		return "BULLISH"
	case Bearish:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// AdviceKind tags the variant held by Advice.
type AdviceKind string

const (
	AdviceBuy          AdviceKind = "BUY"
	AdviceSell         AdviceKind = "SELL"
	AdviceHold         AdviceKind = "HOLD"
	AdviceCloseAdvised AdviceKind = "CLOSE_ADVISED"
)

// Strength qualifies a Buy or Sell advice.
type Strength string

const (
	StrengthNone      Strength = ""
	StrengthStrong    Strength = "Strong"
	StrengthPotential Strength = "Potential"
)

// Close reasons attached to an advice.
const (
	CloseReasonBearish  = "Close Position"
	CloseReasonConsider = "Consider Close"
)

// Advice is a tagged variant: Buy(strength), Sell(strength), Hold or CloseAdvised(reason).
// A Sell on an open position also carries CloseReason.
type Advice struct {
	Kind        AdviceKind `json:"kind"`
	Strength    Strength   `json:"strength,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// RiskLevels holds the take-profit and stop-loss thresholds.
type RiskLevels struct {
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
}

// RiskAssessment is the output of the risk level calculator.
// Levels is nil when no TP/SL is emitted (neutral signal, flat position).
type RiskAssessment struct {
	Advice     Advice      `json:"advice"`
	Anchor     float64     `json:"anchor"`
	Volatility float64     `json:"volatility"`
	Levels     *RiskLevels `json:"levels,omitempty"`
}
