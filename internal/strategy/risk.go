package strategy

import "TradeSentinel/internal/model"

const (
	// directionalBand is the TP/SL distance in volatility units for Buy/Sell.
	directionalBand = 2.0
	// neutralBand is the narrower band kept around an open position on a neutral signal.
	neutralBand = 1.0

	oversoldRSI   = 30.0
	overboughtRSI = 70.0
)

// RiskInput collects everything the risk calculator needs.
type RiskInput struct {
	Anchor       float64 // blended prediction at the nearest horizon
	Volatility   float64
	Signal       model.Signal
	RSI          float64
	PositionOpen bool
}

// AssessRisk maps the signal, RSI and position state to advice and TP/SL levels.
func AssessRisk(in RiskInput) model.RiskAssessment {
	out := model.RiskAssessment{Anchor: in.Anchor, Volatility: in.Volatility}

	switch in.Signal {
	case model.Bullish:
		strength := model.StrengthPotential
		if in.RSI < oversoldRSI {
			strength = model.StrengthStrong
		}
		out.Advice = model.Advice{Kind: model.AdviceBuy, Strength: strength}
		out.Levels = band(in.Anchor, in.Volatility*directionalBand, true)

	case model.Bearish:
		strength := model.StrengthPotential
		if in.RSI > overboughtRSI {
			strength = model.StrengthStrong
		}
		out.Advice = model.Advice{Kind: model.AdviceSell, Strength: strength}
		if in.PositionOpen {
			out.Advice.CloseReason = model.CloseReasonBearish
		}
		out.Levels = band(in.Anchor, in.Volatility*directionalBand, false)

	default:
		if !in.PositionOpen {
			out.Advice = model.Advice{Kind: model.AdviceHold}
			return out
		}
		out.Advice = model.Advice{Kind: model.AdviceCloseAdvised, CloseReason: model.CloseReasonConsider}
		out.Levels = band(in.Anchor, in.Volatility*neutralBand, true)
	}
	return out
}

// band places TP above the anchor for longs and below it for shorts; SL mirrors it.
func band(anchor, width float64, long bool) *model.RiskLevels {
	if long {
		return &model.RiskLevels{TakeProfit: anchor + width, StopLoss: anchor - width}
	}
	return &model.RiskLevels{TakeProfit: anchor - width, StopLoss: anchor + width}
}
