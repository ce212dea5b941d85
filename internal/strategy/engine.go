package strategy

import "TradeSentinel/internal/model"

// Classify derives the signal from the MA crossover state of a single row.
func Classify(row model.IndicatorFrame) model.Signal {
	switch {
	case row.MAShort > row.MALong:
		return model.Bullish
	case row.MAShort < row.MALong:
		return model.Bearish
	default:
		return model.Neutral
	}
}

// Latest classifies the most recent row of a frame. An empty frame is Neutral.
func Latest(frame []model.IndicatorFrame) (model.Signal, *model.IndicatorFrame) {
	if len(frame) == 0 {
		return model.Neutral, nil
	}
	last := frame[len(frame)-1]
	return Classify(last), &last
}
