package recorder

import (
	"time"

	"TradeSentinel/internal/model"
)

// SignalSnapshot is one instrument's evaluation in one refresh cycle.
type SignalSnapshot struct {
	Time       time.Time
	Symbol     string
	Signal     model.Signal
	Close      float64
	RSI        float64
	Advice     model.Advice
	Levels     *model.RiskLevels
	Prediction float64 // blended prediction at the nearest horizon
	Accuracy   float64
}

// SnapshotFromReport flattens an instrument report for storage.
func SnapshotFromReport(at time.Time, r *model.InstrumentReport) *SignalSnapshot {
	snap := &SignalSnapshot{
		Time:   at,
		Symbol: r.Symbol,
		Signal: r.Signal,
		Close:  r.Close,
		RSI:    r.RSI,
	}
	if r.Risk != nil {
		snap.Advice = r.Risk.Advice
		snap.Levels = r.Risk.Levels
	}
	if r.Forecast != nil {
		if p, ok := r.Forecast.Nearest(); ok {
			snap.Prediction = p
		}
		snap.Accuracy = r.Forecast.Accuracy
	}
	return snap
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordTrade(trade *model.Trade) error
	RecordBalance(point model.BalancePoint) error
	RecordSignal(snap *SignalSnapshot) error
	Close() error
}
