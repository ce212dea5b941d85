package model

import "time"

// InstrumentReport is the per-instrument outcome of a refresh cycle.
type InstrumentReport struct {
	Symbol     string           `json:"symbol"`
	Signal     Signal           `json:"signal"`
	Close      float64          `json:"close"`
	RSI        float64          `json:"rsi"`
	BarTime    time.Time        `json:"bar_time"`
	Transition *Transition      `json:"transition,omitempty"`
	Forecast   *ForecastResult  `json:"forecast,omitempty"`
	Risk       *RiskAssessment  `json:"risk,omitempty"`
	Frame      []IndicatorFrame `json:"-"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// CycleReport is the read-only output handed to the presentation layer.
type CycleReport struct {
	At          time.Time          `json:"at"`
	Account     Account            `json:"account"`
	Summary     AccountSummary     `json:"summary"`
	Positions   []PositionView     `json:"positions"`
	Instruments []InstrumentReport `json:"instruments"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// Instrument looks up the report of one symbol.
func (r *CycleReport) Instrument(symbol string) (*InstrumentReport, bool) {
	for i := range r.Instruments {
		if r.Instruments[i].Symbol == symbol {
			return &r.Instruments[i], true
		}
	}
	return nil, false
}
