package model

import "sort"

// ForecastResult maps horizon (hours ahead) to the blended predicted price.
type ForecastResult struct {
	Predictions map[int]float64 `json:"predictions"`
	Statistical map[int]float64 `json:"statistical"`
	Tree        map[int]float64 `json:"tree"`
	Accuracy    float64         `json:"accuracy"`
	HasAccuracy bool            `json:"has_accuracy"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// Horizons returns the forecast horizons in ascending order.
func (f *ForecastResult) Horizons() []int {
	hs := make([]int, 0, len(f.Predictions))
	for h := range f.Predictions {
		hs = append(hs, h)
	}
	sort.Ints(hs)
	return hs
}

// Nearest returns the prediction at the shortest horizon.
func (f *ForecastResult) Nearest() (float64, bool) {
	hs := f.Horizons()
	if len(hs) == 0 {
		return 0, false
	}
	return f.Predictions[hs[0]], true
}

// FlatPredictions returns a horizon map with the same price everywhere.
func FlatPredictions(horizons []int, price float64) map[int]float64 {
	out := make(map[int]float64, len(horizons))
	for _, h := range horizons {
		out[h] = price
	}
	return out
}
