package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"TradeSentinel/internal/model"
)

const (
	lagCount = 6
	// MinTreeRows is the frame length below which the tree model is skipped.
	MinTreeRows = 100
	// MinTrainingRows is the usable training set below which the tree model is skipped.
	MinTrainingRows = 50
)

// featureVector is the immutable input of one next-hour prediction.
// At is the hour being predicted; Lags[0] is the most recent close.
type featureVector struct {
	At   time.Time
	Lags [lagCount]float64

	RSI        float64
	MACD       float64
	MACDSignal float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	Fib236     float64
	Fib382     float64
	Fib500     float64
	Fib618     float64

	CloseToMiddle float64
	CloseToFib500 float64
}

func vectorAt(frame []model.IndicatorFrame, i int, at time.Time) featureVector {
	row := frame[i]
	v := featureVector{
		At:            at,
		RSI:           row.RSI,
		MACD:          row.MACD,
		MACDSignal:    row.MACDSignal,
		BBUpper:       row.BBUpper,
		BBMiddle:      row.BBMiddle,
		BBLower:       row.BBLower,
		Fib236:        row.Fib236,
		Fib382:        row.Fib382,
		Fib500:        row.Fib500,
		Fib618:        row.Fib618,
		CloseToMiddle: row.Close - row.BBMiddle,
		CloseToFib500: row.Close - row.Fib500,
	}
	for k := 0; k < lagCount; k++ {
		v.Lags[k] = frame[i-k].Close
	}
	return v
}

func (v featureVector) values() []float64 {
	hour := float64(v.At.Hour())
	dow := float64(v.At.Weekday())
	out := []float64{
		math.Sin(2 * math.Pi * hour / 24),
		math.Cos(2 * math.Pi * hour / 24),
		math.Sin(2 * math.Pi * dow / 7),
		math.Cos(2 * math.Pi * dow / 7),
	}
	out = append(out, v.Lags[:]...)
	return append(out,
		v.RSI, v.MACD, v.MACDSignal,
		v.BBUpper, v.BBMiddle, v.BBLower,
		v.Fib236, v.Fib382, v.Fib500, v.Fib618,
		v.CloseToMiddle, v.CloseToFib500,
	)
}

// next returns the vector for the hour after v, given the prediction made from v.
func (v featureVector) next(prediction float64) featureVector {
	out := v
	copy(out.Lags[1:], v.Lags[:lagCount-1])
	out.Lags[0] = prediction
	out.At = v.At.Add(time.Hour)
	return out
}

// trainingSet pairs each row that has a full lag window with the following close.
// The returned seed is the vector for the hour after the last row.
func trainingSet(frame []model.IndicatorFrame) (x [][]float64, y []float64, seed featureVector) {
	n := len(frame)
	for i := lagCount - 1; i < n-1; i++ {
		x = append(x, vectorAt(frame, i, frame[i+1].Time).values())
		y = append(y, frame[i+1].Close)
	}
	if n >= lagCount {
		seed = vectorAt(frame, n-1, frame[n-1].Time.Add(time.Hour))
	}
	return x, y, seed
}

// rollforward folds next over steps predictions starting at seed.
func rollforward(g *booster, seed featureVector, steps int) []float64 {
	out := make([]float64, 0, steps)
	v := seed
	for s := 0; s < steps; s++ {
		p := g.predict(v.values())
		out = append(out, p)
		v = v.next(p)
	}
	return out
}

type treeOutcome struct {
	predictions map[int]float64
	err         error
}

// treeForecast retrains the booster on frame and rolls it forward to the longest horizon.
func treeForecast(ctx context.Context, cfg BoostConfig, frame []model.IndicatorFrame, horizons []int) treeOutcome {
	n := len(frame)
	var last float64
	if n > 0 {
		last = frame[n-1].Close
	}
	if n < MinTreeRows {
		return treeOutcome{
			predictions: model.FlatPredictions(horizons, last),
			err:         fmt.Errorf("%w: %d rows, need %d", model.ErrInsufficientHistory, n, MinTreeRows),
		}
	}
	x, y, seed := trainingSet(frame)
	if len(y) < MinTrainingRows {
		return treeOutcome{
			predictions: model.FlatPredictions(horizons, last),
			err:         fmt.Errorf("%w: %d training rows, need %d", model.ErrInsufficientHistory, len(y), MinTrainingRows),
		}
	}
	g, err := fitBooster(ctx, cfg, x, y)
	if err != nil {
		return treeOutcome{predictions: model.FlatPredictions(horizons, last), err: err}
	}

	steps := 0
	for _, h := range horizons {
		if h > steps {
			steps = h
		}
	}
	path := rollforward(g, seed, steps)
	preds := make(map[int]float64, len(horizons))
	for _, h := range horizons {
		if h < 1 {
			preds[h] = last
			continue
		}
		preds[h] = path[h-1]
	}
	return treeOutcome{predictions: preds}
}
