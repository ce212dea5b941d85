package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"TradeSentinel/internal/model"
)

const (
	dailyPeriodHours  = 24.0
	weeklyPeriodHours = 168.0
)

// SeasonalConfig controls the additive trend + seasonality model.
type SeasonalConfig struct {
	DailyOrder  int     // Fourier pairs for the 24h cycle
	WeeklyOrder int     // Fourier pairs for the 168h cycle
	Ridge       float64 // L2 penalty on every non-intercept coefficient
}

// DefaultSeasonalConfig mirrors the usual daily/weekly Fourier orders.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{DailyOrder: 4, WeeklyOrder: 3, Ridge: 1.0}
}

// seasonalFit is a fitted linear trend with daily and weekly Fourier terms.
// There is no yearly component: intraday history never spans a year.
type seasonalFit struct {
	cfg    SeasonalConfig
	origin float64 // hours since epoch of the first training point
	span   float64 // hours covered by the training data, >= 1
	yMean  float64
	yScale float64
	beta   []float64
}

func hoursOf(t time.Time) float64 {
	return float64(t.Unix()) / 3600.0
}

func (f *seasonalFit) design(t time.Time, row []float64) {
	h := hoursOf(t)
	row[0] = 1
	row[1] = (h - f.origin) / f.span
	j := 2
	for k := 1; k <= f.cfg.DailyOrder; k++ {
		x := 2 * math.Pi * float64(k) * h / dailyPeriodHours
		row[j], row[j+1] = math.Sin(x), math.Cos(x)
		j += 2
	}
	for k := 1; k <= f.cfg.WeeklyOrder; k++ {
		x := 2 * math.Pi * float64(k) * h / weeklyPeriodHours
		row[j], row[j+1] = math.Sin(x), math.Cos(x)
		j += 2
	}
}

func (f *seasonalFit) width() int {
	return 2 + 2*f.cfg.DailyOrder + 2*f.cfg.WeeklyOrder
}

// fitSeasonal solves the ridge-regularized normal equations on standardized closes.
func fitSeasonal(cfg SeasonalConfig, times []time.Time, y []float64) (*seasonalFit, error) {
	n := len(y)
	if n == 0 || len(times) != n {
		return nil, fmt.Errorf("%w: %d times for %d values", model.ErrModelFit, len(times), n)
	}
	mean, sd := stat.MeanStdDev(y, nil)
	if math.IsNaN(sd) || sd == 0 {
		sd = 1
	}
	f := &seasonalFit{
		cfg:    cfg,
		origin: hoursOf(times[0]),
		span:   math.Max(1, hoursOf(times[n-1])-hoursOf(times[0])),
		yMean:  mean,
		yScale: sd,
	}

	p := f.width()
	x := mat.NewDense(n, p, nil)
	ys := make([]float64, n)
	row := make([]float64, p)
	for i := range y {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			return nil, fmt.Errorf("%w: non-finite close at %d", model.ErrModelFit, i)
		}
		f.design(times[i], row)
		x.SetRow(i, row)
		ys[i] = (y[i] - mean) / sd
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 1; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+cfg.Ridge)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, ys))

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: %v", model.ErrModelFit, err)
		}
	}
	f.beta = make([]float64, p)
	for j := 0; j < p; j++ {
		v := beta.AtVec(j)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", model.ErrModelFit)
		}
		f.beta[j] = v
	}
	return f, nil
}

func (f *seasonalFit) predict(t time.Time) float64 {
	row := make([]float64, f.width())
	f.design(t, row)
	var z float64
	for j, b := range f.beta {
		z += b * row[j]
	}
	return f.yMean + f.yScale*z
}

// statOutcome is the statistical estimator result.
type statOutcome struct {
	predictions map[int]float64
	accuracy    float64
	backtested  bool
	err         error
}

// statisticalForecast backtests on the last testHours closes, refits on the full
// series and reads predictions at last + h hours from an hourly grid of spanHours.
// A horizon missing from the grid takes the latest grid point.
func statisticalForecast(cfg SeasonalConfig, times []time.Time, closes []float64, horizons []int, testHours, spanHours int) statOutcome {
	n := len(closes)
	if n == 0 {
		return statOutcome{predictions: model.FlatPredictions(horizons, 0), err: model.ErrInsufficientHistory}
	}
	last := closes[n-1]
	if n < testHours+24 {
		return statOutcome{
			predictions: model.FlatPredictions(horizons, last),
			err:         fmt.Errorf("%w: %d bars, need %d", model.ErrInsufficientHistory, n, testHours+24),
		}
	}

	split := n - testHours
	train, err := fitSeasonal(cfg, times[:split], closes[:split])
	if err != nil {
		return statOutcome{predictions: model.FlatPredictions(horizons, last), err: err}
	}
	accuracy := math.Max(0, 100-mape(closes[split:], predictAt(train, times[split:])))

	full, err := fitSeasonal(cfg, times, closes)
	if err != nil {
		return statOutcome{predictions: model.FlatPredictions(horizons, last), err: err}
	}

	if spanHours <= 0 {
		spanHours = 48
	}
	lastTime := times[n-1]
	grid := make(map[int64]float64, spanHours)
	var latest float64
	for k := 1; k <= spanHours; k++ {
		ts := lastTime.Add(time.Duration(k) * time.Hour)
		latest = full.predict(ts)
		grid[ts.Unix()] = latest
	}

	preds := make(map[int]float64, len(horizons))
	for _, h := range horizons {
		target := lastTime.Add(time.Duration(h) * time.Hour)
		if v, ok := grid[target.Unix()]; ok {
			preds[h] = v
		} else {
			preds[h] = latest
		}
	}
	return statOutcome{predictions: preds, accuracy: accuracy, backtested: true}
}

func predictAt(f *seasonalFit, times []time.Time) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = f.predict(t)
	}
	return out
}

// mape is the mean absolute percentage error in percent. Zero actuals are skipped.
func mape(actual, predicted []float64) float64 {
	var sum float64
	var count int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs(actual[i]-predicted[i]) / math.Abs(actual[i])
		count++
	}
	if count == 0 {
		return 100
	}
	return sum / float64(count) * 100
}
