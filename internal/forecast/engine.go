package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeSentinel/internal/model"
)

var (
	// HorizonsA is the 12/24/48 hour horizon set.
	HorizonsA = []int{12, 24, 48}
	// HorizonsB is the 8/16/24 hour horizon set.
	HorizonsB = []int{8, 16, 24}
)

// Config for the forecast engine.
type Config struct {
	Horizons  []int
	TestHours int
	SpanHours int
	Timeout   time.Duration
	Seasonal  SeasonalConfig
	Boost     BoostConfig
}

// DefaultConfig returns horizon set A with a 24h backtest and a 48h span.
func DefaultConfig() Config {
	return Config{
		Horizons:  HorizonsA,
		TestHours: 24,
		SpanHours: 48,
		Timeout:   2 * time.Minute,
		Seasonal:  DefaultSeasonalConfig(),
		Boost:     DefaultBoostConfig(),
	}
}

// Engine runs the statistical and tree estimators and blends their predictions.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

func NewEngine(cfg Config) *Engine {
	if len(cfg.Horizons) == 0 {
		cfg.Horizons = HorizonsA
	}
	if cfg.TestHours <= 0 {
		cfg.TestHours = 24
	}
	if cfg.SpanHours <= 0 {
		cfg.SpanHours = 48
	}
	if cfg.Boost.Stages <= 0 {
		cfg.Boost = DefaultBoostConfig()
	}
	if cfg.Seasonal.DailyOrder <= 0 && cfg.Seasonal.WeeklyOrder <= 0 {
		cfg.Seasonal = DefaultSeasonalConfig()
	}
	return &Engine{
		cfg:    cfg,
		logger: log.With().Str("component", "forecast").Logger(),
	}
}

// Horizons returns the configured horizons.
func (e *Engine) Horizons() []int {
	return append([]int(nil), e.cfg.Horizons...)
}

type outcome struct {
	stat statOutcome
	tree treeOutcome
}

// Forecast never fails: every degraded path falls back to the last close and
// records a warning on the result.
func (e *Engine) Forecast(ctx context.Context, frame []model.IndicatorFrame) model.ForecastResult {
	horizons := e.cfg.Horizons
	if len(frame) == 0 {
		return model.ForecastResult{
			Predictions: map[int]float64{},
			Statistical: map[int]float64{},
			Tree:        map[int]float64{},
			Warnings:    []string{"forecast unavailable: empty frame"},
		}
	}
	last := frame[len(frame)-1].Close
	if err := ctx.Err(); err != nil {
		return unavailable(horizons, last, err)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		done <- e.run(ctx, frame)
	}()

	select {
	case out := <-done:
		return e.combine(out, last)
	case <-ctx.Done():
		e.logger.Warn().Err(ctx.Err()).Msg("forecast abandoned")
		return unavailable(horizons, last, ctx.Err())
	}
}

func unavailable(horizons []int, last float64, err error) model.ForecastResult {
	return model.ForecastResult{
		Predictions: model.FlatPredictions(horizons, last),
		Statistical: model.FlatPredictions(horizons, last),
		Tree:        model.FlatPredictions(horizons, last),
		Warnings:    []string{fmt.Sprintf("forecast unavailable: %v", err)},
	}
}

func (e *Engine) run(ctx context.Context, frame []model.IndicatorFrame) outcome {
	times := make([]time.Time, len(frame))
	closes := make([]float64, len(frame))
	for i, row := range frame {
		times[i] = row.Time
		closes[i] = row.Close
	}
	stat := statisticalForecast(e.cfg.Seasonal, times, closes, e.cfg.Horizons, e.cfg.TestHours, e.cfg.SpanHours)
	if err := ctx.Err(); err != nil {
		return outcome{stat: stat, tree: treeOutcome{predictions: model.FlatPredictions(e.cfg.Horizons, closes[len(closes)-1]), err: err}}
	}
	return outcome{stat: stat, tree: treeForecast(ctx, e.cfg.Boost, frame, e.cfg.Horizons)}
}

func (e *Engine) combine(out outcome, last float64) model.ForecastResult {
	res := model.ForecastResult{
		Statistical: out.stat.predictions,
		Tree:        out.tree.predictions,
		Predictions: Blend(e.cfg.Horizons, last, out.stat.predictions, out.tree.predictions),
	}
	if out.stat.backtested {
		res.Accuracy = out.stat.accuracy
		res.HasAccuracy = true
	}
	if out.stat.err != nil {
		res.Warnings = append(res.Warnings, describe("statistical", out.stat.err))
		e.logger.Debug().Err(out.stat.err).Msg("statistical model fell back to last close")
	}
	if out.tree.err != nil {
		res.Warnings = append(res.Warnings, describe("tree", out.tree.err))
		e.logger.Debug().Err(out.tree.err).Msg("tree model fell back to last close")
	}
	return res
}

func describe(estimator string, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s forecast unavailable: %v", estimator, err)
	default:
		return fmt.Sprintf("%s model: %v", estimator, err)
	}
}

// Blend averages the estimators per horizon. A horizon missing from every
// estimator takes last.
func Blend(horizons []int, last float64, estimates ...map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(horizons))
	for _, h := range horizons {
		var sum float64
		var count int
		for _, est := range estimates {
			if v, ok := est[h]; ok {
				sum += v
				count++
			}
		}
		if count == 0 {
			out[h] = last
			continue
		}
		out[h] = sum / float64(count)
	}
	return out
}
