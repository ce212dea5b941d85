package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeSentinel/internal/model"
)

// Result holds one cycle of hourly bars per symbol.
type Result struct {
	Bars     map[string][]model.PriceBar
	Errors   map[string]error
	Warnings []string
}

// Collector fetches intraday data for many instruments and resamples it to hourly bars.
type Collector struct {
	Fetcher Fetcher
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{
		Fetcher: fetcher,
		logger:  log.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
	}
}

// CollectOne fetches and resamples a single symbol.
func (c *Collector) CollectOne(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	raw, err := c.Fetcher.FetchIntraday(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDataUnavailable, symbol, err)
	}
	bars := ResampleHourly(raw)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no hourly data", model.ErrDataUnavailable, symbol)
	}
	return bars, nil
}

// Collect fetches every symbol. A failed symbol becomes a warning and never
// aborts the others; a cancelled context stops the loop.
func (c *Collector) Collect(ctx context.Context, symbols []string) Result {
	res := Result{
		Bars:   make(map[string][]model.PriceBar, len(symbols)),
		Errors: make(map[string]error),
	}
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			res.Errors[sym] = err
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", sym, err))
			continue
		}
		bars, err := c.CollectOne(ctx, sym)
		if err != nil {
			res.Errors[sym] = err
			res.Warnings = append(res.Warnings, err.Error())
			if errors.Is(err, model.ErrDataUnavailable) {
				c.logger.Warn().Str("symbol", sym).Err(err).Msg("no data")
			}
			continue
		}
		c.logger.Debug().Str("symbol", sym).Int("bars", len(bars)).Msg("collected")
		res.Bars[sym] = bars
	}
	return res
}
