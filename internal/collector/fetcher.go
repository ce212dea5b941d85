package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"TradeSentinel/internal/model"
)

// Fetcher defines the interface for fetching intraday market data.
type Fetcher interface {
	// FetchIntraday returns the provider's recent intraday bars, oldest first.
	FetchIntraday(ctx context.Context, symbol string) ([]model.PriceBar, error)
	Name() string
}

// MockFetcher returns deterministic synthetic hourly bars for development and testing.
type MockFetcher struct {
	Base   float64
	Count  int
	End    time.Time
	Bars   map[string][]model.PriceBar // fixed data per symbol, takes precedence
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchIntraday(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return append([]model.PriceBar(nil), bars...), nil
	}
	count := m.Count
	if count <= 0 {
		count = 240
	}
	base := m.Base
	if base <= 0 {
		base = 100
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(time.Hour)
	}
	return generateMockBars(symbol, base, count, end), nil
}

// generateMockBars draws a daily cycle over a slow drift. The phase depends on
// the symbol so several instruments do not move in lockstep.
func generateMockBars(symbol string, base float64, count int, end time.Time) []model.PriceBar {
	h := fnv.New32a()
	fmt.Fprint(h, symbol)
	phase := float64(h.Sum32()%24) / 24 * 2 * math.Pi

	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := base * (1 + 0.02*math.Sin(2*math.Pi*x/24+phase) + 0.01*math.Sin(2*math.Pi*x/97) + 0.0002*x)
		bars[i] = model.PriceBar{
			Time:  end.Add(-time.Duration(count-1-i) * time.Hour),
			Open:  p * 0.999,
			High:  p * 1.004,
			Low:   p * 0.996,
			Close: p,
		}
	}
	return bars
}
