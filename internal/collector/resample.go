package collector

import (
	"math"
	"sort"
	"time"

	"TradeSentinel/internal/model"
)

// ResampleHourly buckets bars to the start of their hour. Within a bucket the
// last observation wins; bars without a finite close are dropped. The result
// is strictly increasing in time.
func ResampleHourly(bars []model.PriceBar) []model.PriceBar {
	sorted := make([]model.PriceBar, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := make([]model.PriceBar, 0, len(sorted)/4+1)
	for _, b := range sorted {
		b.Time = b.Time.Truncate(time.Hour)
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
