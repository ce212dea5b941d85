package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"TradeSentinel/internal/model"
)

const (
	fmpBaseURL    = "https://financialmodelingprep.com/api/v3"
	fmpDateLayout = "2006-01-02 15:04:05"
)

// FMPFetcher implements Fetcher using the Financial Modeling Prep 15-minute chart.
type FMPFetcher struct {
	BaseURL   string
	APIKey    string
	Location  *time.Location    // exchange time zone of the returned dates
	SymbolMap map[string]string // maps internal symbol to FMP ticker
	http      *httpClient
}

// NewFMPFetcher creates a new fetcher with optional proxy support.
func NewFMPFetcher(apiKey, proxyURL string) *FMPFetcher {
	return &FMPFetcher{
		BaseURL:  fmpBaseURL,
		APIKey:   apiKey,
		Location: time.UTC,
		SymbolMap: map[string]string{
			"GC=F": "GCUSD",
			"SI=F": "SIUSD",
			"NG=F": "NGUSD",
			"KC=F": "KCUSX",
		},
		http: newHTTPClient(proxyURL, 5),
	}
}

func (f *FMPFetcher) Name() string { return "fmp" }

func (f *FMPFetcher) fmpSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	s := strings.ReplaceAll(symbol, "/", "")
	s = strings.TrimSuffix(s, "=X")
	return strings.ReplaceAll(s, "-", "")
}

// fmpBar is the JSON shape of one chart entry.
type fmpBar struct {
	Date  string   `json:"date"`
	Open  float64  `json:"open"`
	High  float64  `json:"high"`
	Low   float64  `json:"low"`
	Close *float64 `json:"close"`
}

func (f *FMPFetcher) FetchIntraday(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	if f.APIKey == "" {
		return nil, fmt.Errorf("fmp: api key not configured")
	}
	endpoint := fmt.Sprintf("%s/historical-chart/15min/%s?apikey=%s",
		strings.TrimRight(f.BaseURL, "/"), url.PathEscape(f.fmpSymbol(symbol)), url.QueryEscape(f.APIKey))

	var raw json.RawMessage
	if err := f.http.getJSON(ctx, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("fmp fetch %s: %w", symbol, err)
	}
	// Errors come back as an object instead of the usual array.
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "{") {
		var apiErr struct {
			Message string `json:"Error Message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return nil, fmt.Errorf("fmp api error for %s: %s", symbol, apiErr.Message)
	}

	var entries []fmpBar
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("fmp decode %s: %w", symbol, err)
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	bars := make([]model.PriceBar, 0, len(entries))
	for _, e := range entries {
		if e.Close == nil {
			continue
		}
		ts, err := time.ParseInLocation(fmpDateLayout, e.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("fmp parse date %q: %w", e.Date, err)
		}
		bars = append(bars, model.PriceBar{
			Time:  ts,
			Open:  e.Open,
			High:  e.High,
			Low:   e.Low,
			Close: *e.Close,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
