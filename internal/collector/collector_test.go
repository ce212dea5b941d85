package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeSentinel/internal/model"
)

var t0 = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func TestResampleHourly_LastObservationWins(t *testing.T) {
	bars := []model.PriceBar{
		{Time: t0.Add(45 * time.Minute), Close: 4},
		{Time: t0, Close: 1},
		{Time: t0.Add(15 * time.Minute), Close: 2},
		{Time: t0.Add(30 * time.Minute), Close: math.NaN()},
		{Time: t0.Add(2 * time.Hour), Close: 9},
	}
	got := ResampleHourly(bars)

	require.Len(t, got, 2)
	assert.Equal(t, t0, got[0].Time)
	assert.Equal(t, 4.0, got[0].Close)
	assert.Equal(t, t0.Add(2*time.Hour), got[1].Time)
	assert.Equal(t, 9.0, got[1].Close)
}

func TestResampleHourly_StrictlyIncreasing(t *testing.T) {
	var bars []model.PriceBar
	for i := 0; i < 200; i++ {
		// shuffled 15-minute bars with gaps
		j := (i * 37) % 200
		if j%11 == 0 {
			continue
		}
		bars = append(bars, model.PriceBar{Time: t0.Add(time.Duration(j) * 15 * time.Minute), Close: float64(j)})
	}
	got := ResampleHourly(bars)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Time.After(got[i-1].Time), "row %d", i)
		assert.Zero(t, got[i].Time.Minute())
	}
}

func TestResampleHourly_Empty(t *testing.T) {
	assert.Empty(t, ResampleHourly(nil))
	assert.Empty(t, ResampleHourly([]model.PriceBar{{Time: t0, Close: math.Inf(1)}}))
}

func TestMockFetcher_Deterministic(t *testing.T) {
	m := &MockFetcher{Base: 50, Count: 120, End: t0}
	a, err := m.FetchIntraday(context.Background(), "BTC-USD")
	require.NoError(t, err)
	b, err := m.FetchIntraday(context.Background(), "BTC-USD")
	require.NoError(t, err)

	require.Len(t, a, 120)
	assert.Equal(t, a, b)
	assert.Equal(t, t0, a[len(a)-1].Time)
	assert.Equal(t, t0.Add(-119*time.Hour), a[0].Time)

	for _, bar := range a {
		assert.InDelta(t, 50, bar.Close, 4)
		assert.Greater(t, bar.High, bar.Low)
	}
}

func TestCollect_PartialFailure(t *testing.T) {
	m := &MockFetcher{
		Count:  48,
		End:    t0,
		Errors: map[string]error{"BAD": errors.New("boom")},
		Bars:   map[string][]model.PriceBar{"EMPTY": {}},
	}
	res := NewCollector(m).Collect(context.Background(), []string{"GOOD", "BAD", "EMPTY"})

	assert.Len(t, res.Bars["GOOD"], 48)
	assert.NotContains(t, res.Bars, "BAD")
	assert.NotContains(t, res.Bars, "EMPTY")
	assert.ErrorIs(t, res.Errors["BAD"], model.ErrDataUnavailable)
	assert.ErrorIs(t, res.Errors["EMPTY"], model.ErrDataUnavailable)
	assert.Len(t, res.Warnings, 2)
}

func TestCollect_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewCollector(&MockFetcher{}).Collect(ctx, []string{"A", "B"})
	assert.Empty(t, res.Bars)
	assert.Len(t, res.Errors, 2)
}

func TestFMPFetcher_ParsesAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historical-chart/15min/EURUSD", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		fmt.Fprint(w, `[
			{"date":"2024-05-06 10:15:00","open":1.1,"high":1.2,"low":1.0,"close":1.15,"volume":0},
			{"date":"2024-05-06 10:00:00","open":1.0,"high":1.1,"low":0.9,"close":1.05,"volume":0},
			{"date":"2024-05-06 09:45:00","open":1.0,"high":1.1,"low":0.9,"close":null,"volume":0}
		]`)
	}))
	defer srv.Close()

	f := NewFMPFetcher("secret", "")
	f.BaseURL = srv.URL
	bars, err := f.FetchIntraday(context.Background(), "EURUSD=X")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 1.15, bars[1].Close)
}

func TestFMPFetcher_ErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Error Message":"Invalid API KEY."}`)
	}))
	defer srv.Close()

	f := NewFMPFetcher("bad", "")
	f.BaseURL = srv.URL
	_, err := f.FetchIntraday(context.Background(), "GC=F")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API KEY.")
}

func TestFMPFetcher_MissingKey(t *testing.T) {
	_, err := NewFMPFetcher("", "").FetchIntraday(context.Background(), "BTC-USD")
	assert.Error(t, err)
}

func TestFMPFetcher_SymbolMapping(t *testing.T) {
	f := NewFMPFetcher("k", "")
	assert.Equal(t, "EURUSD", f.fmpSymbol("EURUSD=X"))
	assert.Equal(t, "BTCUSD", f.fmpSymbol("BTC-USD"))
	assert.Equal(t, "GCUSD", f.fmpSymbol("GC=F"))
	assert.Equal(t, "^GSPC", f.fmpSymbol("^GSPC"))
}

func TestYahooFetcher_SkipsNullCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "60m", r.URL.Query().Get("interval"))
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"open":[1,null,3],"high":[1,null,3],"low":[1,null,3],"close":[1.5,null,3.5]}]}}],"error":null}}`,
			t0.Unix(), t0.Add(time.Hour).Unix(), t0.Add(2*time.Hour).Unix())
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchIntraday(context.Background(), "^GSPC")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.5, bars[0].Close)
	assert.Equal(t, t0.Add(2*time.Hour), bars[1].Time)
}

func TestHTTPClient_ClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newHTTPClient("", 10)
	_, err := c.get(context.Background(), srv.URL, nil)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	c := newHTTPClient("", 10)
	body, err := c.get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 3, calls)
}
