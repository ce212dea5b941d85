package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeSentinel/internal/model"
)

var at = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func TestFormatTransition(t *testing.T) {
	opened := FormatTransition(&model.Transition{
		Kind: model.TransitionOpened, Symbol: "BTC-USD", Balance: 7500,
		Position: &model.Position{Symbol: "BTC-USD", EntryPrice: 50, Quantity: 50},
	})
	assert.Contains(t, opened, "Bought BTC-USD</b> at 50.00")
	assert.Contains(t, opened, "$7500.00")

	closed := FormatTransition(&model.Transition{
		Kind: model.TransitionClosed, Symbol: "BTC-USD", Balance: 10300,
		Trade: &model.Trade{ExitPrice: 56, ProfitLoss: 300, Reason: model.ExitTakeProfit},
	})
	assert.Contains(t, closed, "Sold BTC-USD</b> at 56.00 | Profit: +$300.00 (take profit)")

	assert.Empty(t, FormatTransition(&model.Transition{Kind: model.TransitionHeld}))
}

func TestMoneyAndPrice(t *testing.T) {
	assert.Equal(t, "$3333.33", Money(10000.0/3))
	assert.Equal(t, "1.0842", Price(1.08421))
	assert.Equal(t, "2301.50", Price(2301.5))
	assert.Equal(t, "-$250.00", signedMoney(-250))
}

func TestAdviceText(t *testing.T) {
	tests := []struct {
		advice model.Advice
		want   string
	}{
		{model.Advice{Kind: model.AdviceBuy, Strength: model.StrengthStrong}, "Strong Buy"},
		{model.Advice{Kind: model.AdviceSell, Strength: model.StrengthPotential, CloseReason: model.CloseReasonBearish}, "Potential Sell | Close Position"},
		{model.Advice{Kind: model.AdviceCloseAdvised, CloseReason: model.CloseReasonConsider}, "Consider Close"},
		{model.Advice{Kind: model.AdviceHold}, "Hold"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AdviceText(tt.advice))
	}
}

func TestFormatAccountAndPositions(t *testing.T) {
	acct := FormatAccount(model.AccountSummary{InitialBalance: 10000, Balance: 10300, TotalProfit: 300, TradeCount: 2, WinningTrades: 1, WinRate: 50})
	assert.Contains(t, acct, "Current balance: $10300.00")
	assert.Contains(t, acct, "Trades: 2 | Win rate: 50.0%")

	assert.Equal(t, "📭 No open positions", FormatPositions(nil))
	pos := FormatPositions([]model.PositionView{{
		Position:     model.Position{Symbol: "GC=F", EntryPrice: 2300, Quantity: 1},
		CurrentPrice: 2310, ProfitLoss: 10,
	}})
	assert.Contains(t, pos, "GC=F: entry 2300.00, now 2310.00")
	assert.Contains(t, pos, "+$10.00")
}

func TestFormatTrades_NewestFirst(t *testing.T) {
	out := FormatTrades([]model.Trade{
		{Symbol: "OLD", ExitTime: at, ProfitLoss: 1},
		{Symbol: "NEW", ExitTime: at.Add(time.Hour), ProfitLoss: 2},
		{Symbol: "MID", ExitTime: at.Add(30 * time.Minute), ProfitLoss: 3},
	}, 2)
	assert.Contains(t, out, "NEW")
	assert.Contains(t, out, "MID")
	assert.NotContains(t, out, "OLD")
	assert.Less(t, strings.Index(out, "NEW"), strings.Index(out, "MID"))
}

func TestFormatSignals(t *testing.T) {
	report := &model.CycleReport{
		At: at,
		Instruments: []model.InstrumentReport{{
			Symbol: "EURUSD=X", Signal: model.Bullish, Close: 1.0842,
			Forecast: &model.ForecastResult{Predictions: map[int]float64{24: 1.09, 12: 1.088}, Accuracy: 98.25, HasAccuracy: true},
			Risk: &model.RiskAssessment{
				Advice: model.Advice{Kind: model.AdviceBuy, Strength: model.StrengthStrong},
				Levels: &model.RiskLevels{TakeProfit: 1.1, StopLoss: 1.07},
			},
		}, {
			Symbol: "USDJPY=X", Warnings: []string{"insufficient history"},
		}},
	}
	out := FormatSignals(report)
	assert.Contains(t, out, "<b>EURUSD=X</b> BULLISH @ 1.0842 | Strong Buy")
	assert.Contains(t, out, "forecast: 12h 1.0880, 24h 1.0900 (accuracy 98.3%)")
	assert.Contains(t, out, "TP 1.1000 | SL 1.0700")
	assert.Contains(t, out, "⚠️ insufficient history")
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.BaseURL = srv.URL
	tn.InitialInterval = 10 * time.Millisecond

	require.NoError(t, tn.SendWithRetry(context.Background(), "hello", 3))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_RetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.BaseURL = srv.URL
	tn.InitialInterval = time.Millisecond

	err := tn.SendWithRetry(context.Background(), "hello", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTelegramNotifier_Polling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/getUpdates":
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /account "}}]}`))
				return
			}
			<-r.Context().Done()
		case "/bottoken/sendMessage":
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			replies <- payload["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("token", "42", "")
	tn.BaseURL = srv.URL
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(cmd string) string { return "reply to " + cmd })
		close(done)
	}()

	select {
	case got := <-replies:
		assert.Equal(t, "reply to /account", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}
