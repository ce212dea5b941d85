package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"TradeSentinel/internal/model"
)

// Money renders a currency amount with two decimals.
func Money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// Price renders an instrument price; sub-10 quotes such as FX keep four decimals.
func Price(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Abs().LessThan(decimal.NewFromInt(10)) {
		return d.StringFixed(4)
	}
	return d.StringFixed(2)
}

func signedMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "+$" + d.StringFixed(2)
}

// FormatTransition formats an opened or closed trade. Other transitions yield "".
func FormatTransition(tr *model.Transition) string {
	switch tr.Kind {
	case model.TransitionOpened:
		if tr.Position == nil {
			return ""
		}
		return fmt.Sprintf("🟢 <b>Bought %s</b> at %s\nQuantity: %s | Balance: %s",
			html.EscapeString(tr.Symbol), Price(tr.Position.EntryPrice),
			decimal.NewFromFloat(tr.Position.Quantity).StringFixed(4), Money(tr.Balance))
	case model.TransitionClosed:
		if tr.Trade == nil {
			return ""
		}
		return fmt.Sprintf("🔴 <b>Sold %s</b> at %s | Profit: %s (%s)\nBalance: %s",
			html.EscapeString(tr.Symbol), Price(tr.Trade.ExitPrice), signedMoney(tr.Trade.ProfitLoss),
			exitReason(tr.Trade.Reason), Money(tr.Balance))
	default:
		return ""
	}
}

func exitReason(r model.ExitReason) string {
	switch r {
	case model.ExitTakeProfit:
		return "take profit"
	case model.ExitBearishSignal:
		return "bearish signal"
	default:
		return strings.ToLower(string(r))
	}
}

// FormatAccount formats the account overview.
func FormatAccount(s model.AccountSummary) string {
	var b strings.Builder
	b.WriteString("💼 <b>Account Overview</b>\n\n")
	b.WriteString(fmt.Sprintf("Initial balance: %s\n", Money(s.InitialBalance)))
	b.WriteString(fmt.Sprintf("Current balance: %s\n", Money(s.Balance)))
	b.WriteString(fmt.Sprintf("Total profit/loss: %s\n", signedMoney(s.TotalProfit)))
	b.WriteString(fmt.Sprintf("Trades: %d | Win rate: %s%%\n", s.TradeCount,
		decimal.NewFromFloat(s.WinRate).StringFixed(1)))
	return b.String()
}

// FormatPositions formats the open positions valued at the latest prices.
func FormatPositions(views []model.PositionView) string {
	if len(views) == 0 {
		return "📭 No open positions"
	}
	var b strings.Builder
	b.WriteString("📂 <b>Open Positions</b>\n\n")
	for _, v := range views {
		b.WriteString(fmt.Sprintf("%s: entry %s, now %s, qty %s, P/L %s\n",
			html.EscapeString(v.Symbol), Price(v.EntryPrice), Price(v.CurrentPrice),
			decimal.NewFromFloat(v.Quantity).StringFixed(4), signedMoney(v.ProfitLoss)))
	}
	return b.String()
}

// FormatTrades formats the most recent closed trades, newest first.
func FormatTrades(trades []model.Trade, limit int) string {
	if len(trades) == 0 {
		return "📭 No closed trades yet"
	}
	recent := append([]model.Trade(nil), trades...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].ExitTime.After(recent[j].ExitTime) })
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent Trades</b>\n\n")
	for _, t := range recent {
		b.WriteString(fmt.Sprintf("%s %s: %s → %s, %s (%s)\n",
			t.ExitTime.Format("01-02 15:04"), html.EscapeString(t.Symbol),
			Price(t.EntryPrice), Price(t.ExitPrice), signedMoney(t.ProfitLoss), exitReason(t.Reason)))
	}
	return b.String()
}

// AdviceText renders an advice as shown in the signal table.
func AdviceText(a model.Advice) string {
	switch a.Kind {
	case model.AdviceBuy, model.AdviceSell:
		verb := "Buy"
		if a.Kind == model.AdviceSell {
			verb = "Sell"
		}
		text := verb
		if a.Strength != model.StrengthNone {
			text = string(a.Strength) + " " + verb
		}
		if a.CloseReason != "" {
			text += " | " + a.CloseReason
		}
		return text
	case model.AdviceCloseAdvised:
		return a.CloseReason
	default:
		return "Hold"
	}
}

// FormatSignals formats one row per instrument: signal, advice, predictions and TP/SL.
func FormatSignals(r *model.CycleReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Signals</b> | %s\n\n", r.At.Format("2006-01-02 15:04")))
	for _, in := range r.Instruments {
		b.WriteString(fmt.Sprintf("<b>%s</b> %s @ %s", html.EscapeString(in.Symbol), in.Signal, Price(in.Close)))
		if in.Risk != nil {
			b.WriteString(" | " + AdviceText(in.Risk.Advice))
		}
		b.WriteString("\n")
		if in.Forecast != nil && len(in.Forecast.Predictions) > 0 {
			var parts []string
			for _, h := range in.Forecast.Horizons() {
				parts = append(parts, fmt.Sprintf("%dh %s", h, Price(in.Forecast.Predictions[h])))
			}
			line := "  forecast: " + strings.Join(parts, ", ")
			if in.Forecast.HasAccuracy {
				line += fmt.Sprintf(" (accuracy %s%%)", decimal.NewFromFloat(in.Forecast.Accuracy).StringFixed(1))
			}
			b.WriteString(line + "\n")
		}
		if in.Risk != nil && in.Risk.Levels != nil {
			b.WriteString(fmt.Sprintf("  TP %s | SL %s\n", Price(in.Risk.Levels.TakeProfit), Price(in.Risk.Levels.StopLoss)))
		}
		for _, w := range in.Warnings {
			b.WriteString("  ⚠️ " + html.EscapeString(w) + "\n")
		}
	}
	for _, w := range r.Warnings {
		b.WriteString("⚠️ " + html.EscapeString(w) + "\n")
	}
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "Available commands:\n• /account\n• /positions\n• /trades\n• /signals\n• /refresh"
}
