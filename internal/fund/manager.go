package fund

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeSentinel/internal/model"
)

// DefaultTakeProfitRatio closes a position once price reaches entry * 1.10.
const DefaultTakeProfitRatio = 1.10

// Manager owns the paper-trading account: one position per instrument,
// fixed capital per instrument, the trade log and the balance history.
// Every transition is a single locked read-modify-write.
type Manager struct {
	mu              sync.Mutex
	account         *model.Account
	filePath        string
	takeProfitRatio float64
	logger          zerolog.Logger
}

// NewManager creates a Manager, loading or initializing the account from disk.
func NewManager(filePath string, initialBalance, takeProfitRatio float64) (*Manager, error) {
	if initialBalance <= 0 {
		return nil, errors.New("initial balance must be positive")
	}
	if takeProfitRatio <= 1 {
		takeProfitRatio = DefaultTakeProfitRatio
	}
	acct, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load account state: %w", err)
	}

	// Initialize if fresh state
	if acct.InitialBalance == 0 {
		acct.InitialBalance = initialBalance
		acct.Balance = initialBalance
	}
	if acct.Allocated == nil {
		acct.Allocated = make(map[string]float64)
	}
	if acct.Positions == nil {
		acct.Positions = make(map[string]*model.Position)
	}

	m := &Manager{
		account:         acct,
		filePath:        filePath,
		takeProfitRatio: takeProfitRatio,
		logger:          log.With().Str("component", "fund").Logger(),
	}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save account state: %w", err)
	}
	return m, nil
}

// Allocate fixes the capital of every not-yet-allocated symbol at balance/len(symbols).
// Existing allocations are never rebalanced.
func (m *Manager) Allocate(symbols []string) {
	if len(symbols) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	perSymbol := m.account.Balance / float64(len(symbols))
	changed := false
	for _, s := range symbols {
		if _, ok := m.account.Allocated[s]; ok {
			continue
		}
		m.account.Allocated[s] = perSymbol
		changed = true
	}
	if changed {
		m.persist("allocate")
	}
}

// Evaluate runs one state-machine step for symbol on the latest bar.
//
//	Flat + Bullish                          -> open
//	Open + (price >= entry*ratio || Bearish) -> close
//	anything else                           -> no change
func (m *Manager) Evaluate(symbol string, at time.Time, price float64, signal model.Signal) (model.Transition, error) {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.Transition{Kind: model.TransitionNone, Symbol: symbol}, fmt.Errorf("invalid price %.4f for %s", price, symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	allocated, ok := m.account.Allocated[symbol]
	if !ok {
		return model.Transition{Kind: model.TransitionNone, Symbol: symbol}, fmt.Errorf("no capital allocated for %s", symbol)
	}

	pos := m.account.Positions[symbol]
	if pos == nil {
		if signal != model.Bullish {
			return model.Transition{Kind: model.TransitionNone, Symbol: symbol, Balance: m.account.Balance}, nil
		}
		return m.open(symbol, at, price, allocated), nil
	}

	takeProfit := price >= pos.EntryPrice*m.takeProfitRatio
	if !takeProfit && signal != model.Bearish {
		cp := *pos
		return model.Transition{Kind: model.TransitionHeld, Symbol: symbol, Position: &cp, Balance: m.account.Balance}, nil
	}
	reason := model.ExitBearishSignal
	if takeProfit {
		reason = model.ExitTakeProfit
	}
	return m.close(pos, at, price, allocated, reason), nil
}

func (m *Manager) open(symbol string, at time.Time, price, allocated float64) model.Transition {
	pos := &model.Position{
		Symbol:     symbol,
		EntryTime:  at,
		EntryPrice: price,
		Quantity:   allocated / price,
	}
	m.account.Positions[symbol] = pos
	m.account.Balance -= allocated
	m.account.BalanceHistory = append(m.account.BalanceHistory, model.BalancePoint{Time: at, Balance: m.account.Balance})
	m.persist("open position")

	m.logger.Info().Str("symbol", symbol).Float64("price", price).Float64("quantity", pos.Quantity).
		Time("at", at).Msg("position opened")

	cp := *pos
	return model.Transition{Kind: model.TransitionOpened, Symbol: symbol, Position: &cp, Balance: m.account.Balance}
}

func (m *Manager) close(pos *model.Position, at time.Time, price, allocated float64, reason model.ExitReason) model.Transition {
	profit := (price - pos.EntryPrice) * pos.Quantity
	trade := model.Trade{
		ID:         uuid.NewString(),
		Symbol:     pos.Symbol,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitTime:   at,
		ExitPrice:  price,
		Quantity:   pos.Quantity,
		ProfitLoss: profit,
		Reason:     reason,
	}
	m.account.Balance += allocated + profit
	m.account.BalanceHistory = append(m.account.BalanceHistory, model.BalancePoint{Time: at, Balance: m.account.Balance})
	m.account.Trades = append(m.account.Trades, trade)
	delete(m.account.Positions, pos.Symbol)
	m.persist("close position")

	m.logger.Info().Str("symbol", trade.Symbol).Float64("price", price).Float64("profit", profit).
		Str("reason", string(reason)).Time("at", at).Msg("position closed")

	return model.Transition{Kind: model.TransitionClosed, Symbol: trade.Symbol, Trade: &trade, Balance: m.account.Balance}
}

// Snapshot returns a deep copy of the account.
func (m *Manager) Snapshot() model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account.Clone()
}

// Position returns the open position of symbol, if any.
func (m *Manager) Position(symbol string) (model.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos := m.account.Positions[symbol]
	if pos == nil {
		return model.Position{}, false
	}
	return *pos, true
}

// Trades returns the trade history, filtered by symbol when one is given.
func (m *Manager) Trades(symbol string) []model.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Trade, 0, len(m.account.Trades))
	for _, t := range m.account.Trades {
		if symbol == "" || t.Symbol == symbol {
			out = append(out, t)
		}
	}
	return out
}

// Summary aggregates the trade history.
func (m *Manager) Summary() model.AccountSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return summarize(m.account)
}

func summarize(acct *model.Account) model.AccountSummary {
	s := model.AccountSummary{
		InitialBalance: acct.InitialBalance,
		Balance:        acct.Balance,
		TradeCount:     len(acct.Trades),
	}
	for _, t := range acct.Trades {
		s.TotalProfit += t.ProfitLoss
		if t.ProfitLoss > 0 {
			s.WinningTrades++
		}
	}
	if s.TradeCount > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TradeCount) * 100
	}
	return s
}

// OpenPositionViews values every open position at the given prices.
// Positions without a current price are skipped.
func (m *Manager) OpenPositionViews(prices map[string]float64) []model.PositionView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]model.PositionView, 0, len(m.account.Positions))
	for symbol, pos := range m.account.Positions {
		price, ok := prices[symbol]
		if pos == nil || !ok {
			continue
		}
		views = append(views, model.PositionView{
			Position:     *pos,
			CurrentPrice: price,
			ProfitLoss:   (price - pos.EntryPrice) * pos.Quantity,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Symbol < views[j].Symbol })
	return views
}

// BalanceSeries returns the balance history with duplicate timestamps removed (first wins).
func (m *Manager) BalanceSeries() []model.BalancePoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[time.Time]bool, len(m.account.BalanceHistory))
	out := make([]model.BalancePoint, 0, len(m.account.BalanceHistory))
	for _, p := range m.account.BalanceHistory {
		key := p.Time.UTC()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func (m *Manager) persist(op string) {
	if err := m.save(); err != nil {
		m.logger.Error().Err(err).Str("op", op).Msg("failed to save account state")
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.account)
}
