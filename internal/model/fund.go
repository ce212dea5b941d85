package model

import "time"

// Position is an open paper-trading position. At most one exists per instrument.
type Position struct {
	Symbol     string    `json:"symbol"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
}

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitTakeProfit    ExitReason = "TAKE_PROFIT"
	ExitBearishSignal ExitReason = "BEARISH_SIGNAL"
)

// Trade is an immutable record of a closed position.
type Trade struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	ProfitLoss float64    `json:"profit_loss"`
	Reason     ExitReason `json:"reason"`
}

// BalancePoint is a snapshot of the account balance.
type BalancePoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

// Account is the paper-trading account aggregate.
type Account struct {
	InitialBalance float64              `json:"initial_balance"`
	Balance        float64              `json:"balance"`
	Allocated      map[string]float64   `json:"allocated"`
	Positions      map[string]*Position `json:"positions"`
	Trades         []Trade              `json:"trades"`
	BalanceHistory []BalancePoint       `json:"balance_history"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Clone returns a deep copy safe to hand to readers.
func (a *Account) Clone() Account {
	out := Account{
		InitialBalance: a.InitialBalance,
		Balance:        a.Balance,
		Allocated:      make(map[string]float64, len(a.Allocated)),
		Positions:      make(map[string]*Position, len(a.Positions)),
		Trades:         append([]Trade(nil), a.Trades...),
		BalanceHistory: append([]BalancePoint(nil), a.BalanceHistory...),
		UpdatedAt:      a.UpdatedAt,
	}
	for k, v := range a.Allocated {
		out.Allocated[k] = v
	}
	for k, p := range a.Positions {
		if p == nil {
			continue
		}
		cp := *p
		out.Positions[k] = &cp
	}
	return out
}

// TransitionKind is the ledger state change produced by one evaluation.
type TransitionKind string

const (
	TransitionNone   TransitionKind = "NONE"
	TransitionOpened TransitionKind = "OPENED"
	TransitionClosed TransitionKind = "CLOSED"
	TransitionHeld   TransitionKind = "HELD"
)

// Transition describes what the ledger did for one instrument in one cycle.
type Transition struct {
	Kind     TransitionKind `json:"kind"`
	Symbol   string         `json:"symbol"`
	Position *Position      `json:"position,omitempty"`
	Trade    *Trade         `json:"trade,omitempty"`
	Balance  float64        `json:"balance"`
}

// AccountSummary aggregates the trade history.
type AccountSummary struct {
	InitialBalance float64 `json:"initial_balance"`
	Balance        float64 `json:"balance"`
	TotalProfit    float64 `json:"total_profit"`
	TradeCount     int     `json:"trade_count"`
	WinningTrades  int     `json:"winning_trades"`
	WinRate        float64 `json:"win_rate"` // percentage
}

// PositionView is an open position valued at the current price.
type PositionView struct {
	Position
	CurrentPrice float64 `json:"current_price"`
	ProfitLoss   float64 `json:"profit_loss"`
}
