package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TradeSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the dashboard can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			entry_time  INTEGER NOT NULL,
			entry_price REAL,
			exit_time   INTEGER NOT NULL,
			exit_price  REAL,
			quantity    REAL,
			profit_loss REAL,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, exit_time)`,

		`CREATE TABLE IF NOT EXISTS balance_history (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			balance   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_balance_ts ON balance_history(timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			signal      INTEGER,
			close       REAL,
			rsi         REAL,
			advice      TEXT,
			strength    TEXT,
			close_note  TEXT,
			take_profit REAL,
			stop_loss   REAL,
			prediction  REAL,
			accuracy    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_symbol_ts ON signal_snapshots(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordTrade is idempotent on the trade id.
func (r *SQLiteRecorder) RecordTrade(t *model.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR IGNORE INTO trades
		(id, symbol, entry_time, entry_price, exit_time, exit_price, quantity, profit_loss, reason)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Symbol, t.EntryTime.Unix(), t.EntryPrice,
		t.ExitTime.Unix(), t.ExitPrice, t.Quantity, t.ProfitLoss, string(t.Reason),
	)
	return err
}

func (r *SQLiteRecorder) RecordBalance(p model.BalancePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO balance_history (timestamp, balance) VALUES (?,?)`,
		p.Time.Unix(), p.Balance)
	return err
}

func (r *SQLiteRecorder) RecordSignal(s *SignalSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tp, sl sql.NullFloat64
	if s.Levels != nil {
		tp = sql.NullFloat64{Float64: s.Levels.TakeProfit, Valid: true}
		sl = sql.NullFloat64{Float64: s.Levels.StopLoss, Valid: true}
	}
	_, err := r.db.Exec(`INSERT INTO signal_snapshots
		(timestamp, symbol, signal, close, rsi, advice, strength, close_note,
		 take_profit, stop_loss, prediction, accuracy)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.Time.Unix(), s.Symbol, int(s.Signal), s.Close, s.RSI,
		string(s.Advice.Kind), string(s.Advice.Strength), s.Advice.CloseReason,
		tp, sl, s.Prediction, s.Accuracy,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
