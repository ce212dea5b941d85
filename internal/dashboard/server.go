package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeSentinel/internal/model"
)

// Ledger is the read side of the paper-trading account.
type Ledger interface {
	Summary() model.AccountSummary
	BalanceSeries() []model.BalancePoint
	Trades(symbol string) []model.Trade
}

// Server exposes the latest cycle report over HTTP and websocket.
type Server struct {
	store  *Store
	hub    *Hub
	ledger Ledger
	srv    *http.Server
	logger zerolog.Logger
}

func NewServer(addr string, store *Store, hub *Hub, ledger Ledger) *Server {
	s := &Server{
		store:  store,
		hub:    hub,
		ledger: ledger,
		logger: log.With().Str("component", "dashboard").Logger(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": "healthy"})
	})
	r.Get("/api/account", s.handleAccount)
	r.Get("/api/trades", s.handleTrades)
	r.Get("/api/positions", s.handlePositions)
	r.Get("/api/signals", s.handleSignals)
	r.Get("/api/frames/{symbol}", s.handleFrame)
	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe blocks until ctx is cancelled, then shuts the server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("dashboard listening")
		errCh <- s.srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":         s.ledger.Summary(),
		"balance_history": s.ledger.BalanceSeries(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Trades(r.URL.Query().Get("symbol")))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	report := s.store.Latest()
	if report == nil {
		writeJSON(w, http.StatusOK, []model.PositionView{})
		return
	}
	writeJSON(w, http.StatusOK, report.Positions)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	report := s.store.Latest()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"at":          report.At,
		"instruments": report.Instruments,
		"warnings":    report.Warnings,
	})
}

// handleFrame returns the indicator frame for charting plus that symbol's trades as markers.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	report := s.store.Latest()
	if report == nil {
		writeError(w, http.StatusServiceUnavailable, "no refresh cycle has completed yet")
		return
	}
	in, ok := report.Instrument(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown symbol "+symbol)
		return
	}
	frame := in.Frame
	if frame == nil {
		frame = []model.IndicatorFrame{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"frame":  frame,
		"trades": s.ledger.Trades(symbol),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var initial *Message
	if report := s.store.Latest(); report != nil {
		initial = &Message{Type: "cycle_report", Data: report}
	}
	s.hub.Serve(w, r, initial)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
