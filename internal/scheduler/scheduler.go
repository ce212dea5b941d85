package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"TradeSentinel/internal/calculator"
	"TradeSentinel/internal/collector"
	"TradeSentinel/internal/fund"
	"TradeSentinel/internal/model"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/strategy"
)

// Forecaster predicts prices at the configured horizons for an indicator frame.
type Forecaster interface {
	Forecast(ctx context.Context, frame []model.IndicatorFrame) model.ForecastResult
}

// Notifier delivers messages to the operator.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Publisher receives every completed cycle report.
type Publisher interface {
	Publish(report *model.CycleReport)
}

// Options tunes a Scheduler.
type Options struct {
	Instruments        []string
	VolatilityLookback int
	NotifySignals      bool // send the signal table after every cycle
}

// Scheduler runs the hourly refresh cycle on a cron schedule.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Fund       *fund.Manager
	Forecaster Forecaster
	Notifier   Notifier  // optional
	Publisher  Publisher // optional
	Recorder   recorder.Recorder
	Ctx        context.Context

	opts   Options
	cycle  sync.Mutex // one evaluator at a time
	mu     sync.RWMutex
	last   *model.CycleReport
	now    func() time.Time
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler and fixes the per-instrument capital.
func NewScheduler(ctx context.Context, col *collector.Collector, fm *fund.Manager, fc Forecaster, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.VolatilityLookback <= 0 {
		opts.VolatilityLookback = 48
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	fm.Allocate(opts.Instruments)
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Fund:       fm,
		Forecaster: fc,
		Recorder:   rec,
		Ctx:        ctx,
		opts:       opts,
		now:        time.Now,
		logger:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Register schedules the refresh cycle.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow executes one refresh cycle immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

// LastReport returns the most recent cycle report, or nil before the first cycle.
func (s *Scheduler) LastReport() *model.CycleReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Scheduler) refreshTask() {
	s.logger.Info().Msg("running refresh cycle")
	if _, err := s.RunCycle(s.Ctx); err != nil {
		s.logger.Error().Err(err).Msg("refresh cycle failed")
		if errors.Is(err, model.ErrNoData) {
			s.trySend(fmt.Sprintf("❌ Refresh failed: %v", err))
		}
	}
}

// RunCycle fetches every instrument, evaluates it and returns the cycle report.
// Per-instrument failures become warnings; ErrNoData is returned when no
// instrument produced data.
func (s *Scheduler) RunCycle(ctx context.Context) (*model.CycleReport, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	collected := s.Collector.Collect(ctx, s.opts.Instruments)
	if len(collected.Bars) == 0 {
		return nil, fmt.Errorf("refresh cycle: %w", model.ErrNoData)
	}

	report := &model.CycleReport{At: s.now()}
	prices := make(map[string]float64, len(collected.Bars))
	for _, sym := range s.opts.Instruments {
		bars, ok := collected.Bars[sym]
		if !ok {
			ir := model.InstrumentReport{Symbol: sym, Signal: model.Neutral}
			if err := collected.Errors[sym]; err != nil {
				ir.Warnings = append(ir.Warnings, err.Error())
			}
			report.Instruments = append(report.Instruments, ir)
			continue
		}
		ir := s.evaluate(ctx, sym, bars)
		prices[sym] = ir.Close
		report.Instruments = append(report.Instruments, ir)
	}

	if missing := len(s.opts.Instruments) - len(collected.Bars); missing > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d of %d instruments returned no data", missing, len(s.opts.Instruments)))
	}

	report.Account = s.Fund.Snapshot()
	report.Summary = s.Fund.Summary()
	report.Positions = s.Fund.OpenPositionViews(prices)

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if s.Publisher != nil {
		s.Publisher.Publish(report)
	}
	if s.opts.NotifySignals {
		s.trySend(notifier.FormatSignals(report))
	}
	s.logger.Info().
		Int("instruments", len(report.Instruments)).
		Float64("balance", report.Account.Balance).
		Msg("refresh cycle complete")
	return report, nil
}

// evaluate runs indicators, signal, ledger transition, forecast and risk for one instrument.
// Risk uses the position state after this cycle's transition.
func (s *Scheduler) evaluate(ctx context.Context, sym string, bars []model.PriceBar) model.InstrumentReport {
	last := bars[len(bars)-1]
	ir := model.InstrumentReport{Symbol: sym, Close: last.Close, BarTime: last.Time, Signal: model.Neutral}
	logger := s.logger.With().Str("symbol", sym).Logger()

	frame := calculator.BuildFrame(bars)
	ir.Frame = frame
	if len(frame) == 0 {
		closes := make([]float64, len(bars))
		for i, b := range bars {
			closes[i] = b.Close
		}
		ir.RSI = calculator.CalculateRSI(closes, calculator.DefaultParams().RSIPeriod)
		ir.Warnings = append(ir.Warnings, fmt.Sprintf("%v: %d bars", model.ErrInsufficientHistory, len(bars)))
	} else {
		signal, row := strategy.Latest(frame)
		ir.Signal = signal
		ir.RSI = row.RSI
		ir.Close = row.Close
		ir.BarTime = row.Time

		tr, err := s.Fund.Evaluate(sym, row.Time, row.Close, signal)
		if err != nil {
			logger.Warn().Err(err).Msg("ledger evaluation failed")
			ir.Warnings = append(ir.Warnings, err.Error())
		} else {
			ir.Transition = &tr
			s.recordTransition(&tr)
		}

		res := s.Forecaster.Forecast(ctx, frame)
		ir.Forecast = &res
		ir.Warnings = append(ir.Warnings, res.Warnings...)
	}

	anchor := ir.Close
	if ir.Forecast != nil {
		if p, ok := ir.Forecast.Nearest(); ok {
			anchor = p
		}
	}
	_, open := s.Fund.Position(sym)
	risk := strategy.AssessRisk(strategy.RiskInput{
		Anchor:       anchor,
		Volatility:   calculator.Volatility(model.Closes(frame), s.opts.VolatilityLookback),
		Signal:       ir.Signal,
		RSI:          ir.RSI,
		PositionOpen: open,
	})
	ir.Risk = &risk

	if err := s.Recorder.RecordSignal(recorder.SnapshotFromReport(s.now(), &ir)); err != nil {
		logger.Error().Err(err).Msg("record signal")
	}
	logger.Debug().Str("signal", ir.Signal.String()).Str("advice", string(risk.Advice.Kind)).Msg("evaluated")
	return ir
}

func (s *Scheduler) recordTransition(tr *model.Transition) {
	switch tr.Kind {
	case model.TransitionOpened:
		s.logger.Info().Str("symbol", tr.Symbol).Float64("price", tr.Position.EntryPrice).Msg("position opened")
	case model.TransitionClosed:
		s.logger.Info().Str("symbol", tr.Symbol).Float64("profit", tr.Trade.ProfitLoss).Msg("position closed")
		if err := s.Recorder.RecordTrade(tr.Trade); err != nil {
			s.logger.Error().Err(err).Msg("record trade")
		}
	default:
		return
	}
	if err := s.Recorder.RecordBalance(model.BalancePoint{Time: s.now(), Balance: tr.Balance}); err != nil {
		s.logger.Error().Err(err).Msg("record balance")
	}
	s.trySend(notifier.FormatTransition(tr))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/account":
		return notifier.FormatAccount(s.Fund.Summary())
	case "/positions":
		return notifier.FormatPositions(s.Fund.OpenPositionViews(s.lastPrices()))
	case "/trades":
		return notifier.FormatTrades(s.Fund.Trades(""), 10)
	case "/signals":
		if r := s.LastReport(); r != nil {
			return notifier.FormatSignals(r)
		}
		return "No refresh cycle has completed yet"
	case "/refresh":
		go s.refreshTask()
		return "🔄 Refresh started"
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) lastPrices() map[string]float64 {
	prices := map[string]float64{}
	if r := s.LastReport(); r != nil {
		for _, in := range r.Instruments {
			if in.Close > 0 {
				prices[in.Symbol] = in.Close
			}
		}
	}
	return prices
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || text == "" {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
