package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"TradeSentinel/internal/collector"
	"TradeSentinel/internal/config"
	"TradeSentinel/internal/dashboard"
	"TradeSentinel/internal/forecast"
	"TradeSentinel/internal/fund"
	"TradeSentinel/internal/logging"
	"TradeSentinel/internal/notifier"
	"TradeSentinel/internal/recorder"
	"TradeSentinel/internal/scheduler"
)

func main() {
	app := &cli.App{
		Name:  "bot",
		Usage: "hourly signal, forecast and paper-trading bot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "configs/config.yaml", EnvVars: []string{"CONFIG_PATH"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file loaded before the config"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the refresh cron, dashboard and Telegram polling until interrupted",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "run-on-start", EnvVars: []string{"RUN_ON_START"}, Usage: "execute a cycle immediately"}},
				Action: runAction,
			},
			{
				Name:   "once",
				Usage:  "run a single refresh cycle and print the signal table",
				Action: onceAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bot wires every component from config.
type bot struct {
	cfg      *config.Config
	sched    *scheduler.Scheduler
	fund     *fund.Manager
	notifier *notifier.TelegramNotifier
	recorder recorder.Recorder
	closers  []func() error
}

func (a *bot) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
}

func setup(ctx context.Context, c *cli.Context) (*bot, error) {
	cfg, err := config.Load(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	logCloser, err := logging.Setup(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	a := &bot{cfg: cfg, closers: []func() error{logCloser.Close}}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = &collector.MockFetcher{}
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	default:
		f := collector.NewFMPFetcher(cfg.DataSource.APIKey, cfg.Proxy)
		if cfg.DataSource.BaseURL != "" {
			f.BaseURL = cfg.DataSource.BaseURL
		}
		fetcher = f
	}
	log.Info().Str("provider", fetcher.Name()).Strs("instruments", cfg.Instruments()).Msg("data source")

	fm, err := fund.NewManager(cfg.Account.StateFile, cfg.Account.InitialBalance, cfg.Risk.TakeProfitRatio)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init account: %w", err)
	}
	a.fund = fm

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	engine := forecast.NewEngine(forecast.Config{
		Horizons:  cfg.Horizons(),
		TestHours: cfg.Forecast.TestHours,
		SpanHours: cfg.Forecast.SpanHours,
		Timeout:   cfg.Forecast.Timeout,
		Seasonal:  forecast.DefaultSeasonalConfig(),
		Boost:     forecast.DefaultBoostConfig(),
	})

	a.sched = scheduler.NewScheduler(ctx, collector.NewCollector(fetcher), fm, engine, a.recorder, scheduler.Options{
		Instruments:        cfg.Instruments(),
		VolatilityLookback: cfg.Risk.VolatilityLookback,
		NotifySignals:      true,
	})
	if cfg.TelegramEnabled() {
		a.notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		a.sched.Notifier = a.notifier
	}
	return a, nil
}

func runAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()
	log.Info().Msg("TradeSentinel starting")

	hub := dashboard.NewHub()
	store := dashboard.NewStore(hub)
	a.sched.Publisher = store

	if err := a.sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	a.sched.Start()
	defer a.sched.Stop()

	server := dashboard.NewServer(a.cfg.Dashboard.ListenAddr, store, hub, a.fund)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.ListenAndServe(ctx) }()

	if a.notifier != nil {
		go a.notifier.StartPolling(ctx, a.sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if c.Bool("run-on-start") {
		log.Info().Msg("RUN_ON_START enabled, executing refresh now")
		go a.sched.RunNow()
	}

	log.Info().Msg("TradeSentinel is running. Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
	}
	log.Info().Msg("TradeSentinel stopped")
	return nil
}

func onceAction(c *cli.Context) error {
	a, err := setup(c.Context, c)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.sched.RunCycle(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(notifier.FormatSignals(report))
	fmt.Println(notifier.FormatAccount(report.Summary))
	fmt.Println(notifier.FormatPositions(report.Positions))
	return nil
}
