package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/cashflow/config"
	"github.com/alejandrodnm/cashflow/internal/adapters/notify"
	"github.com/alejandrodnm/cashflow/internal/adapters/scenario"
	"github.com/alejandrodnm/cashflow/internal/adapters/storage"
	"github.com/alejandrodnm/cashflow/internal/application/flow"
	"github.com/alejandrodnm/cashflow/internal/domain"
	"github.com/alejandrodnm/cashflow/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "compute and print without persisting runs")
	table := flag.Bool("table", false, "print the full value table + summary (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	history := flag.Bool("history", false, "list stored runs from the last report.history_hours")
	show := flag.String("show", "", "print a stored run by ID")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = out.Write([]byte("usage: cashflow [flags] scenario.yaml [scenario.yaml ...]\n"))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *table {
		cfg.Report.Table = true
	}
	setupLogger(cfg.Log)

	slog.Info("cashflow starting",
		"config", *configPath,
		"dry_run", *dryRun,
		"validate", cfg.ValidateTrades(),
		"scenarios", flag.NArg(),
	)

	// Interfaz nil explícita: un *SQLiteStorage nil no cuenta como "sin storage".
	var store ports.Storage
	if !*dryRun {
		db, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer db.Close()
		store = db
	}

	console := notify.NewConsole(cfg.Report.Table, cfg.Report.MaxRows)
	svc := flow.New(flow.Config{
		Validate: cfg.ValidateTrades(),
		Workers:  cfg.Flow.Workers,
	}, store, console)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case *history:
		runs, err := svc.History(ctx, cfg.HistoryWindow())
		if err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		console.PrintHistory(runs)
		return
	case *show != "":
		if _, err := svc.Show(ctx, *show); err != nil {
			slog.Error("show failed", "err", err, "run", *show)
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	scenarios := make([]domain.Scenario, 0, flag.NArg())
	for _, path := range flag.Args() {
		sc, err := scenario.Load(path)
		if err != nil {
			slog.Error("failed to load scenario", "err", err, "path", path)
			os.Exit(1)
		}
		scenarios = append(scenarios, sc)
	}

	runs, err := svc.RunAll(ctx, scenarios)
	if err != nil {
		slog.Error("some scenarios failed", "err", err, "ok", len(runs), "total", len(scenarios))
		os.Exit(1)
	}

	slog.Info("cashflow done", "runs", len(runs))
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
