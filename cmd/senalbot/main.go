package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/frandmz/senalbot/config"
	"github.com/frandmz/senalbot/internal/adapters/mt5"
	"github.com/frandmz/senalbot/internal/adapters/notify"
	"github.com/frandmz/senalbot/internal/adapters/storage"
	"github.com/frandmz/senalbot/internal/adapters/telegram"
	"github.com/frandmz/senalbot/internal/assistant"
	"github.com/frandmz/senalbot/internal/chain"
	"github.com/frandmz/senalbot/internal/ports"
	"github.com/frandmz/senalbot/internal/registry"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log orders instead of sending them to the MT5 gateway")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables on list (default: compact 1-line)")
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
	setupLogger(cfg.Log)

	slog.Info("senalbot starting",
		"config", *configPath,
		"chat_id", cfg.Telegram.ChatID,
		"gateway", cfg.Trading.GatewayBase,
		"dry_run", *dryRun,
	)

	tg := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	var exec ports.OrderExecutor
	if *dryRun {
		exec = &dryRunExecutor{}
	} else {
		exec = mt5.NewClient(cfg.Trading.GatewayBase)
	}

	var journal ports.ActionJournal
	if !*dryRun {
		j, err := storage.NewSQLiteJournal(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer j.Close()
		journal = j
	}

	notifier := notify.NewConsole(*table)

	asstCfg := assistant.DefaultConfig()
	asstCfg.Volume = cfg.Trading.Volume
	asstCfg.CloseRetries = cfg.Trading.CloseRetries
	asstCfg.CloseRetryDelay = cfg.CloseRetryDelay()

	a := assistant.New(asstCfg, registry.New(), chain.NewResolver(tg.Cache()), exec, journal, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx, tg.Stream(ctx)); err != nil {
		slog.Error("assistant exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("senalbot stopped cleanly")
}

// dryRunExecutor loguea las órdenes sin tocar el gateway, repartiendo
// tickets ficticios para que el ciclo de vida completo sea observable.
type dryRunExecutor struct {
	next atomic.Int64
}

func (d *dryRunExecutor) PlaceMarketOrder(_ context.Context, req ports.MarketOrderRequest) (int64, error) {
	ticket := d.next.Add(1)
	slog.Info("[dry-run] market order",
		"symbol", string(req.Symbol), "side", string(req.Side),
		"volume", req.Volume, "ticket", ticket)
	return ticket, nil
}

func (d *dryRunExecutor) CloseOrder(_ context.Context, ticket int64) error {
	slog.Info("[dry-run] close order", "ticket", ticket)
	return nil
}

func (d *dryRunExecutor) MoveStopToEntry(_ context.Context, ticket int64) error {
	slog.Info("[dry-run] move stop to entry", "ticket", ticket)
	return nil
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
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
