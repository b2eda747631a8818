package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/alagbefranc/goldtrading-signal/internal/executor"
	"github.com/alagbefranc/goldtrading-signal/internal/interfaces"
	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/marketdata"
	"github.com/alagbefranc/goldtrading-signal/internal/mt5"
	"github.com/alagbefranc/goldtrading-signal/internal/mt5/mt5obs"
	"github.com/alagbefranc/goldtrading-signal/internal/retry"
	"github.com/alagbefranc/goldtrading-signal/internal/signal"
	"github.com/alagbefranc/goldtrading-signal/internal/store"
	"github.com/alagbefranc/goldtrading-signal/internal/trace"
	"github.com/alagbefranc/goldtrading-signal/internal/tradelog"
)

// initializeSystem initializes env, logger, and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// compressOldLogs compresses old journal files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			logger.Warn(ctx, "invalid TRADER_LOG_RETENTION_DAYS", "value", v)
			return
		}
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "failed to compress old journals", "error", err.Error())
		}
	}
}

// buildGateway constructs the market data gateway from config and env keys
func buildGateway(ctx context.Context, cfg *store.Config) *marketdata.Gateway {
	keys := cfg.Keys()
	if keys.AlphaVantage == "" {
		logger.Warn(ctx, "no Alpha Vantage key configured, primary provider disabled",
			"env", cfg.Providers.AlphaVantageKeyEnv)
	}
	return marketdata.NewGateway(cfg, keys)
}

// buildConnector constructs the broker session with observability. The
// in-process terminal binding only exists where the terminal runs natively,
// so the facade is the reachable transport here.
func buildConnector(ctx context.Context, cfg *store.Config) interfaces.Connector {
	conn := mt5.NewConnector(ctx, mt5.Params{
		FacadeURL: cfg.MT5.FacadeURL,
		Terminal:  nil,
		Deviation: cfg.MT5.Deviation,
		Magic:     cfg.MT5.Magic,
	})
	return mt5obs.Wrap(conn)
}

// connectBroker walks the session state machine using credentials from env
func connectBroker(ctx context.Context, cfg *store.Config, conn interfaces.Connector) error {
	account, err := strconv.ParseInt(os.Getenv(cfg.MT5.AccountEnv), 10, 64)
	if err != nil {
		return fmt.Errorf("broker account from %s: %w", cfg.MT5.AccountEnv, err)
	}
	password := os.Getenv(cfg.MT5.PasswordEnv)
	server := os.Getenv(cfg.MT5.ServerEnv)
	if password == "" || server == "" {
		return fmt.Errorf("broker credentials missing, check %s and %s",
			cfg.MT5.PasswordEnv, cfg.MT5.ServerEnv)
	}

	if err := conn.Initialize(ctx); err != nil {
		return err
	}
	return conn.Login(ctx, account, password, server)
}

// buildManager wires the execution loop
func buildManager(ctx context.Context, cfg *store.Config, gateway *marketdata.Gateway, conn interfaces.Connector) (*executor.Manager, error) {
	synth := signal.NewSynthesizer(gateway, signal.Config{
		InvestmentUSD: cfg.Risk.InvestmentUSD,
		RiskPct:       cfg.Risk.RiskPct,
		DefaultLots:   cfg.Risk.DefaultLots,
		MinLot:        cfg.MT5.MinLot,
		PipValues:     cfg.PipValues,
	})

	windows := make([]executor.Window, 0, len(cfg.Schedule.Timezones))
	for _, tz := range cfg.Schedule.Timezones {
		w, err := executor.ParseWindow(tz, cfg.Schedule.WindowStart, cfg.Schedule.WindowEnd)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	return executor.NewManager(executor.Params{
		Symbol:       cfg.Symbol,
		Mode:         executor.Mode(cfg.Mode),
		PollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		Windows:      windows,
		Synthesizer:  synth,
		Connector:    conn,
		RetryPolicy:  retry.DefaultPolicy(),
		AutoTrade:    cfg.MT5.AutoTrade,
	}), nil
}
