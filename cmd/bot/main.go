package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/alagbefranc/goldtrading-signal/internal/logger"
	"github.com/alagbefranc/goldtrading-signal/internal/store"
	"github.com/alagbefranc/goldtrading-signal/internal/trace"
)

func main() {
	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		log.Fatal(err)
	}

	compressOldLogs(ctx)

	gateway := buildGateway(ctx, cfg)
	conn := buildConnector(ctx, cfg)
	defer func() {
		if err := conn.Shutdown(context.Background()); err != nil {
			logger.Warn(context.Background(), "broker shutdown failed", "error", err.Error())
		}
	}()

	if cfg.Mode == "LIVE" {
		if err := connectBroker(ctx, cfg, conn); err != nil {
			logger.ErrorWithErr(ctx, "Broker connection failed", err)
			log.Fatal(err)
		}
	} else {
		logger.Info(ctx, "DRY_RUN mode, broker login skipped")
	}

	mgr, err := buildManager(ctx, cfg, gateway, conn)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to build execution manager", err)
		log.Fatal(err)
	}

	logger.Info(ctx, "Bot started", "symbol", cfg.Symbol, "mode", cfg.Mode)
	if err := mgr.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorWithErr(ctx, "Execution loop exited", err)
	}

	if err := trace.Shutdown(context.Background()); err != nil {
		logger.Warn(context.Background(), "tracer shutdown failed", "error", err.Error())
	}
}
