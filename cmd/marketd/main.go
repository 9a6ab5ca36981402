package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nftmarket/config"
	"nftmarket/crypto"
	"nftmarket/events"
	"nftmarket/market"
	"nftmarket/observability"
	"nftmarket/observability/logging"
	"nftmarket/payments"
	"nftmarket/registry"
	"nftmarket/rpc"
	"nftmarket/state"
	"nftmarket/storage"
)

// meteredEmitter forwards engine events to the bus and counts them for the
// metrics endpoint.
type meteredEmitter struct {
	bus *events.Bus
}

func (m meteredEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	observability.Events().RecordEvent(evt.EventType())
	m.bus.Emit(evt)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger := logging.Setup("marketd", cfg.Environment)

	if err := config.Validate(cfg); err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	escrowAddr, err := crypto.DecodeAddress(cfg.EscrowAddress)
	if err != nil {
		logger.Error("Invalid escrow address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	assets := registry.NewCollection()
	book := payments.NewBook()
	bus := events.NewBus(cfg.EventHistory)

	engine := market.NewEngine()
	engine.SetState(state.NewManager(db))
	engine.SetRegistry(assets)
	engine.SetPaymaster(book)
	engine.SetEmitter(meteredEmitter{bus: bus})
	engine.SetEscrowAddress(escrowAddr.Array())

	server := rpc.NewServer(engine, assets, book, bus, logger)
	httpServer := &http.Server{
		Addr:         cfg.RPCAddress,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.RPCReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.RPCWriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.RPCIdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting JSON-RPC server",
			slog.String("address", cfg.RPCAddress),
			slog.String("escrow", cfg.EscrowAddress),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("RPC server failed", slog.Any("error", err))
		os.Exit(1)
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.Any("error", err))
	}
}
