package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entledger/config"
	"entledger/core/events"
	"entledger/ledger"
	"entledger/observability/logging"
	"entledger/rpc"
	"entledger/storage"
)

func main() {
	configPath := flag.String("config", "./entd.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("entd", "").Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Setup("entd", cfg.Environment)

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		logger.Error("open store", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	recorder := &events.Recorder{}
	book, err := loadOrConstruct(cfg, store, recorder)
	if err != nil {
		logger.Error("initialise ledger", "err", err)
		os.Exit(1)
	}

	server := rpc.NewServer(book, recorder, store, logger)
	if err := server.JournalPending(); err != nil {
		logger.Error("persist genesis snapshot", "err", err)
		os.Exit(1)
	}

	limiter := rpc.NewRateLimiter(rpc.RateLimit{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Burst:             cfg.RateLimitBurst,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddress,
			"token", book.Symbol(), "owner", book.Owner().String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stopped")
}

// loadOrConstruct restores the ledger from the persisted snapshot when one
// exists, otherwise constructs a fresh ledger from the genesis configuration.
func loadOrConstruct(cfg *config.Config, store *storage.Store, recorder *events.Recorder) (*ledger.Ledger, error) {
	snapshot, ok, err := store.Snapshot()
	if err != nil {
		return nil, err
	}
	if ok {
		return ledger.Restore(snapshot, recorder)
	}

	owner, set, err := cfg.ParseGenesisOwner()
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, errors.New("GenesisOwner must be configured to construct a fresh ledger")
	}
	supply, err := cfg.ParseInitialSupply()
	if err != nil {
		return nil, err
	}
	return ledger.Construct(owner, supply, cfg.TokenName, cfg.TokenSymbol, cfg.TokenDecimals, recorder), nil
}
