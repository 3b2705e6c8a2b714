// Command lendingd serves the lending engine's governance and position HTTP
// surface over chi, backed by an in-memory reference state/ledger pair.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ledgermint/lendingcore/internal/config"
	"github.com/ledgermint/lendingcore/internal/httpapi"
	"github.com/ledgermint/lendingcore/internal/obslog"
	"github.com/ledgermint/lendingcore/native/lending"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to lendingd TOML config (defaults to compiled-in defaults)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := obslog.Setup(cfg.Observability.ServiceName, cfg.Observability.Environment, obslog.FileRotation{})

	state := lending.NewMemoryState()
	prices := httpapi.NewPushedPriceFeed()
	oracle := lending.NewOracleAdapter(prices, prices)
	ledger := httpapi.NewMemoryLedger()
	selfID := deriveSelfID()

	engine := lending.NewEngine(state, oracle, ledger, selfID)
	engine.SetEmitter(httpapi.LogEmitter{Logger: logger})

	if strings.TrimSpace(cfg.Lending.GovernanceAuthorityHex) != "" {
		authority, err := parseHexID(cfg.Lending.GovernanceAuthorityHex)
		if err != nil {
			log.Fatalf("parse governance authority: %v", err)
		}
		if err := engine.InitializeMarketConfig(authority); err != nil {
			logger.Warn("initialize market config", "error", err)
		}
	}

	app := &httpapi.App{
		Engine: engine,
		State:  state,
		Ledger: ledger,
		Prices: prices,
		Logger: logger,
	}
	auth := httpapi.NewAuthenticator(cfg.Auth, logger)
	limiter := httpapi.NewRateLimiter(cfg.RateLimit)
	router := httpapi.NewRouter(app, auth, limiter)

	server := &http.Server{
		Addr:         cfg.HTTP.ListenAddress,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("lendingd listening", "addr", cfg.HTTP.ListenAddress)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve http: %v", err)
		}
	}
}

// deriveSelfID derives the engine's own identity for the flash loan
// reentrancy guard from a fixed domain string, since this engine has no
// signing key of its own.
func deriveSelfID() lending.ID {
	sum := sha256.Sum256([]byte("lendingd:engine"))
	id, _ := lending.IDFromBytes(sum[:])
	return id
}

func parseHexID(value string) (lending.ID, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return lending.ID{}, fmt.Errorf("governance authority hex: %w", err)
	}
	return lending.IDFromBytes(raw)
}
