// Package main runs the token deep-link service: an HTTP API that builds
// unsigned token transactions, gates them through security validation and
// rate limiting, and hands back wallet deep links plus confirmation
// tracking for broadcast signatures.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-token-forge/internal/composer"
	"solana-token-forge/internal/confirm"
	"solana-token-forge/internal/deeplink"
	"solana-token-forge/internal/orchestrator"
	"solana-token-forge/internal/pinning"
	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/ratelimit"
	"solana-token-forge/internal/security"
	"solana-token-forge/internal/solana"
	"solana-token-forge/internal/storage"
	chstore "solana-token-forge/internal/storage/clickhouse"
	"solana-token-forge/internal/storage/memory"
	"solana-token-forge/internal/storage/migrations"
	pgstore "solana-token-forge/internal/storage/postgres"

	"flag"
)

// allStores holds all storage implementations.
type allStores struct {
	tokenRecordStore storage.TokenRecordStore
	auditEventStore  storage.AuditEventStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, enables push confirmations)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	walletScheme := flag.String("wallet-scheme", envOr("WALLET_SCHEME", deeplink.DefaultScheme), "Deep-link wallet scheme")
	allowProgram := flag.String("allow-program", os.Getenv("ALLOW_PROGRAM"), "Comma-separated extra program IDs on the security allow-list")
	feeFloor := flag.Uint64("fee-floor-lamports", composer.DefaultFeeFloorLamports, "Required balance cushion beyond mint rent")
	rateRequests := flag.Int("rate-limit-requests", 5, "Requests allowed per user per window")
	rateInterval := flag.Duration("rate-limit-interval", time.Minute, "Rate-limit window length")
	confirmRetries := flag.Int("confirm-retries", 3, "Confirmation polling attempts")
	pinataURL := flag.String("pinata-url", envOr("PINATA_API_URL", "https://api.pinata.cloud"), "Pinning service base URL")
	pinataJWT := flag.String("pinata-jwt", os.Getenv("PINATA_JWT"), "Pinning service bearer token (optional, enables image pinning)")
	smartContract := flag.String("smart-contract", os.Getenv("SMART_CONTRACT_PROGRAM"), "Lockup program ID (optional, enables disable-selling)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// RPC client
	rpc := solana.NewHTTPClient(*rpcEndpoint)

	// Security allow-list: baseline programs plus configured extras.
	allowed := security.DefaultAllowedPrograms()
	var contractKey pubkey.Pubkey
	if *smartContract != "" {
		contractKey, err = pubkey.FromBase58(*smartContract)
		if err != nil {
			logger.Fatalf("Invalid --smart-contract: %v", err)
		}
		allowed = append(allowed, contractKey)
	}
	for _, raw := range strings.Split(*allowProgram, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		pk, err := pubkey.FromBase58(raw)
		if err != nil {
			logger.Fatalf("Invalid --allow-program entry %q: %v", raw, err)
		}
		allowed = append(allowed, pk)
	}

	// Confirmation poller, with optional WebSocket fast path.
	confirmCfg := confirm.DefaultConfig()
	confirmCfg.MaxAttempts = *confirmRetries
	pollerOpts := []confirm.PollerOption{
		confirm.WithLogger(log.New(os.Stdout, "[confirm] ", log.LstdFlags)),
	}
	if *wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Printf("WebSocket connect failed, falling back to polling only: %v", err)
		} else {
			defer ws.Close()
			pollerOpts = append(pollerOpts, confirm.WithWatcher(ws))
		}
	}

	// Optional image pinning.
	var pinner *pinning.Client
	if *pinataJWT != "" {
		pinner = pinning.NewClient(*pinataURL, *pinataJWT,
			pinning.WithLogger(log.New(os.Stdout, "[pinning] ", log.LstdFlags)))
	}

	orch := orchestrator.New(orchestrator.Options{
		Limiter: ratelimit.New(ratelimit.Config{
			Requests: *rateRequests,
			Interval: *rateInterval,
		}),
		Composer: composer.New(rpc, composer.Config{
			FeeFloorLamports:      *feeFloor,
			SmartContractProgram:  contractKey,
			IncludeDisableSelling: !contractKey.IsZero(),
			Logger:                log.New(os.Stdout, "[composer] ", log.LstdFlags),
		}),
		Validator: security.NewValidator(security.Config{
			AllowedPrograms: allowed,
			Logger:          log.New(os.Stdout, "[security] ", log.LstdFlags),
		}),
		Encoder:          deeplink.NewEncoder(*walletScheme),
		Poller:           confirm.NewPoller(rpc, confirmCfg, pollerOpts...),
		TokenRecordStore: stores.tokenRecordStore,
		AuditEventStore:  stores.auditEventStore,
		Pinner:           pinner,
		Logger:           logger,
	})

	srv := newHTTPServer(*listenAddr, orch, logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", *listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		logger.Fatalf("HTTP server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
	cancel()
	logger.Println("Shutdown complete")
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			tokenRecordStore: memory.NewTokenRecordStore(),
			auditEventStore:  memory.NewAuditEventStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		tokenRecordStore: pgstore.NewTokenRecordStore(pool),
		auditEventStore:  chstore.NewAuditEventStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// envOr returns the environment value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
