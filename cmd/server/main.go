package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamehub/auth"
	"gamehub/contract"
	"gamehub/game"
	"gamehub/internal"
	"gamehub/moderation"
	"gamehub/observability"
	"gamehub/repositories"
	"gamehub/runtime"
	"gamehub/runtime/workers"
	serverhttp "gamehub/server/http"
	serverws "gamehub/server/ws"
	"gamehub/services"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main is a thin wrapper: run() does the work and main translates the
	// outcome into an OS exit code, so deferred cleanup always executes.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	cfg, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	logger := internal.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Core runtime: metrics, event bus, registry, gate
	metrics := observability.NewMetrics()
	bus := runtime.NewBus(logger)
	registry := runtime.NewRegistry(logger, bus, metrics)

	tokens := auth.NewTokenManager(cfg.JWTSecret, "gamehub", cfg.TokenDuration)
	gate := runtime.NewGate(logger, registry, tokens, bus, metrics)

	// 3. Game routing, with the chat game as the shipped logic
	censor, err := moderation.NewDefaultCensor(cfg.Replacement())
	if err != nil {
		return exitRuntime, fmt.Errorf("loading moderation wordlist: %w", err)
	}

	factory := func(gameID string, sender contract.Sender) contract.Game {
		return game.NewChatGame(gameID, sender, censor.Apply, logger)
	}
	router := runtime.NewRouter(logger, registry, factory, cfg.GameQueueSize, cfg.ShutdownTimeout, metrics)
	bus.Subscribe(router)
	defer router.StopAll()

	// 4. Account layer
	userRepository := repositories.NewInMemoryUserRepository()
	authService := services.NewAuthService(userRepository, tokens)

	// 5. HTTP surface: REST plus the websocket endpoint
	wsHandler := serverws.NewHandler(logger, registry, gate, cfg.SendBufferSize, cfg.RequireHandshakeAuth)
	restServer := serverhttp.NewServer(logger, authService, router, cfg.TokenDuration)

	mux := http.NewServeMux()
	restServer.Register(mux, wsHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 6. Background workers under supervision
	supervisor := workers.NewSupervisor(logger, cfg.RestartInterval).
		Add(workers.NewTelemetryWorker(logger, cfg.MetricInterval, metrics))

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// 7. Wait for shutdown signal or server failure
	select {
	case err := <-serverErr:
		return exitRuntime, fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown overran, closing", "error", err)
		_ = httpServer.Close()
	}

	supervisor.Stop()
	<-supervisorDone

	logger.Info("Goodbye")
	return exitOK, nil
}
