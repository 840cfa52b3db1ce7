package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"alxtravel/internal/infra/config"
	ginserver "alxtravel/internal/infra/http/gin"
	"alxtravel/internal/infra/obs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("alxtravel stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("alxtravel stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(logger)

	if err := loadListingFixtures(ctx, fixturesPath(), st.listings, cfg.Currency, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err)
	}

	relay, closeProducer, err := newRelay(cfg, st.outbox, logger)
	if err != nil {
		return err
	}
	defer closeProducer()

	app := buildApplication(cfg, st, relay, logger)
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: st.checks}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}
