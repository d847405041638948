package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"namecart/internal/app"
	fulfillmenthandler "namecart/internal/fulfillment/handler"
	"namecart/internal/platform/config"
	"namecart/internal/platform/httpserver"
	"namecart/internal/platform/logger"
	"namecart/internal/ratelimit"
	reservationhandler "namecart/internal/reservation/handler"
	httptransport "namecart/internal/transport/http"
	authmw "namecart/pkg/platform/middleware/auth"
)

// main wires configuration, backends and the HTTP router, then runs the
// server next to the reconcile scheduler and the outbox relay until a signal
// arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("error", "json").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	deps := httptransport.Deps{
		Logger:         log,
		AdminTokenHash: cfg.Admin.TokenHash,
		Health:         a.Health,
	}
	if !cfg.DevMode() {
		deps.Validator = authmw.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	} else {
		log.Warn("JWT_SIGNING_KEY not set, running in development mode")
	}
	if a.RateLimits != nil {
		deps.RateLimit = ratelimit.PerWallet(a.RateLimits, cfg.RateLimit.Requests, cfg.RateLimit.Window, log)
	}
	fulfillment := fulfillmenthandler.New(a.Fulfillment, log, cfg.DevMode())
	deps.Modules = []httptransport.Registrar{
		reservationhandler.New(a.Reservations, log, cfg.DevMode()),
		fulfillment,
	}
	deps.Admin = []httptransport.AdminRegistrar{fulfillment}

	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting namecart", "addr", cfg.Server.Addr)
		return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		return ignoreCanceled(a.Scheduler.Run(gctx))
	})
	if a.Relay != nil {
		g.Go(func() error {
			return ignoreCanceled(a.Relay.Run(gctx))
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
