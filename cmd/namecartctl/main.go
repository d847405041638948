package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"namecart/internal/app"
	"namecart/internal/cli"
	"namecart/internal/platform/config"
	"namecart/internal/platform/logger"
	authmw "namecart/pkg/platform/middleware/auth"
)

func main() {
	deps := cli.Deps{
		Backend: func(ctx context.Context) (cli.Backend, func(), error) {
			cfg, err := config.FromEnv()
			if err != nil {
				return nil, nil, err
			}
			log := logger.NewWithWriter(os.Stderr, cfg.Log.Level, "text")
			// Private registry: the CLI exposes no metrics endpoint.
			a, err := app.Build(ctx, cfg, log, prometheus.NewRegistry())
			if err != nil {
				return nil, nil, err
			}
			return a.Fulfillment, a.Close, nil
		},
		Tokens: func() (cli.TokenIssuer, error) {
			cfg, err := config.FromEnv()
			if err != nil {
				return nil, err
			}
			if cfg.DevMode() {
				return nil, errors.New("JWT_SIGNING_KEY is not set")
			}
			return authmw.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer), nil
		},
	}

	if err := cli.NewRootCommand(deps).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
