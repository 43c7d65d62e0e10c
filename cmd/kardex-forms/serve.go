package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-kardex/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			logger := env.logger
			logger.Info().Str("port", env.cfg.Port).Str("env", env.cfg.Env).Msg("starting kardex-forms")

			opts := server.Options{
				Orchestrator: env.newOrchestrator(),
				Logger:       logger,
			}
			if env.client != nil {
				opts.Directory = env.client
			} else {
				logger.Warn().Msg("KARDEX_BASE_URL not set; patient lookups are disabled")
			}

			srv, err := server.New(opts)
			if err != nil {
				return err
			}

			errs := make(chan error, 1)
			go func() {
				errs <- srv.Start(":" + env.cfg.Port)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errs:
				return err
			case <-quit:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
}
