package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GyroTools/prms-connector-go/internals/mockapi"
)

func newMockServerCommand(a *app) *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory PRMS api for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mockapi.New(
				mockapi.WithUser(a.cfg.MockUsername, a.cfg.MockPassword),
				mockapi.WithSigningKey(a.cfg.MockSigningKey),
				mockapi.WithLogger(a.logger),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- server.Start(a.cfg.MockAddr) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			a.logger.Info().Msg("shutting down mock PRMS api")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "maximum time to wait for graceful shutdown")
	return cmd
}
