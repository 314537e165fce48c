package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GyroTools/prms-connector-go/internals/config"
	"github.com/GyroTools/prms-connector-go/internals/logging"
	"github.com/GyroTools/prms-connector-go/prms"
)

// app carries what every subcommand needs once the root has been set up.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	closer io.Closer
	prms   *prms.Prms

	out io.Writer
	in  io.Reader
}

func main() {
	root := newRootCommand(os.Stdout, os.Stdin)
	if err := root.Execute(); err != nil {
		if errors.Is(err, prms.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Your session has expired, please run `prms login` again.")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	a := &app{out: out, in: in}
	var apiURL, logLevel string

	cmd := &cobra.Command{
		Use:           "prms",
		Short:         "Command line client for the Patient Records Management System",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger, a.closer = logging.New(cfg)

			p, err := prms.NewFromConfig(cfg, prms.WithLogger(a.logger))
			if err != nil {
				return err
			}
			p.OnSessionChange(func(authenticated bool) {
				if !authenticated {
					a.logger.Info().Msg("session ended")
				}
			})
			a.prms = p
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "base url of the PRMS api (overrides PRMS_API_URL)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides PRMS_LOG_LEVEL)")

	cmd.AddCommand(
		newLoginCommand(a),
		newLogoutCommand(a),
		newStatusCommand(a),
		newPatientsCommand(a),
		newVisitsCommand(a),
		newPrescriptionsCommand(a),
		newReportsCommand(a),
		newMockServerCommand(a),
	)
	return cmd
}
