package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/kmodctl/internal/logging"
	"github.com/danmuck/kmodctl/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &gateFlags{}
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve module inspection and verification over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if cfg, err = flags.apply(cfg); err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			gin.SetMode(gin.ReleaseMode)
			routeLog := logging.NewInfoWriter(log.Logger.With().Str("component", "gin").Logger())
			defer routeLog.Flush()
			gin.DefaultWriter = routeLog

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			v, known := cfg.Runtime().RuntimeVersion()
			log.Info().
				Str("strategy", cfg.Strategy().String()).
				Bool("runtime_known", known).
				Str("runtime_version", v).
				Msg("starting module server")
			return server.New(cfg, log.Logger).Serve(ctx)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")
	return cmd
}
