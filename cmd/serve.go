package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edigermatthew/wonder-alt/host/app"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string, build app.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the media library HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			conf, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			application, err := app.NewFromConfig(ctx, conf, build)
			if err != nil {
				return err
			}
			if err := application.Start(ctx); err != nil {
				_ = application.Shutdown(context.Background())
				return err
			}

			<-ctx.Done()

			timeout := time.Duration(conf.GetInt("ShutdownTimeoutSec")) * time.Second
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), timeout)
			defer stop()
			return application.Shutdown(shutdownCtx)
		},
	}
}
