package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"photoedit/config"
	"photoedit/internal/mediator"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "photoedit-server",
	Short:        "Serve the photo editor in the browser",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
			log.SetLevel(level)
		} else {
			log.Warn("unknown log level, using info", "level", cfg.Log.Level)
		}
		log.SetReportTimestamp(true)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := mediator.NewApp(ctx, cfg)
		if err != nil {
			return err
		}

		errs := make(chan error, 1)
		go func() { errs <- app.Start(ctx) }()

		select {
		case err = <-errs:
			if err != nil {
				log.Error("server stopped", "err", err)
			}
		case <-ctx.Done():
			log.Info("shutting down")
		}

		if shutdownErr := app.Shutdown(); shutdownErr != nil {
			return shutdownErr
		}
		return err
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the yaml config")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
