package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/coinpayable/internal/interfaces/cli/bootstrap"
)

var (
	opts          bootstrap.Options
	withScheduler bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the payment API server. By default the reconciliation and rate refresh jobs run in the same process.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&opts.AutoMigrate, "auto-migrate", false, "Run database migrations on startup")
	cmd.Flags().BoolVar(&withScheduler, "scheduler", true, "Run the periodic reconciliation jobs in this process")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" && opts.Env == "" {
		opts.Env = envVar
	}

	app, err := bootstrap.Start(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	log := app.Log
	cfg := app.Config

	app.Container.SetupRoutes()

	if withScheduler {
		if err := app.Container.StartScheduler(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      app.Container.GetEngine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Payments.FetchTimeout,
		IdleTimeout:  60 * time.Second,
	}
	if srv.WriteTimeout < 15*time.Second {
		srv.WriteTimeout = 15 * time.Second
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode,
			"scheduler", withScheduler,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infow("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		log.Errorw("server failed", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}
