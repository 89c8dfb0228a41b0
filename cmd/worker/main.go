package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orris-inc/coinpayable/internal/interfaces/cli/bootstrap"
)

// The worker runs the scheduled jobs without the HTTP API.
func main() {
	opts := bootstrap.Options{Env: os.Getenv("ENV")}
	if len(os.Args) > 1 {
		opts.Env = os.Args[1]
	}
	opts.ConfigPath = os.Getenv("COINPAY_CONFIG")

	app, err := bootstrap.Start(opts)
	if err != nil {
		fmt.Printf("failed to start worker: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	log := app.Log

	if err := app.Container.StartScheduler(); err != nil {
		log.Errorw("failed to start scheduler", "error", err)
		return
	}
	log.Infow("reconciliation worker started",
		"reconcile_interval", app.Config.Payments.ReconcileInterval,
		"rate_refresh_interval", app.Config.Rates.RefreshInterval,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	log.Infow("received signal, shutting down", "signal", sig.String())
}
