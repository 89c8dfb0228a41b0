package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/coinpayable/internal/infrastructure/pubsub"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/bootstrap"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream payment state transitions",
		Long:  `Subscribe to the payment transition channel and print one JSON line per event. Requires redis.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.Start(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	bus := app.Container.EventBus()
	if bus == nil {
		return fmt.Errorf("redis is disabled, enable redis to stream payment events")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())
	err = bus.Subscribe(ctx, func(_ context.Context, event pubsub.PaymentTransitionEvent) {
		if err := enc.Encode(event); err != nil {
			app.Log.Warnw("failed to write event", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
