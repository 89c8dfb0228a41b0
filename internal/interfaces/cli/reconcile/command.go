package reconcile

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orris-inc/coinpayable/internal/application/payment/usecases"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/bootstrap"
)

var (
	opts      bootstrap.Options
	paymentID uint
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass",
		Long: `Reconcile every pending payment against its blockchain once and print the summary.
With --payment-id only that payment's transactions are fetched and merged.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&opts.Env, "env", "e", "", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().UintVar(&paymentID, "payment-id", 0, "Refresh a single payment instead of running the batch")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.Start(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := execute(ctx, app)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func execute(ctx context.Context, app *bootstrap.App) (any, error) {
	if paymentID != 0 {
		app.Log.Infow("refreshing payment", "payment_id", paymentID)
		return app.Container.RefreshPayment().Execute(ctx, usecases.RefreshPaymentCommand{PaymentID: paymentID})
	}

	app.Log.Infow("running reconciliation pass")
	return app.Container.ReconcilePayments().Execute(ctx)
}
