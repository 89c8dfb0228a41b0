package rates

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/coinpayable/internal/interfaces/cli/bootstrap"
)

var opts bootstrap.Options

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Conversion rate tools",
	}

	cmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", "", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch and store the latest conversion rate of every enabled coin",
		RunE:  runRefresh,
	})

	return cmd
}

func runRefresh(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.Start(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	stored, err := app.Container.UpdateConversionRates().Execute(cmd.Context())
	if err != nil {
		return fmt.Errorf("rate refresh failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "stored %d conversion rates\n", stored)
	return nil
}
