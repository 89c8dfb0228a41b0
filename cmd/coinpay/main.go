package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/coinpayable/internal/interfaces/cli/events"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/migrate"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/rates"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/reconcile"
	"github.com/orris-inc/coinpayable/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "coinpay",
		Short: "Coinpay - cryptocurrency payment reconciliation",
		Long: `Coinpay issues deposit addresses for payables, watches their blockchains and
notifies the payable as payments move through their lifecycle.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		reconcile.NewCommand(),
		rates.NewCommand(),
		events.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
