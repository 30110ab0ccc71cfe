package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "herd_ledger",
	Short: "Depreciation ledger for dairy herds",
	Long: `herd_ledger keeps a double-entry ledger of dairy cows as depreciable assets.
It catches up monthly depreciation on demand, posts disposals with their
gain or loss, and serves the same operations over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(disposeCmd)
}
