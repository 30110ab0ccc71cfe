package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/herd_ledger/internal/dto"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Catch up monthly depreciation",
	Long: `Posts every missing month of depreciation up to, but excluding, the month of
--as-of. Without --asset every active asset is reconciled; the run is safe to
interrupt and repeat.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().String("asset", "", "Reconcile only this asset ID")
	reconcileCmd.Flags().String("as-of", "", "As-of date (YYYY-MM-DD), defaults to today")
}

// parseAsOf reads the --as-of flag, defaulting to today's UTC date.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return dto.NewDate(time.Now().UTC()).Time, nil
	}
	d, err := dto.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	assetID, _ := cmd.Flags().GetString("asset")
	rawAsOf, _ := cmd.Flags().GetString("as-of")
	asOf, err := parseAsOf(rawAsOf)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	var result any
	if assetID != "" {
		result, err = app.services.Depreciation.ReconcileAsset(ctx, assetID, asOf)
	} else {
		result, err = app.services.Depreciation.BatchReconcile(ctx, asOf)
	}
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
