package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/dto"
)

var disposeCmd = &cobra.Command{
	Use:   "dispose ASSET_ID",
	Short: "Record the sale, death or cull of an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDispose,
}

func init() {
	disposeCmd.Flags().String("date", "", "Disposition date (YYYY-MM-DD)")
	disposeCmd.Flags().String("type", string(domain.DispositionSale), "SALE, DEATH or CULLED")
	disposeCmd.Flags().String("sale-amount", "", "Proceeds received, if any")
	disposeCmd.Flags().String("notes", "", "Free-text notes")
	disposeCmd.Flags().String("actor", "system", "Recorded as the creator of the disposition")
	_ = disposeCmd.MarkFlagRequired("date")
}

func runDispose(cmd *cobra.Command, args []string) error {
	rawDate, _ := cmd.Flags().GetString("date")
	rawType, _ := cmd.Flags().GetString("type")
	rawSale, _ := cmd.Flags().GetString("sale-amount")
	notes, _ := cmd.Flags().GetString("notes")
	actor, _ := cmd.Flags().GetString("actor")

	date, err := dto.ParseDate(rawDate)
	if err != nil {
		return err
	}
	req := dto.DisposeAssetRequest{
		AssetID:         args[0],
		DispositionDate: date,
		Type:            domain.DispositionType(rawType),
		Notes:           notes,
	}
	if rawSale != "" {
		sale, err := decimal.NewFromString(rawSale)
		if err != nil {
			return fmt.Errorf("invalid --sale-amount %q: %w", rawSale, err)
		}
		req.SaleAmount = &sale
	}

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.services.Depreciation.DisposeAsset(cmd.Context(), req, actor)
	if err != nil {
		return fmt.Errorf("dispose failed: %w", err)
	}
	return printJSON(result)
}
