package dto

import (
	"github.com/shopspring/decimal"
)

// ReconcileAssetRequest carries the as-of date for a single-asset catch-up.
type ReconcileAssetRequest struct {
	AsOfDate *Date `json:"asOfDate,omitempty"` // defaults to today
}

// ReconcileResult is returned by ReconcileAsset.
type ReconcileResult struct {
	AssetID                 string          `json:"assetID"`
	PeriodsCreated          int             `json:"periodsCreated"`
	EntriesCreated          []string        `json:"entriesCreated"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulatedDepreciation"`
	CurrentValue            decimal.Decimal `json:"currentValue"`
	FullyDepreciated        bool            `json:"fullyDepreciated"`
}

// BatchReconcileResult summarises a batch run.
type BatchReconcileResult struct {
	AsOfDate       Date              `json:"asOfDate"`
	AssetsScanned  int               `json:"assetsScanned"`
	AssetsSkipped  int               `json:"assetsSkipped"`
	PeriodsCreated int               `json:"periodsCreated"`
	EntriesCreated int               `json:"entriesCreated"`
	Failures       map[string]string `json:"failures,omitempty"` // assetID -> error
}
