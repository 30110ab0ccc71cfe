package dto

import (
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DisposeAssetRequest defines the data needed to retire an asset.
type DisposeAssetRequest struct {
	AssetID         string                 `json:"-"`
	DispositionDate Date                   `json:"dispositionDate"`
	Type            domain.DispositionType `json:"type" binding:"required,oneof=SALE DEATH CULLED"`
	SaleAmount      *decimal.Decimal       `json:"saleAmount,omitempty" binding:"omitempty,nonnegative_money"`
	Notes           string                 `json:"notes" binding:"max=1000"`
}

// DisposeResult is returned by DisposeAsset.
type DisposeResult struct {
	DispositionID  string          `json:"dispositionID"`
	JournalEntryID string          `json:"journalEntryID"`
	FinalBookValue decimal.Decimal `json:"finalBookValue"`
	GainLoss       decimal.Decimal `json:"gainLoss"`
}
