package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Disposition is a row of the dispositions table, unique on asset_id.
type Disposition struct {
	DispositionID    string          `json:"dispositionID"`
	AssetID          string          `json:"assetID"`
	DispositionDate  time.Time       `json:"dispositionDate"`
	DispositionType  string          `json:"dispositionType"`
	SaleAmount       decimal.Decimal `json:"saleAmount"`
	FinalBookValue   decimal.Decimal `json:"finalBookValue"`
	GainLoss         decimal.Decimal `json:"gainLoss"`
	JournalEntryID   string          `json:"journalEntryID"`
	AlgorithmVersion int             `json:"algorithmVersion"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}
