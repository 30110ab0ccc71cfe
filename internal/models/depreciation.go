package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyDepreciationRecord is a row of the monthly_depreciation table, unique on (asset_id, period_year, period_month).
type MonthlyDepreciationRecord struct {
	RecordID         string          `json:"recordID"`
	AssetID          string          `json:"assetID"`
	PeriodYear       int             `json:"periodYear"`
	PeriodMonth      int             `json:"periodMonth"`
	Amount           decimal.Decimal `json:"amount"`
	AccumulatedAfter decimal.Decimal `json:"accumulatedAfter"`
	BookValueAfter   decimal.Decimal `json:"bookValueAfter"`
	JournalEntryID   string          `json:"journalEntryID"`
	IsPartial        bool            `json:"isPartial"`
	CreatedAt        time.Time       `json:"createdAt"`
}
