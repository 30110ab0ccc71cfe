package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyDepreciationRecord is the audit trail of one posted month for one asset.
// It is immutable; a correction is a delete followed by a recreate.
type MonthlyDepreciationRecord struct {
	RecordID         string          `json:"recordID"`
	AssetID          string          `json:"assetID"`
	Period           Period          `json:"period"`
	Amount           decimal.Decimal `json:"amount"`
	AccumulatedAfter decimal.Decimal `json:"accumulatedAfter"`
	BookValueAfter   decimal.Decimal `json:"bookValueAfter"`
	JournalEntryID   string          `json:"journalEntryID"`
	IsPartial        bool            `json:"isPartial"`
	CreatedAt        time.Time       `json:"createdAt"`
}
