package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID     string          `json:"entryID"`
	AssetID     string          `json:"assetID"`
	EntryDate   time.Time       `json:"entryDate"`
	EntryType   string          `json:"entryType"`
	Description string          `json:"description"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AuditFields
}

// JournalLine is a row of the journal_lines table.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountCode string          `json:"accountCode"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"` // positive
	AssetID     *string         `json:"assetID"`
}
