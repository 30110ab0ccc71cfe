package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a journal entry by the transaction that produced it.
type EntryType string

const (
	EntryAcquisition  EntryType = "ACQUISITION"
	EntryDepreciation EntryType = "DEPRECIATION"
	EntryDisposition  EntryType = "DISPOSITION"
)

// Side indicates whether a journal line is a debit or a credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// JournalEntry is a balanced double-entry record. TotalAmount is the sum of one side.
type JournalEntry struct {
	EntryID     string          `json:"entryID"`
	EntryDate   time.Time       `json:"entryDate"`
	EntryType   EntryType       `json:"entryType"`
	Description string          `json:"description"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AssetID     string          `json:"assetID"`
	Lines       []JournalLine   `json:"lines"`
	AuditFields
}

// JournalLine is one side of a journal entry against a single account.
type JournalLine struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountCode string          `json:"accountCode"`
	Side        Side            `json:"side"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	AssetID     *string         `json:"assetID,omitempty"`
}

// Totals returns the debit and credit sums of the entry's lines.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	for _, l := range e.Lines {
		if l.Side == Debit {
			debits = debits.Add(l.Amount)
		} else {
			credits = credits.Add(l.Amount)
		}
	}
	return debits, credits
}
