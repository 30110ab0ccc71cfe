package dto

import (
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of an entry submitted for validation.
type JournalLineRequest struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Side        domain.Side     `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount      decimal.Decimal `json:"amount"`
	AssetID     *string         `json:"assetID,omitempty"`
}

// ValidateEntryRequest wraps an entry for the validate endpoint.
type ValidateEntryRequest struct {
	EntryDate   Date                 `json:"entryDate"`
	EntryType   domain.EntryType     `json:"entryType" binding:"omitempty,oneof=ACQUISITION DEPRECIATION DISPOSITION"`
	Description string               `json:"description"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,dive"`
}

// ToDomain converts the request into an unsaved journal entry.
func (r ValidateEntryRequest) ToDomain() domain.JournalEntry {
	entry := domain.JournalEntry{
		EntryDate:   r.EntryDate.Time,
		EntryType:   r.EntryType,
		Description: r.Description,
		Lines:       make([]domain.JournalLine, len(r.Lines)),
	}
	for i, l := range r.Lines {
		entry.Lines[i] = domain.JournalLine{AccountCode: l.AccountCode, Side: l.Side, Amount: l.Amount, AssetID: l.AssetID}
	}
	return entry
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID      string          `json:"lineID"`
	AccountCode string          `json:"accountCode"`
	Side        string          `json:"side"`
	Amount      decimal.Decimal `json:"amount"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID     string                `json:"entryID"`
	EntryDate   Date                  `json:"entryDate"`
	EntryType   string                `json:"entryType"`
	Description string                `json:"description"`
	TotalAmount decimal.Decimal       `json:"totalAmount"`
	Lines       []JournalLineResponse `json:"lines"`
}

// MonthlyRecordResponse defines the data returned for a monthly depreciation record.
type MonthlyRecordResponse struct {
	Period           string          `json:"period"`
	Amount           decimal.Decimal `json:"amount"`
	AccumulatedAfter decimal.Decimal `json:"accumulatedAfter"`
	BookValueAfter   decimal.Decimal `json:"bookValueAfter"`
	JournalEntryID   string          `json:"journalEntryID"`
	IsPartial        bool            `json:"isPartial"`
}

// FiscalYearTotal is depreciation posted within one fiscal year.
type FiscalYearTotal struct {
	FiscalYear   int             `json:"fiscalYear"`
	Depreciation decimal.Decimal `json:"depreciation"`
}

// AssetLedgerResponse is the full ledger view of one asset.
type AssetLedgerResponse struct {
	Asset          AssetResponse             `json:"asset"`
	Entries        []JournalEntryResponse    `json:"entries"`
	MonthlyRecords []MonthlyRecordResponse   `json:"monthlyRecords"`
	FiscalYears    []FiscalYearTotal         `json:"fiscalYears"`
	Disposition    *domain.DispositionRecord `json:"disposition,omitempty"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{LineID: l.LineID, AccountCode: l.AccountCode, Side: string(l.Side), Amount: l.Amount}
	}
	return JournalEntryResponse{
		EntryID:     e.EntryID,
		EntryDate:   NewDate(e.EntryDate),
		EntryType:   string(e.EntryType),
		Description: e.Description,
		TotalAmount: e.TotalAmount,
		Lines:       lines,
	}
}

// ToMonthlyRecordResponses converts monthly records to DTOs.
func ToMonthlyRecordResponses(records []domain.MonthlyDepreciationRecord) []MonthlyRecordResponse {
	out := make([]MonthlyRecordResponse, len(records))
	for i, r := range records {
		out[i] = MonthlyRecordResponse{
			Period:           r.Period.String(),
			Amount:           r.Amount,
			AccumulatedAfter: r.AccumulatedAfter,
			BookValueAfter:   r.BookValueAfter,
			JournalEntryID:   r.JournalEntryID,
			IsPartial:        r.IsPartial,
		}
	}
	return out
}
