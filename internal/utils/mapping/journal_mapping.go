package mapping

import (
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:     d.EntryID,
		AssetID:     d.AssetID,
		EntryDate:   d.EntryDate,
		EntryType:   string(d.EntryType),
		Description: d.Description,
		TotalAmount: d.TotalAmount,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry without lines
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:     m.EntryID,
		AssetID:     m.AssetID,
		EntryDate:   m.EntryDate,
		EntryType:   domain.EntryType(m.EntryType),
		Description: m.Description,
		TotalAmount: m.TotalAmount,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountCode: d.AccountCode,
		Side:        string(d.Side),
		Amount:      d.Amount,
		AssetID:     d.AssetID,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountCode: m.AccountCode,
		Side:        domain.Side(m.Side),
		Amount:      m.Amount,
		AssetID:     m.AssetID,
	}
}
