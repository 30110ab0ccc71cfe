package mapping

import (
	"time"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/models"
)

// ToModelAsset converts a domain Asset to a model Asset
func ToModelAsset(d domain.Asset) models.Asset {
	m := models.Asset{
		AssetID:            d.AssetID,
		TagNumber:          d.TagNumber,
		Name:               d.Name,
		PurchasePrice:      d.PurchasePrice,
		SalvageValue:       d.SalvageValue,
		ServiceStartDate:   d.ServiceStartDate,
		DepreciationMethod: string(d.DepreciationMethod),
		Status:             string(d.Status),
		DispositionID:      d.DispositionID,
		TotalDepreciation:  d.TotalDepreciation,
		CurrentValue:       d.CurrentValue,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
	m.LastReconciledYear, m.LastReconciledMonth = PeriodColumns(d.LastReconciledPeriod)
	return m
}

// ToDomainAsset converts a model Asset to a domain Asset
func ToDomainAsset(m models.Asset) domain.Asset {
	d := domain.Asset{
		AssetID:            m.AssetID,
		TagNumber:          m.TagNumber,
		Name:               m.Name,
		PurchasePrice:      m.PurchasePrice,
		SalvageValue:       m.SalvageValue,
		ServiceStartDate:   m.ServiceStartDate,
		DepreciationMethod: domain.DepreciationMethod(m.DepreciationMethod),
		Status:             domain.AssetStatus(m.Status),
		DispositionID:      m.DispositionID,
		TotalDepreciation:  m.TotalDepreciation,
		CurrentValue:       m.CurrentValue,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
	if m.LastReconciledYear != nil && m.LastReconciledMonth != nil {
		p := domain.NewPeriod(*m.LastReconciledYear, time.Month(*m.LastReconciledMonth))
		d.LastReconciledPeriod = &p
	}
	return d
}

// PeriodColumns splits an optional period into nullable year and month columns.
func PeriodColumns(p *domain.Period) (year, month *int) {
	if p == nil {
		return nil, nil
	}
	y, mo := p.Year, int(p.Month)
	return &y, &mo
}

// ToModelMonthlyRecord converts a domain MonthlyDepreciationRecord to its row model
func ToModelMonthlyRecord(d domain.MonthlyDepreciationRecord) models.MonthlyDepreciationRecord {
	return models.MonthlyDepreciationRecord{
		RecordID:         d.RecordID,
		AssetID:          d.AssetID,
		PeriodYear:       d.Period.Year,
		PeriodMonth:      int(d.Period.Month),
		Amount:           d.Amount,
		AccumulatedAfter: d.AccumulatedAfter,
		BookValueAfter:   d.BookValueAfter,
		JournalEntryID:   d.JournalEntryID,
		IsPartial:        d.IsPartial,
		CreatedAt:        d.CreatedAt,
	}
}

// ToDomainMonthlyRecord converts a row model to a domain MonthlyDepreciationRecord
func ToDomainMonthlyRecord(m models.MonthlyDepreciationRecord) domain.MonthlyDepreciationRecord {
	return domain.MonthlyDepreciationRecord{
		RecordID:         m.RecordID,
		AssetID:          m.AssetID,
		Period:           domain.NewPeriod(m.PeriodYear, time.Month(m.PeriodMonth)),
		Amount:           m.Amount,
		AccumulatedAfter: m.AccumulatedAfter,
		BookValueAfter:   m.BookValueAfter,
		JournalEntryID:   m.JournalEntryID,
		IsPartial:        m.IsPartial,
		CreatedAt:        m.CreatedAt,
	}
}

// ToModelDisposition converts a domain DispositionRecord to its row model
func ToModelDisposition(d domain.DispositionRecord) models.Disposition {
	return models.Disposition{
		DispositionID:    d.DispositionID,
		AssetID:          d.AssetID,
		DispositionDate:  d.DispositionDate,
		DispositionType:  string(d.DispositionType),
		SaleAmount:       d.SaleAmount,
		FinalBookValue:   d.FinalBookValue,
		GainLoss:         d.GainLoss,
		JournalEntryID:   d.JournalEntryID,
		AlgorithmVersion: d.AlgorithmVersion,
		Notes:            d.Notes,
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
	}
}

// ToDomainDisposition converts a row model to a domain DispositionRecord
func ToDomainDisposition(m models.Disposition) domain.DispositionRecord {
	return domain.DispositionRecord{
		DispositionID:    m.DispositionID,
		AssetID:          m.AssetID,
		DispositionDate:  m.DispositionDate,
		DispositionType:  domain.DispositionType(m.DispositionType),
		SaleAmount:       m.SaleAmount,
		FinalBookValue:   m.FinalBookValue,
		GainLoss:         m.GainLoss,
		JournalEntryID:   m.JournalEntryID,
		AlgorithmVersion: m.AlgorithmVersion,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		CreatedBy:        m.CreatedBy,
	}
}
