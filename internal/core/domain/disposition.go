package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispositionType is the reason an asset left service.
type DispositionType string

const (
	DispositionSale  DispositionType = "SALE"
	DispositionDeath DispositionType = "DEATH"
	DispositionCull  DispositionType = "CULLED"
)

// Valid reports whether t is a known disposition type.
func (t DispositionType) Valid() bool {
	switch t {
	case DispositionSale, DispositionDeath, DispositionCull:
		return true
	}
	return false
}

// DispositionRecord finalises an asset's life. At most one exists per asset.
type DispositionRecord struct {
	DispositionID    string          `json:"dispositionID"`
	AssetID          string          `json:"assetID"`
	DispositionDate  time.Time       `json:"dispositionDate"`
	DispositionType  DispositionType `json:"dispositionType"`
	SaleAmount       decimal.Decimal `json:"saleAmount"`
	FinalBookValue   decimal.Decimal `json:"finalBookValue"`
	GainLoss         decimal.Decimal `json:"gainLoss"` // SaleAmount - FinalBookValue
	JournalEntryID   string          `json:"journalEntryID"`
	AlgorithmVersion int             `json:"algorithmVersion"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}
