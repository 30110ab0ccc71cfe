package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a row of the assets table.
type Asset struct {
	AssetID             string          `json:"assetID"`
	TagNumber           string          `json:"tagNumber"`
	Name                string          `json:"name"`
	PurchasePrice       decimal.Decimal `json:"purchasePrice"`
	SalvageValue        decimal.Decimal `json:"salvageValue"`
	ServiceStartDate    time.Time       `json:"serviceStartDate"`
	DepreciationMethod  string          `json:"depreciationMethod"`
	Status              string          `json:"status"`
	DispositionID       *string         `json:"dispositionID"`
	TotalDepreciation   decimal.Decimal `json:"totalDepreciation"`
	CurrentValue        decimal.Decimal `json:"currentValue"`
	LastReconciledYear  *int            `json:"lastReconciledYear"`  // nullable, paired with LastReconciledMonth
	LastReconciledMonth *int            `json:"lastReconciledMonth"` // nullable
	AuditFields
}
