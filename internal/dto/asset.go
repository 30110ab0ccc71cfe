package dto

import (
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAssetRequest defines the data needed to register a newly acquired animal.
type CreateAssetRequest struct {
	TagNumber          string                    `json:"tagNumber" binding:"required"`
	Name               string                    `json:"name"`
	PurchasePrice      decimal.Decimal           `json:"purchasePrice" binding:"positive_money"`
	SalvageValue       *decimal.Decimal          `json:"salvageValue,omitempty" binding:"omitempty,nonnegative_money"` // defaults to the configured salvage percentage
	ServiceStartDate   Date                      `json:"serviceStartDate"`
	DepreciationMethod domain.DepreciationMethod `json:"depreciationMethod" binding:"omitempty,oneof=STRAIGHT_LINE DECLINING_BALANCE SUM_OF_YEARS"`
	AcquisitionDate    *Date                     `json:"acquisitionDate,omitempty"` // defaults to ServiceStartDate
}

// AssetResponse defines the data returned for an asset.
type AssetResponse struct {
	AssetID              string          `json:"assetID"`
	TagNumber            string          `json:"tagNumber"`
	Name                 string          `json:"name"`
	PurchasePrice        decimal.Decimal `json:"purchasePrice"`
	SalvageValue         decimal.Decimal `json:"salvageValue"`
	ServiceStartDate     Date            `json:"serviceStartDate"`
	DepreciationMethod   string          `json:"depreciationMethod"`
	Status               string          `json:"status"`
	DispositionID        *string         `json:"dispositionID,omitempty"`
	TotalDepreciation    decimal.Decimal `json:"totalDepreciation"`
	CurrentValue         decimal.Decimal `json:"currentValue"`
	LastReconciledPeriod *string         `json:"lastReconciledPeriod,omitempty"`
}

// AcquireAssetResult is returned by AcquireAsset.
type AcquireAssetResult struct {
	Asset        domain.Asset        `json:"asset"`
	JournalEntry domain.JournalEntry `json:"journalEntry"`
}

// ToAssetResponse converts a domain.Asset to AssetResponse DTO.
func ToAssetResponse(a *domain.Asset) AssetResponse {
	resp := AssetResponse{
		AssetID:            a.AssetID,
		TagNumber:          a.TagNumber,
		Name:               a.Name,
		PurchasePrice:      a.PurchasePrice,
		SalvageValue:       a.SalvageValue,
		ServiceStartDate:   NewDate(a.ServiceStartDate),
		DepreciationMethod: string(a.DepreciationMethod),
		Status:             string(a.Status),
		DispositionID:      a.DispositionID,
		TotalDepreciation:  a.TotalDepreciation,
		CurrentValue:       a.CurrentValue,
	}
	if a.LastReconciledPeriod != nil {
		p := a.LastReconciledPeriod.String()
		resp.LastReconciledPeriod = &p
	}
	return resp
}
