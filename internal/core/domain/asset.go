package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationMethod selects the allocation algorithm for an asset.
type DepreciationMethod string

const (
	StraightLine     DepreciationMethod = "STRAIGHT_LINE"
	DecliningBalance DepreciationMethod = "DECLINING_BALANCE"
	SumOfYears       DepreciationMethod = "SUM_OF_YEARS"
)

// Valid reports whether m is a known method.
func (m DepreciationMethod) Valid() bool {
	switch m {
	case StraightLine, DecliningBalance, SumOfYears:
		return true
	}
	return false
}

// AssetStatus is the lifecycle state of an asset.
type AssetStatus string

const (
	AssetActive   AssetStatus = "ACTIVE"
	AssetDisposed AssetStatus = "DISPOSED"
)

// Asset is a depreciable animal. PurchasePrice, SalvageValue, ServiceStartDate and
// DepreciationMethod are authoritative inputs; TotalDepreciation and CurrentValue are a
// read cache recomputed from the ledger after every write and never an independent source.
type Asset struct {
	AssetID              string             `json:"assetID"`
	TagNumber            string             `json:"tagNumber"`
	Name                 string             `json:"name"`
	PurchasePrice        decimal.Decimal    `json:"purchasePrice"`
	SalvageValue         decimal.Decimal    `json:"salvageValue"`
	ServiceStartDate     time.Time          `json:"serviceStartDate"` // freshen date
	DepreciationMethod   DepreciationMethod `json:"depreciationMethod"`
	Status               AssetStatus        `json:"status"`
	DispositionID        *string            `json:"dispositionID,omitempty"`
	TotalDepreciation    decimal.Decimal    `json:"totalDepreciation"`
	CurrentValue         decimal.Decimal    `json:"currentValue"`
	LastReconciledPeriod *Period            `json:"lastReconciledPeriod,omitempty"`
	AuditFields
}

// DepreciableAmount is purchase price less salvage value.
func (a Asset) DepreciableAmount() decimal.Decimal {
	return a.PurchasePrice.Sub(a.SalvageValue)
}

func (a Asset) IsDisposed() bool {
	return a.Status == AssetDisposed
}

// ServiceStartPeriod is the month the asset entered service.
func (a Asset) ServiceStartPeriod() Period {
	return PeriodOf(a.ServiceStartDate)
}
