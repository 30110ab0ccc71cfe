// Package depreciation computes monthly depreciation amounts and the schedule of months an
// asset is eligible for. Everything here is a pure function of its inputs: no clock, no store.
package depreciation

import (
	"fmt"
	"time"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	"github.com/shopspring/decimal"
)

// DefaultUsefulLifeYears is used when configuration does not provide a value.
const DefaultUsefulLifeYears = 5

// Inputs are the per-asset values a monthly calculation needs.
type Inputs struct {
	AssetID          string
	PurchasePrice    decimal.Decimal
	SalvageValue     decimal.Decimal
	ServiceStartDate time.Time
	Method           domain.DepreciationMethod
	// CurrentBookValue is required for declining-balance only; that method is fed forward month by month.
	CurrentBookValue *decimal.Decimal
	AsOfDate         time.Time
}

// InputsFor builds Inputs from an asset.
func InputsFor(a domain.Asset, asOf time.Time) Inputs {
	return Inputs{
		AssetID:          a.AssetID,
		PurchasePrice:    a.PurchasePrice,
		SalvageValue:     a.SalvageValue,
		ServiceStartDate: a.ServiceStartDate,
		Method:           a.DepreciationMethod,
		AsOfDate:         asOf,
	}
}

// Calculator computes depreciation for a configured useful life.
type Calculator struct {
	DefaultYears int
}

// NewCalculator returns a Calculator, falling back to DefaultUsefulLifeYears for non-positive years.
func NewCalculator(defaultYears int) Calculator {
	if defaultYears <= 0 {
		defaultYears = DefaultUsefulLifeYears
	}
	return Calculator{DefaultYears: defaultYears}
}

// TotalMonths is the useful life in months.
func (c Calculator) TotalMonths() int {
	return c.DefaultYears * 12
}

// Validate rejects inputs the caller must fix.
func (c Calculator) Validate(in Inputs) error {
	if in.PurchasePrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: purchase price must be positive, got %s", apperrors.ErrValidation, in.PurchasePrice)
	}
	if in.SalvageValue.IsNegative() {
		return fmt.Errorf("%w: salvage value must not be negative, got %s", apperrors.ErrValidation, in.SalvageValue)
	}
	if in.SalvageValue.GreaterThanOrEqual(in.PurchasePrice) {
		return fmt.Errorf("%w: salvage value %s must be less than purchase price %s", apperrors.ErrValidation, in.SalvageValue, in.PurchasePrice)
	}
	if !in.Method.Valid() {
		return fmt.Errorf("%w: unknown depreciation method %q", apperrors.ErrValidation, in.Method)
	}
	if !in.AsOfDate.IsZero() && domain.DateOnly(in.ServiceStartDate).After(domain.DateOnly(in.AsOfDate)) {
		return fmt.Errorf("%w: service start date %s is after %s", apperrors.ErrValidation,
			in.ServiceStartDate.Format(time.DateOnly), in.AsOfDate.Format(time.DateOnly))
	}
	return nil
}

// MonthlyAmount returns the full-month depreciation for period, rounded to cents.
// It does not clamp against salvage value; callers accumulating a history do that.
func (c Calculator) MonthlyAmount(in Inputs, period domain.Period) (decimal.Decimal, error) {
	if err := c.Validate(in); err != nil {
		return decimal.Zero, err
	}
	depreciable := in.PurchasePrice.Sub(in.SalvageValue)
	totalMonths := decimal.NewFromInt(int64(c.TotalMonths()))

	switch in.Method {
	case domain.StraightLine:
		return money.RoundToCent(depreciable.Div(totalMonths)), nil

	case domain.DecliningBalance:
		if in.CurrentBookValue == nil {
			return decimal.Zero, apperrors.NewCalculationError(in.AssetID, period.String(),
				"declining-balance requires the current book value")
		}
		// bookValue x (2/years) / 12
		rate := decimal.NewFromInt(2).Div(totalMonths)
		return money.RoundToCent(in.CurrentBookValue.Mul(rate)), nil

	case domain.SumOfYears:
		n := int64(c.TotalMonths())
		elapsed := int64(period.MonthsSince(domain.PeriodOf(in.ServiceStartDate)))
		if elapsed < 0 {
			return decimal.Zero, nil
		}
		remaining := n - elapsed
		if remaining < 0 {
			remaining = 0
		}
		sumOfDigits := decimal.NewFromInt(n * (n + 1) / 2)
		return money.RoundToCent(depreciable.Mul(decimal.NewFromInt(remaining)).Div(sumOfDigits)), nil
	}

	return decimal.Zero, fmt.Errorf("%w: unknown depreciation method %q", apperrors.ErrValidation, in.Method)
}

// PartialMonthAmount prorates a full month's amount up to and including date's day of month,
// using date's own calendar month length.
func PartialMonthAmount(fullMonthAmount decimal.Decimal, date time.Time) decimal.Decimal {
	return CalculatePartialMonthDepreciation(fullMonthAmount, date.Day(), domain.PeriodOf(date).DaysInMonth())
}

// CalculatePartialMonthDepreciation returns fullMonthAmount x dayOfMonth / daysInMonth, rounded to cents.
func CalculatePartialMonthDepreciation(fullMonthAmount decimal.Decimal, dayOfMonth, daysInMonth int) decimal.Decimal {
	if daysInMonth <= 0 {
		return decimal.Zero
	}
	return money.RoundToCent(fullMonthAmount.
		Mul(decimal.NewFromInt(int64(dayOfMonth))).
		Div(decimal.NewFromInt(int64(daysInMonth))))
}
