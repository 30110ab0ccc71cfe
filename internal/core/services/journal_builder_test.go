package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/SscSPs/herd_ledger/internal/utils/accounting"
)

func linesByAccount(e domain.JournalEntry) map[string]domain.JournalLine {
	out := map[string]domain.JournalLine{}
	for _, l := range e.Lines {
		out[l.AccountCode] = l
	}
	return out
}

func TestJournalBuilder_Disposition(t *testing.T) {
	codes := config.DefaultAccountCodes()
	b := newJournalBuilder(codes)
	on := time.Date(2025, time.May, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		asset       domain.Asset
		dispType    domain.DispositionType
		sale        string
		accumulated string
		gainLoss    string
		want        map[string]string // account -> signed amount (debit positive)
		absent      []string
	}{
		{
			name:        "sale at a loss",
			asset:       domain.Asset{AssetID: "a1", PurchasePrice: decimal.RequireFromString("2500")},
			dispType:    domain.DispositionSale,
			sale:        "1800",
			accumulated: "500",
			gainLoss:    "-200",
			want:        map[string]string{codes.Cash: "1800.00", codes.AccumulatedDepreciation: "500.00", codes.LossOnSale: "200.00", codes.Asset: "-2500.00"},
			absent:      []string{codes.Gain},
		},
		{
			name:        "death without sale",
			asset:       domain.Asset{AssetID: "a2", PurchasePrice: decimal.RequireFromString("1000")},
			dispType:    domain.DispositionDeath,
			sale:        "0",
			accumulated: "700",
			gainLoss:    "-300",
			want:        map[string]string{codes.AccumulatedDepreciation: "700.00", codes.LossOnDeath: "300.00", codes.Asset: "-1000.00"},
			absent:      []string{codes.Cash, codes.Gain},
		},
		{
			name:        "sale at a gain",
			asset:       domain.Asset{AssetID: "a3", PurchasePrice: decimal.RequireFromString("2500")},
			dispType:    domain.DispositionSale,
			sale:        "2100",
			accumulated: "500",
			gainLoss:    "100",
			want:        map[string]string{codes.Cash: "2100.00", codes.AccumulatedDepreciation: "500.00", codes.Gain: "-100.00", codes.Asset: "-2500.00"},
		},
		{
			name:        "gain within a cent is dropped",
			asset:       domain.Asset{AssetID: "a4", PurchasePrice: decimal.RequireFromString("2500")},
			dispType:    domain.DispositionSale,
			sale:        "2000.01",
			accumulated: "500",
			gainLoss:    "0.01",
			want:        map[string]string{codes.Cash: "2000.01", codes.AccumulatedDepreciation: "500.00", codes.Asset: "-2500.00"},
			absent:      []string{codes.Gain},
		},
		{
			name:        "cull with nothing depreciated",
			asset:       domain.Asset{AssetID: "a5", PurchasePrice: decimal.RequireFromString("900")},
			dispType:    domain.DispositionCull,
			sale:        "0",
			accumulated: "0",
			gainLoss:    "-900",
			want:        map[string]string{codes.LossOnCull: "900.00", codes.Asset: "-900.00"},
			absent:      []string{codes.AccumulatedDepreciation, codes.Cash},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := b.BuildDisposition(DispositionInputs{
				Asset:                   tt.asset,
				Date:                    on,
				Type:                    tt.dispType,
				SaleAmount:              decimal.RequireFromString(tt.sale),
				AccumulatedDepreciation: decimal.RequireFromString(tt.accumulated),
				GainLoss:                decimal.RequireFromString(tt.gainLoss),
				CreatedBy:               "tester",
			})
			require.NoError(t, accounting.ValidateJournalBalance(entry))
			assert.Equal(t, domain.EntryDisposition, entry.EntryType)
			assert.Len(t, entry.Lines, len(tt.want))

			lines := linesByAccount(entry)
			for account, signed := range tt.want {
				line, ok := lines[account]
				require.True(t, ok, "missing line for %s", account)
				got, err := accounting.SignedAmount(line)
				require.NoError(t, err)
				assert.Equal(t, signed, got.StringFixed(2), "account %s", account)
				require.NotNil(t, line.AssetID)
				assert.Equal(t, tt.asset.AssetID, *line.AssetID)
				assert.Equal(t, entry.EntryID, line.EntryID)
			}
			for _, account := range tt.absent {
				_, ok := lines[account]
				assert.False(t, ok, "unexpected line for %s", account)
			}
		})
	}
}

func TestJournalBuilder_DepreciationAndAcquisition(t *testing.T) {
	codes := config.DefaultAccountCodes()
	b := newJournalBuilder(codes)
	asset := domain.Asset{AssetID: "a1", TagNumber: "US-001", PurchasePrice: decimal.RequireFromString("2500")}
	on := time.Date(2024, time.June, 30, 15, 4, 5, 0, time.UTC)

	dep := b.BuildDepreciation(asset, on, decimal.RequireFromString("33.333"), "Depreciation for 2024-06", systemActor)
	require.NoError(t, accounting.ValidateJournalBalance(dep))
	assert.Equal(t, time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC), dep.EntryDate)
	assert.Equal(t, "33.33", dep.TotalAmount.StringFixed(2))
	lines := linesByAccount(dep)
	assert.Equal(t, domain.Debit, lines[codes.DepreciationExpense].Side)
	assert.Equal(t, domain.Credit, lines[codes.AccumulatedDepreciation].Side)

	acq := b.BuildAcquisition(asset, on, "farmer")
	require.NoError(t, accounting.ValidateJournalBalance(acq))
	assert.Equal(t, "2500.00", acq.TotalAmount.StringFixed(2))
	assert.Equal(t, "farmer", acq.CreatedBy)
	lines = linesByAccount(acq)
	assert.Equal(t, domain.Debit, lines[codes.Asset].Side)
	assert.Equal(t, domain.Credit, lines[codes.Cash].Side)
}
