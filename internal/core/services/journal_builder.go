package services

import (
	"fmt"
	"time"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// journalBuilder turns depreciation events into balanced journal entries over a chart of accounts.
// It assigns ids but performs no validation; callers run the result through ValidateEntry.
type journalBuilder struct {
	accounts config.AccountCodes
	now      func() time.Time
}

func newJournalBuilder(accounts config.AccountCodes) journalBuilder {
	return journalBuilder{accounts: accounts, now: time.Now}
}

// DispositionInputs are the figures a disposition entry is built from.
type DispositionInputs struct {
	Asset                   domain.Asset
	Date                    time.Time
	Type                    domain.DispositionType
	SaleAmount              decimal.Decimal
	AccumulatedDepreciation decimal.Decimal
	GainLoss                decimal.Decimal
	CreatedBy               string
}

func (b journalBuilder) newEntry(assetID string, date time.Time, entryType domain.EntryType, description, createdBy string) domain.JournalEntry {
	now := b.now().UTC()
	return domain.JournalEntry{
		EntryID:     uuid.NewString(),
		EntryDate:   domain.DateOnly(date),
		EntryType:   entryType,
		Description: description,
		AssetID:     assetID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     createdBy,
			LastUpdatedAt: now,
			LastUpdatedBy: createdBy,
		},
	}
}

func (b journalBuilder) addLine(entry *domain.JournalEntry, accountCode string, side domain.Side, amount decimal.Decimal) {
	assetID := entry.AssetID
	entry.Lines = append(entry.Lines, domain.JournalLine{
		LineID:      uuid.NewString(),
		EntryID:     entry.EntryID,
		AccountCode: accountCode,
		Side:        side,
		Amount:      money.RoundToCent(amount),
		AssetID:     &assetID,
	})
}

func finalizeTotal(entry *domain.JournalEntry) {
	debits, _ := entry.Totals()
	entry.TotalAmount = money.RoundToCent(debits)
}

// BuildAcquisition debits the asset account and credits cash for the purchase price.
func (b journalBuilder) BuildAcquisition(asset domain.Asset, date time.Time, createdBy string) domain.JournalEntry {
	entry := b.newEntry(asset.AssetID, date, domain.EntryAcquisition,
		fmt.Sprintf("Acquisition of %s", asset.TagNumber), createdBy)
	b.addLine(&entry, b.accounts.Asset, domain.Debit, asset.PurchasePrice)
	b.addLine(&entry, b.accounts.Cash, domain.Credit, asset.PurchasePrice)
	finalizeTotal(&entry)
	return entry
}

// BuildDepreciation debits depreciation expense and credits accumulated depreciation.
func (b journalBuilder) BuildDepreciation(asset domain.Asset, date time.Time, amount decimal.Decimal, description, createdBy string) domain.JournalEntry {
	entry := b.newEntry(asset.AssetID, date, domain.EntryDepreciation, description, createdBy)
	b.addLine(&entry, b.accounts.DepreciationExpense, domain.Debit, amount)
	b.addLine(&entry, b.accounts.AccumulatedDepreciation, domain.Credit, amount)
	finalizeTotal(&entry)
	return entry
}

// BuildDisposition removes the asset from the books. Lines with a zero amount are left out,
// and the gain or loss line is only added when it exceeds one cent.
func (b journalBuilder) BuildDisposition(in DispositionInputs) domain.JournalEntry {
	entry := b.newEntry(in.Asset.AssetID, in.Date, domain.EntryDisposition,
		fmt.Sprintf("Disposition (%s) of %s", in.Type, in.Asset.TagNumber), in.CreatedBy)

	if in.SaleAmount.IsPositive() {
		b.addLine(&entry, b.accounts.Cash, domain.Debit, in.SaleAmount)
	}
	if in.AccumulatedDepreciation.IsPositive() {
		b.addLine(&entry, b.accounts.AccumulatedDepreciation, domain.Debit, in.AccumulatedDepreciation)
	}
	b.addLine(&entry, b.accounts.Asset, domain.Credit, in.Asset.PurchasePrice)

	gainLoss := money.RoundToCent(in.GainLoss)
	if gainLoss.Abs().GreaterThan(money.Cent) {
		if gainLoss.IsPositive() {
			b.addLine(&entry, b.accounts.Gain, domain.Credit, gainLoss)
		} else {
			b.addLine(&entry, b.accounts.LossAccountFor(in.Type), domain.Debit, gainLoss.Abs())
		}
	}

	finalizeTotal(&entry)
	return entry
}
