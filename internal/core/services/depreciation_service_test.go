package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/core/services"
	"github.com/SscSPs/herd_ledger/internal/dto"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/SscSPs/herd_ledger/internal/platform/metrics"
	"github.com/SscSPs/herd_ledger/internal/repositories/database/memory"
)

var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// callbackPublisher runs onPublish before recording each event.
type callbackPublisher struct {
	recordingPublisher
	onPublish func(event events.Event)
}

func (p *callbackPublisher) Publish(ctx context.Context, key string, event events.Event) error {
	if p.onPublish != nil {
		p.onPublish(event)
	}
	return p.recordingPublisher.Publish(ctx, key, event)
}

type DepreciationServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	cfg       *config.Config
	store     *memory.Store
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	svc       portssvc.DepreciationSvcFacade
}

func (suite *DepreciationServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.cfg = config.Default()
	suite.store = memory.NewStore()
	suite.publisher = &recordingPublisher{}
	suite.metrics = metrics.New(prometheus.NewRegistry())
	suite.svc = services.NewDepreciationService(suite.store, suite.cfg,
		services.WithEventPublisher(suite.publisher),
		services.WithMetrics(suite.metrics),
		services.WithClock(func() time.Time { return date(2026, time.January, 1) }),
	)
}

func (suite *DepreciationServiceTestSuite) acquire(tag, price, salvage string, start time.Time, method domain.DepreciationMethod) string {
	s := dec(salvage)
	res, err := suite.svc.AcquireAsset(suite.ctx, dto.CreateAssetRequest{
		TagNumber:          tag,
		PurchasePrice:      dec(price),
		SalvageValue:       &s,
		ServiceStartDate:   dto.NewDate(start),
		DepreciationMethod: method,
	}, "farmer")
	suite.Require().NoError(err)
	return res.Asset.AssetID
}

// assertLedgerConsistent checks the cached totals against ledger sums, that every entry balances,
// and that accumulated depreciation never exceeds the depreciable amount.
func (suite *DepreciationServiceTestSuite) assertLedgerConsistent(assetID string) {
	codes := suite.cfg.AccountCodes
	asset, err := suite.store.FindAssetByID(suite.ctx, assetID)
	suite.Require().NoError(err)

	accCredits, err := suite.store.SumCreditsForAsset(suite.ctx, assetID, codes.AccumulatedDepreciation, farFuture)
	suite.Require().NoError(err)
	accDebits, err := suite.store.SumDebitsForAsset(suite.ctx, assetID, codes.AccumulatedDepreciation, farFuture)
	suite.Require().NoError(err)
	assetDebits, err := suite.store.SumDebitsForAsset(suite.ctx, assetID, codes.Asset, farFuture)
	suite.Require().NoError(err)
	assetCredits, err := suite.store.SumCreditsForAsset(suite.ctx, assetID, codes.Asset, farFuture)
	suite.Require().NoError(err)

	suite.True(asset.TotalDepreciation.Equal(accCredits), "cached total %s, ledger %s", asset.TotalDepreciation, accCredits)
	expectedCurrent := assetDebits.Sub(assetCredits).Sub(accCredits.Sub(accDebits))
	suite.True(asset.CurrentValue.Equal(expectedCurrent), "cached current %s, ledger %s", asset.CurrentValue, expectedCurrent)
	suite.True(accCredits.LessThanOrEqual(asset.DepreciableAmount()), "accumulated %s exceeds depreciable", accCredits)

	entries, err := suite.store.ListJournalEntriesForAsset(suite.ctx, assetID)
	suite.Require().NoError(err)
	for _, e := range entries {
		debits, credits := e.Totals()
		suite.True(debits.Equal(credits), "entry %s (%s) unbalanced: %s vs %s", e.EntryID, e.EntryType, debits, credits)
		suite.NoError(suite.svc.ValidateEntry(e))
	}

	records, err := suite.store.ListMonthlyRecords(suite.ctx, assetID)
	suite.Require().NoError(err)
	prev := decimal.Zero
	for _, r := range records {
		suite.True(r.AccumulatedAfter.GreaterThanOrEqual(prev), "accumulated decreased at %s", r.Period)
		prev = r.AccumulatedAfter
	}
}

func (suite *DepreciationServiceTestSuite) records(assetID string) []domain.MonthlyDepreciationRecord {
	records, err := suite.store.ListMonthlyRecords(suite.ctx, assetID)
	suite.Require().NoError(err)
	return records
}

func (suite *DepreciationServiceTestSuite) entriesOfType(assetID string, t domain.EntryType) []domain.JournalEntry {
	entries, err := suite.store.ListJournalEntriesForAsset(suite.ctx, assetID)
	suite.Require().NoError(err)
	var out []domain.JournalEntry
	for _, e := range entries {
		if e.EntryType == t {
			out = append(out, e)
		}
	}
	return out
}

// --- Acquisition ---

func (suite *DepreciationServiceTestSuite) TestAcquireAsset_PostsAcquisitionEntry() {
	res, err := suite.svc.AcquireAsset(suite.ctx, dto.CreateAssetRequest{
		TagNumber:        "US-001",
		Name:             "Daisy",
		PurchasePrice:    dec("2500"),
		ServiceStartDate: dto.NewDate(date(2023, time.January, 15)),
	}, "farmer")
	suite.Require().NoError(err)

	suite.Equal(domain.StraightLine, res.Asset.DepreciationMethod)
	suite.Equal("500.00", res.Asset.SalvageValue.StringFixed(2))
	suite.Equal(domain.EntryAcquisition, res.JournalEntry.EntryType)
	suite.Require().Len(res.JournalEntry.Lines, 2)
	suite.Equal(suite.cfg.AccountCodes.Asset, res.JournalEntry.Lines[0].AccountCode)
	suite.Equal(domain.Debit, res.JournalEntry.Lines[0].Side)
	suite.Equal(suite.cfg.AccountCodes.Cash, res.JournalEntry.Lines[1].AccountCode)
	suite.Equal(domain.Credit, res.JournalEntry.Lines[1].Side)

	asset, err := suite.svc.GetAsset(suite.ctx, res.Asset.AssetID)
	suite.Require().NoError(err)
	suite.Equal("2500.00", asset.CurrentValue.StringFixed(2))
	suite.True(asset.TotalDepreciation.IsZero())
	suite.assertLedgerConsistent(asset.AssetID)
}

func (suite *DepreciationServiceTestSuite) TestAcquireAsset_Validation() {
	cases := map[string]dto.CreateAssetRequest{
		"salvage equals price":  {TagNumber: "A", PurchasePrice: dec("100"), SalvageValue: ptr(dec("100")), ServiceStartDate: dto.NewDate(date(2024, 1, 1))},
		"negative price":        {TagNumber: "B", PurchasePrice: dec("-1"), ServiceStartDate: dto.NewDate(date(2024, 1, 1))},
		"negative salvage":      {TagNumber: "C", PurchasePrice: dec("100"), SalvageValue: ptr(dec("-1")), ServiceStartDate: dto.NewDate(date(2024, 1, 1))},
		"unknown method":        {TagNumber: "D", PurchasePrice: dec("100"), ServiceStartDate: dto.NewDate(date(2024, 1, 1)), DepreciationMethod: "UNITS"},
		"missing service start": {TagNumber: "E", PurchasePrice: dec("100")},
		"missing tag":           {PurchasePrice: dec("100"), ServiceStartDate: dto.NewDate(date(2024, 1, 1))},
		"acquired after start": {TagNumber: "F", PurchasePrice: dec("100"), ServiceStartDate: dto.NewDate(date(2024, 1, 1)),
			AcquisitionDate: ptr(dto.NewDate(date(2024, 2, 1)))},
	}
	for name, req := range cases {
		_, err := suite.svc.AcquireAsset(suite.ctx, req, "farmer")
		suite.Truef(errors.Is(err, apperrors.ErrValidation), "%s: got %v", name, err)
	}
	ids, err := suite.store.ListActiveAssetIDs(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(ids)
}

func (suite *DepreciationServiceTestSuite) TestAcquireAsset_DuplicateTagConflicts() {
	suite.acquire("US-001", "2500", "500", date(2024, 1, 1), domain.StraightLine)
	_, err := suite.svc.AcquireAsset(suite.ctx, dto.CreateAssetRequest{
		TagNumber: "US-001", PurchasePrice: dec("900"), ServiceStartDate: dto.NewDate(date(2024, 1, 1)),
	}, "farmer")
	suite.True(errors.Is(err, apperrors.ErrConflict))
}

// --- Catch-up ---

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_ConsolidatesMissingMonths() {
	id := suite.acquire("US-001", "2500", "500", date(2024, time.January, 1), domain.StraightLine)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.July, 15))
	suite.Require().NoError(err)
	suite.Equal(6, res.PeriodsCreated)
	suite.Len(res.EntriesCreated, 1)
	suite.Equal("199.98", res.AccumulatedDepreciation.StringFixed(2))
	suite.Equal("2300.02", res.CurrentValue.StringFixed(2))

	deps := suite.entriesOfType(id, domain.EntryDepreciation)
	suite.Require().Len(deps, 1)
	suite.True(date(2024, time.June, 30).Equal(deps[0].EntryDate))
	suite.Equal("199.98", deps[0].TotalAmount.StringFixed(2))

	records := suite.records(id)
	suite.Require().Len(records, 6)
	for i, r := range records {
		suite.Equal(domain.NewPeriod(2024, time.Month(i+1)), r.Period)
		suite.Equal("33.33", r.Amount.StringFixed(2))
		suite.Equal(deps[0].EntryID, r.JournalEntryID)
		suite.False(r.IsPartial)
	}
	suite.Equal("2300.02", records[5].BookValueAfter.StringFixed(2))

	asset, err := suite.svc.GetAsset(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Require().NotNil(asset.LastReconciledPeriod)
	suite.Equal(domain.NewPeriod(2024, time.June), *asset.LastReconciledPeriod)
	suite.assertLedgerConsistent(id)

	reconciled := suite.publisher.ofType(events.TypeAssetReconciled)
	suite.Require().Len(reconciled, 1)
	suite.Equal(id, reconciled[0].AssetID)
	suite.Equal(6.0, testutil.ToFloat64(suite.metrics.PeriodsCreated))
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_Idempotent() {
	id := suite.acquire("US-001", "2500", "500", date(2023, time.January, 15), domain.StraightLine)
	asOf := date(2024, time.March, 3)

	first, err := suite.svc.ReconcileAsset(suite.ctx, id, asOf)
	suite.Require().NoError(err)
	suite.Equal(14, first.PeriodsCreated)

	second, err := suite.svc.ReconcileAsset(suite.ctx, id, asOf)
	suite.Require().NoError(err)
	suite.Equal(0, second.PeriodsCreated)
	suite.Empty(second.EntriesCreated)
	suite.True(first.AccumulatedDepreciation.Equal(second.AccumulatedDepreciation))
	suite.Len(suite.entriesOfType(id, domain.EntryDepreciation), 1)
	suite.Len(suite.publisher.ofType(events.TypeAssetReconciled), 1)
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_IncrementalRunsOnlyFillNewMonths() {
	id := suite.acquire("US-001", "2500", "500", date(2024, time.January, 10), domain.StraightLine)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.February, 10))
	suite.Require().NoError(err)
	suite.Equal(1, res.PeriodsCreated)

	res, err = suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.May, 1))
	suite.Require().NoError(err)
	suite.Equal(3, res.PeriodsCreated)
	suite.Equal("133.32", res.AccumulatedDepreciation.StringFixed(2))

	deps := suite.entriesOfType(id, domain.EntryDepreciation)
	suite.Require().Len(deps, 2)
	suite.Equal("Depreciation for 2024-01", deps[0].Description)
	suite.True(date(2024, time.April, 30).Equal(deps[1].EntryDate))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_ClampsAtSalvage() {
	id := suite.acquire("SMALL", "200", "100", date(2020, time.January, 1), domain.StraightLine)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2025, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal(60, res.PeriodsCreated)
	suite.Equal("100.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.Equal("100.00", res.CurrentValue.StringFixed(2))
	suite.True(res.FullyDepreciated)

	records := suite.records(id)
	suite.Require().Len(records, 60)
	suite.Equal("1.67", records[0].Amount.StringFixed(2))
	suite.Equal("1.47", records[59].Amount.StringFixed(2))
	suite.Equal("100.00", records[59].BookValueAfter.StringFixed(2))

	res, err = suite.svc.ReconcileAsset(suite.ctx, id, date(2025, time.June, 1))
	suite.Require().NoError(err)
	suite.Equal(0, res.PeriodsCreated)
	suite.True(res.FullyDepreciated)
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_FullLifeEqualsDepreciableAmount() {
	id := suite.acquire("US-001", "2500", "500", date(2023, time.January, 15), domain.StraightLine)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2030, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal(60, res.PeriodsCreated)
	suite.Equal("2000.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.Equal("500.00", res.CurrentValue.StringFixed(2))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_DecliningBalanceFeedsBookValueForward() {
	id := suite.acquire("DB-1", "1000", "100", date(2024, time.January, 1), domain.DecliningBalance)

	_, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.April, 1))
	suite.Require().NoError(err)

	records := suite.records(id)
	suite.Require().Len(records, 3)
	suite.Equal("33.33", records[0].Amount.StringFixed(2))
	suite.Equal("32.22", records[1].Amount.StringFixed(2))
	suite.Equal("31.15", records[2].Amount.StringFixed(2))
	suite.Equal("96.70", records[2].AccumulatedAfter.StringFixed(2))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_DecliningBalanceRunsToSalvage() {
	id := suite.acquire("DB-2", "2000", "100", date(2020, time.January, 1), domain.DecliningBalance)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2030, time.January, 1))
	suite.Require().NoError(err)
	suite.True(res.FullyDepreciated)
	suite.Equal("1900.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.Equal("100.00", res.CurrentValue.StringFixed(2))

	records := suite.records(id)
	// The rate keeps applying after the fifth year until book value reaches salvage.
	suite.Require().Len(records, 89)
	suite.Equal(89, res.PeriodsCreated)

	rate := decimal.NewFromInt(2).Div(decimal.NewFromInt(60))
	salvage := dec("100")
	book := dec("2000")
	for i, r := range records {
		want := book.Mul(rate).Round(2)
		if left := book.Sub(salvage); want.GreaterThan(left) {
			want = left
		}
		suite.Truef(want.Equal(r.Amount), "month %d (%s): got %s, want %s", i+1, r.Period, r.Amount, want)
		book = book.Sub(r.Amount)
		suite.Truef(book.Equal(r.BookValueAfter), "month %d book value %s, want %s", i+1, r.BookValueAfter, book)
	}

	suite.Equal(domain.NewPeriod(2024, time.December), records[59].Period)
	suite.Equal("9.02", records[59].Amount.StringFixed(2))
	suite.Equal("261.61", records[59].BookValueAfter.StringFixed(2))
	suite.Equal(domain.NewPeriod(2027, time.May), records[88].Period)
	suite.Equal("1.24", records[88].Amount.StringFixed(2))
	suite.Equal("100.00", records[88].BookValueAfter.StringFixed(2))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_SumOfYearsDeclines() {
	id := suite.acquire("SY-1", "1000", "100", date(2024, time.January, 20), domain.SumOfYears)

	_, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.April, 1))
	suite.Require().NoError(err)

	records := suite.records(id)
	suite.Require().Len(records, 3)
	suite.Equal("29.51", records[0].Amount.StringFixed(2))
	suite.Equal("29.02", records[1].Amount.StringFixed(2))
	suite.Equal("28.52", records[2].Amount.StringFixed(2))

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2030, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal("900.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_Errors() {
	id := suite.acquire("FUT", "2500", "500", date(2025, time.March, 1), domain.StraightLine)

	_, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2025, time.February, 1))
	suite.True(errors.Is(err, apperrors.ErrValidation))

	_, err = suite.svc.ReconcileAsset(suite.ctx, "no-such-asset", date(2025, time.February, 1))
	suite.True(errors.Is(err, apperrors.ErrNotFound))

	_, err = suite.svc.ReconcileAsset(suite.ctx, id, time.Time{})
	suite.True(errors.Is(err, apperrors.ErrValidation))

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2025, time.March, 20))
	suite.Require().NoError(err)
	suite.Equal(0, res.PeriodsCreated)
}

// --- Disposition ---

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_SaleWithPartialMonth() {
	id := suite.acquire("US-001", "2500", "500", date(2023, time.January, 15), domain.StraightLine)
	sale := dec("1800")

	res, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         id,
		DispositionDate: dto.NewDate(date(2025, time.May, 15)),
		Type:            domain.DispositionSale,
		SaleAmount:      &sale,
		Notes:           "sold at auction",
	}, "farmer")
	suite.Require().NoError(err)
	suite.Equal("1550.63", res.FinalBookValue.StringFixed(2))
	suite.Equal("249.37", res.GainLoss.StringFixed(2))

	throughApril, err := suite.store.SumCreditsForAsset(suite.ctx, id, suite.cfg.AccountCodes.AccumulatedDepreciation, date(2025, time.April, 30))
	suite.Require().NoError(err)
	suite.Equal("933.24", throughApril.StringFixed(2))

	records := suite.records(id)
	suite.Require().Len(records, 29)
	may := records[28]
	suite.Equal(domain.NewPeriod(2025, time.May), may.Period)
	suite.Equal("16.13", may.Amount.StringFixed(2))
	suite.True(may.IsPartial)

	disp := suite.entriesOfType(id, domain.EntryDisposition)
	suite.Require().Len(disp, 1)
	suite.Equal(res.JournalEntryID, disp[0].EntryID)
	lines := map[string]domain.JournalLine{}
	for _, l := range disp[0].Lines {
		lines[l.AccountCode] = l
	}
	codes := suite.cfg.AccountCodes
	suite.Equal("1800.00", lines[codes.Cash].Amount.StringFixed(2))
	suite.Equal(domain.Debit, lines[codes.Cash].Side)
	suite.Equal("949.37", lines[codes.AccumulatedDepreciation].Amount.StringFixed(2))
	suite.Equal("2500.00", lines[codes.Asset].Amount.StringFixed(2))
	suite.Equal(domain.Credit, lines[codes.Asset].Side)
	suite.Equal("249.37", lines[codes.Gain].Amount.StringFixed(2))
	suite.Equal(domain.Credit, lines[codes.Gain].Side)

	asset, err := suite.svc.GetAsset(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal(domain.AssetDisposed, asset.Status)
	suite.Require().NotNil(asset.DispositionID)
	suite.Equal(res.DispositionID, *asset.DispositionID)
	suite.True(asset.CurrentValue.IsZero())
	suite.Equal("949.37", asset.TotalDepreciation.StringFixed(2))
	suite.assertLedgerConsistent(id)

	record, err := suite.store.FindDisposition(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal(services.DispositionAlgorithmVersion, record.AlgorithmVersion)
	suite.Equal("farmer", record.CreatedBy)

	disposed := suite.publisher.ofType(events.TypeAssetDisposed)
	suite.Require().Len(disposed, 1)
	payload, ok := disposed[0].Payload.(events.AssetDisposed)
	suite.Require().True(ok)
	suite.Equal("2025-05-15", payload.DispositionDate)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_RemovesPostingsAfterDate() {
	id := suite.acquire("US-001", "2500", "500", date(2023, time.January, 15), domain.StraightLine)

	res, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2025, time.September, 1))
	suite.Require().NoError(err)
	suite.Equal(32, res.PeriodsCreated)

	_, err = suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         id,
		DispositionDate: dto.NewDate(date(2025, time.May, 15)),
		Type:            domain.DispositionSale,
		SaleAmount:      ptr(dec("1800")),
	}, "farmer")
	suite.Require().NoError(err)

	entries, err := suite.store.ListJournalEntriesForAsset(suite.ctx, id)
	suite.Require().NoError(err)
	for _, e := range entries {
		suite.False(e.EntryDate.After(date(2025, time.May, 15)), "entry %s dated %s survived", e.EntryID, e.EntryDate)
	}
	suite.Len(suite.records(id), 29)

	actual, err := suite.store.SumCreditsForAsset(suite.ctx, id, suite.cfg.AccountCodes.AccumulatedDepreciation, farFuture)
	suite.Require().NoError(err)
	suite.Equal("949.37", actual.StringFixed(2))

	after, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2026, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal(0, after.PeriodsCreated)
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_DeathBooksLossWithoutCash() {
	// 900 depreciable over 60 months is 15.00 a month; 48 months leaves book value 300.
	id := suite.acquire("OLD", "1020", "120", date(2020, time.January, 1), domain.StraightLine)
	_, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2023, time.January, 1))
	suite.Require().NoError(err)

	res, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         id,
		DispositionDate: dto.NewDate(date(2023, time.December, 31)),
		Type:            domain.DispositionDeath,
	}, "vet")
	suite.Require().NoError(err)
	suite.Equal("300.00", res.FinalBookValue.StringFixed(2))
	suite.Equal("-300.00", res.GainLoss.StringFixed(2))

	disp := suite.entriesOfType(id, domain.EntryDisposition)
	suite.Require().Len(disp, 1)
	codes := suite.cfg.AccountCodes
	var loss *domain.JournalLine
	for i, l := range disp[0].Lines {
		suite.NotEqual(codes.Cash, l.AccountCode)
		if l.AccountCode == codes.LossOnDeath {
			loss = &disp[0].Lines[i]
		}
	}
	suite.Require().NotNil(loss)
	suite.Equal(domain.Debit, loss.Side)
	suite.Equal("300.00", loss.Amount.StringFixed(2))

	records := suite.records(id)
	suite.Require().Len(records, 48)
	suite.Equal(domain.NewPeriod(2023, time.December), records[47].Period)
	suite.False(records[47].IsPartial)
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_CullUsesCullLossAccount() {
	id := suite.acquire("CULL", "1000", "100", date(2024, time.January, 1), domain.StraightLine)
	_, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         id,
		DispositionDate: dto.NewDate(date(2024, time.January, 31)),
		Type:            domain.DispositionCull,
	}, "farmer")
	suite.Require().NoError(err)

	disp := suite.entriesOfType(id, domain.EntryDisposition)
	suite.Require().Len(disp, 1)
	found := false
	for _, l := range disp[0].Lines {
		if l.AccountCode == suite.cfg.AccountCodes.LossOnCull {
			found = true
			suite.Equal("985.00", l.Amount.StringFixed(2))
		}
	}
	suite.True(found)
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_DecliningBalanceLastYearProratesRate() {
	id := suite.acquire("DB-3", "2000", "100", date(2020, time.January, 1), domain.DecliningBalance)

	res, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         id,
		DispositionDate: dto.NewDate(date(2024, time.December, 15)),
		Type:            domain.DispositionDeath,
	}, "vet")
	suite.Require().NoError(err)

	records := suite.records(id)
	suite.Require().Len(records, 60)
	suite.Equal("270.63", records[58].BookValueAfter.StringFixed(2))
	// 270.63 at the monthly rate is 9.02, prorated over 15 of 31 days.
	last := records[59]
	suite.Equal(domain.NewPeriod(2024, time.December), last.Period)
	suite.True(last.IsPartial)
	suite.Equal("4.36", last.Amount.StringFixed(2))

	suite.Equal("266.27", res.FinalBookValue.StringFixed(2))
	suite.Equal("-266.27", res.GainLoss.StringFixed(2))
	suite.assertLedgerConsistent(id)
}

func (suite *DepreciationServiceTestSuite) TestReconcileAsset_DisposedReportsRemainingDepreciation() {
	culled := suite.acquire("CULL", "1000", "100", date(2024, time.January, 1), domain.StraightLine)
	_, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         culled,
		DispositionDate: dto.NewDate(date(2024, time.June, 30)),
		Type:            domain.DispositionCull,
	}, "farmer")
	suite.Require().NoError(err)

	res, err := suite.svc.ReconcileAsset(suite.ctx, culled, date(2030, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal(0, res.PeriodsCreated)
	suite.Equal("90.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.False(res.FullyDepreciated)

	spent := suite.acquire("SPENT", "200", "100", date(2020, time.January, 1), domain.StraightLine)
	_, err = suite.svc.ReconcileAsset(suite.ctx, spent, date(2025, time.January, 1))
	suite.Require().NoError(err)
	_, err = suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID:         spent,
		DispositionDate: dto.NewDate(date(2025, time.March, 10)),
		Type:            domain.DispositionDeath,
	}, "vet")
	suite.Require().NoError(err)

	res, err = suite.svc.ReconcileAsset(suite.ctx, spent, date(2030, time.January, 1))
	suite.Require().NoError(err)
	suite.Equal("100.00", res.AccumulatedDepreciation.StringFixed(2))
	suite.True(res.FullyDepreciated)
}

func (suite *DepreciationServiceTestSuite) TestEventsPublishedAfterAssetLockReleased() {
	id := suite.acquire("US-001", "2500", "500", date(2024, time.January, 1), domain.StraightLine)

	publisher := &callbackPublisher{}
	svc := services.NewDepreciationService(suite.store, suite.cfg,
		services.WithEventPublisher(publisher),
		services.WithMetrics(suite.metrics),
		services.WithClock(func() time.Time { return date(2026, time.January, 1) }),
	)

	var nested []error
	publisher.onPublish = func(event events.Event) {
		done := make(chan error, 1)
		go func() {
			_, err := svc.ReconcileAsset(suite.ctx, event.AssetID, date(2024, time.July, 1))
			done <- err
		}()
		select {
		case err := <-done:
			nested = append(nested, err)
		case <-time.After(2 * time.Second):
			suite.Failf("asset lock held while publishing", "event %s", event.Type)
		}
	}

	_, err := svc.ReconcileAsset(suite.ctx, id, date(2024, time.July, 1))
	suite.Require().NoError(err)
	_, err = svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID: id, DispositionDate: dto.NewDate(date(2024, time.August, 20)), Type: domain.DispositionDeath,
	}, "farmer")
	suite.Require().NoError(err)

	suite.Require().Len(nested, 2)
	for _, err := range nested {
		suite.NoError(err)
	}
	suite.Len(publisher.ofType(events.TypeAssetReconciled), 1)
	suite.Len(publisher.ofType(events.TypeAssetDisposed), 1)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_SecondDispositionConflicts() {
	id := suite.acquire("US-001", "2500", "500", date(2024, time.January, 1), domain.StraightLine)
	req := dto.DisposeAssetRequest{AssetID: id, DispositionDate: dto.NewDate(date(2024, time.June, 10)), Type: domain.DispositionDeath}

	_, err := suite.svc.DisposeAsset(suite.ctx, req, "farmer")
	suite.Require().NoError(err)
	before, err := suite.store.ListJournalEntriesForAsset(suite.ctx, id)
	suite.Require().NoError(err)

	_, err = suite.svc.DisposeAsset(suite.ctx, req, "farmer")
	suite.True(errors.Is(err, apperrors.ErrConflict))

	after, err := suite.store.ListJournalEntriesForAsset(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Equal(len(before), len(after))
	suite.Len(suite.publisher.ofType(events.TypeAssetDisposed), 1)
}

func (suite *DepreciationServiceTestSuite) TestDisposeAsset_Validation() {
	id := suite.acquire("US-001", "2500", "500", date(2024, time.March, 1), domain.StraightLine)
	cases := map[string]dto.DisposeAssetRequest{
		"before service start": {AssetID: id, DispositionDate: dto.NewDate(date(2024, time.February, 1)), Type: domain.DispositionSale},
		"negative sale":        {AssetID: id, DispositionDate: dto.NewDate(date(2024, time.May, 1)), Type: domain.DispositionSale, SaleAmount: ptr(dec("-1"))},
		"sale amount on death": {AssetID: id, DispositionDate: dto.NewDate(date(2024, time.May, 1)), Type: domain.DispositionDeath, SaleAmount: ptr(dec("10"))},
		"unknown type":         {AssetID: id, DispositionDate: dto.NewDate(date(2024, time.May, 1)), Type: "LOST"},
		"missing date":         {AssetID: id, Type: domain.DispositionSale},
		"missing asset id":     {DispositionDate: dto.NewDate(date(2024, time.May, 1)), Type: domain.DispositionSale},
	}
	for name, req := range cases {
		_, err := suite.svc.DisposeAsset(suite.ctx, req, "farmer")
		suite.Truef(errors.Is(err, apperrors.ErrValidation), "%s: got %v", name, err)
	}

	_, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID: "no-such-asset", DispositionDate: dto.NewDate(date(2024, time.May, 1)), Type: domain.DispositionDeath,
	}, "farmer")
	suite.True(errors.Is(err, apperrors.ErrNotFound))

	_, err = suite.store.FindDisposition(suite.ctx, id)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *DepreciationServiceTestSuite) TestConcurrentReconcileAndDispose() {
	id := suite.acquire("RACE", "2500", "500", date(2022, time.January, 1), domain.StraightLine)
	dispDate := date(2024, time.March, 12)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.Month(3+i), 1))
		}(i)
		go func() {
			defer wg.Done()
			_, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
				AssetID: id, DispositionDate: dto.NewDate(dispDate), Type: domain.DispositionDeath,
			}, "farmer")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, successes)
	entries, err := suite.store.ListJournalEntriesForAsset(suite.ctx, id)
	suite.Require().NoError(err)
	for _, e := range entries {
		suite.False(e.EntryDate.After(dispDate))
	}
	suite.Len(suite.entriesOfType(id, domain.EntryDisposition), 1)
	suite.assertLedgerConsistent(id)
}

// --- Batch ---

func (suite *DepreciationServiceTestSuite) TestBatchReconcile_IsRestartable() {
	a := suite.acquire("A", "2500", "500", date(2024, time.January, 1), domain.StraightLine)
	b := suite.acquire("B", "1200", "200", date(2024, time.March, 5), domain.SumOfYears)
	c := suite.acquire("C", "900", "100", date(2024, time.February, 1), domain.StraightLine)
	future := suite.acquire("D", "900", "100", date(2025, time.January, 1), domain.StraightLine)
	_, err := suite.svc.DisposeAsset(suite.ctx, dto.DisposeAssetRequest{
		AssetID: c, DispositionDate: dto.NewDate(date(2024, time.April, 1)), Type: domain.DispositionCull,
	}, "farmer")
	suite.Require().NoError(err)
	// A is already up to date before the batch starts.
	_, err = suite.svc.ReconcileAsset(suite.ctx, a, date(2024, time.July, 1))
	suite.Require().NoError(err)

	res, err := suite.svc.BatchReconcile(suite.ctx, date(2024, time.July, 1))
	suite.Require().NoError(err)
	suite.Equal(3, res.AssetsScanned)
	suite.Equal(2, res.AssetsSkipped)
	suite.Equal(4, res.PeriodsCreated)
	suite.Equal(1, res.EntriesCreated)
	suite.Empty(res.Failures)

	again, err := suite.svc.BatchReconcile(suite.ctx, date(2024, time.July, 1))
	suite.Require().NoError(err)
	suite.Equal(3, again.AssetsSkipped)
	suite.Equal(0, again.PeriodsCreated)

	for _, id := range []string{a, b, c, future} {
		suite.assertLedgerConsistent(id)
	}
}

func (suite *DepreciationServiceTestSuite) TestBatchReconcile_CancelledContext() {
	suite.acquire("A", "2500", "500", date(2024, time.January, 1), domain.StraightLine)
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()
	_, err := suite.svc.BatchReconcile(ctx, date(2024, time.July, 1))
	suite.Error(err)
}

// --- Ledger view ---

func (suite *DepreciationServiceTestSuite) TestGetAssetLedger_GroupsByFiscalYear() {
	suite.cfg.FiscalYearStartMonth = time.July
	id := suite.acquire("US-001", "2500", "500", date(2024, time.May, 1), domain.StraightLine)
	_, err := suite.svc.ReconcileAsset(suite.ctx, id, date(2024, time.September, 1))
	suite.Require().NoError(err)

	ledger, err := suite.svc.GetAssetLedger(suite.ctx, id)
	suite.Require().NoError(err)
	suite.Len(ledger.Entries, 2)
	suite.Len(ledger.MonthlyRecords, 4)
	suite.Nil(ledger.Disposition)
	suite.Require().Len(ledger.FiscalYears, 2)
	suite.Equal(2024, ledger.FiscalYears[0].FiscalYear)
	suite.Equal("66.66", ledger.FiscalYears[0].Depreciation.StringFixed(2))
	suite.Equal(2025, ledger.FiscalYears[1].FiscalYear)
	suite.Equal("66.66", ledger.FiscalYears[1].Depreciation.StringFixed(2))

	_, err = suite.svc.GetAssetLedger(suite.ctx, "missing")
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *DepreciationServiceTestSuite) TestValidateEntry_RejectsUnbalanced() {
	err := suite.svc.ValidateEntry(domain.JournalEntry{
		AssetID: "a1",
		Lines: []domain.JournalLine{
			{AccountCode: "6100", Side: domain.Debit, Amount: dec("10.00")},
			{AccountCode: "1510", Side: domain.Credit, Amount: dec("9.00")},
		},
	})
	suite.True(errors.Is(err, apperrors.ErrCalculation))
}

func TestDepreciationService(t *testing.T) {
	suite.Run(t, new(DepreciationServiceTestSuite))
}

func ptr[T any](v T) *T {
	return &v
}
