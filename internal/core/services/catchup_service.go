package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/depreciation"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/herd_ledger/internal/dto"
)

// catchUpOutcome is what one catch-up pass wrote.
type catchUpOutcome struct {
	Records          []domain.MonthlyDepreciationRecord
	EntryIDs         []string
	Accumulated      decimal.Decimal
	FullyDepreciated bool
}

// ReconcileAsset posts every missing month from service start up to, but excluding, the month
// containing asOf. Running it again with the same asOf creates nothing.
func (s *depreciationService) ReconcileAsset(ctx context.Context, assetID string, asOf time.Time) (*dto.ReconcileResult, error) {
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: as-of date is required", apperrors.ErrValidation)
	}
	start := time.Now()
	defer func() { s.metrics.ReconcileDuration.Observe(time.Since(start).Seconds()) }()

	logger := s.GetLogger(ctx).With(slog.String("asset_id", assetID), slog.String("as_of", asOf.Format(time.DateOnly)))
	logger.Debug("Reconcile scanning")

	var result *dto.ReconcileResult
	// The lock covers the transaction only; events go out after it is released.
	err := func() error {
		unlock := s.locks.Lock(assetID)
		defer unlock()
		return s.repo.WithTx(ctx, func(tx portsrepo.LedgerRepositoryFacade) error {
			var err error
			result, err = s.reconcileInTx(ctx, tx, assetID, asOf)
			return err
		})
	}()
	if err != nil {
		s.metrics.ObserveError("reconcile", err)
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			logger.Error("Reconcile failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	if result.PeriodsCreated > 0 {
		s.metrics.PeriodsCreated.Add(float64(result.PeriodsCreated))
		s.metrics.EntriesPosted.WithLabelValues(string(domain.EntryDepreciation)).Add(float64(len(result.EntriesCreated)))
		s.publish(ctx, events.TypeAssetReconciled, assetID, events.AssetReconciled{
			PeriodsCreated:          result.PeriodsCreated,
			EntryIDs:                result.EntriesCreated,
			AccumulatedDepreciation: result.AccumulatedDepreciation,
			CurrentValue:            result.CurrentValue,
		})
	}
	logger.Info("Reconciled",
		slog.Int("periods_created", result.PeriodsCreated),
		slog.String("accumulated_depreciation", result.AccumulatedDepreciation.StringFixed(2)),
		slog.Bool("fully_depreciated", result.FullyDepreciated))
	return result, nil
}

// reconcileInTx is the transactional part of ReconcileAsset. A disposed asset is left as is.
func (s *depreciationService) reconcileInTx(ctx context.Context, tx portsrepo.LedgerRepositoryFacade, assetID string, asOf time.Time) (*dto.ReconcileResult, error) {
	asset, err := tx.FindAssetByIDForUpdate(ctx, assetID)
	if err != nil {
		return nil, err
	}

	result := &dto.ReconcileResult{AssetID: assetID, EntriesCreated: []string{}}
	if asset.IsDisposed() {
		result.AccumulatedDepreciation = asset.TotalDepreciation
		result.CurrentValue = asset.CurrentValue
		result.FullyDepreciated = !asset.DepreciableAmount().Sub(asset.TotalDepreciation).IsPositive()
		return result, nil
	}

	if err := s.calc.Validate(depreciation.InputsFor(*asset, asOf)); err != nil {
		return nil, err
	}

	last := domain.PeriodOf(asOf).Prev()
	outcome, err := s.reconcileThrough(ctx, tx, asset, last, systemActor)
	if err != nil {
		return nil, err
	}

	reconciled := last
	if asset.LastReconciledPeriod != nil && asset.LastReconciledPeriod.After(last) {
		reconciled = *asset.LastReconciledPeriod
	}
	if err := s.refreshAssetCache(ctx, tx, asset, &reconciled); err != nil {
		return nil, err
	}

	result.PeriodsCreated = len(outcome.Records)
	result.EntriesCreated = outcome.EntryIDs
	result.AccumulatedDepreciation = asset.TotalDepreciation
	result.CurrentValue = asset.CurrentValue
	result.FullyDepreciated = outcome.FullyDepreciated
	return result, nil
}

// reconcileThrough fills every missing month from service start through last (inclusive) inside tx.
// Months already recorded are skipped and the total never exceeds the depreciable amount. Several
// missing months are posted as one consolidated entry dated the end of the last of them, with one
// record per month.
func (s *depreciationService) reconcileThrough(ctx context.Context, tx portsrepo.LedgerRepositoryFacade, asset *domain.Asset, last domain.Period, createdBy string) (catchUpOutcome, error) {
	outcome := catchUpOutcome{EntryIDs: []string{}}
	if asset.IsDisposed() {
		return outcome, nil
	}

	existing, err := tx.ListMonthlyRecords(ctx, asset.AssetID)
	if err != nil {
		return outcome, fmt.Errorf("failed to list monthly records for asset %s: %w", asset.AssetID, err)
	}
	byPeriod := make(map[domain.Period]domain.MonthlyDepreciationRecord, len(existing))
	recordedTotal := decimal.Zero
	for _, r := range existing {
		byPeriod[r.Period] = r
		recordedTotal = recordedTotal.Add(r.Amount)
	}

	depreciable := asset.DepreciableAmount()
	running := decimal.Zero
	newTotal := decimal.Zero
	now := s.now().UTC()

	for _, period := range depreciation.ScheduleBetween(asset.ServiceStartDate, last) {
		if rec, ok := byPeriod[period]; ok {
			running = running.Add(rec.Amount)
			continue
		}
		remaining := depreciable.Sub(recordedTotal).Sub(newTotal)
		if !remaining.IsPositive() {
			outcome.FullyDepreciated = true
			break
		}

		amount, err := s.monthlyAmount(*asset, period, running, remaining)
		if err != nil {
			return outcome, err
		}
		if !amount.IsPositive() {
			continue
		}

		running = running.Add(amount)
		newTotal = newTotal.Add(amount)
		outcome.Records = append(outcome.Records, domain.MonthlyDepreciationRecord{
			RecordID:         uuid.NewString(),
			AssetID:          asset.AssetID,
			Period:           period,
			Amount:           amount,
			AccumulatedAfter: money.RoundToCent(running),
			BookValueAfter:   money.RoundToCent(asset.PurchasePrice.Sub(running)),
			CreatedAt:        now,
		})
	}

	outcome.Accumulated = money.RoundToCent(recordedTotal.Add(newTotal))
	if !depreciable.Sub(outcome.Accumulated).IsPositive() {
		outcome.FullyDepreciated = true
	}
	if len(outcome.Records) == 0 {
		return outcome, nil
	}

	first := outcome.Records[0].Period
	lastNew := outcome.Records[len(outcome.Records)-1].Period
	description := fmt.Sprintf("Depreciation for %s", lastNew)
	if len(outcome.Records) > 1 {
		description = fmt.Sprintf("Depreciation catch-up %s to %s (%d months)", first, lastNew, len(outcome.Records))
	}
	entry := s.builder.BuildDepreciation(*asset, lastNew.EndDate(), money.RoundToCent(newTotal), description, createdBy)
	if err := s.postEntry(ctx, tx, entry); err != nil {
		return outcome, err
	}
	for i := range outcome.Records {
		outcome.Records[i].JournalEntryID = entry.EntryID
	}
	if err := tx.InsertMonthlyRecords(ctx, outcome.Records); err != nil {
		return outcome, fmt.Errorf("failed to insert monthly records for asset %s: %w", asset.AssetID, err)
	}
	outcome.EntryIDs = append(outcome.EntryIDs, entry.EntryID)

	s.LogDebug(ctx, "Catch-up filled missing periods",
		slog.String("asset_id", asset.AssetID),
		slog.String("from", first.String()),
		slog.String("to", lastNew.String()),
		slog.Int("periods", len(outcome.Records)))
	return outcome, nil
}

// roundingResidueLimit is the most cent rounding can drift over a life of n months.
func roundingResidueLimit(n int) decimal.Decimal {
	return decimal.New(5, -3).Mul(decimal.NewFromInt(int64(n)))
}

// monthlyAmount returns the depreciation for period given what has accumulated before it and
// what remains depreciable, never more than remaining. Declining balance always applies its
// rate to the current book value and may run past the useful life until salvage is reached.
// The other methods absorb the cent rounding residue in the last month of useful life.
func (s *depreciationService) monthlyAmount(asset domain.Asset, period domain.Period, accumulatedBefore, remaining decimal.Decimal) (decimal.Decimal, error) {
	remaining = money.ClampNonNegative(money.RoundToCent(remaining))
	in := depreciation.InputsFor(asset, time.Time{})
	if asset.DepreciationMethod == domain.DecliningBalance {
		bookValue := asset.PurchasePrice.Sub(accumulatedBefore)
		in.CurrentBookValue = &bookValue
	}
	amount, err := s.calc.MonthlyAmount(in, period)
	if err != nil {
		return decimal.Zero, err
	}

	lastMonth := period.MonthsSince(asset.ServiceStartPeriod()) == s.calc.TotalMonths()-1
	if lastMonth && asset.DepreciationMethod != domain.DecliningBalance &&
		remaining.Sub(amount).LessThanOrEqual(roundingResidueLimit(s.calc.TotalMonths())) {
		return remaining, nil
	}
	return money.Min(amount, remaining), nil
}
