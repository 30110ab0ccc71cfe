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

// DispositionAlgorithmVersion is stored on every disposition record.
const DispositionAlgorithmVersion = 1

func validateDisposeRequest(req dto.DisposeAssetRequest) error {
	if req.AssetID == "" {
		return fmt.Errorf("%w: asset id is required", apperrors.ErrValidation)
	}
	if req.DispositionDate.IsZero() {
		return fmt.Errorf("%w: disposition date is required", apperrors.ErrValidation)
	}
	if !req.Type.Valid() {
		return fmt.Errorf("%w: unknown disposition type %q", apperrors.ErrValidation, req.Type)
	}
	if req.SaleAmount != nil {
		if req.SaleAmount.IsNegative() {
			return fmt.Errorf("%w: sale amount must not be negative, got %s", apperrors.ErrValidation, req.SaleAmount)
		}
		if req.Type != domain.DispositionSale && req.SaleAmount.IsPositive() {
			return fmt.Errorf("%w: sale amount is only allowed for %s dispositions", apperrors.ErrValidation, domain.DispositionSale)
		}
	}
	return nil
}

// DisposeAsset retires an asset. In one transaction it removes postings dated after the
// disposition, catches up the months before it, posts the disposition month, and books the
// disposition against the ledger's accumulated depreciation.
func (s *depreciationService) DisposeAsset(ctx context.Context, req dto.DisposeAssetRequest, userID string) (*dto.DisposeResult, error) {
	if err := validateDisposeRequest(req); err != nil {
		s.metrics.ObserveError("dispose", err)
		return nil, err
	}
	if userID == "" {
		userID = systemActor
	}
	date := domain.DateOnly(req.DispositionDate.Time)
	sale := decimal.Zero
	if req.SaleAmount != nil {
		sale = money.RoundToCent(*req.SaleAmount)
	}

	logger := s.GetLogger(ctx).With(
		slog.String("asset_id", req.AssetID),
		slog.String("disposition_type", string(req.Type)),
		slog.String("disposition_date", date.Format(time.DateOnly)))
	logger.Info("Disposition requested")

	var (
		result     *dto.DisposeResult
		record     domain.DispositionRecord
		newRecords int
	)
	// The lock covers the transaction only; events go out after it is released.
	err := func() error {
		unlock := s.locks.Lock(req.AssetID)
		defer unlock()
		return s.repo.WithTx(ctx, func(tx portsrepo.LedgerRepositoryFacade) error {
			asset, err := tx.FindAssetByIDForUpdate(ctx, req.AssetID)
			if err != nil {
				return err
			}
			if existing, err := tx.FindDisposition(ctx, req.AssetID); err == nil {
				return apperrors.NewConflictError(fmt.Sprintf("asset %s was already disposed on %s (disposition %s)",
					req.AssetID, existing.DispositionDate.Format(time.DateOnly), existing.DispositionID))
			} else if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if asset.IsDisposed() {
				return apperrors.NewConflictError(fmt.Sprintf("asset %s is already disposed", req.AssetID))
			}
			if date.Before(domain.DateOnly(asset.ServiceStartDate)) {
				return fmt.Errorf("%w: disposition date %s is before service start %s", apperrors.ErrValidation,
					date.Format(time.DateOnly), asset.ServiceStartDate.Format(time.DateOnly))
			}

			logger.Debug("Disposition reconciling")
			removed, err := tx.DeleteLinesAndEmptyEntriesAfter(ctx, asset.AssetID, date)
			if err != nil {
				return fmt.Errorf("failed to remove postings after %s: %w", date.Format(time.DateOnly), err)
			}
			if removed.LinesDeleted > 0 {
				logger.Info("Removed postings dated after disposition",
					slog.Int("lines", removed.LinesDeleted),
					slog.Int("entries", removed.EntriesDeleted),
					slog.Int("monthly_records", removed.RecordsDeleted))
			}

			outcome, err := s.reconcileThrough(ctx, tx, asset, domain.PeriodOf(date).Prev(), userID)
			if err != nil {
				return err
			}
			newRecords = len(outcome.Records)

			posted, err := s.postDispositionMonth(ctx, tx, asset, date, userID)
			if err != nil {
				return err
			}
			if posted {
				newRecords++
			}

			actual, err := tx.SumCreditsForAsset(ctx, asset.AssetID, s.cfg.AccountCodes.AccumulatedDepreciation, date)
			if err != nil {
				return err
			}
			actual = money.RoundToCent(actual)
			finalBookValue := money.Max(money.RoundToCent(asset.PurchasePrice.Sub(actual)), asset.SalvageValue)
			gainLoss := money.RoundToCent(sale.Sub(finalBookValue))

			entry := s.builder.BuildDisposition(DispositionInputs{
				Asset:                   *asset,
				Date:                    date,
				Type:                    req.Type,
				SaleAmount:              sale,
				AccumulatedDepreciation: actual,
				GainLoss:                gainLoss,
				CreatedBy:               userID,
			})
			if err := s.postEntry(ctx, tx, entry); err != nil {
				return err
			}

			record = domain.DispositionRecord{
				DispositionID:    uuid.NewString(),
				AssetID:          asset.AssetID,
				DispositionDate:  date,
				DispositionType:  req.Type,
				SaleAmount:       sale,
				FinalBookValue:   finalBookValue,
				GainLoss:         gainLoss,
				JournalEntryID:   entry.EntryID,
				AlgorithmVersion: DispositionAlgorithmVersion,
				Notes:            req.Notes,
				CreatedAt:        s.now().UTC(),
				CreatedBy:        userID,
			}
			if err := tx.InsertDisposition(ctx, record); err != nil {
				return err
			}
			if err := tx.UpdateAssetStatus(ctx, asset.AssetID, domain.AssetDisposed, &record.DispositionID, s.now().UTC()); err != nil {
				return fmt.Errorf("failed to mark asset %s disposed: %w", asset.AssetID, err)
			}
			asset.Status = domain.AssetDisposed
			dispPeriod := domain.PeriodOf(date)
			if err := s.refreshAssetCache(ctx, tx, asset, &dispPeriod); err != nil {
				return err
			}

			result = &dto.DisposeResult{
				DispositionID:  record.DispositionID,
				JournalEntryID: entry.EntryID,
				FinalBookValue: finalBookValue,
				GainLoss:       gainLoss,
			}
			return nil
		})
	}()
	if err != nil {
		s.metrics.ObserveError("dispose", err)
		logger.Warn("Disposition rejected", slog.String("error", err.Error()))
		return nil, err
	}

	s.metrics.Dispositions.WithLabelValues(string(req.Type)).Inc()
	s.metrics.EntriesPosted.WithLabelValues(string(domain.EntryDisposition)).Inc()
	s.metrics.PeriodsCreated.Add(float64(newRecords))
	s.publish(ctx, events.TypeAssetDisposed, req.AssetID, events.AssetDisposed{
		DispositionID:   record.DispositionID,
		JournalEntryID:  record.JournalEntryID,
		DispositionType: string(record.DispositionType),
		DispositionDate: date.Format(time.DateOnly),
		FinalBookValue:  record.FinalBookValue,
		GainLoss:        record.GainLoss,
	})
	logger.Info("Disposition posted",
		slog.String("disposition_id", record.DispositionID),
		slog.String("final_book_value", record.FinalBookValue.StringFixed(2)),
		slog.String("gain_loss", record.GainLoss.StringFixed(2)))
	return result, nil
}

// postDispositionMonth posts depreciation for the month containing date, prorated to the day
// unless date is the month's last day. It reports whether a record was written.
func (s *depreciationService) postDispositionMonth(ctx context.Context, tx portsrepo.LedgerRepositoryFacade, asset *domain.Asset, date time.Time, createdBy string) (bool, error) {
	period := domain.PeriodOf(date)
	if period.Before(asset.ServiceStartPeriod()) {
		return false, nil
	}
	if _, err := tx.FindMonthlyRecord(ctx, asset.AssetID, period); err == nil {
		return false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	accumulated, err := tx.SumCreditsForAsset(ctx, asset.AssetID, s.cfg.AccountCodes.AccumulatedDepreciation, date)
	if err != nil {
		return false, err
	}
	remaining := asset.DepreciableAmount().Sub(accumulated)
	if !remaining.IsPositive() {
		return false, nil
	}

	full, err := s.monthlyAmount(*asset, period, accumulated, remaining)
	if err != nil {
		return false, err
	}
	lastDay := domain.IsLastDayOfMonth(date)
	amount := full
	if !lastDay {
		amount = money.Min(depreciation.PartialMonthAmount(full, date), money.RoundToCent(remaining))
	}
	if !amount.IsPositive() {
		return false, nil
	}

	description := fmt.Sprintf("Depreciation for %s (partial, %d of %d days)", period, date.Day(), period.DaysInMonth())
	if lastDay {
		description = fmt.Sprintf("Depreciation for %s", period)
	}
	entry := s.builder.BuildDepreciation(*asset, date, amount, description, createdBy)
	if err := s.postEntry(ctx, tx, entry); err != nil {
		return false, err
	}
	after := money.RoundToCent(accumulated.Add(amount))
	rec := domain.MonthlyDepreciationRecord{
		RecordID:         uuid.NewString(),
		AssetID:          asset.AssetID,
		Period:           period,
		Amount:           amount,
		AccumulatedAfter: after,
		BookValueAfter:   money.RoundToCent(asset.PurchasePrice.Sub(after)),
		JournalEntryID:   entry.EntryID,
		IsPartial:        !lastDay,
		CreatedAt:        s.now().UTC(),
	}
	if err := tx.InsertMonthlyRecords(ctx, []domain.MonthlyDepreciationRecord{rec}); err != nil {
		return false, fmt.Errorf("failed to insert disposition-month record for asset %s: %w", asset.AssetID, err)
	}
	return true, nil
}
