package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/dto"
)

// BatchReconcile reconciles every active asset with a bounded pool of workers. Assets already
// reconciled through the target month are skipped, so an interrupted run can simply be repeated.
// Per-asset failures are collected in the result; only cancellation aborts the batch.
func (s *depreciationService) BatchReconcile(ctx context.Context, asOf time.Time) (*dto.BatchReconcileResult, error) {
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: as-of date is required", apperrors.ErrValidation)
	}
	ids, err := s.repo.ListActiveAssetIDs(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list active assets")
		return nil, err
	}

	target := domain.PeriodOf(asOf).Prev()
	result := &dto.BatchReconcileResult{
		AsOfDate:      dto.NewDate(asOf),
		AssetsScanned: len(ids),
		Failures:      map[string]string{},
	}
	var mu sync.Mutex

	workers := s.cfg.BatchWorkers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	s.LogInfo(ctx, "Batch reconcile started",
		slog.Int("assets", len(ids)),
		slog.String("target_period", target.String()),
		slog.Int("workers", workers))

	for _, id := range ids {
		assetID := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			asset, err := s.repo.FindAssetByID(gctx, assetID)
			if err == nil && (asset.IsDisposed() ||
				(asset.LastReconciledPeriod != nil && !asset.LastReconciledPeriod.Before(target)) ||
				asset.ServiceStartDate.After(asOf)) {
				mu.Lock()
				result.AssetsSkipped++
				mu.Unlock()
				s.metrics.BatchAssets.WithLabelValues("skipped").Inc()
				return nil
			}

			var res *dto.ReconcileResult
			if err == nil {
				res, err = s.ReconcileAsset(gctx, assetID, asOf)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				mu.Lock()
				result.Failures[assetID] = err.Error()
				mu.Unlock()
				s.metrics.BatchAssets.WithLabelValues("failed").Inc()
				return nil
			}

			mu.Lock()
			result.PeriodsCreated += res.PeriodsCreated
			result.EntriesCreated += len(res.EntriesCreated)
			mu.Unlock()
			s.metrics.BatchAssets.WithLabelValues("reconciled").Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.LogError(ctx, err, "Batch reconcile interrupted",
			slog.Int("periods_created", result.PeriodsCreated),
			slog.Int("failures", len(result.Failures)))
		return result, err
	}

	s.LogInfo(ctx, "Batch reconcile finished",
		slog.Int("assets", result.AssetsScanned),
		slog.Int("skipped", result.AssetsSkipped),
		slog.Int("periods_created", result.PeriodsCreated),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}
