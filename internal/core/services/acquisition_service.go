package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/depreciation"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/herd_ledger/internal/dto"
)

// AcquireAsset registers an animal and posts its acquisition entry in one transaction.
// Salvage value defaults to the configured percentage of the purchase price.
func (s *depreciationService) AcquireAsset(ctx context.Context, req dto.CreateAssetRequest, userID string) (*dto.AcquireAssetResult, error) {
	if userID == "" {
		userID = systemActor
	}
	if strings.TrimSpace(req.TagNumber) == "" {
		return nil, fmt.Errorf("%w: tag number is required", apperrors.ErrValidation)
	}
	if req.ServiceStartDate.IsZero() {
		return nil, fmt.Errorf("%w: service start date is required", apperrors.ErrValidation)
	}

	method := req.DepreciationMethod
	if method == "" {
		method = domain.StraightLine
	}
	price := money.RoundToCent(req.PurchasePrice)
	salvage := money.RoundToCent(price.Mul(s.cfg.SalvagePercent))
	if req.SalvageValue != nil {
		salvage = money.RoundToCent(*req.SalvageValue)
	}
	serviceStart := domain.DateOnly(req.ServiceStartDate.Time)
	acquiredOn := serviceStart
	if req.AcquisitionDate != nil && !req.AcquisitionDate.IsZero() {
		acquiredOn = domain.DateOnly(req.AcquisitionDate.Time)
		if acquiredOn.After(serviceStart) {
			return nil, fmt.Errorf("%w: acquisition date %s is after service start %s", apperrors.ErrValidation,
				acquiredOn.Format(time.DateOnly), serviceStart.Format(time.DateOnly))
		}
	}

	now := s.now().UTC()
	asset := domain.Asset{
		AssetID:            uuid.NewString(),
		TagNumber:          strings.TrimSpace(req.TagNumber),
		Name:               req.Name,
		PurchasePrice:      price,
		SalvageValue:       salvage,
		ServiceStartDate:   serviceStart,
		DepreciationMethod: method,
		Status:             domain.AssetActive,
		CurrentValue:       price,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.calc.Validate(depreciation.InputsFor(asset, time.Time{})); err != nil {
		return nil, err
	}

	var entry domain.JournalEntry
	err := s.repo.WithTx(ctx, func(tx portsrepo.LedgerRepositoryFacade) error {
		if err := tx.SaveAsset(ctx, asset); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", asset.TagNumber, err)
		}
		entry = s.builder.BuildAcquisition(asset, acquiredOn, userID)
		if err := s.postEntry(ctx, tx, entry); err != nil {
			return err
		}
		return s.refreshAssetCache(ctx, tx, &asset, nil)
	})
	if err != nil {
		s.metrics.ObserveError("acquire", err)
		s.LogError(ctx, err, "Failed to acquire asset", slog.String("tag_number", asset.TagNumber))
		return nil, err
	}

	s.metrics.EntriesPosted.WithLabelValues(string(domain.EntryAcquisition)).Inc()
	s.LogInfo(ctx, "Asset acquired",
		slog.String("asset_id", asset.AssetID),
		slog.String("tag_number", asset.TagNumber),
		slog.String("purchase_price", asset.PurchasePrice.StringFixed(2)),
		slog.String("method", string(asset.DepreciationMethod)))
	return &dto.AcquireAssetResult{Asset: asset, JournalEntry: entry}, nil
}
