package services

import (
	"context"
	"time"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/dto"
)

// AssetReaderSvc defines read operations for assets and their ledger history.
type AssetReaderSvc interface {
	// GetAsset returns the asset with its ledger-derived cache.
	GetAsset(ctx context.Context, assetID string) (*domain.Asset, error)

	// GetAssetLedger returns the asset's journal entries, monthly records and disposition.
	GetAssetLedger(ctx context.Context, assetID string) (*dto.AssetLedgerResponse, error)
}

// AcquisitionSvc registers new assets.
type AcquisitionSvc interface {
	// AcquireAsset stores the asset and its acquisition entry atomically.
	AcquireAsset(ctx context.Context, req dto.CreateAssetRequest, userID string) (*dto.AcquireAssetResult, error)
}

// ReconcilerSvc brings a single asset's depreciation history up to date.
type ReconcilerSvc interface {
	// ReconcileAsset posts every missing month up to, but excluding, asOf's month. Idempotent.
	ReconcileAsset(ctx context.Context, assetID string, asOf time.Time) (*dto.ReconcileResult, error)
}

// BatchReconcilerSvc reconciles every active asset.
type BatchReconcilerSvc interface {
	// BatchReconcile is restartable: a re-run after interruption skips assets already reconciled.
	BatchReconcile(ctx context.Context, asOf time.Time) (*dto.BatchReconcileResult, error)
}

// DispositionSvc finalises an asset's life.
type DispositionSvc interface {
	// DisposeAsset posts the disposition entry; at most one disposition exists per asset.
	DisposeAsset(ctx context.Context, req dto.DisposeAssetRequest, userID string) (*dto.DisposeResult, error)
}

// EntryValidatorSvc checks journal entries before they are committed.
type EntryValidatorSvc interface {
	// ValidateEntry returns an apperrors.ErrCalculation error when debits and credits differ.
	ValidateEntry(entry domain.JournalEntry) error
}

// DepreciationSvcFacade combines all depreciation-related service interfaces
type DepreciationSvcFacade interface {
	AssetReaderSvc
	AcquisitionSvc
	ReconcilerSvc
	BatchReconcilerSvc
	DispositionSvc
	EntryValidatorSvc
}
