package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AssetReader defines read operations for assets.
type AssetReader interface {
	// FindAssetByID returns apperrors.ErrNotFound when the asset does not exist.
	FindAssetByID(ctx context.Context, assetID string) (*domain.Asset, error)

	// FindAssetByIDForUpdate is FindAssetByID taking a row lock for the rest of the transaction.
	FindAssetByIDForUpdate(ctx context.Context, assetID string) (*domain.Asset, error)

	// ListActiveAssetIDs returns the ids of every asset that is not disposed, ordered by id.
	ListActiveAssetIDs(ctx context.Context) ([]string, error)
}

// AssetWriter defines write operations for assets. Assets are never deleted.
type AssetWriter interface {
	SaveAsset(ctx context.Context, asset domain.Asset) error

	// UpdateAssetCache stores ledger-derived totals on the asset.
	UpdateAssetCache(ctx context.Context, assetID string, totalDepreciation, currentValue decimal.Decimal, lastReconciled *domain.Period, updatedAt time.Time) error

	// UpdateAssetStatus transitions an asset's lifecycle status.
	UpdateAssetStatus(ctx context.Context, assetID string, status domain.AssetStatus, dispositionID *string, updatedAt time.Time) error
}

// DepreciationRecordReader defines read operations on monthly depreciation records.
type DepreciationRecordReader interface {
	// FindMonthlyRecord returns apperrors.ErrNotFound when no record exists for the period.
	FindMonthlyRecord(ctx context.Context, assetID string, period domain.Period) (*domain.MonthlyDepreciationRecord, error)

	// ListMonthlyRecords returns every record of the asset ordered by period.
	ListMonthlyRecords(ctx context.Context, assetID string) ([]domain.MonthlyDepreciationRecord, error)
}

// DepreciationRecordWriter defines write operations on monthly depreciation records.
type DepreciationRecordWriter interface {
	// InsertMonthlyRecords fails with apperrors.ErrConflict if any (asset, period) already exists.
	InsertMonthlyRecords(ctx context.Context, records []domain.MonthlyDepreciationRecord) error
}

// JournalReader defines read operations for journal entries.
type JournalReader interface {
	// ListJournalEntriesForAsset returns the asset's entries with their lines, ordered by date.
	ListJournalEntriesForAsset(ctx context.Context, assetID string) ([]domain.JournalEntry, error)

	// SumCreditsForAsset sums credit lines on accountCode for the asset in entries dated on or
	// before throughDate.
	SumCreditsForAsset(ctx context.Context, assetID string, accountCode string, throughDate time.Time) (decimal.Decimal, error)

	// SumDebitsForAsset is the debit-side counterpart of SumCreditsForAsset.
	SumDebitsForAsset(ctx context.Context, assetID string, accountCode string, throughDate time.Time) (decimal.Decimal, error)
}

// JournalWriter defines write operations for journal entries.
type JournalWriter interface {
	// InsertJournalEntryWithLines persists an entry and all of its lines.
	InsertJournalEntryWithLines(ctx context.Context, entry domain.JournalEntry) error

	// DeleteLinesAndEmptyEntriesAfter removes the asset's lines in entries dated after date,
	// deletes entries left with no lines, and deletes monthly records pointing at deleted entries.
	DeleteLinesAndEmptyEntriesAfter(ctx context.Context, assetID string, date time.Time) (DeleteResult, error)
}

// DeleteResult reports what DeleteLinesAndEmptyEntriesAfter removed.
type DeleteResult struct {
	LinesDeleted   int
	EntriesDeleted int
	RecordsDeleted int
}

// DispositionRepository reads and writes disposition records.
type DispositionRepository interface {
	// FindDisposition returns apperrors.ErrNotFound when the asset has not been disposed.
	FindDisposition(ctx context.Context, assetID string) (*domain.DispositionRecord, error)

	// InsertDisposition fails with apperrors.ErrConflict when the asset already has one.
	InsertDisposition(ctx context.Context, record domain.DispositionRecord) error
}

// LedgerRepositoryFacade combines every ledger-store operation the core uses.
type LedgerRepositoryFacade interface {
	AssetReader
	AssetWriter
	DepreciationRecordReader
	DepreciationRecordWriter
	JournalReader
	JournalWriter
	DispositionRepository
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}
