package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/depreciation"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	"github.com/SscSPs/herd_ledger/internal/core/money"
	"github.com/SscSPs/herd_ledger/internal/core/ports/events"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/dto"
	"github.com/SscSPs/herd_ledger/internal/platform/config"
	"github.com/SscSPs/herd_ledger/internal/platform/metrics"
	"github.com/SscSPs/herd_ledger/internal/utils/accounting"
)

// systemActor is recorded as creator of entries posted by scheduled catch-up.
const systemActor = "system"

// endOfTime bounds ledger sums that should include every entry.
var endOfTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// depreciationService implements every depreciation use case over a single ledger store.
type depreciationService struct {
	BaseService
	repo      portsrepo.LedgerRepositoryWithTx
	cfg       *config.Config
	calc      depreciation.Calculator
	builder   journalBuilder
	locks     *KeyedLocker
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// DepreciationServiceOption is a function that configures a depreciationService
type DepreciationServiceOption func(*depreciationService)

// WithEventPublisher sets the publisher used for post-commit integration events.
func WithEventPublisher(p events.Publisher) DepreciationServiceOption {
	return func(s *depreciationService) {
		s.publisher = p
	}
}

// WithMetrics sets the prometheus collectors.
func WithMetrics(m *metrics.Metrics) DepreciationServiceOption {
	return func(s *depreciationService) {
		s.metrics = m
	}
}

// WithClock overrides the clock used for audit timestamps.
func WithClock(now func() time.Time) DepreciationServiceOption {
	return func(s *depreciationService) {
		s.now = now
		s.builder.now = now
	}
}

// NewDepreciationService creates a new depreciation service with the given options
func NewDepreciationService(repo portsrepo.LedgerRepositoryWithTx, cfg *config.Config, options ...DepreciationServiceOption) *depreciationService {
	svc := &depreciationService{
		repo:      repo,
		cfg:       cfg,
		calc:      depreciation.NewCalculator(cfg.DefaultDepreciationYears),
		builder:   newJournalBuilder(cfg.AccountCodes),
		locks:     NewKeyedLocker(),
		publisher: events.NopPublisher{},
		now:       time.Now,
	}

	for _, option := range options {
		option(svc)
	}
	if svc.metrics == nil {
		svc.metrics = metrics.New(prometheus.NewRegistry())
	}

	return svc
}

var _ portssvc.DepreciationSvcFacade = (*depreciationService)(nil)

// GetAsset returns the asset with its cached totals.
func (s *depreciationService) GetAsset(ctx context.Context, assetID string) (*domain.Asset, error) {
	asset, err := s.repo.FindAssetByID(ctx, assetID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load asset", slog.String("asset_id", assetID))
		}
		return nil, err
	}
	return asset, nil
}

// GetAssetLedger collects every posting for an asset with per-fiscal-year depreciation totals.
func (s *depreciationService) GetAssetLedger(ctx context.Context, assetID string) (*dto.AssetLedgerResponse, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListJournalEntriesForAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries for asset %s: %w", assetID, err)
	}
	records, err := s.repo.ListMonthlyRecords(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly records for asset %s: %w", assetID, err)
	}

	resp := &dto.AssetLedgerResponse{
		Asset:          dto.ToAssetResponse(asset),
		Entries:        make([]dto.JournalEntryResponse, len(entries)),
		MonthlyRecords: dto.ToMonthlyRecordResponses(records),
	}
	for i := range entries {
		resp.Entries[i] = dto.ToJournalEntryResponse(&entries[i])
	}

	byYear := map[int]decimal.Decimal{}
	for _, r := range records {
		fy := s.cfg.FiscalYearOf(r.Period.StartDate())
		byYear[fy] = byYear[fy].Add(r.Amount)
	}
	for fy, total := range byYear {
		resp.FiscalYears = append(resp.FiscalYears, dto.FiscalYearTotal{FiscalYear: fy, Depreciation: money.RoundToCent(total)})
	}
	sort.Slice(resp.FiscalYears, func(i, j int) bool { return resp.FiscalYears[i].FiscalYear < resp.FiscalYears[j].FiscalYear })

	if asset.IsDisposed() {
		disposition, err := s.repo.FindDisposition(ctx, assetID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to load disposition for asset %s: %w", assetID, err)
		}
		resp.Disposition = disposition
	}
	return resp, nil
}

// ValidateEntry checks that an entry balances.
func (s *depreciationService) ValidateEntry(entry domain.JournalEntry) error {
	return accounting.ValidateJournalBalance(entry)
}

// postEntry validates and inserts an entry. An unbalanced entry is a defect and aborts the transaction.
func (s *depreciationService) postEntry(ctx context.Context, tx portsrepo.LedgerRepositoryFacade, entry domain.JournalEntry) error {
	if err := s.ValidateEntry(entry); err != nil {
		s.LogError(ctx, err, "Refusing to post unbalanced journal entry",
			slog.String("asset_id", entry.AssetID),
			slog.String("entry_type", string(entry.EntryType)))
		return err
	}
	if err := tx.InsertJournalEntryWithLines(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert %s entry: %w", entry.EntryType, err)
	}
	return nil
}

// refreshAssetCache recomputes TotalDepreciation and CurrentValue from ledger sums and stores them.
// CurrentValue is the asset account balance net of accumulated depreciation, so it drops to zero
// once the disposition entry removes the asset from the books.
func (s *depreciationService) refreshAssetCache(ctx context.Context, tx portsrepo.LedgerRepositoryFacade, asset *domain.Asset, lastReconciled *domain.Period) error {
	codes := s.cfg.AccountCodes
	accumulatedCredits, err := tx.SumCreditsForAsset(ctx, asset.AssetID, codes.AccumulatedDepreciation, endOfTime)
	if err != nil {
		return err
	}
	accumulatedDebits, err := tx.SumDebitsForAsset(ctx, asset.AssetID, codes.AccumulatedDepreciation, endOfTime)
	if err != nil {
		return err
	}
	assetDebits, err := tx.SumDebitsForAsset(ctx, asset.AssetID, codes.Asset, endOfTime)
	if err != nil {
		return err
	}
	assetCredits, err := tx.SumCreditsForAsset(ctx, asset.AssetID, codes.Asset, endOfTime)
	if err != nil {
		return err
	}

	total := money.RoundToCent(accumulatedCredits)
	current := money.RoundToCent(assetDebits.Sub(assetCredits).Sub(accumulatedCredits.Sub(accumulatedDebits)))

	if err := tx.UpdateAssetCache(ctx, asset.AssetID, total, current, lastReconciled, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to update cached totals for asset %s: %w", asset.AssetID, err)
	}
	asset.TotalDepreciation = total
	asset.CurrentValue = current
	asset.LastReconciledPeriod = lastReconciled
	return nil
}

// publish sends an integration event after commit. Failures are logged and counted, never returned.
func (s *depreciationService) publish(ctx context.Context, eventType, assetID string, payload any) {
	event := events.Event{Type: eventType, AssetID: assetID, OccurredAt: s.now().UTC(), Payload: payload}
	if err := s.publisher.Publish(ctx, assetID, event); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.LogError(ctx, err, "Failed to publish integration event",
			slog.String("event_type", eventType),
			slog.String("asset_id", assetID))
	}
}
