// Package memory is a transactional in-memory ledger store used for tests, dry runs and the
// STORE_BACKEND=memory mode. Transactions are serialised and applied by swapping a cloned state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/herd_ledger/internal/apperrors"
	"github.com/SscSPs/herd_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
)

type storedEntry struct {
	entry domain.JournalEntry
	seq   int64
}

type state struct {
	assets       map[string]domain.Asset
	tags         map[string]string // tag number -> asset id
	records      map[string]map[domain.Period]domain.MonthlyDepreciationRecord
	entries      map[string]storedEntry
	dispositions map[string]domain.DispositionRecord // by asset id
	seq          int64
}

func newState() *state {
	return &state{
		assets:       map[string]domain.Asset{},
		tags:         map[string]string{},
		records:      map[string]map[domain.Period]domain.MonthlyDepreciationRecord{},
		entries:      map[string]storedEntry{},
		dispositions: map[string]domain.DispositionRecord{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	for assetID, byPeriod := range s.records {
		m := make(map[domain.Period]domain.MonthlyDepreciationRecord, len(byPeriod))
		for p, r := range byPeriod {
			m[p] = r
		}
		c.records[assetID] = m
	}
	for k, v := range s.entries {
		v.entry.Lines = append([]domain.JournalLine(nil), v.entry.Lines...)
		c.entries[k] = v
	}
	for k, v := range s.dispositions {
		c.dispositions[k] = v
	}
	c.seq = s.seq
	return c
}

// Store is the in-memory ledger. The zero value is not usable; call NewStore.
type Store struct {
	txMu  sync.Mutex // one writer at a time
	mu    sync.RWMutex
	state *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

var _ portsrepo.LedgerRepositoryWithTx = (*Store)(nil)

// WithTx runs fn against a private copy of the state and publishes it only if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(txRepo portsrepo.LedgerRepositoryFacade) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("transaction not started", err)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	if err := fn(&view{st: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("transaction aborted before commit", err)
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

func (s *Store) read(ctx context.Context, fn func(v *view) error) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("read cancelled", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&view{st: s.state})
}

func (s *Store) write(ctx context.Context, fn func(v portsrepo.LedgerRepositoryFacade) error) error {
	return s.WithTx(ctx, fn)
}

func (s *Store) FindAssetByID(ctx context.Context, assetID string) (a *domain.Asset, err error) {
	err = s.read(ctx, func(v *view) error { a, err = v.FindAssetByID(ctx, assetID); return err })
	return a, err
}

func (s *Store) FindAssetByIDForUpdate(ctx context.Context, assetID string) (*domain.Asset, error) {
	return s.FindAssetByID(ctx, assetID)
}

func (s *Store) ListActiveAssetIDs(ctx context.Context) (ids []string, err error) {
	err = s.read(ctx, func(v *view) error { ids, err = v.ListActiveAssetIDs(ctx); return err })
	return ids, err
}

func (s *Store) SaveAsset(ctx context.Context, asset domain.Asset) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error { return v.SaveAsset(ctx, asset) })
}

func (s *Store) UpdateAssetCache(ctx context.Context, assetID string, totalDepreciation, currentValue decimal.Decimal, lastReconciled *domain.Period, updatedAt time.Time) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error {
		return v.UpdateAssetCache(ctx, assetID, totalDepreciation, currentValue, lastReconciled, updatedAt)
	})
}

func (s *Store) UpdateAssetStatus(ctx context.Context, assetID string, status domain.AssetStatus, dispositionID *string, updatedAt time.Time) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error {
		return v.UpdateAssetStatus(ctx, assetID, status, dispositionID, updatedAt)
	})
}

func (s *Store) FindMonthlyRecord(ctx context.Context, assetID string, period domain.Period) (r *domain.MonthlyDepreciationRecord, err error) {
	err = s.read(ctx, func(v *view) error { r, err = v.FindMonthlyRecord(ctx, assetID, period); return err })
	return r, err
}

func (s *Store) ListMonthlyRecords(ctx context.Context, assetID string) (rs []domain.MonthlyDepreciationRecord, err error) {
	err = s.read(ctx, func(v *view) error { rs, err = v.ListMonthlyRecords(ctx, assetID); return err })
	return rs, err
}

func (s *Store) InsertMonthlyRecords(ctx context.Context, records []domain.MonthlyDepreciationRecord) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error { return v.InsertMonthlyRecords(ctx, records) })
}

func (s *Store) ListJournalEntriesForAsset(ctx context.Context, assetID string) (es []domain.JournalEntry, err error) {
	err = s.read(ctx, func(v *view) error { es, err = v.ListJournalEntriesForAsset(ctx, assetID); return err })
	return es, err
}

func (s *Store) SumCreditsForAsset(ctx context.Context, assetID, accountCode string, throughDate time.Time) (d decimal.Decimal, err error) {
	err = s.read(ctx, func(v *view) error { d, err = v.SumCreditsForAsset(ctx, assetID, accountCode, throughDate); return err })
	return d, err
}

func (s *Store) SumDebitsForAsset(ctx context.Context, assetID, accountCode string, throughDate time.Time) (d decimal.Decimal, err error) {
	err = s.read(ctx, func(v *view) error { d, err = v.SumDebitsForAsset(ctx, assetID, accountCode, throughDate); return err })
	return d, err
}

func (s *Store) InsertJournalEntryWithLines(ctx context.Context, entry domain.JournalEntry) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error { return v.InsertJournalEntryWithLines(ctx, entry) })
}

func (s *Store) DeleteLinesAndEmptyEntriesAfter(ctx context.Context, assetID string, date time.Time) (res portsrepo.DeleteResult, err error) {
	err = s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error {
		res, err = v.DeleteLinesAndEmptyEntriesAfter(ctx, assetID, date)
		return err
	})
	return res, err
}

func (s *Store) FindDisposition(ctx context.Context, assetID string) (d *domain.DispositionRecord, err error) {
	err = s.read(ctx, func(v *view) error { d, err = v.FindDisposition(ctx, assetID); return err })
	return d, err
}

func (s *Store) InsertDisposition(ctx context.Context, record domain.DispositionRecord) error {
	return s.write(ctx, func(v portsrepo.LedgerRepositoryFacade) error { return v.InsertDisposition(ctx, record) })
}

// view implements the ledger operations over one state snapshot.
type view struct {
	st *state
}

var _ portsrepo.LedgerRepositoryFacade = (*view)(nil)

func (v *view) FindAssetByID(_ context.Context, assetID string) (*domain.Asset, error) {
	a, ok := v.st.assets[assetID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("asset %s not found", assetID))
	}
	return &a, nil
}

func (v *view) FindAssetByIDForUpdate(ctx context.Context, assetID string) (*domain.Asset, error) {
	return v.FindAssetByID(ctx, assetID)
}

func (v *view) ListActiveAssetIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(v.st.assets))
	for id, a := range v.st.assets {
		if !a.IsDisposed() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (v *view) SaveAsset(_ context.Context, asset domain.Asset) error {
	if _, exists := v.st.assets[asset.AssetID]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("asset %s already exists", asset.AssetID))
	}
	if other, exists := v.st.tags[asset.TagNumber]; exists {
		return apperrors.NewConflictError(fmt.Sprintf("tag number %s already belongs to asset %s", asset.TagNumber, other))
	}
	v.st.assets[asset.AssetID] = asset
	v.st.tags[asset.TagNumber] = asset.AssetID
	return nil
}

func (v *view) UpdateAssetCache(_ context.Context, assetID string, totalDepreciation, currentValue decimal.Decimal, lastReconciled *domain.Period, updatedAt time.Time) error {
	a, ok := v.st.assets[assetID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("asset %s not found", assetID))
	}
	a.TotalDepreciation = totalDepreciation
	a.CurrentValue = currentValue
	if lastReconciled != nil {
		p := *lastReconciled
		a.LastReconciledPeriod = &p
	} else {
		a.LastReconciledPeriod = nil
	}
	a.LastUpdatedAt = updatedAt
	v.st.assets[assetID] = a
	return nil
}

func (v *view) UpdateAssetStatus(_ context.Context, assetID string, status domain.AssetStatus, dispositionID *string, updatedAt time.Time) error {
	a, ok := v.st.assets[assetID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("asset %s not found", assetID))
	}
	a.Status = status
	if dispositionID != nil {
		id := *dispositionID
		a.DispositionID = &id
	}
	a.LastUpdatedAt = updatedAt
	v.st.assets[assetID] = a
	return nil
}

func (v *view) FindMonthlyRecord(_ context.Context, assetID string, period domain.Period) (*domain.MonthlyDepreciationRecord, error) {
	r, ok := v.st.records[assetID][period]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no depreciation record for asset %s in %s", assetID, period))
	}
	return &r, nil
}

func (v *view) ListMonthlyRecords(_ context.Context, assetID string) ([]domain.MonthlyDepreciationRecord, error) {
	byPeriod := v.st.records[assetID]
	out := make([]domain.MonthlyDepreciationRecord, 0, len(byPeriod))
	for _, r := range byPeriod {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

func (v *view) InsertMonthlyRecords(_ context.Context, records []domain.MonthlyDepreciationRecord) error {
	for _, r := range records {
		byPeriod, ok := v.st.records[r.AssetID]
		if !ok {
			byPeriod = map[domain.Period]domain.MonthlyDepreciationRecord{}
			v.st.records[r.AssetID] = byPeriod
		}
		if _, dup := byPeriod[r.Period]; dup {
			return apperrors.NewConflictError(fmt.Sprintf("depreciation record for asset %s in %s already exists", r.AssetID, r.Period))
		}
		byPeriod[r.Period] = r
	}
	return nil
}

func (v *view) ListJournalEntriesForAsset(_ context.Context, assetID string) ([]domain.JournalEntry, error) {
	stored := make([]storedEntry, 0)
	for _, se := range v.st.entries {
		if se.entry.AssetID == assetID {
			stored = append(stored, se)
		}
	}
	sort.Slice(stored, func(i, j int) bool {
		if !stored[i].entry.EntryDate.Equal(stored[j].entry.EntryDate) {
			return stored[i].entry.EntryDate.Before(stored[j].entry.EntryDate)
		}
		return stored[i].seq < stored[j].seq
	})
	out := make([]domain.JournalEntry, len(stored))
	for i, se := range stored {
		e := se.entry
		e.Lines = append([]domain.JournalLine(nil), e.Lines...)
		out[i] = e
	}
	return out, nil
}

func (v *view) sumForAsset(assetID, accountCode string, side domain.Side, throughDate time.Time) decimal.Decimal {
	through := domain.DateOnly(throughDate)
	sum := decimal.Zero
	for _, se := range v.st.entries {
		if domain.DateOnly(se.entry.EntryDate).After(through) {
			continue
		}
		for _, l := range se.entry.Lines {
			if l.AccountCode != accountCode || l.Side != side || lineAssetID(se.entry, l) != assetID {
				continue
			}
			sum = sum.Add(l.Amount)
		}
	}
	return sum
}

func lineAssetID(e domain.JournalEntry, l domain.JournalLine) string {
	if l.AssetID != nil {
		return *l.AssetID
	}
	return e.AssetID
}

func (v *view) SumCreditsForAsset(_ context.Context, assetID, accountCode string, throughDate time.Time) (decimal.Decimal, error) {
	return v.sumForAsset(assetID, accountCode, domain.Credit, throughDate), nil
}

func (v *view) SumDebitsForAsset(_ context.Context, assetID, accountCode string, throughDate time.Time) (decimal.Decimal, error) {
	return v.sumForAsset(assetID, accountCode, domain.Debit, throughDate), nil
}

func (v *view) InsertJournalEntryWithLines(_ context.Context, entry domain.JournalEntry) error {
	if _, dup := v.st.entries[entry.EntryID]; dup {
		return apperrors.NewConflictError(fmt.Sprintf("journal entry %s already exists", entry.EntryID))
	}
	v.st.seq++
	entry.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	v.st.entries[entry.EntryID] = storedEntry{entry: entry, seq: v.st.seq}
	return nil
}

func (v *view) DeleteLinesAndEmptyEntriesAfter(_ context.Context, assetID string, date time.Time) (portsrepo.DeleteResult, error) {
	var res portsrepo.DeleteResult
	cutoff := domain.DateOnly(date)
	deletedEntries := map[string]bool{}

	for id, se := range v.st.entries {
		if !domain.DateOnly(se.entry.EntryDate).After(cutoff) {
			continue
		}
		kept := se.entry.Lines[:0:0]
		for _, l := range se.entry.Lines {
			if lineAssetID(se.entry, l) == assetID {
				res.LinesDeleted++
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) == len(se.entry.Lines) {
			continue
		}
		if len(kept) == 0 {
			delete(v.st.entries, id)
			deletedEntries[id] = true
			res.EntriesDeleted++
			continue
		}
		se.entry.Lines = kept
		v.st.entries[id] = se
	}

	for period, r := range v.st.records[assetID] {
		if deletedEntries[r.JournalEntryID] {
			delete(v.st.records[assetID], period)
			res.RecordsDeleted++
		}
	}
	return res, nil
}

func (v *view) FindDisposition(_ context.Context, assetID string) (*domain.DispositionRecord, error) {
	d, ok := v.st.dispositions[assetID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no disposition for asset %s", assetID))
	}
	return &d, nil
}

func (v *view) InsertDisposition(_ context.Context, record domain.DispositionRecord) error {
	if existing, dup := v.st.dispositions[record.AssetID]; dup {
		return apperrors.NewConflictError(fmt.Sprintf("asset %s already has disposition %s", record.AssetID, existing.DispositionID))
	}
	v.st.dispositions[record.AssetID] = record
	return nil
}
