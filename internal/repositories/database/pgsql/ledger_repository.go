package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/herd_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/herd_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/herd_ledger/internal/models"
	"github.com/SscSPs/herd_ledger/internal/utils/mapping"
)

const assetColumns = `asset_id, tag_number, name, purchase_price, salvage_value, service_start_date,
	depreciation_method, status, disposition_id, total_depreciation, current_value,
	last_reconciled_year, last_reconciled_month, created_at, created_by, last_updated_at, last_updated_by`

const recordColumns = `record_id, asset_id, period_year, period_month, amount, accumulated_after,
	book_value_after, journal_entry_id, is_partial, created_at`

const dispositionColumns = `disposition_id, asset_id, disposition_date, disposition_type, sale_amount,
	final_book_value, gain_loss, journal_entry_id, algorithm_version, notes, created_at, created_by`

// PgxLedgerRepository implements the ledger store on PostgreSQL. A repository built by
// WithTx runs every statement on that transaction; the root one runs them on the pool.
type PgxLedgerRepository struct {
	BaseRepository
	db querier
}

var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		db:             pool,
	}
}

// WithTx runs fn inside a single transaction.
func (r *PgxLedgerRepository) WithTx(ctx context.Context, fn func(txRepo portsrepo.LedgerRepositoryFacade) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Rollback(ctx, tx)
	}()

	txRepo := &PgxLedgerRepository{BaseRepository: r.BaseRepository, db: tx}
	if err := fn(txRepo); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var m models.Asset
	err := row.Scan(
		&m.AssetID, &m.TagNumber, &m.Name, &m.PurchasePrice, &m.SalvageValue, &m.ServiceStartDate,
		&m.DepreciationMethod, &m.Status, &m.DispositionID, &m.TotalDepreciation, &m.CurrentValue,
		&m.LastReconciledYear, &m.LastReconciledMonth, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	a := mapping.ToDomainAsset(m)
	return &a, nil
}

func (r *PgxLedgerRepository) findAsset(ctx context.Context, assetID string, lock bool) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE asset_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	asset, err := scanAsset(r.db.QueryRow(ctx, query, assetID))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("asset %s not found", assetID))
	}
	return asset, nil
}

func (r *PgxLedgerRepository) FindAssetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	return r.findAsset(ctx, assetID, false)
}

func (r *PgxLedgerRepository) FindAssetByIDForUpdate(ctx context.Context, assetID string) (*domain.Asset, error) {
	return r.findAsset(ctx, assetID, true)
}

func (r *PgxLedgerRepository) ListActiveAssetIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT asset_id FROM assets WHERE status <> $1 ORDER BY asset_id`, string(domain.AssetDisposed))
	if err != nil {
		return nil, mapError(err, "failed to list active assets")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, mapError(err, "failed to scan active assets")
	}
	return ids, nil
}

func (r *PgxLedgerRepository) SaveAsset(ctx context.Context, asset domain.Asset) error {
	m := mapping.ToModelAsset(asset)
	query := `INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.db.Exec(ctx, query,
		m.AssetID, m.TagNumber, m.Name, m.PurchasePrice, m.SalvageValue, m.ServiceStartDate,
		m.DepreciationMethod, m.Status, m.DispositionID, m.TotalDepreciation, m.CurrentValue,
		m.LastReconciledYear, m.LastReconciledMonth, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to save asset %s", asset.TagNumber))
	}
	return nil
}

func (r *PgxLedgerRepository) UpdateAssetCache(ctx context.Context, assetID string, totalDepreciation, currentValue decimal.Decimal, lastReconciled *domain.Period, updatedAt time.Time) error {
	year, month := mapping.PeriodColumns(lastReconciled)
	tag, err := r.db.Exec(ctx, `
		UPDATE assets
		SET total_depreciation = $2, current_value = $3, last_reconciled_year = $4,
			last_reconciled_month = $5, last_updated_at = $6
		WHERE asset_id = $1`,
		assetID, totalDepreciation, currentValue, year, month, updatedAt,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to update cache of asset %s", assetID))
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, fmt.Sprintf("asset %s not found", assetID))
	}
	return nil
}

func (r *PgxLedgerRepository) UpdateAssetStatus(ctx context.Context, assetID string, status domain.AssetStatus, dispositionID *string, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE assets SET status = $2, disposition_id = $3, last_updated_at = $4
		WHERE asset_id = $1`,
		assetID, string(status), dispositionID, updatedAt,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to update status of asset %s", assetID))
	}
	if tag.RowsAffected() == 0 {
		return mapError(pgx.ErrNoRows, fmt.Sprintf("asset %s not found", assetID))
	}
	return nil
}

func scanRecord(row pgx.Row) (domain.MonthlyDepreciationRecord, error) {
	var m models.MonthlyDepreciationRecord
	err := row.Scan(
		&m.RecordID, &m.AssetID, &m.PeriodYear, &m.PeriodMonth, &m.Amount, &m.AccumulatedAfter,
		&m.BookValueAfter, &m.JournalEntryID, &m.IsPartial, &m.CreatedAt,
	)
	return mapping.ToDomainMonthlyRecord(m), err
}

func (r *PgxLedgerRepository) FindMonthlyRecord(ctx context.Context, assetID string, period domain.Period) (*domain.MonthlyDepreciationRecord, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM monthly_depreciation
		WHERE asset_id = $1 AND period_year = $2 AND period_month = $3`,
		assetID, period.Year, int(period.Month),
	))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("no depreciation record for asset %s in %s", assetID, period))
	}
	return &rec, nil
}

func (r *PgxLedgerRepository) ListMonthlyRecords(ctx context.Context, assetID string) ([]domain.MonthlyDepreciationRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+` FROM monthly_depreciation
		WHERE asset_id = $1 ORDER BY period_year, period_month`,
		assetID,
	)
	if err != nil {
		return nil, mapError(err, "failed to list depreciation records")
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MonthlyDepreciationRecord, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, mapError(err, "failed to scan depreciation records")
	}
	return records, nil
}

func (r *PgxLedgerRepository) InsertMonthlyRecords(ctx context.Context, records []domain.MonthlyDepreciationRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `INSERT INTO monthly_depreciation (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, rec := range records {
		m := mapping.ToModelMonthlyRecord(rec)
		batch.Queue(query,
			m.RecordID, m.AssetID, m.PeriodYear, m.PeriodMonth, m.Amount, m.AccumulatedAfter,
			m.BookValueAfter, m.JournalEntryID, m.IsPartial, m.CreatedAt,
		)
	}
	return r.execBatch(ctx, batch, "failed to insert depreciation records")
}

func (r *PgxLedgerRepository) execBatch(ctx context.Context, batch *pgx.Batch, msg string) error {
	br := r.db.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError(err, msg)
		}
	}
	if err := br.Close(); err != nil {
		return mapError(err, msg)
	}
	return nil
}

func (r *PgxLedgerRepository) ListJournalEntriesForAsset(ctx context.Context, assetID string) ([]domain.JournalEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT entry_id, asset_id, entry_date, entry_type, description, total_amount,
			created_at, created_by, last_updated_at, last_updated_by
		FROM journal_entries
		WHERE asset_id = $1
		ORDER BY entry_date, created_at, entry_id`,
		assetID,
	)
	if err != nil {
		return nil, mapError(err, "failed to list journal entries")
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.JournalEntry, error) {
		var m models.JournalEntry
		err := row.Scan(&m.EntryID, &m.AssetID, &m.EntryDate, &m.EntryType, &m.Description, &m.TotalAmount,
			&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
		return mapping.ToDomainJournalEntry(m), err
	})
	if err != nil {
		return nil, mapError(err, "failed to scan journal entries")
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]string, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		ids[i] = e.EntryID
		index[e.EntryID] = i
	}

	lineRows, err := r.db.Query(ctx, `
		SELECT line_id, entry_id, account_code, side, amount, asset_id
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, side DESC, line_id`,
		ids,
	)
	if err != nil {
		return nil, mapError(err, "failed to list journal lines")
	}
	lines, err := pgx.CollectRows(lineRows, func(row pgx.CollectableRow) (models.JournalLine, error) {
		var m models.JournalLine
		err := row.Scan(&m.LineID, &m.EntryID, &m.AccountCode, &m.Side, &m.Amount, &m.AssetID)
		return m, err
	})
	if err != nil {
		return nil, mapError(err, "failed to scan journal lines")
	}
	for _, l := range lines {
		i := index[l.EntryID]
		entries[i].Lines = append(entries[i].Lines, mapping.ToDomainJournalLine(l))
	}
	return entries, nil
}

func (r *PgxLedgerRepository) sumForAsset(ctx context.Context, assetID, accountCode string, side domain.Side, throughDate time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.amount), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE COALESCE(l.asset_id, e.asset_id) = $1
			AND l.account_code = $2
			AND l.side = $3
			AND e.entry_date <= $4`,
		assetID, accountCode, string(side), domain.DateOnly(throughDate),
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, mapError(err, fmt.Sprintf("failed to sum %s lines on %s", side, accountCode))
	}
	return sum, nil
}

func (r *PgxLedgerRepository) SumCreditsForAsset(ctx context.Context, assetID, accountCode string, throughDate time.Time) (decimal.Decimal, error) {
	return r.sumForAsset(ctx, assetID, accountCode, domain.Credit, throughDate)
}

func (r *PgxLedgerRepository) SumDebitsForAsset(ctx context.Context, assetID, accountCode string, throughDate time.Time) (decimal.Decimal, error) {
	return r.sumForAsset(ctx, assetID, accountCode, domain.Debit, throughDate)
}

func (r *PgxLedgerRepository) InsertJournalEntryWithLines(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (entry_id, asset_id, entry_date, entry_type, description, total_amount,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.EntryID, m.AssetID, domain.DateOnly(m.EntryDate), m.EntryType, m.Description, m.TotalAmount,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	for _, line := range entry.Lines {
		l := mapping.ToModelJournalLine(line)
		batch.Queue(`
			INSERT INTO journal_lines (line_id, entry_id, account_code, side, amount, asset_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			l.LineID, m.EntryID, l.AccountCode, l.Side, l.Amount, l.AssetID,
		)
	}
	return r.execBatch(ctx, batch, fmt.Sprintf("failed to insert journal entry %s", entry.EntryID))
}

func (r *PgxLedgerRepository) DeleteLinesAndEmptyEntriesAfter(ctx context.Context, assetID string, date time.Time) (portsrepo.DeleteResult, error) {
	var res portsrepo.DeleteResult

	rows, err := r.db.Query(ctx, `
		DELETE FROM journal_lines l
		USING journal_entries e
		WHERE l.entry_id = e.entry_id
			AND e.entry_date > $2
			AND COALESCE(l.asset_id, e.asset_id) = $1
		RETURNING l.entry_id`,
		assetID, domain.DateOnly(date),
	)
	if err != nil {
		return res, mapError(err, "failed to delete journal lines")
	}
	touched, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return res, mapError(err, "failed to delete journal lines")
	}
	res.LinesDeleted = len(touched)
	if len(touched) == 0 {
		return res, nil
	}

	rows, err = r.db.Query(ctx, `
		SELECT e.entry_id FROM journal_entries e
		WHERE e.entry_id = ANY($1)
			AND NOT EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = e.entry_id)`,
		touched,
	)
	if err != nil {
		return res, mapError(err, "failed to find emptied journal entries")
	}
	emptied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return res, mapError(err, "failed to find emptied journal entries")
	}
	if len(emptied) == 0 {
		return res, nil
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM monthly_depreciation WHERE asset_id = $1 AND journal_entry_id = ANY($2)`, assetID, emptied)
	if err != nil {
		return res, mapError(err, "failed to delete depreciation records")
	}
	res.RecordsDeleted = int(tag.RowsAffected())

	tag, err = r.db.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = ANY($1)`, emptied)
	if err != nil {
		return res, mapError(err, "failed to delete journal entries")
	}
	res.EntriesDeleted = int(tag.RowsAffected())
	return res, nil
}

func (r *PgxLedgerRepository) FindDisposition(ctx context.Context, assetID string) (*domain.DispositionRecord, error) {
	var m models.Disposition
	err := r.db.QueryRow(ctx, `SELECT `+dispositionColumns+` FROM dispositions WHERE asset_id = $1`, assetID).Scan(
		&m.DispositionID, &m.AssetID, &m.DispositionDate, &m.DispositionType, &m.SaleAmount,
		&m.FinalBookValue, &m.GainLoss, &m.JournalEntryID, &m.AlgorithmVersion, &m.Notes, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("no disposition for asset %s", assetID))
	}
	d := mapping.ToDomainDisposition(m)
	return &d, nil
}

func (r *PgxLedgerRepository) InsertDisposition(ctx context.Context, record domain.DispositionRecord) error {
	m := mapping.ToModelDisposition(record)
	_, err := r.db.Exec(ctx, `INSERT INTO dispositions (`+dispositionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.DispositionID, m.AssetID, domain.DateOnly(m.DispositionDate), m.DispositionType, m.SaleAmount,
		m.FinalBookValue, m.GainLoss, m.JournalEntryID, m.AlgorithmVersion, m.Notes, m.CreatedAt, m.CreatedBy,
	)
	if err != nil {
		return mapError(err, fmt.Sprintf("failed to record disposition of asset %s", record.AssetID))
	}
	return nil
}
