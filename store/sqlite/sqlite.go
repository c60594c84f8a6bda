/*
Package sqlite provides a SQLite-backed implementation of finance.TxStore.

PURPOSE:
  Persists buckets, ledger entries, batches, goals and dues in one SQLite
  file. Aggregations (balances, daily and monthly totals) run in SQL.

KEY TABLES:
  buckets:        allocation targets
  ledger_entries: dated movements, amount in integer cents
  batches:        groups of entries that are undone together
  batch_items:    batch membership (cascades on batch or entry delete)
  goals:          debts and savings targets, unique by name
  dues:           upcoming bills

MONEY:
  Amounts are stored as INTEGER cents (amount_cents, cost_cents, ...) so
  SUM never sees floating point. Percentages and weights are decimal text,
  scanned straight into decimal.Decimal.

REFERENTIAL RULES:
  Enforced by foreign keys (PRAGMA foreign_keys=on via DSN):
  - ledger_entries.bucket_id ON DELETE SET NULL
  - ledger_entries.goal_id   ON DELETE SET NULL
  - batch_items.*            ON DELETE CASCADE

CONCURRENCY:
  The pool is capped at one connection. database/sql then serializes every
  statement, and a ":memory:" database survives for the life of the Store.
  mu orders WithTx against Reset.

MIGRATION:
  Versioned SQL in migrations/ is embedded and applied by golang-migrate
  on New().

USAGE:
  store, err := sqlite.New("./finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := finance.NewEngine(store)

SEE ALSO:
  - finance/store.go: interface definitions
  - finance/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/bucket-ledger/finance"
)

// Store implements finance.TxStore using SQLite.
type Store struct {
	*queries

	db *sql.DB
	mu sync.Mutex
}

var _ finance.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{queries: &queries{q: db}, db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// TRANSACTIONAL STORE (finance.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction. Every call fn
// makes on the Store it receives goes through the same *sql.Tx.
func (s *Store) WithTx(ctx context.Context, fn func(store finance.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset clears all data and restarts id sequences (for demo scenarios).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tables := []string{"batch_items", "batches", "ledger_entries", "dues", "goals", "buckets"}
	for _, table := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
		return fmt.Errorf("reset sequences: %w", err)
	}
	return sqlTx.Commit()
}

// =============================================================================
// QUERIES - shared by Store (on *sql.DB) and transactions (on *sql.Tx)
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
}

// =============================================================================
// BUCKETS
// =============================================================================

const bucketColumns = `id, name, is_priority, percentage, active`

func scanBucket(row interface{ Scan(...any) error }) (finance.Bucket, error) {
	var b finance.Bucket
	err := row.Scan(&b.ID, &b.Name, &b.IsPriority, &b.Percentage, &b.Active)
	return b, err
}

func (s *queries) listBuckets(ctx context.Context, where string) ([]finance.Bucket, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+bucketColumns+` FROM buckets `+where+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []finance.Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (s *queries) ListBuckets(ctx context.Context) ([]finance.Bucket, error) {
	return s.listBuckets(ctx, "")
}

func (s *queries) ListActiveBuckets(ctx context.Context) ([]finance.Bucket, error) {
	return s.listBuckets(ctx, "WHERE active = 1")
}

func (s *queries) GetBucket(ctx context.Context, id finance.BucketID) (*finance.Bucket, error) {
	b, err := scanBucket(s.q.QueryRowContext(ctx, `SELECT `+bucketColumns+` FROM buckets WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *queries) FindBucketByName(ctx context.Context, name string) (*finance.Bucket, error) {
	b, err := scanBucket(s.q.QueryRowContext(ctx, `SELECT `+bucketColumns+` FROM buckets WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *queries) UpsertBucket(ctx context.Context, b finance.Bucket) (finance.BucketID, error) {
	var id finance.BucketID
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO buckets (id, name, is_priority, percentage, active)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_priority = excluded.is_priority,
			percentage = excluded.percentage,
			active = excluded.active
		RETURNING id
	`, b.ID, b.Name, b.IsPriority, b.Percentage.String(), b.Active).Scan(&id)
	if isUniqueConstraintError(err) {
		return 0, &finance.ValidationError{Field: "name", Message: fmt.Sprintf("bucket %q already exists", b.Name)}
	}
	return id, err
}

func (s *queries) DeleteBucketsNotIn(ctx context.Context, keep []finance.BucketID) (int, error) {
	if len(keep) == 0 {
		return 0, errors.New("refusing to delete every bucket")
	}
	placeholders, args := inClause(keep)
	res, err := s.q.ExecContext(ctx, `DELETE FROM buckets WHERE id NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *queries) AppendEntry(ctx context.Context, e finance.LedgerEntry) (finance.EntryID, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO ledger_entries (date, description, entry_type, amount_cents, bucket_id, goal_id, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.Date.String(),
		e.Description,
		string(e.Type),
		finance.ToCents(e.Amount),
		nullID(e.BucketID),
		nullID(e.GoalID),
		e.Source,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return finance.EntryID(id), err
}

func (s *queries) DeleteEntries(ctx context.Context, ids []finance.EntryID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	_, err := s.q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id IN (`+placeholders+`)`, args...)
	return err
}

func (s *queries) ListEntries(ctx context.Context, f finance.EntryFilter) ([]finance.EntryView, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "e.date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "e.date <= ?")
		args = append(args, f.To.String())
	}
	if f.BucketID != nil {
		where = append(where, "e.bucket_id = ?")
		args = append(args, *f.BucketID)
	}

	query := `
		SELECT e.id, e.date, e.description, e.entry_type, e.amount_cents,
		       e.bucket_id, e.goal_id, e.source, COALESCE(b.name, '')
		FROM ledger_entries e
		LEFT JOIN buckets b ON b.id = e.bucket_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.date DESC, e.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.EntryView
	for rows.Next() {
		var (
			v        finance.EntryView
			date     string
			typ      string
			cents    int64
			bucketID sql.NullInt64
			goalID   sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &date, &v.Description, &typ, &cents, &bucketID, &goalID, &v.Source, &v.BucketName); err != nil {
			return nil, err
		}
		if v.Date, err = finance.ParseDate(date); err != nil {
			return nil, err
		}
		v.Type = finance.EntryType(typ)
		v.Amount = finance.FromCents(cents)
		if bucketID.Valid {
			id := finance.BucketID(bucketID.Int64)
			v.BucketID = &id
		}
		if goalID.Valid {
			id := finance.GoalID(goalID.Int64)
			v.GoalID = &id
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// balanceExpr is Σ inflow + Σ transfer − Σ outflow over alias e, in cents.
const balanceExpr = `COALESCE(SUM(CASE
		WHEN e.entry_type IN ('inflow', 'transfer') THEN e.amount_cents
		WHEN e.entry_type = 'outflow' THEN -e.amount_cents
		ELSE 0 END), 0)`

func (s *queries) BucketBalances(ctx context.Context) ([]finance.BucketBalance, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT b.id, b.name, `+balanceExpr+`
		FROM buckets b
		LEFT JOIN ledger_entries e ON e.bucket_id = b.id
		WHERE b.active = 1
		GROUP BY b.id, b.name
		ORDER BY b.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.BucketBalance
	for rows.Next() {
		var (
			bal   finance.BucketBalance
			cents int64
		)
		if err := rows.Scan(&bal.BucketID, &bal.Name, &cents); err != nil {
			return nil, err
		}
		bal.Balance = finance.FromCents(cents)
		out = append(out, bal)
	}
	return out, rows.Err()
}

func (s *queries) BucketBalance(ctx context.Context, id finance.BucketID) (finance.BucketBalance, error) {
	bal := finance.BucketBalance{BucketID: id}
	var cents int64
	err := s.q.QueryRowContext(ctx, `
		SELECT b.name, `+balanceExpr+`
		FROM buckets b
		LEFT JOIN ledger_entries e ON e.bucket_id = b.id
		WHERE b.id = ?
		GROUP BY b.id, b.name
	`, id).Scan(&bal.Name, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return bal, nil
	}
	if err != nil {
		return bal, err
	}
	bal.Balance = finance.FromCents(cents)
	return bal, nil
}

func (s *queries) periodTotals(ctx context.Context, keyExpr, where string, args ...any) ([]finance.PeriodTotals, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+keyExpr+` AS period,
		       COALESCE(SUM(CASE WHEN entry_type = 'inflow'  THEN amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN entry_type = 'outflow' THEN amount_cents ELSE 0 END), 0)
		FROM ledger_entries
		`+where+`
		GROUP BY period
		ORDER BY period ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []finance.PeriodTotals
	for rows.Next() {
		var (
			row      finance.PeriodTotals
			in, outc int64
		)
		if err := rows.Scan(&row.Period, &in, &outc); err != nil {
			return nil, err
		}
		row.Inflows = finance.FromCents(in)
		row.Outflows = finance.FromCents(outc)
		row.Net = finance.FromCents(in - outc)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *queries) DailyTotals(ctx context.Context, since finance.Date) ([]finance.PeriodTotals, error) {
	return s.periodTotals(ctx, "date", "WHERE date >= ?", since.String())
}

func (s *queries) MonthlyTotals(ctx context.Context) ([]finance.PeriodTotals, error) {
	return s.periodTotals(ctx, "substr(date, 1, 7)", "")
}

// =============================================================================
// BATCHES
// =============================================================================

func (s *queries) CreateBatch(ctx context.Context, kind, note string, createdAt time.Time) (finance.BatchID, error) {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO batches (created_at, kind, note) VALUES (?, ?, ?)`,
		createdAt.UTC().Format(time.RFC3339Nano), kind, nullString(note),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return finance.BatchID(id), err
}

func (s *queries) AddBatchItem(ctx context.Context, batchID finance.BatchID, entryID finance.EntryID) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO batch_items (batch_id, entry_id) VALUES (?, ?)`, batchID, entryID)
	return err
}

func (s *queries) GetBatch(ctx context.Context, id finance.BatchID) (*finance.Batch, error) {
	b := finance.Batch{ID: id}
	var (
		createdAt string
		note      sql.NullString
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT created_at, kind, note FROM batches WHERE id = ?`, id,
	).Scan(&createdAt, &b.Kind, &note)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Note = note.String
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("batch %d created_at: %w", id, err)
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT entry_id FROM batch_items WHERE batch_id = ? ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var entryID finance.EntryID
		if err := rows.Scan(&entryID); err != nil {
			return nil, err
		}
		b.Items = append(b.Items, entryID)
	}
	return &b, rows.Err()
}

func (s *queries) DeleteBatch(ctx context.Context, id finance.BatchID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM batches WHERE id = ?`, id)
	return err
}

// =============================================================================
// GOALS
// =============================================================================

func (s *queries) UpsertGoal(ctx context.Context, g finance.Goal) (finance.GoalID, error) {
	var id finance.GoalID
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO goals (name, goal_type, cost_cents, monthly_relief_cents, interest_pa, priority_weight, color)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			goal_type = excluded.goal_type,
			cost_cents = excluded.cost_cents,
			monthly_relief_cents = excluded.monthly_relief_cents,
			interest_pa = excluded.interest_pa,
			priority_weight = excluded.priority_weight,
			color = excluded.color
		RETURNING id
	`,
		g.Name,
		string(g.Type),
		finance.ToCents(g.Cost),
		finance.ToCents(g.MonthlyRelief),
		g.InterestPA.String(),
		g.PriorityWeight.String(),
		nullString(g.Color),
	).Scan(&id)
	return id, err
}

const goalColumns = `id, name, goal_type, cost_cents, monthly_relief_cents, interest_pa, priority_weight, color`

func scanGoal(row interface{ Scan(...any) error }) (finance.Goal, error) {
	var (
		g            finance.Goal
		typ          string
		cost, relief int64
		color        sql.NullString
	)
	if err := row.Scan(&g.ID, &g.Name, &typ, &cost, &relief, &g.InterestPA, &g.PriorityWeight, &color); err != nil {
		return g, err
	}
	g.Type = finance.GoalType(typ)
	g.Cost = finance.FromCents(cost)
	g.MonthlyRelief = finance.FromCents(relief)
	g.Color = color.String
	return g, nil
}

func (s *queries) GetGoal(ctx context.Context, id finance.GoalID) (*finance.Goal, error) {
	g, err := scanGoal(s.q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *queries) ListGoals(ctx context.Context) ([]finance.Goal, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []finance.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *queries) DeleteGoal(ctx context.Context, id finance.GoalID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	return err
}

// =============================================================================
// DUES
// =============================================================================

func (s *queries) SaveDue(ctx context.Context, d finance.Due) (finance.DueID, error) {
	var id finance.DueID
	err := s.q.QueryRowContext(ctx, `
		INSERT INTO dues (id, name, due_date, amount_cents, kind, note)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			due_date = excluded.due_date,
			amount_cents = excluded.amount_cents,
			kind = excluded.kind,
			note = excluded.note
		RETURNING id
	`, d.ID, d.Name, d.DueDate.String(), finance.ToCents(d.Amount), nullString(d.Kind), nullString(d.Note)).Scan(&id)
	return id, err
}

func (s *queries) DeleteDue(ctx context.Context, id finance.DueID) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM dues WHERE id = ?`, id)
	return err
}

func (s *queries) ListDues(ctx context.Context, from, to finance.Date) ([]finance.Due, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "due_date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		where = append(where, "due_date <= ?")
		args = append(args, to.String())
	}
	query := `SELECT id, name, due_date, amount_cents, kind, note FROM dues`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY due_date ASC, id ASC"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dues []finance.Due
	for rows.Next() {
		var (
			d          finance.Due
			date       string
			cents      int64
			kind, note sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &date, &cents, &kind, &note); err != nil {
			return nil, err
		}
		if d.DueDate, err = finance.ParseDate(date); err != nil {
			return nil, err
		}
		d.Amount = finance.FromCents(cents)
		d.Kind = kind.String
		d.Note = note.String
		dues = append(dues, d)
	}
	return dues, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullID[T ~int64](id *T) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func inClause[T ~int64](ids []T) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
