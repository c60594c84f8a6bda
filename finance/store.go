/*
store.go - Persistence interfaces for buckets, ledger entries, batches, goals and dues

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  needs only three things: bucket definitions, an append-only ledger, and
  a way to group ledger entries into a batch and drop a batch by id.

KEY INTERFACES:
  BucketStore: bucket definitions
  LedgerStore: append, bulk delete, aggregation queries
  BatchStore:  batch records and their items
  GoalStore:   debt/savings goals
  DueStore:    bill calendar
  TxStore:     all of the above plus WithTx for all-or-nothing writes

REFERENTIAL RULES (every implementation must honor them):
  - Deleting a bucket sets BucketID = nil on its entries (history is kept)
  - Deleting a goal sets GoalID = nil on its entries
  - Deleting an entry removes it from any batch
  - Deleting a batch removes its items

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite via database/sql
  - finance/store/memory.go: in-memory, for tests and local runs
*/
package finance

import (
	"context"
	"time"
)

// =============================================================================
// BUCKETS
// =============================================================================

type BucketStore interface {
	// ListBuckets returns every bucket, ascending by id.
	ListBuckets(ctx context.Context) ([]Bucket, error)

	// ListActiveBuckets returns active buckets, ascending by id.
	ListActiveBuckets(ctx context.Context) ([]Bucket, error)

	// GetBucket returns nil, nil when the bucket doesn't exist.
	GetBucket(ctx context.Context, id BucketID) (*Bucket, error)

	// FindBucketByName returns nil, nil when no bucket has that name.
	FindBucketByName(ctx context.Context, name string) (*Bucket, error)

	// UpsertBucket inserts when ID is zero, updates otherwise. Returns the id.
	UpsertBucket(ctx context.Context, b Bucket) (BucketID, error)

	// DeleteBucketsNotIn removes every bucket whose id is not in keep.
	// Callers guarantee keep is non-empty.
	DeleteBucketsNotIn(ctx context.Context, keep []BucketID) (int, error)
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerStore interface {
	// AppendEntry persists an entry and returns its new id.
	AppendEntry(ctx context.Context, e LedgerEntry) (EntryID, error)

	// DeleteEntries removes the given entries. Empty ids is a no-op.
	DeleteEntries(ctx context.Context, ids []EntryID) error

	// ListEntries returns entries newest first (date desc, id desc).
	ListEntries(ctx context.Context, filter EntryFilter) ([]EntryView, error)

	// BucketBalances aggregates every active bucket, ascending by id.
	BucketBalances(ctx context.Context) ([]BucketBalance, error)

	// BucketBalance aggregates a single bucket regardless of its active flag.
	BucketBalance(ctx context.Context, id BucketID) (BucketBalance, error)

	// DailyTotals groups inflow/outflow by date for dates >= since, ascending.
	DailyTotals(ctx context.Context, since Date) ([]PeriodTotals, error)

	// MonthlyTotals groups inflow/outflow by year-month over all history.
	MonthlyTotals(ctx context.Context) ([]PeriodTotals, error)
}

// =============================================================================
// BATCHES
// =============================================================================

type BatchStore interface {
	CreateBatch(ctx context.Context, kind, note string, createdAt time.Time) (BatchID, error)
	AddBatchItem(ctx context.Context, batchID BatchID, entryID EntryID) error

	// GetBatch returns nil, nil for an unknown id.
	GetBatch(ctx context.Context, id BatchID) (*Batch, error)

	// DeleteBatch removes the batch and its items (not the entries).
	DeleteBatch(ctx context.Context, id BatchID) error
}

// =============================================================================
// GOALS AND DUES
// =============================================================================

type GoalStore interface {
	// UpsertGoal inserts or updates by name. Returns the goal id.
	UpsertGoal(ctx context.Context, g Goal) (GoalID, error)

	// GetGoal returns nil, nil when the goal doesn't exist.
	GetGoal(ctx context.Context, id GoalID) (*Goal, error)

	// ListGoals returns goals in fetch order (ascending id).
	ListGoals(ctx context.Context) ([]Goal, error)

	DeleteGoal(ctx context.Context, id GoalID) error
}

type DueStore interface {
	// SaveDue inserts when ID is zero, updates otherwise.
	SaveDue(ctx context.Context, d Due) (DueID, error)
	DeleteDue(ctx context.Context, id DueID) error

	// ListDues returns dues with from <= due_date <= to, ordered by due date.
	// Zero dates leave that side open.
	ListDues(ctx context.Context, from, to Date) ([]Due, error)
}

// =============================================================================
// COMPOSITE
// =============================================================================

type Store interface {
	BucketStore
	LedgerStore
	BatchStore
	GoalStore
	DueStore
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Reset clears all data (demo scenarios only).
	Reset(ctx context.Context) error
}
