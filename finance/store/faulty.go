package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warp/bucket-ledger/finance"
)

// ErrInjected is returned by Faulty when a planned failure fires.
var ErrInjected = errors.New("injected storage failure")

// Faulty wraps a TxStore and fails the Nth call of one write method made
// inside WithTx. Used to prove that multi-entry writes roll back.
//
//	f := store.NewFaulty(store.NewTxMemory(), "AppendEntry", 3)
//	_, err := engine.DistributeDaily(...) // third entry fails, nothing persists
type Faulty struct {
	finance.TxStore

	mu     sync.Mutex
	method string
	failAt int
	calls  int
}

// NewFaulty fails the failAt-th call (1-based) to method.
func NewFaulty(inner finance.TxStore, method string, failAt int) *Faulty {
	return &Faulty{TxStore: inner, method: method, failAt: failAt}
}

// Calls reports how many times the watched method ran.
func (f *Faulty) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Faulty) trip(method string) error {
	if method != f.method {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == f.failAt {
		return ErrInjected
	}
	return nil
}

func (f *Faulty) WithTx(ctx context.Context, fn func(finance.Store) error) error {
	return f.TxStore.WithTx(ctx, func(tx finance.Store) error {
		return fn(&faultyTx{Store: tx, f: f})
	})
}

type faultyTx struct {
	finance.Store
	f *Faulty
}

func (t *faultyTx) AppendEntry(ctx context.Context, e finance.LedgerEntry) (finance.EntryID, error) {
	if err := t.f.trip("AppendEntry"); err != nil {
		return 0, err
	}
	return t.Store.AppendEntry(ctx, e)
}

func (t *faultyTx) AddBatchItem(ctx context.Context, batchID finance.BatchID, entryID finance.EntryID) error {
	if err := t.f.trip("AddBatchItem"); err != nil {
		return err
	}
	return t.Store.AddBatchItem(ctx, batchID, entryID)
}

func (t *faultyTx) CreateBatch(ctx context.Context, kind, note string, createdAt time.Time) (finance.BatchID, error) {
	if err := t.f.trip("CreateBatch"); err != nil {
		return 0, err
	}
	return t.Store.CreateBatch(ctx, kind, note, createdAt)
}

func (t *faultyTx) DeleteEntries(ctx context.Context, ids []finance.EntryID) error {
	if err := t.f.trip("DeleteEntries"); err != nil {
		return err
	}
	return t.Store.DeleteEntries(ctx, ids)
}

func (t *faultyTx) DeleteBatch(ctx context.Context, id finance.BatchID) error {
	if err := t.f.trip("DeleteBatch"); err != nil {
		return err
	}
	return t.Store.DeleteBatch(ctx, id)
}

func (t *faultyTx) UpsertBucket(ctx context.Context, b finance.Bucket) (finance.BucketID, error) {
	if err := t.f.trip("UpsertBucket"); err != nil {
		return 0, err
	}
	return t.Store.UpsertBucket(ctx, b)
}
