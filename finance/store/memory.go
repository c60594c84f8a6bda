// Package store provides Store implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/warp/bucket-ledger/finance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps everything in maps guarded by one RWMutex. Every exported
// method locks and delegates to state, which holds the unlocked logic.
type Memory struct {
	mu sync.RWMutex
	st *state
}

func NewMemory() *Memory {
	return &Memory{st: newState()}
}

type batchRecord struct {
	createdAt time.Time
	kind      string
	note      string
	items     []finance.EntryID
}

type state struct {
	buckets map[finance.BucketID]finance.Bucket
	entries map[finance.EntryID]finance.LedgerEntry
	batches map[finance.BatchID]batchRecord
	goals   map[finance.GoalID]finance.Goal
	dues    map[finance.DueID]finance.Due

	nextBucket finance.BucketID
	nextEntry  finance.EntryID
	nextBatch  finance.BatchID
	nextGoal   finance.GoalID
	nextDue    finance.DueID
}

func newState() *state {
	return &state{
		buckets:    make(map[finance.BucketID]finance.Bucket),
		entries:    make(map[finance.EntryID]finance.LedgerEntry),
		batches:    make(map[finance.BatchID]batchRecord),
		goals:      make(map[finance.GoalID]finance.Goal),
		dues:       make(map[finance.DueID]finance.Due),
		nextBucket: 1,
		nextEntry:  1,
		nextBatch:  1,
		nextGoal:   1,
		nextDue:    1,
	}
}

// clone deep-copies the state for rollback.
func (s *state) clone() *state {
	c := *s
	c.buckets = maps.Clone(s.buckets)
	c.entries = maps.Clone(s.entries)
	c.goals = maps.Clone(s.goals)
	c.dues = maps.Clone(s.dues)
	c.batches = make(map[finance.BatchID]batchRecord, len(s.batches))
	for id, b := range s.batches {
		b.items = append([]finance.EntryID(nil), b.items...)
		c.batches[id] = b
	}
	return &c
}

// =============================================================================
// LOCKED WRAPPERS
// =============================================================================

func (m *Memory) ListBuckets(ctx context.Context) ([]finance.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListBuckets(ctx)
}

func (m *Memory) ListActiveBuckets(ctx context.Context) ([]finance.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListActiveBuckets(ctx)
}

func (m *Memory) GetBucket(ctx context.Context, id finance.BucketID) (*finance.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetBucket(ctx, id)
}

func (m *Memory) FindBucketByName(ctx context.Context, name string) (*finance.Bucket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.FindBucketByName(ctx, name)
}

func (m *Memory) UpsertBucket(ctx context.Context, b finance.Bucket) (finance.BucketID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpsertBucket(ctx, b)
}

func (m *Memory) DeleteBucketsNotIn(ctx context.Context, keep []finance.BucketID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteBucketsNotIn(ctx, keep)
}

func (m *Memory) AppendEntry(ctx context.Context, e finance.LedgerEntry) (finance.EntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AppendEntry(ctx, e)
}

func (m *Memory) DeleteEntries(ctx context.Context, ids []finance.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteEntries(ctx, ids)
}

func (m *Memory) ListEntries(ctx context.Context, f finance.EntryFilter) ([]finance.EntryView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListEntries(ctx, f)
}

func (m *Memory) BucketBalances(ctx context.Context) ([]finance.BucketBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.BucketBalances(ctx)
}

func (m *Memory) BucketBalance(ctx context.Context, id finance.BucketID) (finance.BucketBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.BucketBalance(ctx, id)
}

func (m *Memory) DailyTotals(ctx context.Context, since finance.Date) ([]finance.PeriodTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.DailyTotals(ctx, since)
}

func (m *Memory) MonthlyTotals(ctx context.Context) ([]finance.PeriodTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.MonthlyTotals(ctx)
}

func (m *Memory) CreateBatch(ctx context.Context, kind, note string, createdAt time.Time) (finance.BatchID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.CreateBatch(ctx, kind, note, createdAt)
}

func (m *Memory) AddBatchItem(ctx context.Context, batchID finance.BatchID, entryID finance.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.AddBatchItem(ctx, batchID, entryID)
}

func (m *Memory) GetBatch(ctx context.Context, id finance.BatchID) (*finance.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetBatch(ctx, id)
}

func (m *Memory) DeleteBatch(ctx context.Context, id finance.BatchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteBatch(ctx, id)
}

func (m *Memory) UpsertGoal(ctx context.Context, g finance.Goal) (finance.GoalID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.UpsertGoal(ctx, g)
}

func (m *Memory) GetGoal(ctx context.Context, id finance.GoalID) (*finance.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.GetGoal(ctx, id)
}

func (m *Memory) ListGoals(ctx context.Context) ([]finance.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListGoals(ctx)
}

func (m *Memory) DeleteGoal(ctx context.Context, id finance.GoalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteGoal(ctx, id)
}

func (m *Memory) SaveDue(ctx context.Context, d finance.Due) (finance.DueID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.SaveDue(ctx, d)
}

func (m *Memory) DeleteDue(ctx context.Context, id finance.DueID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.DeleteDue(ctx, id)
}

func (m *Memory) ListDues(ctx context.Context, from, to finance.Date) ([]finance.Due, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.st.ListDues(ctx, from, to)
}

// =============================================================================
// BUCKETS
// =============================================================================

func (s *state) sortedBuckets(activeOnly bool) []finance.Bucket {
	out := make([]finance.Bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) ListBuckets(context.Context) ([]finance.Bucket, error) {
	return s.sortedBuckets(false), nil
}

func (s *state) ListActiveBuckets(context.Context) ([]finance.Bucket, error) {
	return s.sortedBuckets(true), nil
}

func (s *state) GetBucket(_ context.Context, id finance.BucketID) (*finance.Bucket, error) {
	b, ok := s.buckets[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *state) FindBucketByName(_ context.Context, name string) (*finance.Bucket, error) {
	for _, b := range s.buckets {
		if b.Name == name {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *state) UpsertBucket(_ context.Context, b finance.Bucket) (finance.BucketID, error) {
	for _, other := range s.buckets {
		if other.Name == b.Name && other.ID != b.ID {
			return 0, &finance.ValidationError{Field: "name", Message: fmt.Sprintf("bucket %q already exists", b.Name)}
		}
	}
	if b.ID == 0 {
		b.ID = s.nextBucket
	}
	if b.ID >= s.nextBucket {
		s.nextBucket = b.ID + 1
	}
	s.buckets[b.ID] = b
	return b.ID, nil
}

func (s *state) DeleteBucketsNotIn(_ context.Context, keep []finance.BucketID) (int, error) {
	if len(keep) == 0 {
		return 0, errors.New("refusing to delete every bucket")
	}
	keepSet := make(map[finance.BucketID]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	removed := 0
	for id := range s.buckets {
		if keepSet[id] {
			continue
		}
		delete(s.buckets, id)
		removed++

		// ON DELETE SET NULL
		for eid, e := range s.entries {
			if e.BucketID != nil && *e.BucketID == id {
				e.BucketID = nil
				s.entries[eid] = e
			}
		}
	}
	return removed, nil
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *state) AppendEntry(_ context.Context, e finance.LedgerEntry) (finance.EntryID, error) {
	if !e.Type.Valid() {
		return 0, fmt.Errorf("invalid entry type %q", e.Type)
	}
	if e.Amount.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", e.Amount)
	}
	if e.BucketID != nil {
		if _, ok := s.buckets[*e.BucketID]; !ok {
			return 0, fmt.Errorf("bucket %d: foreign key violation", *e.BucketID)
		}
		id := *e.BucketID
		e.BucketID = &id
	}
	if e.GoalID != nil {
		if _, ok := s.goals[*e.GoalID]; !ok {
			return 0, fmt.Errorf("goal %d: foreign key violation", *e.GoalID)
		}
		id := *e.GoalID
		e.GoalID = &id
	}

	e.ID = s.nextEntry
	e.Amount = finance.Round2(e.Amount)
	s.nextEntry++
	s.entries[e.ID] = e
	return e.ID, nil
}

func (s *state) DeleteEntries(_ context.Context, ids []finance.EntryID) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[finance.EntryID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
		delete(s.entries, id)
	}

	// ON DELETE CASCADE on batch items
	for bid, b := range s.batches {
		kept := b.items[:0:0]
		for _, item := range b.items {
			if !drop[item] {
				kept = append(kept, item)
			}
		}
		b.items = kept
		s.batches[bid] = b
	}
	return nil
}

func (s *state) ListEntries(_ context.Context, f finance.EntryFilter) ([]finance.EntryView, error) {
	out := make([]finance.EntryView, 0, len(s.entries))
	for _, e := range s.entries {
		if !f.From.IsZero() && e.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Date.After(f.To) {
			continue
		}
		if f.BucketID != nil && (e.BucketID == nil || *e.BucketID != *f.BucketID) {
			continue
		}
		view := finance.EntryView{LedgerEntry: e}
		if e.BucketID != nil {
			view.BucketName = s.buckets[*e.BucketID].Name
		}
		out = append(out, view)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *state) allEntries() []finance.LedgerEntry {
	out := make([]finance.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

func (s *state) BucketBalances(context.Context) ([]finance.BucketBalance, error) {
	return finance.SumBalances(s.sortedBuckets(true), s.allEntries()), nil
}

func (s *state) BucketBalance(_ context.Context, id finance.BucketID) (finance.BucketBalance, error) {
	b, ok := s.buckets[id]
	if !ok {
		return finance.BucketBalance{BucketID: id}, nil
	}
	return finance.SumBalances([]finance.Bucket{b}, s.allEntries())[0], nil
}

func (s *state) DailyTotals(_ context.Context, since finance.Date) ([]finance.PeriodTotals, error) {
	var window []finance.LedgerEntry
	for _, e := range s.entries {
		if e.Date.OnOrAfter(since) {
			window = append(window, e)
		}
	}
	return finance.GroupTotals(window, finance.DayKey), nil
}

func (s *state) MonthlyTotals(context.Context) ([]finance.PeriodTotals, error) {
	return finance.GroupTotals(s.allEntries(), finance.MonthKey), nil
}

// =============================================================================
// BATCHES
// =============================================================================

func (s *state) CreateBatch(_ context.Context, kind, note string, createdAt time.Time) (finance.BatchID, error) {
	id := s.nextBatch
	s.nextBatch++
	s.batches[id] = batchRecord{createdAt: createdAt.UTC(), kind: kind, note: note}
	return id, nil
}

func (s *state) AddBatchItem(_ context.Context, batchID finance.BatchID, entryID finance.EntryID) error {
	b, ok := s.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %d: foreign key violation", batchID)
	}
	if _, ok := s.entries[entryID]; !ok {
		return fmt.Errorf("entry %d: foreign key violation", entryID)
	}
	b.items = append(b.items, entryID)
	s.batches[batchID] = b
	return nil
}

func (s *state) GetBatch(_ context.Context, id finance.BatchID) (*finance.Batch, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	return &finance.Batch{
		ID:        id,
		CreatedAt: b.createdAt,
		Kind:      b.kind,
		Note:      b.note,
		Items:     append([]finance.EntryID(nil), b.items...),
	}, nil
}

func (s *state) DeleteBatch(_ context.Context, id finance.BatchID) error {
	delete(s.batches, id)
	return nil
}

// =============================================================================
// GOALS & DUES
// =============================================================================

func (s *state) UpsertGoal(_ context.Context, g finance.Goal) (finance.GoalID, error) {
	g.ID = 0
	for id, existing := range s.goals {
		if existing.Name == g.Name {
			g.ID = id
			break
		}
	}
	if g.ID == 0 {
		g.ID = s.nextGoal
		s.nextGoal++
	}
	s.goals[g.ID] = g
	return g.ID, nil
}

func (s *state) GetGoal(_ context.Context, id finance.GoalID) (*finance.Goal, error) {
	g, ok := s.goals[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *state) ListGoals(context.Context) ([]finance.Goal, error) {
	out := make([]finance.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *state) DeleteGoal(_ context.Context, id finance.GoalID) error {
	delete(s.goals, id)
	for eid, e := range s.entries {
		if e.GoalID != nil && *e.GoalID == id {
			e.GoalID = nil
			s.entries[eid] = e
		}
	}
	return nil
}

func (s *state) SaveDue(_ context.Context, d finance.Due) (finance.DueID, error) {
	if d.ID == 0 {
		d.ID = s.nextDue
	}
	if d.ID >= s.nextDue {
		s.nextDue = d.ID + 1
	}
	s.dues[d.ID] = d
	return d.ID, nil
}

func (s *state) DeleteDue(_ context.Context, id finance.DueID) error {
	delete(s.dues, id)
	return nil
}

func (s *state) ListDues(_ context.Context, from, to finance.Date) ([]finance.Due, error) {
	out := make([]finance.Due, 0, len(s.dues))
	for _, d := range s.dues {
		if !from.IsZero() && d.DueDate.Before(from) {
			continue
		}
		if !to.IsZero() && d.DueDate.After(to) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// fn sees the unlocked state, so it must not call back into tm.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(finance.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.st.clone()
	if err := fn(tm.st); err != nil {
		tm.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		tm.st = snapshot
		return err
	}
	return nil
}

// Reset drops all data and restarts id sequences.
func (tm *TxMemory) Reset(context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.st = newState()
	return nil
}

var _ finance.TxStore = (*TxMemory)(nil)
