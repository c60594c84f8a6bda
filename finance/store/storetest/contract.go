// Package storetest holds the behavior every finance.TxStore must share.
// Implementations run it from their own tests:
//
//	func TestMemory_Contract(t *testing.T) {
//		storetest.Run(t, func(t *testing.T) finance.TxStore { return store.NewTxMemory() })
//	}
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bucket-ledger/finance"
)

// Factory returns an empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) finance.TxStore

// Run executes every contract case against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s finance.TxStore)
	}{
		{"BucketUpsertAndList", testBucketUpsertAndList},
		{"BucketDuplicateName", testBucketDuplicateName},
		{"DeleteBucketsNotInKeepsHistory", testDeleteBucketsNotInKeepsHistory},
		{"ListEntriesOrderAndFilters", testListEntriesOrderAndFilters},
		{"BalanceFormula", testBalanceFormula},
		{"PeriodTotals", testPeriodTotals},
		{"BatchLifecycle", testBatchLifecycle},
		{"DeleteEntriesDropsBatchItems", testDeleteEntriesDropsBatchItems},
		{"GoalUpsertByNameAndDelete", testGoalUpsertByNameAndDelete},
		{"GetGoalAndEntryGoalLink", testGetGoalAndEntryGoalLink},
		{"DuesWindow", testDuesWindow},
		{"WithTxRollback", testWithTxRollback},
		{"WithTxCommit", testWithTxCommit},
		{"Reset", testReset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// =============================================================================
// HELPERS
// =============================================================================

var day = finance.NewDate(2025, time.March, 10)

func mustBucket(t *testing.T, s finance.Store, name string, pct string, active bool) finance.BucketID {
	t.Helper()
	id, err := s.UpsertBucket(context.Background(), finance.Bucket{
		Name:       name,
		Percentage: finance.MustMoney(pct),
		Active:     active,
	})
	require.NoError(t, err)
	return id
}

func mustEntry(t *testing.T, s finance.Store, bucket finance.BucketID, typ finance.EntryType, amount string, date finance.Date) finance.EntryID {
	t.Helper()
	id, err := s.AppendEntry(context.Background(), finance.LedgerEntry{
		Date:        date,
		Description: string(typ) + " " + amount,
		Type:        typ,
		Amount:      finance.MustMoney(amount),
		BucketID:    &bucket,
		Source:      "test",
	})
	require.NoError(t, err)
	return id
}

func balanceOf(t *testing.T, s finance.Store, id finance.BucketID) string {
	t.Helper()
	bal, err := s.BucketBalance(context.Background(), id)
	require.NoError(t, err)
	return bal.Balance.StringFixed(2)
}

// =============================================================================
// BUCKETS
// =============================================================================

func testBucketUpsertAndList(t *testing.T, s finance.TxStore) {
	ctx := context.Background()

	opex := mustBucket(t, s, "OPEX", "0.6", true)
	old := mustBucket(t, s, "Old", "0.4", false)

	all, err := s.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "OPEX", all[0].Name)
	assert.Equal(t, "0.6", all[0].Percentage.String())

	active, err := s.ListActiveBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, opex, active[0].ID)

	// update in place
	id, err := s.UpsertBucket(ctx, finance.Bucket{ID: old, Name: "Viagem", Percentage: finance.MustMoney("0.25"), Active: true, IsPriority: true})
	require.NoError(t, err)
	assert.Equal(t, old, id)

	got, err := s.GetBucket(ctx, old)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Viagem", got.Name)
	assert.True(t, got.IsPriority)
	assert.True(t, got.Active)

	found, err := s.FindBucketByName(ctx, "Viagem")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, old, found.ID)

	missing, err := s.GetBucket(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := s.FindBucketByName(ctx, "Old")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testBucketDuplicateName(t *testing.T, s finance.TxStore) {
	mustBucket(t, s, "OPEX", "0.6", true)

	_, err := s.UpsertBucket(context.Background(), finance.Bucket{Name: "OPEX", Percentage: finance.MustMoney("0.1"), Active: true})
	assert.ErrorIs(t, err, finance.ErrValidation)
}

func testDeleteBucketsNotInKeepsHistory(t *testing.T, s finance.TxStore) {
	// GIVEN: Two buckets, each with an entry
	// WHEN: Deleting every bucket except the first
	// THEN: The second bucket's entry survives with no bucket

	ctx := context.Background()
	keep := mustBucket(t, s, "Keep", "0.5", true)
	drop := mustBucket(t, s, "Drop", "0.5", true)
	mustEntry(t, s, keep, finance.EntryInflow, "10", day)
	orphan := mustEntry(t, s, drop, finance.EntryInflow, "20", day)

	n, err := s.DeleteBucketsNotIn(ctx, []finance.BucketID{keep})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := s.ListEntries(ctx, finance.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.ID == orphan {
			assert.Nil(t, e.BucketID)
			assert.Empty(t, e.BucketName)
			assert.Equal(t, "20.00", e.Amount.StringFixed(2))
		}
	}

	_, err = s.DeleteBucketsNotIn(ctx, nil)
	assert.Error(t, err, "an empty keep list must never wipe the table")
}

// =============================================================================
// LEDGER
// =============================================================================

func testListEntriesOrderAndFilters(t *testing.T, s finance.TxStore) {
	ctx := context.Background()
	a := mustBucket(t, s, "A", "0.5", true)
	b := mustBucket(t, s, "B", "0.5", true)

	e1 := mustEntry(t, s, a, finance.EntryInflow, "1", day)
	e2 := mustEntry(t, s, b, finance.EntryInflow, "2", day)
	e3 := mustEntry(t, s, a, finance.EntryOutflow, "3", day.AddDays(1))
	e4 := mustEntry(t, s, b, finance.EntryInflow, "4", day.AddDays(-5))

	ids := func(rows []finance.EntryView) []finance.EntryID {
		out := make([]finance.EntryID, len(rows))
		for i, r := range rows {
			out[i] = r.ID
		}
		return out
	}

	all, err := s.ListEntries(ctx, finance.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []finance.EntryID{e3, e2, e1, e4}, ids(all), "date desc, then id desc")
	assert.Equal(t, "A", all[0].BucketName)
	assert.Equal(t, finance.EntryOutflow, all[0].Type)
	assert.Equal(t, "2025-03-11", all[0].Date.String())
	assert.Equal(t, "test", all[0].Source)

	limited, err := s.ListEntries(ctx, finance.EntryFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []finance.EntryID{e3, e2}, ids(limited))

	onlyA, err := s.ListEntries(ctx, finance.EntryFilter{BucketID: &a})
	require.NoError(t, err)
	assert.Equal(t, []finance.EntryID{e3, e1}, ids(onlyA))

	window, err := s.ListEntries(ctx, finance.EntryFilter{From: day, To: day})
	require.NoError(t, err)
	assert.Equal(t, []finance.EntryID{e2, e1}, ids(window))
}

func testBalanceFormula(t *testing.T, s finance.TxStore) {
	// GIVEN: 500 inflow, 50 transfer in, 120 outflow on one bucket
	// WHEN: Reading balances
	// THEN: 500 + 50 - 120 = 430; inactive buckets only show up by id

	ctx := context.Background()
	opex := mustBucket(t, s, "OPEX", "1", true)
	idle := mustBucket(t, s, "Idle", "0", false)
	empty := mustBucket(t, s, "Empty", "0", true)

	mustEntry(t, s, opex, finance.EntryInflow, "500", day)
	mustEntry(t, s, opex, finance.EntryTransfer, "50", day)
	mustEntry(t, s, opex, finance.EntryOutflow, "120", day)
	mustEntry(t, s, idle, finance.EntryInflow, "7.5", day)

	balances, err := s.BucketBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, opex, balances[0].BucketID)
	assert.Equal(t, "OPEX", balances[0].Name)
	assert.Equal(t, "430.00", balances[0].Balance.StringFixed(2))
	assert.Equal(t, empty, balances[1].BucketID)
	assert.Equal(t, "0.00", balances[1].Balance.StringFixed(2))

	assert.Equal(t, "7.50", balanceOf(t, s, idle))
}

func testPeriodTotals(t *testing.T, s finance.TxStore) {
	ctx := context.Background()
	a := mustBucket(t, s, "A", "0.5", true)
	b := mustBucket(t, s, "B", "0.5", true)

	mustEntry(t, s, a, finance.EntryInflow, "100", finance.NewDate(2025, time.February, 27))
	mustEntry(t, s, a, finance.EntryInflow, "200", day)
	mustEntry(t, s, a, finance.EntryOutflow, "30", day)
	mustEntry(t, s, b, finance.EntryTransfer, "30", day)
	mustEntry(t, s, b, finance.EntryOutflow, "5", day.AddDays(2))

	daily, err := s.DailyTotals(ctx, day)
	require.NoError(t, err)
	require.Len(t, daily, 2)
	assert.Equal(t, "2025-03-10", daily[0].Period)
	assert.Equal(t, "200.00", daily[0].Inflows.StringFixed(2))
	assert.Equal(t, "30.00", daily[0].Outflows.StringFixed(2), "transfers are not flows")
	assert.Equal(t, "170.00", daily[0].Net.StringFixed(2))
	assert.Equal(t, "2025-03-12", daily[1].Period)
	assert.Equal(t, "-5.00", daily[1].Net.StringFixed(2))

	monthly, err := s.MonthlyTotals(ctx)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "2025-02", monthly[0].Period)
	assert.Equal(t, "100.00", monthly[0].Net.StringFixed(2))
	assert.Equal(t, "2025-03", monthly[1].Period)
	assert.Equal(t, "165.00", monthly[1].Net.StringFixed(2))
}

// =============================================================================
// BATCHES
// =============================================================================

func testBatchLifecycle(t *testing.T, s finance.TxStore) {
	ctx := context.Background()
	a := mustBucket(t, s, "A", "1", true)
	e1 := mustEntry(t, s, a, finance.EntryInflow, "10", day)
	e2 := mustEntry(t, s, a, finance.EntryInflow, "20", day)

	created := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	id, err := s.CreateBatch(ctx, finance.BatchDistribute, "Distribution of 30.00 on 2025-03-10", created)
	require.NoError(t, err)
	require.NoError(t, s.AddBatchItem(ctx, id, e1))
	require.NoError(t, s.AddBatchItem(ctx, id, e2))

	batch, err := s.GetBatch(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, finance.BatchDistribute, batch.Kind)
	assert.Equal(t, "Distribution of 30.00 on 2025-03-10", batch.Note)
	assert.True(t, batch.CreatedAt.Equal(created))
	assert.Equal(t, []finance.EntryID{e1, e2}, batch.Items)

	require.NoError(t, s.DeleteBatch(ctx, id))
	gone, err := s.GetBatch(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, gone)

	entries, err := s.ListEntries(ctx, finance.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2, "deleting a batch keeps its entries")

	unknown, err := s.GetBatch(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func testDeleteEntriesDropsBatchItems(t *testing.T, s finance.TxStore) {
	ctx := context.Background()
	a := mustBucket(t, s, "A", "1", true)
	e1 := mustEntry(t, s, a, finance.EntryInflow, "10", day)
	e2 := mustEntry(t, s, a, finance.EntryInflow, "20", day)

	id, err := s.CreateBatch(ctx, finance.BatchDistribute, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, s.AddBatchItem(ctx, id, e1))
	require.NoError(t, s.AddBatchItem(ctx, id, e2))

	require.NoError(t, s.DeleteEntries(ctx, []finance.EntryID{e1}))
	require.NoError(t, s.DeleteEntries(ctx, nil))

	batch, err := s.GetBatch(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, []finance.EntryID{e2}, batch.Items)
	assert.Equal(t, "20.00", balanceOf(t, s, a))
}

// =============================================================================
// GOALS & DUES
// =============================================================================

func testGoalUpsertByNameAndDelete(t *testing.T, s finance.TxStore) {
	ctx := context.Background()

	id, err := s.UpsertGoal(ctx, finance.Goal{
		Name:          "Cartão",
		Type:          finance.GoalDebt,
		Cost:          finance.MustMoney("1800"),
		MonthlyRelief: finance.MustMoney("350"),
		InterestPA:    finance.MustMoney("0.14"),
		Color:         "#8A05BE",
	})
	require.NoError(t, err)

	again, err := s.UpsertGoal(ctx, finance.Goal{Name: "Cartão", Type: finance.GoalDebt, Cost: finance.MustMoney("1500")})
	require.NoError(t, err)
	assert.Equal(t, id, again, "upsert is keyed by name")

	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "1500.00", goals[0].Cost.StringFixed(2))
	assert.Equal(t, finance.GoalDebt, goals[0].Type)

	a := mustBucket(t, s, "A", "1", true)
	entryID, err := s.AppendEntry(ctx, finance.LedgerEntry{
		Date: day, Type: finance.EntryOutflow, Amount: finance.MustMoney("100"), BucketID: &a, GoalID: &id,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteGoal(ctx, id))

	goals, err = s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	entries, err := s.ListEntries(ctx, finance.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entryID, entries[0].ID)
	assert.Nil(t, entries[0].GoalID)
}

func testGetGoalAndEntryGoalLink(t *testing.T, s finance.TxStore) {
	ctx := context.Background()

	missing, err := s.GetGoal(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := s.UpsertGoal(ctx, finance.Goal{
		Name:           "Empréstimo",
		Type:           finance.GoalDebt,
		Cost:           finance.MustMoney("6000"),
		MonthlyRelief:  finance.MustMoney("520"),
		PriorityWeight: finance.MustMoney("2"),
	})
	require.NoError(t, err)

	g, err := s.GetGoal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Empréstimo", g.Name)
	assert.Equal(t, "6000.00", g.Cost.StringFixed(2))
	assert.Equal(t, "520.00", g.MonthlyRelief.StringFixed(2))

	a := mustBucket(t, s, "A", "1", true)
	unknown := id + 100
	_, err = s.AppendEntry(ctx, finance.LedgerEntry{
		Date: day, Type: finance.EntryOutflow, Amount: finance.MustMoney("10"), BucketID: &a, GoalID: &unknown,
	})
	assert.Error(t, err, "entries cannot link a goal that does not exist")
}

func testDuesWindow(t *testing.T, s finance.TxStore) {
	ctx := context.Background()

	save := func(name string, date finance.Date, amount string) finance.DueID {
		id, err := s.SaveDue(ctx, finance.Due{Name: name, DueDate: date, Amount: finance.MustMoney(amount), Kind: "conta"})
		require.NoError(t, err)
		return id
	}
	internet := save("Internet", day.AddDays(20), "99.90")
	energia := save("Energia", day.AddDays(5), "280")
	save("Aluguel", day.AddDays(-1), "1500")

	all, err := s.ListDues(ctx, finance.Date{}, finance.Date{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Aluguel", all[0].Name)
	assert.Equal(t, "Internet", all[2].Name)
	assert.Equal(t, "99.90", all[2].Amount.StringFixed(2))
	assert.Equal(t, "conta", all[2].Kind)

	window, err := s.ListDues(ctx, day, day.AddDays(7))
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, energia, window[0].ID)

	// update in place
	_, err = s.SaveDue(ctx, finance.Due{ID: internet, Name: "Internet", DueDate: day.AddDays(3), Amount: finance.MustMoney("99.90")})
	require.NoError(t, err)
	window, err = s.ListDues(ctx, day, day.AddDays(7))
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, internet, window[0].ID)

	require.NoError(t, s.DeleteDue(ctx, energia))
	all, err = s.ListDues(ctx, finance.Date{}, finance.Date{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func testWithTxRollback(t *testing.T, s finance.TxStore) {
	// GIVEN: A transaction that writes a bucket, an entry and a batch
	// WHEN: fn returns an error
	// THEN: None of the writes are visible

	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx finance.Store) error {
		id := mustBucket(t, tx, "A", "1", true)
		mustEntry(t, tx, id, finance.EntryInflow, "10", day)
		if _, err := tx.CreateBatch(ctx, finance.BatchDistribute, "", time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	buckets, err := s.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	entries, err := s.ListEntries(ctx, finance.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	batch, err := s.GetBatch(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func testWithTxCommit(t *testing.T, s finance.TxStore) {
	ctx := context.Background()

	var id finance.BucketID
	err := s.WithTx(ctx, func(tx finance.Store) error {
		id = mustBucket(t, tx, "A", "1", true)
		mustEntry(t, tx, id, finance.EntryInflow, "10", day)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "10.00", balanceOf(t, s, id))
}

func testReset(t *testing.T, s finance.TxStore) {
	ctx := context.Background()
	a := mustBucket(t, s, "A", "1", true)
	mustEntry(t, s, a, finance.EntryInflow, "10", day)
	_, err := s.UpsertGoal(ctx, finance.Goal{Name: "G", Type: finance.GoalSavings})
	require.NoError(t, err)
	_, err = s.SaveDue(ctx, finance.Due{Name: "D", DueDate: day})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	buckets, err := s.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)
	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)
	dues, err := s.ListDues(ctx, finance.Date{}, finance.Date{})
	require.NoError(t, err)
	assert.Empty(t, dues)

	id := mustBucket(t, s, "B", "1", true)
	assert.Equal(t, finance.BucketID(1), id, "sequences restart")
}
