/*
balance.go - Read model derived from the ledger

PURPOSE:
  Balances are never stored. They are computed from ledger entries every
  time they are asked for, so there is nothing that can drift.

FORMULAS:
  balance(bucket) = Σ inflow + Σ transfer − Σ outflow   (entries linked to bucket)
  period totals   = Σ inflow, Σ outflow, net = inflow − outflow
                    transfers are internal moves and do not count as flow

ATTACK-READY:
  One bucket (by name, default "Nu PF Ataque") collects money to pay off
  debts. The check compares its balance against the cost of the goal that
  ranks first under the avalanche strategy:

    ready = balance >= cost > 0

SEE ALSO:
  - goals.go: RankGoals
  - store.go: LedgerStore aggregation queries
*/
package finance

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTrailingDays is the window used by TotalsByDay when none is given.
const DefaultTrailingDays = 30

// BalanceEffect is the signed contribution of an entry to its bucket balance.
func (e LedgerEntry) BalanceEffect() decimal.Decimal {
	switch e.Type {
	case EntryInflow, EntryTransfer:
		return e.Amount
	case EntryOutflow:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// =============================================================================
// PURE AGGREGATION (shared by stores that can't aggregate natively)
// =============================================================================

// SumBalances computes balances for the given buckets, preserving their order.
func SumBalances(buckets []Bucket, entries []LedgerEntry) []BucketBalance {
	sums := make(map[BucketID]decimal.Decimal, len(buckets))
	for _, e := range entries {
		if e.BucketID == nil {
			continue
		}
		sums[*e.BucketID] = sums[*e.BucketID].Add(e.BalanceEffect())
	}

	out := make([]BucketBalance, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketBalance{BucketID: b.ID, Name: b.Name, Balance: sums[b.ID]})
	}
	return out
}

// GroupTotals buckets entries by key(entry) and returns rows sorted by key.
// Keys are ISO dates or months so lexical order is chronological.
func GroupTotals(entries []LedgerEntry, key func(LedgerEntry) string) []PeriodTotals {
	byKey := make(map[string]*PeriodTotals)
	for _, e := range entries {
		k := key(e)
		row, ok := byKey[k]
		if !ok {
			row = &PeriodTotals{Period: k}
			byKey[k] = row
		}
		switch e.Type {
		case EntryInflow:
			row.Inflows = row.Inflows.Add(e.Amount)
		case EntryOutflow:
			row.Outflows = row.Outflows.Add(e.Amount)
		}
	}

	out := make([]PeriodTotals, 0, len(byKey))
	for _, row := range byKey {
		row.Net = row.Inflows.Sub(row.Outflows)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func DayKey(e LedgerEntry) string   { return e.Date.String() }
func MonthKey(e LedgerEntry) string { return e.Date.MonthKey() }

// =============================================================================
// REPORTS - Balance & reporting read model
// =============================================================================

// DefaultAttackBucket is the bucket that collects debt payoff money.
const DefaultAttackBucket = "Nu PF Ataque"

// AttackStatus answers "can the top avalanche goal be paid off now?".
type AttackStatus struct {
	BucketFound   bool
	BucketBalance decimal.Decimal
	GoalName      string
	GoalCost      decimal.Decimal
	HasGoal       bool
	Ready         bool
}

type Reports struct {
	store        Store
	attackBucket string
	now          func() time.Time
	logger       *slog.Logger
}

type ReportsOption func(*Reports)

func WithAttackBucket(name string) ReportsOption {
	return func(r *Reports) {
		if name != "" {
			r.attackBucket = name
		}
	}
}

func WithReportsClock(now func() time.Time) ReportsOption {
	return func(r *Reports) { r.now = now }
}

func WithReportsLogger(l *slog.Logger) ReportsOption {
	return func(r *Reports) { r.logger = l }
}

func NewReports(store Store, opts ...ReportsOption) *Reports {
	r := &Reports{
		store:        store,
		attackBucket: DefaultAttackBucket,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reports) today() Date { return DateOf(r.now()) }

// BalancesByBucket returns the balance of every active bucket, ascending by id.
func (r *Reports) BalancesByBucket(ctx context.Context) ([]BucketBalance, error) {
	rows, err := r.store.BucketBalances(ctx)
	return rows, storageErr("balances by bucket", err)
}

// TotalsByDay returns per-day flows for dates >= today - windowDays.
// windowDays <= 0 selects DefaultTrailingDays; the HTTP layer rejects 0.
func (r *Reports) TotalsByDay(ctx context.Context, windowDays int) ([]PeriodTotals, error) {
	if windowDays <= 0 {
		windowDays = DefaultTrailingDays
	}
	since := r.today().AddDays(-windowDays)
	rows, err := r.store.DailyTotals(ctx, since)
	return rows, storageErr("totals by day", err)
}

// TotalsByMonth returns per-month flows over all history, oldest first.
func (r *Reports) TotalsByMonth(ctx context.Context) ([]PeriodTotals, error) {
	rows, err := r.store.MonthlyTotals(ctx)
	return rows, storageErr("totals by month", err)
}

// AttackReady reports the attack bucket balance against the top avalanche goal.
func (r *Reports) AttackReady(ctx context.Context) (AttackStatus, error) {
	var status AttackStatus

	bucket, err := r.store.FindBucketByName(ctx, r.attackBucket)
	if err != nil {
		return status, storageErr("find attack bucket", err)
	}
	if bucket == nil || !bucket.Active {
		return status, nil
	}
	status.BucketFound = true

	bal, err := r.store.BucketBalance(ctx, bucket.ID)
	if err != nil {
		return status, storageErr("attack bucket balance", err)
	}
	status.BucketBalance = bal.Balance

	goals, err := r.store.ListGoals(ctx)
	if err != nil {
		return status, storageErr("list goals", err)
	}
	ranked := RankGoals(goals, StrategyAvalanche)
	if len(ranked) == 0 {
		return status, nil
	}

	best := ranked[0]
	status.HasGoal = true
	status.GoalName = best.Name
	status.GoalCost = best.Cost
	status.Ready = best.Cost.IsPositive() && status.BucketBalance.GreaterThanOrEqual(best.Cost)
	return status, nil
}

// UpcomingDues returns dues falling within [today, today+horizonDays].
func (r *Reports) UpcomingDues(ctx context.Context, horizonDays int) ([]Due, error) {
	if horizonDays < 0 {
		horizonDays = 0
	}
	today := r.today()
	dues, err := r.store.ListDues(ctx, today, today.AddDays(horizonDays))
	return dues, storageErr("upcoming dues", err)
}

// ListEntries returns ledger movements, newest first.
func (r *Reports) ListEntries(ctx context.Context, filter EntryFilter) ([]EntryView, error) {
	rows, err := r.store.ListEntries(ctx, filter)
	return rows, storageErr("list entries", err)
}
