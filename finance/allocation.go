/*
allocation.go - Daily distribution of an inflow across buckets

ALGORITHM:
  Given amount A (rounded to cents) and active buckets in ascending id order:

  1. Priority pass. Every priority bucket p takes round2(A × p.pct) off the
     top. prioritySum is the sum of those ROUNDED amounts.

  2. remaining = max(0, round2(A − prioritySum))

  3. Non-priority pass. Weights are re-normalized over the non-priority
     group (share = pct / Σpct). Every bucket but the last gets
     round2(remaining × share), capped at remaining − acc so that several
     round-ups can never overshoot; the LAST bucket gets round2(remaining − acc).

  4. Allocations <= 0 are dropped from the output (but took part in the
     normalization above).

INVARIANTS:
  - Σ non-priority allocations == remaining, to the cent
  - Σ all allocations == round2(A) whenever Σ priority pct <= 1 and the
    non-priority group has positive weight
  - No active buckets, or nothing positive to allocate: no batch is created

EXAMPLE:
  A = 1000.00, buckets: Tithe (priority 10%), OPEX 60%, Loans 40%

    Tithe = round2(1000 × 0.10)       = 100.00
    remaining                         = 900.00
    OPEX  = round2(900 × 0.60 / 1.00) = 540.00
    Loans = round2(900 − 540)         = 360.00   (absorbs any rounding)

TRANSACTIONS:
  The whole distribution (batch, entries, batch items) is written inside one
  TxStore.WithTx. The event is published only after commit.
*/
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is one bucket's share of a distribution.
type Allocation struct {
	BucketID   BucketID        `json:"bucket_id"`
	BucketName string          `json:"bucket_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// Distribution is the outcome of DistributeDaily. BatchID is nil when
// nothing was written.
type Distribution struct {
	Allocations []Allocation
	BatchID     *BatchID
}

// Total sums the allocated amounts.
func (d Distribution) Total() decimal.Decimal {
	total := decimal.Zero
	for _, a := range d.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}

// =============================================================================
// PURE ALLOCATION
// =============================================================================

// Allocate splits amount across buckets. It does not look at the Active
// flag; callers pass the buckets they want considered. Order of the result
// is priority buckets first, then the rest, each ascending by id.
func Allocate(amount decimal.Decimal, buckets []Bucket) []Allocation {
	amount = Round2(amount)
	if !amount.IsPositive() || len(buckets) == 0 {
		return nil
	}

	sorted := make([]Bucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var priority, rest []Bucket
	for _, b := range sorted {
		if b.IsPriority {
			priority = append(priority, b)
		} else {
			rest = append(rest, b)
		}
	}

	all := make([]Allocation, 0, len(sorted))

	prioritySum := decimal.Zero
	for _, b := range priority {
		amt := Round2(amount.Mul(b.Percentage))
		prioritySum = prioritySum.Add(amt)
		all = append(all, Allocation{BucketID: b.ID, BucketName: b.Name, Amount: amt})
	}

	remaining := decimal.Max(decimal.Zero, Round2(amount.Sub(prioritySum)))

	restWeight := decimal.Zero
	for _, b := range rest {
		restWeight = restWeight.Add(b.Percentage)
	}

	if remaining.IsPositive() && len(rest) > 0 && restWeight.IsPositive() {
		acc := decimal.Zero
		for i, b := range rest {
			var amt decimal.Decimal
			if i == len(rest)-1 {
				amt = Round2(remaining.Sub(acc))
			} else {
				amt = decimal.Min(Round2(remaining.Mul(b.Percentage).Div(restWeight)), remaining.Sub(acc))
				acc = acc.Add(amt)
			}
			all = append(all, Allocation{BucketID: b.ID, BucketName: b.Name, Amount: amt})
		}
	}

	out := all[:0]
	for _, a := range all {
		if a.Amount.IsPositive() {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine owns every multi-entry write: distributions, undo, outflows and
// transfers. Each runs in a single transaction.
type Engine struct {
	store          TxStore
	publisher      Publisher
	publishTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// DefaultPublishTimeout bounds how long a committed write waits on the broker.
const DefaultPublishTimeout = 5 * time.Second

type EngineOption func(*Engine)

func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPublishTimeout bounds each event publish. Zero or negative keeps the default.
func WithPublishTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.publishTimeout = d
		}
	}
}

// WithClock overrides time.Now for batch timestamps and events.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store TxStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:          store,
		publisher:      NopPublisher{},
		publishTimeout: DefaultPublishTimeout,
		logger:         slog.Default(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DistributeDaily allocates amount across the active buckets and records
// one inflow entry per positive allocation, grouped in a "distribute" batch.
func (e *Engine) DistributeDaily(ctx context.Context, amount decimal.Decimal, date Date, description, source string) (Distribution, error) {
	var result Distribution
	if date.IsZero() {
		date = DateOf(e.now())
	}
	amount = Round2(amount)

	err := e.store.WithTx(ctx, func(tx Store) error {
		buckets, err := tx.ListActiveBuckets(ctx)
		if err != nil {
			return storageErr("list active buckets", err)
		}

		allocations := Allocate(amount, buckets)
		if len(allocations) == 0 {
			return nil
		}

		note := fmt.Sprintf("Distribution of %s on %s", amount.StringFixed(2), date)
		batchID, err := tx.CreateBatch(ctx, BatchDistribute, note, e.now())
		if err != nil {
			return storageErr("create batch", err)
		}

		for _, a := range allocations {
			desc := description
			if desc == "" {
				desc = "Distributed inflow - " + a.BucketName
			}
			bucketID := a.BucketID
			entryID, err := tx.AppendEntry(ctx, LedgerEntry{
				Date:        date,
				Description: desc,
				Type:        EntryInflow,
				Amount:      a.Amount,
				BucketID:    &bucketID,
				Source:      source,
			})
			if err != nil {
				return storageErr("append entry", err)
			}
			if err := tx.AddBatchItem(ctx, batchID, entryID); err != nil {
				return storageErr("add batch item", err)
			}
		}

		result = Distribution{Allocations: allocations, BatchID: &batchID}
		return nil
	})
	if err != nil {
		return Distribution{}, err
	}

	if result.BatchID == nil {
		e.logger.Info("distribution skipped", "amount", amount.StringFixed(2), "reason", "nothing to allocate")
		return result, nil
	}

	e.logger.Info("distribution recorded",
		"batch_id", *result.BatchID,
		"amount", amount.StringFixed(2),
		"buckets", len(result.Allocations),
	)
	e.publish(ctx, EventDistributionCompleted, DistributionPayload{
		BatchID:     *result.BatchID,
		Date:        date,
		Amount:      amount,
		Allocations: result.Allocations,
	})
	return result, nil
}

// DistributionPayload is the body of a distribution.completed event.
type DistributionPayload struct {
	BatchID     BatchID         `json:"batch_id"`
	Date        Date            `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Allocations []Allocation    `json:"allocations"`
}

// publish runs after commit. A failed publish is logged, the write stands.
// The publish outlives a cancelled request but never waits past publishTimeout.
func (e *Engine) publish(ctx context.Context, eventType string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.publishTimeout)
	defer cancel()

	ev := Event{Type: eventType, OccurredAt: e.now(), Payload: payload}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("event publish failed", "type", eventType, "error", err)
	}
}
