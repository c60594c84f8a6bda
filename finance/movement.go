/*
movement.go - Manual outflows, bucket-to-bucket transfers, entry deletion

TRANSFER SHAPE:
  A transfer of X from bucket F to bucket T writes two entries, both with
  source "transfer":

    outflow  X  on F   "Transfer to T"
    transfer X  on T   "Transfer from F"

  Both are grouped in a batch of kind "transfer", so UndoBatch reverses a
  transfer exactly like a distribution.
*/
package finance

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

const TransferSource = "transfer"

// OutflowRequest describes money leaving a bucket.
type OutflowRequest struct {
	Date        Date
	BucketID    BucketID
	Description string
	Source      string
	Amount      decimal.Decimal
	GoalID      *GoalID
}

// TransferRequest describes money moving between two buckets.
type TransferRequest struct {
	Date        Date
	From        BucketID
	To          BucketID
	Description string
	Amount      decimal.Decimal
}

// TransferResult is returned by Transfer and carried by transfer.completed.
type TransferResult struct {
	BatchID    BatchID         `json:"batch_id"`
	OutEntryID EntryID         `json:"out_entry_id"`
	InEntryID  EntryID         `json:"in_entry_id"`
	From       BucketID        `json:"from"`
	To         BucketID        `json:"to"`
	Amount     decimal.Decimal `json:"amount"`
}

// RequirePositive rounds amount to cents and rejects anything not above zero.
func RequirePositive(field string, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = Round2(amount)
	if !amount.IsPositive() {
		return amount, &ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return amount, nil
}

// activeBucket loads a bucket and fails with ErrBucketNotFound if it is
// missing or inactive.
func activeBucket(ctx context.Context, tx Store, id BucketID) (*Bucket, error) {
	b, err := tx.GetBucket(ctx, id)
	if err != nil {
		return nil, storageErr("get bucket", err)
	}
	if b == nil || !b.Active {
		return nil, ErrBucketNotFound
	}
	return b, nil
}

// RecordOutflow writes one outflow entry against an active bucket.
func (e *Engine) RecordOutflow(ctx context.Context, req OutflowRequest) (EntryID, error) {
	amount, err := RequirePositive("amount", req.Amount)
	if err != nil {
		return 0, err
	}
	if req.Date.IsZero() {
		req.Date = DateOf(e.now())
	}

	var id EntryID
	err = e.store.WithTx(ctx, func(tx Store) error {
		b, err := activeBucket(ctx, tx, req.BucketID)
		if err != nil {
			return err
		}
		if req.GoalID != nil {
			g, err := tx.GetGoal(ctx, *req.GoalID)
			if err != nil {
				return storageErr("get goal", err)
			}
			if g == nil {
				return ErrGoalNotFound
			}
		}
		desc := strings.TrimSpace(req.Description)
		if desc == "" {
			desc = "Outflow - " + b.Name
		}
		bucketID := b.ID
		id, err = tx.AppendEntry(ctx, LedgerEntry{
			Date:        req.Date,
			Description: desc,
			Type:        EntryOutflow,
			Amount:      amount,
			BucketID:    &bucketID,
			Source:      req.Source,
			GoalID:      req.GoalID,
		})
		return storageErr("append entry", err)
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("outflow recorded", "entry_id", id, "bucket_id", req.BucketID, "amount", amount.StringFixed(2))
	return id, nil
}

// Transfer moves money between two active buckets atomically.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	amount, err := RequirePositive("amount", req.Amount)
	if err != nil {
		return TransferResult{}, err
	}
	if req.From == req.To {
		return TransferResult{}, &ValidationError{Field: "to", Message: "origin and destination must differ"}
	}
	if req.Date.IsZero() {
		req.Date = DateOf(e.now())
	}
	note := strings.TrimSpace(req.Description)

	result := TransferResult{From: req.From, To: req.To, Amount: amount}
	err = e.store.WithTx(ctx, func(tx Store) error {
		from, err := activeBucket(ctx, tx, req.From)
		if err != nil {
			return err
		}
		to, err := activeBucket(ctx, tx, req.To)
		if err != nil {
			return err
		}

		result.BatchID, err = tx.CreateBatch(ctx, BatchTransfer, transferDesc("Transfer "+from.Name+" -> "+to.Name, note), e.now())
		if err != nil {
			return storageErr("create batch", err)
		}

		fromID, toID := from.ID, to.ID
		result.OutEntryID, err = tx.AppendEntry(ctx, LedgerEntry{
			Date:        req.Date,
			Description: transferDesc("Transfer to "+to.Name, note),
			Type:        EntryOutflow,
			Amount:      amount,
			BucketID:    &fromID,
			Source:      TransferSource,
		})
		if err != nil {
			return storageErr("append transfer outflow", err)
		}
		result.InEntryID, err = tx.AppendEntry(ctx, LedgerEntry{
			Date:        req.Date,
			Description: transferDesc("Transfer from "+from.Name, note),
			Type:        EntryTransfer,
			Amount:      amount,
			BucketID:    &toID,
			Source:      TransferSource,
		})
		if err != nil {
			return storageErr("append transfer inflow", err)
		}

		for _, id := range []EntryID{result.OutEntryID, result.InEntryID} {
			if err := tx.AddBatchItem(ctx, result.BatchID, id); err != nil {
				return storageErr("add batch item", err)
			}
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}

	e.logger.Info("transfer recorded",
		"batch_id", result.BatchID,
		"from", result.From,
		"to", result.To,
		"amount", amount.StringFixed(2),
	)
	e.publish(ctx, EventTransferCompleted, result)
	return result, nil
}

func transferDesc(base, note string) string {
	if note == "" {
		return base
	}
	return base + " - " + note
}

// DeleteEntries removes hand-picked ledger entries. Empty ids is a no-op.
func (e *Engine) DeleteEntries(ctx context.Context, ids []EntryID) error {
	if len(ids) == 0 {
		return nil
	}
	err := e.store.WithTx(ctx, func(tx Store) error {
		return storageErr("delete entries", tx.DeleteEntries(ctx, ids))
	})
	if err != nil {
		return err
	}
	e.logger.Info("entries deleted", "count", len(ids))
	return nil
}
