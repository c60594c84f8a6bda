package finance

import (
	"context"
)

// UndoResult reports what an undo removed. Found is false for an unknown or
// already undone batch, and for a batch whose entries were all deleted by hand.
type UndoResult struct {
	BatchID        BatchID `json:"batch_id"`
	Found          bool    `json:"found"`
	EntriesRemoved int     `json:"entries_removed"`
}

// UndoBatch deletes every entry of the batch and then the batch itself, in
// one transaction. Unknown ids and batches with no members left are a
// silent no-op, so calling it twice is the same as calling it once.
func (e *Engine) UndoBatch(ctx context.Context, id BatchID) (UndoResult, error) {
	result := UndoResult{BatchID: id}

	err := e.store.WithTx(ctx, func(tx Store) error {
		batch, err := tx.GetBatch(ctx, id)
		if err != nil {
			return storageErr("get batch", err)
		}
		if batch == nil || len(batch.Items) == 0 {
			return nil
		}
		result.Found = true

		if err := tx.DeleteEntries(ctx, batch.Items); err != nil {
			return storageErr("delete batch entries", err)
		}
		if err := tx.DeleteBatch(ctx, id); err != nil {
			return storageErr("delete batch", err)
		}
		result.EntriesRemoved = len(batch.Items)
		return nil
	})
	if err != nil {
		return UndoResult{BatchID: id}, err
	}

	if !result.Found {
		e.logger.Debug("undo ignored", "batch_id", id, "reason", "unknown or empty batch")
		return result, nil
	}

	e.logger.Info("batch undone", "batch_id", id, "entries", result.EntriesRemoved)
	e.publish(ctx, EventBatchUndone, result)
	return result, nil
}
