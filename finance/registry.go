/*
registry.go - Bucket definitions: validation, save, prune, seed

PURPOSE:
  Buckets are edited as a whole set (the editor shows every row and saves
  them all). This file validates such a set and writes it atomically.

INVARIANTS:
  - Names are non-empty and unique
  - Percentage is a fraction in [0,1]
  - Σ percentage over priority buckets <= 1 (tolerance 1e-9)

  The last rule is enforced here, at save time. The allocation engine
  tolerates any stored configuration and clamps instead.

SAFETY:
  DeleteNotIn with an empty keep set is a no-op. An editor that submits
  nothing must never wipe the table.
*/
package finance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	percentTolerance = decimal.New(1, -9)
	one              = decimal.NewFromInt(1)
)

// DefaultBuckets is the starting configuration for an empty database.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{Name: "Dízimo", IsPriority: true, Percentage: decimal.RequireFromString("0.10"), Active: true},
		{Name: "OPEX", Percentage: decimal.RequireFromString("0.60"), Active: true},
		{Name: "Empréstimos", Percentage: decimal.RequireFromString("0.20"), Active: true},
		{Name: "NuPJ Cartões", Percentage: decimal.RequireFromString("0.15"), Active: true},
		{Name: DefaultAttackBucket, Percentage: decimal.RequireFromString("0.05"), Active: true},
	}
}

// ValidateBuckets checks a full bucket set before it is written.
func ValidateBuckets(buckets []Bucket) error {
	seen := make(map[string]bool, len(buckets))
	prioritySum := decimal.Zero

	for i, b := range buckets {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return &ValidationError{Field: fmt.Sprintf("buckets[%d].name", i), Message: "is required"}
		}
		if seen[name] {
			return &ValidationError{Field: fmt.Sprintf("buckets[%d].name", i), Message: fmt.Sprintf("duplicate name %q", name)}
		}
		seen[name] = true

		if b.Percentage.IsNegative() || b.Percentage.GreaterThan(one) {
			return &ValidationError{Field: fmt.Sprintf("buckets[%d].percentage", i), Message: "must be between 0 and 1"}
		}
		if b.IsPriority {
			prioritySum = prioritySum.Add(b.Percentage)
		}
	}

	if prioritySum.GreaterThan(one.Add(percentTolerance)) {
		return &ValidationError{
			Field:   "buckets",
			Message: fmt.Sprintf("priority percentages sum to %s%%, max is 100%%", prioritySum.Shift(2).String()),
		}
	}
	return nil
}

// =============================================================================
// BUCKET REGISTRY
// =============================================================================

type BucketRegistry struct {
	store  TxStore
	logger *slog.Logger
}

func NewBucketRegistry(store TxStore, logger *slog.Logger) *BucketRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &BucketRegistry{store: store, logger: logger}
}

// List returns every bucket, active or not, ascending by id.
func (r *BucketRegistry) List(ctx context.Context) ([]Bucket, error) {
	buckets, err := r.store.ListBuckets(ctx)
	return buckets, storageErr("list buckets", err)
}

// ListActive returns active buckets ascending by id.
func (r *BucketRegistry) ListActive(ctx context.Context) ([]Bucket, error) {
	buckets, err := r.store.ListActiveBuckets(ctx)
	return buckets, storageErr("list active buckets", err)
}

// Save validates and upserts buckets in one transaction. Returns the ids in
// input order. Nothing is written when validation fails.
func (r *BucketRegistry) Save(ctx context.Context, buckets []Bucket) ([]BucketID, error) {
	if err := ValidateBuckets(buckets); err != nil {
		return nil, err
	}

	var ids []BucketID
	err := r.store.WithTx(ctx, func(tx Store) error {
		var err error
		ids, err = saveBuckets(ctx, tx, buckets)
		return err
	})
	if err != nil {
		return nil, storageErr("save buckets", err)
	}
	return ids, nil
}

// DeleteNotIn removes every bucket whose id is not in keep. Ledger entries
// of removed buckets stay, unlinked.
func (r *BucketRegistry) DeleteNotIn(ctx context.Context, keep []BucketID) (int, error) {
	if len(keep) == 0 {
		return 0, nil
	}
	n, err := r.store.DeleteBucketsNotIn(ctx, keep)
	if err != nil {
		return 0, storageErr("delete buckets", err)
	}
	if n > 0 {
		r.logger.Info("buckets removed", "count", n)
	}
	return n, nil
}

// Replace makes the stored set equal to buckets: save, then drop whatever
// was not saved. An empty set changes nothing.
func (r *BucketRegistry) Replace(ctx context.Context, buckets []Bucket) ([]Bucket, error) {
	if err := ValidateBuckets(buckets); err != nil {
		return nil, err
	}

	removed := 0
	err := r.store.WithTx(ctx, func(tx Store) error {
		ids, err := saveBuckets(ctx, tx, buckets)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		removed, err = tx.DeleteBucketsNotIn(ctx, ids)
		return err
	})
	if err != nil {
		return nil, storageErr("replace buckets", err)
	}
	r.logger.Info("buckets replaced", "saved", len(buckets), "removed", removed)
	return r.List(ctx)
}

// SeedDefaults inserts DefaultBuckets when no bucket exists yet.
func (r *BucketRegistry) SeedDefaults(ctx context.Context) (bool, error) {
	seeded := false
	err := r.store.WithTx(ctx, func(tx Store) error {
		existing, err := tx.ListBuckets(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		if _, err := saveBuckets(ctx, tx, DefaultBuckets()); err != nil {
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, storageErr("seed buckets", err)
	}
	if seeded {
		r.logger.Info("default buckets seeded", "count", len(DefaultBuckets()))
	}
	return seeded, nil
}

// saveBuckets upserts each bucket. A new row whose name already exists
// updates that row instead of colliding with it.
func saveBuckets(ctx context.Context, tx Store, buckets []Bucket) ([]BucketID, error) {
	ids := make([]BucketID, 0, len(buckets))
	for _, b := range buckets {
		b.Name = strings.TrimSpace(b.Name)
		if b.ID == 0 {
			existing, err := tx.FindBucketByName(ctx, b.Name)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				b.ID = existing.ID
			}
		}
		id, err := tx.UpsertBucket(ctx, b)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
