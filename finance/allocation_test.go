package finance_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bucket-ledger/finance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func bucket(id int64, name string, priority bool, pct string) finance.Bucket {
	return finance.Bucket{
		ID:         finance.BucketID(id),
		Name:       name,
		IsPriority: priority,
		Percentage: decimal.RequireFromString(pct),
		Active:     true,
	}
}

func amounts(allocs []finance.Allocation) map[string]string {
	out := make(map[string]string, len(allocs))
	for _, a := range allocs {
		out[a.BucketName] = a.Amount.StringFixed(2)
	}
	return out
}

func sum(allocs []finance.Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Amount)
	}
	return total
}

// =============================================================================
// ALLOCATION
// =============================================================================

func TestAllocate_PriorityThenWeights(t *testing.T) {
	// GIVEN: Tithe 10% priority, A 0.6, B 0.4
	// WHEN: Allocating 1000
	// THEN: Tithe 100, A 540, B 360, priority listed first

	buckets := []finance.Bucket{
		bucket(2, "A", false, "0.6"),
		bucket(3, "B", false, "0.4"),
		bucket(1, "Tithe", true, "0.10"),
	}

	allocs := finance.Allocate(finance.MustMoney("1000"), buckets)

	require.Len(t, allocs, 3)
	assert.Equal(t, "Tithe", allocs[0].BucketName)
	assert.Equal(t, map[string]string{"Tithe": "100.00", "A": "540.00", "B": "360.00"}, amounts(allocs))
}

func TestAllocate_ThreeWayRemainderGoesToLast(t *testing.T) {
	// GIVEN: Three equal non-priority weights
	// WHEN: Allocating 100
	// THEN: 33.33 / 33.33 / 33.34, the last absorbs rounding

	buckets := []finance.Bucket{
		bucket(1, "A", false, "1"),
		bucket(2, "B", false, "1"),
		bucket(3, "C", false, "1"),
	}

	allocs := finance.Allocate(finance.MustMoney("100"), buckets)

	require.Len(t, allocs, 3)
	assert.Equal(t, "33.33", allocs[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", allocs[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", allocs[2].Amount.StringFixed(2))
}

func TestAllocate_Conservation(t *testing.T) {
	// GIVEN: Several bucket sets and a spread of awkward amounts
	// WHEN: Allocating each amount
	// THEN: Allocations always sum to the amount and are never negative

	defaults := finance.DefaultBuckets()
	for i := range defaults {
		defaults[i].ID = finance.BucketID(i + 1)
	}

	sets := map[string][]finance.Bucket{
		"defaults": defaults,
		"three rounding up": {
			bucket(1, "A", false, "0.30"),
			bucket(2, "B", false, "0.30"),
			bucket(3, "C", false, "0.30"),
			bucket(4, "D", false, "0.10"),
		},
		"priority and thirds": {
			bucket(1, "Tithe", true, "0.10"),
			bucket(2, "A", false, "1"),
			bucket(3, "B", false, "1"),
			bucket(4, "C", false, "1"),
		},
	}

	for setName, buckets := range sets {
		for _, raw := range []string{"0.01", "0.05", "0.07", "1", "99.99", "100", "333.33", "1234.57", "1000000.01"} {
			t.Run(setName+"/"+raw, func(t *testing.T) {
				amount := finance.MustMoney(raw)
				allocs := finance.Allocate(amount, buckets)

				assert.True(t, sum(allocs).Equal(amount), "sum %s != %s", sum(allocs), amount)
				for _, a := range allocs {
					assert.True(t, a.Amount.IsPositive(), "%s got %s", a.BucketName, a.Amount)
					assert.True(t, a.Amount.Equal(finance.Round2(a.Amount)), "not cent-rounded: %s", a.Amount)
				}
			})
		}
	}
}

func TestAllocate_RoundUpsNeverOvershoot(t *testing.T) {
	// GIVEN: Three 30% buckets whose shares of 0.05 all round up to 0.02
	// WHEN: Allocating 0.05
	// THEN: The third is capped at what is left and the last gets nothing

	buckets := []finance.Bucket{
		bucket(1, "A", false, "0.30"),
		bucket(2, "B", false, "0.30"),
		bucket(3, "C", false, "0.30"),
		bucket(4, "D", false, "0.10"),
	}

	allocs := finance.Allocate(finance.MustMoney("0.05"), buckets)

	assert.Equal(t, map[string]string{"A": "0.02", "B": "0.02", "C": "0.01"}, amounts(allocs))
	assert.Equal(t, "0.05", sum(allocs).StringFixed(2))
}

func TestAllocate_InputIsRounded(t *testing.T) {
	allocs := finance.Allocate(decimal.RequireFromString("10.005"), []finance.Bucket{bucket(1, "A", false, "1")})

	require.Len(t, allocs, 1)
	assert.Equal(t, "10.01", allocs[0].Amount.StringFixed(2))
}

func TestAllocate_PriorityOverflowClampsRemainder(t *testing.T) {
	// GIVEN: Priority buckets that round above the amount
	// WHEN: Allocating 0.01
	// THEN: Non-priority buckets get nothing rather than a negative share

	buckets := []finance.Bucket{
		bucket(1, "P1", true, "0.5"),
		bucket(2, "P2", true, "0.5"),
		bucket(3, "Rest", false, "1"),
	}

	allocs := finance.Allocate(finance.MustMoney("0.01"), buckets)

	for _, a := range allocs {
		assert.NotEqual(t, "Rest", a.BucketName)
		assert.True(t, a.Amount.IsPositive())
	}
}

func TestAllocate_OnlyPriorityLeavesRemainderUnallocated(t *testing.T) {
	buckets := []finance.Bucket{bucket(1, "Tithe", true, "0.1")}

	allocs := finance.Allocate(finance.MustMoney("500"), buckets)

	require.Len(t, allocs, 1)
	assert.Equal(t, "50.00", allocs[0].Amount.StringFixed(2))
}

func TestAllocate_ZeroWeightsGetNothing(t *testing.T) {
	buckets := []finance.Bucket{
		bucket(1, "A", false, "0"),
		bucket(2, "B", false, "0"),
	}

	assert.Empty(t, finance.Allocate(finance.MustMoney("100"), buckets))
}

func TestAllocate_EmptyInputs(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		buckets []finance.Bucket
	}{
		{"no buckets", "100", nil},
		{"zero amount", "0", []finance.Bucket{bucket(1, "A", false, "1")}},
		{"negative amount", "-10", []finance.Bucket{bucket(1, "A", false, "1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, finance.Allocate(finance.MustMoney(tt.amount), tt.buckets))
		})
	}
}

func TestAllocate_OrderByID(t *testing.T) {
	// GIVEN: Non-priority buckets passed out of id order
	// WHEN: Allocating an amount that leaves a rounding remainder
	// THEN: The highest id gets the remainder

	buckets := []finance.Bucket{
		bucket(9, "Last", false, "1"),
		bucket(4, "First", false, "1"),
		bucket(6, "Middle", false, "1"),
	}

	allocs := finance.Allocate(finance.MustMoney("10"), buckets)

	require.Len(t, allocs, 3)
	names := make([]string, len(allocs))
	for i, a := range allocs {
		names[i] = fmt.Sprintf("%s=%s", a.BucketName, a.Amount.StringFixed(2))
	}
	assert.Equal(t, []string{"First=3.33", "Middle=3.33", "Last=3.34"}, names)
}

func TestDistribution_Total(t *testing.T) {
	d := finance.Distribution{Allocations: []finance.Allocation{
		{Amount: finance.MustMoney("1.10")},
		{Amount: finance.MustMoney("2.25")},
	}}
	assert.Equal(t, "3.35", d.Total().StringFixed(2))
}
