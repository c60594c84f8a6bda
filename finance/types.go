/*
Package finance provides the bucket allocation and ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for a small cash
  tracker: incoming money is split across named buckets by percentage rule,
  every movement is recorded as a dated ledger entry, and entries written
  together are grouped in a batch so they can be reversed as one unit.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal, always rounded to cents with Round2
  - Date: a calendar date with no time-of-day
  - Bucket: an allocation target (percentage weight, priority flag)
  - LedgerEntry: an immutable dated movement (inflow, outflow, transfer)
  - Batch: a reversible group of ledger entries
  - Goal / Due: debt or savings targets and upcoming bills

DESIGN PRINCIPLES:
  1. Precision: money never touches float64 in the allocation path
  2. Immutability: entries are never edited, only deleted (by undo or by hand)
  3. Atomicity: multi-entry writes go through TxStore.WithTx
  4. Type Safety: distinct ID types for buckets, entries, batches and goals

SEE ALSO:
  - allocation.go: the daily distribution engine
  - batch.go: batch undo
  - balance.go: balances, totals and the attack-ready check
  - goals.go: goal ranking strategies
*/
package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseMoney parses an already-normalized decimal string ("1234.56").
// Locale formats are the caller's problem.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: fmt.Sprintf("not a number: %q", s)}
	}
	return Round2(d), nil
}

// MustMoney is ParseMoney for literals in tests and seeds.
func MustMoney(s string) decimal.Decimal {
	d, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ToCents converts a cent-rounded amount to integer cents.
func ToCents(d decimal.Decimal) int64 {
	return Round2(d).Shift(2).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// =============================================================================
// DATE
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar date. The zero value means "unset".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return DateOf(t), nil
}

func (d Date) String() string        { return d.Time.Format(dateLayout) }
func (d Date) MonthKey() string      { return d.Time.Format("2006-01") }
func (d Date) AddDays(n int) Date    { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) Before(o Date) bool    { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool     { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool     { return d.Time.Equal(o.Time) }
func (d Date) OnOrAfter(o Date) bool { return !d.Before(o) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BucketID int64
type EntryID int64
type BatchID int64
type GoalID int64
type DueID int64

// =============================================================================
// BUCKET
// =============================================================================

// Bucket is a named allocation target.
//
// Percentage is a fraction in [0,1]. For priority buckets it applies to the
// whole inflow; for the rest it is a relative weight over what is left.
type Bucket struct {
	ID         BucketID
	Name       string
	IsPriority bool
	Percentage decimal.Decimal
	Active     bool
}

// =============================================================================
// LEDGER ENTRY
// =============================================================================

type EntryType string

const (
	EntryInflow   EntryType = "inflow"
	EntryOutflow  EntryType = "outflow"
	EntryTransfer EntryType = "transfer" // incoming side of a bucket-to-bucket move
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryInflow, EntryOutflow, EntryTransfer:
		return true
	}
	return false
}

// LedgerEntry is a dated, non-negative movement of money.
type LedgerEntry struct {
	ID          EntryID
	Date        Date
	Description string
	Type        EntryType
	Amount      decimal.Decimal
	BucketID    *BucketID
	Source      string
	GoalID      *GoalID
}

// EntryView is a ledger entry joined with its bucket name, for listings.
type EntryView struct {
	LedgerEntry
	BucketName string
}

// EntryFilter narrows ListEntries. Zero values mean "no filter".
type EntryFilter struct {
	From     Date
	To       Date
	BucketID *BucketID
	Limit    int
}

// =============================================================================
// BATCH
// =============================================================================

const (
	BatchDistribute = "distribute"
	BatchTransfer   = "transfer"
)

// Batch groups ledger entries written by one operation.
type Batch struct {
	ID        BatchID
	CreatedAt time.Time
	Kind      string
	Note      string
	Items     []EntryID
}

// =============================================================================
// GOAL
// =============================================================================

type GoalType string

const (
	GoalDebt    GoalType = "debt"
	GoalSavings GoalType = "savings"
)

// Goal is a debt to clear or a savings target to reach.
type Goal struct {
	ID             GoalID
	Name           string
	Type           GoalType
	Cost           decimal.Decimal
	MonthlyRelief  decimal.Decimal
	InterestPA     decimal.Decimal
	PriorityWeight decimal.Decimal
	Color          string
}

// =============================================================================
// DUE
// =============================================================================

// Due is an upcoming bill.
type Due struct {
	ID      DueID
	Name    string
	DueDate Date
	Amount  decimal.Decimal
	Kind    string
	Note    string
}

// =============================================================================
// READ MODEL ROWS
// =============================================================================

// BucketBalance is inflow + transfer - outflow for one bucket.
type BucketBalance struct {
	BucketID BucketID
	Name     string
	Balance  decimal.Decimal
}

// PeriodTotals holds flows for one day ("2025-03-10") or month ("2025-03").
type PeriodTotals struct {
	Period   string
	Inflows  decimal.Decimal
	Outflows decimal.Decimal
	Net      decimal.Decimal
}
