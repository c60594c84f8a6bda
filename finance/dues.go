package finance

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateDue checks a bill before it is saved.
func ValidateDue(d Due) error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if d.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Message: "is required"}
	}
	if d.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "must be >= 0"}
	}
	return nil
}

// SampleDues returns two example bills relative to today.
func SampleDues(today Date) []Due {
	return []Due{
		{Name: "Energia", DueDate: today.AddDays(5), Amount: decimal.NewFromInt(280), Kind: "conta", Note: "Conta de luz"},
		{Name: "Água", DueDate: today.AddDays(8), Amount: decimal.NewFromInt(120), Kind: "conta", Note: "Conta de água"},
	}
}

// DueBook is the bills calendar.
type DueBook struct {
	store Store
}

func NewDueBook(store Store) *DueBook {
	return &DueBook{store: store}
}

func (b *DueBook) Save(ctx context.Context, d Due) (DueID, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := ValidateDue(d); err != nil {
		return 0, err
	}
	d.Amount = Round2(d.Amount)
	id, err := b.store.SaveDue(ctx, d)
	return id, storageErr("save due", err)
}

func (b *DueBook) Delete(ctx context.Context, id DueID) error {
	return storageErr("delete due", b.store.DeleteDue(ctx, id))
}

// List returns every due ordered by due date.
func (b *DueBook) List(ctx context.Context) ([]Due, error) {
	dues, err := b.store.ListDues(ctx, Date{}, Date{})
	return dues, storageErr("list dues", err)
}
