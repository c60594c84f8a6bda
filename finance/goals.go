/*
goals.go - Debt and savings goals, ranked by payoff strategy

STRATEGIES:
  avalanche: score = monthly_relief / max(cost, ε)   (most relief per unit paid)
  snowball:  score = −cost                           (cheapest first)
  custom:    score = priority_weight                 (user decides)

  Ranking sorts by score descending. Ties keep fetch order (ascending id),
  so the result is deterministic.

EFFICIENCY:
  relief per 1000 paid = monthly_relief / cost × 1000, with cost 0 treated
  as 1. Shown next to every goal regardless of strategy.
*/
package finance

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type Strategy string

const (
	StrategyAvalanche Strategy = "avalanche"
	StrategySnowball  Strategy = "snowball"
	StrategyCustom    Strategy = "custom"
)

// ParseStrategy accepts the three strategy names case-insensitively.
// Empty selects avalanche.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAvalanche:
		return StrategyAvalanche, nil
	case StrategySnowball:
		return StrategySnowball, nil
	case StrategyCustom:
		return StrategyCustom, nil
	}
	return "", &ValidationError{Field: "strategy", Message: "must be avalanche, snowball or custom"}
}

var epsilon = decimal.New(1, -9)

// RankedGoal is a goal annotated with its strategy score.
type RankedGoal struct {
	Goal
	Score             decimal.Decimal
	ReliefPerThousand decimal.Decimal
}

// Score returns the ranking key for g under s. Higher ranks first.
func Score(g Goal, s Strategy) decimal.Decimal {
	switch s {
	case StrategySnowball:
		return g.Cost.Neg()
	case StrategyCustom:
		return g.PriorityWeight
	default:
		return g.MonthlyRelief.Div(decimal.Max(g.Cost, epsilon))
	}
}

// ReliefPerThousand is the monthly relief bought by each 1000 paid.
func ReliefPerThousand(g Goal) decimal.Decimal {
	cost := g.Cost
	if cost.IsZero() {
		cost = decimal.NewFromInt(1)
	}
	return Round2(g.MonthlyRelief.Div(cost).Mul(decimal.NewFromInt(1000)))
}

// RankGoals orders goals by descending score. Input order breaks ties.
func RankGoals(goals []Goal, s Strategy) []RankedGoal {
	out := make([]RankedGoal, len(goals))
	for i, g := range goals {
		out[i] = RankedGoal{Goal: g, Score: Score(g, s), ReliefPerThousand: ReliefPerThousand(g)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.GreaterThan(out[j].Score)
	})
	return out
}

// =============================================================================
// GOAL BOOK - validated writes and ranked reads
// =============================================================================

type GoalBook struct {
	store Store
}

func NewGoalBook(store Store) *GoalBook {
	return &GoalBook{store: store}
}

// ValidateGoal checks a goal before it is saved.
func ValidateGoal(g Goal) error {
	if strings.TrimSpace(g.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	switch g.Type {
	case GoalDebt, GoalSavings:
	default:
		return &ValidationError{Field: "type", Message: "must be debt or savings"}
	}
	if g.Cost.IsNegative() {
		return &ValidationError{Field: "cost", Message: "must be >= 0"}
	}
	if g.MonthlyRelief.IsNegative() {
		return &ValidationError{Field: "monthly_relief", Message: "must be >= 0"}
	}
	if g.InterestPA.IsNegative() {
		return &ValidationError{Field: "interest_pa", Message: "must be >= 0"}
	}
	return nil
}

// Upsert validates and stores a goal keyed by name.
func (b *GoalBook) Upsert(ctx context.Context, g Goal) (GoalID, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Type == "" {
		g.Type = GoalDebt
	}
	if err := ValidateGoal(g); err != nil {
		return 0, err
	}
	g.Cost = Round2(g.Cost)
	g.MonthlyRelief = Round2(g.MonthlyRelief)
	id, err := b.store.UpsertGoal(ctx, g)
	return id, storageErr("upsert goal", err)
}

func (b *GoalBook) Delete(ctx context.Context, id GoalID) error {
	return storageErr("delete goal", b.store.DeleteGoal(ctx, id))
}

// Ranked returns every goal ordered by the given strategy.
func (b *GoalBook) Ranked(ctx context.Context, s Strategy) ([]RankedGoal, error) {
	goals, err := b.store.ListGoals(ctx)
	if err != nil {
		return nil, storageErr("list goals", err)
	}
	return RankGoals(goals, s), nil
}
