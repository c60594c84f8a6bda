package finance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/bucket-ledger/finance"
	"github.com/warp/bucket-ledger/finance/store"
)

func goal(name, cost, relief, weight string) finance.Goal {
	return finance.Goal{
		Name:           name,
		Type:           finance.GoalDebt,
		Cost:           finance.MustMoney(cost),
		MonthlyRelief:  finance.MustMoney(relief),
		PriorityWeight: finance.MustMoney(weight),
	}
}

func names(ranked []finance.RankedGoal) []string {
	out := make([]string, len(ranked))
	for i, g := range ranked {
		out[i] = g.Name
	}
	return out
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want finance.Strategy
	}{
		{"", finance.StrategyAvalanche},
		{"avalanche", finance.StrategyAvalanche},
		{"SNOWBALL", finance.StrategySnowball},
		{" custom ", finance.StrategyCustom},
	}
	for _, tt := range tests {
		got, err := finance.ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := finance.ParseStrategy("fastest")
	assert.ErrorIs(t, err, finance.ErrValidation)
}

func TestRankGoals(t *testing.T) {
	// GIVEN: A (1000, relief 100), B (500, relief 100), C (2000, relief 150, weight 9)
	// WHEN: Ranking under each strategy
	// THEN: Avalanche B,A,C; snowball B,A,C; custom C first

	goals := []finance.Goal{
		goal("A", "1000", "100", "1"),
		goal("B", "500", "100", "2"),
		goal("C", "2000", "150", "9"),
	}

	assert.Equal(t, []string{"B", "A", "C"}, names(finance.RankGoals(goals, finance.StrategyAvalanche)))
	assert.Equal(t, []string{"B", "A", "C"}, names(finance.RankGoals(goals, finance.StrategySnowball)))
	assert.Equal(t, []string{"C", "B", "A"}, names(finance.RankGoals(goals, finance.StrategyCustom)))
}

func TestRankGoals_StrategiesDisagree(t *testing.T) {
	goals := []finance.Goal{
		goal("A", "1000", "100", "0"),
		goal("B", "500", "100", "0"),
		goal("C", "200", "10", "0"),
	}

	avalanche := finance.RankGoals(goals, finance.StrategyAvalanche)
	assert.Equal(t, []string{"B", "A", "C"}, names(avalanche))
	assert.Equal(t, "0.2", avalanche[0].Score.String())
	assert.Equal(t, "0.05", avalanche[2].Score.String())

	assert.Equal(t, []string{"C", "B", "A"}, names(finance.RankGoals(goals, finance.StrategySnowball)))
}

func TestRankGoals_TiesKeepInputOrder(t *testing.T) {
	goals := []finance.Goal{
		goal("first", "100", "10", "0"),
		goal("second", "200", "20", "0"),
		goal("third", "300", "30", "0"),
	}

	assert.Equal(t, []string{"first", "second", "third"}, names(finance.RankGoals(goals, finance.StrategyAvalanche)))
	assert.Equal(t, []string{"first", "second", "third"}, names(finance.RankGoals(goals, finance.StrategyCustom)))
}

func TestRankGoals_ZeroCostRanksFirstOnAvalanche(t *testing.T) {
	goals := []finance.Goal{
		goal("paid", "0", "1", "0"),
		goal("big", "10000", "900", "0"),
	}

	ranked := finance.RankGoals(goals, finance.StrategyAvalanche)
	assert.Equal(t, "paid", ranked[0].Name)
	assert.Empty(t, finance.RankGoals(nil, finance.StrategyAvalanche))
}

func TestReliefPerThousand(t *testing.T) {
	assert.Equal(t, "200.00", finance.ReliefPerThousand(goal("x", "500", "100", "0")).StringFixed(2))
	assert.Equal(t, "194.44", finance.ReliefPerThousand(goal("x", "1800", "350", "0")).StringFixed(2))
	assert.Equal(t, "5000.00", finance.ReliefPerThousand(goal("x", "0", "5", "0")).StringFixed(2), "cost 0 counts as 1")
}

func TestGoalBook_UpsertValidation(t *testing.T) {
	book := finance.NewGoalBook(store.NewTxMemory())
	ctx := context.Background()

	tests := []struct {
		name  string
		goal  finance.Goal
		field string
	}{
		{"blank name", finance.Goal{Name: " "}, "name"},
		{"bad type", finance.Goal{Name: "x", Type: "wish"}, "type"},
		{"negative cost", finance.Goal{Name: "x", Cost: finance.MustMoney("-1")}, "cost"},
		{"negative relief", finance.Goal{Name: "x", MonthlyRelief: finance.MustMoney("-1")}, "monthly_relief"},
		{"negative interest", finance.Goal{Name: "x", InterestPA: finance.MustMoney("-0.1")}, "interest_pa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book.Upsert(ctx, tt.goal)
			var verr *finance.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestGoalBook_UpsertByNameAndRank(t *testing.T) {
	// GIVEN: Two goals saved, then one re-saved under the same name
	// WHEN: Ranking by snowball
	// THEN: The update replaced the row and defaulted the type to debt

	book := finance.NewGoalBook(store.NewTxMemory())
	ctx := context.Background()

	idA, err := book.Upsert(ctx, finance.Goal{Name: "Cartão", Cost: finance.MustMoney("1800"), MonthlyRelief: finance.MustMoney("350")})
	require.NoError(t, err)
	_, err = book.Upsert(ctx, finance.Goal{Name: "Reserva", Type: finance.GoalSavings, Cost: finance.MustMoney("5000")})
	require.NoError(t, err)

	again, err := book.Upsert(ctx, finance.Goal{Name: "Cartão", Cost: finance.MustMoney("900.004"), MonthlyRelief: finance.MustMoney("350")})
	require.NoError(t, err)
	assert.Equal(t, idA, again)

	ranked, err := book.Ranked(ctx, finance.StrategySnowball)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Cartão", ranked[0].Name)
	assert.Equal(t, finance.GoalDebt, ranked[0].Type)
	assert.Equal(t, "900.00", ranked[0].Cost.StringFixed(2))

	require.NoError(t, book.Delete(ctx, idA))
	ranked, err = book.Ranked(ctx, finance.StrategyAvalanche)
	require.NoError(t, err)
	assert.Equal(t, []string{"Reserva"}, names(ranked))
}
