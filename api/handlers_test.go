/*
handlers_test.go - HTTP tests for the API handlers

Tests run the real router against an in-memory SQLite store with a fixed
clock, so "today" is 2025-03-15 in every test.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/bucket-ledger/events"
	"github.com/warp/bucket-ledger/finance"
	"github.com/warp/bucket-ledger/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler  *Handler
	router   http.Handler
	recorder *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := &events.Recorder{}
	h := NewHandler(store, Options{
		Publisher: rec,
		Now:       func() time.Time { return testNow },
	})
	return &testServer{handler: h, router: NewRouter(h, nil), recorder: rec}
}

func (s *testServer) seedDefaults(t *testing.T) map[string]int64 {
	t.Helper()
	ids, err := s.handler.seedBucketIDs(context.Background())
	require.NoError(t, err)
	out := make(map[string]int64, len(ids))
	for name, id := range ids {
		out[name] = int64(id)
	}
	return out
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func balancesByName(t *testing.T, s *testServer) map[string]string {
	t.Helper()
	rr := s.do(t, http.MethodGet, "/api/reports/balances", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out := map[string]string{}
	for _, b := range decode[[]BalanceDTO](t, rr) {
		out[b.Name] = b.Balance
	}
	return out
}

// =============================================================================
// DISTRIBUTION & UNDO
// =============================================================================

func TestDistribute_DefaultBuckets(t *testing.T) {
	// GIVEN: The five default buckets
	// WHEN: Distributing 1000 on 2025-03-10
	// THEN: Dízimo takes 10%, the rest is split by weight, and one event fires

	s := newTestServer(t)
	s.seedDefaults(t)

	rr := s.do(t, http.MethodPost, "/api/distributions", map[string]string{
		"amount": "1000",
		"date":   "2025-03-10",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	dist := decode[DistributionDTO](t, rr)
	require.NotNil(t, dist.BatchID)
	assert.Equal(t, "1000.00", dist.Total)

	got := map[string]string{}
	for _, a := range dist.Allocations {
		got[a.BucketName] = a.Amount
	}
	assert.Equal(t, map[string]string{
		"Dízimo":       "100.00",
		"OPEX":         "540.00",
		"Empréstimos":  "180.00",
		"NuPJ Cartões": "135.00",
		"Nu PF Ataque": "45.00",
	}, got)
	assert.Equal(t, "Dízimo", dist.Allocations[0].BucketName, "priority buckets come first")

	assert.Equal(t, []string{finance.EventDistributionCompleted}, s.recorder.Types())
}

func TestDistribute_NoActiveBuckets_NoBatch(t *testing.T) {
	// GIVEN: No buckets at all
	// WHEN: Distributing 500
	// THEN: Nothing is allocated, batch_id is null, no event fires

	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/api/distributions", map[string]any{"amount": 500})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	dist := decode[DistributionDTO](t, rr)
	assert.Nil(t, dist.BatchID)
	assert.Empty(t, dist.Allocations)
	assert.Empty(t, s.recorder.Types())
}

func TestDistribute_InvalidBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/distributions", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request body", decode[ErrorResponse](t, rr).Error)
}

func TestDistribute_RejectsNonPositiveAmount(t *testing.T) {
	// GIVEN: The default buckets
	// WHEN: Distributing a negative, zero, sub-cent or missing amount
	// THEN: 400 with the amount field named, and nothing is written

	s := newTestServer(t)
	s.seedDefaults(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"negative", map[string]any{"amount": "-50"}},
		{"zero", map[string]any{"amount": "0"}},
		{"rounds to zero", map[string]any{"amount": "0.004"}},
		{"missing", map[string]any{"description": "salário"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/distributions", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Contains(t, decode[ErrorResponse](t, rr).Details, "amount")
		})
	}

	assert.Empty(t, decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries", nil)))
	assert.Empty(t, s.recorder.Types())
}

func TestUndoBatch_IsIdempotent(t *testing.T) {
	// GIVEN: A distribution batch
	// WHEN: Undoing it twice
	// THEN: Both calls return 204 and every balance is back to zero

	s := newTestServer(t)
	s.seedDefaults(t)

	dist := decode[DistributionDTO](t, s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "1000"}))
	require.NotNil(t, dist.BatchID)

	path := "/api/batches/" + jsonNumber(*dist.BatchID)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)

	for name, bal := range balancesByName(t, s) {
		assert.Equal(t, "0.00", bal, name)
	}
	assert.Equal(t, []string{finance.EventDistributionCompleted, finance.EventBatchUndone}, s.recorder.Types())
}

func TestUndoBatch_UnknownID_NoContent(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/batches/999", nil).Code)
}

func TestUndoBatch_InvalidID(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/api/batches/abc", nil).Code)
}

// =============================================================================
// OUTFLOWS & TRANSFERS
// =============================================================================

func TestRecordOutflow_ReducesBalance(t *testing.T) {
	// GIVEN: OPEX received 540 from a 1000 distribution
	// WHEN: Recording a 120 outflow from OPEX
	// THEN: OPEX balance is 420

	s := newTestServer(t)
	ids := s.seedDefaults(t)
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "1000"})

	rr := s.do(t, http.MethodPost, "/api/outflows", map[string]any{
		"bucket_id":   ids["OPEX"],
		"amount":      "120",
		"description": "Mercado",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Positive(t, decode[OutflowResponse](t, rr).EntryID)

	assert.Equal(t, "420.00", balancesByName(t, s)["OPEX"])
}

func TestRecordOutflow_Errors(t *testing.T) {
	s := newTestServer(t)
	ids := s.seedDefaults(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"zero amount", map[string]any{"bucket_id": ids["OPEX"], "amount": "0"}, http.StatusBadRequest},
		{"negative amount", map[string]any{"bucket_id": ids["OPEX"], "amount": "-5"}, http.StatusBadRequest},
		{"unknown bucket", map[string]any{"bucket_id": 999, "amount": "10"}, http.StatusNotFound},
		{"unknown goal", map[string]any{"bucket_id": ids["OPEX"], "amount": "10", "goal_id": 77}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(t, http.MethodPost, "/api/outflows", tt.body)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestRecordOutflow_LinksGoal(t *testing.T) {
	s := newTestServer(t)
	ids := s.seedDefaults(t)
	goalID, err := s.handler.Goals.Upsert(context.Background(), finance.Goal{Name: "Cartão", Cost: finance.MustMoney("1800")})
	require.NoError(t, err)

	rr := s.do(t, http.MethodPost, "/api/outflows", map[string]any{
		"bucket_id": ids["Nu PF Ataque"],
		"amount":    "30",
		"goal_id":   int64(goalID),
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	entries := decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries", nil))
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].GoalID)
	assert.Equal(t, int64(goalID), *entries[0].GoalID)
}

func TestTransfer_MovesMoneyAndUndoRestores(t *testing.T) {
	// GIVEN: OPEX holds 540 and Nu PF Ataque holds 45
	// WHEN: Transferring 200 from OPEX to Ataque, then undoing the batch
	// THEN: Balances move by 200 and return after undo

	s := newTestServer(t)
	ids := s.seedDefaults(t)
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "1000"})

	rr := s.do(t, http.MethodPost, "/api/transfers", map[string]any{
		"from":   ids["OPEX"],
		"to":     ids["Nu PF Ataque"],
		"amount": "200",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decode[TransferResponse](t, rr)
	assert.Equal(t, "200.00", res.Amount)

	bal := balancesByName(t, s)
	assert.Equal(t, "340.00", bal["OPEX"])
	assert.Equal(t, "245.00", bal["Nu PF Ataque"])

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/batches/"+jsonNumber(res.BatchID), nil).Code)

	bal = balancesByName(t, s)
	assert.Equal(t, "540.00", bal["OPEX"])
	assert.Equal(t, "45.00", bal["Nu PF Ataque"])
}

func TestTransfer_Errors(t *testing.T) {
	s := newTestServer(t)
	ids := s.seedDefaults(t)

	same := s.do(t, http.MethodPost, "/api/transfers", map[string]any{"from": ids["OPEX"], "to": ids["OPEX"], "amount": "10"})
	assert.Equal(t, http.StatusBadRequest, same.Code)

	unknown := s.do(t, http.MethodPost, "/api/transfers", map[string]any{"from": ids["OPEX"], "to": 999, "amount": "10"})
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

// =============================================================================
// ENTRIES
// =============================================================================

func TestEntries_ListFilterAndDelete(t *testing.T) {
	s := newTestServer(t)
	ids := s.seedDefaults(t)
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "1000", "date": "2025-03-01"})
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "500", "date": "2025-03-12"})

	all := decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries", nil))
	require.Len(t, all, 10)
	assert.Equal(t, "2025-03-12", all[0].Date, "newest first")

	limited := decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries?limit=3", nil))
	assert.Len(t, limited, 3)

	opex := decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries?bucket_id="+jsonNumber(ids["OPEX"]), nil))
	require.Len(t, opex, 2)
	for _, e := range opex {
		assert.Equal(t, "OPEX", e.BucketName)
		assert.Equal(t, "inflow", e.Type)
	}

	march := decode[[]EntryDTO](t, s.do(t, http.MethodGet, "/api/entries?from=2025-03-10&to=2025-03-31", nil))
	assert.Len(t, march, 5)

	rr := s.do(t, http.MethodDelete, "/api/entries", map[string]any{"ids": []int64{opex[0].ID, opex[1].ID}})
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "0.00", balancesByName(t, s)["OPEX"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/entries?from=03/10/2025", nil).Code)
}

// =============================================================================
// BUCKETS
// =============================================================================

func TestReplaceBuckets_DropsMissing(t *testing.T) {
	// GIVEN: The five default buckets
	// WHEN: Saving a set with only two of them
	// THEN: The other three are removed

	s := newTestServer(t)
	ids := s.seedDefaults(t)

	rr := s.do(t, http.MethodPut, "/api/buckets", ReplaceBucketsRequest{Buckets: []BucketInput{
		{ID: ids["Dízimo"], Name: "Dízimo", IsPriority: true, Percentage: finance.MustMoney("0.10")},
		{ID: ids["OPEX"], Name: "OPEX", Percentage: finance.MustMoney("1")},
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	saved := decode[[]BucketDTO](t, rr)
	require.Len(t, saved, 2)
	assert.Equal(t, "Dízimo", saved[0].Name)
	assert.True(t, saved[0].IsPriority)
	assert.Equal(t, "OPEX", saved[1].Name)

	active := decode[[]BucketDTO](t, s.do(t, http.MethodGet, "/api/buckets/active", nil))
	assert.Len(t, active, 2)
}

func TestReplaceBuckets_PrioritySumOverOne(t *testing.T) {
	s := newTestServer(t)
	s.seedDefaults(t)

	rr := s.do(t, http.MethodPut, "/api/buckets", ReplaceBucketsRequest{Buckets: []BucketInput{
		{Name: "A", IsPriority: true, Percentage: finance.MustMoney("0.7")},
		{Name: "B", IsPriority: true, Percentage: finance.MustMoney("0.4")},
	}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	all := decode[[]BucketDTO](t, s.do(t, http.MethodGet, "/api/buckets", nil))
	assert.Len(t, all, 5, "nothing written on validation failure")
}

func TestReplaceBuckets_InactiveSkipped(t *testing.T) {
	s := newTestServer(t)
	inactive := false

	rr := s.do(t, http.MethodPut, "/api/buckets", ReplaceBucketsRequest{Buckets: []BucketInput{
		{Name: "Casa", Percentage: finance.MustMoney("0.5")},
		{Name: "Viagem", Percentage: finance.MustMoney("0.5"), Active: &inactive},
	}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	dist := decode[DistributionDTO](t, s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "80"}))
	require.Len(t, dist.Allocations, 1)
	assert.Equal(t, "Casa", dist.Allocations[0].BucketName)
	assert.Equal(t, "80.00", dist.Allocations[0].Amount)
}

// =============================================================================
// GOALS
// =============================================================================

func TestListGoals_Strategies(t *testing.T) {
	// GIVEN: A(cost 1000, relief 100), B(500, 100), C(200, 10)
	// WHEN: Ranking by avalanche and snowball
	// THEN: Avalanche is B, A, C and snowball is C, B, A

	s := newTestServer(t)
	for _, g := range []GoalDTO{
		{Name: "A", Cost: finance.MustMoney("1000"), MonthlyRelief: finance.MustMoney("100")},
		{Name: "B", Cost: finance.MustMoney("500"), MonthlyRelief: finance.MustMoney("100")},
		{Name: "C", Cost: finance.MustMoney("200"), MonthlyRelief: finance.MustMoney("10")},
	} {
		rr := s.do(t, http.MethodPut, "/api/goals", g)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "debt", decode[GoalDTO](t, rr).Type)
	}

	names := func(path string) []string {
		resp := decode[RankedGoalsResponse](t, s.do(t, http.MethodGet, path, nil))
		out := make([]string, len(resp.Goals))
		for i, g := range resp.Goals {
			out[i] = g.Name
		}
		return out
	}

	assert.Equal(t, []string{"B", "A", "C"}, names("/api/goals"))
	assert.Equal(t, []string{"B", "A", "C"}, names("/api/goals?strategy=avalanche"))
	assert.Equal(t, []string{"C", "B", "A"}, names("/api/goals?strategy=SNOWBALL"))

	resp := decode[RankedGoalsResponse](t, s.do(t, http.MethodGet, "/api/goals", nil))
	assert.Equal(t, "200.00", resp.Goals[0].ReliefPerThousand)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/goals?strategy=random", nil).Code)
}

func TestGoals_UpsertByNameAndDelete(t *testing.T) {
	s := newTestServer(t)

	first := decode[GoalDTO](t, s.do(t, http.MethodPut, "/api/goals", GoalDTO{Name: "Cartão", Cost: finance.MustMoney("900")}))
	second := decode[GoalDTO](t, s.do(t, http.MethodPut, "/api/goals", GoalDTO{Name: "Cartão", Cost: finance.MustMoney("700")}))
	assert.Equal(t, first.ID, second.ID)

	resp := decode[RankedGoalsResponse](t, s.do(t, http.MethodGet, "/api/goals", nil))
	require.Len(t, resp.Goals, 1)
	assert.Equal(t, "700.00", resp.Goals[0].Cost)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/api/goals", GoalDTO{Name: " "}).Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/goals/"+jsonNumber(first.ID), nil).Code)
	resp = decode[RankedGoalsResponse](t, s.do(t, http.MethodGet, "/api/goals", nil))
	assert.Empty(t, resp.Goals)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_DailyAndMonthly(t *testing.T) {
	s := newTestServer(t)
	ids := s.seedDefaults(t)
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "1000", "date": "2025-01-20"})
	s.do(t, http.MethodPost, "/api/distributions", map[string]string{"amount": "500", "date": "2025-03-10"})
	s.do(t, http.MethodPost, "/api/outflows", map[string]any{"bucket_id": ids["OPEX"], "amount": "120", "date": "2025-03-11"})

	daily := decode[[]PeriodTotalsDTO](t, s.do(t, http.MethodGet, "/api/reports/daily", nil))
	require.Len(t, daily, 2, "January is outside the 30 day window")
	assert.Equal(t, PeriodTotalsDTO{Period: "2025-03-10", Inflows: "500.00", Outflows: "0.00", Net: "500.00"}, daily[0])
	assert.Equal(t, PeriodTotalsDTO{Period: "2025-03-11", Inflows: "0.00", Outflows: "120.00", Net: "-120.00"}, daily[1])

	wide := decode[[]PeriodTotalsDTO](t, s.do(t, http.MethodGet, "/api/reports/daily?days=90", nil))
	assert.Len(t, wide, 3)

	monthly := decode[[]PeriodTotalsDTO](t, s.do(t, http.MethodGet, "/api/reports/monthly", nil))
	require.Len(t, monthly, 2)
	assert.Equal(t, "2025-01", monthly[0].Period)
	assert.Equal(t, "380.00", monthly[1].Net)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/reports/daily?days=x", nil).Code)
	zero := s.do(t, http.MethodGet, "/api/reports/daily?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, zero.Code)
	assert.Equal(t, "days must be at least 1", decode[ErrorResponse](t, zero).Details)
}

func TestReports_AttackWithoutBucket(t *testing.T) {
	s := newTestServer(t)

	status := decode[AttackStatusDTO](t, s.do(t, http.MethodGet, "/api/reports/attack", nil))
	assert.False(t, status.BucketFound)
	assert.False(t, status.Ready)
	assert.Equal(t, "0.00", status.BucketBalance)
}

func TestReports_Dashboard(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.handler.loadDebtAttackScenario(context.Background()))

	rr := s.do(t, http.MethodGet, "/api/reports/dashboard", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	dash := decode[DashboardDTO](t, rr)
	assert.Len(t, dash.Balances, 5)
	assert.NotEmpty(t, dash.Daily)
	assert.NotEmpty(t, dash.Monthly)
	assert.True(t, dash.Attack.Ready)
	assert.Equal(t, "Cartão Nubank", dash.Attack.GoalName)
}

// =============================================================================
// DUES
// =============================================================================

func TestDues_SaveListUpcomingDelete(t *testing.T) {
	s := newTestServer(t)

	for _, d := range []map[string]string{
		{"name": "Internet", "due_date": "2025-03-30", "amount": "99.9"},
		{"name": "Energia", "due_date": "2025-03-20", "amount": "280"},
		{"name": "Aluguel", "due_date": "2025-03-10", "amount": "1500"},
	} {
		rr := s.do(t, http.MethodPost, "/api/dues", d)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	all := decode[[]DueDTO](t, s.do(t, http.MethodGet, "/api/dues", nil))
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Aluguel", "Energia", "Internet"}, []string{all[0].Name, all[1].Name, all[2].Name})
	assert.Equal(t, "99.90", all[2].Amount)

	upcoming := decode[[]DueDTO](t, s.do(t, http.MethodGet, "/api/dues/upcoming", nil))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Energia", upcoming[0].Name)

	longer := decode[[]DueDTO](t, s.do(t, http.MethodGet, "/api/dues/upcoming?days=30", nil))
	assert.Len(t, longer, 2)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/dues/"+jsonNumber(upcoming[0].ID), nil).Code)
	assert.Len(t, decode[[]DueDTO](t, s.do(t, http.MethodGet, "/api/dues", nil)), 2)
}

func TestDues_Validation(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/dues", map[string]string{"name": "", "due_date": "2025-03-20"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/dues", map[string]string{"name": "Água"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/dues", map[string]string{"name": "Água", "due_date": "2025-03-20", "amount": "-1"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/dues", map[string]string{"name": "Água", "due_date": "20/03/2025"}).Code)
}

func jsonNumber(n int64) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
