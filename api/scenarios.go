/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario seeds buckets and then drives the same
	engine operations the UI uses (distributions, outflows, transfers), so
	the resulting ledger is indistinguishable from real usage.

AVAILABLE SCENARIOS:

	default-buckets: The five default buckets, empty ledger
	first-month:     Three daily distributions, two bills paid, dues calendar
	debt-attack:     Goals plus a transfer that makes the attack bucket ready

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed default buckets
 3. Record movements relative to today
 4. Optionally add goals and dues

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "debt-attack"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and its finance services
  - finance/registry.go: DefaultBuckets
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/bucket-ledger/finance"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "default-buckets",
		Name:        "Default Buckets",
		Description: "Dízimo, OPEX, Empréstimos, NuPJ Cartões and Nu PF Ataque with an empty ledger",
		Category:    "setup",
	},
	{
		ID:          "first-month",
		Name:        "First Month",
		Description: "Three daily distributions, two paid bills and upcoming dues",
		Category:    "ledger",
	},
	{
		ID:          "debt-attack",
		Name:        "Debt Attack",
		Description: "Debt goals and a transfer that makes the attack bucket ready to pay the top goal",
		Category:    "goals",
	},
}

// sampleGoals are the goals loaded by the debt-attack scenario.
func sampleGoals() []finance.Goal {
	return []finance.Goal{
		{
			Name:          "Cartão Nubank",
			Type:          finance.GoalDebt,
			Cost:          finance.MustMoney("1800"),
			MonthlyRelief: finance.MustMoney("350"),
			InterestPA:    decimal.RequireFromString("0.14"),
			Color:         "#8A05BE",
		},
		{
			Name:          "Empréstimo pessoal",
			Type:          finance.GoalDebt,
			Cost:          finance.MustMoney("6000"),
			MonthlyRelief: finance.MustMoney("520"),
			InterestPA:    decimal.RequireFromString("0.05"),
			Color:         "#E4572E",
		},
		{
			Name:           "Reserva de emergência",
			Type:           finance.GoalSavings,
			Cost:           finance.MustMoney("5000"),
			PriorityWeight: decimal.NewFromInt(1),
			Color:          "#29BF12",
		},
	}
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns all available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var loader func(context.Context) error
	switch req.ScenarioID {
	case "default-buckets":
		loader = h.loadDefaultBucketsScenario
	case "first-month":
		loader = h.loadFirstMonthScenario
	case "debt-attack":
		loader = h.loadDebtAttackScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	if err := loader(ctx); err != nil {
		h.writeFinanceError(w, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.setScenario(req.ScenarioID)
	h.logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every table.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.setScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) scenario() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentScenario
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = id
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadDefaultBucketsScenario(ctx context.Context) error {
	_, err := h.Buckets.SeedDefaults(ctx)
	return err
}

func (h *Handler) loadFirstMonthScenario(ctx context.Context) error {
	ids, err := h.seedBucketIDs(ctx)
	if err != nil {
		return err
	}
	today := finance.DateOf(h.now())

	inflows := []struct {
		daysAgo int
		amount  string
	}{
		{20, "1000"},
		{13, "1500"},
		{6, "800"},
	}
	for _, in := range inflows {
		if _, err := h.Engine.DistributeDaily(ctx, finance.MustMoney(in.amount), today.AddDays(-in.daysAgo), "", "salário"); err != nil {
			return err
		}
	}

	outflows := []finance.OutflowRequest{
		{Date: today.AddDays(-12), BucketID: ids["OPEX"], Description: "Mercado", Source: "Cartão", Amount: finance.MustMoney("350")},
		{Date: today.AddDays(-4), BucketID: ids["OPEX"], Description: "Farmácia", Source: "Pix", Amount: finance.MustMoney("120")},
	}
	for _, out := range outflows {
		if _, err := h.Engine.RecordOutflow(ctx, out); err != nil {
			return err
		}
	}

	return h.saveDues(ctx, finance.SampleDues(today))
}

func (h *Handler) loadDebtAttackScenario(ctx context.Context) error {
	ids, err := h.seedBucketIDs(ctx)
	if err != nil {
		return err
	}
	today := finance.DateOf(h.now())

	for _, g := range sampleGoals() {
		if _, err := h.Goals.Upsert(ctx, g); err != nil {
			return err
		}
	}

	for _, daysAgo := range []int{10, 3} {
		if _, err := h.Engine.DistributeDaily(ctx, finance.MustMoney("2000"), today.AddDays(-daysAgo), "", "salário"); err != nil {
			return err
		}
	}

	// OPEX holds 2160.00 after the two distributions, Ataque 180.00.
	_, err = h.Engine.Transfer(ctx, finance.TransferRequest{
		Date:        today,
		From:        ids["OPEX"],
		To:          ids[finance.DefaultAttackBucket],
		Description: "reforço para quitar cartão",
		Amount:      finance.MustMoney("1650"),
	})
	if err != nil {
		return err
	}

	return h.saveDues(ctx, finance.SampleDues(today))
}

// seedBucketIDs seeds the default buckets and returns their ids by name.
func (h *Handler) seedBucketIDs(ctx context.Context) (map[string]finance.BucketID, error) {
	if _, err := h.Buckets.SeedDefaults(ctx); err != nil {
		return nil, err
	}
	buckets, err := h.Buckets.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]finance.BucketID, len(buckets))
	for _, b := range buckets {
		ids[b.Name] = b.ID
	}
	return ids, nil
}

func (h *Handler) saveDues(ctx context.Context, dues []finance.Due) error {
	for _, d := range dues {
		if _, err := h.Dues.Save(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
