/*
handlers.go - HTTP API handlers for the bucket ledger

PURPOSE:
  Exposes the finance engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the finance package.

ENDPOINTS:
  Buckets:
    GET    /api/buckets                List all buckets
    GET    /api/buckets/active         List active buckets
    PUT    /api/buckets                Replace the bucket set

  Movements:
    POST   /api/distributions          Split an inflow across active buckets
    DELETE /api/batches/{id}           Undo a distribution or transfer
    POST   /api/outflows               Record money leaving a bucket
    POST   /api/transfers              Move money between buckets
    GET    /api/entries                Movement history
    DELETE /api/entries                Delete selected movements

  Goals:
    GET    /api/goals?strategy=        Ranked goals
    PUT    /api/goals                  Insert or update a goal by name
    DELETE /api/goals/{id}             Delete a goal

  Reports:
    GET    /api/reports/balances       Balance per active bucket
    GET    /api/reports/daily?days=    Daily flows over a trailing window
    GET    /api/reports/monthly        Monthly flows
    GET    /api/reports/attack         Attack bucket vs top goal
    GET    /api/reports/dashboard      All of the above in one call

  Dues:
    GET    /api/dues                   Bills calendar
    GET    /api/dues/upcoming?days=    Bills due soon
    POST   /api/dues                   Save a bill
    DELETE /api/dues/{id}              Delete a bill

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown or inactive bucket, unknown goal
  - 500: Storage failures

SECURITY NOTE:
  No authentication or authorization. The server is meant for a single
  user on localhost.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/bucket-ledger/finance"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// DefaultDueHorizonDays is the window used by /api/dues/upcoming without ?days=.
const DefaultDueHorizonDays = 7

// Options configures a Handler. Zero values pick defaults.
type Options struct {
	Publisher      finance.Publisher
	Logger         *slog.Logger
	AttackBucket   string
	DueHorizonDays int
	Now            func() time.Time
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   finance.TxStore
	Engine  *finance.Engine
	Buckets *finance.BucketRegistry
	Reports *finance.Reports
	Goals   *finance.GoalBook
	Dues    *finance.DueBook

	logger         *slog.Logger
	now            func() time.Time
	dueHorizonDays int

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the finance services around store.
func NewHandler(store finance.TxStore, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = finance.NopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AttackBucket == "" {
		opts.AttackBucket = finance.DefaultAttackBucket
	}
	if opts.DueHorizonDays <= 0 {
		opts.DueHorizonDays = DefaultDueHorizonDays
	}

	return &Handler{
		Store: store,
		Engine: finance.NewEngine(store,
			finance.WithPublisher(opts.Publisher),
			finance.WithLogger(opts.Logger),
			finance.WithClock(opts.Now),
		),
		Buckets: finance.NewBucketRegistry(store, opts.Logger),
		Reports: finance.NewReports(store,
			finance.WithAttackBucket(opts.AttackBucket),
			finance.WithReportsClock(opts.Now),
			finance.WithReportsLogger(opts.Logger),
		),
		Goals:          finance.NewGoalBook(store),
		Dues:           finance.NewDueBook(store),
		logger:         opts.Logger,
		now:            opts.Now,
		dueHorizonDays: opts.DueHorizonDays,
	}
}

// =============================================================================
// BUCKET HANDLERS
// =============================================================================

// ListBuckets returns every bucket, active or not.
func (h *Handler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Buckets.List(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to list buckets", err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketDTOs(buckets))
}

func (h *Handler) ListActiveBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.Buckets.ListActive(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to list buckets", err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketDTOs(buckets))
}

// ReplaceBuckets saves the editor's bucket set and drops the rest.
func (h *Handler) ReplaceBuckets(w http.ResponseWriter, r *http.Request) {
	var req ReplaceBucketsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	buckets := make([]finance.Bucket, len(req.Buckets))
	for i, in := range req.Buckets {
		buckets[i] = in.toBucket()
	}

	saved, err := h.Buckets.Replace(r.Context(), buckets)
	if err != nil {
		h.writeFinanceError(w, "Failed to save buckets", err)
		return
	}
	writeJSON(w, http.StatusOK, toBucketDTOs(saved))
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// Distribute splits an inflow across the active buckets.
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	var req DistributeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := finance.RequirePositive("amount", req.Amount); err != nil {
		h.writeFinanceError(w, "Invalid amount", err)
		return
	}

	dist, err := h.Engine.DistributeDaily(r.Context(), req.Amount, req.Date, req.Description, req.Source)
	if err != nil {
		h.writeFinanceError(w, "Failed to distribute", err)
		return
	}

	status := http.StatusCreated
	if dist.BatchID == nil {
		status = http.StatusOK
	}
	writeJSON(w, status, toDistributionDTO(dist))
}

// UndoBatch reverts a distribution or transfer. Unknown ids are not an error.
func (h *Handler) UndoBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid batch id", err)
		return
	}

	if _, err := h.Engine.UndoBatch(r.Context(), finance.BatchID(id)); err != nil {
		h.writeFinanceError(w, "Failed to undo batch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordOutflow(w http.ResponseWriter, r *http.Request) {
	var req OutflowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var goalID *finance.GoalID
	if req.GoalID != nil {
		g := finance.GoalID(*req.GoalID)
		goalID = &g
	}

	id, err := h.Engine.RecordOutflow(r.Context(), finance.OutflowRequest{
		Date:        req.Date,
		BucketID:    finance.BucketID(req.BucketID),
		Description: req.Description,
		Source:      req.Source,
		Amount:      req.Amount,
		GoalID:      goalID,
	})
	if err != nil {
		h.writeFinanceError(w, "Failed to record outflow", err)
		return
	}
	writeJSON(w, http.StatusCreated, OutflowResponse{EntryID: int64(id)})
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := h.Engine.Transfer(r.Context(), finance.TransferRequest{
		Date:        req.Date,
		From:        finance.BucketID(req.From),
		To:          finance.BucketID(req.To),
		Description: req.Description,
		Amount:      req.Amount,
	})
	if err != nil {
		h.writeFinanceError(w, "Failed to transfer", err)
		return
	}
	writeJSON(w, http.StatusCreated, TransferResponse{
		BatchID:    int64(res.BatchID),
		OutEntryID: int64(res.OutEntryID),
		InEntryID:  int64(res.InEntryID),
		Amount:     money(res.Amount),
	})
}

// ListEntries returns movements newest first.
// Query: from, to (YYYY-MM-DD), bucket_id, limit.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}

	rows, err := h.Reports.ListEntries(r.Context(), filter)
	if err != nil {
		h.writeFinanceError(w, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(rows))
	for i, e := range rows {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) DeleteEntries(w http.ResponseWriter, r *http.Request) {
	var req DeleteEntriesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]finance.EntryID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = finance.EntryID(id)
	}
	if err := h.Engine.DeleteEntries(r.Context(), ids); err != nil {
		h.writeFinanceError(w, "Failed to delete entries", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// ListGoals ranks goals by ?strategy= (avalanche, snowball, custom).
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	strategy, err := finance.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid strategy", err)
		return
	}

	ranked, err := h.Goals.Ranked(r.Context(), strategy)
	if err != nil {
		h.writeFinanceError(w, "Failed to list goals", err)
		return
	}

	resp := RankedGoalsResponse{Strategy: string(strategy), Goals: make([]RankedGoalDTO, len(ranked))}
	for i, g := range ranked {
		resp.Goals[i] = toRankedGoalDTO(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpsertGoal(w http.ResponseWriter, r *http.Request) {
	var req GoalDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Goals.Upsert(r.Context(), req.toGoal())
	if err != nil {
		h.writeFinanceError(w, "Failed to save goal", err)
		return
	}
	req.ID = int64(id)
	if req.Type == "" {
		req.Type = string(finance.GoalDebt)
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid goal id", err)
		return
	}
	if err := h.Goals.Delete(r.Context(), finance.GoalID(id)); err != nil {
		h.writeFinanceError(w, "Failed to delete goal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.BalancesByBucket(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to load balances", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTOs(rows))
}

// GetDailyTotals reports flows per day over ?days= (default 30, minimum 1).
func (h *Handler) GetDailyTotals(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", finance.DefaultTrailingDays)
	if err == nil && days == 0 {
		err = errors.New("days must be at least 1")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days", err)
		return
	}

	rows, err := h.Reports.TotalsByDay(r.Context(), days)
	if err != nil {
		h.writeFinanceError(w, "Failed to load daily totals", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodTotalsDTOs(rows))
}

func (h *Handler) GetMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Reports.TotalsByMonth(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to load monthly totals", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodTotalsDTOs(rows))
}

func (h *Handler) GetAttackStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Reports.AttackReady(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to load attack status", err)
		return
	}
	writeJSON(w, http.StatusOK, toAttackStatusDTO(status))
}

// GetDashboard gathers the four report panels concurrently.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var (
		balances []finance.BucketBalance
		daily    []finance.PeriodTotals
		monthly  []finance.PeriodTotals
		attack   finance.AttackStatus
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		balances, err = h.Reports.BalancesByBucket(ctx)
		return err
	})
	g.Go(func() (err error) {
		daily, err = h.Reports.TotalsByDay(ctx, finance.DefaultTrailingDays)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = h.Reports.TotalsByMonth(ctx)
		return err
	})
	g.Go(func() (err error) {
		attack, err = h.Reports.AttackReady(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeFinanceError(w, "Failed to load dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		Balances: toBalanceDTOs(balances),
		Daily:    toPeriodTotalsDTOs(daily),
		Monthly:  toPeriodTotalsDTOs(monthly),
		Attack:   toAttackStatusDTO(attack),
	})
}

// =============================================================================
// DUE HANDLERS
// =============================================================================

func (h *Handler) ListDues(w http.ResponseWriter, r *http.Request) {
	dues, err := h.Dues.List(r.Context())
	if err != nil {
		h.writeFinanceError(w, "Failed to list dues", err)
		return
	}
	writeJSON(w, http.StatusOK, toDueDTOs(dues))
}

// ListUpcomingDues returns dues within ?days= of today.
func (h *Handler) ListUpcomingDues(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.dueHorizonDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days", err)
		return
	}

	dues, err := h.Reports.UpcomingDues(r.Context(), days)
	if err != nil {
		h.writeFinanceError(w, "Failed to list upcoming dues", err)
		return
	}
	writeJSON(w, http.StatusOK, toDueDTOs(dues))
}

func (h *Handler) SaveDue(w http.ResponseWriter, r *http.Request) {
	var req DueRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	due := finance.Due{
		ID:      finance.DueID(req.ID),
		Name:    req.Name,
		DueDate: req.DueDate,
		Amount:  req.Amount,
		Kind:    req.Kind,
		Note:    req.Note,
	}
	id, err := h.Dues.Save(r.Context(), due)
	if err != nil {
		h.writeFinanceError(w, "Failed to save due", err)
		return
	}

	due.ID = id
	due.Amount = finance.Round2(due.Amount)
	writeJSON(w, http.StatusCreated, toDueDTO(due))
}

func (h *Handler) DeleteDue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due id", err)
		return
	}
	if err := h.Dues.Delete(r.Context(), finance.DueID(id)); err != nil {
		h.writeFinanceError(w, "Failed to delete due", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeFinanceError maps finance errors to 400/404/500.
func (h *Handler) writeFinanceError(w http.ResponseWriter, message string, err error) {
	switch {
	case finance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case finance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return id, nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func parseEntryFilter(r *http.Request) (finance.EntryFilter, error) {
	q := r.URL.Query()
	var filter finance.EntryFilter

	if s := q.Get("from"); s != "" {
		d, err := finance.ParseDate(s)
		if err != nil {
			return filter, err
		}
		filter.From = d
	}
	if s := q.Get("to"); s != "" {
		d, err := finance.ParseDate(s)
		if err != nil {
			return filter, err
		}
		filter.To = d
	}
	if s := q.Get("bucket_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filter, errors.New("bucket_id must be an integer")
		}
		b := finance.BucketID(id)
		filter.BucketID = &b
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	return filter, nil
}
