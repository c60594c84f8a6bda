/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the finance model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

WIRE FORMAT:
  - Money is a decimal string with two places: "540.00"
  - Dates are "YYYY-MM-DD"; an omitted date in a request means today
  - Request amounts accept either a JSON number or a decimal string

TYPES:
  Buckets:       BucketDTO, BucketInput, ReplaceBucketsRequest
  Movements:     DistributeRequest, DistributionDTO, OutflowRequest,
                 TransferRequest, EntryDTO, DeleteEntriesRequest
  Goals:         GoalDTO, RankedGoalDTO
  Reports:       BalanceDTO, PeriodTotalsDTO, AttackStatusDTO, DashboardDTO
  Dues:          DueDTO, DueRequest
  Scenarios:     ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in the finance package, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - finance/types.go: Domain types
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/bucket-ledger/finance"
)

// =============================================================================
// BUCKETS
// =============================================================================

type BucketDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsPriority bool   `json:"is_priority"`
	Percentage string `json:"percentage"`
	Active     bool   `json:"active"`
}

// BucketInput is one row of the bucket editor. ID 0 creates a new bucket.
type BucketInput struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	IsPriority bool            `json:"is_priority"`
	Percentage decimal.Decimal `json:"percentage"`
	Active     *bool           `json:"active,omitempty"`
}

type ReplaceBucketsRequest struct {
	Buckets []BucketInput `json:"buckets"`
}

// =============================================================================
// MOVEMENTS
// =============================================================================

type DistributeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        finance.Date    `json:"date"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
}

type AllocationDTO struct {
	BucketID   int64  `json:"bucket_id"`
	BucketName string `json:"bucket_name"`
	Amount     string `json:"amount"`
}

// DistributionDTO is the result of a distribution. BatchID is null when
// nothing was allocated.
type DistributionDTO struct {
	Allocations []AllocationDTO `json:"allocations"`
	Total       string          `json:"total"`
	BatchID     *int64          `json:"batch_id"`
}

type OutflowRequest struct {
	Date        finance.Date    `json:"date"`
	BucketID    int64           `json:"bucket_id"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Amount      decimal.Decimal `json:"amount"`
	GoalID      *int64          `json:"goal_id,omitempty"`
}

type OutflowResponse struct {
	EntryID int64 `json:"entry_id"`
}

type TransferRequest struct {
	Date        finance.Date    `json:"date"`
	From        int64           `json:"from"`
	To          int64           `json:"to"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type TransferResponse struct {
	BatchID    int64  `json:"batch_id"`
	OutEntryID int64  `json:"out_entry_id"`
	InEntryID  int64  `json:"in_entry_id"`
	Amount     string `json:"amount"`
}

type EntryDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	BucketID    *int64 `json:"bucket_id"`
	BucketName  string `json:"bucket_name"`
	Source      string `json:"source"`
	GoalID      *int64 `json:"goal_id,omitempty"`
}

type DeleteEntriesRequest struct {
	IDs []int64 `json:"ids"`
}

// =============================================================================
// GOALS
// =============================================================================

type GoalDTO struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Cost           decimal.Decimal `json:"cost"`
	MonthlyRelief  decimal.Decimal `json:"monthly_relief"`
	InterestPA     decimal.Decimal `json:"interest_pa"`
	PriorityWeight decimal.Decimal `json:"priority_weight"`
	Color          string          `json:"color"`
}

type RankedGoalDTO struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Cost              string `json:"cost"`
	MonthlyRelief     string `json:"monthly_relief"`
	InterestPA        string `json:"interest_pa"`
	PriorityWeight    string `json:"priority_weight"`
	Color             string `json:"color"`
	Score             string `json:"score"`
	ReliefPerThousand string `json:"relief_per_thousand"`
}

type RankedGoalsResponse struct {
	Strategy string          `json:"strategy"`
	Goals    []RankedGoalDTO `json:"goals"`
}

// =============================================================================
// REPORTS
// =============================================================================

type BalanceDTO struct {
	BucketID int64  `json:"bucket_id"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
}

type PeriodTotalsDTO struct {
	Period   string `json:"period"`
	Inflows  string `json:"inflows"`
	Outflows string `json:"outflows"`
	Net      string `json:"net"`
}

type AttackStatusDTO struct {
	BucketFound   bool   `json:"bucket_found"`
	BucketBalance string `json:"bucket_balance"`
	HasGoal       bool   `json:"has_goal"`
	GoalName      string `json:"goal_name,omitempty"`
	GoalCost      string `json:"goal_cost"`
	Ready         bool   `json:"ready"`
}

type DashboardDTO struct {
	Balances []BalanceDTO      `json:"balances"`
	Daily    []PeriodTotalsDTO `json:"daily"`
	Monthly  []PeriodTotalsDTO `json:"monthly"`
	Attack   AttackStatusDTO   `json:"attack"`
}

// =============================================================================
// DUES
// =============================================================================

type DueDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	DueDate string `json:"due_date"`
	Amount  string `json:"amount"`
	Kind    string `json:"kind"`
	Note    string `json:"note"`
}

type DueRequest struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	DueDate finance.Date    `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
	Kind    string          `json:"kind"`
	Note    string          `json:"note"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toBucketDTO(b finance.Bucket) BucketDTO {
	return BucketDTO{
		ID:         int64(b.ID),
		Name:       b.Name,
		IsPriority: b.IsPriority,
		Percentage: b.Percentage.String(),
		Active:     b.Active,
	}
}

func toBucketDTOs(buckets []finance.Bucket) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toBucketDTO(b)
	}
	return dtos
}

// toBucket converts an editor row. A missing active flag means active.
func (in BucketInput) toBucket() finance.Bucket {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return finance.Bucket{
		ID:         finance.BucketID(in.ID),
		Name:       in.Name,
		IsPriority: in.IsPriority,
		Percentage: in.Percentage,
		Active:     active,
	}
}

func toDistributionDTO(d finance.Distribution) DistributionDTO {
	dto := DistributionDTO{
		Allocations: make([]AllocationDTO, len(d.Allocations)),
		Total:       money(d.Total()),
	}
	for i, a := range d.Allocations {
		dto.Allocations[i] = AllocationDTO{
			BucketID:   int64(a.BucketID),
			BucketName: a.BucketName,
			Amount:     money(a.Amount),
		}
	}
	if d.BatchID != nil {
		id := int64(*d.BatchID)
		dto.BatchID = &id
	}
	return dto
}

func toEntryDTO(e finance.EntryView) EntryDTO {
	dto := EntryDTO{
		ID:          int64(e.ID),
		Date:        e.Date.String(),
		Description: e.Description,
		Type:        string(e.Type),
		Amount:      money(e.Amount),
		BucketName:  e.BucketName,
		Source:      e.Source,
	}
	if e.BucketID != nil {
		id := int64(*e.BucketID)
		dto.BucketID = &id
	}
	if e.GoalID != nil {
		id := int64(*e.GoalID)
		dto.GoalID = &id
	}
	return dto
}

func (g GoalDTO) toGoal() finance.Goal {
	return finance.Goal{
		ID:             finance.GoalID(g.ID),
		Name:           g.Name,
		Type:           finance.GoalType(g.Type),
		Cost:           g.Cost,
		MonthlyRelief:  g.MonthlyRelief,
		InterestPA:     g.InterestPA,
		PriorityWeight: g.PriorityWeight,
		Color:          g.Color,
	}
}

func toRankedGoalDTO(g finance.RankedGoal) RankedGoalDTO {
	return RankedGoalDTO{
		ID:                int64(g.ID),
		Name:              g.Name,
		Type:              string(g.Type),
		Cost:              money(g.Cost),
		MonthlyRelief:     money(g.MonthlyRelief),
		InterestPA:        g.InterestPA.String(),
		PriorityWeight:    g.PriorityWeight.String(),
		Color:             g.Color,
		Score:             g.Score.StringFixed(6),
		ReliefPerThousand: money(g.ReliefPerThousand),
	}
}

func toBalanceDTOs(rows []finance.BucketBalance) []BalanceDTO {
	dtos := make([]BalanceDTO, len(rows))
	for i, b := range rows {
		dtos[i] = BalanceDTO{BucketID: int64(b.BucketID), Name: b.Name, Balance: money(b.Balance)}
	}
	return dtos
}

func toPeriodTotalsDTOs(rows []finance.PeriodTotals) []PeriodTotalsDTO {
	dtos := make([]PeriodTotalsDTO, len(rows))
	for i, p := range rows {
		dtos[i] = PeriodTotalsDTO{
			Period:   p.Period,
			Inflows:  money(p.Inflows),
			Outflows: money(p.Outflows),
			Net:      money(p.Net),
		}
	}
	return dtos
}

func toAttackStatusDTO(s finance.AttackStatus) AttackStatusDTO {
	return AttackStatusDTO{
		BucketFound:   s.BucketFound,
		BucketBalance: money(s.BucketBalance),
		HasGoal:       s.HasGoal,
		GoalName:      s.GoalName,
		GoalCost:      money(s.GoalCost),
		Ready:         s.Ready,
	}
}

func toDueDTO(d finance.Due) DueDTO {
	return DueDTO{
		ID:      int64(d.ID),
		Name:    d.Name,
		DueDate: d.DueDate.String(),
		Amount:  money(d.Amount),
		Kind:    d.Kind,
		Note:    d.Note,
	}
}

func toDueDTOs(dues []finance.Due) []DueDTO {
	dtos := make([]DueDTO, len(dues))
	for i, d := range dues {
		dtos[i] = toDueDTO(d)
	}
	return dtos
}
