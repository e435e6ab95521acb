package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"github.com/kursadbilgin/funnel-engine/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100

	actorHeader = "X-Actor-ID"
)

type CallService interface {
	Create(ctx context.Context, call *domain.Call) (*domain.Call, error)
	BulkImport(ctx context.Context, databaseID *string, calls []domain.Call) ([]domain.Call, error)
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Call, int64, error)
	AttemptCounts(ctx context.Context, callID string) (map[string]int, error)
	History(ctx context.Context, callID string) ([]domain.CallEvent, error)
	GetFunnelSummary(ctx context.Context) (*service.FunnelSummary, error)
	Purge(ctx context.Context, callID string) error
}

type DispositionService interface {
	ApplyOutcome(ctx context.Context, callID string, outcome string, actorID string, notes *string, dates service.StageDates) (*domain.Decision, error)
}

type AssignmentService interface {
	Distribute(ctx context.Context, callIDs []string, agentIDs []string) (map[string][]string, error)
}

type CallHandler struct {
	calls        CallService
	dispositions DispositionService
	assignments  AssignmentService
}

func NewCallHandler(calls CallService, dispositions DispositionService, assignments AssignmentService) (*CallHandler, error) {
	if calls == nil {
		return nil, fmt.Errorf("call service is required")
	}
	if dispositions == nil {
		return nil, fmt.Errorf("disposition service is required")
	}
	if assignments == nil {
		return nil, fmt.Errorf("assignment service is required")
	}
	return &CallHandler{calls: calls, dispositions: dispositions, assignments: assignments}, nil
}

func RegisterCallRoutes(router fiber.Router, calls CallService, dispositions DispositionService, assignments AssignmentService) error {
	h, err := NewCallHandler(calls, dispositions, assignments)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/calls", h.CreateCall)
	v1.Post("/calls/import", h.ImportCalls)
	v1.Post("/calls/assign", h.AssignCalls)
	v1.Get("/calls", h.ListCalls)
	v1.Get("/calls/:id", h.GetCall)
	v1.Delete("/calls/:id", h.PurgeCall)
	v1.Post("/calls/:id/disposition", h.ReportDisposition)
	v1.Get("/calls/:id/attempts", h.GetAttemptCounts)
	v1.Get("/calls/:id/history", h.GetCallHistory)
	v1.Get("/reports/funnel", h.GetFunnelReport)

	return nil
}

type createCallRequest struct {
	LeadType        string  `json:"leadType"`
	ClientName      string  `json:"clientName"`
	PhoneNumber     string  `json:"phoneNumber"`
	Email           *string `json:"email"`
	Department      *string `json:"department"`
	City            *string `json:"city"`
	CompanyName     *string `json:"companyName"`
	ContactPerson   *string `json:"contactPerson"`
	Designation     *string `json:"designation"`
	InstitutionName *string `json:"institutionName"`
	AssignedTo      *string `json:"assignedTo"`
}

type importCallsRequest struct {
	DatabaseID *string             `json:"databaseId"`
	Calls      []createCallRequest `json:"calls"`
}

type assignCallsRequest struct {
	CallIDs  []string `json:"callIds"`
	AgentIDs []string `json:"agentIds"`
}

type dispositionRequest struct {
	Disposition   string     `json:"disposition"`
	Notes         *string    `json:"notes"`
	FollowUpAt    *time.Time `json:"followUpAt"`
	DemoAt        *time.Time `json:"demoAt"`
	ProposalAt    *time.Time `json:"proposalAt"`
	NegotiationAt *time.Time `json:"negotiationAt"`
}

type callResponse struct {
	ID              string     `json:"id"`
	CallRef         string     `json:"callRef"`
	DatabaseID      *string    `json:"databaseId,omitempty"`
	LeadType        string     `json:"leadType"`
	ClientName      string     `json:"clientName"`
	PhoneNumber     string     `json:"phoneNumber"`
	Email           *string    `json:"email,omitempty"`
	Department      *string    `json:"department,omitempty"`
	City            *string    `json:"city,omitempty"`
	CompanyName     *string    `json:"companyName,omitempty"`
	ContactPerson   *string    `json:"contactPerson,omitempty"`
	Designation     *string    `json:"designation,omitempty"`
	InstitutionName *string    `json:"institutionName,omitempty"`
	AssignedTo      *string    `json:"assignedTo,omitempty"`
	Stage           string     `json:"stage"`
	Disposition     *string    `json:"disposition,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	FollowUpAt      *time.Time `json:"followUpAt,omitempty"`
	DemoAt          *time.Time `json:"demoAt,omitempty"`
	ProposalAt      *time.Time `json:"proposalAt,omitempty"`
	NegotiationAt   *time.Time `json:"negotiationAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type importCallsResponse struct {
	TotalCount int            `json:"totalCount"`
	Calls      []callResponse `json:"calls"`
}

type listCallsResponse struct {
	Data []callResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type decisionResponse struct {
	CallID            string    `json:"callId"`
	CallRef           string    `json:"callRef"`
	PreviousStage     string    `json:"previousStage"`
	NewStage          string    `json:"newStage"`
	Disposition       string    `json:"disposition"`
	Terminal          bool      `json:"terminal"`
	AutoEscalated     bool      `json:"autoEscalated"`
	AttemptsUsed      int       `json:"attemptsUsed"`
	AttemptsRemaining int       `json:"attemptsRemaining"`
	OccurredAt        time.Time `json:"occurredAt"`
}

type attemptCountsResponse struct {
	CallID string         `json:"callId"`
	Counts map[string]int `json:"counts"`
}

type callEventResponse struct {
	ID          string    `json:"id"`
	CallID      string    `json:"callId"`
	ActorID     string    `json:"actorId"`
	Disposition string    `json:"disposition"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type funnelReportResponse struct {
	TotalCalls     int              `json:"totalCalls"`
	Stages         []stageCountItem `json:"stages"`
	ConnectedCalls int              `json:"connectedCalls"`
	ConvertedCalls int              `json:"convertedCalls"`
	ConversionRate float64          `json:"conversionRate"`
}

type stageCountItem struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

func (h *CallHandler) CreateCall(c *fiber.Ctx) error {
	var req createCallRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	call, err := requestToDomainCall(req)
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.calls.Create(c.Context(), &call)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCallResponse(created))
}

func (h *CallHandler) ImportCalls(c *fiber.Ctx) error {
	var req importCallsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Calls) == 0 {
		return toHTTPError(fmt.Errorf("%w: calls is required", domain.ErrValidation))
	}

	calls := make([]domain.Call, 0, len(req.Calls))
	for _, item := range req.Calls {
		call, err := requestToDomainCall(item)
		if err != nil {
			return toHTTPError(err)
		}
		calls = append(calls, call)
	}

	created, err := h.calls.BulkImport(c.Context(), req.DatabaseID, calls)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(importCallsResponse{
		TotalCount: len(created),
		Calls:      toCallResponses(created),
	})
}

func (h *CallHandler) AssignCalls(c *fiber.Ctx) error {
	var req assignCallsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	assignments, err := h.assignments.Distribute(c.Context(), req.CallIDs, req.AgentIDs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"assignments": assignments,
		"totalCalls":  len(req.CallIDs),
	})
}

func (h *CallHandler) GetCall(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	call, err := h.calls.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCallResponse(call))
}

func (h *CallHandler) PurgeCall(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := h.calls.Purge(c.Context(), id); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CallHandler) ListCalls(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	calls, total, err := h.calls.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listCallsResponse{
		Data: toCallResponses(calls),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *CallHandler) ReportDisposition(c *fiber.Ctx) error {
	var req dispositionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	id := strings.TrimSpace(c.Params("id"))
	actorID := strings.TrimSpace(c.Get(actorHeader))

	decision, err := h.dispositions.ApplyOutcome(c.Context(), id, req.Disposition, actorID, req.Notes, service.StageDates{
		FollowUpAt:    req.FollowUpAt,
		DemoAt:        req.DemoAt,
		ProposalAt:    req.ProposalAt,
		NegotiationAt: req.NegotiationAt,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toDecisionResponse(decision))
}

func (h *CallHandler) GetAttemptCounts(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	counts, err := h.calls.AttemptCounts(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(attemptCountsResponse{
		CallID: id,
		Counts: counts,
	})
}

func (h *CallHandler) GetCallHistory(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	events, err := h.calls.History(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]callEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, callEventResponse{
			ID:          event.ID,
			CallID:      event.CallID,
			ActorID:     event.ActorID,
			Disposition: event.Disposition,
			Notes:       event.Notes,
			CreatedAt:   event.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"callId": id,
		"events": responses,
	})
}

func (h *CallHandler) GetFunnelReport(c *fiber.Ctx) error {
	summary, err := h.calls.GetFunnelSummary(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	stages := make([]stageCountItem, 0, len(summary.StageCounts))
	for _, count := range summary.StageCounts {
		stages = append(stages, stageCountItem{
			Stage: count.Stage.String(),
			Count: count.Count,
		})
	}

	return c.Status(fiber.StatusOK).JSON(funnelReportResponse{
		TotalCalls:     summary.TotalCalls,
		Stages:         stages,
		ConnectedCalls: summary.ConnectedCalls,
		ConvertedCalls: summary.ConvertedCalls,
		ConversionRate: summary.ConversionRate,
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStage := strings.TrimSpace(c.Query("stage")); rawStage != "" {
		stage, err := domain.ParseStageFromString(rawStage)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Stage = &stage
	}

	if assignedTo := strings.TrimSpace(c.Query("assignedTo")); assignedTo != "" {
		params.AssignedTo = &assignedTo
	}
	if databaseID := strings.TrimSpace(c.Query("databaseId")); databaseID != "" {
		params.DatabaseID = &databaseID
	}

	return params, nil
}

func requestToDomainCall(req createCallRequest) (domain.Call, error) {
	leadType, err := domain.ParseLeadTypeFromString(req.LeadType)
	if err != nil {
		return domain.Call{}, err
	}

	return domain.Call{
		LeadType:        leadType,
		ClientName:      strings.TrimSpace(req.ClientName),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		Email:           req.Email,
		Department:      req.Department,
		City:            req.City,
		CompanyName:     req.CompanyName,
		ContactPerson:   req.ContactPerson,
		Designation:     req.Designation,
		InstitutionName: req.InstitutionName,
		AssignedTo:      req.AssignedTo,
	}, nil
}

func toCallResponses(calls []domain.Call) []callResponse {
	responses := make([]callResponse, 0, len(calls))
	for _, call := range calls {
		c := call
		responses = append(responses, toCallResponse(&c))
	}
	return responses
}

func toCallResponse(call *domain.Call) callResponse {
	if call == nil {
		return callResponse{}
	}

	return callResponse{
		ID:              call.ID,
		CallRef:         call.CallRef,
		DatabaseID:      call.DatabaseID,
		LeadType:        call.LeadType.String(),
		ClientName:      call.ClientName,
		PhoneNumber:     call.PhoneNumber,
		Email:           call.Email,
		Department:      call.Department,
		City:            call.City,
		CompanyName:     call.CompanyName,
		ContactPerson:   call.ContactPerson,
		Designation:     call.Designation,
		InstitutionName: call.InstitutionName,
		AssignedTo:      call.AssignedTo,
		Stage:           call.Stage.String(),
		Disposition:     call.Disposition,
		Notes:           call.Notes,
		LastContactedAt: call.LastContactedAt,
		FollowUpAt:      call.FollowUpAt,
		DemoAt:          call.DemoAt,
		ProposalAt:      call.ProposalAt,
		NegotiationAt:   call.NegotiationAt,
		CreatedAt:       call.CreatedAt,
		UpdatedAt:       call.UpdatedAt,
	}
}

func toDecisionResponse(d *domain.Decision) decisionResponse {
	if d == nil {
		return decisionResponse{}
	}

	return decisionResponse{
		CallID:            d.CallID,
		CallRef:           d.CallRef,
		PreviousStage:     d.PreviousStage.String(),
		NewStage:          d.NewStage.String(),
		Disposition:       d.Disposition,
		Terminal:          d.Terminal,
		AutoEscalated:     d.AutoEscalated,
		AttemptsUsed:      d.AttemptsUsed,
		AttemptsRemaining: d.AttemptsRemaining,
		OccurredAt:        d.OccurredAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidActor):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
