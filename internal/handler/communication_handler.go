package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
)

type CommunicationService interface {
	Log(ctx context.Context, comm *domain.Communication) (*domain.Communication, error)
	ListByCall(ctx context.Context, callID string) ([]domain.Communication, error)
}

type CommunicationHandler struct {
	service CommunicationService
}

func NewCommunicationHandler(service CommunicationService) (*CommunicationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("communication service is required")
	}
	return &CommunicationHandler{service: service}, nil
}

func RegisterCommunicationRoutes(router fiber.Router, service CommunicationService) error {
	h, err := NewCommunicationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/communications/whatsapp", h.LogWhatsApp)
	v1.Post("/communications/email", h.LogEmail)
	v1.Get("/calls/:id/communications", h.ListByCall)

	return nil
}

type logCommunicationRequest struct {
	CallID     string  `json:"callId"`
	Subject    *string `json:"subject"`
	Message    string  `json:"message"`
	TemplateID *string `json:"templateId"`
}

type communicationResponse struct {
	ID         string    `json:"id"`
	CallID     string    `json:"callId"`
	ActorID    string    `json:"actorId"`
	Kind       string    `json:"kind"`
	Subject    *string   `json:"subject,omitempty"`
	Message    string    `json:"message"`
	TemplateID *string   `json:"templateId,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *CommunicationHandler) LogWhatsApp(c *fiber.Ctx) error {
	return h.log(c, domain.CommWhatsApp)
}

func (h *CommunicationHandler) LogEmail(c *fiber.Ctx) error {
	return h.log(c, domain.CommEmail)
}

func (h *CommunicationHandler) log(c *fiber.Ctx, kind domain.CommKind) error {
	var req logCommunicationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	comm := domain.Communication{
		CallID:     strings.TrimSpace(req.CallID),
		ActorID:    strings.TrimSpace(c.Get(actorHeader)),
		Kind:       kind,
		Subject:    req.Subject,
		Message:    req.Message,
		TemplateID: req.TemplateID,
	}

	logged, err := h.service.Log(c.Context(), &comm)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCommunicationResponse(logged))
}

func (h *CommunicationHandler) ListByCall(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	comms, err := h.service.ListByCall(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]communicationResponse, 0, len(comms))
	for _, comm := range comms {
		cm := comm
		responses = append(responses, toCommunicationResponse(&cm))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"callId":         id,
		"communications": responses,
	})
}

func toCommunicationResponse(comm *domain.Communication) communicationResponse {
	if comm == nil {
		return communicationResponse{}
	}

	return communicationResponse{
		ID:         comm.ID,
		CallID:     comm.CallID,
		ActorID:    comm.ActorID,
		Kind:       comm.Kind.String(),
		Subject:    comm.Subject,
		Message:    comm.Message,
		TemplateID: comm.TemplateID,
		Status:     string(comm.Status),
		CreatedAt:  comm.CreatedAt,
	}
}
