package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/observability"
	"github.com/kursadbilgin/funnel-engine/internal/queue"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"go.uber.org/zap"
)

// CommunicationService logs outbound whatsapp/email messages. The log insert
// is the operation; the broker publish is fire-and-forget and never fails
// the request or touches the funnel.
type CommunicationService struct {
	comms     repository.CommunicationRepository
	calls     repository.CallRepository
	agents    repository.AgentRepository
	publisher queue.Publisher
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func NewCommunicationService(
	comms repository.CommunicationRepository,
	calls repository.CallRepository,
	agents repository.AgentRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*CommunicationService, error) {
	if comms == nil {
		return nil, fmt.Errorf("communication repository is required")
	}
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CommunicationService{
		comms:     comms,
		calls:     calls,
		agents:    agents,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func (s *CommunicationService) Log(ctx context.Context, comm *domain.Communication) (*domain.Communication, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if comm == nil {
		return nil, fmt.Errorf("%w: communication is required", domain.ErrValidation)
	}

	comm.CallID = strings.TrimSpace(comm.CallID)
	if comm.CallID == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}
	comm.Message = strings.TrimSpace(comm.Message)
	comm.Subject = normalizeOptionalString(comm.Subject)
	if err := comm.Validate(); err != nil {
		return nil, err
	}

	actorID := strings.TrimSpace(comm.ActorID)
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is required", domain.ErrInvalidActor)
	}
	actor, err := s.agents.GetByID(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q does not resolve to an agent", domain.ErrInvalidActor, actorID)
	}
	if err != nil {
		return nil, err
	}
	comm.ActorID = actor.ID

	if _, err := s.calls.GetByID(ctx, comm.CallID); err != nil {
		return nil, err
	}

	comm.ID = uuid.NewString()
	comm.Status = domain.CommStatusSent

	if err := s.comms.Create(ctx, comm); err != nil {
		return nil, err
	}

	s.publish(ctx, comm)
	s.metrics.IncCommunication(comm.Kind.String())

	return comm, nil
}

func (s *CommunicationService) ListByCall(ctx context.Context, callID string) ([]domain.Communication, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}

	if _, err := s.calls.GetByID(ctx, callID); err != nil {
		return nil, err
	}
	return s.comms.ListByCall(ctx, callID)
}

func (s *CommunicationService) publish(ctx context.Context, comm *domain.Communication) {
	if s.publisher == nil {
		return
	}

	msg := queue.CommunicationMessage{
		CommunicationID: comm.ID,
		CallID:          comm.CallID,
		ActorID:         comm.ActorID,
		Kind:            comm.Kind,
	}
	if err := s.publisher.Publish(ctx, queue.QueueName(comm.Kind), msg); err != nil {
		// The log row is the source of truth; a lost event is not an error.
		s.logger.Warn("failed to publish communication event",
			zap.String("communicationId", comm.ID),
			zap.String("kind", comm.Kind.String()),
			zap.Error(err),
		)
	}
}
