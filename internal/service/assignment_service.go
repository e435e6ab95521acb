package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/observability"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"go.uber.org/zap"
)

// AssignmentService spreads a batch of calls across agents, round-robin by
// position, and persists the ownership change. Who may assign what is the
// caller's policy check, not ours.
type AssignmentService struct {
	txm     repository.TxManager
	agents  repository.AgentRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewAssignmentService(
	txm repository.TxManager,
	agents repository.AgentRepository,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*AssignmentService, error) {
	if txm == nil {
		return nil, fmt.Errorf("tx manager is required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AssignmentService{
		txm:     txm,
		agents:  agents,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (s *AssignmentService) Distribute(
	ctx context.Context,
	callIDs []string,
	agentIDs []string,
) (map[string][]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(callIDs) == 0 {
		return nil, fmt.Errorf("%w: call ids are required", domain.ErrValidation)
	}
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("%w: agent ids are required", domain.ErrValidation)
	}
	for _, id := range callIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: call ids must not be blank", domain.ErrValidation)
		}
	}
	for _, id := range agentIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: agent ids must not be blank", domain.ErrValidation)
		}
		if _, err := s.agents.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("agent %q: %w", id, err)
		}
	}

	assignments := distribute(callIDs, agentIDs)

	err := s.txm.InTx(ctx, func(r repository.Repos) error {
		for _, agentID := range agentIDs {
			ids := assignments[agentID]
			if len(ids) == 0 {
				continue
			}

			updated, err := r.Calls.AssignBulk(ctx, agentID, ids)
			if err != nil {
				return err
			}
			if updated != int64(len(ids)) {
				return fmt.Errorf("%w: %d of %d calls for agent %q do not exist",
					domain.ErrNotFound, int64(len(ids))-updated, len(ids), agentID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddAssignments(len(callIDs))
	s.logger.Info("calls distributed",
		zap.Int("calls", len(callIDs)),
		zap.Int("agents", len(agentIDs)),
	)

	return assignments, nil
}

// distribute assigns the i-th call to agentIDs[i mod len(agentIDs)]:
// deterministic, order-preserving, and even to within one call per agent.
func distribute(callIDs []string, agentIDs []string) map[string][]string {
	assignments := make(map[string][]string, len(agentIDs))
	for _, agentID := range agentIDs {
		assignments[agentID] = []string{}
	}

	for i, callID := range callIDs {
		agentID := agentIDs[i%len(agentIDs)]
		assignments[agentID] = append(assignments[agentID], callID)
	}

	return assignments
}
