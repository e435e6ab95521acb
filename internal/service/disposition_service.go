package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/lock"
	"github.com/kursadbilgin/funnel-engine/internal/observability"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"go.uber.org/zap"
)

// StageDates carries explicit stage timestamps a human picked for future
// commitments. Missing values fall back to the entry policy.
type StageDates struct {
	FollowUpAt    *time.Time
	DemoAt        *time.Time
	ProposalAt    *time.Time
	NegotiationAt *time.Time
}

// DispositionService is the funnel engine: it applies one reported outcome
// to a call, moves it along the funnel, and escalates calls that exhaust
// their no-contact budget.
type DispositionService struct {
	txm     repository.TxManager
	agents  repository.AgentRepository
	locker  lock.CallLocker
	logger  *zap.Logger
	metrics *observability.Metrics
	limit   int
	now     func() time.Time
}

func NewDispositionService(
	txm repository.TxManager,
	agents repository.AgentRepository,
	locker lock.CallLocker,
	limit int,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*DispositionService, error) {
	if txm == nil {
		return nil, fmt.Errorf("tx manager is required")
	}
	if agents == nil {
		return nil, fmt.Errorf("agent repository is required")
	}
	if limit < 1 {
		limit = domain.DefaultNoContactLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispositionService{
		txm:     txm,
		agents:  agents,
		locker:  locker,
		logger:  logger,
		metrics: metrics,
		limit:   limit,
		now:     time.Now,
	}, nil
}

func (s *DispositionService) ApplyOutcome(
	ctx context.Context,
	callID string,
	outcome string,
	actorID string,
	notes *string,
	dates StageDates,
) (*domain.Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		return nil, fmt.Errorf("%w: disposition is required", domain.ErrValidation)
	}

	actor, err := s.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, callID)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize call mutation: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("failed to release call lock",
					zap.String("callId", callID),
					zap.Error(err),
				)
			}
		}()
	}

	var decision *domain.Decision
	err = s.txm.InTx(ctx, func(r repository.Repos) error {
		call, err := r.Calls.LockByID(ctx, callID)
		if err != nil {
			return err
		}

		now := s.now().UTC()

		// Closed calls accept no further mutation: report success, write nothing.
		if call.Stage.Terminal() {
			decision = &domain.Decision{
				CallID:        call.ID,
				CallRef:       call.CallRef,
				PreviousStage: call.Stage,
				NewStage:      call.Stage,
				Disposition:   stringValue(call.Disposition),
				Terminal:      true,
				OccurredAt:    now,
			}
			return nil
		}

		d := domain.Decision{
			CallID:        call.ID,
			CallRef:       call.CallRef,
			PreviousStage: call.Stage,
			NewStage:      call.Stage,
			Disposition:   outcome,
			OccurredAt:    now,
		}

		switch {
		case call.Stage == domain.StageConverted:
			// Already won; record the touch but never move or count.

		case domain.IsNoContactOutcome(outcome):
			count, err := r.Attempts.Increment(ctx, call.ID, domain.RingingGroup)
			if err != nil {
				return fmt.Errorf("failed to increment attempt ledger: %w", err)
			}
			d.AttemptsUsed = count
			if count >= s.limit {
				d.NewStage = domain.StageClosure
				d.Disposition = domain.OutcomeNotInterested
				d.AutoEscalated = true
				if err := r.Attempts.Clear(ctx, call.ID); err != nil {
					return fmt.Errorf("failed to clear attempt ledger: %w", err)
				}
			} else {
				d.AttemptsRemaining = s.limit - count
			}

		default:
			if next, ok := domain.NextStage(call.Stage, outcome); ok {
				d.NewStage = next
				if next == domain.StageClosure {
					// The counter resets only on arrival at closure; a
					// legitimate advance carries it forward.
					if err := r.Attempts.Clear(ctx, call.ID); err != nil {
						return fmt.Errorf("failed to clear attempt ledger: %w", err)
					}
				}
			}
		}

		update := buildDispositionUpdate(call, &d, notes, dates, now)
		if err := r.Calls.ApplyDisposition(ctx, call.ID, update); err != nil {
			return err
		}

		if err := r.History.Append(ctx, &domain.CallEvent{
			ID:          uuid.NewString(),
			CallID:      call.ID,
			ActorID:     actor.ID,
			Disposition: d.Disposition,
			Notes:       notes,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		decision = &d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.observeDecision(outcome, decision)
	return decision, nil
}

func (s *DispositionService) resolveActor(ctx context.Context, actorID string) (*domain.Agent, error) {
	actorID = strings.TrimSpace(actorID)
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
	if !actor.Active {
		return nil, fmt.Errorf("%w: agent %q is inactive", domain.ErrInvalidActor, actorID)
	}

	return actor, nil
}

func (s *DispositionService) observeDecision(outcome string, d *domain.Decision) {
	if d == nil {
		return
	}

	if d.Terminal {
		s.logger.Debug("disposition ignored for closed call",
			zap.String("callId", d.CallID),
		)
		return
	}

	s.metrics.IncDisposition(outcome, d.NewStage.String())
	if d.AutoEscalated {
		s.metrics.IncAutoEscalation()
		s.logger.Info("call auto-escalated to closure",
			zap.String("callId", d.CallID),
			zap.String("callRef", d.CallRef),
			zap.Int("attemptsUsed", d.AttemptsUsed),
		)
		return
	}

	if d.NewStage != d.PreviousStage {
		s.logger.Info("call advanced",
			zap.String("callId", d.CallID),
			zap.String("from", d.PreviousStage.String()),
			zap.String("to", d.NewStage.String()),
		)
	}
}

// buildDispositionUpdate applies the stage-entry timestamp policy: entering
// demo, proposal, or negotiation stamps "now" unless the caller supplied a
// date; follow_up is stamped only from a supplied commitment date; a stage
// timestamp already on the record is never rewound, timestamps of stages the
// call has left are carried as-is.
func buildDispositionUpdate(
	call *domain.Call,
	d *domain.Decision,
	notes *string,
	dates StageDates,
	now time.Time,
) repository.DispositionUpdate {
	u := repository.DispositionUpdate{
		Stage:           d.NewStage,
		Disposition:     d.Disposition,
		Notes:           notes,
		LastContactedAt: now,
		FollowUpAt:      call.FollowUpAt,
		DemoAt:          call.DemoAt,
		ProposalAt:      call.ProposalAt,
		NegotiationAt:   call.NegotiationAt,
	}

	entered := d.NewStage != d.PreviousStage

	stamp := func(supplied, stored *time.Time) *time.Time {
		switch {
		case supplied != nil:
			return supplied
		case entered:
			t := now
			return &t
		default:
			return stored
		}
	}

	switch d.NewStage {
	case domain.StageFollowUp:
		if dates.FollowUpAt != nil {
			u.FollowUpAt = dates.FollowUpAt
		}
	case domain.StageDemo:
		u.DemoAt = stamp(dates.DemoAt, call.DemoAt)
	case domain.StageProposal:
		u.ProposalAt = stamp(dates.ProposalAt, call.ProposalAt)
	case domain.StageNegotiation:
		u.NegotiationAt = stamp(dates.NegotiationAt, call.NegotiationAt)
	}

	return u
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
