package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"github.com/kursadbilgin/funnel-engine/internal/repository"
	"go.uber.org/zap"
)

const defaultMaxImportSize = 5000

// CallService is the thin persistence surface around the funnel: import,
// lookup, reporting, and hard removal. It never moves a call between stages.
type CallService struct {
	calls         repository.CallRepository
	attempts      repository.AttemptRepository
	history       repository.HistoryRepository
	txm           repository.TxManager
	logger        *zap.Logger
	maxImportSize int
}

// FunnelSummary aggregates pipeline state for reporting.
type FunnelSummary struct {
	TotalCalls     int
	StageCounts    []StageCount
	ConnectedCalls int
	ConvertedCalls int
	ConversionRate float64
}

type StageCount struct {
	Stage domain.Stage
	Count int
}

func NewCallService(
	calls repository.CallRepository,
	attempts repository.AttemptRepository,
	history repository.HistoryRepository,
	txm repository.TxManager,
	maxImportSize int,
	logger *zap.Logger,
) (*CallService, error) {
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if maxImportSize < 1 {
		maxImportSize = defaultMaxImportSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CallService{
		calls:         calls,
		attempts:      attempts,
		history:       history,
		txm:           txm,
		logger:        logger,
		maxImportSize: maxImportSize,
	}, nil
}

func (s *CallService) Create(ctx context.Context, call *domain.Call) (*domain.Call, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := prepareCallForCreate(call); err != nil {
		return nil, err
	}

	if err := s.calls.Create(ctx, call); err != nil {
		return nil, err
	}
	return call, nil
}

// BulkImport validates and inserts a batch of fresh contacts from one source
// database.
func (s *CallService) BulkImport(
	ctx context.Context,
	databaseID *string,
	calls []domain.Call,
) ([]domain.Call, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(calls) == 0 {
		return nil, fmt.Errorf("%w: import must include at least one call", domain.ErrValidation)
	}
	if len(calls) > s.maxImportSize {
		return nil, fmt.Errorf("%w: import size exceeds %d", domain.ErrValidation, s.maxImportSize)
	}

	created := make([]domain.Call, len(calls))
	createdPtrs := make([]*domain.Call, len(calls))
	for i := range calls {
		created[i] = calls[i]
		if databaseID != nil {
			created[i].DatabaseID = databaseID
		}
		if err := prepareCallForCreate(&created[i]); err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		createdPtrs[i] = &created[i]
	}

	if err := s.calls.CreateBatch(ctx, createdPtrs); err != nil {
		return nil, err
	}

	s.logger.Info("calls imported",
		zap.Int("count", len(created)),
	)

	return created, nil
}

func (s *CallService) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}
	return s.calls.GetByID(ctx, strings.TrimSpace(id))
}

func (s *CallService) List(
	ctx context.Context,
	params repository.ListParams,
) ([]domain.Call, int64, error) {
	return s.calls.List(ctx, params)
}

// AttemptCounts exposes the ledger's read side for caller display.
func (s *CallService) AttemptCounts(ctx context.Context, callID string) (map[string]int, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}

	if _, err := s.calls.GetByID(ctx, callID); err != nil {
		return nil, err
	}
	return s.attempts.Read(ctx, callID)
}

func (s *CallService) History(ctx context.Context, callID string) ([]domain.CallEvent, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}

	if _, err := s.calls.GetByID(ctx, callID); err != nil {
		return nil, err
	}
	return s.history.ListByCall(ctx, callID)
}

// GetFunnelSummary reports per-stage counts plus the conversion figures the
// original dashboards derive from them.
func (s *CallService) GetFunnelSummary(ctx context.Context) (*FunnelSummary, error) {
	counts, err := s.calls.StageSummary(ctx)
	if err != nil {
		return nil, err
	}

	summary := &FunnelSummary{
		StageCounts: make([]StageCount, 0, len(counts)),
	}
	for _, c := range counts {
		summary.StageCounts = append(summary.StageCounts, StageCount{Stage: c.Stage, Count: c.Count})
		summary.TotalCalls += c.Count

		switch c.Stage {
		case domain.StageClosure:
			summary.ConnectedCalls += c.Count
		case domain.StageConverted:
			summary.ConnectedCalls += c.Count
			summary.ConvertedCalls += c.Count
		}
	}

	if summary.ConnectedCalls > 0 {
		summary.ConversionRate = float64(summary.ConvertedCalls) / float64(summary.ConnectedCalls) * 100
	}

	return summary, nil
}

// Purge hard-deletes a call and every dependent row. This is the external
// removal policy, not part of the escalation path.
func (s *CallService) Purge(ctx context.Context, callID string) error {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}

	return s.txm.InTx(ctx, func(r repository.Repos) error {
		return r.Calls.Purge(ctx, callID)
	})
}

func prepareCallForCreate(c *domain.Call) error {
	if c == nil {
		return fmt.Errorf("%w: call is required", domain.ErrValidation)
	}

	c.ClientName = strings.TrimSpace(c.ClientName)
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)

	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	// The external reference is immutable once set at ingestion.
	c.CallRef = strings.TrimSpace(c.CallRef)
	if c.CallRef == "" {
		c.CallRef = fmt.Sprintf("CALL-%s", strings.ToUpper(c.ID[:8]))
	}

	c.Stage = domain.StageFresh
	c.Disposition = nil
	c.Notes = normalizeOptionalString(c.Notes)
	c.LastContactedAt = nil
	c.FollowUpAt = nil
	c.DemoAt = nil
	c.ProposalAt = nil
	c.NegotiationAt = nil

	return c.Validate()
}

func normalizeOptionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
