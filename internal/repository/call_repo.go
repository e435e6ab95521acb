package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListParams struct {
	Stage      *domain.Stage
	AssignedTo *string
	DatabaseID *string
	Page       int
	PageSize   int
}

type StageCount struct {
	Stage domain.Stage `gorm:"column:stage"`
	Count int          `gorm:"column:count"`
}

// DispositionUpdate is the full set of fields one disposition report writes.
// Stage timestamps are written as given: a nil pointer clears the column, so
// the caller decides what is preserved and what is dropped.
type DispositionUpdate struct {
	Stage           domain.Stage
	Disposition     string
	Notes           *string
	LastContactedAt time.Time
	FollowUpAt      *time.Time
	DemoAt          *time.Time
	ProposalAt      *time.Time
	NegotiationAt   *time.Time
}

type CallRepository interface {
	Create(ctx context.Context, c *domain.Call) error
	CreateBatch(ctx context.Context, calls []*domain.Call) error
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	// LockByID reads a call under a row lock so concurrent disposition
	// reports for the same call serialize inside the transaction.
	LockByID(ctx context.Context, id string) (*domain.Call, error)
	List(ctx context.Context, params ListParams) ([]domain.Call, int64, error)
	ApplyDisposition(ctx context.Context, id string, u DispositionUpdate) error
	AssignBulk(ctx context.Context, agentID string, callIDs []string) (int64, error)
	StageSummary(ctx context.Context) ([]StageCount, error)
	// Purge removes a call together with its ledger entries, history, and
	// communications. Run inside a transaction.
	Purge(ctx context.Context, id string) error
}

type GormCallRepo struct {
	db *gorm.DB
}

func NewGormCallRepo(db *gorm.DB) *GormCallRepo {
	return &GormCallRepo{db: db}
}

func (r *GormCallRepo) Create(ctx context.Context, c *domain.Call) error {
	model := callModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *callModelToDomain(model)
	}
	return nil
}

func (r *GormCallRepo) CreateBatch(ctx context.Context, calls []*domain.Call) error {
	models := make([]CallModel, 0, len(calls))
	modelIndexes := make([]int, 0, len(calls))
	for i, c := range calls {
		model := callModelFromDomain(c)
		if model != nil {
			models = append(models, *model)
			modelIndexes = append(modelIndexes, i)
		}
	}

	if len(models) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, 100).Error; err != nil {
		return err
	}

	for i := range models {
		idx := modelIndexes[i]
		if idx < len(calls) && calls[idx] != nil {
			*calls[idx] = *callModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormCallRepo) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	var model CallModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callModelToDomain(&model), nil
}

func (r *GormCallRepo) LockByID(ctx context.Context, id string) (*domain.Call, error) {
	var model CallModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callModelToDomain(&model), nil
}

func (r *GormCallRepo) List(ctx context.Context, params ListParams) ([]domain.Call, int64, error) {
	query := r.db.WithContext(ctx).Model(&CallModel{})

	if params.Stage != nil {
		query = query.Where("stage = ?", *params.Stage)
	}
	if params.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *params.AssignedTo)
	}
	if params.DatabaseID != nil {
		query = query.Where("database_id = ?", *params.DatabaseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []CallModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	calls := make([]domain.Call, 0, len(models))
	for i := range models {
		calls = append(calls, *callModelToDomain(&models[i]))
	}

	return calls, total, nil
}

func (r *GormCallRepo) ApplyDisposition(ctx context.Context, id string, u DispositionUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stage":             u.Stage,
			"disposition":       u.Disposition,
			"notes":             u.Notes,
			"last_contacted_at": u.LastContactedAt,
			"follow_up_at":      u.FollowUpAt,
			"demo_at":           u.DemoAt,
			"proposal_at":       u.ProposalAt,
			"negotiation_at":    u.NegotiationAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCallRepo) AssignBulk(ctx context.Context, agentID string, callIDs []string) (int64, error) {
	if len(callIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("id IN ?", callIDs).
		Update("assigned_to", agentID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormCallRepo) StageSummary(ctx context.Context) ([]StageCount, error) {
	var summaries []StageCount
	err := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *GormCallRepo) Purge(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("call_id = ?", id).Delete(&OutcomeCountModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("call_id = ?", id).Delete(&CallEventModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("call_id = ?", id).Delete(&CommunicationModel{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", id).Delete(&CallModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
