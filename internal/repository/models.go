package repository

import (
	"time"

	"github.com/kursadbilgin/funnel-engine/internal/domain"
)

// CallModel is the persistence model for the calls table.
type CallModel struct {
	ID         string          `gorm:"type:uuid;primaryKey"`
	CallRef    string          `gorm:"type:varchar(64);not null"`
	DatabaseID *string         `gorm:"type:uuid"`
	LeadType   domain.LeadType `gorm:"type:varchar(20);not null"`

	ClientName      string  `gorm:"type:varchar(255);not null"`
	PhoneNumber     string  `gorm:"type:varchar(20);not null"`
	Email           *string `gorm:"type:varchar(255)"`
	Department      *string `gorm:"type:varchar(100)"`
	City            *string `gorm:"type:varchar(100)"`
	CompanyName     *string `gorm:"type:varchar(255)"`
	ContactPerson   *string `gorm:"type:varchar(255)"`
	Designation     *string `gorm:"type:varchar(100)"`
	InstitutionName *string `gorm:"type:varchar(255)"`

	AssignedTo  *string      `gorm:"type:uuid"`
	Stage       domain.Stage `gorm:"type:varchar(20);not null"`
	Disposition *string      `gorm:"type:varchar(100)"`
	Notes       *string      `gorm:"type:text"`

	LastContactedAt *time.Time
	FollowUpAt      *time.Time
	DemoAt          *time.Time
	ProposalAt      *time.Time
	NegotiationAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CallModel) TableName() string {
	return "calls"
}

// OutcomeCountModel is the persistence model for outcome_counts. The unique
// index on (call_id, group_label) carries the ledger's at-most-one invariant.
type OutcomeCountModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	CallID     string `gorm:"type:uuid;not null"`
	GroupLabel string `gorm:"type:varchar(50);not null"`
	Count      int    `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (OutcomeCountModel) TableName() string {
	return "outcome_counts"
}

// CallEventModel is the persistence model for call_events.
type CallEventModel struct {
	ID          string  `gorm:"type:uuid;primaryKey"`
	CallID      string  `gorm:"type:uuid;not null"`
	ActorID     string  `gorm:"type:uuid;not null"`
	Disposition string  `gorm:"type:varchar(100);not null"`
	Notes       *string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (CallEventModel) TableName() string {
	return "call_events"
}

// CommunicationModel is the persistence model for communications.
type CommunicationModel struct {
	ID         string            `gorm:"type:uuid;primaryKey"`
	CallID     string            `gorm:"type:uuid;not null"`
	ActorID    string            `gorm:"type:uuid;not null"`
	Kind       domain.CommKind   `gorm:"type:varchar(10);not null"`
	Subject    *string           `gorm:"type:varchar(255)"`
	Message    string            `gorm:"type:text;not null"`
	TemplateID *string           `gorm:"type:uuid"`
	Status     domain.CommStatus `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}

func (CommunicationModel) TableName() string {
	return "communications"
}

// AgentModel is the persistence model for agents.
type AgentModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	EmpID     string `gorm:"type:varchar(50);not null"`
	FullName  string `gorm:"type:varchar(255);not null"`
	Email     string `gorm:"type:varchar(255);not null"`
	Role      string `gorm:"type:varchar(50);not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (AgentModel) TableName() string {
	return "agents"
}

func callModelFromDomain(c *domain.Call) *CallModel {
	if c == nil {
		return nil
	}

	return &CallModel{
		ID:              c.ID,
		CallRef:         c.CallRef,
		DatabaseID:      c.DatabaseID,
		LeadType:        c.LeadType,
		ClientName:      c.ClientName,
		PhoneNumber:     c.PhoneNumber,
		Email:           c.Email,
		Department:      c.Department,
		City:            c.City,
		CompanyName:     c.CompanyName,
		ContactPerson:   c.ContactPerson,
		Designation:     c.Designation,
		InstitutionName: c.InstitutionName,
		AssignedTo:      c.AssignedTo,
		Stage:           c.Stage,
		Disposition:     c.Disposition,
		Notes:           c.Notes,
		LastContactedAt: c.LastContactedAt,
		FollowUpAt:      c.FollowUpAt,
		DemoAt:          c.DemoAt,
		ProposalAt:      c.ProposalAt,
		NegotiationAt:   c.NegotiationAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func callModelToDomain(m *CallModel) *domain.Call {
	if m == nil {
		return nil
	}

	return &domain.Call{
		ID:              m.ID,
		CallRef:         m.CallRef,
		DatabaseID:      m.DatabaseID,
		LeadType:        m.LeadType,
		ClientName:      m.ClientName,
		PhoneNumber:     m.PhoneNumber,
		Email:           m.Email,
		Department:      m.Department,
		City:            m.City,
		CompanyName:     m.CompanyName,
		ContactPerson:   m.ContactPerson,
		Designation:     m.Designation,
		InstitutionName: m.InstitutionName,
		AssignedTo:      m.AssignedTo,
		Stage:           m.Stage,
		Disposition:     m.Disposition,
		Notes:           m.Notes,
		LastContactedAt: m.LastContactedAt,
		FollowUpAt:      m.FollowUpAt,
		DemoAt:          m.DemoAt,
		ProposalAt:      m.ProposalAt,
		NegotiationAt:   m.NegotiationAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func eventModelFromDomain(e *domain.CallEvent) *CallEventModel {
	if e == nil {
		return nil
	}

	return &CallEventModel{
		ID:          e.ID,
		CallID:      e.CallID,
		ActorID:     e.ActorID,
		Disposition: e.Disposition,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

func eventModelToDomain(m *CallEventModel) *domain.CallEvent {
	if m == nil {
		return nil
	}

	return &domain.CallEvent{
		ID:          m.ID,
		CallID:      m.CallID,
		ActorID:     m.ActorID,
		Disposition: m.Disposition,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
	}
}

func communicationModelFromDomain(c *domain.Communication) *CommunicationModel {
	if c == nil {
		return nil
	}

	return &CommunicationModel{
		ID:         c.ID,
		CallID:     c.CallID,
		ActorID:    c.ActorID,
		Kind:       c.Kind,
		Subject:    c.Subject,
		Message:    c.Message,
		TemplateID: c.TemplateID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
	}
}

func communicationModelToDomain(m *CommunicationModel) *domain.Communication {
	if m == nil {
		return nil
	}

	return &domain.Communication{
		ID:         m.ID,
		CallID:     m.CallID,
		ActorID:    m.ActorID,
		Kind:       m.Kind,
		Subject:    m.Subject,
		Message:    m.Message,
		TemplateID: m.TemplateID,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
	}
}

func agentModelToDomain(m *AgentModel) *domain.Agent {
	if m == nil {
		return nil
	}

	return &domain.Agent{
		ID:        m.ID,
		EmpID:     m.EmpID,
		FullName:  m.FullName,
		Email:     m.Email,
		Role:      m.Role,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}
