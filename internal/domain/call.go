package domain

import (
	"fmt"
	"strings"
	"time"
)

// Stage represents a call's position in the sales funnel.
type Stage string

const (
	StageFresh       Stage = "fresh"
	StageFollowUp    Stage = "follow_up"
	StageDemo        Stage = "demo"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosure     Stage = "closure"
	StageConverted   Stage = "converted"
)

func (s Stage) String() string { return string(s) }

func (s Stage) IsValid() bool {
	switch s {
	case StageFresh, StageFollowUp, StageDemo, StageProposal, StageNegotiation, StageClosure, StageConverted:
		return true
	}
	return false
}

// Terminal reports whether the funnel engine refuses further mutation.
// Only closure short-circuits; a converted call still records dispositions.
func (s Stage) Terminal() bool {
	return s == StageClosure
}

// funnelOrder positions working stages along the funnel. Closure and
// converted sit outside the ordering; calls move into them sideways.
var funnelOrder = map[Stage]int{
	StageFresh:       0,
	StageFollowUp:    1,
	StageDemo:        2,
	StageProposal:    3,
	StageNegotiation: 4,
}

// Before reports whether s comes strictly earlier in the funnel than other.
// Non-working stages are never ordered.
func (s Stage) Before(other Stage) bool {
	a, okA := funnelOrder[s]
	b, okB := funnelOrder[other]
	return okA && okB && a < b
}

func ParseStageFromString(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid stage %q", ErrValidation, s)
	}
	return st, nil
}

// LeadType classifies the required attribute set of a call record.
type LeadType string

const (
	LeadCorporate   LeadType = "corporate"
	LeadInstitution LeadType = "institution"
)

func (t LeadType) String() string { return string(t) }

func (t LeadType) IsValid() bool {
	switch t {
	case LeadCorporate, LeadInstitution:
		return true
	}
	return false
}

func ParseLeadTypeFromString(s string) (LeadType, error) {
	t := LeadType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid lead type %q", ErrValidation, s)
	}
	return t, nil
}

// Call is the core domain entity: one contact record moving through the funnel.
type Call struct {
	ID         string   `gorm:"type:uuid;primaryKey"`
	CallRef    string   `gorm:"type:varchar(64);not null"`
	DatabaseID *string  `gorm:"type:uuid"`
	LeadType   LeadType `gorm:"type:varchar(20);not null"`

	ClientName      string  `gorm:"type:varchar(255);not null"`
	PhoneNumber     string  `gorm:"type:varchar(20);not null"`
	Email           *string `gorm:"type:varchar(255)"`
	Department      *string `gorm:"type:varchar(100)"`
	City            *string `gorm:"type:varchar(100)"`
	CompanyName     *string `gorm:"type:varchar(255)"`
	ContactPerson   *string `gorm:"type:varchar(255)"`
	Designation     *string `gorm:"type:varchar(100)"`
	InstitutionName *string `gorm:"type:varchar(255)"`

	AssignedTo  *string `gorm:"type:uuid"`
	Stage       Stage   `gorm:"type:varchar(20);not null"`
	Disposition *string `gorm:"type:varchar(100)"`
	Notes       *string `gorm:"type:text"`

	LastContactedAt *time.Time
	FollowUpAt      *time.Time
	DemoAt          *time.Time
	ProposalAt      *time.Time
	NegotiationAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Call) Validate() error {
	if strings.TrimSpace(c.ClientName) == "" {
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if !c.LeadType.IsValid() {
		return fmt.Errorf("%w: invalid lead type %q", ErrValidation, c.LeadType)
	}
	if !c.Stage.IsValid() {
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, c.Stage)
	}

	switch c.LeadType {
	case LeadCorporate:
		if !hasValue(c.CompanyName) {
			return fmt.Errorf("%w: company name is required for corporate leads", ErrValidation)
		}
		if !hasValue(c.ContactPerson) {
			return fmt.Errorf("%w: contact person is required for corporate leads", ErrValidation)
		}
	case LeadInstitution:
		if !hasValue(c.InstitutionName) {
			return fmt.Errorf("%w: institution name is required for institution leads", ErrValidation)
		}
	}

	return nil
}

func hasValue(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
