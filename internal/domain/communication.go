package domain

import (
	"fmt"
	"strings"
	"time"
)

// CommKind is the outbound communication channel.
type CommKind string

const (
	CommWhatsApp CommKind = "whatsapp"
	CommEmail    CommKind = "email"
)

func (k CommKind) String() string { return string(k) }

func (k CommKind) IsValid() bool {
	switch k {
	case CommWhatsApp, CommEmail:
		return true
	}
	return false
}

func ParseCommKindFromString(s string) (CommKind, error) {
	k := CommKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid communication kind %q", ErrValidation, s)
	}
	return k, nil
}

// CommStatus is the recorded send state. Delivery tracking is out of scope;
// everything the engine logs is "sent".
type CommStatus string

const CommStatusSent CommStatus = "sent"

// Communication is a fire-and-forget outbound message log entry. It has no
// pipeline dependency: the funnel never reads these rows.
type Communication struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	CallID     string     `gorm:"type:uuid;not null"`
	ActorID    string     `gorm:"type:uuid;not null"`
	Kind       CommKind   `gorm:"type:varchar(10);not null"`
	Subject    *string    `gorm:"type:varchar(255)"`
	Message    string     `gorm:"type:text;not null"`
	TemplateID *string    `gorm:"type:uuid"`
	Status     CommStatus `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}

func (c *Communication) Validate() error {
	if !c.Kind.IsValid() {
		return fmt.Errorf("%w: invalid communication kind %q", ErrValidation, c.Kind)
	}
	if strings.TrimSpace(c.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if c.Kind == CommEmail && !hasValue(c.Subject) {
		return fmt.Errorf("%w: subject is required for email", ErrValidation)
	}
	return nil
}
