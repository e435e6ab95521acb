package domain

import "time"

// Decision is the result of applying one reported outcome to a call.
type Decision struct {
	CallID        string
	CallRef       string
	PreviousStage Stage
	NewStage      Stage
	Disposition   string

	// Terminal means the call was already closed and nothing was written.
	Terminal bool

	// AutoEscalated means the ringing-group budget forced the closure.
	AutoEscalated bool

	// AttemptsUsed is the ringing-group count after this report, zero when
	// the outcome is not tracked.
	AttemptsUsed      int
	AttemptsRemaining int

	OccurredAt time.Time
}
