package trade

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusProposed  Status = "proposed"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the full lifecycle graph. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusProposed:  {StatusAccepted, StatusDeclined},
	StatusAccepted:  {StatusScheduled, StatusCancelled, StatusCompleted},
	StatusScheduled: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusAccepted, StatusDeclined, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	switch s {
	case StatusDeclined, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Request struct {
	ID              uuid.UUID
	InitiatorID     uuid.UUID
	ReceiverID      uuid.UUID
	OfferedSkills   []string
	RequestedSkills []string
	Message         string
	CreditStake     int
	ScheduledAt     *time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Party reports whether userID is one of the two sides of the trade.
func (r Request) Party(userID uuid.UUID) bool {
	return userID == r.InitiatorID || userID == r.ReceiverID
}

// Counterpart returns the other side of the trade relative to userID.
// Returns uuid.Nil when userID is not a party.
func (r Request) Counterpart(userID uuid.UUID) uuid.UUID {
	switch userID {
	case r.InitiatorID:
		return r.ReceiverID
	case r.ReceiverID:
		return r.InitiatorID
	}
	return uuid.Nil
}
