// Package events fans lifecycle and match events out to per-user
// subscriber channels with replayable sequence numbers.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeMatchComputed     Type = "match_computed"
	TypeTradeProposed     Type = "trade_proposed"
	TypeTradeStateChanged Type = "trade_state_changed"

	// TypeGap tells a subscriber that events were dropped from its
	// buffer and it should reconnect with its last seen sequence.
	TypeGap Type = "gap"
)

// Event is one delivery unit. Seq increases monotonically per user;
// there is no ordering guarantee across users. Duplicate delivery of
// the same Seq is possible and must be treated as a no-op by consumers.
type Event struct {
	Seq        uint64          `json:"seq"`
	UserID     uuid.UUID       `json:"user_id"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// GapPayload describes the dropped range for a TypeGap event.
type GapPayload struct {
	MissedFrom uint64 `json:"missed_from"`
	MissedTo   uint64 `json:"missed_to"`
}

type MatchComputedPayload struct {
	CandidateCount int `json:"candidate_count"`
	TopScore       int `json:"top_score"`
}

type TradeProposedPayload struct {
	TradeID     uuid.UUID `json:"trade_id"`
	InitiatorID uuid.UUID `json:"initiator_id"`
	CreditStake int       `json:"credit_stake"`
	Message     string    `json:"message,omitempty"`
}

type TradeStateChangedPayload struct {
	TradeID uuid.UUID `json:"trade_id"`
	Status  string    `json:"status"`
	ActorID uuid.UUID `json:"actor_id"`
}
