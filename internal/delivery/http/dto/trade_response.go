package dto

import (
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/domain/trade"
)

type TradeResponse struct {
	ID              uuid.UUID  `json:"id"`
	InitiatorID     uuid.UUID  `json:"initiator_id"`
	ReceiverID      uuid.UUID  `json:"receiver_id"`
	OfferedSkills   []string   `json:"offered_skills"`
	RequestedSkills []string   `json:"requested_skills"`
	Message         string     `json:"message,omitempty"`
	CreditStake     int        `json:"credit_stake"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewTradeResponse(t trade.Request) TradeResponse {
	return TradeResponse{
		ID:              t.ID,
		InitiatorID:     t.InitiatorID,
		ReceiverID:      t.ReceiverID,
		OfferedSkills:   t.OfferedSkills,
		RequestedSkills: t.RequestedSkills,
		Message:         t.Message,
		CreditStake:     t.CreditStake,
		ScheduledAt:     t.ScheduledAt,
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func NewTradeListResponse(trades []trade.Request) []TradeResponse {
	out := make([]TradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, NewTradeResponse(t))
	}
	return out
}
