package dto

import (
	"github.com/google/uuid"

	"skilltrade/internal/domain/matching"
)

type PotentialTradeResponse struct {
	OfferedSkill string `json:"offered_skill"`
	WantedSkill  string `json:"wanted_skill"`
	Proficiency  int    `json:"proficiency"`
}

type MatchResponse struct {
	CandidateID     uuid.UUID                `json:"candidate_id"`
	CandidateRating float64                  `json:"candidate_rating"`
	Score           int                      `json:"score"`
	SharedInterests []string                 `json:"shared_interests"`
	PotentialTrades []PotentialTradeResponse `json:"potential_trades"`
	Reason          string                   `json:"reason"`
}

func NewMatchListResponse(matches []matching.Match) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		trades := make([]PotentialTradeResponse, 0, len(m.PotentialTrades))
		for _, pt := range m.PotentialTrades {
			trades = append(trades, PotentialTradeResponse{
				OfferedSkill: pt.OfferedSkill,
				WantedSkill:  pt.WantedSkill,
				Proficiency:  pt.Proficiency,
			})
		}
		out = append(out, MatchResponse{
			CandidateID:     m.CandidateID,
			CandidateRating: m.CandidateRating,
			Score:           m.Score,
			SharedInterests: m.SharedInterests,
			PotentialTrades: trades,
			Reason:          m.Reason,
		})
	}
	return out
}
