package matching

import (
	"sort"

	"github.com/google/uuid"
)

// MinScore is the noise floor: candidates scoring at or below it share
// too little with the subject to be worth surfacing.
const MinScore = 20

type Match struct {
	CandidateID     uuid.UUID
	CandidateRating float64
	Score           int
	SharedInterests []string
	PotentialTrades []PotentialTrade
	Reason          string
}

// Rank scores every candidate against subject, drops everything at or
// below MinScore and orders the rest by score descending. Ties break by
// candidate rating descending, then candidate id ascending, so the
// ordering is reproducible. An empty pool yields an empty slice.
func Rank(subject Profile, candidates []Profile) []Match {
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID == subject.UserID {
			continue
		}
		res := Score(subject, c)
		if res.Score <= MinScore {
			continue
		}
		out = append(out, Match{
			CandidateID:     c.UserID,
			CandidateRating: c.Rating,
			Score:           res.Score,
			SharedInterests: res.SharedInterests,
			PotentialTrades: res.PotentialTrades,
			Reason:          res.Reason,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].CandidateRating != out[j].CandidateRating {
			return out[i].CandidateRating > out[j].CandidateRating
		}
		return out[i].CandidateID.String() < out[j].CandidateID.String()
	})

	return out
}
