package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
)

const (
	pointsPerSkillMatch = 30
	ratingWeight        = 10
	localityBonus       = 10
)

const (
	ReasonExcellent = "excellent - multiple complementary skills"
	ReasonGreat     = "great - strong compatibility"
	ReasonGood      = "good potential"
	ReasonShared    = "some shared interest"
)

type SkillFacet struct {
	Name        string
	Proficiency int
}

// Profile is the scoring view of a user: external display rating,
// location tag and the current offered/wanted skill facets.
type Profile struct {
	UserID   uuid.UUID
	Rating   float64
	Location string
	Offered  []SkillFacet
	Wanted   []SkillFacet
}

type PotentialTrade struct {
	OfferedSkill string
	WantedSkill  string
	Proficiency  int
}

type Result struct {
	Score           int
	SharedInterests []string
	PotentialTrades []PotentialTrade
	Reason          string
}

// Score rates how well candidate complements subject. Pure and
// deterministic: identical inputs always produce identical output,
// including potential-trade ordering.
func Score(subject, candidate Profile) Result {
	subjectWants := facetsByName(subject.Wanted)
	subjectOffers := facetsByName(subject.Offered)

	total := 0
	trades := make([]PotentialTrade, 0, 4)
	tradedOffers := make(map[string]struct{}, 4)
	shared := make(map[string]string, 4)

	// Candidate teaches something the subject wants to learn.
	for _, offered := range candidate.Offered {
		key := skill.NormalizeName(offered.Name)
		wanted, ok := subjectWants[key]
		if !ok {
			continue
		}
		total += pointsPerSkillMatch
		shared[key] = wanted.Name
		if _, dup := tradedOffers[key]; !dup {
			tradedOffers[key] = struct{}{}
			trades = append(trades, PotentialTrade{
				OfferedSkill: offered.Name,
				WantedSkill:  wanted.Name,
				Proficiency:  offered.Proficiency,
			})
		}
	}

	// Candidate wants something the subject can teach. An offered-skill
	// name already recorded above is not recorded twice.
	for _, wanted := range candidate.Wanted {
		key := skill.NormalizeName(wanted.Name)
		offered, ok := subjectOffers[key]
		if !ok {
			continue
		}
		total += pointsPerSkillMatch
		shared[key] = offered.Name
		if _, dup := tradedOffers[key]; !dup {
			tradedOffers[key] = struct{}{}
			trades = append(trades, PotentialTrade{
				OfferedSkill: offered.Name,
				WantedSkill:  wanted.Name,
				Proficiency:  offered.Proficiency,
			})
		}
	}

	total += int(math.Round(candidate.Rating * ratingWeight))

	if !strings.EqualFold(strings.TrimSpace(candidate.Location), "Remote") {
		total += localityBonus
	}

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	interests := make([]string, 0, len(shared))
	for _, name := range shared {
		interests = append(interests, name)
	}
	sort.Strings(interests)

	return Result{
		Score:           total,
		SharedInterests: interests,
		PotentialTrades: trades,
		Reason:          reasonFor(total),
	}
}

// reasonFor maps a score to its fixed qualitative band.
func reasonFor(score int) string {
	switch {
	case score >= 80:
		return ReasonExcellent
	case score >= 60:
		return ReasonGreat
	case score >= 40:
		return ReasonGood
	default:
		return ReasonShared
	}
}

// facetsByName keeps the first facet seen per normalized name so that
// duplicate entries in a profile cannot shift the output.
func facetsByName(facets []SkillFacet) map[string]SkillFacet {
	out := make(map[string]SkillFacet, len(facets))
	for _, f := range facets {
		key := skill.NormalizeName(f.Name)
		if key == "" {
			continue
		}
		if _, ok := out[key]; !ok {
			out[key] = f
		}
	}
	return out
}
