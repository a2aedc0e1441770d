package usecase

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/google/uuid"

	"skilltrade/internal/domain/matching"
	"skilltrade/internal/domain/skill"
	"skilltrade/internal/domain/user"
	"skilltrade/internal/events"
	"skilltrade/internal/repository"
	"skilltrade/internal/skillindex"
)

type MatchUsecase interface {
	RankMatches(ctx context.Context, userID uuid.UUID) ([]matching.Match, error)
}

type Match struct {
	users  repository.UserRepository
	index  *skillindex.Index
	broker *events.Broker
	logger *log.Logger
}

func NewMatchUsecase(users repository.UserRepository, index *skillindex.Index, broker *events.Broker, logger *log.Logger) *Match {
	if logger == nil {
		logger = log.Default()
	}
	return &Match{users: users, index: index, broker: broker, logger: logger}
}

// RankMatches builds the candidate pool from the index reverse lookups
// (everyone wanting something the subject offers, plus everyone
// offering something the subject wants), scores it and returns the
// ranked list. Matches are computed fresh on every call; the index may
// have changed since the last one.
func (u *Match) RankMatches(ctx context.Context, userID uuid.UUID) ([]matching.Match, error) {
	if userID == uuid.Nil {
		return nil, ErrUserNotFound
	}

	subject, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrInternal
	}

	offered, wanted := u.index.SkillsOf(userID)

	pool := make(map[uuid.UUID]struct{})
	for _, s := range offered {
		for _, id := range u.index.CandidatesWanting(s.Name) {
			pool[id] = struct{}{}
		}
	}
	for _, s := range wanted {
		for _, id := range u.index.CandidatesOffering(s.Name) {
			pool[id] = struct{}{}
		}
	}
	delete(pool, userID)

	if len(pool) == 0 {
		return []matching.Match{}, nil
	}

	ids := make([]uuid.UUID, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	candidates, err := u.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, ErrInternal
	}

	profiles := make([]matching.Profile, 0, len(candidates))
	for _, c := range candidates {
		profiles = append(profiles, u.profileOf(c))
	}

	ranked := matching.Rank(u.profileOf(subject), profiles)

	if u.broker != nil && len(ranked) > 0 {
		payload := events.MatchComputedPayload{
			CandidateCount: len(ranked),
			TopScore:       ranked[0].Score,
		}
		if _, err := u.broker.Publish(ctx, userID, events.TypeMatchComputed, payload); err != nil {
			u.logger.Printf("match | event publish failed user=%s: %v", userID, err)
		}
	}

	return ranked, nil
}

func (u *Match) profileOf(usr user.User) matching.Profile {
	offered, wanted := u.index.SkillsOf(usr.ID)
	return matching.Profile{
		UserID:   usr.ID,
		Rating:   usr.Rating,
		Location: usr.Location,
		Offered:  facets(offered),
		Wanted:   facets(wanted),
	}
}

func facets(skills []skill.Skill) []matching.SkillFacet {
	out := make([]matching.SkillFacet, 0, len(skills))
	for _, s := range skills {
		out = append(out, matching.SkillFacet{Name: s.Name, Proficiency: s.Proficiency})
	}
	return out
}
