package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
	"skilltrade/internal/domain/user"
	"skilltrade/internal/events"
	"skilltrade/internal/skillindex"
)

func indexSkill(ix *skillindex.Index, userID uuid.UUID, name string, level int, dir skill.Direction) {
	ix.Upsert(userID, skill.Skill{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Proficiency: level,
		Direction:   dir,
	})
}

func TestMatch_RankMatchesFromIndexLookups(t *testing.T) {
	subject := user.User{ID: uuid.New(), Rating: 3, Location: "Berlin"}
	partner := user.User{ID: uuid.New(), Rating: 5, Location: "Berlin"}
	noise := user.User{ID: uuid.New(), Rating: 4, Location: "Madrid"}
	users := newMemUserRepo(subject, partner, noise)

	ix := skillindex.New()
	indexSkill(ix, subject.ID, "React", 4, skill.DirectionOffered)
	indexSkill(ix, subject.ID, "Spanish", 1, skill.DirectionWanted)
	// partner is a perfect complement.
	indexSkill(ix, partner.ID, "Spanish", 5, skill.DirectionOffered)
	indexSkill(ix, partner.ID, "React", 1, skill.DirectionWanted)
	// noise shares nothing with the subject; never enters the pool.
	indexSkill(ix, noise.ID, "Juggling", 3, skill.DirectionOffered)

	uc := NewMatchUsecase(users, ix, nil, quietLogger())

	out, err := uc.RankMatches(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
	if out[0].CandidateID != partner.ID {
		t.Fatalf("expected partner as top match")
	}
	// 30 + 30 + 50 + 10 clamped to 100.
	if out[0].Score != 100 {
		t.Fatalf("expected score 100, got %d", out[0].Score)
	}
}

func TestMatch_EmptyPoolIsNotAnError(t *testing.T) {
	subject := user.User{ID: uuid.New(), Rating: 5}
	users := newMemUserRepo(subject)
	uc := NewMatchUsecase(users, skillindex.New(), nil, quietLogger())

	out, err := uc.RankMatches(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice, got %v", out)
	}
}

func TestMatch_UnknownSubject(t *testing.T) {
	uc := NewMatchUsecase(newMemUserRepo(), skillindex.New(), nil, quietLogger())
	if _, err := uc.RankMatches(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestMatch_DeterministicAcrossCalls(t *testing.T) {
	subject := user.User{ID: uuid.New(), Rating: 2}
	users := []user.User{subject}
	ix := skillindex.New()
	indexSkill(ix, subject.ID, "Go", 5, skill.DirectionOffered)

	// Several equal candidates: ordering must be stable by id.
	for i := 0; i < 5; i++ {
		c := user.User{ID: uuid.New(), Rating: 3, Location: "Remote"}
		users = append(users, c)
		indexSkill(ix, c.ID, "Go", 2, skill.DirectionWanted)
	}

	uc := NewMatchUsecase(newMemUserRepo(users...), ix, nil, quietLogger())

	first, err := uc.RankMatches(context.Background(), subject.ID)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := uc.RankMatches(context.Background(), subject.ID)
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("result length changed between calls")
		}
		for j := range again {
			if again[j].CandidateID != first[j].CandidateID {
				t.Fatalf("ordering changed between calls at %d", j)
			}
		}
	}
}

func TestMatch_EmitsMatchComputedEvent(t *testing.T) {
	subject := user.User{ID: uuid.New(), Rating: 3}
	partner := user.User{ID: uuid.New(), Rating: 5, Location: "Oslo"}
	users := newMemUserRepo(subject, partner)

	ix := skillindex.New()
	indexSkill(ix, subject.ID, "Chess", 4, skill.DirectionOffered)
	indexSkill(ix, partner.ID, "Chess", 1, skill.DirectionWanted)

	broker := events.NewBroker(quietLogger())
	defer broker.Close()
	sub, err := broker.Subscribe(context.Background(), subject.ID, 0)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	uc := NewMatchUsecase(users, ix, broker, quietLogger())
	if _, err := uc.RankMatches(context.Background(), subject.ID); err != nil {
		t.Fatalf("rank: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.Type != events.TypeMatchComputed {
		t.Fatalf("expected match_computed, got %s", ev.Type)
	}
}
