package skillindex

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
)

func offeredSkill(userID uuid.UUID, name string, level int) skill.Skill {
	return skill.Skill{ID: uuid.New(), UserID: userID, Name: name, Proficiency: level, Direction: skill.DirectionOffered}
}

func wantedSkill(userID uuid.UUID, name string, level int) skill.Skill {
	return skill.Skill{ID: uuid.New(), UserID: userID, Name: name, Proficiency: level, Direction: skill.DirectionWanted}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestIndex_ReverseLookups(t *testing.T) {
	ix := New()
	alice := uuid.New()
	bob := uuid.New()

	ix.Upsert(alice, offeredSkill(alice, "Guitar", 4))
	ix.Upsert(bob, wantedSkill(bob, "guitar", 1))

	offering := ix.CandidatesOffering("GUITAR")
	if !containsID(offering, alice) {
		t.Fatalf("expected alice among offering candidates")
	}
	wanting := ix.CandidatesWanting("Guitar")
	if !containsID(wanting, bob) {
		t.Fatalf("expected bob among wanting candidates")
	}
	if containsID(offering, bob) || containsID(wanting, alice) {
		t.Fatalf("directions crossed in reverse lookup")
	}
}

func TestIndex_UpsertIdempotentBySkillID(t *testing.T) {
	ix := New()
	alice := uuid.New()
	s := offeredSkill(alice, "Chess", 3)

	ix.Upsert(alice, s)
	ix.Upsert(alice, s)

	if got := ix.CandidatesOffering("chess"); len(got) != 1 {
		t.Fatalf("expected 1 offering candidate, got %d", len(got))
	}
	offered, _ := ix.SkillsOf(alice)
	if len(offered) != 1 {
		t.Fatalf("expected 1 offered skill, got %d", len(offered))
	}
}

func TestIndex_UpsertRenameRehomesReverseEntry(t *testing.T) {
	ix := New()
	alice := uuid.New()
	s := offeredSkill(alice, "Piano", 2)
	ix.Upsert(alice, s)

	s.Name = "Violin"
	ix.Upsert(alice, s)

	if got := ix.CandidatesOffering("piano"); len(got) != 0 {
		t.Fatalf("stale reverse entry for old name: %v", got)
	}
	if got := ix.CandidatesOffering("violin"); !containsID(got, alice) {
		t.Fatalf("expected alice offering violin")
	}
}

func TestIndex_UpsertDirectionChange(t *testing.T) {
	ix := New()
	alice := uuid.New()
	s := offeredSkill(alice, "Yoga", 3)
	ix.Upsert(alice, s)

	s.Direction = skill.DirectionWanted
	ix.Upsert(alice, s)

	if got := ix.CandidatesOffering("yoga"); len(got) != 0 {
		t.Fatalf("expected no offering candidates after direction change")
	}
	if got := ix.CandidatesWanting("yoga"); !containsID(got, alice) {
		t.Fatalf("expected alice wanting yoga")
	}
}

func TestIndex_RemoveKeepsDuplicateName(t *testing.T) {
	ix := New()
	alice := uuid.New()

	first := offeredSkill(alice, "Cooking", 2)
	second := offeredSkill(alice, "cooking", 5)
	ix.Upsert(alice, first)
	ix.Upsert(alice, second)

	if err := ix.Remove(alice, first.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// The second skill still claims the name.
	if got := ix.CandidatesOffering("Cooking"); !containsID(got, alice) {
		t.Fatalf("expected alice still offering cooking")
	}

	if err := ix.Remove(alice, second.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := ix.CandidatesOffering("Cooking"); len(got) != 0 {
		t.Fatalf("expected no offering candidates, got %v", got)
	}
}

func TestIndex_RemoveMissing(t *testing.T) {
	ix := New()
	alice := uuid.New()

	if err := ix.Remove(alice, uuid.New()); !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound for unknown user, got %v", err)
	}

	ix.Upsert(alice, offeredSkill(alice, "Chess", 1))
	if err := ix.Remove(alice, uuid.New()); !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound for unknown skill, got %v", err)
	}
}

func TestIndex_SkillsOfSortedAndSplit(t *testing.T) {
	ix := New()
	alice := uuid.New()

	ix.Upsert(alice, offeredSkill(alice, "Zither", 2))
	ix.Upsert(alice, offeredSkill(alice, "Accordion", 4))
	ix.Upsert(alice, wantedSkill(alice, "Marathon", 1))

	offered, wanted := ix.SkillsOf(alice)
	if len(offered) != 2 || len(wanted) != 1 {
		t.Fatalf("expected 2 offered / 1 wanted, got %d / %d", len(offered), len(wanted))
	}
	if offered[0].Name != "Accordion" || offered[1].Name != "Zither" {
		t.Fatalf("offered skills not sorted by name: %v", offered)
	}
}

func TestIndex_ConcurrentMutations(t *testing.T) {
	ix := New()
	const users = 16
	const perUser = 50

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := uuid.New()
			for j := 0; j < perUser; j++ {
				s := offeredSkill(userID, fmt.Sprintf("skill-%d", j%8), 1+j%5)
				ix.Upsert(userID, s)
				if j%3 == 0 {
					_ = ix.Remove(userID, s.ID)
				}
				ix.CandidatesOffering("skill-0")
				ix.SkillsOf(userID)
			}
		}(i)
	}
	wg.Wait()
}
