package matching

import (
	"testing"

	"github.com/google/uuid"
)

func TestRank_DropsNoiseFloor(t *testing.T) {
	subject := Profile{UserID: uuid.New()}

	// Rating 2, remote: scores exactly 20, which is at the floor.
	atFloor := Profile{UserID: uuid.New(), Rating: 2, Location: "Remote"}
	// Rating 3, remote: 30 points, clears the floor.
	above := Profile{UserID: uuid.New(), Rating: 3, Location: "Remote"}

	out := Rank(subject, []Profile{atFloor, above})
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
	if out[0].CandidateID != above.UserID {
		t.Fatalf("unexpected surviving candidate")
	}
	for _, m := range out {
		if m.Score <= MinScore {
			t.Fatalf("match below floor leaked through: %d", m.Score)
		}
	}
}

func TestRank_EmptyPoolYieldsEmptySlice(t *testing.T) {
	out := Rank(Profile{UserID: uuid.New()}, nil)
	if out == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(out) != 0 {
		t.Fatalf("expected no matches, got %d", len(out))
	}
}

func TestRank_ExcludesSubject(t *testing.T) {
	subject := Profile{UserID: uuid.New(), Rating: 5, Location: "Berlin"}
	out := Rank(subject, []Profile{subject, {UserID: uuid.New(), Rating: 5, Location: "Berlin"}})
	for _, m := range out {
		if m.CandidateID == subject.UserID {
			t.Fatalf("subject ranked against itself")
		}
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 match, got %d", len(out))
	}
}

func TestRank_SortedByScoreDescending(t *testing.T) {
	subject := Profile{
		UserID: uuid.New(),
		Wanted: []SkillFacet{{Name: "Spanish", Proficiency: 1}},
	}

	// 30 (skill) + 50 (rating) + 10 (local) = 90.
	tutor := Profile{
		UserID:   uuid.New(),
		Rating:   5,
		Location: "Madrid",
		Offered:  []SkillFacet{{Name: "Spanish", Proficiency: 5}},
	}
	// 40 (rating) = 40.
	stranger := Profile{UserID: uuid.New(), Rating: 4, Location: "Remote"}
	// 25 (rating) + 10 (local) = 35.
	weak := Profile{UserID: uuid.New(), Rating: 2.5, Location: "Oslo"}

	out := Rank(subject, []Profile{weak, tutor, stranger})
	if len(out) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Fatalf("not sorted by score descending at index %d", i)
		}
	}
	if out[0].CandidateID != tutor.UserID {
		t.Fatalf("expected skill-matched candidate first")
	}
}

func TestRank_TieBreakByRatingThenID(t *testing.T) {
	subject := Profile{
		UserID: uuid.New(),
		Wanted: []SkillFacet{{Name: "Chess", Proficiency: 1}},
	}

	// 30 (skill) + 10 (rating) = 40 with rating 1.
	skilled := Profile{
		UserID:   uuid.New(),
		Rating:   1,
		Location: "Remote",
		Offered:  []SkillFacet{{Name: "Chess", Proficiency: 2}},
	}
	// 40 (rating) = 40 with rating 4: same score, higher rating.
	rated := Profile{UserID: uuid.New(), Rating: 4, Location: "Remote"}

	out := Rank(subject, []Profile{skilled, rated})
	if len(out) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out))
	}
	if out[0].Score != out[1].Score {
		t.Fatalf("test setup broken: scores differ %d vs %d", out[0].Score, out[1].Score)
	}
	if out[0].CandidateID != rated.UserID {
		t.Fatalf("expected rating tie break to favor higher rating")
	}

	// Identical score and rating: id ascending decides.
	c := Profile{UserID: uuid.New(), Rating: 3, Location: "Remote"}
	d := Profile{UserID: uuid.New(), Rating: 3, Location: "Remote"}
	out = Rank(subject, []Profile{d, c})
	if len(out) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(out))
	}
	if out[0].CandidateID.String() > out[1].CandidateID.String() {
		t.Fatalf("expected id-ascending tie break")
	}
}
