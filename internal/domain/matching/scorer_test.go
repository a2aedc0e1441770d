package matching

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestScore_MutualExchangeClampsTo100(t *testing.T) {
	subject := Profile{
		UserID:   uuid.New(),
		Rating:   4,
		Location: "Remote",
		Offered:  []SkillFacet{{Name: "React", Proficiency: 4}},
		Wanted:   []SkillFacet{{Name: "Spanish", Proficiency: 1}},
	}
	candidate := Profile{
		UserID:   uuid.New(),
		Rating:   5,
		Location: "Berlin",
		Offered:  []SkillFacet{{Name: "Spanish", Proficiency: 5}},
		Wanted:   []SkillFacet{{Name: "React", Proficiency: 2}},
	}

	res := Score(subject, candidate)

	// 30 + 30 + 50 + 10 = 120, clamped.
	if res.Score != 100 {
		t.Fatalf("expected score 100, got %d", res.Score)
	}
	if res.Reason != ReasonExcellent {
		t.Fatalf("expected reason %q, got %q", ReasonExcellent, res.Reason)
	}
	if len(res.PotentialTrades) != 2 {
		t.Fatalf("expected 2 potential trades, got %d", len(res.PotentialTrades))
	}
	if !reflect.DeepEqual(res.SharedInterests, []string{"React", "Spanish"}) {
		t.Fatalf("unexpected shared interests: %v", res.SharedInterests)
	}
}

func TestScore_OneDirectionalMatchSingleEntry(t *testing.T) {
	subject := Profile{
		UserID:  uuid.New(),
		Offered: []SkillFacet{{Name: "Guitar", Proficiency: 3}},
	}
	candidate := Profile{
		UserID:   uuid.New(),
		Location: "Remote",
		Wanted:   []SkillFacet{{Name: "guitar", Proficiency: 1}},
	}

	res := Score(subject, candidate)

	if res.Score < pointsPerSkillMatch {
		t.Fatalf("expected at least %d points, got %d", pointsPerSkillMatch, res.Score)
	}
	count := 0
	for _, pt := range res.PotentialTrades {
		if pt.OfferedSkill == "Guitar" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one potential trade for Guitar, got %d", count)
	}
	// Proficiency comes from the side teaching the skill.
	if res.PotentialTrades[0].Proficiency != 3 {
		t.Fatalf("expected proficiency 3, got %d", res.PotentialTrades[0].Proficiency)
	}
}

func TestScore_SameNameBothDirectionsNotDoubleRecorded(t *testing.T) {
	subject := Profile{
		UserID:  uuid.New(),
		Offered: []SkillFacet{{Name: "Chess", Proficiency: 4}},
		Wanted:  []SkillFacet{{Name: "Chess", Proficiency: 2}},
	}
	candidate := Profile{
		UserID:   uuid.New(),
		Location: "Remote",
		Offered:  []SkillFacet{{Name: "chess", Proficiency: 5}},
		Wanted:   []SkillFacet{{Name: "CHESS", Proficiency: 1}},
	}

	res := Score(subject, candidate)

	if len(res.PotentialTrades) != 1 {
		t.Fatalf("expected one potential trade, got %d", len(res.PotentialTrades))
	}
	if len(res.SharedInterests) != 1 {
		t.Fatalf("expected one shared interest, got %v", res.SharedInterests)
	}
}

func TestScore_Deterministic(t *testing.T) {
	subject := Profile{
		UserID: uuid.New(),
		Rating: 3.5,
		Offered: []SkillFacet{
			{Name: "Go", Proficiency: 5},
			{Name: "Photography", Proficiency: 2},
		},
		Wanted: []SkillFacet{
			{Name: "Piano", Proficiency: 1},
			{Name: "Japanese", Proficiency: 1},
		},
	}
	candidate := Profile{
		UserID:   uuid.New(),
		Rating:   4.2,
		Location: "Lisbon",
		Offered: []SkillFacet{
			{Name: "Piano", Proficiency: 4},
			{Name: "Japanese", Proficiency: 3},
		},
		Wanted: []SkillFacet{
			{Name: "Go", Proficiency: 1},
			{Name: "Photography", Proficiency: 1},
		},
	}

	first := Score(subject, candidate)
	for i := 0; i < 10; i++ {
		again := Score(subject, candidate)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("scoring is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestScore_ClampUnderAdversarialInputs(t *testing.T) {
	cases := []struct {
		name      string
		candidate Profile
	}{
		{"negative rating", Profile{UserID: uuid.New(), Rating: -40, Location: "Remote"}},
		{"huge rating", Profile{UserID: uuid.New(), Rating: 1000, Location: "Oslo"}},
		{"empty location", Profile{UserID: uuid.New(), Rating: 0, Location: ""}},
	}
	subject := Profile{UserID: uuid.New()}
	for _, tc := range cases {
		res := Score(subject, tc.candidate)
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("%s: score out of range: %d", tc.name, res.Score)
		}
	}
}

func TestScore_RatingAndLocalityContributions(t *testing.T) {
	subject := Profile{UserID: uuid.New()}

	remote := Score(subject, Profile{UserID: uuid.New(), Rating: 2, Location: "Remote"})
	if remote.Score != 20 {
		t.Fatalf("expected 20 for remote rating-2 candidate, got %d", remote.Score)
	}

	local := Score(subject, Profile{UserID: uuid.New(), Rating: 2, Location: "Paris"})
	if local.Score != 30 {
		t.Fatalf("expected 30 for local rating-2 candidate, got %d", local.Score)
	}
}

func TestReasonBands(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, ReasonExcellent},
		{80, ReasonExcellent},
		{79, ReasonGreat},
		{60, ReasonGreat},
		{59, ReasonGood},
		{40, ReasonGood},
		{39, ReasonShared},
		{0, ReasonShared},
	}
	for _, tc := range cases {
		if got := reasonFor(tc.score); got != tc.want {
			t.Errorf("reasonFor(%d): expected %q, got %q", tc.score, tc.want, got)
		}
	}
}
