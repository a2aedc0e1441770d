// Package skillindex keeps the live offered/wanted skill sets per user
// and the reverse lookups used for match candidate generation.
package skillindex

import (
	"errors"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
)

var ErrSkillNotFound = errors.New("skill not found")

const nameShards = 64

type Index struct {
	users  sync.Map // uuid.UUID -> *userEntry
	shards [nameShards]nameShard
}

// userEntry carries its own lock so mutations by distinct users never
// block each other.
type userEntry struct {
	mu     sync.RWMutex
	skills map[uuid.UUID]skill.Skill
}

// nameShard guards the reverse lookups for the skill names hashing into
// it. Writes touch only the shards of the affected names.
type nameShard struct {
	mu      sync.RWMutex
	offered map[string]map[uuid.UUID]struct{}
	wanted  map[string]map[uuid.UUID]struct{}
}

func New() *Index {
	ix := &Index{}
	for i := range ix.shards {
		ix.shards[i].offered = make(map[string]map[uuid.UUID]struct{})
		ix.shards[i].wanted = make(map[string]map[uuid.UUID]struct{})
	}
	return ix
}

// Upsert adds or replaces a skill for userID, keyed by skill id. Calling
// it twice with the same skill is a no-op; a rename or direction change
// re-homes the reverse-lookup entries.
func (ix *Index) Upsert(userID uuid.UUID, s skill.Skill) {
	e := ix.entry(userID)

	e.mu.Lock()
	prev, had := e.skills[s.ID]
	e.skills[s.ID] = s
	if had {
		ix.unlink(userID, prev, e)
	}
	ix.link(userID, s)
	e.mu.Unlock()
}

// Remove drops a skill by id. Returns ErrSkillNotFound when the user has
// no such skill.
func (ix *Index) Remove(userID uuid.UUID, skillID uuid.UUID) error {
	v, ok := ix.users.Load(userID)
	if !ok {
		return ErrSkillNotFound
	}
	e := v.(*userEntry)

	e.mu.Lock()
	prev, had := e.skills[skillID]
	if !had {
		e.mu.Unlock()
		return ErrSkillNotFound
	}
	delete(e.skills, skillID)
	ix.unlink(userID, prev, e)
	e.mu.Unlock()
	return nil
}

// CandidatesOffering returns the ids of users currently offering the
// named skill (case-insensitive exact match).
func (ix *Index) CandidatesOffering(name string) []uuid.UUID {
	key := skill.NormalizeName(name)
	sh := ix.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return collect(sh.offered[key])
}

// CandidatesWanting returns the ids of users currently wanting the
// named skill.
func (ix *Index) CandidatesWanting(name string) []uuid.UUID {
	key := skill.NormalizeName(name)
	sh := ix.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return collect(sh.wanted[key])
}

// SkillsOf returns the user's current offered and wanted skills, sorted
// by name then id for stable downstream ordering.
func (ix *Index) SkillsOf(userID uuid.UUID) (offered, wanted []skill.Skill) {
	v, ok := ix.users.Load(userID)
	if !ok {
		return nil, nil
	}
	e := v.(*userEntry)

	e.mu.RLock()
	for _, s := range e.skills {
		switch s.Direction {
		case skill.DirectionOffered:
			offered = append(offered, s)
		case skill.DirectionWanted:
			wanted = append(wanted, s)
		}
	}
	e.mu.RUnlock()

	sortSkills(offered)
	sortSkills(wanted)
	return offered, wanted
}

func (ix *Index) entry(userID uuid.UUID) *userEntry {
	if v, ok := ix.users.Load(userID); ok {
		return v.(*userEntry)
	}
	v, _ := ix.users.LoadOrStore(userID, &userEntry{skills: make(map[uuid.UUID]skill.Skill)})
	return v.(*userEntry)
}

func (ix *Index) shardFor(nameKey string) *nameShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nameKey))
	return &ix.shards[h.Sum32()%nameShards]
}

// link registers s in the reverse lookups. Caller holds the user lock.
func (ix *Index) link(userID uuid.UUID, s skill.Skill) {
	key := skill.NormalizeName(s.Name)
	if key == "" {
		return
	}
	sh := ix.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m := sh.directionMap(s.Direction)
	if m == nil {
		return
	}
	set, ok := m[key]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		m[key] = set
	}
	set[userID] = struct{}{}
}

// unlink removes prev from the reverse lookups unless another of the
// user's skills still claims the same name and direction. Caller holds
// the user lock with prev already removed or replaced in e.skills.
func (ix *Index) unlink(userID uuid.UUID, prev skill.Skill, e *userEntry) {
	key := skill.NormalizeName(prev.Name)
	if key == "" {
		return
	}
	for _, s := range e.skills {
		if s.Direction == prev.Direction && skill.NormalizeName(s.Name) == key {
			return
		}
	}

	sh := ix.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m := sh.directionMap(prev.Direction)
	if m == nil {
		return
	}
	if set, ok := m[key]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

func (sh *nameShard) directionMap(d skill.Direction) map[string]map[uuid.UUID]struct{} {
	switch d {
	case skill.DirectionOffered:
		return sh.offered
	case skill.DirectionWanted:
		return sh.wanted
	}
	return nil
}

func collect(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func sortSkills(skills []skill.Skill) {
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Name != skills[j].Name {
			return skills[i].Name < skills[j].Name
		}
		return skills[i].ID.String() < skills[j].ID.String()
	})
}
