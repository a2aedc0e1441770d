package skill

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionOffered Direction = "offered"
	DirectionWanted  Direction = "wanted"
)

func (d Direction) Valid() bool {
	return d == DirectionOffered || d == DirectionWanted
}

type Skill struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Category    string
	Proficiency int
	Description string
	Direction   Direction
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeName is the canonical key for name matching. Matching is
// case-insensitive exact; no fuzzy matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func ValidProficiency(level int) bool {
	return level >= 1 && level <= 5
}
