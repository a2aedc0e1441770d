package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocationRemote marks users without an in-person exchange location.
const LocationRemote = "Remote"

type User struct {
	ID          uuid.UUID
	DisplayName string
	Rating      float64
	Location    string
	Credits     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) IsRemote() bool {
	return strings.EqualFold(strings.TrimSpace(u.Location), LocationRemote)
}
