package dto

import (
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
)

type SkillResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Proficiency int       `json:"proficiency"`
	Description string    `json:"description,omitempty"`
	Direction   string    `json:"direction"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSkillResponse(s skill.Skill) SkillResponse {
	return SkillResponse{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		Category:    s.Category,
		Proficiency: s.Proficiency,
		Description: s.Description,
		Direction:   string(s.Direction),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func NewSkillListResponse(skills []skill.Skill) []SkillResponse {
	out := make([]SkillResponse, 0, len(skills))
	for _, s := range skills {
		out = append(out, NewSkillResponse(s))
	}
	return out
}
