package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
	"skilltrade/internal/repository"
	"skilltrade/internal/skillindex"
)

type AddSkillInput struct {
	Name        string
	Category    string
	Proficiency int
	Description string
	Direction   skill.Direction
}

type UpdateSkillInput struct {
	Name        string
	Category    string
	Proficiency int
	Description string
	Direction   skill.Direction
}

type SkillUsecase interface {
	ListSkills(ctx context.Context, userID uuid.UUID) ([]skill.Skill, error)
	AddSkill(ctx context.Context, userID uuid.UUID, in AddSkillInput) (skill.Skill, error)
	UpdateSkill(ctx context.Context, userID uuid.UUID, skillID uuid.UUID, in UpdateSkillInput) (skill.Skill, error)
	RemoveSkill(ctx context.Context, userID uuid.UUID, skillID uuid.UUID) error
}

// Skill keeps the persisted skill rows and the in-memory index in step:
// every write goes to the repository first and is mirrored into the
// index once it sticks.
type Skill struct {
	repo  repository.SkillRepository
	index *skillindex.Index
}

func NewSkillUsecase(repo repository.SkillRepository, index *skillindex.Index) *Skill {
	return &Skill{repo: repo, index: index}
}

func (u *Skill) ListSkills(ctx context.Context, userID uuid.UUID) ([]skill.Skill, error) {
	out, err := u.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return out, nil
}

func (u *Skill) AddSkill(ctx context.Context, userID uuid.UUID, in AddSkillInput) (skill.Skill, error) {
	if err := validateSkillInput(in.Name, in.Proficiency, in.Direction); err != nil {
		return skill.Skill{}, err
	}

	created, err := u.repo.Upsert(ctx, skill.Skill{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Proficiency: in.Proficiency,
		Description: in.Description,
		Direction:   in.Direction,
	})
	if err != nil {
		return skill.Skill{}, ErrInternal
	}

	u.index.Upsert(userID, created)
	return created, nil
}

func (u *Skill) UpdateSkill(ctx context.Context, userID uuid.UUID, skillID uuid.UUID, in UpdateSkillInput) (skill.Skill, error) {
	if skillID == uuid.Nil {
		return skill.Skill{}, ErrInvalidInput
	}
	if err := validateSkillInput(in.Name, in.Proficiency, in.Direction); err != nil {
		return skill.Skill{}, err
	}

	existing, err := u.repo.FindByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, repository.ErrSkillNotFound) {
			return skill.Skill{}, ErrSkillNotFound
		}
		return skill.Skill{}, ErrInternal
	}
	if existing.UserID != userID {
		return skill.Skill{}, ErrForbidden
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.Category = strings.TrimSpace(in.Category)
	existing.Proficiency = in.Proficiency
	existing.Description = in.Description
	existing.Direction = in.Direction

	updated, err := u.repo.Upsert(ctx, existing)
	if err != nil {
		return skill.Skill{}, ErrInternal
	}

	u.index.Upsert(userID, updated)
	return updated, nil
}

func (u *Skill) RemoveSkill(ctx context.Context, userID uuid.UUID, skillID uuid.UUID) error {
	if skillID == uuid.Nil {
		return ErrInvalidInput
	}

	if err := u.repo.Delete(ctx, skillID, userID); err != nil {
		if errors.Is(err, repository.ErrSkillNotFound) {
			return ErrSkillNotFound
		}
		return ErrInternal
	}

	if err := u.index.Remove(userID, skillID); err != nil && !errors.Is(err, skillindex.ErrSkillNotFound) {
		return ErrInternal
	}
	return nil
}

func validateSkillInput(name string, proficiency int, direction skill.Direction) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	if !skill.ValidProficiency(proficiency) {
		return ErrInvalidInput
	}
	if !direction.Valid() {
		return ErrInvalidInput
	}
	return nil
}
