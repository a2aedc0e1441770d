package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skilltrade/internal/database"
	"skilltrade/internal/domain/skill"
)

var ErrSkillNotFound = errors.New("skill not found")

type SkillRepository interface {
	// ListAll streams every skill row, used to hydrate the in-memory
	// index at startup.
	ListAll(ctx context.Context) ([]skill.Skill, error)
	FindByID(ctx context.Context, id uuid.UUID) (skill.Skill, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]skill.Skill, error)
	Upsert(ctx context.Context, s skill.Skill) (skill.Skill, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type PostgresSkillRepository struct {
	db database.DB
}

func NewPostgresSkillRepository(db database.DB) *PostgresSkillRepository {
	return &PostgresSkillRepository{db: db}
}

const skillColumns = `id, user_id, name, COALESCE(category, ''), proficiency, COALESCE(description, ''), direction, created_at, updated_at`

func scanSkill(row database.Row) (skill.Skill, error) {
	var s skill.Skill
	var direction string
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Category, &s.Proficiency, &s.Description, &direction, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return skill.Skill{}, err
	}
	s.Direction = skill.Direction(direction)
	return s, nil
}

func (r *PostgresSkillRepository) ListAll(ctx context.Context) ([]skill.Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+skillColumns+` FROM skills ORDER BY user_id, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSkills(rows)
}

func (r *PostgresSkillRepository) FindByID(ctx context.Context, id uuid.UUID) (skill.Skill, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE id = $1`,
		id,
	)
	s, err := scanSkill(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return skill.Skill{}, ErrSkillNotFound
		}
		return skill.Skill{}, err
	}
	return s, nil
}

func (r *PostgresSkillRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]skill.Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE user_id = $1 ORDER BY name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSkills(rows)
}

func (r *PostgresSkillRepository) Upsert(ctx context.Context, s skill.Skill) (skill.Skill, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO skills (id, user_id, name, category, proficiency, description, direction)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			proficiency = EXCLUDED.proficiency,
			description = EXCLUDED.description,
			direction = EXCLUDED.direction,
			updated_at = now()
		 RETURNING `+skillColumns,
		s.ID, s.UserID, s.Name, s.Category, s.Proficiency, s.Description, string(s.Direction),
	)
	return scanSkill(row)
}

func (r *PostgresSkillRepository) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	affected, err := r.db.Exec(ctx,
		`DELETE FROM skills WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSkillNotFound
	}
	return nil
}

func collectSkills(rows database.Rows) ([]skill.Skill, error) {
	out := make([]skill.Skill, 0)
	for rows.Next() {
		var s skill.Skill
		var direction string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Category, &s.Proficiency, &s.Description, &direction, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Direction = skill.Direction(direction)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
