package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skilltrade/internal/database"
	"skilltrade/internal/domain/user"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository reads the engine's view of users: display rating and
// location for scoring, credit balance for trade escrow. The identity
// subsystem owns everything else about a user.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (user.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
}

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, display_name, COALESCE(rating, 0), COALESCE(location, ''), credits, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		id,
	)

	var u user.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Rating, &u.Location, &u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, display_name, COALESCE(rating, 0), COALESCE(location, ''), credits, created_at, updated_at
		 FROM users
		 WHERE id = ANY($1)
		 ORDER BY id ASC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0, len(ids))
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Rating, &u.Location, &u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
