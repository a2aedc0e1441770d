package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"skilltrade/internal/database"
	"skilltrade/internal/domain/trade"
)

var (
	ErrTradeNotFound = errors.New("trade not found")

	// ErrTradeStale means the compare-and-set on the trade's current
	// state matched no row: another writer got there first.
	ErrTradeStale = errors.New("trade state changed concurrently")

	ErrInsufficientCredits = errors.New("insufficient credits")
)

// CreditMove adjusts one user's balance as part of a trade transition.
// A negative delta is an escrow debit, a positive one a release or
// refund. The adjustment and the state change commit atomically.
type CreditMove struct {
	UserID uuid.UUID
	Delta  int
}

type TradeRepository interface {
	Create(ctx context.Context, t trade.Request) (trade.Request, error)
	FindByID(ctx context.Context, id uuid.UUID) (trade.Request, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]trade.Request, error)

	// UpdateStatus moves a trade from one state to another with an
	// optional credit adjustment in the same transaction. Fails with
	// ErrTradeStale when the trade is no longer in the from state, and
	// ErrInsufficientCredits when the adjustment would drive the
	// balance negative; in both cases nothing is committed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to trade.Status, scheduledAt *time.Time, move *CreditMove) (trade.Request, error)
}

type PostgresTradeRepository struct {
	db database.DB
}

func NewPostgresTradeRepository(db database.DB) *PostgresTradeRepository {
	return &PostgresTradeRepository{db: db}
}

const tradeColumns = `id, initiator_id, receiver_id, offered_skills, requested_skills, COALESCE(message, ''), credit_stake, scheduled_at, status, created_at, updated_at`

func scanTrade(row database.Row) (trade.Request, error) {
	var t trade.Request
	var status string
	var scheduledAt *time.Time
	err := row.Scan(
		&t.ID, &t.InitiatorID, &t.ReceiverID,
		&t.OfferedSkills, &t.RequestedSkills,
		&t.Message, &t.CreditStake, &scheduledAt, &status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return trade.Request{}, err
	}
	t.Status = trade.Status(status)
	t.ScheduledAt = scheduledAt
	return t, nil
}

func (r *PostgresTradeRepository) Create(ctx context.Context, t trade.Request) (trade.Request, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO trade_requests
			(id, initiator_id, receiver_id, offered_skills, requested_skills, message, credit_stake, scheduled_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+tradeColumns,
		t.ID, t.InitiatorID, t.ReceiverID, t.OfferedSkills, t.RequestedSkills,
		t.Message, t.CreditStake, t.ScheduledAt, string(t.Status),
	)
	return scanTrade(row)
}

func (r *PostgresTradeRepository) FindByID(ctx context.Context, id uuid.UUID) (trade.Request, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trade_requests WHERE id = $1`,
		id,
	)
	t, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return trade.Request{}, ErrTradeNotFound
		}
		return trade.Request{}, err
	}
	return t, nil
}

func (r *PostgresTradeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]trade.Request, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tradeColumns+`
		 FROM trade_requests
		 WHERE initiator_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]trade.Request, 0)
	for rows.Next() {
		var t trade.Request
		var status string
		var scheduledAt *time.Time
		if err := rows.Scan(
			&t.ID, &t.InitiatorID, &t.ReceiverID,
			&t.OfferedSkills, &t.RequestedSkills,
			&t.Message, &t.CreditStake, &scheduledAt, &status,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.Status = trade.Status(status)
		t.ScheduledAt = scheduledAt
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresTradeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to trade.Status, scheduledAt *time.Time, move *CreditMove) (trade.Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return trade.Request{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if move != nil && move.Delta != 0 {
		affected, err := tx.Exec(ctx,
			`UPDATE users
			 SET credits = credits + $1, updated_at = now()
			 WHERE id = $2 AND credits + $1 >= 0`,
			move.Delta, move.UserID,
		)
		if err != nil {
			return trade.Request{}, err
		}
		if affected == 0 {
			if move.Delta < 0 {
				return trade.Request{}, ErrInsufficientCredits
			}
			return trade.Request{}, ErrUserNotFound
		}
	}

	row := tx.QueryRow(ctx,
		`UPDATE trade_requests
		 SET status = $1, scheduled_at = COALESCE($2, scheduled_at), updated_at = now()
		 WHERE id = $3 AND status = $4
		 RETURNING `+tradeColumns,
		string(to), scheduledAt, id, string(from),
	)
	t, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			// Rolls back the credit move with the transaction.
			return trade.Request{}, r.staleOrMissing(ctx, id)
		}
		return trade.Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return trade.Request{}, err
	}
	return t, nil
}

func (r *PostgresTradeRepository) staleOrMissing(ctx context.Context, id uuid.UUID) error {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trade_requests WHERE id = $1)`, id)
	if err := row.Scan(&exists); err != nil {
		return ErrTradeStale
	}
	if !exists {
		return ErrTradeNotFound
	}
	return ErrTradeStale
}
