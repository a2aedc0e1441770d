package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/domain/trade"
	"skilltrade/internal/events"
	"skilltrade/internal/notify"
	"skilltrade/internal/pkg/keyedmutex"
	"skilltrade/internal/repository"
)

type ProposeTradeInput struct {
	ReceiverID      uuid.UUID
	OfferedSkills   []string
	RequestedSkills []string
	Message         string
	CreditStake     int
	ScheduledAt     *time.Time
}

type TradeUsecase interface {
	Propose(ctx context.Context, initiatorID uuid.UUID, in ProposeTradeInput) (trade.Request, error)
	Accept(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)
	Decline(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)
	Schedule(ctx context.Context, tradeID, actorID uuid.UUID, at time.Time) (trade.Request, error)
	Complete(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)
	Cancel(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)
	Get(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]trade.Request, error)
}

// Trade drives the lifecycle state machine. Transitions on the same
// trade are serialized through a per-trade lock; the repository's
// compare-and-set guards against writers outside this process. Credit
// movements ride in the same transaction as the state change, so a
// retry of an already-applied transition fails with
// ErrInvalidTradeState instead of moving credits twice.
type Trade struct {
	trades repository.TradeRepository
	users  repository.UserRepository
	locks  *keyedmutex.KeyedMutex
	broker *events.Broker
	hooks  notify.Dispatcher
	logger *log.Logger
}

func NewTradeUsecase(trades repository.TradeRepository, users repository.UserRepository, broker *events.Broker, hooks notify.Dispatcher, logger *log.Logger) *Trade {
	if logger == nil {
		logger = log.Default()
	}
	return &Trade{
		trades: trades,
		users:  users,
		locks:  keyedmutex.New(),
		broker: broker,
		hooks:  hooks,
		logger: logger,
	}
}

func (u *Trade) Propose(ctx context.Context, initiatorID uuid.UUID, in ProposeTradeInput) (trade.Request, error) {
	if initiatorID == uuid.Nil || in.ReceiverID == uuid.Nil {
		return trade.Request{}, ErrInvalidInput
	}
	if initiatorID == in.ReceiverID {
		return trade.Request{}, ErrInvalidInput
	}
	if len(in.OfferedSkills) == 0 || len(in.RequestedSkills) == 0 {
		return trade.Request{}, ErrInvalidInput
	}
	if in.CreditStake < 0 {
		return trade.Request{}, ErrInvalidInput
	}

	initiator, err := u.users.FindByID(ctx, initiatorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return trade.Request{}, ErrUserNotFound
		}
		return trade.Request{}, ErrInternal
	}
	if _, err := u.users.FindByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return trade.Request{}, ErrUserNotFound
		}
		return trade.Request{}, ErrInternal
	}
	// Balance check at proposal time; the authoritative guard runs
	// inside the escrow transaction on accept.
	if in.CreditStake > initiator.Credits {
		return trade.Request{}, ErrInsufficientCredits
	}

	created, err := u.trades.Create(ctx, trade.Request{
		ID:              uuid.New(),
		InitiatorID:     initiatorID,
		ReceiverID:      in.ReceiverID,
		OfferedSkills:   in.OfferedSkills,
		RequestedSkills: in.RequestedSkills,
		Message:         in.Message,
		CreditStake:     in.CreditStake,
		ScheduledAt:     in.ScheduledAt,
		Status:          trade.StatusProposed,
	})
	if err != nil {
		return trade.Request{}, ErrInternal
	}

	u.publish(ctx, created.ReceiverID, events.TypeTradeProposed, events.TradeProposedPayload{
		TradeID:     created.ID,
		InitiatorID: created.InitiatorID,
		CreditStake: created.CreditStake,
		Message:     created.Message,
	})

	return created, nil
}

// Accept escrows the stake by debiting the initiator in the same
// transaction that moves the trade to accepted. Only the receiver may
// accept, and only from proposed.
func (u *Trade) Accept(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error) {
	unlock := u.locks.Lock(tradeID.String())
	defer unlock()

	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if actorID != t.ReceiverID {
		return trade.Request{}, ErrForbidden
	}
	if t.Status != trade.StatusProposed {
		return trade.Request{}, ErrInvalidTradeState
	}

	var move *repository.CreditMove
	if t.CreditStake > 0 {
		move = &repository.CreditMove{UserID: t.InitiatorID, Delta: -t.CreditStake}
	}

	updated, err := u.trades.UpdateStatus(ctx, tradeID, trade.StatusProposed, trade.StatusAccepted, nil, move)
	if err != nil {
		return trade.Request{}, u.mapTransitionErr(err)
	}

	u.announce(ctx, updated, actorID)
	return updated, nil
}

// Decline is the receiver's rejection of a proposal. No credits have
// been escrowed yet, so there is no balance effect.
func (u *Trade) Decline(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error) {
	unlock := u.locks.Lock(tradeID.String())
	defer unlock()

	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if actorID != t.ReceiverID {
		return trade.Request{}, ErrForbidden
	}
	if t.Status != trade.StatusProposed {
		return trade.Request{}, ErrInvalidTradeState
	}

	updated, err := u.trades.UpdateStatus(ctx, tradeID, trade.StatusProposed, trade.StatusDeclined, nil, nil)
	if err != nil {
		return trade.Request{}, u.mapTransitionErr(err)
	}

	u.announce(ctx, updated, actorID)
	return updated, nil
}

// Schedule pins the session time. Either party may schedule, only from
// accepted.
func (u *Trade) Schedule(ctx context.Context, tradeID, actorID uuid.UUID, at time.Time) (trade.Request, error) {
	if at.IsZero() {
		return trade.Request{}, ErrInvalidInput
	}

	unlock := u.locks.Lock(tradeID.String())
	defer unlock()

	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if !t.Party(actorID) {
		return trade.Request{}, ErrForbidden
	}
	if t.Status != trade.StatusAccepted {
		return trade.Request{}, ErrInvalidTradeState
	}

	scheduledAt := at.UTC()
	updated, err := u.trades.UpdateStatus(ctx, tradeID, trade.StatusAccepted, trade.StatusScheduled, &scheduledAt, nil)
	if err != nil {
		return trade.Request{}, u.mapTransitionErr(err)
	}

	u.announce(ctx, updated, actorID)
	return updated, nil
}

// Complete releases the escrowed stake to the receiver and fires the
// achievement hook. Either party may complete from accepted or
// scheduled.
func (u *Trade) Complete(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error) {
	unlock := u.locks.Lock(tradeID.String())
	defer unlock()

	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if !t.Party(actorID) {
		return trade.Request{}, ErrForbidden
	}
	if t.Status != trade.StatusAccepted && t.Status != trade.StatusScheduled {
		return trade.Request{}, ErrInvalidTradeState
	}

	var move *repository.CreditMove
	if t.CreditStake > 0 {
		move = &repository.CreditMove{UserID: t.ReceiverID, Delta: t.CreditStake}
	}

	updated, err := u.trades.UpdateStatus(ctx, tradeID, t.Status, trade.StatusCompleted, nil, move)
	if err != nil {
		return trade.Request{}, u.mapTransitionErr(err)
	}

	u.announce(ctx, updated, actorID)
	u.fireCompletionHook(updated)
	return updated, nil
}

// Cancel returns the escrowed stake to the initiator. Either party may
// cancel from accepted or scheduled.
func (u *Trade) Cancel(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error) {
	unlock := u.locks.Lock(tradeID.String())
	defer unlock()

	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if !t.Party(actorID) {
		return trade.Request{}, ErrForbidden
	}
	if t.Status != trade.StatusAccepted && t.Status != trade.StatusScheduled {
		return trade.Request{}, ErrInvalidTradeState
	}

	var move *repository.CreditMove
	if t.CreditStake > 0 {
		move = &repository.CreditMove{UserID: t.InitiatorID, Delta: t.CreditStake}
	}

	updated, err := u.trades.UpdateStatus(ctx, tradeID, t.Status, trade.StatusCancelled, nil, move)
	if err != nil {
		return trade.Request{}, u.mapTransitionErr(err)
	}

	u.announce(ctx, updated, actorID)
	return updated, nil
}

func (u *Trade) Get(ctx context.Context, tradeID, actorID uuid.UUID) (trade.Request, error) {
	t, err := u.load(ctx, tradeID)
	if err != nil {
		return trade.Request{}, err
	}
	if !t.Party(actorID) {
		return trade.Request{}, ErrForbidden
	}
	return t, nil
}

func (u *Trade) ListForUser(ctx context.Context, userID uuid.UUID) ([]trade.Request, error) {
	out, err := u.trades.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return out, nil
}

func (u *Trade) load(ctx context.Context, tradeID uuid.UUID) (trade.Request, error) {
	t, err := u.trades.FindByID(ctx, tradeID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			return trade.Request{}, ErrTradeNotFound
		}
		return trade.Request{}, ErrInternal
	}
	return t, nil
}

func (u *Trade) mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrTradeStale):
		return ErrInvalidTradeState
	case errors.Is(err, repository.ErrTradeNotFound):
		return ErrTradeNotFound
	case errors.Is(err, repository.ErrInsufficientCredits):
		return ErrInsufficientCredits
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	default:
		return ErrInternal
	}
}

// announce fans the state change out to both parties.
func (u *Trade) announce(ctx context.Context, t trade.Request, actorID uuid.UUID) {
	payload := events.TradeStateChangedPayload{
		TradeID: t.ID,
		Status:  string(t.Status),
		ActorID: actorID,
	}
	u.publish(ctx, t.InitiatorID, events.TypeTradeStateChanged, payload)
	u.publish(ctx, t.ReceiverID, events.TypeTradeStateChanged, payload)
}

func (u *Trade) publish(ctx context.Context, userID uuid.UUID, typ events.Type, payload any) {
	if u.broker == nil {
		return
	}
	if _, err := u.broker.Publish(ctx, userID, typ, payload); err != nil {
		u.logger.Printf("trade | event publish failed user=%s type=%s: %v", userID, typ, err)
	}
}

// fireCompletionHook dispatches achievement/notification side effects
// off the request path. The transition has already committed; a hook
// failure is logged, never propagated.
func (u *Trade) fireCompletionHook(t trade.Request) {
	if u.hooks == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := u.hooks.TradeCompleted(ctx, t); err != nil {
			u.logger.Printf("trade | completion hook failed trade=%s: %v", t.ID, err)
		}
	}()
}
