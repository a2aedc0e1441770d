package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"skilltrade/internal/domain/skill"
	"skilltrade/internal/domain/trade"
	"skilltrade/internal/domain/user"
	"skilltrade/internal/repository"
)

// memUserRepo is an in-memory UserRepository tracking credit balances.
type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func newMemUserRepo(users ...user.User) *memUserRepo {
	m := &memUserRepo{users: make(map[uuid.UUID]user.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return user.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUserRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUserRepo) credits(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Credits
}

// adjust applies a credit move with the same non-negative guard the SQL
// version enforces.
func (m *memUserRepo) adjust(move *repository.CreditMove) error {
	if move == nil || move.Delta == 0 {
		return nil
	}
	u, ok := m.users[move.UserID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if u.Credits+move.Delta < 0 {
		return repository.ErrInsufficientCredits
	}
	u.Credits += move.Delta
	m.users[move.UserID] = u
	return nil
}

// memTradeRepo is an in-memory TradeRepository whose UpdateStatus
// mirrors the transactional compare-and-set of the Postgres version.
type memTradeRepo struct {
	mu     sync.Mutex
	trades map[uuid.UUID]trade.Request
	users  *memUserRepo
}

func newMemTradeRepo(users *memUserRepo) *memTradeRepo {
	return &memTradeRepo{trades: make(map[uuid.UUID]trade.Request), users: users}
}

func (m *memTradeRepo) Create(_ context.Context, t trade.Request) (trade.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.trades[t.ID] = t
	return t, nil
}

func (m *memTradeRepo) FindByID(_ context.Context, id uuid.UUID) (trade.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trades[id]
	if !ok {
		return trade.Request{}, repository.ErrTradeNotFound
	}
	return t, nil
}

func (m *memTradeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]trade.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]trade.Request, 0)
	for _, t := range m.trades {
		if t.Party(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTradeRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to trade.Status, scheduledAt *time.Time, move *repository.CreditMove) (trade.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users.mu.Lock()
	defer m.users.mu.Unlock()

	t, ok := m.trades[id]
	if !ok {
		return trade.Request{}, repository.ErrTradeNotFound
	}
	if t.Status != from {
		return trade.Request{}, repository.ErrTradeStale
	}
	if move != nil && move.Delta != 0 {
		u, ok := m.users.users[move.UserID]
		if !ok {
			return trade.Request{}, repository.ErrUserNotFound
		}
		if u.Credits+move.Delta < 0 {
			return trade.Request{}, repository.ErrInsufficientCredits
		}
		u.Credits += move.Delta
		m.users.users[move.UserID] = u
	}

	t.Status = to
	if scheduledAt != nil {
		t.ScheduledAt = scheduledAt
	}
	t.UpdatedAt = time.Now().UTC()
	m.trades[id] = t
	return t, nil
}

// memSkillRepo is an in-memory SkillRepository.
type memSkillRepo struct {
	mu     sync.Mutex
	skills map[uuid.UUID]skill.Skill
}

func newMemSkillRepo() *memSkillRepo {
	return &memSkillRepo{skills: make(map[uuid.UUID]skill.Skill)}
}

func (m *memSkillRepo) ListAll(context.Context) ([]skill.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]skill.Skill, 0, len(m.skills))
	for _, s := range m.skills {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSkillRepo) FindByID(_ context.Context, id uuid.UUID) (skill.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok {
		return skill.Skill{}, repository.ErrSkillNotFound
	}
	return s, nil
}

func (m *memSkillRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]skill.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]skill.Skill, 0)
	for _, s := range m.skills {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSkillRepo) Upsert(_ context.Context, s skill.Skill) (skill.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.skills[s.ID]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.skills[s.ID] = s
	return s, nil
}

func (m *memSkillRepo) Delete(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.skills[id]
	if !ok || s.UserID != userID {
		return repository.ErrSkillNotFound
	}
	delete(m.skills, id)
	return nil
}

// recordingDispatcher captures completion hook invocations.
type recordingDispatcher struct {
	mu        sync.Mutex
	completed []uuid.UUID
	err       error
	done      chan struct{}
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{done: make(chan struct{}, 8)}
}

func (d *recordingDispatcher) TradeCompleted(_ context.Context, t trade.Request) error {
	d.mu.Lock()
	d.completed = append(d.completed, t.ID)
	err := d.err
	d.mu.Unlock()
	d.done <- struct{}{}
	return err
}
