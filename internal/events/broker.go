package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSubscriptionClosed = errors.New("subscription closed")

const (
	// DefaultSubscriberBuffer bounds the unread backlog per subscriber
	// before the oldest events are dropped and a gap is signaled.
	DefaultSubscriberBuffer = 64

	// DefaultReplayDepth is how many recent events per user the broker
	// retains in memory for reconnect replay.
	DefaultReplayDepth = 256
)

// Broker owns one sequenced stream per user. Publishing never blocks on
// slow consumers; a subscriber that falls further behind than its
// buffer loses the oldest unread events and sees a gap event instead.
type Broker struct {
	mu      sync.Mutex
	streams map[uuid.UUID]*stream
	closed  bool

	replay      ReplayStore
	logger      *log.Logger
	bufferSize  int
	replayDepth int
}

type stream struct {
	mu        sync.Mutex
	seq       uint64
	seqLoaded bool
	ring      []Event
	subs      map[*Subscription]struct{}
}

type Option func(*Broker)

func WithReplayStore(store ReplayStore) Option {
	return func(b *Broker) { b.replay = store }
}

func WithSubscriberBuffer(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

func WithReplayDepth(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.replayDepth = n
		}
	}
}

func NewBroker(logger *log.Logger, opts ...Option) *Broker {
	if logger == nil {
		logger = log.Default()
	}
	b := &Broker{
		streams:     make(map[uuid.UUID]*stream),
		logger:      logger,
		bufferSize:  DefaultSubscriberBuffer,
		replayDepth: DefaultReplayDepth,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish assigns the next per-user sequence number to the event and
// delivers it to every live subscription for userID. The replay store
// write is best effort; a failure is logged and does not fail the
// publish.
func (b *Broker) Publish(ctx context.Context, userID uuid.UUID, typ Type, payload any) (Event, error) {
	if userID == uuid.Nil {
		return Event{}, errors.New("nil user id")
	}

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		data = raw
	}

	st, err := b.stream(userID)
	if err != nil {
		return Event{}, err
	}

	st.mu.Lock()
	b.ensureSeq(ctx, st, userID)
	st.seq++
	ev := Event{
		Seq:        st.seq,
		UserID:     userID,
		Type:       typ,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}
	st.ring = append(st.ring, ev)
	if len(st.ring) > b.replayDepth {
		st.ring = st.ring[len(st.ring)-b.replayDepth:]
	}
	for sub := range st.subs {
		sub.push(ev)
	}
	// The store must receive a user's events in sequence order: its
	// tail seeds the counter after a restart, so an out-of-order tail
	// would let a later process mint an already-used sequence.
	if b.replay != nil {
		if err := b.replay.Append(ctx, ev); err != nil {
			b.logger.Printf("events | replay append failed user=%s seq=%d: %v", userID, ev.Seq, err)
		}
	}
	st.mu.Unlock()

	return ev, nil
}

// Subscribe opens a stream of userID's events. Events with sequence
// numbers above lastSeenSeq that the broker or the replay store still
// retain are queued for redelivery first; delivery is at-least-once, so
// a reconnecting consumer may see sequence numbers it already handled.
func (b *Broker) Subscribe(ctx context.Context, userID uuid.UUID, lastSeenSeq uint64) (*Subscription, error) {
	if userID == uuid.Nil {
		return nil, errors.New("nil user id")
	}

	var backlog []Event
	if b.replay != nil {
		stored, err := b.replay.Since(ctx, userID, lastSeenSeq)
		if err != nil {
			b.logger.Printf("events | replay read failed user=%s: %v", userID, err)
		} else {
			backlog = stored
		}
	}

	st, err := b.stream(userID)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		UserID: userID,
		max:    b.bufferSize,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		stream: st,
	}

	st.mu.Lock()
	b.ensureSeq(ctx, st, userID)
	highest := lastSeenSeq
	for _, ev := range backlog {
		if ev.Seq > highest {
			highest = ev.Seq
		}
		sub.push(ev)
	}
	for _, ev := range st.ring {
		if ev.Seq > highest {
			sub.push(ev)
		}
	}
	st.subs[sub] = struct{}{}
	st.mu.Unlock()

	return sub, nil
}

// Close shuts every subscription down. Publish after Close fails.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	streams := make([]*stream, 0, len(b.streams))
	for _, st := range b.streams {
		streams = append(streams, st)
	}
	b.mu.Unlock()

	for _, st := range streams {
		st.mu.Lock()
		for sub := range st.subs {
			sub.markClosed()
			delete(st.subs, sub)
		}
		st.mu.Unlock()
	}
}

func (b *Broker) stream(userID uuid.UUID) (*stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrSubscriptionClosed
	}
	st, ok := b.streams[userID]
	if !ok {
		st = &stream{subs: make(map[*Subscription]struct{})}
		b.streams[userID] = st
	}
	return st, nil
}

// ensureSeq seeds the per-user counter from the replay store once, so
// sequences stay monotonic across process restarts. Caller holds st.mu.
func (b *Broker) ensureSeq(ctx context.Context, st *stream, userID uuid.UUID) {
	if st.seqLoaded {
		return
	}
	st.seqLoaded = true
	if b.replay == nil {
		return
	}
	last, err := b.replay.LastSeq(ctx, userID)
	if err != nil {
		b.logger.Printf("events | replay seq read failed user=%s: %v", userID, err)
		return
	}
	if last > st.seq {
		st.seq = last
	}
}

// Subscription is a single-consumer view of one user's event stream.
type Subscription struct {
	UserID uuid.UUID

	mu         sync.Mutex
	queue      []Event
	max        int
	missedFrom uint64
	missedTo   uint64
	closed     bool

	notify chan struct{}
	done   chan struct{}
	stream *stream
}

// Next blocks until an event is available, the context is cancelled or
// the subscription is closed. A pending gap is always delivered before
// the events that survived the drop, preserving per-user order.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		s.mu.Lock()
		if s.missedFrom > 0 {
			gap := s.gapEventLocked()
			s.missedFrom, s.missedTo = 0, 0
			s.mu.Unlock()
			return gap, nil
		}
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.done:
			// Drain whatever was queued before the close.
			s.mu.Lock()
			empty := len(s.queue) == 0 && s.missedFrom == 0
			s.mu.Unlock()
			if empty {
				return Event{}, ErrSubscriptionClosed
			}
		case <-s.notify:
		}
	}
}

// Close detaches the subscription from its stream.
func (s *Subscription) Close() {
	s.stream.mu.Lock()
	delete(s.stream.subs, s)
	s.stream.mu.Unlock()
	s.markClosed()
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= s.max {
		dropped := s.queue[0]
		s.queue = s.queue[1:]
		if s.missedFrom == 0 {
			s.missedFrom = dropped.Seq
		}
		s.missedTo = dropped.Seq
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) markClosed() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
}

func (s *Subscription) gapEventLocked() Event {
	payload, _ := json.Marshal(GapPayload{MissedFrom: s.missedFrom, MissedTo: s.missedTo})
	return Event{
		Seq:        s.missedTo,
		UserID:     s.UserID,
		Type:       TypeGap,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// sortEvents orders a replayed batch by sequence.
func sortEvents(evs []Event) {
	sort.Slice(evs, func(i, j int) bool { return evs[i].Seq < evs[j].Seq })
}
