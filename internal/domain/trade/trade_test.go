package trade

import (
	"testing"

	"github.com/google/uuid"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusProposed, StatusAccepted, true},
		{StatusProposed, StatusDeclined, true},
		{StatusProposed, StatusScheduled, false},
		{StatusProposed, StatusCompleted, false},
		{StatusAccepted, StatusScheduled, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusDeclined, false},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusAccepted, false},
		{StatusDeclined, StatusAccepted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusProposed, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	terminal := []Status{StatusDeclined, StatusCompleted, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s: expected terminal", s)
		}
		for _, next := range []Status{StatusProposed, StatusAccepted, StatusScheduled, StatusDeclined, StatusCompleted, StatusCancelled} {
			if s.CanTransitionTo(next) {
				t.Errorf("%s -> %s: terminal state must not transition", s, next)
			}
		}
	}
	for _, s := range []Status{StatusProposed, StatusAccepted, StatusScheduled} {
		if s.Terminal() {
			t.Errorf("%s: expected non-terminal", s)
		}
	}
}

func TestRequest_PartyAndCounterpart(t *testing.T) {
	initiator := uuid.New()
	receiver := uuid.New()
	other := uuid.New()

	r := Request{InitiatorID: initiator, ReceiverID: receiver}

	if !r.Party(initiator) || !r.Party(receiver) {
		t.Fatalf("expected both sides to be parties")
	}
	if r.Party(other) {
		t.Fatalf("expected third user not to be a party")
	}
	if got := r.Counterpart(initiator); got != receiver {
		t.Fatalf("counterpart of initiator: expected receiver, got %s", got)
	}
	if got := r.Counterpart(receiver); got != initiator {
		t.Fatalf("counterpart of receiver: expected initiator, got %s", got)
	}
	if got := r.Counterpart(other); got != uuid.Nil {
		t.Fatalf("counterpart of non-party: expected Nil, got %s", got)
	}
}
