package delivery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

type fakeAdvancer struct {
	mu          sync.Mutex
	transitions []domain.MessageStatus
	statuses    map[string]domain.MessageStatus
	deleted     map[string]bool
}

func newFakeAdvancer() *fakeAdvancer {
	return &fakeAdvancer{
		statuses: make(map[string]domain.MessageStatus),
		deleted:  make(map[string]bool),
	}
}

func (f *fakeAdvancer) AdvanceStatus(ctx context.Context, messageID string, status domain.MessageStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleted[messageID] {
		return domain.ErrMessageNotFound
	}

	current, ok := f.statuses[messageID]
	if !ok {
		current = domain.MessageStatusSent
	}
	if !current.CanAdvanceTo(status) {
		return nil
	}

	f.statuses[messageID] = status
	f.transitions = append(f.transitions, status)
	return nil
}

func (f *fakeAdvancer) history() []domain.MessageStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MessageStatus(nil), f.transitions...)
}

func TestSimulatorProgression(t *testing.T) {
	advancer := newFakeAdvancer()
	clock := NewManualClock(time.Unix(0, 0))
	sim := NewSimulator(advancer, domain.NewEventBus(), clock, time.Second, 3*time.Second)

	sim.Track("msg-1")

	clock.Advance(500 * time.Millisecond)
	if got := advancer.history(); len(got) != 0 {
		t.Fatalf("no transition expected at +500ms, got %v", got)
	}

	clock.Advance(600 * time.Millisecond)
	got := advancer.history()
	if len(got) != 1 || got[0] != domain.MessageStatusDelivered {
		t.Fatalf("at +1.1s transitions = %v, want [delivered]", got)
	}

	clock.Advance(2 * time.Second)
	got = advancer.history()
	if len(got) != 2 || got[1] != domain.MessageStatusRead {
		t.Fatalf("at +3.1s transitions = %v, want [delivered read]", got)
	}
}

func TestSimulatorDelaysMeasuredFromTrackTime(t *testing.T) {
	advancer := newFakeAdvancer()
	clock := NewManualClock(time.Unix(0, 0))
	sim := NewSimulator(advancer, domain.NewEventBus(), clock, time.Second, 3*time.Second)

	sim.Track("msg-1")

	// Both timers were armed at track time: the read timer fires at +3s,
	// not +1s after the delivered transition.
	clock.Advance(3 * time.Second)
	got := advancer.history()
	if len(got) != 2 {
		t.Fatalf("transitions = %v, want both by +3s", got)
	}
}

func TestSimulatorDeletedMessageIsNoOp(t *testing.T) {
	advancer := newFakeAdvancer()
	clock := NewManualClock(time.Unix(0, 0))
	sim := NewSimulator(advancer, domain.NewEventBus(), clock, time.Second, 3*time.Second)

	sim.Track("msg-1")

	// Delete before either timer fires.
	advancer.mu.Lock()
	advancer.deleted["msg-1"] = true
	advancer.mu.Unlock()

	clock.Advance(5 * time.Second)

	if got := advancer.history(); len(got) != 0 {
		t.Fatalf("deleted message must not transition, got %v", got)
	}
}

func TestSimulatorStartConsumesSentEvents(t *testing.T) {
	advancer := newFakeAdvancer()
	clock := NewManualClock(time.Unix(0, 0))
	bus := domain.NewEventBus()
	sim := NewSimulator(advancer, bus, clock, time.Second, 3*time.Second)

	sim.Start()
	defer sim.Stop()

	msg := domain.NewTextMessage("msg-1", "conv-1", domain.User{ID: "user-1"}, "hi", clock.Now())
	bus.Publish(domain.MessageSentEvent{Message: msg, EventTime: clock.Now()})

	// The subscription goroutine schedules timers asynchronously; wait for
	// the timers to be armed before advancing the clock.
	deadline := time.Now().Add(time.Second)
	for {
		clock.Advance(2 * time.Second)
		if len(advancer.history()) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("simulator never scheduled transitions for published event")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
