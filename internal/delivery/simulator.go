package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
)

// StatusAdvancer applies a delivery lifecycle transition. The implementation
// must treat a missing message as a no-op signal (ErrMessageNotFound) and
// never move a status backward.
type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, messageID string, status domain.MessageStatus) error
}

// Simulator stands in for a real transport's ack/read-receipt protocol: each
// sent message is marked delivered and read after fixed delays. Both delays
// are measured from append time, not chained from the previous state — the
// two timers race independently, matching the product's observed behavior.
// It never produces an error; it exists purely to drive UI feedback.
type Simulator struct {
	advancer     StatusAdvancer
	bus          domain.EventBus
	clock        Clock
	deliverDelay time.Duration
	readDelay    time.Duration
	log          zerolog.Logger

	events <-chan domain.Event
	done   chan struct{}
}

func NewSimulator(advancer StatusAdvancer, bus domain.EventBus, clock Clock, deliverDelay, readDelay time.Duration) *Simulator {
	return &Simulator{
		advancer:     advancer,
		bus:          bus,
		clock:        clock,
		deliverDelay: deliverDelay,
		readDelay:    readDelay,
		log:          logger.Module("delivery"),
	}
}

// Start subscribes to message-sent events and schedules transitions for each
// one until Stop is called.
func (s *Simulator) Start() {
	s.events = s.bus.Subscribe([]domain.EventType{domain.EventTypeMessageSent})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for event := range s.events {
			sent, ok := event.(domain.MessageSentEvent)
			if !ok {
				continue
			}
			s.Track(sent.Message.ID)
		}
	}()
}

func (s *Simulator) Stop() {
	if s.events == nil {
		return
	}
	s.bus.Unsubscribe(s.events)
	<-s.done
	s.events = nil
}

// Track schedules the delivered and read transitions for a message. Exposed
// so callers without an event bus can drive the simulator directly.
func (s *Simulator) Track(messageID string) {
	s.schedule(messageID, domain.MessageStatusDelivered, s.deliverDelay)
	s.schedule(messageID, domain.MessageStatusRead, s.readDelay)
}

func (s *Simulator) schedule(messageID string, status domain.MessageStatus, delay time.Duration) {
	s.clock.AfterFunc(delay, func() {
		err := s.advancer.AdvanceStatus(context.Background(), messageID, status)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrMessageNotFound) {
			// Deleted before the timer fired; the transition is a no-op
			s.log.Debug().
				Str("message_id", messageID).
				Str("status", string(status)).
				Msg("skipping transition for deleted message")
			return
		}
		s.log.Error().
			Str("message_id", messageID).
			Str("status", string(status)).
			Err(err).
			Msg("status transition failed")
	})
}
