package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/delivery"
	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/repository"
)

// UserService is the read side of the user directory plus presence updates.
type UserService struct {
	users repository.UserRepository
	bus   domain.EventBus
	clock delivery.Clock
	log   zerolog.Logger
}

func NewUserService(users repository.UserRepository, bus domain.EventBus, clock delivery.Clock) *UserService {
	return &UserService{
		users: users,
		bus:   bus,
		clock: clock,
		log:   logger.Module("users"),
	}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.GetAll(ctx)
}

// SetPresence updates a user's status and stamps their last-seen time.
func (s *UserService) SetPresence(ctx context.Context, userID string, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	now := s.clock.Now()
	if err := s.users.UpdatePresence(ctx, userID, status, now); err != nil {
		return err
	}

	s.bus.Publish(domain.PresenceUpdatedEvent{UserID: userID, Status: status, EventTime: now})
	return nil
}
