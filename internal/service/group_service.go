package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/repository"
)

// GroupService covers group-conversation management: rename, participant
// membership, and admin promotion.
type GroupService struct {
	convs repository.ConversationRepository
	users repository.UserRepository
	log   zerolog.Logger
}

func NewGroupService(convs repository.ConversationRepository, users repository.UserRepository) *GroupService {
	return &GroupService{
		convs: convs,
		users: users,
		log:   logger.Module("groups"),
	}
}

func (s *GroupService) group(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	if !conv.IsGroup() {
		return nil, domain.ErrNotGroup
	}
	return conv, nil
}

func (s *GroupService) Rename(ctx context.Context, conversationID, name string) (*domain.Conversation, error) {
	conv, err := s.group(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.convs.Rename(ctx, conversationID, name); err != nil {
		return nil, err
	}
	conv.Name = name
	return conv, nil
}

func (s *GroupService) AddParticipant(ctx context.Context, conversationID, userID string) error {
	conv, err := s.group(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.HasParticipant(userID) {
		// Membership is idempotent
		return nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return s.convs.AddParticipant(ctx, conversationID, userID, false)
}

func (s *GroupService) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	if _, err := s.group(ctx, conversationID); err != nil {
		return err
	}
	return s.convs.RemoveParticipant(ctx, conversationID, userID)
}

// SetAdmin promotes or demotes a participant within the group.
func (s *GroupService) SetAdmin(ctx context.Context, conversationID, userID string, admin bool) error {
	if _, err := s.group(ctx, conversationID); err != nil {
		return err
	}
	return s.convs.SetParticipantAdmin(ctx, conversationID, userID, admin)
}
