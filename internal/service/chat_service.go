package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chatflow-oss/chatflow/internal/delivery"
	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/logger"
	"github.com/chatflow-oss/chatflow/internal/repository"
)

// ChatService owns the conversation registry and message store. All
// mutations go through it; callers get snapshots, never shared state.
type ChatService struct {
	users repository.UserRepository
	convs repository.ConversationRepository
	msgs  repository.MessageRepository
	bus   domain.EventBus
	clock delivery.Clock
	log   zerolog.Logger

	mu       sync.RWMutex
	activeID string
}

func NewChatService(
	users repository.UserRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	bus domain.EventBus,
	clock delivery.Clock,
) *ChatService {
	return &ChatService{
		users: users,
		convs: convs,
		msgs:  msgs,
		bus:   bus,
		clock: clock,
		log:   logger.Module("chat"),
	}
}

// ListConversations returns the registry in display order. A non-blank
// filter narrows it by case-insensitive substring match against the
// conversation name and the last-message preview.
func (s *ChatService) ListConversations(ctx context.Context, filter string) ([]*domain.Conversation, error) {
	if strings.TrimSpace(filter) == "" {
		return s.convs.GetAll(ctx)
	}
	return s.convs.Search(ctx, filter)
}

// SelectConversation marks a conversation active and clears its unread
// count. Counts of every other conversation are untouched.
func (s *ChatService) SelectConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}

	if err := s.convs.ResetUnread(ctx, id); err != nil {
		return nil, err
	}
	conv.UnreadCount = 0

	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()

	s.bus.Publish(domain.ConversationUpdatedEvent{Conversation: conv, EventTime: s.clock.Now()})
	return conv, nil
}

// ActiveConversationID returns the currently selected conversation, or ""
// when nothing is selected yet.
func (s *ChatService) ActiveConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// SendMessage appends a message from senderID. The message starts in the
// sent state; the delivery simulator picks it up via the published event.
func (s *ChatService) SendMessage(ctx context.Context, senderID, conversationID string, draft domain.Draft) (*domain.Message, error) {
	msg, err := s.append(ctx, senderID, conversationID, draft)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(domain.MessageSentEvent{Message: msg, EventTime: s.clock.Now()})
	return msg, nil
}

// ReceiveMessage records a message from another participant. It lands
// already delivered, bumps the unread count unless the conversation is the
// active one, and never enters the send simulation.
func (s *ChatService) ReceiveMessage(ctx context.Context, senderID, conversationID string, draft domain.Draft) (*domain.Message, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, domain.ErrNotParticipant
	}

	msg, err := s.append(ctx, senderID, conversationID, draft)
	if err != nil {
		return nil, err
	}

	if err := s.msgs.UpdateStatus(ctx, msg.ID, domain.MessageStatusDelivered); err != nil {
		return nil, err
	}
	msg.Status = domain.MessageStatusDelivered

	if s.ActiveConversationID() != conversationID {
		if err := s.convs.IncrementUnread(ctx, conversationID); err != nil {
			return nil, err
		}
	}

	s.bus.Publish(domain.MessageReceivedEvent{Message: msg, EventTime: s.clock.Now()})
	return msg, nil
}

func (s *ChatService) append(ctx context.Context, senderID, conversationID string, draft domain.Draft) (*domain.Message, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, domain.ErrUserNotFound
	}

	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}

	id := uuid.NewString()
	now := s.clock.Now()

	var msg *domain.Message
	switch draft.Type {
	case domain.MessageTypeText:
		msg = domain.NewTextMessage(id, conversationID, *sender, draft.Text, now)
	case domain.MessageTypeImage:
		msg = domain.NewImageMessage(id, conversationID, *sender, draft.ImageURL, now)
	case domain.MessageTypeFile:
		msg = domain.NewFileMessage(id, conversationID, *sender, draft.FileName, draft.FileSize, now)
	}

	if err := s.msgs.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.updateLastMessage(ctx, conversationID, msg)
	return msg, nil
}

// updateLastMessage overwrites the conversation's last-message summary. The
// conversation was validated just before the append, so a miss here is an
// invariant violation: log it and keep the send.
func (s *ChatService) updateLastMessage(ctx context.Context, conversationID string, msg *domain.Message) {
	if err := s.convs.UpdateLastMessage(ctx, conversationID, msg.Summary()); err != nil {
		s.log.Warn().
			Str("conversation_id", conversationID).
			Str("message_id", msg.ID).
			Err(err).
			Msg("last message update skipped")
	}
}

// Messages returns the conversation's messages in creation order.
func (s *ChatService) Messages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	return s.msgs.ListByConversation(ctx, conversationID)
}

// Thread returns the conversation's messages bucketed by calendar date for
// rendering.
func (s *ChatService) Thread(ctx context.Context, conversationID string) ([]domain.DateGroup, error) {
	messages, err := s.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return domain.GroupMessagesByDate(messages), nil
}

// EditMessage replaces a text message's content. Only the sender may edit,
// only within the edit window, and the message keeps its id, timestamp and
// status; it is just flagged as edited.
func (s *ChatService) EditMessage(ctx context.Context, actorID, messageID, newContent string) (*domain.Message, error) {
	msg, err := s.msgs.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, domain.ErrMessageNotFound
	}
	if msg.Sender.ID != actorID {
		return nil, domain.ErrNotSender
	}
	if !msg.CanEdit(actorID, s.clock.Now()) {
		return nil, domain.ErrEditWindowExpired
	}
	if msg.Type != domain.MessageTypeText {
		return nil, fmt.Errorf("%w: only text messages can be edited", domain.ErrInvalidDraft)
	}

	msg.Text = newContent
	msg.Edited = true
	if err := s.msgs.UpdateContent(ctx, msg); err != nil {
		return nil, err
	}

	s.bus.Publish(domain.MessageEditedEvent{Message: msg, EventTime: s.clock.Now()})
	return msg, nil
}

// DeleteMessage removes a message entirely (no tombstone). Only the sender
// may delete, only within the delete window.
func (s *ChatService) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	msg, err := s.msgs.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}
	if msg.Sender.ID != actorID {
		return domain.ErrNotSender
	}
	if !msg.CanDelete(actorID, s.clock.Now()) {
		return domain.ErrDeleteWindowExpired
	}

	if err := s.msgs.Delete(ctx, messageID); err != nil {
		return err
	}

	s.bus.Publish(domain.MessageDeletedEvent{
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		EventTime:      s.clock.Now(),
	})
	return nil
}

// AdvanceStatus applies a simulated delivery transition. A deleted message
// reports ErrMessageNotFound so pending timers become no-ops; a backward or
// repeated transition is silently ignored.
func (s *ChatService) AdvanceStatus(ctx context.Context, messageID string, status domain.MessageStatus) error {
	if status.Rank() < 0 {
		return domain.ErrInvalidStatus
	}

	msg, err := s.msgs.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}
	if !msg.Status.CanAdvanceTo(status) {
		return nil
	}

	if err := s.msgs.UpdateStatus(ctx, messageID, status); err != nil {
		return err
	}

	s.bus.Publish(domain.MessageStatusEvent{
		MessageID:      messageID,
		ConversationID: msg.ConversationID,
		Status:         status,
		EventTime:      s.clock.Now(),
	})
	return nil
}

// SearchMessages matches query against text message content.
func (s *ChatService) SearchMessages(ctx context.Context, query string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.msgs.Search(ctx, query, limit)
}

// Counts derives the unread badges from the registry. Always recomputed,
// never cached.
func (s *ChatService) Counts(ctx context.Context) (domain.NotificationCounts, error) {
	conversations, err := s.convs.GetAll(ctx)
	if err != nil {
		return domain.NotificationCounts{}, err
	}
	return domain.ComputeCounts(conversations), nil
}
