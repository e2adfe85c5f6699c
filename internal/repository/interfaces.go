package repository

import (
	"context"
	"time"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAll(ctx context.Context) ([]*domain.User, error)
	UpdatePresence(ctx context.Context, id string, status domain.Status, lastSeen time.Time) error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	// GetAll returns conversations in stable display order (insertion
	// position, not recency).
	GetAll(ctx context.Context) ([]*domain.Conversation, error)
	// Search matches filter case-insensitively against the conversation name
	// and the last-message preview.
	Search(ctx context.Context, filter string) ([]*domain.Conversation, error)
	UpdateLastMessage(ctx context.Context, id string, summary *domain.MessageSummary) error
	ResetUnread(ctx context.Context, id string) error
	IncrementUnread(ctx context.Context, id string) error
	Rename(ctx context.Context, id, name string) error
	AddParticipant(ctx context.Context, conversationID, userID string, admin bool) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
	SetParticipantAdmin(ctx context.Context, conversationID, userID string, admin bool) error
}

type MessageRepository interface {
	// Create persists the message, assigning the next per-conversation
	// sequence number to msg.Seq.
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	UpdateContent(ctx context.Context, msg *domain.Message) error
	UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]*domain.Message, error)
}
