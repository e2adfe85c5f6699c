package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/chatflow-oss/chatflow/internal/delivery"
	"github.com/chatflow-oss/chatflow/internal/domain"
	"github.com/chatflow-oss/chatflow/internal/repository"
)

// CurrentUserID is the demo account every non-HTTP surface acts as.
const CurrentUserID = "user-1"

// Load populates the in-memory store with the demo dataset. The store is
// memory-resident, so this runs on every startup.
func Load(
	ctx context.Context,
	users repository.UserRepository,
	convs repository.ConversationRepository,
	msgs repository.MessageRepository,
	clock delivery.Clock,
) error {
	now := clock.Now()

	seedUsers := []*domain.User{
		{
			ID:     CurrentUserID,
			Name:   "John Doe",
			Email:  "admin@chatflow.com",
			Avatar: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=150&h=150&fit=crop&crop=face",
			Status: domain.StatusOnline,
			Role:   domain.RoleUser,
		},
		{
			ID:     "user-2",
			Name:   "Sarah Wilson",
			Email:  "sarah.wilson@example.com",
			Avatar: "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150&h=150&fit=crop&crop=face",
			Status: domain.StatusOnline,
			Role:   domain.RoleUser,
		},
		{
			ID:     "user-3",
			Name:   "Mike Johnson",
			Email:  "mike.johnson@example.com",
			Avatar: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop&crop=face",
			Status: domain.StatusOnline,
			Role:   domain.RoleAdmin,
		},
		{
			ID:       "user-4",
			Name:     "Emily Davis",
			Email:    "emily.davis@example.com",
			Avatar:   "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=150&h=150&fit=crop&crop=face",
			Status:   domain.StatusAway,
			LastSeen: now.Add(-10 * time.Minute),
			Role:     domain.RoleUser,
		},
		{
			ID:       "user-5",
			Name:     "Alex Chen",
			Email:    "alex.chen@example.com",
			Avatar:   "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=150&h=150&fit=crop&crop=face",
			Status:   domain.StatusOffline,
			LastSeen: now.Add(-2 * time.Hour),
			Role:     domain.RoleUser,
		},
		{
			ID:       "user-6",
			Name:     "David Brown",
			Email:    "david.brown@example.com",
			Avatar:   "https://images.unsplash.com/photo-1519244703995-f4e0f30006d5?w=150&h=150&fit=crop&crop=face",
			Status:   domain.StatusOffline,
			LastSeen: now.Add(-26 * time.Hour),
			Role:     domain.RoleUser,
		},
	}

	byID := make(map[string]domain.User, len(seedUsers))
	for _, u := range seedUsers {
		if err := users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.ID, err)
		}
		byID[u.ID] = *u
	}

	sarah := domain.NewDirectConversation("conv-1", byID["user-2"])
	projectTeam := domain.NewGroupConversation("conv-2", "Project Team", []domain.User{
		byID["user-3"], byID["user-4"], byID["user-5"],
	})
	projectTeam.AdminIDs = []string{"user-3"}
	david := domain.NewDirectConversation("conv-3", byID["user-6"])

	sarah.UnreadCount = 2

	for _, conv := range []*domain.Conversation{sarah, projectTeam, david} {
		if err := convs.Create(ctx, conv); err != nil {
			return fmt.Errorf("seeding conversation %s: %w", conv.ID, err)
		}
	}

	type seedMessage struct {
		id       string
		convID   string
		senderID string
		text     string
		age      time.Duration
		status   domain.MessageStatus
	}

	thread := []seedMessage{
		{"msg-1", "conv-1", "user-2", "Hey! How are you doing today?", 60 * time.Minute, domain.MessageStatusRead},
		{"msg-2", "conv-1", CurrentUserID, "I'm doing great! Just finished working on the new project. How about you?", 55 * time.Minute, domain.MessageStatusRead},
		{"msg-3", "conv-1", "user-2", "That sounds awesome! I'd love to hear more about it. Are you free for a quick call later?", 50 * time.Minute, domain.MessageStatusRead},
		{"msg-4", "conv-1", CurrentUserID, "Sure! I should be free around 3 PM. Does that work for you?", 45 * time.Minute, domain.MessageStatusRead},
		{"msg-5", "conv-1", "user-2", "Perfect! I'll send you a calendar invite. Looking forward to it! 🎉", 5 * time.Minute, domain.MessageStatusDelivered},
		{"msg-6", "conv-2", "user-3", "The deadline has been moved to next Friday", 30 * time.Minute, domain.MessageStatusRead},
		{"msg-7", "conv-3", CurrentUserID, "Thanks for the help with the presentation!", time.Hour, domain.MessageStatusRead},
	}

	lastByConv := make(map[string]*domain.Message)
	for _, sm := range thread {
		msg := domain.NewTextMessage(sm.id, sm.convID, byID[sm.senderID], sm.text, now.Add(-sm.age))
		msg.Status = sm.status
		if err := msgs.Create(ctx, msg); err != nil {
			return fmt.Errorf("seeding message %s: %w", sm.id, err)
		}
		lastByConv[sm.convID] = msg
	}

	for convID, msg := range lastByConv {
		if err := convs.UpdateLastMessage(ctx, convID, msg.Summary()); err != nil {
			return fmt.Errorf("seeding last message for %s: %w", convID, err)
		}
	}

	return nil
}
