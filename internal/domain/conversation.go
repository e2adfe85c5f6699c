package domain

import "time"

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

// MessageSummary is the denormalized last-message view carried by a
// conversation for list rendering.
type MessageSummary struct {
	MessageID  string
	Preview    string
	SenderID   string
	SenderName string
	Timestamp  time.Time
	Type       MessageType
}

type Conversation struct {
	ID   string
	Type ConversationType
	Name string
	// Avatar is empty for groups without a picture.
	Avatar string
	// Participants excludes the current user: exactly the counterpart for a
	// direct conversation, everyone else for a group.
	Participants []User
	// AdminIDs lists participants with group admin rights. Empty for direct
	// conversations.
	AdminIDs    []string
	LastMessage *MessageSummary
	UnreadCount int
	// Position is the stable display position; the list is never re-sorted
	// by recency.
	Position int
}

func NewDirectConversation(id string, counterpart User) *Conversation {
	return &Conversation{
		ID:           id,
		Type:         ConversationTypeDirect,
		Name:         counterpart.Name,
		Avatar:       counterpart.Avatar,
		Participants: []User{counterpart},
	}
}

func NewGroupConversation(id, name string, participants []User) *Conversation {
	return &Conversation{
		ID:           id,
		Type:         ConversationTypeGroup,
		Name:         name,
		Participants: participants,
	}
}

func (c *Conversation) IsGroup() bool {
	return c.Type == ConversationTypeGroup
}

func (c *Conversation) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
