package cli

import "time"

// ConversationInfo is the CLI-facing view of a conversation
type ConversationInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	UnreadCount int       `json:"unread_count"`
	LastPreview string    `json:"last_preview,omitempty"`
	LastTime    time.Time `json:"last_time,omitempty"`
}

// MessageInfo is the CLI-facing view of a message
type MessageInfo struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Type           string    `json:"type"`
	Text           string    `json:"text,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	Edited         bool      `json:"edited"`
	IsFromMe       bool      `json:"is_from_me"`
}

// UserInfo is the CLI-facing view of a user with presence
type UserInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Presence string `json:"presence"`
	IsMe     bool   `json:"is_me"`
}

// CountsInfo mirrors the notification badge numbers
type CountsInfo struct {
	Messages int `json:"messages"`
	Groups   int `json:"groups"`
	Total    int `json:"total"`
}

// Event is a CLI-facing event notification
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// StatusChange reports a delivery lifecycle transition
type StatusChange struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}
