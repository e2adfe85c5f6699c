package domain

import (
	"fmt"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// MessageStatus is the delivery lifecycle state of a message. Transitions are
// monotonic forward-only: sent -> delivered -> read.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

func (s MessageStatus) Rank() int {
	switch s {
	case MessageStatusSent:
		return 0
	case MessageStatusDelivered:
		return 1
	case MessageStatusRead:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether moving to next would be a forward transition.
// Skipping delivered is allowed; moving backward or sideways is not.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.Rank() > s.Rank()
}

const (
	// EditWindow is how long after sending a message its author may edit it.
	EditWindow = 15 * time.Minute
	// DeleteWindow is how long after sending a message its author may delete it.
	DeleteWindow = 24 * time.Hour
)

type FileInfo struct {
	Name string
	Size int64
}

type Message struct {
	ID             string
	ConversationID string
	// Seq is a per-conversation monotonic sequence assigned at append time;
	// it carries creation order independently of the opaque ID.
	Seq       int64
	Sender    User
	Type      MessageType
	Text      string    // text variant
	ImageURL  string    // image variant
	File      *FileInfo // file variant
	Timestamp time.Time
	Status    MessageStatus
	Edited    bool
}

func NewTextMessage(id, conversationID string, sender User, text string, timestamp time.Time) *Message {
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Type:           MessageTypeText,
		Text:           text,
		Timestamp:      timestamp,
		Status:         MessageStatusSent,
	}
}

func NewImageMessage(id, conversationID string, sender User, url string, timestamp time.Time) *Message {
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Type:           MessageTypeImage,
		ImageURL:       url,
		Timestamp:      timestamp,
		Status:         MessageStatusSent,
	}
}

func NewFileMessage(id, conversationID string, sender User, fileName string, fileSize int64, timestamp time.Time) *Message {
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		Type:           MessageTypeFile,
		File:           &FileInfo{Name: fileName, Size: fileSize},
		Timestamp:      timestamp,
		Status:         MessageStatusSent,
	}
}

// Preview is the one-line rendering used for conversation list summaries.
func (m *Message) Preview() string {
	switch m.Type {
	case MessageTypeImage:
		return "📷 Photo"
	case MessageTypeFile:
		return "📎 File"
	default:
		return m.Text
	}
}

// CanEdit reports whether userID may edit this message at the given time:
// only the sender, and only within the edit window.
func (m *Message) CanEdit(userID string, now time.Time) bool {
	return m.Sender.ID == userID && now.Sub(m.Timestamp) <= EditWindow
}

// CanDelete reports whether userID may delete this message at the given time.
func (m *Message) CanDelete(userID string, now time.Time) bool {
	return m.Sender.ID == userID && now.Sub(m.Timestamp) <= DeleteWindow
}

// Summary converts the message into the last-message form carried by its
// conversation.
func (m *Message) Summary() *MessageSummary {
	return &MessageSummary{
		MessageID:  m.ID,
		Preview:    m.Preview(),
		SenderID:   m.Sender.ID,
		SenderName: m.Sender.Name,
		Timestamp:  m.Timestamp,
		Type:       m.Type,
	}
}

// FormatFileSize renders a byte count the way the composer shows attachments.
func FormatFileSize(bytes int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// Draft is an outgoing message before the store assigns identity and
// lifecycle fields. Exactly the fields for its Type must be set.
type Draft struct {
	Type     MessageType
	Text     string
	ImageURL string
	FileName string
	FileSize int64
}

func (d Draft) Validate() error {
	switch d.Type {
	case MessageTypeText:
		if d.Text == "" {
			return fmt.Errorf("%w: text draft requires content", ErrInvalidDraft)
		}
	case MessageTypeImage:
		if d.ImageURL == "" {
			return fmt.Errorf("%w: image draft requires a URL", ErrInvalidDraft)
		}
	case MessageTypeFile:
		if d.FileName == "" {
			return fmt.Errorf("%w: file draft requires a file name", ErrInvalidDraft)
		}
	default:
		return fmt.Errorf("%w: unknown message type %q", ErrInvalidDraft, d.Type)
	}
	return nil
}

// DateGroup is one calendar day's slice of a message thread.
type DateGroup struct {
	Label    string
	Day      time.Time
	Messages []*Message
}

// GroupMessagesByDate buckets messages by local calendar date, preserving the
// input order both across and within groups. Pure; used for rendering only.
func GroupMessagesByDate(messages []*Message) []DateGroup {
	var groups []DateGroup
	index := make(map[string]int)

	for _, msg := range messages {
		year, month, day := msg.Timestamp.Local().Date()
		key := fmt.Sprintf("%04d-%02d-%02d", year, month, day)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			midnight := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			groups = append(groups, DateGroup{
				Label: midnight.Format("Mon Jan 2 2006"),
				Day:   midnight,
			})
		}
		groups[i].Messages = append(groups[i].Messages, msg)
	}

	return groups
}
