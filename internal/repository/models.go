package repository

import (
	"time"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

type UserModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email;uniqueIndex"`
	Avatar    string    `gorm:"column:avatar"`
	Status    string    `gorm:"column:status"`
	LastSeen  time.Time `gorm:"column:last_seen"`
	Role      string    `gorm:"column:role"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (UserModel) TableName() string { return "users" }

type ConversationModel struct {
	ID                    string    `gorm:"primaryKey;column:id"`
	Type                  string    `gorm:"column:type"`
	Name                  string    `gorm:"column:name"`
	Avatar                string    `gorm:"column:avatar"`
	LastMessageID         string    `gorm:"column:last_message_id"`
	LastMessagePreview    string    `gorm:"column:last_message_preview"`
	LastMessageSenderID   string    `gorm:"column:last_message_sender_id"`
	LastMessageSenderName string    `gorm:"column:last_message_sender_name"`
	LastMessageTime       time.Time `gorm:"column:last_message_time"`
	LastMessageType       string    `gorm:"column:last_message_type"`
	UnreadCount           int       `gorm:"column:unread_count"`
	Position              int       `gorm:"column:position;index"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (ConversationModel) TableName() string { return "conversations" }

type ParticipantModel struct {
	ConversationID string `gorm:"primaryKey;column:conversation_id"`
	UserID         string `gorm:"primaryKey;column:user_id"`
	Position       int    `gorm:"column:position"`
	Admin          bool   `gorm:"column:admin"`
}

func (ParticipantModel) TableName() string { return "participants" }

type MessageModel struct {
	ID             string    `gorm:"primaryKey;column:id"`
	ConversationID string    `gorm:"column:conversation_id;index:idx_conversation_seq"`
	Seq            int64     `gorm:"column:seq;index:idx_conversation_seq"`
	SenderID       string    `gorm:"column:sender_id"`
	Type           string    `gorm:"column:type"`
	Text           string    `gorm:"column:text"`
	ImageURL       string    `gorm:"column:image_url"`
	FileName       string    `gorm:"column:file_name"`
	FileSize       int64     `gorm:"column:file_size"`
	Timestamp      time.Time `gorm:"column:timestamp"`
	Status         string    `gorm:"column:status"`
	Edited         bool      `gorm:"column:edited"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (MessageModel) TableName() string { return "messages" }

// Conversion functions

func UserModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		Avatar:   m.Avatar,
		Status:   domain.Status(m.Status),
		LastSeen: m.LastSeen,
		Role:     domain.Role(m.Role),
	}
}

func UserDomainToModel(u *domain.User) *UserModel {
	if u == nil {
		return nil
	}
	return &UserModel{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Status:   string(u.Status),
		LastSeen: u.LastSeen,
		Role:     string(u.Role),
	}
}

func MessageModelToDomain(m *MessageModel, sender domain.User) *domain.Message {
	if m == nil {
		return nil
	}

	msg := &domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Seq:            m.Seq,
		Sender:         sender,
		Type:           domain.MessageType(m.Type),
		Text:           m.Text,
		ImageURL:       m.ImageURL,
		Timestamp:      m.Timestamp,
		Status:         domain.MessageStatus(m.Status),
		Edited:         m.Edited,
	}

	if m.Type == string(domain.MessageTypeFile) {
		msg.File = &domain.FileInfo{Name: m.FileName, Size: m.FileSize}
	}

	return msg
}

func MessageDomainToModel(msg *domain.Message) *MessageModel {
	if msg == nil {
		return nil
	}

	model := &MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Seq:            msg.Seq,
		SenderID:       msg.Sender.ID,
		Type:           string(msg.Type),
		Text:           msg.Text,
		ImageURL:       msg.ImageURL,
		Timestamp:      msg.Timestamp,
		Status:         string(msg.Status),
		Edited:         msg.Edited,
	}

	if msg.File != nil {
		model.FileName = msg.File.Name
		model.FileSize = msg.File.Size
	}

	return model
}

func ConversationModelToDomain(m *ConversationModel, participants []domain.User, adminIDs []string) *domain.Conversation {
	if m == nil {
		return nil
	}

	conv := &domain.Conversation{
		ID:           m.ID,
		Type:         domain.ConversationType(m.Type),
		Name:         m.Name,
		Avatar:       m.Avatar,
		Participants: participants,
		AdminIDs:     adminIDs,
		UnreadCount:  m.UnreadCount,
		Position:     m.Position,
	}

	if m.LastMessageID != "" {
		conv.LastMessage = &domain.MessageSummary{
			MessageID:  m.LastMessageID,
			Preview:    m.LastMessagePreview,
			SenderID:   m.LastMessageSenderID,
			SenderName: m.LastMessageSenderName,
			Timestamp:  m.LastMessageTime,
			Type:       domain.MessageType(m.LastMessageType),
		}
	}

	return conv
}

func ConversationDomainToModel(conv *domain.Conversation) *ConversationModel {
	if conv == nil {
		return nil
	}

	model := &ConversationModel{
		ID:          conv.ID,
		Type:        string(conv.Type),
		Name:        conv.Name,
		Avatar:      conv.Avatar,
		UnreadCount: conv.UnreadCount,
		Position:    conv.Position,
	}

	if conv.LastMessage != nil {
		model.LastMessageID = conv.LastMessage.MessageID
		model.LastMessagePreview = conv.LastMessage.Preview
		model.LastMessageSenderID = conv.LastMessage.SenderID
		model.LastMessageSenderName = conv.LastMessage.SenderName
		model.LastMessageTime = conv.LastMessage.Timestamp
		model.LastMessageType = string(conv.LastMessage.Type)
	}

	return model
}
