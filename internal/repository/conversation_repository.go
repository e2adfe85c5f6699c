package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

type gormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if conv.Position == 0 {
			var maxPosition int
			if err := tx.Model(&ConversationModel{}).
				Select("COALESCE(MAX(position), 0)").
				Scan(&maxPosition).Error; err != nil {
				return err
			}
			conv.Position = maxPosition + 1
		}

		if err := tx.Create(ConversationDomainToModel(conv)).Error; err != nil {
			return err
		}

		for i, p := range conv.Participants {
			row := &ParticipantModel{
				ConversationID: conv.ID,
				UserID:         p.ID,
				Position:       i + 1,
				Admin:          conv.IsAdmin(p.ID),
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var model ConversationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	convs, err := r.hydrate(ctx, []ConversationModel{model})
	if err != nil {
		return nil, err
	}
	return convs[0], nil
}

func (r *gormConversationRepository) GetAll(ctx context.Context) ([]*domain.Conversation, error) {
	var models []ConversationModel
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, models)
}

func (r *gormConversationRepository) Search(ctx context.Context, filter string) ([]*domain.Conversation, error) {
	// Escape LIKE special characters so user input matches literally
	escaped := strings.ReplaceAll(filter, "%", "\\%")
	escaped = strings.ReplaceAll(escaped, "_", "\\_")
	likePattern := "%" + escaped + "%"

	var models []ConversationModel
	err := r.db.WithContext(ctx).
		Where("name LIKE ? ESCAPE '\\' OR last_message_preview LIKE ? ESCAPE '\\'", likePattern, likePattern).
		Order("position ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, models)
}

func (r *gormConversationRepository) UpdateLastMessage(ctx context.Context, id string, summary *domain.MessageSummary) error {
	result := r.db.WithContext(ctx).
		Model(&ConversationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_message_id":          summary.MessageID,
			"last_message_preview":     summary.Preview,
			"last_message_sender_id":   summary.SenderID,
			"last_message_sender_name": summary.SenderName,
			"last_message_time":        summary.Timestamp,
			"last_message_type":        string(summary.Type),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *gormConversationRepository) ResetUnread(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&ConversationModel{}).
		Where("id = ?", id).
		Update("unread_count", 0)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *gormConversationRepository) IncrementUnread(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&ConversationModel{}).
		Where("id = ?", id).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *gormConversationRepository) Rename(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).
		Model(&ConversationModel{}).
		Where("id = ?", id).
		Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *gormConversationRepository) AddParticipant(ctx context.Context, conversationID, userID string, admin bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPosition int
		if err := tx.Model(&ParticipantModel{}).
			Where("conversation_id = ?", conversationID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPosition).Error; err != nil {
			return err
		}

		return tx.Create(&ParticipantModel{
			ConversationID: conversationID,
			UserID:         userID,
			Position:       maxPosition + 1,
			Admin:          admin,
		}).Error
	})
}

func (r *gormConversationRepository) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	result := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Delete(&ParticipantModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *gormConversationRepository) SetParticipantAdmin(ctx context.Context, conversationID, userID string, admin bool) error {
	result := r.db.WithContext(ctx).
		Model(&ParticipantModel{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("admin", admin)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

// hydrate attaches participant users (in stored order) to conversation rows.
func (r *gormConversationRepository) hydrate(ctx context.Context, models []ConversationModel) ([]*domain.Conversation, error) {
	if len(models) == 0 {
		return []*domain.Conversation{}, nil
	}

	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}

	var rows []ParticipantModel
	err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Order("conversation_id ASC, position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool)
	for _, row := range rows {
		if !seen[row.UserID] {
			seen[row.UserID] = true
			userIDs = append(userIDs, row.UserID)
		}
	}

	usersByID := make(map[string]domain.User)
	if len(userIDs) > 0 {
		var userModels []UserModel
		if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&userModels).Error; err != nil {
			return nil, err
		}
		for i := range userModels {
			usersByID[userModels[i].ID] = *UserModelToDomain(&userModels[i])
		}
	}

	byConversation := make(map[string][]ParticipantModel)
	for _, row := range rows {
		byConversation[row.ConversationID] = append(byConversation[row.ConversationID], row)
	}

	conversations := make([]*domain.Conversation, len(models))
	for i := range models {
		var participants []domain.User
		var adminIDs []string
		for _, row := range byConversation[models[i].ID] {
			if user, ok := usersByID[row.UserID]; ok {
				participants = append(participants, user)
			}
			if row.Admin {
				adminIDs = append(adminIDs, row.UserID)
			}
		}
		conversations[i] = ConversationModelToDomain(&models[i], participants, adminIDs)
	}

	return conversations, nil
}
