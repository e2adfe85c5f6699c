package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/chatflow-oss/chatflow/internal/domain"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if msg.Seq == 0 {
			var maxSeq int64
			if err := tx.Model(&MessageModel{}).
				Where("conversation_id = ?", msg.ConversationID).
				Select("COALESCE(MAX(seq), 0)").
				Scan(&maxSeq).Error; err != nil {
				return err
			}
			msg.Seq = maxSeq + 1
		}
		return tx.Create(MessageDomainToModel(msg)).Error
	})
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var model MessageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	sender, err := r.sender(ctx, model.SenderID)
	if err != nil {
		return nil, err
	}
	return MessageModelToDomain(&model, sender), nil
}

func (r *gormMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	var models []MessageModel
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(ctx, models)
}

func (r *gormMessageRepository) UpdateContent(ctx context.Context, msg *domain.Message) error {
	model := MessageDomainToModel(msg)
	result := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", msg.ID).
		Updates(map[string]interface{}{
			"text":      model.Text,
			"image_url": model.ImageURL,
			"file_name": model.FileName,
			"file_size": model.FileSize,
			"edited":    model.Edited,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *gormMessageRepository) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	result := r.db.WithContext(ctx).
		Model(&MessageModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *gormMessageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&MessageModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *gormMessageRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Message, error) {
	// Escape LIKE special characters so user input matches literally
	escaped := strings.ReplaceAll(query, "%", "\\%")
	escaped = strings.ReplaceAll(escaped, "_", "\\_")
	likePattern := "%" + escaped + "%"

	var models []MessageModel
	err := r.db.WithContext(ctx).
		Where("text LIKE ? ESCAPE '\\'", likePattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.toDomain(ctx, models)
}

func (r *gormMessageRepository) sender(ctx context.Context, senderID string) (domain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", senderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Sender left the directory; keep the reference by id
			return domain.User{ID: senderID}, nil
		}
		return domain.User{}, err
	}
	return *UserModelToDomain(&model), nil
}

func (r *gormMessageRepository) toDomain(ctx context.Context, models []MessageModel) ([]*domain.Message, error) {
	if len(models) == 0 {
		return []*domain.Message{}, nil
	}

	senderIDs := make([]string, 0, len(models))
	seen := make(map[string]bool)
	for i := range models {
		if !seen[models[i].SenderID] {
			seen[models[i].SenderID] = true
			senderIDs = append(senderIDs, models[i].SenderID)
		}
	}

	var userModels []UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", senderIDs).Find(&userModels).Error; err != nil {
		return nil, err
	}
	usersByID := make(map[string]domain.User, len(userModels))
	for i := range userModels {
		usersByID[userModels[i].ID] = *UserModelToDomain(&userModels[i])
	}

	messages := make([]*domain.Message, len(models))
	for i := range models {
		sender, ok := usersByID[models[i].SenderID]
		if !ok {
			sender = domain.User{ID: models[i].SenderID}
		}
		messages[i] = MessageModelToDomain(&models[i], sender)
	}
	return messages, nil
}
