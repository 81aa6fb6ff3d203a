package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/portfolio-backend/models"
)

type ChatRepo struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) *ChatRepo {
	return &ChatRepo{db}
}

func (r *ChatRepo) FindSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindSessionWithMessages loads the transcript in send order.
func (r *ChatRepo) FindSessionWithMessages(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *ChatRepo) ListSessions(ctx context.Context, limit, offset int) ([]*models.ChatSession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ChatSession{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []*models.ChatSession
	err := r.db.WithContext(ctx).Order("updated_at desc").Limit(limit).Offset(offset).Find(&sessions).Error
	return sessions, total, err
}

func (r *ChatRepo) CreateSession(ctx context.Context, session *models.ChatSession) error {
	return r.db.WithContext(ctx).Omit("Messages").Create(session).Error
}

// AppendMessages stores messages and bumps the session's counter in one transaction.
func (r *ChatRepo) AppendMessages(ctx context.Context, sessionID uuid.UUID, messages ...*models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, msg := range messages {
			msg.SessionID = sessionID
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&models.ChatSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + ?", len(messages)),
			"updated_at":    tx.NowFunc(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *ChatRepo) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ChatSession{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
