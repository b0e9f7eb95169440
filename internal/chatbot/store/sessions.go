package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

type sessions struct {
	db *gorm.DB
}

var _ SessionStore = (*sessions)(nil)

func (s *sessions) Create(ctx context.Context, session *model.ConversationSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func (s *sessions) Get(ctx context.Context, id string) (*model.ConversationSession, error) {
	var session model.ConversationSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.ErrStorage.WithCause(err)
	}
	return &session, nil
}

// Deactivate looks the session up first so a repeat delete surfaces
// ErrSessionNotFound instead of silently succeeding.
func (s *sessions) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Model(&model.ConversationSession{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func (s *sessions) TouchActivity(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).
		Model(&model.ConversationSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_activity_at": time.Now().UTC(),
			"message_count":    gorm.Expr("message_count + 1"),
		}).Error
	if err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}
