package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

type messages struct {
	db *gorm.DB
}

var _ MessageStore = (*messages)(nil)

func (m *messages) Create(ctx context.Context, msg *model.Message) error {
	if err := msg.Validate(); err != nil {
		return errors.ErrInvalidInput.WithCause(err)
	}
	if err := m.db.WithContext(ctx).Create(msg).Error; err != nil {
		return errors.ErrStorage.WithCause(err)
	}
	return nil
}

func (m *messages) List(ctx context.Context, sessionID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var msgs []model.Message
	err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.ErrStorage.WithCause(err)
	}
	return msgs, nil
}

// Recent fetches the n newest messages and reverses them so callers get
// chronological order.
func (m *messages) Recent(ctx context.Context, sessionID string, n int) ([]model.Message, error) {
	if n <= 0 {
		return []model.Message{}, nil
	}

	var msgs []model.Message
	err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(n).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.ErrStorage.WithCause(err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
