package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Detail-level preferences a session may carry.
const (
	DetailLevelConcise   = "concise"
	DetailLevelDetailed  = "detailed"
	DetailLevelTechnical = "technical"
)

// ConversationSession is a persisted conversation thread for one user and
// textbook. Sessions are soft-deleted by flipping IsActive; rows stay until
// an external retention job purges them.
type ConversationSession struct {
	ID                   string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	UserID               *string   `gorm:"column:user_id;size:64;index" json:"user_id,omitempty"`
	TextbookID           string    `gorm:"column:textbook_id;size:64;not null;index" json:"textbook_id"`
	CreatedAt            time.Time `gorm:"column:created_at;not null" json:"created_at"`
	LastActivityAt       time.Time `gorm:"column:last_activity_at;not null" json:"last_activity_at"`
	IsActive             bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	MessageCount         int       `gorm:"column:message_count;not null;default:0" json:"message_count"`
	ConversationSummary  *string   `gorm:"column:conversation_summary;type:text" json:"conversation_summary,omitempty"`
	PreferredDetailLevel string    `gorm:"column:preferred_detail_level;size:16;default:detailed" json:"preferred_detail_level"`

	Messages []Message `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name.
func (ConversationSession) TableName() string {
	return "sessions"
}

// BeforeCreate fills defaults so created rows always satisfy the
// last_activity_at >= created_at invariant.
func (s *ConversationSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.LastActivityAt.IsZero() {
		s.LastActivityAt = s.CreatedAt
	}
	if s.PreferredDetailLevel == "" {
		s.PreferredDetailLevel = DetailLevelDetailed
	}
	s.IsActive = true
	return nil
}

// ValidDetailLevel reports whether level is an accepted preference.
func ValidDetailLevel(level string) bool {
	switch level {
	case DetailLevelConcise, DetailLevelDetailed, DetailLevelTechnical:
		return true
	}
	return false
}
