package store

import (
	"gorm.io/gorm"

	"github.com/bookwise/bookchat/internal/model"
)

// datastore implements Factory on top of gorm.
type datastore struct {
	db *gorm.DB
}

// NewStore creates a Factory backed by the given gorm database.
func NewStore(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// Migrate creates or updates the sessions and messages tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.ConversationSession{},
		&model.Message{},
	)
}

func (ds *datastore) Sessions() SessionStore {
	return &sessions{db: ds.db}
}

func (ds *datastore) Messages() MessageStore {
	return &messages{db: ds.db}
}
