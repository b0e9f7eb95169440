package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookwise/bookchat/pkg/utils/json"
)

// QueryMode tags how a user message should be answered.
type QueryMode string

const (
	// QueryModeGeneral answers from retrieved textbook passages.
	QueryModeGeneral QueryMode = "general"

	// QueryModeSelectedText answers about a passage the user selected;
	// retrieval is bypassed.
	QueryModeSelectedText QueryMode = "selected_text"
)

// Message types stored in the messages table.
const (
	MessageTypeUser    = "user"
	MessageTypeChatbot = "chatbot"
)

// MaxMessageTextLen bounds user message text.
const MaxMessageTextLen = 2000

// MaxSelectedTextLen bounds the selected-text payload.
const MaxSelectedTextLen = 5000

// Message is one turn (user or chatbot) in a conversation session. User
// turns populate the query fields; chatbot turns populate the response
// fields.
type Message struct {
	ID          string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	SessionID   string    `gorm:"column:session_id;type:varchar(36);not null;index" json:"session_id"`
	MessageType string    `gorm:"column:message_type;size:16;not null" json:"message_type"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`

	// User turn fields.
	MessageText    string  `gorm:"column:message_text;type:text" json:"message_text,omitempty"`
	SelectedText   *string `gorm:"column:selected_text;type:text" json:"selected_text,omitempty"`
	QueryMode      string  `gorm:"column:query_mode;size:16" json:"query_mode,omitempty"`
	CurrentPage    *int    `gorm:"column:current_page" json:"current_page,omitempty"`
	CurrentChapter *string `gorm:"column:current_chapter;size:255" json:"current_chapter,omitempty"`

	// Chatbot turn fields.
	ResponseText     string          `gorm:"column:response_text;type:text" json:"response_text,omitempty"`
	Sources          SourceCitations `gorm:"column:sources;type:jsonb" json:"sources,omitempty"`
	ConfidenceScore  *float64        `gorm:"column:confidence_score" json:"confidence_score,omitempty"`
	IsOutOfScope     bool            `gorm:"column:is_out_of_scope;not null;default:false" json:"is_out_of_scope"`
	RetrievedChunks  RetrievedChunks `gorm:"column:retrieved_chunks;type:jsonb" json:"retrieved_chunks,omitempty"`
	RetrievalTimeMs  int64           `gorm:"column:retrieval_time_ms" json:"retrieval_time_ms"`
	GenerationTimeMs int64           `gorm:"column:generation_time_ms" json:"generation_time_ms"`
	TotalTimeMs      int64           `gorm:"column:total_time_ms" json:"total_time_ms"`
	ModelUsed        string          `gorm:"column:model_used;size:64" json:"model_used,omitempty"`
}

// TableName returns the table name.
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate fills the ID and timestamp when absent.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// Validate checks the user-turn invariants: a selected-text payload implies
// selected-text mode.
func (m *Message) Validate() error {
	if m.MessageType == MessageTypeUser {
		if m.SelectedText != nil && *m.SelectedText != "" && m.QueryMode != string(QueryModeSelectedText) {
			return fmt.Errorf("selected_text requires query_mode %q", QueryModeSelectedText)
		}
	}
	return nil
}

// RetrievedChunk records one retrieval hit for diagnostics.
type RetrievedChunk struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
}

// RetrievedChunks is stored as a JSON column.
type RetrievedChunks []RetrievedChunk

// Value implements driver.Valuer.
func (r RetrievedChunks) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *RetrievedChunks) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// SourceCitations is stored as a JSON column.
type SourceCitations []SourceCitation

// Value implements driver.Valuer.
func (s SourceCitations) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *SourceCitations) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
