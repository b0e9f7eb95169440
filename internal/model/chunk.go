// Package model defines the data model: textbook content chunks, chat
// sessions, messages, and citations.
package model

import (
	"fmt"
	"strings"
	"time"
)

// EmbeddingDim is the fixed dimensionality of every stored embedding.
// Enforced on ingest and mirrored at query time.
const EmbeddingDim = 1024

// MaxChunkTextLen bounds the raw text carried by one chunk.
const MaxChunkTextLen = 8192

// ContentChunk is one unit of textbook text with its embedding and location
// metadata. Chunks are immutable reference data once stored, except for
// backfilled adjacency links.
type ContentChunk struct {
	// ID is the chunk's UUID.
	ID string `json:"id"`

	// TextbookID identifies the owning textbook.
	TextbookID string `json:"textbook_id"`

	// Text is the raw chunk text.
	Text string `json:"text"`

	// Embedding is the chunk's vector, always EmbeddingDim long.
	Embedding []float32 `json:"embedding,omitempty"`

	// Chapter, Section, Subsection locate the chunk in the textbook.
	Chapter    string `json:"chapter"`
	Section    string `json:"section,omitempty"`
	Subsection string `json:"subsection,omitempty"`

	// HeadingPath is the composed "chapter > section" location string.
	HeadingPath string `json:"heading_path"`

	// PageNumber is the source page, when known.
	PageNumber *int `json:"page_number,omitempty"`

	// ChunkIndex is the chunk's sequential position within its textbook.
	ChunkIndex int `json:"chunk_index"`

	// PreviousChunkID and NextChunkID link adjacent chunks. Backfilled
	// after ingestion, may be nil at the edges.
	PreviousChunkID *string `json:"previous_chunk_id,omitempty"`
	NextChunkID     *string `json:"next_chunk_id,omitempty"`

	// Content-type flags.
	ContainsEquation bool `json:"contains_equation"`
	ContainsCode     bool `json:"contains_code"`
	ContainsTable    bool `json:"contains_table"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the chunk's invariants before it is stored.
func (c *ContentChunk) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chunk id is required")
	}
	if c.TextbookID == "" {
		return fmt.Errorf("textbook_id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("chunk text is required")
	}
	if len(c.Text) > MaxChunkTextLen {
		return fmt.Errorf("chunk text exceeds %d characters", MaxChunkTextLen)
	}
	if len(c.Embedding) != EmbeddingDim {
		return fmt.Errorf("embedding must have exactly %d dimensions, got %d", EmbeddingDim, len(c.Embedding))
	}
	if c.Chapter == "" {
		return fmt.Errorf("chapter is required")
	}
	if !strings.Contains(c.HeadingPath, ">") {
		return fmt.Errorf("heading_path must be a composed path like %q", "Chapter 1 > Section 1.1")
	}
	return nil
}

// Location renders the chunk's human-readable location label, e.g.
// "Chapter 3 > Kinematics (Page 42)".
func (c *ContentChunk) Location() string {
	label := c.Chapter
	if c.Section != "" {
		label += " > " + c.Section
	}
	if c.PageNumber != nil {
		label += fmt.Sprintf(" (Page %d)", *c.PageNumber)
	}
	return label
}
