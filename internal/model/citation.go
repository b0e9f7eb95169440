package model

// SelectedTextChunkID is the sentinel chunk identifier used for citations
// built from user-selected text rather than a retrieved chunk.
const SelectedTextChunkID = "selected_text"

// MaxCitations bounds the citation list on a chatbot response.
const MaxCitations = 5

// MaxQuoteLen is the truncation bound for citation quotes; longer source
// text is cut to this length and marked with an ellipsis.
const MaxQuoteLen = 200

// SourceCitation points an answer back to the textbook location (and quoted
// excerpt) that supports it.
type SourceCitation struct {
	// ChunkID is the cited chunk's ID, or SelectedTextChunkID.
	ChunkID string `json:"chunk_id"`

	// Chapter is the chapter label, or "Selected Text".
	Chapter string `json:"chapter"`

	// Section is the section label, when known.
	Section *string `json:"section,omitempty"`

	// PageNumber is the source page, when known.
	PageNumber *int `json:"page_number,omitempty"`

	// RelevanceScore is the similarity score in [0,1], rounded to three
	// decimals; 1.0 for selected text.
	RelevanceScore float64 `json:"relevance_score"`

	// QuotedText is the supporting excerpt, at most MaxQuoteLen characters
	// plus an ellipsis marker.
	QuotedText *string `json:"quoted_text,omitempty"`
}
