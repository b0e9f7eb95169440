package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
)

func TestIsOutOfScope(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  bool
	}{
		{"zero score", 0.0, true},
		{"just below threshold", 0.29, true},
		{"exactly at threshold", 0.3, false},
		{"just above threshold", 0.31, false},
		{"high score", 0.95, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOutOfScope(tt.score))
		})
	}
}

func TestBuildCitationsSelectedText(t *testing.T) {
	selected := strings.Repeat("x", 250)

	citations := BuildCitations(model.QueryModeSelectedText, selected, nil)
	require.Len(t, citations, 1)

	c := citations[0]
	assert.Equal(t, model.SelectedTextChunkID, c.ChunkID)
	assert.Equal(t, "Selected Text", c.Chapter)
	assert.Nil(t, c.Section)
	assert.Nil(t, c.PageNumber)
	assert.Equal(t, 1.0, c.RelevanceScore)
	require.NotNil(t, c.QuotedText)
	assert.Equal(t, strings.Repeat("x", 200)+"...", *c.QuotedText)
}

func TestBuildCitationsGeneral(t *testing.T) {
	page := 42
	hit := testHit("c1", "Chapter 3: Kinematics", "Forward kinematics maps joint angles to pose.", 0.91234)
	hit.Chunk.PageNumber = &page

	citations := BuildCitations(model.QueryModeGeneral, "", []store.ScoredChunk{
		hit,
		testHit("c2", "Chapter 3: Kinematics", strings.Repeat("long text ", 30), 0.8),
	})
	require.Len(t, citations, 2)

	assert.Equal(t, "c1", citations[0].ChunkID)
	assert.Equal(t, "Chapter 3: Kinematics", citations[0].Chapter)
	require.NotNil(t, citations[0].Section)
	assert.Equal(t, "Forward Kinematics", *citations[0].Section)
	require.NotNil(t, citations[0].PageNumber)
	assert.Equal(t, 42, *citations[0].PageNumber)
	assert.Equal(t, 0.912, citations[0].RelevanceScore)
	require.NotNil(t, citations[0].QuotedText)
	assert.Equal(t, "Forward kinematics maps joint angles to pose.", *citations[0].QuotedText)

	// Long chunk text truncates to 200 characters plus the ellipsis marker.
	require.NotNil(t, citations[1].QuotedText)
	assert.Len(t, *citations[1].QuotedText, 203)
	assert.True(t, strings.HasSuffix(*citations[1].QuotedText, "..."))
}

func TestBuildCitationsBoundedCount(t *testing.T) {
	hits := make([]store.ScoredChunk, 7)
	for i := range hits {
		hits[i] = testHit("c", "Chapter 1", "text", 0.9)
	}

	citations := BuildCitations(model.QueryModeGeneral, "", hits)
	assert.Len(t, citations, model.MaxCitations)
}

func TestBuildCitationsEmptyHits(t *testing.T) {
	assert.Empty(t, BuildCitations(model.QueryModeGeneral, "", nil))
}

func TestTruncateQuoteExactBoundary(t *testing.T) {
	exact := strings.Repeat("a", 200)
	assert.Equal(t, exact, truncateQuote(exact))
	assert.Equal(t, exact+"...", truncateQuote(exact+"b"))
}
