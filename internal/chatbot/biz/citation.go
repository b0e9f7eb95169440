package biz

import (
	"math"

	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/internal/model"
)

// BuildCitations maps retrieval hits (or selected text) into structured
// source citations. Deterministic, no external calls.
//
// Selected-text mode yields exactly one citation with the sentinel chunk ID,
// chapter "Selected Text" and full relevance. General mode yields up to
// model.MaxCitations citations carrying each hit's location, its score
// rounded to three decimals, and a truncated quote.
func BuildCitations(mode model.QueryMode, selectedText string, hits []store.ScoredChunk) []model.SourceCitation {
	if mode == model.QueryModeSelectedText && selectedText != "" {
		quote := truncateQuote(selectedText)
		return []model.SourceCitation{{
			ChunkID:        model.SelectedTextChunkID,
			Chapter:        "Selected Text",
			RelevanceScore: 1.0,
			QuotedText:     &quote,
		}}
	}

	if len(hits) == 0 {
		return nil
	}
	if len(hits) > model.MaxCitations {
		hits = hits[:model.MaxCitations]
	}

	citations := make([]model.SourceCitation, 0, len(hits))
	for _, hit := range hits {
		quote := truncateQuote(hit.Chunk.Text)
		citation := model.SourceCitation{
			ChunkID:        hit.Chunk.ID,
			Chapter:        hit.Chunk.Chapter,
			RelevanceScore: round3(hit.Score),
			QuotedText:     &quote,
		}
		if hit.Chunk.Section != "" {
			section := hit.Chunk.Section
			citation.Section = &section
		}
		if hit.Chunk.PageNumber != nil {
			page := *hit.Chunk.PageNumber
			citation.PageNumber = &page
		}
		citations = append(citations, citation)
	}
	return citations
}

// truncateQuote cuts text to model.MaxQuoteLen characters, marking the cut
// with an ellipsis. Texts at or under the bound pass through verbatim.
func truncateQuote(text string) string {
	runes := []rune(text)
	if len(runes) <= model.MaxQuoteLen {
		return text
	}
	return string(runes[:model.MaxQuoteLen]) + "..."
}

func round3(score float64) float64 {
	return math.Round(score*1000) / 1000
}
