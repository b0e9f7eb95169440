package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/bookwise/bookchat/pkg/llm"
)

// Legacy query pipeline constants. The legacy endpoint is a separate
// contract from the primary chat pipeline: its own top-k, its own prompt,
// its own model and a flat confidence formula. Do not merge the two.
const (
	legacyTopK = 3

	legacyConfidenceSelected = 0.9
	legacyConfidenceChunks   = 0.85
	legacyConfidenceNone     = 0.5
)

const legacySystemPrompt = `You are a helpful teaching assistant for the Physical AI & Humanoid Robotics textbook.
Your role is to answer questions about ROS 2, Gazebo, Unity, NVIDIA Isaac, Vision-Language-Action models, and humanoid robotics.

Guidelines:
- Provide accurate, helpful answers based on the provided context
- If the context doesn't contain enough information, acknowledge this
- Use clear, educational language appropriate for students
- Include code examples when relevant
- Cite specific sections when referring to textbook content
`

// QueryUsecase serves the legacy flat query contract.
type QueryUsecase struct {
	retriever *Retriever
	chat      llm.ChatProvider

	// model overrides the provider's default chat model for legacy answers.
	model      string
	textbookID string
}

// NewQueryUsecase creates the legacy query service.
func NewQueryUsecase(retriever *Retriever, chat llm.ChatProvider, model, textbookID string) *QueryUsecase {
	return &QueryUsecase{
		retriever:  retriever,
		chat:       chat,
		model:      model,
		textbookID: textbookID,
	}
}

// QueryInput is one legacy query.
type QueryInput struct {
	Query        string
	ChapterID    string
	SelectedText string
}

// QueryOutput is the flat legacy response shape.
type QueryOutput struct {
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	Confidence     float64  `json:"confidence"`
	ResponseTimeMs int64    `json:"response_time_ms"`
}

// Query answers a question with the legacy pipeline. Upstream failures
// degrade to an apology answer with zero confidence instead of an error.
func (uc *QueryUsecase) Query(ctx context.Context, in *QueryInput) *QueryOutput {
	start := time.Now()

	out, err := uc.query(ctx, in, start)
	if err != nil {
		logger.Warnw("legacy query failed, returning fallback answer", "error", err)
		return &QueryOutput{
			Answer:         "I apologize, but I encountered an error processing your question. Please try again or rephrase your question.",
			Sources:        []string{},
			Confidence:     0.0,
			ResponseTimeMs: elapsedMs(start),
		}
	}
	return out
}

func (uc *QueryUsecase) query(ctx context.Context, in *QueryInput, start time.Time) (*QueryOutput, error) {
	var contexts []string
	if in.SelectedText == "" {
		hits, _, err := uc.retriever.Retrieve(ctx, in.Query, legacyTopK, uc.textbookID, in.ChapterID)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			contexts = append(contexts, hit.Chunk.Text)
		}
	}

	result, err := uc.chat.ChatCompletion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: legacySystemPrompt},
			{Role: llm.RoleUser, Content: legacyUserPrompt(in.Query, in.SelectedText, contexts)},
		},
		Model:       uc.model,
		Temperature: GenerationTemperature,
		MaxTokens:   GenerationMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	confidence := legacyConfidenceNone
	if len(contexts) > 0 {
		confidence = legacyConfidenceChunks
	}
	if in.SelectedText != "" {
		confidence = legacyConfidenceSelected
	}

	var sources []string
	if in.ChapterID != "" {
		sources = append(sources, "Chapter "+in.ChapterID)
	}
	if in.SelectedText != "" {
		sources = append(sources, "Selected text")
	}
	if len(sources) == 0 {
		sources = []string{"Textbook content"}
	}

	return &QueryOutput{
		Answer:         result.Content,
		Sources:        sources,
		Confidence:     confidence,
		ResponseTimeMs: elapsedMs(start),
	}, nil
}

func legacyUserPrompt(query, selectedText string, contexts []string) string {
	prefix := ""
	if selectedText != "" {
		prefix = fmt.Sprintf("Based on this selected text:\n%q\n\n", selectedText)
	}

	contextBlock := "No additional context available from the textbook."
	if len(contexts) > 0 {
		parts := make([]string, len(contexts))
		for i, text := range contexts {
			parts[i] = fmt.Sprintf("[Context %d]: %s", i+1, text)
		}
		contextBlock = strings.Join(parts, "\n\n")
	}

	return fmt.Sprintf(`%sQuestion: %s

Context from textbook:
%s

Please provide a clear, accurate answer based on the context above.`, prefix, query, contextBlock)
}
