package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bookwise/bookchat/internal/model"
	"github.com/bookwise/bookchat/pkg/llm"
	"github.com/bookwise/bookchat/pkg/utils/errors"
)

// Generation parameters for the primary chat pipeline. Fixed, not tunable at
// request time.
const (
	GenerationTemperature = 0.7
	GenerationMaxTokens   = 500

	// HistoryWindow is the number of most recent prior turns included in the
	// prompt for multi-turn context.
	HistoryWindow = 5
)

const inScopeSystemPrompt = `You are a helpful teaching assistant for a robotics textbook.
Your role is to answer student questions based ONLY on the provided textbook context.

Guidelines:
1. Answer questions directly and clearly using the textbook content
2. Reference specific sections and page numbers when citing information
3. If the textbook provides equations, code, or diagrams, mention them
4. If the question asks about something not in the provided context, say so
5. Keep answers concise but complete (2-4 paragraphs max)
6. Use technical terms from the textbook, but explain them if needed
7. DO NOT add information from outside the textbook context

Remember: You are helping students learn from THIS textbook, so ground all answers in the provided context.`

const outOfScopeSystemPrompt = `You are a helpful teaching assistant for a robotics textbook.
The user's question appears to be outside the scope of the textbook content.
Politely inform them that their question is not covered in the textbook, and suggest:
1. Rephrasing their question to relate to robotics topics
2. Checking if they're looking for content in a specific chapter
3. General robotics resources if their question is related but not in this book

Be friendly and encouraging.`

// Generator builds a grounded prompt and calls the chat completion API.
type Generator struct {
	chat llm.ChatProvider
}

// NewGenerator creates a Generator.
func NewGenerator(chat llm.ChatProvider) *Generator {
	return &Generator{chat: chat}
}

// GenerateInput carries one generation request.
type GenerateInput struct {
	Query        string
	Chunks       []model.ContentChunk
	QueryMode    model.QueryMode
	SelectedText string
	History      []model.Message
}

// GenerateOutput is the outcome of one generation.
type GenerateOutput struct {
	// Text is the trimmed response text.
	Text string

	// OutOfScope is the generator's own scope signal: true when no chunks
	// were supplied. Callers OR it with the score-threshold signal.
	OutOfScope bool

	// GenerationTimeMs is the wall-clock duration of the completion call.
	GenerationTimeMs int64

	// Model is the model identifier actually used, as echoed by the API.
	Model string
}

// Generate produces a grounded answer to in.Query. An empty or
// whitespace-only query wraps ErrInvalidInput; upstream completion failures
// wrap ErrGeneration.
func (g *Generator) Generate(ctx context.Context, in *GenerateInput) (*GenerateOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, errors.ErrInvalidInput.WithMessage("query cannot be empty")
	}

	start := time.Now()

	// Zero context is the generator's out-of-scope signal. Selected text
	// counts as context: answering about a passage the user is reading is
	// always in scope.
	outOfScope := len(in.Chunks) == 0 && in.SelectedText == ""

	messages := make([]llm.Message, 0, HistoryWindow+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: systemPrompt(outOfScope),
	})
	messages = append(messages, historyMessages(in.History)...)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: userPrompt(in.Query, buildContext(in.Chunks, in.SelectedText), in.QueryMode, in.SelectedText),
	})

	result, err := g.chat.ChatCompletion(ctx, &llm.ChatRequest{
		Messages:    messages,
		Temperature: GenerationTemperature,
		MaxTokens:   GenerationMaxTokens,
	})
	if err != nil {
		return nil, errors.ErrGeneration.WithCause(err)
	}

	return &GenerateOutput{
		Text:             strings.TrimSpace(result.Content),
		OutOfScope:       outOfScope,
		GenerationTimeMs: elapsedMs(start),
		Model:            result.Model,
	}, nil
}

func systemPrompt(outOfScope bool) string {
	if outOfScope {
		return outOfScopeSystemPrompt
	}
	return inScopeSystemPrompt
}

// historyMessages maps the most recent HistoryWindow stored turns to chat
// roles: user turns carry their message text, chatbot turns their response
// text.
func historyMessages(history []model.Message) []llm.Message {
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}

	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		switch msg.MessageType {
		case model.MessageTypeUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: msg.MessageText})
		case model.MessageTypeChatbot:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: msg.ResponseText})
		}
	}
	return messages
}

// buildContext renders the grounding context block: selected text verbatim
// first, then retrieved chunks labeled with their textbook location.
func buildContext(chunks []model.ContentChunk, selectedText string) string {
	if len(chunks) == 0 && selectedText == "" {
		return "No relevant context found."
	}

	var b strings.Builder

	if selectedText != "" {
		b.WriteString("**Selected Text from Textbook:**\n")
		b.WriteString(selectedText)
		b.WriteString("\n")
	}

	if len(chunks) > 0 {
		if selectedText != "" {
			b.WriteString("\n")
		}
		b.WriteString("**Relevant Textbook Sections:**\n")
		for i, chunk := range chunks {
			ref := chunk.Chapter
			if chunk.Section != "" {
				ref += " > " + chunk.Section
			}
			if chunk.PageNumber != nil {
				ref += fmt.Sprintf(" (Page %d)", *chunk.PageNumber)
			}
			fmt.Fprintf(&b, "\n[%d] %s\n%s\n", i+1, ref, chunk.Text)
		}
	}

	return b.String()
}

func userPrompt(query, context string, mode model.QueryMode, selectedText string) string {
	if mode == model.QueryModeSelectedText && selectedText != "" {
		return fmt.Sprintf(`I'm reading this section of the textbook:

%s

My question about this text: %s

Please answer based on the textbook content provided above.`, context, query)
	}

	return fmt.Sprintf(`Context from the textbook:

%s

Student question: %s

Please provide a clear answer based on the textbook content above. Include section and page references when possible.`, context, query)
}
