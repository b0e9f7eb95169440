package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Chatbot service errors. Each external dependency wrapper raises exactly one
// of these variants so the HTTP layer maps failures to response codes by
// identity instead of sniffing message text.
var (
	// ErrInvalidInput indicates an empty or malformed query reached the
	// generation pipeline.
	ErrInvalidInput = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryRequest, 1),
		Reason:   "VALIDATION_ERROR",
		HTTP:     http.StatusBadRequest,
		GRPCCode: codes.InvalidArgument,
		Message:  "Invalid request",
	})

	// ErrSessionNotFound indicates the conversation session does not exist
	// or is no longer active.
	ErrSessionNotFound = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryResource, 1),
		Reason:   "SESSION_NOT_FOUND",
		HTTP:     http.StatusNotFound,
		GRPCCode: codes.NotFound,
		Message:  "Session not found",
	})

	// ErrEmbedding indicates the embedding API failed or returned a vector
	// of unexpected dimensionality.
	ErrEmbedding = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryUpstream, 1),
		Reason:   "EMBEDDING_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Failed to generate response. Please try again.",
	})

	// ErrRetrieval indicates the vector store search failed.
	ErrRetrieval = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryUpstream, 2),
		Reason:   "RETRIEVAL_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Failed to search textbook content. Please try again.",
	})

	// ErrGeneration indicates the chat completion API failed.
	ErrGeneration = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryUpstream, 3),
		Reason:   "GENERATION_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Failed to generate response. Please try again.",
	})

	// ErrStorage indicates a session/message persistence failure. The
	// orchestrator swallows this variant for best-effort writes; it is only
	// surfaced by the session CRUD endpoints.
	ErrStorage = Register(&Errno{
		Code:     MakeCode(ServiceChatbot, CategoryDatabase, 1),
		Reason:   "STORAGE_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Failed to access conversation history.",
	})
)

// Ingestion pipeline errors.
var (
	// ErrIngest indicates a chunking/embedding/upsert failure during
	// textbook ingestion.
	ErrIngest = Register(&Errno{
		Code:     MakeCode(ServiceIngest, CategoryInternal, 1),
		Reason:   "INGEST_ERROR",
		HTTP:     http.StatusInternalServerError,
		GRPCCode: codes.Internal,
		Message:  "Textbook ingestion failed",
	})
)
