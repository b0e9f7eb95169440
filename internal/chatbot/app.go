// Package chatbot assembles and runs the textbook chatbot service.
package chatbot

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/bookwise/bookchat/internal/chatbot/biz"
	"github.com/bookwise/bookchat/internal/chatbot/handler"
	"github.com/bookwise/bookchat/internal/chatbot/router"
	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/pkg/component/milvus"
	"github.com/bookwise/bookchat/pkg/component/postgres"
	"github.com/bookwise/bookchat/pkg/infra/app"
	"github.com/bookwise/bookchat/pkg/llm"

	// Register LLM providers.
	_ "github.com/bookwise/bookchat/pkg/llm/ollama"
	_ "github.com/bookwise/bookchat/pkg/llm/openai"
)

// Name is the service name.
const Name = "bookchat"

// NewApp creates the chatbot application.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Textbook RAG chatbot server"),
		app.WithDescription("bookchat serves a retrieval-augmented chatbot over ingested textbook content,\n"+
			"with conversation sessions, citation tracking, and a legacy query endpoint."),
		app.WithOptions(opts),
		app.WithWatchConfig(),
		app.WithRunFunc(func() error {
			return Run(opts)
		}),
	)
}

// Run wires the service from the validated options and serves HTTP until
// shutdown.
func Run(opts *Options) error {
	opts.Log.AddInitialField("service.name", Name)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting chatbot service...")

	ctx := context.Background()

	milvusClient, err := milvus.New(opts.Milvus)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer func() { _ = milvusClient.Close(context.Background()) }()
	logger.Info("Milvus client initialized")

	chunks := store.NewChunkStore(milvusClient, opts.RAG.Collection)
	if err := chunks.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure chunk collection: %w", err)
	}
	logger.Infow("Vector store initialized", "collection", opts.RAG.Collection)

	// Conversation persistence is optional: without a configured database the
	// chat pipeline still runs, it just keeps no history.
	var (
		pgClient *postgres.Client
		sessions store.SessionStore
		messages store.MessageStore
	)
	if opts.Postgres.Enabled() {
		pgClient, err = postgres.NewWithContext(ctx, opts.Postgres)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres: %w", err)
		}
		defer func() { _ = pgClient.Close() }()

		if err := store.Migrate(pgClient.DB()); err != nil {
			return fmt.Errorf("failed to migrate session schema: %w", err)
		}

		factory := store.NewStore(pgClient.DB())
		sessions = factory.Sessions()
		messages = factory.Messages()
		logger.Infow("Session store initialized", "database", opts.Postgres.Database)
	} else {
		logger.Warn("No database configured, conversation persistence is disabled")
	}

	embedProvider, err := llm.NewEmbeddingProvider(opts.Embedding.Provider, opts.Embedding.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", opts.Embedding.Provider,
		"model", opts.Embedding.Model,
	)

	chatProvider, err := llm.NewChatProvider(opts.Chat.Provider, opts.Chat.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized",
		"provider", opts.Chat.Provider,
		"model", opts.Chat.Model,
	)

	retriever := biz.NewRetriever(embedProvider, chunks, opts.RAG.MinScore)
	generator := biz.NewGenerator(chatProvider)
	chatUsecase := biz.NewChatUsecase(retriever, generator, sessions, messages, opts.RAG.TextbookID)
	queryUsecase := biz.NewQueryUsecase(retriever, chatProvider, opts.RAG.LegacyChatModel, opts.RAG.TextbookID)
	healthUsecase := biz.NewHealthUsecase(pgClient, milvusClient, chatProvider)

	engine := router.New(opts.Server, &router.Handlers{
		Chat:    handler.NewChatHandler(chatUsecase),
		Session: handler.NewSessionHandler(sessions, messages),
		Health:  handler.NewHealthHandler(healthUsecase),
		Query:   handler.NewQueryHandler(queryUsecase),
	})

	logger.Info("Chatbot service is ready")
	return serve(opts.Server, engine)
}
