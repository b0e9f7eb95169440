// Package main is the textbook ingestion CLI. It chunks markdown content,
// embeds it, and loads it into Milvus.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kart-io/logger"
	"github.com/spf13/cobra"

	"github.com/bookwise/bookchat/internal/chatbot/ingest"
	"github.com/bookwise/bookchat/internal/chatbot/store"
	"github.com/bookwise/bookchat/pkg/component/milvus"
	"github.com/bookwise/bookchat/pkg/llm"
	llmopts "github.com/bookwise/bookchat/pkg/options/llm"
	logopts "github.com/bookwise/bookchat/pkg/options/logger"
	milvusopts "github.com/bookwise/bookchat/pkg/options/milvus"
	ragopts "github.com/bookwise/bookchat/pkg/options/rag"

	// Register LLM providers.
	_ "github.com/bookwise/bookchat/pkg/llm/ollama"
	_ "github.com/bookwise/bookchat/pkg/llm/openai"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		dir  string
		drop bool

		logOpts    = logopts.NewOptions()
		milvusOpts = milvusopts.NewOptions()
		embedOpts  = llmopts.NewEmbeddingOptions()
		ragOpts    = ragopts.NewOptions()
	)

	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Ingest markdown textbook content into the vector store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; flags and the environment take over.
			_ = godotenv.Load()

			if embedOpts.Provider == "openai" && embedOpts.APIKey == "" {
				embedOpts.APIKey = os.Getenv("OPENAI_API_KEY")
			}

			var errs []error
			errs = append(errs, milvusOpts.Validate()...)
			errs = append(errs, embedOpts.Validate()...)
			errs = append(errs, ragOpts.Validate()...)
			if err := stderrors.Join(errs...); err != nil {
				return err
			}

			if err := logOpts.Init(); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			return run(cmd.Context(), dir, drop, milvusOpts, embedOpts, ragOpts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&dir, "dir", "textbook/content", "Directory containing markdown textbook files.")
	fs.BoolVar(&drop, "drop", false, "Drop and recreate the chunk collection before ingesting.")
	logOpts.AddFlags(fs)
	milvusOpts.AddFlags(fs)
	embedOpts.AddFlags(fs)
	ragOpts.AddFlags(fs)

	return cmd
}

func run(ctx context.Context, dir string, drop bool, milvusOpts *milvusopts.Options, embedOpts *llmopts.ProviderOptions, ragOpts *ragopts.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := milvus.New(milvusOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize milvus: %w", err)
	}
	defer func() { _ = client.Close(context.Background()) }()

	chunks := store.NewChunkStore(client, ragOpts.Collection)
	if drop {
		if err := chunks.Drop(ctx); err != nil {
			return err
		}
		logger.Infow("Dropped collection", "collection", ragOpts.Collection)
	}
	if err := chunks.EnsureCollection(ctx); err != nil {
		return err
	}

	embedder, err := llm.NewEmbeddingProvider(embedOpts.Provider, embedOpts.ToConfigMap())
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized",
		"provider", embedOpts.Provider,
		"model", embedOpts.Model,
	)

	total, err := ingest.New(embedder, chunks).IngestDirectory(ctx, dir, ragOpts.TextbookID)
	if err != nil {
		return err
	}

	count, err := chunks.Stats(ctx)
	if err != nil {
		logger.Warnw("failed to read collection stats", "error", err.Error())
		count = -1
	}

	logger.Infow("Textbook ingestion complete",
		"textbook_id", ragOpts.TextbookID,
		"chunks_ingested", total,
		"collection_total", count,
	)
	return nil
}
