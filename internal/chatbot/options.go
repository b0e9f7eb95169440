package chatbot

import (
	stderrors "errors"
	"os"

	"github.com/bookwise/bookchat/pkg/infra/app"
	llmopts "github.com/bookwise/bookchat/pkg/options/llm"
	logopts "github.com/bookwise/bookchat/pkg/options/logger"
	milvusopts "github.com/bookwise/bookchat/pkg/options/milvus"
	postgresopts "github.com/bookwise/bookchat/pkg/options/postgres"
	ragopts "github.com/bookwise/bookchat/pkg/options/rag"
	serveropts "github.com/bookwise/bookchat/pkg/options/server"
)

var _ app.CliOptions = (*Options)(nil)

// Options aggregates all chatbot server configuration.
type Options struct {
	Server    *serveropts.Options      `json:"server" mapstructure:"server"`
	Log       *logopts.Options         `json:"log" mapstructure:"log"`
	Milvus    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	Postgres  *postgresopts.Options    `json:"postgres" mapstructure:"postgres"`
	Embedding *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	Chat      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	RAG       *ragopts.Options         `json:"rag" mapstructure:"rag"`
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Server:    serveropts.NewOptions(),
		Log:       logopts.NewOptions(),
		Milvus:    milvusopts.NewOptions(),
		Postgres:  postgresopts.NewOptions(),
		Embedding: llmopts.NewEmbeddingOptions(),
		Chat:      llmopts.NewChatOptions(),
		RAG:       ragopts.NewOptions(),
	}
}

// Flags returns the flags grouped by component.
func (o *Options) Flags() *app.NamedFlagSets {
	fss := &app.NamedFlagSets{}

	o.Server.AddFlags(fss.FlagSet("server"))
	o.Log.AddFlags(fss.FlagSet("log"))
	o.Milvus.AddFlags(fss.FlagSet("milvus"))
	o.Postgres.AddFlags(fss.FlagSet("postgres"))
	o.Embedding.AddFlags(fss.FlagSet("embedding"), "embedding")
	o.Chat.AddFlags(fss.FlagSet("chat"), "chat")
	o.RAG.AddFlags(fss.FlagSet("rag"))

	return fss
}

// Complete fills secrets from the environment when they were not provided
// via flags or config.
func (o *Options) Complete() error {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if o.Embedding.Provider == "openai" && o.Embedding.APIKey == "" {
			o.Embedding.APIKey = key
		}
		if o.Chat.Provider == "openai" && o.Chat.APIKey == "" {
			o.Chat.APIKey = key
		}
	}
	return nil
}

// Validate validates all component options.
func (o *Options) Validate() error {
	var errs []error
	errs = append(errs, o.Server.Validate()...)
	if err := o.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Postgres.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.Chat.Validate()...)
	errs = append(errs, o.RAG.Validate()...)
	return stderrors.Join(errs...)
}
