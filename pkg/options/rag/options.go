// Package rag provides retrieval-pipeline configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bookwise/bookchat/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval-pipeline configuration.
type Options struct {
	// Collection is the name of the Milvus chunk collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// TextbookID is the textbook served by default, used to scope retrieval
	// when a chat turn cannot be tied to a session.
	TextbookID string `json:"textbook-id" mapstructure:"textbook-id"`

	// LegacyChatModel is the model used by the legacy query endpoint.
	LegacyChatModel string `json:"legacy-chat-model" mapstructure:"legacy-chat-model"`

	// MinScore drops retrieval hits scoring below it. Zero keeps every hit;
	// scope detection still applies its own threshold downstream.
	MinScore float64 `json:"min-score" mapstructure:"min-score"`
}

// NewOptions creates the default retrieval options.
func NewOptions() *Options {
	return &Options{
		Collection:      "textbook_chunks",
		TextbookID:      "robotics-101",
		LegacyChatModel: "gpt-4-turbo-preview",
		MinScore:        0.0,
	}
}

// Validate verifies the options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("rag collection name cannot be empty"))
	}
	if o.TextbookID == "" {
		errs = append(errs, fmt.Errorf("rag textbook id cannot be empty"))
	}
	if o.MinScore < 0 || o.MinScore > 1 {
		errs = append(errs, fmt.Errorf("rag min score must be in range [0, 1]"))
	}
	return errs
}

// AddFlags adds retrieval flags to the flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	prefix := options.Join(prefixes...)

	fs.StringVar(&o.Collection, prefix+"rag.collection", o.Collection,
		"Name of the Milvus collection holding textbook chunks.")
	fs.StringVar(&o.TextbookID, prefix+"rag.textbook-id", o.TextbookID,
		"Default textbook identifier used to scope retrieval.")
	fs.StringVar(&o.LegacyChatModel, prefix+"rag.legacy-chat-model", o.LegacyChatModel,
		"Chat model used by the legacy query endpoint.")
	fs.Float64Var(&o.MinScore, prefix+"rag.min-score", o.MinScore,
		"Minimum similarity score for retrieval hits (0 keeps everything).")
}
