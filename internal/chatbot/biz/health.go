package biz

import (
	"context"
	"time"

	"github.com/bookwise/bookchat/pkg/component/milvus"
	"github.com/bookwise/bookchat/pkg/component/postgres"
	"github.com/bookwise/bookchat/pkg/llm"
)

// Dependency status values reported by the health endpoint.
const (
	StatusConnected     = "connected"
	StatusAvailable     = "available"
	StatusError         = "error"
	StatusNotConfigured = "not_configured"
)

const healthProbeTimeout = 5 * time.Second

// HealthStatus reports per-dependency connectivity. Overall Healthy is true
// iff no dependency reports an error; not_configured does not count against
// health.
type HealthStatus struct {
	Healthy  bool   `json:"healthy"`
	Database string `json:"database"`
	Milvus   string `json:"milvus"`
	LLM      string `json:"llm"`
}

// HealthUsecase probes the chatbot's external dependencies.
type HealthUsecase struct {
	db       *postgres.Client // nil when persistence is not configured
	vectors  *milvus.Client
	provider llm.ChatProvider
}

// NewHealthUsecase creates the health checker. db may be nil.
func NewHealthUsecase(db *postgres.Client, vectors *milvus.Client, provider llm.ChatProvider) *HealthUsecase {
	return &HealthUsecase{db: db, vectors: vectors, provider: provider}
}

// Check probes each dependency with a bounded timeout.
func (uc *HealthUsecase) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	status := &HealthStatus{
		Database: StatusNotConfigured,
		Milvus:   StatusError,
		LLM:      StatusError,
	}

	if uc.db != nil {
		if err := uc.db.Ping(ctx); err != nil {
			status.Database = StatusError
		} else {
			status.Database = StatusConnected
		}
	}

	if uc.vectors != nil {
		if err := uc.vectors.Ping(ctx); err == nil {
			status.Milvus = StatusConnected
		}
	}

	if pinger, ok := uc.provider.(llm.Pinger); ok {
		if err := pinger.Ping(ctx); err == nil {
			status.LLM = StatusAvailable
		}
	} else if uc.provider != nil {
		// Providers without a probe are assumed reachable; failures surface
		// on the first real call.
		status.LLM = StatusAvailable
	}

	status.Healthy = status.Database != StatusError &&
		status.Milvus != StatusError &&
		status.LLM != StatusError

	return status
}
