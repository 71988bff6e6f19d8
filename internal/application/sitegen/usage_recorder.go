package sitegen

import (
	"context"
	"fmt"
	"strings"

	"rapidsite-ai-api/internal/domain/entity"
	"rapidsite-ai-api/internal/domain/repository"
	"rapidsite-ai-api/internal/domain/service"
	"rapidsite-ai-api/pkg/metrics"
)

type LLMUsageRecorder struct {
	usageRepo repository.LLMUsageEventRepository
}

func NewLLMUsageRecorder(usageRepo repository.LLMUsageEventRepository) *LLMUsageRecorder {
	return &LLMUsageRecorder{usageRepo: usageRepo}
}

func (r *LLMUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	provider := strings.TrimSpace(in.Provider)
	model := strings.TrimSpace(in.Model)

	metrics.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(in.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(in.CompletionTokens))

	evt := &entity.LLMUsageEvent{
		UserID:           userID,
		Task:             strings.TrimSpace(in.Workflow),
		Provider:         provider,
		Model:            model,
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
	}
	_ = r.usageRepo.Create(ctx, evt)
	return nil
}
