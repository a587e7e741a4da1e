package orchestrator

import (
	"context"

	"github.com/KE-WhyNot/BE-LLM/graph/model"
)

// chatModelAdapter narrows graph/model.ChatModel's multi-message, tool-aware
// interface down to the single system/user-prompt completion shape the spec
// calls for. Any of the teacher's three concrete provider packages
// (anthropic, openai, google) can back this.
type chatModelAdapter struct {
	chat model.ChatModel
}

// NewLanguageModel adapts a graph/model.ChatModel into a LanguageModel.
func NewLanguageModel(chat model.ChatModel) LanguageModel {
	return &chatModelAdapter{chat: chat}
}

func (a *chatModelAdapter) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user},
	}
	out, err := a.chat.Chat(ctx, messages, nil)
	if err != nil {
		return "", NewTransientError(err)
	}
	return out.Text, nil
}
