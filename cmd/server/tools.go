package main

import (
	"context"

	"aide/internal/actor"
	"aide/internal/conversation"
	"aide/internal/conversation/tools"
	"aide/internal/knowledge"
	"aide/internal/memorybank"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

// registerBuiltinTools wires the tools the assistant can call in-process:
// saving a long-term memory and reading a knowledge article. Richer backends
// register themselves the same way.
func registerBuiltinTools(d *tools.Dispatcher, memories *memorybank.Service, articles *knowledge.Service) {
	d.Register("memory.save", func(ctx context.Context, act actor.Context, call conversation.ToolCall) (conversation.ToolResult, error) {
		content, _ := call.Arguments["content"].(string)
		source, _ := call.Arguments["source"].(string)
		// The assistant saves on behalf of the conversation owner; human
		// callers save for themselves.
		userID, _ := call.Arguments["user_id"].(string)
		if userID == "" {
			userID = act.UserID()
		}
		entry, err := memories.Save(ctx, act, userID, content, source)
		if err != nil {
			return conversation.ToolResult{}, err
		}
		return conversation.ToolResult{Output: map[string]any{"id": entry.ID.String()}}, nil
	})

	d.Register("knowledge.get", func(ctx context.Context, act actor.Context, call conversation.ToolCall) (conversation.ToolResult, error) {
		raw, _ := call.Arguments["id"].(string)
		articleID, err := id.ParseResourceID(raw)
		if err != nil {
			return conversation.ToolResult{}, dErrors.New(dErrors.CodeInvalidInput, "id argument must be an article UUID")
		}
		article, err := articles.Get(ctx, act, articleID)
		if err != nil {
			return conversation.ToolResult{}, err
		}
		return conversation.ToolResult{Output: map[string]any{
			"id":      article.ID.String(),
			"title":   article.Title,
			"content": article.Content,
			"version": article.Version,
		}}, nil
	})
}
