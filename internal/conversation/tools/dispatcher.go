// Package tools is the in-process tool dispatcher: a name -> function
// registry behind the conversation service's dispatch port. Real tool
// backends register themselves at startup.
package tools

import (
	"context"
	"sync"

	"aide/internal/actor"
	"aide/internal/conversation"
	dErrors "aide/pkg/domain-errors"
)

// Func executes one tool call.
type Func func(ctx context.Context, act actor.Context, call conversation.ToolCall) (conversation.ToolResult, error)

// Dispatcher routes calls to registered tools.
type Dispatcher struct {
	mu    sync.RWMutex
	tools map[string]Func
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{tools: make(map[string]Func)}
}

// Register makes a tool callable. Later registrations under the same name
// replace earlier ones.
func (d *Dispatcher) Register(name string, fn Func) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tools[name] = fn
}

// Dispatch implements conversation.ToolDispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, act actor.Context, call conversation.ToolCall) (conversation.ToolResult, error) {
	d.mu.RLock()
	fn, ok := d.tools[call.Name]
	d.mu.RUnlock()
	if !ok {
		return conversation.ToolResult{}, dErrors.Newf(dErrors.CodeNotFound, "no tool named %q", call.Name)
	}
	return fn(ctx, act, call)
}
