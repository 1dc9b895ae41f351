// Package chat runs one conversational turn: it asks the completion service
// for an answer, services at most one tool call, and reports the reply.
package chat

import (
	"context"
	"encoding/json"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

// Message roles understood by the completion service.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a function invocation requested by the model. Arguments is
// the raw JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool describes a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

type CompletionRequest struct {
	Messages []Message
	// Tools is empty for follow-up completions.
	Tools []Tool
}

type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Completer is a chat completion service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// Retriever returns passages relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// Indexer adds one file to the knowledge base.
type Indexer interface {
	AddDocument(ctx context.Context, path string) (domain.IngestReport, error)
}

// Registry resolves an uploaded file name to a local path.
type Registry interface {
	Lookup(name string) (string, bool)
}

// Exchange is one completed turn as shown to the user.
type Exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// History is the ordered list of exchanges in a session.
type History []Exchange

// MarshalJSON renders the history as [[user, assistant], ...].
func (h History) MarshalJSON() ([]byte, error) {
	pairs := make([][2]string, len(h))
	for i, e := range h {
		pairs[i] = [2]string{e.User, e.Assistant}
	}
	return json.Marshal(pairs)
}

func (h *History) UnmarshalJSON(data []byte) error {
	var pairs [][2]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	out := make(History, len(pairs))
	for i, p := range pairs {
		out[i] = Exchange{User: p[0], Assistant: p[1]}
	}
	*h = out
	return nil
}
