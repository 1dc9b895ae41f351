package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chat"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestCompleter(t *testing.T, status int, body string) (*Completer, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return newCompleter(Config{BaseURL: srv.URL, Model: "gpt-4o"}, "test-key"), got
}

func TestComplete_ToolCallRoundTrip(t *testing.T) {
	c, got := newTestCompleter(t, http.StatusOK, `{
		"id": "x", "object": "chat.completion", "model": "gpt-4o",
		"choices": [{"index": 0, "finish_reason": "tool_calls", "message": {
			"role": "assistant", "content": "",
			"tool_calls": [{"id": "call_9", "type": "function", "function": {"name": "rag_search", "arguments": "{\"query\":\"attention\"}"}}]
		}}]
	}`)

	out, err := c.Complete(context.Background(), chat.CompletionRequest{
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "sys"},
			{Role: chat.RoleAssistant, ToolCalls: []chat.ToolCall{{ID: "call_1", Name: "rag_search", Arguments: `{"query":"q"}`}}},
			{Role: chat.RoleTool, ToolCallID: "call_1", Content: "ctx"},
		},
		Tools: chat.Catalog,
	})
	require.NoError(t, err)
	assert.Equal(t, []chat.ToolCall{{ID: "call_9", Name: "rag_search", Arguments: `{"query":"attention"}`}}, out.ToolCalls)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "function", got.Messages[1].ToolCalls[0].Type)
	assert.Equal(t, "rag_search", got.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
	require.Len(t, got.Tools, 2)
	assert.Equal(t, "add_new_paper", got.Tools[0].Function.Name)
	assert.JSONEq(t, string(chat.Catalog[1].Parameters), string(got.Tools[1].Function.Parameters))
}

func TestComplete_PlainAnswerWithoutTools(t *testing.T) {
	c, got := newTestCompleter(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Hello."}}]}`)
	out, err := c.Complete(context.Background(), chat.CompletionRequest{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello.", out.Content)
	assert.Empty(t, out.ToolCalls)
	assert.Empty(t, got.Tools)
}

func TestComplete_Errors(t *testing.T) {
	c, _ := newTestCompleter(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	_, err := c.Complete(context.Background(), chat.CompletionRequest{Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")

	c, _ = newTestCompleter(t, http.StatusOK, `{"choices":[]}`)
	_, err = c.Complete(context.Background(), chat.CompletionRequest{Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}}})
	assert.EqualError(t, err, "empty completion")
}

func TestNewCompleter_RequiresKey(t *testing.T) {
	t.Setenv("ZURI_TEST_MISSING_KEY", "")
	_, err := NewCompleter(Config{APIKeyEnv: "ZURI_TEST_MISSING_KEY"})
	assert.ErrorIs(t, err, domain.ErrConfig)
}
