package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/domain"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/metrics"
)

// Options wires an Agent. Registry and Indexer may be nil when the
// session cannot add papers; the add tool then reports the file missing.
type Options struct {
	Completer    Completer
	Retriever    Retriever
	Indexer      Indexer
	Registry     Registry
	SystemPrompt string
	Fallback     string
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// Agent orchestrates chat turns. It holds no per-session state and may be
// shared by concurrent sessions.
type Agent struct {
	completer    Completer
	retriever    Retriever
	indexer      Indexer
	registry     Registry
	systemPrompt string
	fallback     string
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewAgent(opts Options) *Agent {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemPrompt
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Agent{
		completer:    opts.Completer,
		retriever:    opts.Retriever,
		indexer:      opts.Indexer,
		registry:     opts.Registry,
		systemPrompt: opts.SystemPrompt,
		fallback:     opts.Fallback,
		metrics:      opts.Metrics,
		logger:       opts.Logger.With("component", "chat"),
	}
}

// Turn answers message and returns history extended by exactly one
// exchange. Failures become an "Error: ..." reply; the input history is
// never modified.
func (a *Agent) Turn(ctx context.Context, history History, message string) History {
	reply, err := a.Respond(ctx, history, message)
	if err != nil {
		a.logger.Error("turn failed", "error", err)
		reply = "Error: " + err.Error()
	}
	out := make(History, len(history), len(history)+1)
	copy(out, history)
	return append(out, Exchange{User: message, Assistant: reply})
}

// Respond produces the assistant reply for message given prior history.
func (a *Agent) Respond(ctx context.Context, history History, message string) (string, error) {
	messages := a.compose(history, message)

	first, err := a.completer.Complete(ctx, CompletionRequest{Messages: messages, Tools: Catalog})
	if err != nil {
		a.metrics.Turn(metrics.OutcomeError)
		return "", domain.NewServiceError("completion", err)
	}
	if len(first.ToolCalls) == 0 {
		a.metrics.Turn(metrics.OutcomeAnswer)
		return first.Content, nil
	}

	// only the first call is serviced; the assistant turn must not announce
	// calls that get no tool result
	call := first.ToolCalls[0]
	if len(first.ToolCalls) > 1 {
		a.logger.Warn("ignoring extra tool calls", "count", len(first.ToolCalls))
	}
	a.metrics.ToolCall(call.Name)
	a.logger.Info("tool call", "tool", call.Name, "arguments", call.Arguments)

	var result string
	switch call.Name {
	case ToolRAGSearch:
		var args ragSearchArgs
		if err := decodeArgs(call, &args); err != nil || strings.TrimSpace(args.Query) == "" {
			a.metrics.Turn(metrics.OutcomeError)
			return "", invalidCall(call, err)
		}
		passages, err := a.retriever.Retrieve(ctx, args.Query)
		if err != nil {
			a.metrics.Turn(metrics.OutcomeError)
			return "", err
		}
		if len(passages) == 0 {
			a.metrics.Turn(metrics.OutcomeFallback)
			return a.fallback, nil
		}
		texts := make([]string, len(passages))
		for i, p := range passages {
			texts[i] = p.Chunk.Text
		}
		result = strings.Join(texts, "\n\n")

	case ToolAddNewPaper:
		var args addNewPaperArgs
		if err := decodeArgs(call, &args); err != nil || strings.TrimSpace(args.Filename) == "" {
			a.metrics.Turn(metrics.OutcomeError)
			return "", invalidCall(call, err)
		}
		path, ok := a.lookup(args.Filename)
		if !ok {
			a.metrics.Turn(metrics.OutcomeNotFound)
			return fmt.Sprintf("I couldn’t find the file '%s'. Make sure it was uploaded.", args.Filename), nil
		}
		report, err := a.indexer.AddDocument(ctx, path)
		if err != nil {
			result = "Failed to add document: " + err.Error()
		} else {
			result = "Paper indexed: " + report.String()
		}

	default:
		a.metrics.Turn(metrics.OutcomeError)
		return "", invalidCall(call, nil)
	}

	messages = append(messages,
		Message{Role: RoleAssistant, ToolCalls: []ToolCall{call}},
		Message{Role: RoleTool, ToolCallID: call.ID, Content: result},
	)
	followup, err := a.completer.Complete(ctx, CompletionRequest{Messages: messages})
	if err != nil {
		a.metrics.Turn(metrics.OutcomeError)
		return "", domain.NewServiceError("completion", err)
	}
	a.metrics.Turn(metrics.OutcomeAnswer)
	return followup.Content, nil
}

func (a *Agent) compose(history History, message string) []Message {
	messages := make([]Message, 0, 2*len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: a.systemPrompt})
	for _, e := range history {
		messages = append(messages,
			Message{Role: RoleUser, Content: e.User},
			Message{Role: RoleAssistant, Content: e.Assistant},
		)
	}
	return append(messages, Message{Role: RoleUser, Content: message})
}

func (a *Agent) lookup(name string) (string, bool) {
	if a.registry == nil || a.indexer == nil {
		return "", false
	}
	return a.registry.Lookup(name)
}

func decodeArgs(call ToolCall, v any) error {
	if strings.TrimSpace(call.Arguments) == "" {
		return errors.New("missing arguments")
	}
	return json.Unmarshal([]byte(call.Arguments), v)
}

func invalidCall(call ToolCall, cause error) error {
	err := fmt.Errorf("%w: %s", domain.ErrInvalidToolCall, call.Name)
	if cause != nil {
		err = fmt.Errorf("%w: %s: %v", domain.ErrInvalidToolCall, call.Name, cause)
	}
	return domain.NewServiceError("completion", err)
}
