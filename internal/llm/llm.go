package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	// RoleCapabilityResult is the role of a message answering one tool call.
	// It rides the chat-completions wire as role "tool".
	RoleCapabilityResult = "tool"
)

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one capability invocation requested by the model. Arguments is
// the raw JSON argument object as produced by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool describes a capability to the model. Parameters is a JSON schema
// object for the argument mapping.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Decision is one oracle response: either plain content (terminal reply) or
// content plus one or more requested tool calls.
type Decision struct {
	Content   string
	ToolCalls []ToolCall
}

type Provider interface {
	Decide(ctx context.Context, messages []Message, tools []Tool) (*Decision, error)
	// DecideStream behaves like Decide but forwards content fragments to
	// onToken as they arrive. The returned Decision carries the full content.
	DecideStream(ctx context.Context, messages []Message, tools []Tool, onToken func(string)) (*Decision, error)
}

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return LocalProvider{}, nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	default:
		return nil, ErrUnsupportedProvider{Provider: cfg.Provider}
	}
}

// Oracle adapts a Provider to the orchestration loop: it injects the system
// instruction when the supplied history does not already begin with one. The
// prepend is per-call only, stored history is never mutated.
type Oracle struct {
	provider     Provider
	systemPrompt string
}

func NewOracle(provider Provider, systemPrompt string) *Oracle {
	return &Oracle{provider: provider, systemPrompt: systemPrompt}
}

func (o *Oracle) Decide(ctx context.Context, history []Message, tools []Tool) (*Decision, error) {
	return o.provider.Decide(ctx, o.withSystemPrompt(history), tools)
}

func (o *Oracle) DecideStream(ctx context.Context, history []Message, tools []Tool, onToken func(string)) (*Decision, error) {
	return o.provider.DecideStream(ctx, o.withSystemPrompt(history), tools, onToken)
}

func (o *Oracle) withSystemPrompt(history []Message) []Message {
	if o.systemPrompt == "" {
		return history
	}
	if len(history) > 0 && history[0].Role == RoleSystem {
		return history
	}
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: o.systemPrompt})
	return append(messages, history...)
}
