package llm

import (
	"context"
)

// LocalProvider is the no-key fallback. It never requests tool calls.
type LocalProvider struct{}

const localReply = "Language model access is not configured. Set OPENAI_API_KEY and restart the engine to enable the scholarship assistant."

func (LocalProvider) Decide(ctx context.Context, messages []Message, tools []Tool) (*Decision, error) {
	return &Decision{Content: localReply}, nil
}

func (LocalProvider) DecideStream(ctx context.Context, messages []Message, tools []Tool, onToken func(string)) (*Decision, error) {
	if onToken != nil {
		onToken(localReply)
	}
	return &Decision{Content: localReply}, nil
}
