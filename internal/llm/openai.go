package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []chatTool    `json:"tools,omitempty"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCall struct {
	Index    *int                 `json:"index,omitempty"`
	ID       string               `json:"id,omitempty"`
	Type     string               `json:"type,omitempty"`
	Function chatToolCallFunction `json:"function"`
}

type chatToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Decide(ctx context.Context, messages []Message, tools []Tool) (*Decision, error) {
	resp, err := p.post(ctx, messages, tools, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &OracleError{Reason: "malformed response body", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &OracleError{Reason: "response had no choices"}
	}
	choice := parsed.Choices[0].Message
	decision := &Decision{Content: strings.TrimSpace(choice.Content)}
	for _, call := range choice.ToolCalls {
		if call.Function.Name == "" {
			continue
		}
		decision.ToolCalls = append(decision.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	if decision.Content == "" && len(decision.ToolCalls) == 0 {
		return nil, &OracleError{Reason: "response carried neither content nor tool calls"}
	}
	return decision, nil
}

func (p *OpenAIProvider) DecideStream(ctx context.Context, messages []Message, tools []Tool, onToken func(string)) (*Decision, error) {
	resp, err := p.post(ctx, messages, tools, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var content strings.Builder
	partials := map[int]*ToolCall{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &OracleError{Reason: "malformed stream chunk", Err: err}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onToken != nil {
				onToken(delta.Content)
			}
		}
		for _, call := range delta.ToolCalls {
			index := 0
			if call.Index != nil {
				index = *call.Index
			}
			partial, ok := partials[index]
			if !ok {
				partial = &ToolCall{}
				partials[index] = partial
			}
			if call.ID != "" {
				partial.ID = call.ID
			}
			if call.Function.Name != "" {
				partial.Name = call.Function.Name
			}
			partial.Arguments += call.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &OracleError{Reason: "stream read failed", Err: err}
	}

	decision := &Decision{Content: content.String()}
	indexes := make([]int, 0, len(partials))
	for index := range partials {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		call := partials[index]
		if call.Name == "" {
			return nil, &OracleError{Reason: "stream tool call missing name"}
		}
		decision.ToolCalls = append(decision.ToolCalls, *call)
	}
	if decision.Content == "" && len(decision.ToolCalls) == 0 {
		return nil, &OracleError{Reason: "stream carried neither content nor tool calls"}
	}
	return decision, nil
}

func (p *OpenAIProvider) post(ctx context.Context, messages []Message, tools []Tool, stream bool) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, &OracleError{Reason: "missing API key for remote provider", Err: errors.New("empty OPENAI_API_KEY")}
	}
	if p.model == "" {
		return nil, &OracleError{Reason: "missing model for remote provider"}
	}
	payload := chatRequest{
		Model:    p.model,
		Messages: toWireMessages(messages),
		Tools:    toWireTools(tools),
		Stream:   stream,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &OracleError{Reason: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &OracleError{Reason: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &OracleError{Reason: "request failed", Err: err}
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &OracleError{Reason: "request failed: " + resp.Status}
	}
	return resp, nil
}

func toWireMessages(messages []Message) []chatMessage {
	wire := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		converted := chatMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			converted.ToolCalls = append(converted.ToolCalls, chatToolCall{
				ID:   call.ID,
				Type: "function",
				Function: chatToolCallFunction{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		wire = append(wire, converted)
	}
	return wire
}

func toWireTools(tools []Tool) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	wire := make([]chatTool, 0, len(tools))
	for _, tool := range tools {
		wire = append(wire, chatTool{
			Type: "function",
			Function: chatToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return wire
}
