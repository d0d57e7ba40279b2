package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/scholarline/scholarline/engine/internal/capability"
	"github.com/scholarline/scholarline/engine/internal/conversation"
	"github.com/scholarline/scholarline/engine/internal/events"
	"github.com/scholarline/scholarline/engine/internal/llm"
)

// ErrMaxIterations marks a turn that exceeded the oracle round-trip budget.
var ErrMaxIterations = errors.New("maximum oracle round-trips exceeded")

// Oracle is the decision component: given history it returns either a plain
// reply or requested capability calls. llm.Oracle satisfies it; tests use
// scripted stubs.
type Oracle interface {
	Decide(ctx context.Context, history []llm.Message, tools []llm.Tool) (*llm.Decision, error)
	DecideStream(ctx context.Context, history []llm.Message, tools []llm.Tool, onToken func(string)) (*llm.Decision, error)
}

type Engine struct {
	oracle        Oracle
	registry      *capability.Registry
	log           *conversation.Log
	broker        *events.Broker
	logger        *zap.Logger
	maxIterations int
}

func New(oracle Oracle, registry *capability.Registry, log *conversation.Log, broker *events.Broker, logger *zap.Logger, maxIterations int) *Engine {
	if maxIterations <= 0 {
		maxIterations = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		oracle:        oracle,
		registry:      registry,
		log:           log,
		broker:        broker,
		logger:        logger,
		maxIterations: maxIterations,
	}
}

// RunTurn drives one synchronous turn: append the user message, alternate
// oracle decisions with capability execution, and return the terminal reply.
func (e *Engine) RunTurn(ctx context.Context, threadID, userMessage string) (string, error) {
	return e.run(ctx, threadID, userMessage, nil)
}

// RunTurnStream is RunTurn with incremental delivery: content tokens and
// capability status notices are published to the broker as they happen,
// followed by a terminal done or error event.
func (e *Engine) RunTurnStream(ctx context.Context, threadID, userMessage string) (string, error) {
	emit := func(eventType, content string) {
		e.broker.Publish(events.ChatEvent{ThreadID: threadID, Type: eventType, Content: content})
	}
	reply, err := e.run(ctx, threadID, userMessage, emit)
	if err != nil {
		emit(events.TypeError, userFacingError(err))
		return "", err
	}
	emit(events.TypeDone, "")
	return reply, nil
}

func (e *Engine) run(ctx context.Context, threadID, userMessage string, emit func(eventType, content string)) (string, error) {
	thread, err := e.log.Acquire(threadID)
	if err != nil {
		return "", err
	}
	defer thread.Release()

	thread.Append(llm.Message{Role: llm.RoleUser, Content: userMessage})
	tools := e.registry.Tools()

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		decision, err := e.decide(ctx, thread.Snapshot(), tools, emit)
		if err != nil {
			return "", err
		}
		// cancellation is observed at suspension points only; nothing is
		// appended once the caller has gone away
		if err := ctx.Err(); err != nil {
			return "", err
		}

		thread.Append(llm.Message{
			Role:      llm.RoleAssistant,
			Content:   decision.Content,
			ToolCalls: decision.ToolCalls,
		})

		if len(decision.ToolCalls) == 0 {
			e.logger.Info("turn complete",
				zap.String("thread_id", threadID),
				zap.Int("oracle_round_trips", iteration+1))
			return decision.Content, nil
		}

		if err := e.executeCalls(ctx, thread, decision.ToolCalls, emit); err != nil {
			return "", err
		}
	}

	e.logger.Warn("turn aborted", zap.String("thread_id", threadID), zap.Int("max_iterations", e.maxIterations))
	return "", ErrMaxIterations
}

func (e *Engine) decide(ctx context.Context, history []llm.Message, tools []llm.Tool, emit func(string, string)) (*llm.Decision, error) {
	if emit == nil {
		return e.oracle.Decide(ctx, history, tools)
	}
	return e.oracle.DecideStream(ctx, history, tools, func(token string) {
		emit(events.TypeToken, token)
	})
}

// executeCalls runs the batch sequentially in request order. Every call gets
// exactly one result message before the oracle is consulted again; local and
// downstream failures are reported to the oracle rather than swallowed.
func (e *Engine) executeCalls(ctx context.Context, thread *conversation.Thread, calls []llm.ToolCall, emit func(string, string)) error {
	var fatal error
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return err
		}

		var content string
		if fatal != nil {
			content = errorPayload("turn aborted before this call executed")
		} else {
			if emit != nil {
				emit(events.TypeStatus, fmt.Sprintf("Calling %s...", call.Name))
			}
			payload, err := e.registry.Execute(ctx, call.Name, call.Arguments)
			switch {
			case err == nil:
				content = resultPayload(payload)
			case isFatalCapabilityError(err):
				fatal = err
				content = errorPayload(err.Error())
			default:
				e.logger.Warn("capability failed",
					zap.String("thread_id", thread.ID()),
					zap.String("capability", call.Name),
					zap.Error(err))
				content = errorPayload(err.Error())
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		thread.Append(llm.Message{
			Role:       llm.RoleCapabilityResult,
			ToolCallID: call.ID,
			Content:    content,
		})
	}
	return fatal
}

func isFatalCapabilityError(err error) bool {
	var unknown *capability.UnknownCapabilityError
	return errors.As(err, &unknown)
}

func resultPayload(payload any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return errorPayload("capability result could not be encoded")
	}
	return string(encoded)
}

func errorPayload(message string) string {
	encoded, _ := json.Marshal(map[string]string{"status": "error", "error": message})
	return string(encoded)
}

func userFacingError(err error) string {
	switch {
	case errors.Is(err, ErrMaxIterations):
		return "Sorry, this request needed too many steps. Please try rephrasing it."
	case errors.Is(err, conversation.ErrThreadBusy):
		return "Another reply for this conversation is still in progress. Please wait for it to finish."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was cancelled."
	default:
		return "Sorry, something went wrong while generating a reply."
	}
}
