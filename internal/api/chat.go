package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scholarline/scholarline/engine/internal/conversation"
	"github.com/scholarline/scholarline/engine/internal/events"
	"github.com/scholarline/scholarline/engine/internal/llm"
)

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	reply, err := s.engine.RunTurn(r.Context(), req.ThreadID, req.Message)
	if err != nil {
		s.writeTurnError(w, req.ThreadID, err)
		return
	}
	writeJSON(w, chatResponse{Response: reply, ThreadID: req.ThreadID})
}

// chatStream answers over SSE: token, status and a terminal done or error
// event, each as a data frame. The turn runs concurrently and is cancelled
// when the client goes away.
func (s *Server) chatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		writeError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	eventsChan := s.broker.Subscribe(ctx, req.ThreadID)

	go func() {
		if _, err := s.engine.RunTurnStream(ctx, req.ThreadID, req.Message); err != nil {
			s.logger.Warn("streamed turn failed",
				zap.String("thread_id", req.ThreadID),
				zap.Error(err))
		}
	}()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case event, open := <-eventsChan:
			if !open {
				return
			}
			sendSSE(w, event)
			flusher.Flush()
			if event.Type == events.TypeDone || event.Type == events.TypeError {
				return
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, "message is required", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		req.ThreadID = uuid.New().String()
	}
	return req, true
}

func (s *Server) writeTurnError(w http.ResponseWriter, threadID string, err error) {
	var oracleErr *llm.OracleError
	switch {
	case errors.Is(err, conversation.ErrThreadBusy):
		writeError(w, "a reply for this thread is already in progress", http.StatusConflict)
	case errors.As(err, &oracleErr):
		s.logger.Warn("oracle failure", zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, "language model backend failed", http.StatusBadGateway)
	default:
		s.logger.Warn("turn failed", zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func sendSSE(w http.ResponseWriter, event events.ChatEvent) {
	payload, _ := json.Marshal(event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
