package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/scholarline/scholarline/engine/internal/config"
	"github.com/scholarline/scholarline/engine/internal/events"
	"github.com/scholarline/scholarline/engine/internal/search"
	"github.com/scholarline/scholarline/engine/internal/store"
)

type Server struct {
	store  store.Store
	engine TurnRunner
	broker Broker
	ranker *search.Ranker
	cfg    config.Config
	logger *zap.Logger
}

// TurnRunner drives one chat turn; the orchestration engine satisfies it.
type TurnRunner interface {
	RunTurn(ctx context.Context, threadID, userMessage string) (string, error)
	RunTurnStream(ctx context.Context, threadID, userMessage string) (string, error)
}

type Broker interface {
	Publish(event events.ChatEvent)
	Subscribe(ctx context.Context, threadID string) <-chan events.ChatEvent
}

func NewServer(st store.Store, eng TurnRunner, broker Broker, ranker *search.Ranker, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  st,
		engine: eng,
		broker: broker,
		ranker: ranker,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(quietRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Post("/chat", s.chat)
	r.Post("/chat/stream", s.chatStream)
	r.Get("/scholarships", s.listScholarships)
	r.Get("/scholarships/search", s.searchScholarships)
	r.Get("/scholarships/{id}", s.getScholarship)
	r.Post("/applications", s.createApplication)
	r.Get("/applications", s.listApplications)
	r.Get("/applications/{id}", s.getApplication)
	r.Get("/applications/{id}/tasks", s.listApplicationTasks)
	r.Post("/tasks", s.createTask)
	r.Get("/tasks/{id}", s.getTask)
	r.Get("/health", s.health)
	r.Get("/ready", s.ready)

	return r
}

func quietRequestLogger(next http.Handler) http.Handler {
	logged := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSuppressRequestLog(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

func shouldSuppressRequestLog(method string, path string) bool {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "/health" || cleanPath == "/ready" {
		return true
	}
	if method == http.MethodPost && cleanPath == "/chat/stream" {
		return true
	}
	return method == http.MethodOptions
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type subsystemStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                     `json:"status"`
	Subsystems map[string]subsystemStatus `json:"subsystems"`
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	subsystems := map[string]subsystemStatus{}
	overall := http.StatusOK

	if _, err := s.store.ListScholarships(ctx, 1); err != nil {
		subsystems["store"] = subsystemStatus{Status: "error", Error: err.Error()}
		overall = http.StatusServiceUnavailable
	} else {
		subsystems["store"] = subsystemStatus{Status: "ok"}
	}

	status := "ok"
	if overall != http.StatusOK {
		status = "degraded"
	}
	writeJSONStatus(w, readinessResponse{Status: status, Subsystems: subsystems}, overall)
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, map[string]string{"error": message}, statusCode)
}

func parseLimit(r *http.Request, names []string, fallback int) int {
	for _, name := range names {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			continue
		}
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()
	return server.ListenAndServe()
}
