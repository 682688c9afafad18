// Package httpapi wraps the conversational graph driver in the five HTTP
// endpoints of §6: POST /api/chat, GET /api/schemas(/{filename}),
// POST /api/sessions/reset, GET /api/health — a plain http.ServeMux with
// one handler per route and an explicit Start/Stop lifecycle, with
// request/response contracts taken verbatim from backend/api/routes.py.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/formpilotai/formpilot/internal/action"
	"github.com/formpilotai/formpilot/internal/ferrors"
	"github.com/formpilotai/formpilot/internal/formctx"
	"github.com/formpilotai/formpilot/internal/graph"
	"github.com/formpilotai/formpilot/internal/llm"
	"github.com/formpilotai/formpilot/internal/schemas"
	"github.com/formpilotai/formpilot/internal/session"
	"github.com/formpilotai/formpilot/internal/sessionstore"
)

// Server hosts the HTTP surface. Construct with New, then Start/Stop for
// its lifecycle.
type Server struct {
	store         *sessionstore.Store
	client        llm.Client
	model         string
	schemas       *schemas.Store
	schemaIndex   *schemas.Index
	corsOrigins   string
	log           *slog.Logger
	server        *http.Server
	shutdownTTL   time.Duration
}

// Config collects Server's construction-time dependencies.
type Config struct {
	Store         *sessionstore.Store
	Client        llm.Client
	Model         string
	Schemas       *schemas.Store
	CORSOrigins   string
	Addr          string
	Log           *slog.Logger
	ShutdownTTL   time.Duration
}

// New builds a Server bound to addr but not yet listening.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	shutdownTTL := cfg.ShutdownTTL
	if shutdownTTL <= 0 {
		shutdownTTL = 10 * time.Second
	}

	s := &Server{
		store:       cfg.Store,
		client:      cfg.Client,
		model:       cfg.Model,
		schemas:     cfg.Schemas,
		schemaIndex: schemas.NewIndex(),
		corsOrigins: cfg.CORSOrigins,
		log:         log,
		shutdownTTL: shutdownTTL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.withCORS(s.handleChat))
	mux.HandleFunc("GET /api/schemas", s.withCORS(s.handleListSchemas))
	mux.HandleFunc("GET /api/schemas/{filename}", s.withCORS(s.handleGetSchema))
	mux.HandleFunc("POST /api/sessions/reset", s.withCORS(s.handleResetSession))
	mux.HandleFunc("GET /api/health", s.withCORS(s.handleHealth))

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	return s
}

// Start begins serving in a background goroutine, logging rather than
// failing the caller if the listener stops unexpectedly.
func (s *Server) Start() {
	go func() {
		s.log.Info("http server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down within the configured deadline.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTTL)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	origin := s.corsOrigins
	if origin == "" {
		origin = "*"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, ferrors.HTTPStatus(err), map[string]string{"detail": err.Error()})
}

// --- /api/chat ---

type chatRequest struct {
	FormContextMD  string              `json:"form_context_md"`
	UserMessage    string              `json:"user_message"`
	ConversationID string              `json:"conversation_id,omitempty"`
	ToolResults    []session.ToolResult `json:"tool_results,omitempty"`
}

type chatResponse struct {
	Action         action.Action  `json:"action"`
	ConversationID string         `json:"conversation_id"`
	Answers        map[string]any `json:"answers"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	sess, err := s.resolveSession(req)
	if err != nil {
		writeError(w, err)
		return
	}

	s.store.Lock(sess.ConversationID)
	defer s.store.Unlock(sess.ConversationID)

	act := s.runTurn(r.Context(), sess, req.UserMessage, req.ToolResults)

	writeJSON(w, http.StatusOK, chatResponse{
		Action:         act,
		ConversationID: sess.ConversationID,
		Answers:        sess.Form.AllAnswers(),
	})
}

// runTurn drives the graph for one turn against an already-locked session.
// Callers (handleChat, HandleChatPlatformEvent) are responsible for
// acquiring sess's per-conversation lock first.
//
// Nodes mutate Form/State starting with the very first one (recordUserMessage
// appends to history before any LLM call runs), so the graph is run against
// clones rather than sess's live pointers. A turn commits its clones back
// into sess only if it returns without the context having been canceled or
// timed out — a request cancellation aborts the in-flight LLM call, and any
// partial state a node already wrote before that point is discarded rather
// than persisted (§5).
func (s *Server) runTurn(ctx context.Context, sess *sessionstore.Session, userMessage string, toolResults []session.ToolResult) action.Action {
	form := sess.Form.Clone()
	st := sess.State.Clone()

	act := graph.Run(ctx, s.client, s.model, sess.FormContext, form, st, graph.Input{
		UserMessage: userMessage,
		ToolResults: toolResults,
	}, s.log)

	if ctx.Err() != nil {
		return act
	}

	sess.Form = form
	sess.State = st
	return act
}

// resolveSession resumes an existing session by conversation_id, or
// creates a new one from form_context_md. Grounded on routes.py's chat
// handler: "try to resume, else create new".
func (s *Server) resolveSession(req chatRequest) (*sessionstore.Session, error) {
	if req.ConversationID != "" {
		if sess, ok := s.store.Get(req.ConversationID); ok {
			return sess, nil
		}
	}

	if strings.TrimSpace(req.FormContextMD) == "" {
		return nil, ferrors.MalformedRequest("form_context_md cannot be empty")
	}

	fc, err := formctx.Parse(req.FormContextMD)
	if err != nil {
		return nil, ferrors.MalformedRequest(fmt.Sprintf("invalid form_context_md: %v", err))
	}
	if fc.Schema == nil {
		return nil, ferrors.MalformedRequest("form_context_md must declare a structured schema in its YAML frontmatter")
	}

	return s.store.Create(req.ConversationID, "", fc), nil
}

// --- /api/schemas ---

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	if s.schemas == nil {
		writeJSON(w, http.StatusOK, map[string]any{"schemas": []schemas.Entry{}})
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		results, err := s.schemaIndex.Search(s.schemas, q, 10)
		if err != nil {
			writeError(w, fmt.Errorf("search schemas: %w", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schemas": results})
		return
	}

	entries, err := s.schemas.List()
	if err != nil {
		writeError(w, fmt.Errorf("list schemas: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": entries})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if s.schemas == nil {
		writeError(w, ferrors.SchemaNotFound(filename))
		return
	}

	content, err := s.schemas.Get(filename)
	if err != nil {
		if errors.Is(err, schemas.ErrNotFound) {
			writeError(w, ferrors.SchemaNotFound(fmt.Sprintf("schema %q not found", filename)))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filename": filename, "content": content})
}

// --- /api/sessions/reset ---

type resetRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	deleted := s.store.Delete(req.ConversationID)
	message := "Session not found"
	if deleted {
		message = "Session reset"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": deleted, "message": message})
}

// --- /api/health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"active_sessions": s.store.Count(),
	})
}
