package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vea-app/vea/internal/gateway"
	"github.com/vea-app/vea/internal/store"
	"github.com/vea-app/vea/internal/types"
)

// chatTimeout bounds one synchronous chat request, long enough to cover the
// inline image polling budget.
const chatTimeout = 2 * time.Minute

// Server exposes the assistant over HTTP for the dashboard frontend.
type Server struct {
	gateway *gateway.Gateway
	secret  string
	http    *http.Server
}

// New creates the API server listening on addr.
func New(gw *gateway.Gateway, secret, addr string) *Server {
	s := &Server{gateway: gw, secret: secret}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.secret))
		r.Post("/chat", s.handleChat)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{sessionID}/messages", s.handleListMessages)
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http api listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	SessionID       string   `json:"session_id,omitempty"`
	Message         string   `json:"message"`
	ReferenceImages []string `json:"reference_images,omitempty"`
}

type chatResponse struct {
	SessionID types.SessionID `json:"session_id"`
	Reply     *types.Message  `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	session, reply, err := s.gateway.Chat(ctx, types.SessionID(req.SessionID), identity, req.Message, req.ReferenceImages)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, context.DeadlineExceeded):
			respondError(w, http.StatusGatewayTimeout, "The assistant took too long to respond")
		default:
			slog.Error("chat failed", "error", err)
			respondError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{SessionID: session.ID, Reply: reply})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	metas, err := s.gateway.Sessions().List(r.Context(), identity)
	if err != nil {
		slog.Error("session list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if metas == nil {
		metas = []*types.SessionMeta{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": metas})
}

type createSessionRequest struct {
	Title string `json:"title,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	title := req.Title
	if title == "" {
		title = "New conversation"
	}

	session := s.gateway.Sessions().Create(r.Context(), identity, title)
	respondJSON(w, http.StatusCreated, session.Meta())
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing identity")
		return
	}

	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))
	session, err := s.gateway.Sessions().Resolve(r.Context(), sessionID, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		slog.Error("session resolve failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"messages": session.Messages()})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
