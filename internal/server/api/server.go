// Package api serves the read/delete REST interface used by the dashboard,
// plus health and Prometheus endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

type MessageStore interface {
	List(ctx context.Context, usernamePrefix string) ([]models.Message, error)
}

type SessionCounter interface {
	Count() int
}

type Server struct {
	users    UserStore
	messages MessageStore
	sessions SessionCounter
	metrics  http.Handler
	log      logging.Logger

	router *httprouter.Router
	server *http.Server
}

// NewServer builds the router. metrics may be nil, which leaves /metrics
// unrouted.
func NewServer(addr string, users UserStore, messages MessageStore, sessions SessionCounter, metrics http.Handler, log logging.Logger) *Server {
	s := &Server{
		users:    users,
		messages: messages,
		sessions: sessions,
		metrics:  metrics,
		log:      log.With("module", "api"),
		router:   httprouter.New(),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/users", s.handleUsers)
	s.router.DELETE("/users/:id", s.handleDeleteUser)
	s.router.GET("/messages", s.handleMessages)
	if s.metrics != nil {
		s.router.Handler(http.MethodGet, "/metrics", s.metrics)
	}
}

func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type healthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	LastLogin *time.Time `json:"last_login"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ActiveSessions: s.sessions.Count()})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		ur := userResponse{ID: u.ID, Username: u.UserName}
		if !u.LastLogin.IsZero() {
			t := u.LastLogin
			ur.LastLogin = &t
		}
		out = append(out, ur)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := s.messages.List(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, messageResponse{ID: m.ID, Username: m.UserName, Text: m.Data, Timestamp: m.Timestamp})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := uuid.Parse(ps.ByName("id"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	switch err := s.users.DeleteUser(r.Context(), id.String()); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrorNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn(context.Background(), "unable to write response", "error", err)
	}
}
