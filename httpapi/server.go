// Package httpapi is the REST facade. Every messaging endpoint goes through
// the same ChatService as the socket path, so both views always agree.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"task-portal/observability"
	"task-portal/repositories"
	"task-portal/services"
	"task-portal/ws"
)

type Server struct {
	log     *slog.Logger
	chat    services.IChatService
	auth    services.IAuthService
	users   repositories.IUserRepository
	tasks   repositories.ITaskRepository
	monitor *observability.Manager
	socket  *ws.Handler

	secret        []byte
	tokenTTL      time.Duration
	allowedOrigin string
	secureCookies bool

	mux *http.ServeMux
}

func NewServer(log *slog.Logger, chat services.IChatService, auth services.IAuthService,
	users repositories.IUserRepository, tasks repositories.ITaskRepository,
	monitor *observability.Manager, socket *ws.Handler,
	secret []byte, tokenTTL time.Duration, allowedOrigin string, secureCookies bool) *Server {
	s := &Server{
		log:           log,
		chat:          chat,
		auth:          auth,
		users:         users,
		tasks:         tasks,
		monitor:       monitor,
		socket:        socket,
		secret:        secret,
		tokenTTL:      tokenTTL,
		allowedOrigin: allowedOrigin,
		secureCookies: secureCookies,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/ws", s.socket.Handle)

	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.HandleFunc("/api/logout", s.handleLogout)
	s.mux.HandleFunc("/api/me", s.handleMe)

	s.mux.HandleFunc("/api/users", s.handleUsers)
	s.mux.HandleFunc("/api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("/api/task/new", s.handleNewTask)
	s.mux.HandleFunc("/api/task/", s.handleDeleteTask)

	// Longest-prefix routing keeps the fixed paths out of the
	// /api/messages/{otherUserId} wildcard.
	s.mux.HandleFunc("/api/messages/unread-counts", s.handleUnreadCounts)
	s.mux.HandleFunc("/api/messages/mark-read/", s.handleMarkRead)
	s.mux.HandleFunc("/api/messages/", s.handleHistory)

	s.mux.HandleFunc("/api/stats", s.handleStats)
}

// Handler wraps the mux with the CORS and session middlewares.
func (s *Server) Handler() http.Handler {
	return s.withCORS(s.withSession(s.mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "API running"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.monitor.Snapshot())
}
