package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"task-portal/domain/chat"
)

type newTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AssignedTo  int64  `json:"assigned_to"`
}

// handleDashboard serves GET /api/dashboard: the caller's assigned tasks plus
// the session user, so the frontend can bootstrap its context in one call.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	tasks, err := s.tasks.ListAssignedTo(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error("Dashboard fetch failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []chat.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  sessionUser{ID: claims.UserID, Name: claims.Name, Email: claims.Email},
		"tasks": tasks,
	})
}

func (s *Server) handleNewTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req newTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request"})
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.AssignedTo <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "title and assigned_to are required"})
		return
	}

	if err := s.tasks.Create(r.Context(), req.Title, req.Description, claims.UserID, req.AssignedTo); err != nil {
		s.log.Error("Task creation failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Task created successfully"})
}

// handleDeleteTask serves DELETE /api/task/{id}. Only the assignee may
// delete, the repository enforces that in the statement itself.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	taskID, ok := pathID(r.URL.Path, "/api/task/")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid task id"})
		return
	}

	affected, err := s.tasks.Delete(r.Context(), taskID, claims.UserID)
	if err != nil {
		s.log.Error("Task deletion failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	if affected == 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Task deleted successfully"})
}
