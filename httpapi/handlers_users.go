package httpapi

import (
	"net/http"

	"task-portal/domain/chat"

	"github.com/samber/lo"
)

// handleUsers serves GET /api/users: everyone except the caller, for the
// chat sidebar and task assignment dropdown.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	users, err := s.users.ListOthers(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error("User listing failed", "error", err)
		writeError(w, err)
		return
	}

	// Password hashes never leave the repository layer.
	out := lo.Map(users, func(u chat.User, _ int) sessionUser {
		return sessionUser{ID: u.ID, Name: u.Name, Email: u.Email}
	})
	writeJSON(w, http.StatusOK, out)
}
