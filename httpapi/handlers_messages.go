package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"task-portal/domain/chat"
)

// handleHistory serves GET /api/messages/{otherUserId}: the full conversation
// between the caller and the other user, oldest first. Computed from the same
// ledger queries the socket path uses.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	otherID, ok := pathID(r.URL.Path, "/api/messages/")
	if !ok || otherID == claims.UserID {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user id"})
		return
	}

	messages, err := s.chat.History(r.Context(), claims.UserID, otherID)
	if err != nil {
		s.log.Error("History fetch failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// handleUnreadCounts serves GET /api/messages/unread-counts: the caller's
// full per-peer unread snapshot, the same mapping pushed over the socket.
func (s *Server) handleUnreadCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	counts, err := s.chat.UnreadCounts(r.Context(), claims.UserID)
	if err != nil {
		s.log.Error("Unread count fetch failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	if counts == nil {
		counts = map[int64]int64{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// handleMarkRead serves POST /api/messages/mark-read/{otherUserId}. It runs
// the very same service operation as the socket event, so the unread pushes
// to both participants fire here too.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := claimsFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	otherID, ok := pathID(r.URL.Path, "/api/messages/mark-read/")
	if !ok || otherID == claims.UserID {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid user id"})
		return
	}

	affected, err := s.chat.MarkRead(r.Context(), chat.MarkReadCommand{
		ReaderID: claims.UserID,
		PeerID:   otherID,
	})
	if err != nil {
		s.log.Error("Mark read failed", "user_id", claims.UserID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": affected})
}

// pathID extracts a positive integer id following the given route prefix.
func pathID(path, prefix string) (int64, bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
