package chi

import (
	"net/http"
	"strings"
)

// ConversationRequest is the body of POST /conversations.
type ConversationRequest struct {
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

// Converse handles POST /conversations. Action failures are reported in the
// response body with status "error", not as HTTP errors.
func (s *Server) Converse(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return
	}

	writeJSON(w, http.StatusOK, s.conversations.Handle(r.Context(), req.Text, req.UserID))
}
