package http

import (
	"encoding/json"
	"net/http"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
)

// SupportHandler relays the public contact form.
type SupportHandler struct {
	Support *service.SupportService
}

type supportRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// HandleContact handles POST /api/support/contact.
func (h *SupportHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req supportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	err := h.Support.Contact(r.Context(), service.SupportInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "thanks, we'll be in touch"})
}
