package http

import (
	"encoding/json"
	"net/http"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
)

// TwoFAHandler covers TOTP enrolment for an authenticated session.
type TwoFAHandler struct {
	TwoFA  *service.TwoFAService
	Tokens *service.TokenService
}

// HandleSetup handles POST /api/auth/2fa/setup. Reachable by
// setup-limited sessions; each call issues a fresh candidate secret.
func (h *TwoFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())

	enr, err := h.TwoFA.Setup(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enr)
}

type twoFAVerifyRequest struct {
	Code string `json:"code"`
}

// HandleVerify handles POST /api/auth/2fa/verify. On success the
// candidate secret becomes active and a full-scope session replaces the
// setup-limited one.
func (h *TwoFAHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req twoFAVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	userID := httpx.UserIDFromContext(r.Context())

	u, err := h.TwoFA.Confirm(r.Context(), userID, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.Tokens.IssuePair(u, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":   toUserResponse(u),
		"tokens": pair,
	})
}
