package http

import (
	"encoding/json"
	"net/http"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
)

// AuthHandler covers registration, the two-step login, refresh and
// password recovery.
type AuthHandler struct {
	Auth *service.AuthService
}

type registerRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	RequestedRole string `json:"requested_role,omitempty"`
}

// HandleRegister handles POST /api/auth/register. The response carries
// the profile only; the client has to log in and enrol in 2FA before it
// gets any tokens.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	u, err := h.Auth.Register(r.Context(), service.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		RequestedRole: req.RequestedRole,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"user": toUserResponse(u),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // optional hint, must match the held role
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse(res))
}

type twoFALoginRequest struct {
	StageToken string `json:"stage_token"`
	Code       string `json:"code"`
}

// Handle2FALogin handles POST /api/auth/2fa/login, the second login step.
func (h *AuthHandler) Handle2FALogin(w http.ResponseWriter, r *http.Request) {
	var req twoFALoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	res, err := h.Auth.Verify2FALogin(r.Context(), req.StageToken, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse(res))
}

func loginResponse(res *service.LoginResult) map[string]any {
	out := map[string]any{
		"status": res.Status,
		"user":   toUserResponse(res.User),
	}
	if res.StageToken != "" {
		out["stage_token"] = res.StageToken
	}
	if res.Tokens != nil {
		out["tokens"] = res.Tokens
	}
	return out
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleRefresh handles POST /api/auth/refresh.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	pair, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

// HandleLogout handles POST /api/auth/logout. Sessions are stateless so
// there is nothing to revoke server-side; clients drop their tokens.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

type forgotRequest struct {
	Email string `json:"email"`
}

// HandleForgot handles POST /api/auth/forgot. Always 200 so the endpoint
// cannot confirm which emails exist.
func (h *AuthHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	if err := h.Auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "if that account exists, a reset link is on its way",
	})
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleReset handles POST /api/auth/reset.
func (h *AuthHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	if err := h.Auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// HandleMe handles GET /api/auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())

	u, err := h.Auth.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
}
