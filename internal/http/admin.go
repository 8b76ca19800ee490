package http

import (
	"encoding/json"
	"net/http"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
)

// AdminHandler covers the authenticated role management surface.
type AdminHandler struct {
	Roles *service.RoleActionService
}

// HandleListRequests handles GET /api/admin/role-requests.
func (h *AdminHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	users, err := h.Roles.ListPending(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// HandleSetRole handles PUT /api/admin/users/{id}/role.
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badJSON(w)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Roles.SetRole(r.Context(), actorRole(r), r.PathValue("id"), role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
}

// HandleDeny handles POST /api/admin/users/{id}/role/deny.
func (h *AdminHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	u, err := h.Roles.Deny(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
}

// actorRole reads the caller's role out of the verified token claims.
func actorRole(r *http.Request) domain.Role {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return domain.Role(claims.Role)
}
