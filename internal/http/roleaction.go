package http

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/pkg/httpx"
	"github.com/itas-team/itas/pkg/slogx"
)

//go:embed templates/roleaction.html
var roleActionFS embed.FS

var roleActionTmpl = template.Must(template.ParseFS(roleActionFS, "templates/roleaction.html"))

// RoleActionHandler serves the terminal page behind the approve/deny
// links in the reviewer email. It is the one HTML surface the API has.
type RoleActionHandler struct {
	Roles *service.RoleActionService
}

type roleActionPage struct {
	Title   string
	Class   string
	Message string
}

// HandleAction handles GET /api/admin/role-action?token=...
func (h *RoleActionHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	dec, err := h.Roles.Apply(r.Context(), token)
	if err != nil {
		status := http.StatusBadRequest
		page := roleActionPage{
			Title:   "Link invalid or expired",
			Class:   "err",
			Message: "This approval link is no longer valid. Ask the requester to submit the role request again.",
		}
		if !errors.Is(err, service.ErrActionTokenInvalid) {
			slogx.FromContext(r.Context()).Error("role action failed", "error", err)
			status = http.StatusInternalServerError
			page = roleActionPage{
				Title:   "Something went wrong",
				Class:   "err",
				Message: "The decision could not be recorded. Try the link again in a moment.",
			}
		}
		h.render(w, status, page)
		return
	}

	page := roleActionPage{
		Title:   "Role request approved",
		Class:   "ok",
		Message: fmt.Sprintf("%s (%s) now has the %s role.", dec.UserName, dec.UserEmail, dec.Role),
	}
	if dec.Action == "deny" {
		page = roleActionPage{
			Title:   "Role request denied",
			Class:   "deny",
			Message: fmt.Sprintf("The %s request from %s (%s) was declined.", dec.Role, dec.UserName, dec.UserEmail),
		}
	}
	if dec.Settled {
		page.Message += " This request had already been decided; nothing changed."
	}

	h.render(w, http.StatusOK, page)
}

func (h *RoleActionHandler) render(w http.ResponseWriter, status int, page roleActionPage) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = roleActionTmpl.Execute(w, page)
}
