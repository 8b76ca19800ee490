package http

import (
	"errors"
	"net/http"

	"github.com/itas-team/itas/internal/service"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/httpx"
	"github.com/itas-team/itas/pkg/slogx"
)

// writeServiceError maps service sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the real error goes to the
// log only.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTwoFANotEnrolled):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRoleNotGranted),
		errors.Is(err, service.ErrNotAllowed):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrTwoFAEnabled),
		errors.Is(err, service.ErrActionSettled):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTOTPCode),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrActionTokenInvalid):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func badJSON(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid JSON body")
}
