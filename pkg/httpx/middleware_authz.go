package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyScope lets the request through when the caller's token carries at
// least one of the listed scopes. Sessions issued before 2FA enrollment only
// carry the setup scopes, so this is what keeps a setup-limited session away
// from the rest of the API.
func RequireAnyScope(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range scopesFromCtx(r.Context()) {
				if _, ok := want[s]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeBearerScopeError(w, required...)
		})
	}
}

// RFC 6750-compliant error response for insufficient scope.
func writeBearerScopeError(w http.ResponseWriter, required ...string) {
	w.Header().Set("WWW-Authenticate",
		`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "Forbidden")
}
