package httpx

import (
	"context"

	"github.com/itas-team/itas/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated subject, or "" when the
// request did not pass AuthnMiddleware.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified access-token claims.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

func scopesFromCtx(ctx context.Context) []string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Scopes
	}
	return nil
}
