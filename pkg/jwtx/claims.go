// Package jwtx signs and verifies the service's HMAC (HS256) tokens.
//
// Four token kinds exist, each bound to its own signing secret so a leaked
// token of one kind can never be replayed as another: a 2FA stage token is
// useless against endpoints expecting an access token, and a role-action
// token embedded in an email link never authenticates as the user.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind identifies which class of token a set of claims belongs to.
type Kind string

const (
	// KindAccess is the short-lived bearer token for API calls.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived token exchanged for new pairs.
	KindRefresh Kind = "refresh"
	// KindStage proves the password step of a 2FA login succeeded. It
	// grants no resource access and is only accepted by the 2FA code
	// verification endpoint.
	KindStage Kind = "2fa_stage"
	// KindAction carries a pending role approve/deny decision. It is
	// self-contained and time-boxed, safe to embed in a plain URL.
	KindAction Kind = "role_action"
)

// Default token lifetimes. Services may override per-kind via config.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
	DefaultStageTTL   = 3 * time.Minute
	DefaultActionTTL  = 48 * time.Hour
)

// Claims is the single claim set shared by all token kinds. Fields that do
// not apply to a kind are simply omitted from the encoded token.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is embedded in the token as defense in depth on top of the
	// per-kind secrets.
	Kind Kind `json:"knd"`

	// Email and Role identify a session subject (access/refresh only).
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	// Scopes limit what a session token may reach. Sessions issued before
	// 2FA enrollment completes carry only the setup scopes.
	Scopes []string `json:"scopes,omitempty"`

	// Action and RequestedRole describe a role decision (action tokens only).
	Action        string `json:"act,omitempty"`
	RequestedRole string `json:"req,omitempty"`
}

// NewSessionClaims builds claims for an access or refresh token.
func NewSessionClaims(kind Kind, subject, email, role string, scopes []string) Claims {
	return Claims{
		Kind:   kind,
		Email:  email,
		Role:   role,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      NewJTI(),
		},
	}
}

// NewStageClaims builds claims for a 2FA stage token.
func NewStageClaims(subject string) Claims {
	return Claims{
		Kind: KindStage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      NewJTI(),
		},
	}
}

// NewActionClaims builds claims for a role approve/deny action token.
func NewActionClaims(subject, action, requestedRole string) Claims {
	return Claims{
		Kind:          KindAction,
		Action:        action,
		RequestedRole: requestedRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			ID:      NewJTI(),
		},
	}
}

// HasScope reports whether the claims grant the given scope.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
