package service

import (
	"fmt"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/pkg/jwtx"
)

// TokenPair is a full session: short-lived access token plus the refresh
// token used to mint the next pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenService issues and verifies the four token kinds. Each kind has
// its own signer and secret, so a token of one kind never verifies as
// another even if two secrets are accidentally set equal.
type TokenService struct {
	Access  *jwtx.Signer
	Refresh *jwtx.Signer
	Stage   *jwtx.Signer
	Action  *jwtx.Signer
}

// IssuePair mints an access/refresh pair for a user. Scopes come from
// the role unless the session is setup-limited.
func (s *TokenService) IssuePair(u *domain.User, setupLimited bool) (TokenPair, error) {
	scopes := u.Role.Scopes()
	if setupLimited {
		scopes = domain.SetupScopes()
	}

	access, err := s.Access.Sign(jwtx.NewSessionClaims(jwtx.KindAccess, u.ID, u.Email, u.Role.String(), scopes))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.Refresh.Sign(jwtx.NewSessionClaims(jwtx.KindRefresh, u.ID, u.Email, u.Role.String(), scopes))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Access.TTL().Seconds()),
	}, nil
}

// IssueStage mints the short-lived token that bridges password login and
// the TOTP step. It grants no API access.
func (s *TokenService) IssueStage(userID string) (string, error) {
	tok, err := s.Stage.Sign(jwtx.NewStageClaims(userID))
	if err != nil {
		return "", fmt.Errorf("failed to sign stage token: %w", err)
	}
	return tok, nil
}

// IssueAction mints a signed approve/deny link token for a role request.
func (s *TokenService) IssueAction(userID, action string, requested domain.Role) (string, error) {
	tok, err := s.Action.Sign(jwtx.NewActionClaims(userID, action, requested.String()))
	if err != nil {
		return "", fmt.Errorf("failed to sign action token: %w", err)
	}
	return tok, nil
}

func (s *TokenService) VerifyRefresh(raw string) (jwtx.Claims, error) {
	return s.Refresh.Verify(raw)
}

func (s *TokenService) VerifyStage(raw string) (jwtx.Claims, error) {
	return s.Stage.Verify(raw)
}

func (s *TokenService) VerifyAction(raw string) (jwtx.Claims, error) {
	return s.Action.Verify(raw)
}
