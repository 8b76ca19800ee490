package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
)

// RoleActionService settles role requests, either through the signed
// email links or through the admin endpoints.
type RoleActionService struct {
	Store  store.Store
	Tokens *TokenService
	Notify Notifier
	Log    *slog.Logger
}

// Decision is the outcome reported back to whoever clicked the link.
type Decision struct {
	Action    string      `json:"action"` // "approve" or "deny"
	UserName  string      `json:"user_name"`
	UserEmail string      `json:"user_email"`
	Role      domain.Role `json:"role"`
	Settled   bool        `json:"settled"` // true when the request was already decided earlier
}

// Apply settles a role request from an emailed action link. Clicking the
// same link twice reports the earlier outcome instead of erroring, and a
// link for a request that was since superseded is rejected.
func (s *RoleActionService) Apply(ctx context.Context, token string) (*Decision, error) {
	claims, err := s.Tokens.VerifyAction(token)
	if err != nil {
		return nil, ErrActionTokenInvalid
	}
	if claims.Action != "approve" && claims.Action != "deny" {
		return nil, ErrActionTokenInvalid
	}
	requested, err := domain.ParseRole(claims.RequestedRole)
	if err != nil || !requested.Grantable() {
		return nil, ErrActionTokenInvalid
	}

	u, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrActionTokenInvalid
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	dec := &Decision{
		Action:    claims.Action,
		UserName:  u.Name,
		UserEmail: u.Email,
		Role:      requested,
	}

	// Already settled for this request: report the outcome, change nothing.
	if u.RequestedRole != requested || u.Approved {
		if u.Role == requested {
			dec.Action = "approve"
			dec.Settled = true
			return dec, nil
		}
		if u.RequestedRole == "" || u.Approved {
			dec.Action = "deny"
			dec.Settled = true
			return dec, nil
		}
		return nil, ErrActionTokenInvalid
	}

	switch claims.Action {
	case "approve":
		u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
			Role:          domain.Ptr(requested),
			RequestedRole: domain.Ptr(domain.Role("")),
			Approved:      domain.Ptr(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to grant role: %w", err)
		}
		s.Notify.Dispatch(domain.Notification{
			Kind:          domain.NotifyRoleApproved,
			To:            u.Email,
			UserName:      u.Name,
			RequestedRole: requested,
		})

	case "deny":
		u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
			RequestedRole: domain.Ptr(domain.Role("")),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to deny role: %w", err)
		}
		s.Notify.Dispatch(domain.Notification{
			Kind:          domain.NotifyRoleDenied,
			To:            u.Email,
			UserName:      u.Name,
			RequestedRole: requested,
		})
	}

	return dec, nil
}

// ListPending returns users whose role requests await a decision.
func (s *RoleActionService) ListPending(ctx context.Context) ([]*domain.User, error) {
	users, err := s.Store.Users().ListPendingRoleRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests: %w", err)
	}
	return users, nil
}

// SetRole assigns a role directly. Only admins reach this, and only an
// admin may hand out the employer role; actorRole is the caller's role.
func (s *RoleActionService) SetRole(ctx context.Context, actorRole domain.Role, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q cannot be assigned", ErrValidation, role)
	}
	if role == domain.RoleEmployer && actorRole != domain.RoleAdmin {
		return nil, ErrNotAllowed
	}

	u, err := s.Store.Users().Update(ctx, userID, domain.UserPatch{
		Role:          domain.Ptr(role),
		RequestedRole: domain.Ptr(domain.Role("")),
		Approved:      domain.Ptr(true),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set role: %w", err)
	}

	s.Notify.Dispatch(domain.Notification{
		Kind:          domain.NotifyRoleApproved,
		To:            u.Email,
		UserName:      u.Name,
		RequestedRole: role,
	})
	return u, nil
}

// Deny clears a pending request without changing the user's role.
func (s *RoleActionService) Deny(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.PendingRoleRequest() {
		return nil, ErrActionSettled
	}
	requested := u.RequestedRole

	u, err = s.Store.Users().Update(ctx, userID, domain.UserPatch{
		RequestedRole: domain.Ptr(domain.Role("")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to deny role: %w", err)
	}

	s.Notify.Dispatch(domain.Notification{
		Kind:          domain.NotifyRoleDenied,
		To:            u.Email,
		UserName:      u.Name,
		RequestedRole: requested,
	})
	return u, nil
}
