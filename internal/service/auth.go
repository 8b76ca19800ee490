package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
	"github.com/itas-team/itas/pkg/cryptox"
	"github.com/itas-team/itas/pkg/idx"
)

const (
	minPasswordLen = 8

	resetTokenBytes = cryptox.TokenSize256
	resetTokenTTL   = 15 * time.Minute
)

// Notifier is the outbound mail hook. The dispatcher implements it;
// tests substitute a recorder.
type Notifier interface {
	Dispatch(n domain.Notification)
}

// AuthService owns the account lifecycle: registration, the two-step
// login, token refresh and password recovery.
type AuthService struct {
	Store    store.Store
	Tokens   *TokenService
	Notify   Notifier
	Log      *slog.Logger
	Seed     *TaskService // seeds starter tasks for new accounts, optional
	BaseURL  string       // public URL the action/reset links point at
	Reviewer string       // mailbox that receives role requests
}

type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	RequestedRole string // optional, "developer" or "employer"
}

// Register creates an account. It never issues tokens: the caller must
// log in and complete 2FA enrolment first. An elevated role request is
// recorded and mailed to the reviewer, it never takes effect on its own.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	var requested domain.Role
	if in.RequestedRole != "" {
		role, err := domain.ParseRole(in.RequestedRole)
		if err != nil {
			return nil, fmt.Errorf("%w: role %q cannot be requested", ErrValidation, in.RequestedRole)
		}
		switch {
		case role.Grantable():
			requested = role
		case role == domain.RoleClient:
			// Asking for the default role is the same as asking for nothing.
		default:
			return nil, fmt.Errorf("%w: role %q cannot be requested", ErrValidation, in.RequestedRole)
		}
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// TwoFASetupRequired stays false here: the first password login is
	// what flags the account for enrolment.
	now := time.Now().UTC()
	u := &domain.User{
		ID:            idx.New().String(),
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleClient,
		RequestedRole: requested,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.Seed != nil {
		if err := s.Seed.SeedStarterTasks(ctx, u.ID); err != nil {
			s.Log.Warn("failed to seed starter tasks", "user_id", u.ID, "error", err)
		}
	}

	if requested != "" {
		s.sendRoleRequest(u, requested)
	}

	return u, nil
}

func (s *AuthService) sendRoleRequest(u *domain.User, requested domain.Role) {
	approve, err := s.Tokens.IssueAction(u.ID, "approve", requested)
	if err != nil {
		s.Log.Error("failed to issue approve token", "user_id", u.ID, "error", err)
		return
	}
	deny, err := s.Tokens.IssueAction(u.ID, "deny", requested)
	if err != nil {
		s.Log.Error("failed to issue deny token", "user_id", u.ID, "error", err)
		return
	}

	s.Notify.Dispatch(domain.Notification{
		Kind:          domain.NotifyRoleRequest,
		To:            s.Reviewer,
		UserName:      u.Name,
		UserEmail:     u.Email,
		RequestedRole: requested,
		ApproveURL:    s.actionURL(approve),
		DenyURL:       s.actionURL(deny),
	})
}

func (s *AuthService) actionURL(token string) string {
	return s.BaseURL + "/api/admin/role-action?token=" + url.QueryEscape(token)
}

// LoginStatus tells the client which step comes next.
type LoginStatus string

const (
	// LoginOK only appears on Verify2FALogin; password login alone never
	// yields a full session.
	LoginOK LoginStatus = "ok"

	// LoginNeeds2FA means the password checked out and a TOTP code is
	// required to finish.
	LoginNeeds2FA LoginStatus = "2fa_required"

	// LoginNeedsSetup means the account has not enrolled in 2FA yet. The
	// accompanying session is scope-limited to the enrolment endpoints.
	LoginNeedsSetup LoginStatus = "2fa_setup_required"
)

type LoginResult struct {
	Status     LoginStatus
	User       *domain.User
	Tokens     *TokenPair // set for LoginOK and LoginNeedsSetup
	StageToken string     // set for LoginNeeds2FA
}

// Login performs the password step. roleHint, when set, must match the
// role the account actually holds; it exists so the frontend's role
// picker cannot be used to escalate.
func (s *AuthService) Login(ctx context.Context, email, password, roleHint string) (*LoginResult, error) {
	u, err := s.Store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so missing accounts are not
			// distinguishable by latency.
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if roleHint != "" && u.Role.String() != roleHint {
		return nil, ErrRoleNotGranted
	}

	if u.TwoFAEnabled {
		stage, err := s.Tokens.IssueStage(u.ID)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Status: LoginNeeds2FA, User: u, StageToken: stage}, nil
	}

	// Not enrolled yet. Make sure the flag reflects that, then hand out a
	// session that can only reach the enrolment endpoints.
	if !u.TwoFASetupRequired {
		u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
			TwoFASetupRequired: domain.Ptr(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to flag 2FA setup: %w", err)
		}
	}

	pair, err := s.Tokens.IssuePair(u, true)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Status: LoginNeedsSetup, User: u, Tokens: &pair}, nil
}

// Verify2FALogin finishes a login started with Login. The stage token
// proves the password step happened recently; the code proves TOTP
// possession.
func (s *AuthService) Verify2FALogin(ctx context.Context, stageToken, code string) (*LoginResult, error) {
	claims, err := s.Tokens.VerifyStage(stageToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if u.TwoFASecret == "" {
		return nil, ErrTwoFANotEnrolled
	}
	if !validTOTP(code, u.TwoFASecret) {
		return nil, ErrInvalidTOTPCode
	}

	// A confirmed secret with a stale enabled flag means an earlier
	// promotion was interrupted. Repair it here.
	if !u.TwoFAEnabled {
		u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
			TwoFAEnabled:       domain.Ptr(true),
			TwoFASetupRequired: domain.Ptr(false),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to repair 2FA flags: %w", err)
		}
	}

	pair, err := s.Tokens.IssuePair(u, false)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Status: LoginOK, User: u, Tokens: &pair}, nil
}

// Refresh mints a new pair from a refresh token. The user is reloaded so
// role changes and 2FA state land in the new tokens instead of the old
// claims being copied forward.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	pair, err := s.Tokens.IssuePair(u, !u.TwoFAEnabled)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ForgotPassword starts recovery. The response is identical whether or
// not the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := cryptox.GenerateHexToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	exp := time.Now().UTC().Add(resetTokenTTL)
	u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
		ResetToken:    domain.Ptr(token),
		ResetTokenExp: domain.Ptr(exp),
	})
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.Notify.Dispatch(domain.Notification{
		Kind:     domain.NotifyPasswordReset,
		To:       u.Email,
		UserName: u.Name,
		ResetURL: s.BaseURL + "/reset-password?token=" + url.QueryEscape(token),
	})
	return nil
}

// ResetPassword consumes a reset token. Tokens are single use: the row
// is cleared in the same update that writes the new hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	u, err := s.Store.Users().GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !u.ResetTokenValid(token, time.Now().UTC()) {
		return ErrResetTokenInvalid
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
		PasswordHash:  domain.Ptr(hash),
		ResetToken:    domain.Ptr(""),
		ResetTokenExp: domain.Ptr(time.Time{}),
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// Me returns the profile for an authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
