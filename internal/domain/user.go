package domain

import "time"

// User is the central account record. Authentication state (password,
// 2FA enrolment, reset tokens) and authorization state (role, pending
// role request) live on the same row.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string

	Role          Role
	RequestedRole Role // non-empty while a role request is pending
	Approved      bool // true once a reviewer approved the requested role

	TwoFAEnabled       bool
	TwoFASecret        string // active TOTP secret, only set once confirmed
	TwoFASetupTemp     string // candidate secret awaiting first valid code
	TwoFASetupRequired bool   // forces enrolment before a full session is issued

	ResetToken    string
	ResetTokenExp time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PendingRoleRequest reports whether the user is waiting on a reviewer
// decision for an elevated role.
func (u *User) PendingRoleRequest() bool {
	return u.RequestedRole != "" && !u.Approved
}

// ResetTokenValid reports whether the stored reset token matches and has
// not expired at the given instant.
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || token == "" {
		return false
	}
	if u.ResetToken != token {
		return false
	}
	return now.Before(u.ResetTokenExp)
}

// UserPatch is a partial update applied to a user row. Nil fields are
// left untouched. Updates return the stored row so callers never work
// from a stale in-memory copy.
type UserPatch struct {
	Name         *string
	PasswordHash *string

	Role          *Role
	RequestedRole *Role
	Approved      *bool

	TwoFAEnabled       *bool
	TwoFASecret        *string
	TwoFASetupTemp     *string
	TwoFASetupRequired *bool

	ResetToken    *string
	ResetTokenExp *time.Time
}

// helpers for building patches without local temporaries

func Ptr[T any](v T) *T { return &v }
