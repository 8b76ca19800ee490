package jwtx_test

import (
	"testing"
	"time"

	"github.com/itas-team/itas/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "itas-test"

func newSigner(t *testing.T, kind jwtx.Kind, secret string, ttl time.Duration) *jwtx.Signer {
	t.Helper()
	s, err := jwtx.NewSigner(kind, []byte(secret), testIssuer, ttl)
	require.NoError(t, err)
	return s
}

func TestNewSigner(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSigner(jwtx.KindAccess, nil, testIssuer, 0)
	require.Error(t, err)

	s := newSigner(t, jwtx.KindAccess, "secret", 0)
	require.Equal(t, jwtx.DefaultAccessTTL, s.TTL())
	require.Equal(t, jwtx.KindAccess, s.Kind())
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	s := newSigner(t, jwtx.KindAccess, "access-secret", time.Minute)

	claims := jwtx.NewSessionClaims(
		jwtx.KindAccess, "user-1", "alice@x.com", "developer",
		[]string{"profile:read", "tasks:read"},
	)

	raw, err := s.Sign(claims)
	require.NoError(t, err)

	got, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "alice@x.com", got.Email)
	require.Equal(t, "developer", got.Role)
	require.Equal(t, testIssuer, got.Issuer)
	require.True(t, got.HasScope("tasks:read"))
	require.False(t, got.HasScope("admin:write"))
}

func TestVerifyRejectsOtherKinds(t *testing.T) {
	t.Parallel()

	access := newSigner(t, jwtx.KindAccess, "session-secret", time.Minute)
	stage := newSigner(t, jwtx.KindStage, "stage-secret", time.Minute)

	stageToken, err := stage.Sign(jwtx.NewStageClaims("user-1"))
	require.NoError(t, err)

	// A stage token must never pass access verification.
	_, err = access.Verify(stageToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerifyRejectsKindEvenWithSharedSecret(t *testing.T) {
	t.Parallel()

	// Misconfigured deployments sometimes reuse one secret. The embedded
	// kind claim still keeps the namespaces apart.
	access := newSigner(t, jwtx.KindAccess, "same-secret", time.Minute)
	action := newSigner(t, jwtx.KindAction, "same-secret", time.Minute)

	actionToken, err := action.Sign(jwtx.NewActionClaims("user-1", "approve", "developer"))
	require.NoError(t, err)

	_, err = access.Verify(actionToken)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	s := newSigner(t, jwtx.KindStage, "stage-secret", time.Minute)

	raw, err := s.SignAt(jwtx.NewStageClaims("user-1"), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = s.Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyGarbage(t *testing.T) {
	t.Parallel()

	s := newSigner(t, jwtx.KindAccess, "secret", time.Minute)

	for _, raw := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := s.Verify(raw)
		require.ErrorIs(t, err, jwtx.ErrInvalid)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	signer := newSigner(t, jwtx.KindAccess, "real-secret", time.Minute)
	imposter := newSigner(t, jwtx.KindAccess, "other-secret", time.Minute)

	raw, err := signer.Sign(jwtx.NewSessionClaims(jwtx.KindAccess, "u", "e@x.com", "client", nil))
	require.NoError(t, err)

	_, err = imposter.Verify(raw)
	require.ErrorIs(t, err, jwtx.ErrInvalid)
}

func TestActionClaims(t *testing.T) {
	t.Parallel()

	s := newSigner(t, jwtx.KindAction, "action-secret", 48*time.Hour)

	raw, err := s.Sign(jwtx.NewActionClaims("user-9", "deny", "employer"))
	require.NoError(t, err)

	got, err := s.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-9", got.Subject)
	require.Equal(t, "deny", got.Action)
	require.Equal(t, "employer", got.RequestedRole)
}

func TestSignRejectsMismatchedKind(t *testing.T) {
	t.Parallel()

	s := newSigner(t, jwtx.KindAccess, "secret", time.Minute)

	_, err := s.Sign(jwtx.NewStageClaims("user-1"))
	require.Error(t, err)
}
