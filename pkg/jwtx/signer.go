package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalid covers malformed tokens, bad signatures, kind mismatches
	// and issuer mismatches. Callers that need to distinguish expiry from
	// everything else check ErrExpired first.
	ErrInvalid = errors.New("jwtx: invalid token")
	ErrExpired = errors.New("jwtx: token expired")
)

// Signer signs and verifies tokens of exactly one Kind with its own secret.
// A Signer for one kind rejects tokens minted by any other, even if the
// secrets were misconfigured to the same value.
type Signer struct {
	kind   Kind
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
}

// NewSigner builds a Signer for the given kind. ttl <= 0 falls back to the
// kind's default lifetime.
func NewSigner(kind Kind, secret []byte, issuer string, ttl time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("jwtx: empty secret for kind %q", kind)
	}
	if ttl <= 0 {
		ttl = defaultTTL(kind)
	}
	return &Signer{
		kind:   kind,
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		leeway: 30 * time.Second,
	}, nil
}

// Kind returns the token kind this signer is bound to.
func (s *Signer) Kind() Kind { return s.kind }

// TTL returns the lifetime applied to signed tokens.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign stamps issuer, issued-at and expiry onto the claims and returns the
// compact HS256 serialization.
func (s *Signer) Sign(c Claims) (string, error) {
	return s.SignAt(c, time.Now())
}

// SignAt is Sign with an explicit clock, for tests.
func (s *Signer) SignAt(c Claims, now time.Time) (string, error) {
	if c.Kind != s.kind {
		return "", fmt.Errorf("jwtx: claims kind %q does not match signer kind %q", c.Kind, s.kind)
	}

	c.Issuer = s.issuer
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: signing failed: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Expired tokens
// return ErrExpired; every other failure returns ErrInvalid.
func (s *Signer) Verify(raw string) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	if claims.Kind != s.kind {
		return Claims{}, ErrInvalid
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return Claims{}, ErrInvalid
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalid
	}

	return claims, nil
}

func defaultTTL(kind Kind) time.Duration {
	switch kind {
	case KindRefresh:
		return DefaultRefreshTTL
	case KindStage:
		return DefaultStageTTL
	case KindAction:
		return DefaultActionTTL
	default:
		return DefaultAccessTTL
	}
}
