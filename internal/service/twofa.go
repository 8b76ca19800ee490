package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/internal/store"
)

// TwoFAService drives TOTP enrolment. Enrolment is two steps: Setup
// writes a candidate secret, Confirm promotes it once the user proves
// their authenticator produces matching codes.
type TwoFAService struct {
	Store  store.Store
	Issuer string // issuer label shown in authenticator apps
}

// Enrollment is handed to the frontend so it can render the QR code and
// offer manual entry.
type Enrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCodeData string `json:"qr_code"` // data: URL with an inline PNG
}

// Setup generates a fresh candidate secret for the user. Repeat calls
// overwrite the previous candidate; the active secret, if any, is not
// touched until Confirm.
func (s *TwoFAService) Setup(ctx context.Context, userID string) (*Enrollment, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	if _, err := s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
		TwoFASetupTemp: domain.Ptr(key.Secret()),
	}); err != nil {
		return nil, fmt.Errorf("failed to store candidate secret: %w", err)
	}

	qr, err := qrDataURL(key)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	return &Enrollment{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		QRCodeData: qr,
	}, nil
}

// Confirm checks a code against the candidate secret and, on success,
// promotes it to the active secret and clears the setup-required flag in
// a single update. Once 2FA is enabled a Confirm with no fresh candidate
// is rejected: the caller already holds an enrolled account and must not
// be handed new tokens without a real TOTP check.
func (s *TwoFAService) Confirm(ctx context.Context, userID, code string) (*domain.User, error) {
	u, err := s.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if u.TwoFASetupTemp == "" {
		if u.TwoFAEnabled {
			return nil, ErrTwoFAEnabled
		}
		return nil, ErrTwoFANotEnrolled
	}

	if !validTOTP(code, u.TwoFASetupTemp) {
		return nil, ErrInvalidTOTPCode
	}

	u, err = s.Store.Users().Update(ctx, u.ID, domain.UserPatch{
		TwoFAEnabled:       domain.Ptr(true),
		TwoFASecret:        domain.Ptr(u.TwoFASetupTemp),
		TwoFASetupTemp:     domain.Ptr(""),
		TwoFASetupRequired: domain.Ptr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to promote secret: %w", err)
	}
	return u, nil
}

// validTOTP checks a 6-digit code with one period of clock skew either
// side. Whitespace in pasted codes is tolerated.
func validTOTP(code, secret string) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func qrDataURL(key *otp.Key) (string, error) {
	img, err := key.Image(200, 200)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
