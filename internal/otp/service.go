package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/auth"
	"fieldops-platform/internal/mutate"
	"fieldops-platform/internal/users"
)

// Sender is the vendor surface the login flow needs; Client implements it.
type Sender interface {
	SendOTP(ctx context.Context, phone, templateID string) (VendorResult, error)
	VerifyOTP(ctx context.Context, phone, code string) (VendorResult, error)
}

// UserDirectory resolves the account behind a verified phone number.
type UserDirectory interface {
	FindByPhone(ctx context.Context, phone string) (users.User, error)
}

var (
	ErrTooManySends = errors.New("otp: too many codes requested for this phone")
	ErrInvalidCode  = errors.New("otp: code rejected")
	ErrInactiveUser = errors.New("otp: user is inactive")
)

// Service drives the OTP login flow: throttle, vendor dispatch, account
// lookup, token issuance and an audit trail entry for the login itself.
type Service struct {
	vendor   Sender
	dir      UserDirectory
	tokens   *auth.Manager
	rec      *audit.Recorder
	throttle *Throttle
	clock    func() time.Time
	log      *slog.Logger
}

func NewService(vendor Sender, dir UserDirectory, tokens *auth.Manager, rec *audit.Recorder, throttle *Throttle, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		vendor:   vendor,
		dir:      dir,
		tokens:   tokens,
		rec:      rec,
		throttle: throttle,
		clock:    time.Now,
		log:      log,
	}
}

// SendLoginCode dispatches a login code unless the phone is over its send
// budget.
func (s *Service) SendLoginCode(ctx context.Context, phone string) (VendorResult, error) {
	if phone == "" {
		return VendorResult{}, fmt.Errorf("%w: phone", mutate.ErrValidation)
	}

	allowed, err := s.throttle.Allow(ctx, phone)
	if err != nil {
		// Throttle backend trouble should not lock users out of login.
		s.log.WarnContext(ctx, "otp throttle check failed", "err", err)
	} else if !allowed {
		return VendorResult{}, ErrTooManySends
	}

	return s.vendor.SendOTP(ctx, phone, "")
}

type LoginResult struct {
	User   users.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// VerifyLogin checks the code with the vendor, resolves the account and
// issues a token pair. The login lands in the audit ledger best-effort,
// like the secondary step of a mutation.
func (s *Service) VerifyLogin(ctx context.Context, phone, code, ip string) (LoginResult, error) {
	if phone == "" {
		return LoginResult{}, fmt.Errorf("%w: phone", mutate.ErrValidation)
	}
	if code == "" {
		return LoginResult{}, fmt.Errorf("%w: otp code", mutate.ErrValidation)
	}

	vr, err := s.vendor.VerifyOTP(ctx, phone, code)
	if err != nil {
		return LoginResult{}, err
	}
	if !vr.Success {
		return LoginResult{}, fmt.Errorf("%w: %s", ErrInvalidCode, vr.Message)
	}

	u, err := s.dir.FindByPhone(ctx, NormalizePhone(phone))
	if err != nil {
		return LoginResult{}, err
	}
	if !u.IsActive {
		return LoginResult{}, ErrInactiveUser
	}

	pair, err := s.tokens.IssuePair(s.clock().UTC(), u.UserID, u.Phone, u.RoleID)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.rec.Append(ctx, audit.Record{
		UserID:      u.UserID,
		Action:      audit.ActionLogin,
		Description: "User logged in via OTP",
		TableName:   "users",
		RecordID:    u.UserID,
		IPAddress:   ip,
	}); err != nil {
		s.log.WarnContext(ctx, "login audit append failed", "user_id", u.UserID, "err", err)
	}

	return LoginResult{User: u, Tokens: pair}, nil
}
