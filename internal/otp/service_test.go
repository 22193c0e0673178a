package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/auth"
	"fieldops-platform/internal/config"
	"fieldops-platform/internal/mutate"
	"fieldops-platform/internal/users"
)

type fakeVendor struct {
	verifyOK bool
	sent     []string
}

func (f *fakeVendor) SendOTP(ctx context.Context, phone, templateID string) (VendorResult, error) {
	f.sent = append(f.sent, phone)
	return VendorResult{Success: true, Message: "OTP sent successfully"}, nil
}

func (f *fakeVendor) VerifyOTP(ctx context.Context, phone, code string) (VendorResult, error) {
	if f.verifyOK {
		return VendorResult{Success: true, Message: "OTP verified successfully"}, nil
	}
	return VendorResult{Success: false, Message: "Invalid OTP"}, nil
}

func newLoginService(t *testing.T, vendor Sender) (*Service, *users.MemoryRepo, *audit.MemoryRepo) {
	t.Helper()
	dir := users.NewMemoryRepo()
	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(vendor, dir, tokens, audit.NewRecorder(auditRepo), nil, nil)
	return svc, dir, auditRepo
}

func TestVerifyLogin_IssuesTokensAndAuditsLogin(t *testing.T) {
	svc, dir, auditRepo := newLoginService(t, &fakeVendor{verifyOK: true})
	seeded, err := dir.Create(context.Background(), users.User{
		FullName: "Alice", Phone: "919876543210", RoleID: "r-sales", IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := svc.VerifyLogin(context.Background(), "91 98765 43210", "1234", "198.51.100.4")
	if err != nil {
		t.Fatalf("verify login: %v", err)
	}
	if res.User.UserID != seeded.UserID {
		t.Fatalf("expected seeded user, got %+v", res.User)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}

	recs := auditRepo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 login audit record, got %d", len(recs))
	}
	r := recs[0]
	if r.Action != audit.ActionLogin || r.UserID != seeded.UserID || r.IPAddress != "198.51.100.4" {
		t.Fatalf("unexpected login record %+v", r)
	}
	if r.OldValues != nil || r.NewValues != nil {
		t.Fatalf("login records carry no snapshots")
	}
}

func TestVerifyLogin_RejectedCode(t *testing.T) {
	svc, _, auditRepo := newLoginService(t, &fakeVendor{verifyOK: false})

	_, err := svc.VerifyLogin(context.Background(), "919876543210", "0000", "")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if len(auditRepo.Records()) != 0 {
		t.Fatalf("failed login must not be recorded as a login")
	}
}

func TestVerifyLogin_UnknownPhoneIsNotFound(t *testing.T) {
	svc, _, _ := newLoginService(t, &fakeVendor{verifyOK: true})

	_, err := svc.VerifyLogin(context.Background(), "910000000000", "1234", "")
	if !errors.Is(err, mutate.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyLogin_InactiveUser(t *testing.T) {
	svc, dir, _ := newLoginService(t, &fakeVendor{verifyOK: true})
	if _, err := dir.Create(context.Background(), users.User{Phone: "919876543210", IsActive: false}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.VerifyLogin(context.Background(), "919876543210", "1234", "")
	if !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected ErrInactiveUser, got %v", err)
	}
}

func TestSendLoginCode_RequiresPhone(t *testing.T) {
	svc, _, _ := newLoginService(t, &fakeVendor{})
	if _, err := svc.SendLoginCode(context.Background(), ""); !errors.Is(err, mutate.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSendThrottleScriptCompiles(t *testing.T) {
	if sendThrottleScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}
