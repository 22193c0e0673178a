package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fieldops-platform/internal/config"
)

// Client talks to the MSG91 OTP API. Only the send/verify surface this
// service needs is wrapped; raw vendor payloads are passed through for
// callers that want to log them.

type Client struct {
	httpClient *http.Client
	baseURL    string
	authKey    string
	templateID string
}

func NewClient(cfg config.MSG91Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    base,
		authKey:    cfg.AuthKey,
		templateID: cfg.TemplateID,
	}
}

var (
	ErrNotConfigured = errors.New("otp: vendor auth key is not configured")
	ErrPhoneRequired = errors.New("otp: phone number is required")
	ErrCodeRequired  = errors.New("otp: code is required")
)

// VendorResult is the normalized vendor response: a success flag, the raw
// payload, and a human-readable message.
type VendorResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// NormalizePhone strips whitespace, parentheses and dashes before vendor
// dispatch. The leading + and country code are kept as supplied.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
}

type vendorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SendOTP dispatches a one-time code to the phone number. templateID
// overrides the configured default when non-empty.
func (c *Client) SendOTP(ctx context.Context, phone, templateID string) (VendorResult, error) {
	if c.authKey == "" {
		return VendorResult{}, ErrNotConfigured
	}
	if phone == "" {
		return VendorResult{}, ErrPhoneRequired
	}

	payload := map[string]string{
		"authkey": c.authKey,
		"mobile":  NormalizePhone(phone),
	}
	if templateID == "" {
		templateID = c.templateID
	}
	if templateID != "" {
		payload["template_id"] = templateID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return VendorResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/otp", bytes.NewReader(body))
	if err != nil {
		return VendorResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, vr, err := c.do(req)
	if err != nil {
		return VendorResult{}, err
	}

	ok := vr.Type == "success"
	msg := "OTP sent successfully"
	if !ok {
		msg = vendorMessage(vr, "Failed to send OTP")
	}
	return VendorResult{Success: ok, Message: msg, Payload: raw}, nil
}

// VerifyOTP checks a code against the vendor. The vendor reports
// type=success when the code matches.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (VendorResult, error) {
	if c.authKey == "" {
		return VendorResult{}, ErrNotConfigured
	}
	if phone == "" {
		return VendorResult{}, ErrPhoneRequired
	}
	if code == "" {
		return VendorResult{}, ErrCodeRequired
	}

	q := url.Values{}
	q.Set("authkey", c.authKey)
	q.Set("mobile", NormalizePhone(phone))
	q.Set("otp", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/otp/verify?"+q.Encode(), nil)
	if err != nil {
		return VendorResult{}, err
	}

	raw, vr, err := c.do(req)
	if err != nil {
		return VendorResult{}, err
	}

	ok := vr.Type == "success"
	msg := "OTP verified successfully"
	if !ok {
		msg = vendorMessage(vr, "Invalid OTP")
	}
	return VendorResult{Success: ok, Message: msg, Payload: raw}, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, vendorResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, vendorResponse{}, fmt.Errorf("otp: vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, vendorResponse{}, fmt.Errorf("otp: read vendor response: %w", err)
	}

	var vr vendorResponse
	// The vendor reports failures in-band; a decode failure just leaves the
	// flag unset and the raw payload available to the caller.
	_ = json.Unmarshal(raw, &vr)
	return raw, vr, nil
}

func vendorMessage(vr vendorResponse, fallback string) string {
	if vr.Message != "" {
		return vr.Message
	}
	return fallback
}
