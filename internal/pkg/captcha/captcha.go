// Package captcha verifies human-verification tokens against a provider's
// server-side verification endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Verifier checks a captcha response token submitted by a client.
type Verifier interface {
	// Verify returns nil when the token is valid. A verification mismatch and
	// a transport failure are both errors; callers treat either as a rejected
	// token.
	Verify(ctx context.Context, token, remoteIP string) error
}

// HTTPVerifier verifies tokens against a reCAPTCHA/hCaptcha-compatible
// siteverify endpoint.
type HTTPVerifier struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given siteverify endpoint.
func NewHTTPVerifier(endpoint, secret string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPVerifier{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: timeout},
	}
}

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the siteverify endpoint.
func (v *HTTPVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return fmt.Errorf("captcha: empty token")
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("captcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha: call siteverify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha: siteverify returned status %d", resp.StatusCode)
	}

	var body siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("captcha: decode response: %w", err)
	}

	if !body.Success {
		return fmt.Errorf("captcha: token rejected: %s", strings.Join(body.ErrorCodes, ","))
	}

	return nil
}

// Noop accepts every token. Used when captcha is disabled in configuration.
type Noop struct{}

// NewNoop returns a Verifier that always succeeds.
func NewNoop() *Noop {
	return &Noop{}
}

// Verify always returns nil.
func (*Noop) Verify(context.Context, string, string) error {
	return nil
}
