package inbound

import (
	"github.com/gobackend-labs/authcore/internal/identity/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for authentication workflows.
type HTTPEndpoint struct {
	uc uc
}

// Login authenticates an account. The response is either a session token or,
// when a second factor is enrolled, a challenge token for the TOTP step.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:       req.Email,
		Password:    req.Password,
		Remember:    req.Remember,
		DeviceToken: req.DeviceToken,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		TwoFactorRequired: resp.TwoFactorRequired,
		ChallengeToken:    resp.ChallengeToken,
		SessionToken:      resp.SessionToken,
	}, nil
}

// LoginTOTP completes a pending login challenge with an authenticator code.
func (h *HTTPEndpoint) LoginTOTP(r *router.Request) (any, error) {
	var req LoginTOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyTOTPChallenge(r.Context(), usecase.VerifyTOTPChallengeInput{
		ChallengeToken: req.ChallengeToken,
		Code:           req.Code,
		Remember:       req.Remember,
		TrustDevice:    req.TrustDevice,
	})
	if err != nil {
		return nil, err
	}

	return LoginTOTPResponse{
		SessionToken: resp.SessionToken,
		DeviceToken:  resp.DeviceToken,
	}, nil
}

// LoginRecovery completes a pending login challenge with a single-use
// recovery code.
func (h *HTTPEndpoint) LoginRecovery(r *router.Request) (any, error) {
	var req LoginRecoveryRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RedeemRecoveryCode(r.Context(), usecase.RedeemRecoveryCodeInput{
		ChallengeToken: req.ChallengeToken,
		Code:           req.Code,
		Remember:       req.Remember,
	})
	if err != nil {
		return nil, err
	}

	return LoginRecoveryResponse{
		SessionToken:      resp.SessionToken,
		TwoFactorDisabled: resp.TwoFactorDisabled,
	}, nil
}

// Register creates a new account and sends a verification email.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     r.RemoteAddr,
	}); err != nil {
		return nil, err
	}

	return &RegisterResponse{}, nil
}

// RegisterVerify activates an account using the emailed challenge token.
func (h *HTTPEndpoint) RegisterVerify(r *router.Request) (any, error) {
	var req RegisterVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RegisterVerify(r.Context(), usecase.RegisterVerifyInput{
		ChallengeToken: req.ChallengeToken,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// PasswordForgot starts a password reset. The response does not reveal
// whether the email exists.
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{
		Email: req.Email,
	}); err != nil {
		return nil, err
	}

	return &PasswordForgotResponse{}, nil
}

// PasswordReset completes a password reset started by PasswordForgot.
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		ChallengeToken: req.ChallengeToken,
		NewPassword:    req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// PasswordChange rotates the password of the authenticated account.
func (h *HTTPEndpoint) PasswordChange(r *router.Request) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// TOTPSetup stages a new authenticator enrollment for the authenticated
// account.
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	var req TOTPSetupRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EnrollTOTP(r.Context(), usecase.EnrollTOTPInput{
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		ChallengeToken: resp.ChallengeToken,
		Key:            resp.Key,
		URI:            resp.URI,
		QRCode:         resp.QRCode,
	}, nil
}

// TOTPConfirm activates a staged enrollment and returns the recovery codes.
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyTOTPEnrollment(r.Context(), usecase.VerifyTOTPEnrollmentInput{
		ChallengeToken: req.ChallengeToken,
		Code:           req.Code,
		TrustDevice:    req.TrustDevice,
	})
	if err != nil {
		return nil, err
	}

	return TOTPConfirmResponse{
		RecoveryCodes: resp.RecoveryCodes,
		SessionToken:  resp.SessionToken,
		DeviceToken:   resp.DeviceToken,
	}, nil
}

// TOTPDisable turns the second factor off after a fresh authenticator code.
func (h *HTTPEndpoint) TOTPDisable(r *router.Request) (any, error) {
	var req TOTPDisableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.DisableTOTP(r.Context(), usecase.DisableTOTPInput{
		Code: req.Code,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// Logout invalidates the current session token and, when presented, the
// trusted device used for this login. The body is optional.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if r.ContentLength > 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{
		DeviceToken: req.DeviceToken,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// AccountDelete closes the authenticated account after re-verifying the
// password.
func (h *HTTPEndpoint) AccountDelete(r *router.Request) (any, error) {
	var req AccountDeleteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.AccountDelete(r.Context(), usecase.AccountDeleteInput{
		Password: req.Password,
	}); err != nil {
		return nil, err
	}

	return nil, nil
}
