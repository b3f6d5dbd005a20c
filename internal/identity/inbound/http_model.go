package inbound

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Remember    bool   `json:"remember"`
	DeviceToken string `json:"device_token,omitempty"`
}

type LoginResponse struct {
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
	ChallengeToken    string `json:"challenge_token,omitempty"`
	SessionToken      string `json:"session_token,omitempty"`
}

type LoginTOTPRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
	Remember       bool   `json:"remember"`
	TrustDevice    bool   `json:"trust_device"`
}

type LoginTOTPResponse struct {
	SessionToken string `json:"session_token"`
	DeviceToken  string `json:"device_token,omitempty"`
}

type LoginRecoveryRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
	Remember       bool   `json:"remember"`
}

type LoginRecoveryResponse struct {
	SessionToken      string `json:"session_token"`
	TwoFactorDisabled bool   `json:"two_factor_disabled"`
}

func (LoginRecoveryResponse) Message() string {
	return "Recovery code accepted. Two-factor authentication has been disabled; set it up again from your account settings."
}

type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captcha_token"`
}

type RegisterResponse struct{}

func (RegisterResponse) Message() string {
	return "Registration successful. Please check your email to verify your account."
}

type RegisterVerifyRequest struct {
	ChallengeToken string `json:"challenge_token"`
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type PasswordForgotResponse struct{}

func (PasswordForgotResponse) Message() string {
	return "If an account with that email exists, we have sent a password reset link."
}

type PasswordResetRequest struct {
	ChallengeToken string `json:"challenge_token"`
	NewPassword    string `json:"new_password"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type TOTPSetupRequest struct {
	CurrentPassword string `json:"current_password"`
}

type TOTPSetupResponse struct {
	ChallengeToken string `json:"challenge_token"`
	Key            string `json:"key"`
	URI            string `json:"uri"`
	QRCode         string `json:"qr_code"`
}

type TOTPConfirmRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
	TrustDevice    bool   `json:"trust_device"`
}

type TOTPConfirmResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
	SessionToken  string   `json:"session_token"`
	DeviceToken   string   `json:"device_token,omitempty"`
}

func (TOTPConfirmResponse) Message() string {
	return "Two-factor authentication enabled. Store these recovery codes somewhere safe; they will not be shown again."
}

type TOTPDisableRequest struct {
	Code string `json:"code"`
}

type LogoutRequest struct {
	DeviceToken string `json:"device_token,omitempty"`
}

type AccountDeleteRequest struct {
	Password string `json:"password"`
}
