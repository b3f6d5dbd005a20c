package inbound

import (
	"context"

	"github.com/gobackend-labs/authcore/internal/identity/usecase"
	"github.com/gobackend-labs/authcore/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyTOTPChallenge(ctx context.Context, in usecase.VerifyTOTPChallengeInput) (*usecase.VerifyTOTPChallengeOutput, error)
	RedeemRecoveryCode(ctx context.Context, in usecase.RedeemRecoveryCodeInput) (*usecase.RedeemRecoveryCodeOutput, error)

	Register(ctx context.Context, in usecase.RegisterInput) error
	RegisterVerify(ctx context.Context, in usecase.RegisterVerifyInput) error

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) error
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	EnrollTOTP(ctx context.Context, in usecase.EnrollTOTPInput) (*usecase.EnrollTOTPOutput, error)
	VerifyTOTPEnrollment(ctx context.Context, in usecase.VerifyTOTPEnrollmentInput) (*usecase.VerifyTOTPEnrollmentOutput, error)
	DisableTOTP(ctx context.Context, in usecase.DisableTOTPInput) error

	Logout(ctx context.Context, in usecase.LogoutInput) error
	AccountDelete(ctx context.Context, in usecase.AccountDeleteInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Authentication
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/login/totp", end.LoginTOTP)
	r.POST("/api/v1/auth/login/recovery", end.LoginRecovery)
	//
	r.POST("/api/v1/auth/register", end.Register)
	r.POST("/api/v1/auth/register/verify", end.RegisterVerify)
	//
	r.POST("/api/v1/auth/logout", end.Logout) // need authenticated

	// Password Management
	r.POST("/api/v1/auth/password/forgot", end.PasswordForgot)
	r.POST("/api/v1/auth/password/reset", end.PasswordReset)
	r.POST("/api/v1/auth/password/change", end.PasswordChange) // need authenticated

	// MFA (TOTP) - need authenticated
	r.POST("/api/v1/auth/mfa/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/auth/mfa/totp/confirm", end.TOTPConfirm)
	r.POST("/api/v1/auth/mfa/totp/disable", end.TOTPDisable)

	// Account - need authenticated
	r.DELETE("/api/v1/auth/account", end.AccountDelete)
}
